// Package prometheus is a small client for the Prometheus HTTP query API.
package prometheus

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Query is one expression to execute. RefID ties the result back to a panel
// query.
type Query struct {
	Expr         string
	RefID        string
	LegendFormat string
}

// Sample is a single value at a point in time. Value may be NaN when the
// backend returned non-numeric text.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// TimeSeries is one labeled series returned by a query.
type TimeSeries struct {
	Labels       map[string]string
	LegendFormat string
	Samples      []Sample
}

// Latest returns the final sample of the series.
func (s TimeSeries) Latest() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// Name returns the display name of the series using its legend format.
func (s TimeSeries) Name() string {
	return SeriesName(s.Labels, s.LegendFormat)
}

// Values returns the finite sample values in order.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, 0, len(s.Samples))
	for _, smp := range s.Samples {
		if !math.IsNaN(smp.Value) && !math.IsInf(smp.Value, 0) {
			out = append(out, smp.Value)
		}
	}
	return out
}

// QueryResult is the outcome of one query in a batch. A failed query has no
// series and a non-empty Error.
type QueryResult struct {
	RefID  string
	Series []TimeSeries
	Error  string
}

// Failed reports whether the query failed.
func (r QueryResult) Failed() bool {
	return r.Error != ""
}

// BuildInfo is the payload of /api/v1/status/buildinfo.
type BuildInfo struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	Branch    string `json:"branch"`
	GoVersion string `json:"goVersion"`
}

// apiResponse is the envelope every API endpoint returns.
type apiResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	ErrorType string          `json:"errorType"`
	Error     string          `json:"error"`
	Warnings  []string        `json:"warnings"`
}

type queryData struct {
	ResultType string          `json:"resultType"`
	Result     json.RawMessage `json:"result"`
}

type matrixEntry struct {
	Metric map[string]string `json:"metric"`
	Values []samplePair      `json:"values"`
}

type vectorEntry struct {
	Metric map[string]string `json:"metric"`
	Value  samplePair        `json:"value"`
}

// samplePair decodes the [unixSeconds, "value"] pairs used on the wire.
type samplePair Sample

func (p *samplePair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("sample pair has %d elements", len(raw))
	}

	var ts float64
	if err := json.Unmarshal(raw[0], &ts); err != nil {
		return fmt.Errorf("sample timestamp: %w", err)
	}
	sec, frac := math.Modf(ts)
	p.Timestamp = time.Unix(int64(sec), int64(math.Round(frac*1000))*int64(time.Millisecond))

	var text string
	if err := json.Unmarshal(raw[1], &text); err != nil {
		var num float64
		if json.Unmarshal(raw[1], &num) != nil {
			p.Value = math.NaN()
			return nil
		}
		p.Value = num
		return nil
	}
	p.Value = parseValue(text)
	return nil
}

// parseValue parses a sample value, returning NaN for non-numeric text.
func parseValue(text string) float64 {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var legendPattern = regexp.MustCompile(`\{\{[^}]+\}\}`)

// SeriesName formats a legend for labels. {{label}} placeholders in
// legendFormat are replaced with label values; without a format the metric
// name is used, then the label set, then "value".
func SeriesName(labels map[string]string, legendFormat string) string {
	if legendFormat != "" && legendFormat != "__auto" {
		return legendPattern.ReplaceAllStringFunc(legendFormat, func(m string) string {
			return labels[strings.TrimSpace(m[2:len(m)-2])]
		})
	}
	if name := labels["__name__"]; name != "" {
		return name
	}
	if len(labels) == 0 {
		return "value"
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
