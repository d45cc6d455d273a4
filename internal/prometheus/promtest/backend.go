// Package promtest serves a fake Prometheus HTTP API backed by synthetic
// metrics. It does not evaluate PromQL: a query returns every registered
// metric whose name appears in the expression and whose labels satisfy the
// expression's equality matchers.
package promtest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
)

// Metric is one synthetic series.
type Metric struct {
	Name   string
	Labels map[string]string
	// Value returns the sample at t. It must be deterministic in t.
	Value func(t time.Time) float64
}

func (m Metric) labelSet() map[string]string {
	out := make(map[string]string, len(m.Labels)+1)
	for k, v := range m.Labels {
		out[k] = v
	}
	out["__name__"] = m.Name
	return out
}

// Constant returns a Value func that always yields v.
func Constant(v float64) func(time.Time) float64 {
	return func(time.Time) float64 { return v }
}

type queryError struct {
	errorType string
	message   string
}

// Backend is an http.Handler implementing the query, query_range, label
// values, series and buildinfo endpoints.
type Backend struct {
	router *httprouter.Router

	mu                sync.Mutex
	metrics           []Metric
	errors            map[string]queryError
	rawValues         map[string]string
	username          string
	password          string
	unhealthy         bool
	labelValuesBroken bool
	delay             time.Duration
	requests          map[string]int
	lastParams        map[string]map[string][]string
}

// NewBackend creates a backend serving metrics.
func NewBackend(metrics ...Metric) *Backend {
	b := &Backend{
		router:     httprouter.New(),
		metrics:    metrics,
		errors:     map[string]queryError{},
		rawValues:  map[string]string{},
		requests:   map[string]int{},
		lastParams: map[string]map[string][]string{},
	}
	b.router.GET("/api/v1/query", b.handleQuery)
	b.router.GET("/api/v1/query_range", b.handleQueryRange)
	b.router.GET("/api/v1/label/:name/values", b.handleLabelValues)
	b.router.GET("/api/v1/series", b.handleSeries)
	b.router.GET("/api/v1/status/buildinfo", b.handleBuildInfo)
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	user, pass := b.username, b.password
	delay := b.delay
	b.requests[r.URL.Path]++
	b.lastParams[r.URL.Path] = r.URL.Query()
	b.mu.Unlock()

	if user != "" {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	b.router.ServeHTTP(w, r)
}

// AddMetric registers another series.
func (b *Backend) AddMetric(m Metric) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = append(b.metrics, m)
}

// FailQuery makes expr fail with a bad_data error carrying message.
func (b *Backend) FailQuery(expr, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors[expr] = queryError{errorType: "bad_data", message: message}
}

// SetRawValue makes every sample for expr carry text verbatim, for
// exercising non-numeric values.
func (b *Backend) SetRawValue(expr, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawValues[expr] = text
}

// RequireBasicAuth rejects requests without these credentials.
func (b *Backend) RequireBasicAuth(username, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.username, b.password = username, password
}

// SetHealthy toggles the buildinfo endpoint between 200 and 503.
func (b *Backend) SetHealthy(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unhealthy = !healthy
}

// BreakLabelValues makes the label values endpoint return 500.
func (b *Backend) BreakLabelValues(broken bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.labelValuesBroken = broken
}

// SetDelay delays every response.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Requests returns how many requests hit path.
func (b *Backend) Requests(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[path]
}

// LastParams returns the query parameters of the last request to path.
func (b *Backend) LastParams(path string) map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastParams[path]
}

var (
	identPattern   = regexp.MustCompile(`[a-zA-Z_:][a-zA-Z0-9_:]*`)
	matcherPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*"([^"]*)"`)
)

// match returns the metrics selected by expr.
func (b *Backend) match(expr string) []Metric {
	names := map[string]bool{}
	for _, tok := range identPattern.FindAllString(expr, -1) {
		names[tok] = true
	}
	matchers := matcherPattern.FindAllStringSubmatch(expr, -1)

	b.mu.Lock()
	defer b.mu.Unlock()
	return lo.Filter(b.metrics, func(m Metric, _ int) bool {
		if !names[m.Name] {
			return false
		}
		for _, mt := range matchers {
			if m.Labels[mt[1]] != mt[2] {
				return false
			}
		}
		return true
	})
}

func (b *Backend) lookupError(expr string) (queryError, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	qe, ok := b.errors[expr]
	return qe, ok
}

func (b *Backend) formatValue(expr string, v float64) string {
	b.mu.Lock()
	raw, ok := b.rawValues[expr]
	b.mu.Unlock()
	if ok {
		return raw
	}
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (b *Backend) handleQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	expr := r.URL.Query().Get("query")
	if expr == "" {
		writeError(w, http.StatusBadRequest, "bad_data", "invalid parameter \"query\": empty query")
		return
	}
	if qe, ok := b.lookupError(expr); ok {
		writeError(w, http.StatusBadRequest, qe.errorType, qe.message)
		return
	}

	at := time.Now()
	if ts := r.URL.Query().Get("time"); ts != "" {
		sec, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_data", fmt.Sprintf("invalid parameter \"time\": %v", err))
			return
		}
		at = time.Unix(int64(sec), 0)
	}

	result := make([]map[string]any, 0)
	for _, m := range b.match(expr) {
		result = append(result, map[string]any{
			"metric": m.labelSet(),
			"value":  []any{float64(at.Unix()), b.formatValue(expr, m.Value(at))},
		})
	}
	writeData(w, map[string]any{"resultType": "vector", "result": result})
}

func (b *Backend) handleQueryRange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	expr := q.Get("query")
	if qe, ok := b.lookupError(expr); ok {
		writeError(w, http.StatusBadRequest, qe.errorType, qe.message)
		return
	}

	start, errStart := strconv.ParseInt(q.Get("start"), 10, 64)
	end, errEnd := strconv.ParseInt(q.Get("end"), 10, 64)
	step, errStep := time.ParseDuration(q.Get("step"))
	if errStart != nil || errEnd != nil || errStep != nil || step <= 0 || end < start {
		writeError(w, http.StatusBadRequest, "bad_data", "invalid range parameters")
		return
	}
	stepSec := int64(step / time.Second)

	result := make([]map[string]any, 0)
	for _, m := range b.match(expr) {
		values := make([][]any, 0, (end-start)/stepSec+1)
		for ts := start; ts <= end; ts += stepSec {
			values = append(values, []any{float64(ts), b.formatValue(expr, m.Value(time.Unix(ts, 0)))})
		}
		result = append(result, map[string]any{"metric": m.labelSet(), "values": values})
	}
	writeData(w, map[string]any{"resultType": "matrix", "result": result})
}

func (b *Backend) handleLabelValues(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b.mu.Lock()
	broken := b.labelValuesBroken
	all := append([]Metric(nil), b.metrics...)
	b.mu.Unlock()
	if broken {
		writeError(w, http.StatusInternalServerError, "internal", "label values unavailable")
		return
	}

	label := ps.ByName("name")
	selected := all
	if match := r.URL.Query().Get("match[]"); match != "" {
		selected = b.match(match)
	}

	values := lo.Uniq(lo.FilterMap(selected, func(m Metric, _ int) (string, bool) {
		v, ok := m.labelSet()[label]
		return v, ok && v != ""
	}))
	sort.Strings(values)
	writeData(w, values)
}

func (b *Backend) handleSeries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	match := r.URL.Query().Get("match[]")
	if match == "" {
		writeError(w, http.StatusBadRequest, "bad_data", "no match[] parameter provided")
		return
	}
	series := lo.Map(b.match(match), func(m Metric, _ int) map[string]string {
		return m.labelSet()
	})
	writeData(w, series)
}

func (b *Backend) handleBuildInfo(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	b.mu.Lock()
	unhealthy := b.unhealthy
	b.mu.Unlock()
	if unhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writeData(w, map[string]string{
		"version":   "2.53.0",
		"revision":  "promtest",
		"branch":    "HEAD",
		"goVersion": "go1.24",
	})
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeError(w http.ResponseWriter, code int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "error",
		"errorType": errorType,
		"error":     message,
	})
}
