package prometheus

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/logger"
)

const (
	// DefaultTimeout bounds every API call.
	DefaultTimeout = 10 * time.Second
	// HealthTimeout bounds the health probe independently of Timeout.
	HealthTimeout = 5 * time.Second

	maxBodyBytes = 32 << 20
)

// Config describes how to reach the backend.
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	// UserAgent defaults to "viewui".
	UserAgent string
}

// Client talks to a Prometheus-compatible HTTP API. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	log        logger.Logger
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithClock sets the clock used to anchor time ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "viewui"
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        logger.Noop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// InstantQuery evaluates expr at a single point in time. A zero at lets the
// backend use its current time.
func (c *Client) InstantQuery(ctx context.Context, expr string, at time.Time) ([]TimeSeries, error) {
	params := url.Values{"query": {expr}}
	if !at.IsZero() {
		params.Set("time", strconv.FormatInt(at.Unix(), 10))
	}

	var data queryData
	if err := c.get(ctx, "/api/v1/query", params, c.cfg.Timeout, &data); err != nil {
		return nil, err
	}
	return decodeResult(data)
}

// RangeQuery evaluates expr over tr.
func (c *Client) RangeQuery(ctx context.Context, expr string, tr TimeRange) ([]TimeSeries, error) {
	params := url.Values{
		"query": {expr},
		"start": {strconv.FormatInt(tr.Start, 10)},
		"end":   {strconv.FormatInt(tr.End, 10)},
		"step":  {strconv.FormatInt(tr.Step, 10) + "s"},
	}

	var data queryData
	if err := c.get(ctx, "/api/v1/query_range", params, c.cfg.Timeout, &data); err != nil {
		return nil, err
	}
	return decodeResult(data)
}

// QueryTimeSeries runs a range query over the last duration and tags every
// series with legendFormat. Sample values are not filtered, so NaN can
// appear.
func (c *Client) QueryTimeSeries(ctx context.Context, expr, duration, legendFormat string) ([]TimeSeries, error) {
	tr, err := RangeFor(duration, c.now())
	if err != nil {
		return nil, err
	}
	return c.queryRangeWithLegend(ctx, expr, tr, legendFormat)
}

func (c *Client) queryRangeWithLegend(ctx context.Context, expr string, tr TimeRange, legendFormat string) ([]TimeSeries, error) {
	series, err := c.RangeQuery(ctx, expr, tr)
	if err != nil {
		return nil, err
	}
	for i := range series {
		series[i].LegendFormat = legendFormat
	}
	return series, nil
}

// QueryScalar evaluates expr now and returns the value of the first sample.
// ok is false when the result is empty.
func (c *Client) QueryScalar(ctx context.Context, expr string) (value float64, ok bool, err error) {
	series, err := c.InstantQuery(ctx, expr, time.Time{})
	if err != nil {
		return 0, false, err
	}
	for _, s := range series {
		if smp, has := s.Latest(); has {
			return smp.Value, true, nil
		}
	}
	return 0, false, nil
}

// ExecuteQueries runs every query over the same window. A failing query is
// reported in its own QueryResult and never aborts the batch. The returned
// error covers the batch as a whole: an invalid duration or a cancelled
// context.
func (c *Client) ExecuteQueries(ctx context.Context, queries []Query, duration string) ([]QueryResult, error) {
	tr, err := RangeFor(duration, c.now())
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrPanel, "cannot run queries", "Use a time range like 5m, 1h or 7d")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrPanel, "cannot run queries", "")
	}

	results := make([]QueryResult, 0, len(queries))
	for _, q := range queries {
		series, err := c.queryRangeWithLegend(ctx, q.Expr, tr, q.LegendFormat)
		if err != nil {
			c.log.Debug("query %s failed: %v", q.RefID, err)
			results = append(results, QueryResult{RefID: q.RefID, Series: []TimeSeries{}, Error: errorText(err)})
			continue
		}
		results = append(results, QueryResult{RefID: q.RefID, Series: series})
	}
	return results, nil
}

// GetLabelValues lists the values of label, optionally restricted to series
// matching match.
func (c *Client) GetLabelValues(ctx context.Context, label, match string) ([]string, error) {
	params := url.Values{}
	if match != "" {
		params.Set("match[]", match)
	}

	var values []string
	path := "/api/v1/label/" + url.PathEscape(label) + "/values"
	if err := c.get(ctx, path, params, c.cfg.Timeout, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// GetSeries lists the label sets of series matching selector.
func (c *Client) GetSeries(ctx context.Context, selector string) ([]map[string]string, error) {
	params := url.Values{"match[]": {selector}}

	var series []map[string]string
	if err := c.get(ctx, "/api/v1/series", params, c.cfg.Timeout, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// BuildInfo fetches the backend's build information.
func (c *Client) BuildInfo(ctx context.Context) (BuildInfo, error) {
	var info BuildInfo
	err := c.get(ctx, "/api/v1/status/buildinfo", nil, HealthTimeout, &info)
	return info, err
}

// HealthCheck probes the backend. Any failure, including a timeout or a
// non-2xx status, is reported as false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, "/api/v1/status/buildinfo", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// WaitHealthy polls HealthCheck with exponential backoff until the backend
// answers or maxWait elapses.
func (c *Client) WaitHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	for {
		if c.HealthCheck(ctx) {
			return nil
		}
		wait := b.Duration()
		c.log.Debug("backend not ready after %d attempts, retrying in %s", int(b.Attempt()), wait)

		select {
		case <-ctx.Done():
			return errors.WrapWithCode(ctx.Err(), errors.ErrBackend,
				fmt.Sprintf("Prometheus at %s did not become healthy within %s", c.baseURL, maxWait),
				"Check prometheus.url and that the server is running")
		case <-time.After(wait):
		}
	}
}

func (c *Client) newRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Username != "" && c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	return req, nil
}

// get performs one API call with its own timeout and decodes the envelope's
// data into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, path, params)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	c.log.Debug("GET %s -> %d in %s", path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	var env apiResponse
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && env.Error != "" {
			return &QueryError{Type: env.ErrorType, Message: env.Error, StatusCode: resp.StatusCode}
		}
		return newHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if decodeErr != nil {
		return &QueryError{Message: fmt.Sprintf("malformed response: %v", decodeErr), StatusCode: resp.StatusCode}
	}
	if env.Status != "success" {
		msg := env.Error
		if msg == "" {
			msg = fallbackErrorText
		}
		return &QueryError{Type: env.ErrorType, Message: msg, StatusCode: resp.StatusCode}
	}
	if len(env.Warnings) > 0 {
		c.log.Debug("%s returned warnings: %s", path, strings.Join(env.Warnings, "; "))
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return &QueryError{Message: "malformed response: missing data", StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &QueryError{Message: fmt.Sprintf("malformed response: %v", err), StatusCode: resp.StatusCode}
	}
	return nil
}

// decodeResult converts matrix, vector and scalar results into series.
func decodeResult(data queryData) ([]TimeSeries, error) {
	switch data.ResultType {
	case "matrix":
		var entries []matrixEntry
		if err := json.Unmarshal(data.Result, &entries); err != nil {
			return nil, &QueryError{Message: fmt.Sprintf("malformed matrix result: %v", err)}
		}
		series := make([]TimeSeries, 0, len(entries))
		for _, e := range entries {
			samples := make([]Sample, len(e.Values))
			for i, v := range e.Values {
				samples[i] = Sample(v)
			}
			series = append(series, TimeSeries{Labels: nonNil(e.Metric), Samples: samples})
		}
		return series, nil
	case "vector":
		var entries []vectorEntry
		if err := json.Unmarshal(data.Result, &entries); err != nil {
			return nil, &QueryError{Message: fmt.Sprintf("malformed vector result: %v", err)}
		}
		series := make([]TimeSeries, 0, len(entries))
		for _, e := range entries {
			series = append(series, TimeSeries{Labels: nonNil(e.Metric), Samples: []Sample{Sample(e.Value)}})
		}
		return series, nil
	case "scalar":
		var pair samplePair
		if err := json.Unmarshal(data.Result, &pair); err != nil {
			return nil, &QueryError{Message: fmt.Sprintf("malformed scalar result: %v", err)}
		}
		return []TimeSeries{{Labels: map[string]string{}, Samples: []Sample{Sample(pair)}}}, nil
	default:
		return nil, &QueryError{Message: fmt.Sprintf("unsupported result type %q", data.ResultType)}
	}
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// errorText reduces err to the text stored in a QueryResult.
func errorText(err error) string {
	var qe *QueryError
	if stderrors.As(err, &qe) && qe.Message != "" {
		return qe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackErrorText
}
