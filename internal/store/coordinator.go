// Package store owns the live state of a dashboard: the parsed definition,
// variable values and options, the latest query results per panel, and a
// rolling history of values. The Coordinator is the only writer; observers
// receive read-only snapshots after every committed change.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/logger"
	"github.com/rileyhilliard/viewui/internal/prometheus"
)

// Querier is the slice of the Prometheus client the coordinator uses.
type Querier interface {
	ExecuteQueries(ctx context.Context, queries []prometheus.Query, duration string) ([]prometheus.QueryResult, error)
	GetLabelValues(ctx context.Context, label, match string) ([]string, error)
	GetSeries(ctx context.Context, selector string) ([]map[string]string, error)
	InstantQuery(ctx context.Context, expr string, at time.Time) ([]prometheus.TimeSeries, error)
}

// Defaults applied by NewCoordinator to zero Config fields.
const (
	DefaultTimeRange       = "5m"
	DefaultRefreshInterval = 5 * time.Second
	DefaultConcurrency     = 4
)

// Config controls refresh behavior.
type Config struct {
	// TimeRange is the query window, e.g. "5m" or "1h".
	TimeRange       string
	RefreshInterval time.Duration
	HistorySize     int
	// Concurrency caps how many panels are fetched at once.
	Concurrency int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithClock overrides the time source used for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator loads dashboards, resolves variables, refreshes panels and
// notifies observers. All methods are safe for concurrent use.
type Coordinator struct {
	q       Querier
	cfg     Config
	log     logger.Logger
	now     func() time.Time
	history *History

	// mu guards everything below it up to refreshMu.
	mu     sync.Mutex
	status Status
	// path is the last requested dashboard, loadedPath the last one parsed.
	path        string
	loadedPath  string
	dashboard   grafana.Dashboard
	panels      []PanelData
	warnings    []string
	values      map[string]string
	options     map[string][]string
	varErrors   map[string]string
	loading     bool
	err         error
	lastRefresh time.Time
	timeRange   string
	generation  uint64

	// refreshMu serializes refresh cycles.
	refreshMu sync.Mutex

	obsMu     sync.Mutex
	observers []observer
	nextObsID uint64
	// notifyMu keeps deliveries in commit order.
	notifyMu sync.Mutex

	timerMu sync.Mutex
	stopCh  chan struct{}
}

// NewCoordinator creates an idle coordinator backed by q.
func NewCoordinator(q Querier, cfg Config, opts ...Option) *Coordinator {
	if cfg.TimeRange == "" {
		cfg.TimeRange = DefaultTimeRange
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	c := &Coordinator{
		q:         q,
		cfg:       cfg,
		log:       logger.Noop(),
		now:       time.Now,
		history:   NewHistory(cfg.HistorySize),
		values:    map[string]string{},
		options:   map[string][]string{},
		varErrors: map[string]string{},
		timeRange: cfg.TimeRange,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadDashboard parses the dashboard at path, resolves variable options and
// runs a full refresh. On a parse failure the state moves to failed with the
// error recorded, and panels from a previous load stay in place.
func (c *Coordinator) LoadDashboard(ctx context.Context, path string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.status = StatusLoading
	c.loading = true
	c.err = nil
	if path != "" {
		c.path = path
	}
	c.mu.Unlock()
	c.notify()

	if path == "" {
		return c.fail(gen, errors.New(errors.ErrDashboard, "no dashboard path given",
			"Pass a dashboard file or set dashboard.path in the config"))
	}

	res, err := grafana.ParseFile(path)
	if err != nil {
		return c.fail(gen, err)
	}
	for _, w := range res.Warnings {
		c.log.Warn("%s: %s", path, w)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil
	}
	// Reloading the same file keeps each panel's last results until the
	// refresh below replaces them, and keeps chosen variable values.
	reload := path == c.loadedPath
	previous := map[int]PanelData{}
	if reload {
		for _, pd := range c.panels {
			previous[pd.Panel.ID] = pd
		}
	}
	values := grafana.DefaultValues(res.Dashboard.Variables)
	if reload {
		for name := range values {
			if v, ok := c.values[name]; ok && v != "" {
				values[name] = v
			}
		}
	}
	c.loadedPath = path
	c.dashboard = res.Dashboard
	c.panels = make([]PanelData, len(res.Dashboard.Panels))
	for i, p := range res.Dashboard.Panels {
		old := previous[p.ID]
		c.panels[i] = PanelData{Panel: p, Results: old.Results, LastUpdated: old.LastUpdated}
	}
	c.warnings = copyStrings(res.Warnings)
	c.values = values
	c.options = make(map[string][]string)
	for _, v := range res.Dashboard.Variables {
		if len(v.Options) > 0 {
			c.options[v.Name] = copyStrings(v.Options)
		}
	}
	c.varErrors = make(map[string]string)
	c.mu.Unlock()
	c.notify()

	c.log.Info("loaded dashboard %q: %d panels, %d variables, %d warnings",
		res.Dashboard.Title, len(res.Dashboard.Panels), len(res.Dashboard.Variables), len(res.Warnings))

	c.LoadVariableOptions(ctx)
	return c.Refresh(ctx)
}

// fail records err for generation gen and returns it.
func (c *Coordinator) fail(gen uint64, err error) error {
	c.mu.Lock()
	if c.generation == gen {
		c.status = StatusFailed
		c.loading = false
		c.err = err
	}
	c.mu.Unlock()
	c.log.Error("loading dashboard failed: %s", errors.Message(err))
	c.notify()
	return err
}

// SwitchDashboard drops all history and loads the dashboard at path.
func (c *Coordinator) SwitchDashboard(ctx context.Context, path string) error {
	c.mu.Lock()
	c.loadedPath = ""
	// Bumping the generation here discards in-flight results for the old
	// dashboard before they can land in the cleared history.
	c.generation++
	c.history.ClearAll()
	c.mu.Unlock()

	c.log.Debug("switching dashboard to %s", path)
	return c.LoadDashboard(ctx, path)
}

// Reload re-reads the current dashboard file, keeping history.
func (c *Coordinator) Reload(ctx context.Context) error {
	c.mu.Lock()
	path := c.path
	c.mu.Unlock()
	return c.LoadDashboard(ctx, path)
}

// SetVariableValue sets a variable, reloads the options of variables whose
// queries reference it, and refreshes every panel.
func (c *Coordinator) SetVariableValue(ctx context.Context, name, value string) error {
	c.mu.Lock()
	var dependents []string
	found := false
	for _, v := range c.dashboard.Variables {
		if v.Name == name {
			found = true
			continue
		}
		if references(v.Query, name) {
			dependents = append(dependents, v.Name)
		}
	}
	if !found {
		c.mu.Unlock()
		return errors.Newf(errors.ErrDashboard, "unknown variable %q", name)
	}
	c.values[name] = value
	c.mu.Unlock()
	c.notify()

	c.log.Debug("variable %s set to %q", name, value)
	if len(dependents) > 0 {
		c.loadVariableOptions(ctx, dependents)
	}
	return c.Refresh(ctx)
}

// SetTimeRange changes the query window and refreshes every panel. History
// is kept.
func (c *Coordinator) SetTimeRange(ctx context.Context, duration string) error {
	if _, err := prometheus.ParseDuration(duration); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("invalid time range %q", duration), "Use a range like 5m, 1h or 7d")
	}
	c.mu.Lock()
	c.timeRange = duration
	c.mu.Unlock()
	c.notify()
	return c.Refresh(ctx)
}

// references reports whether query mentions variable name in any of the
// placeholder forms.
func references(query, name string) bool {
	if query == "" {
		return false
	}
	return grafana.Substitute(query, map[string]string{name: "\x00"}) != query
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	panels := make([]PanelData, len(c.panels))
	copy(panels, c.panels)
	vars := make([]grafana.Variable, len(c.dashboard.Variables))
	copy(vars, c.dashboard.Variables)

	s := State{
		Status:          c.status,
		Title:           c.dashboard.Title,
		Path:            c.path,
		Panels:          panels,
		Warnings:        copyStrings(c.warnings),
		Variables:       vars,
		VariableValues:  copyStringMap(c.values),
		VariableOptions: copyOptions(c.options),
		VariableErrors:  copyStringMap(c.varErrors),
		Loading:         c.loading,
		LastRefresh:     c.lastRefresh,
		TimeRange:       c.timeRange,
		Generation:      c.generation,
	}
	if c.err != nil {
		s.Error = errors.Message(c.err)
	}
	return s
}

// HistoryValues returns up to n of the newest historical values for a panel
// query, oldest first.
func (c *Coordinator) HistoryValues(panelID int, refID string, n int) []float64 {
	return c.history.Values(Key{PanelID: panelID, RefID: refID}, n)
}

// HistorySamples returns every retained sample for a panel query.
func (c *Coordinator) HistorySamples(panelID int, refID string) []prometheus.Sample {
	return c.history.Samples(Key{PanelID: panelID, RefID: refID})
}

// Trend returns the short-term direction of a panel query.
func (c *Coordinator) Trend(panelID int, refID string) Trend {
	return c.history.Trend(Key{PanelID: panelID, RefID: refID})
}

// HistoryKeys lists every panel query with history.
func (c *Coordinator) HistoryKeys() []Key {
	return c.history.Keys()
}
