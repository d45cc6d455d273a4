package store

import (
	"context"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/prometheus"
)

// panelOutcome is one panel's fetch result within a refresh cycle.
type panelOutcome struct {
	results []prometheus.QueryResult
	err     error
}

// Refresh fetches every panel and commits the results as one update. It
// waits for an in-flight cycle to finish first. Per-panel failures are
// recorded on the panel and never returned.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

// tick runs a scheduled refresh, skipping it when a cycle is in flight.
func (c *Coordinator) tick(ctx context.Context) {
	if !c.refreshMu.TryLock() {
		c.log.Debug("refresh still running, skipping tick")
		return
	}
	defer c.refreshMu.Unlock()
	if err := c.refreshLocked(ctx); err != nil {
		c.log.Warn("scheduled refresh failed: %s", errors.Message(err))
	}
}

func (c *Coordinator) refreshLocked(ctx context.Context) error {
	c.mu.Lock()
	gen := c.generation
	panels := make([]PanelData, len(c.panels))
	copy(panels, c.panels)
	values := copyStringMap(c.values)
	timeRange := c.timeRange
	c.mu.Unlock()

	start := c.now()
	vars := c.substitutionValues(values, timeRange, start)

	outcomes := make([]panelOutcome, len(panels))
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for i, p := range panels {
		i, p := i, p
		g.Go(func() error {
			queries := lo.Map(p.Panel.Queries, func(q grafana.Query, _ int) prometheus.Query {
				return prometheus.Query{
					Expr:         grafana.Substitute(q.Expr, vars),
					RefID:        q.RefID,
					LegendFormat: q.LegendFormat,
				}
			})
			results, err := c.q.ExecuteQueries(ctx, queries, timeRange)
			outcomes[i] = panelOutcome{results: results, err: err}
			return nil
		})
	}
	_ = g.Wait()

	now := c.now()
	failed := 0

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.log.Debug("discarding refresh results for a replaced dashboard")
		return nil
	}
	for i, out := range outcomes {
		pd := &c.panels[i]
		if err := panelError(out); err != "" {
			// Keep the last good results so the panel does not go blank.
			pd.Error = err
			failed++
			continue
		}
		pd.Results = out.results
		pd.LastUpdated = now
		pd.Error = ""
		c.recordHistory(pd.Panel.ID, out.results)
	}
	c.lastRefresh = now
	if c.status == StatusLoading {
		c.status = StatusReady
		c.loading = false
	}
	c.mu.Unlock()

	if failed > 0 {
		c.log.Debug("refresh finished in %s with %d of %d panels failing",
			time.Since(start).Round(time.Millisecond), failed, len(outcomes))
	}
	c.notify()
	return ctx.Err()
}

// substitutionValues merges the builtin interval variables under the user's
// values for the current window.
func (c *Coordinator) substitutionValues(values map[string]string, timeRange string, now time.Time) map[string]string {
	tr, err := prometheus.RangeFor(timeRange, now)
	if err != nil {
		return values
	}
	return lo.Assign(grafana.BuiltinValues(tr.Step, tr.Seconds()), values)
}

// panelError returns the panel-level failure text for out, or "". A batch
// where every query failed counts as a panel failure so earlier data is
// kept.
func panelError(out panelOutcome) string {
	if out.err != nil {
		return errors.Message(out.err)
	}
	if len(out.results) == 0 {
		return ""
	}
	for _, r := range out.results {
		if !r.Failed() {
			return ""
		}
	}
	return out.results[0].Error
}

// recordHistory pushes the final sample of every returned series into the
// panel query's history. Must be called with c.mu held.
func (c *Coordinator) recordHistory(panelID int, results []prometheus.QueryResult) {
	for _, r := range results {
		key := Key{PanelID: panelID, RefID: r.RefID}
		for _, s := range r.Series {
			if last, ok := s.Latest(); ok {
				c.history.Push(key, last.Value, last.Timestamp)
			}
		}
	}
}

// Start begins refreshing on the configured interval. Calling Start on a
// running coordinator does nothing.
func (c *Coordinator) Start() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.stopCh != nil {
		return
	}
	stop := make(chan struct{})
	c.stopCh = stop
	go c.loop(stop, c.cfg.RefreshInterval)
	c.log.Debug("auto-refresh started every %s", c.cfg.RefreshInterval)
}

// Stop halts scheduled refreshes. A cycle already running completes and
// commits. Stop is safe to call more than once.
func (c *Coordinator) Stop() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	c.stopCh = nil
	c.log.Debug("auto-refresh stopped")
}

// Running reports whether scheduled refreshes are active.
func (c *Coordinator) Running() bool {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	return c.stopCh != nil
}

// RefreshInterval returns the scheduled refresh interval.
func (c *Coordinator) RefreshInterval() time.Duration {
	return c.cfg.RefreshInterval
}

func (c *Coordinator) loop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick(context.Background())
		}
	}
}
