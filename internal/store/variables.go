package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/grafana"
)

// LoadVariableOptions resolves the options of every variable. Query
// variables are evaluated against the backend in declaration order, so a
// variable may reference one declared before it. A variable whose options
// cannot be loaded keeps its previous options and records the error; the
// others still load.
func (c *Coordinator) LoadVariableOptions(ctx context.Context) {
	c.loadVariableOptions(ctx, nil)
}

// loadVariableOptions resolves the named variables, or all when only is nil.
func (c *Coordinator) loadVariableOptions(ctx context.Context, only []string) {
	c.mu.Lock()
	gen := c.generation
	vars := make([]grafana.Variable, len(c.dashboard.Variables))
	copy(vars, c.dashboard.Variables)
	values := copyStringMap(c.values)
	c.mu.Unlock()

	options := make(map[string][]string)
	failures := make(map[string]string)
	adopted := make(map[string]string)

	for _, v := range vars {
		if only != nil && !lo.Contains(only, v.Name) {
			continue
		}
		opts, err := c.resolveOptions(ctx, v, values)
		if err != nil {
			c.log.Warn("variable %s: %s", v.Name, errors.Message(err))
			failures[v.Name] = errors.Message(err)
			continue
		}
		if opts == nil {
			continue
		}
		options[v.Name] = opts
		if values[v.Name] == "" && len(opts) > 0 {
			values[v.Name] = opts[0]
			adopted[v.Name] = opts[0]
		}
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	for name, opts := range options {
		c.options[name] = opts
		delete(c.varErrors, name)
	}
	for name, msg := range failures {
		c.varErrors[name] = msg
	}
	for name, value := range adopted {
		// A value set while options were loading wins.
		if c.values[name] == "" {
			c.values[name] = value
		}
	}
	c.mu.Unlock()
	c.notify()
}

// resolveOptions returns the options for v. A nil slice with a nil error
// means v has no backend-driven options.
func (c *Coordinator) resolveOptions(ctx context.Context, v grafana.Variable, values map[string]string) ([]string, error) {
	var opts []string

	switch v.Type {
	case grafana.VariableCustom:
		opts = copyStrings(v.Options)
	case grafana.VariableQuery:
		query := grafana.Substitute(v.Query, values)
		if lv := grafana.ParseLabelValuesQuery(query); lv != nil {
			found, err := c.labelValues(ctx, lv)
			if err != nil {
				return nil, err
			}
			opts = found
		} else if expr, ok := grafana.ParseQueryResultQuery(query); ok {
			found, err := c.queryResult(ctx, expr)
			if err != nil {
				return nil, err
			}
			opts = found
		} else {
			return nil, nil
		}
	default:
		return nil, nil
	}

	filtered, err := grafana.FilterOptions(opts, v.Regex)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDashboard, "cannot filter options", "Fix the variable's regex")
	}
	if filtered == nil {
		filtered = []string{}
	}
	return filtered, nil
}

// labelValues answers a label_values query. When the label endpoint fails
// for a metric-scoped query, it falls back to listing the matching series.
func (c *Coordinator) labelValues(ctx context.Context, lv *grafana.LabelValuesQuery) ([]string, error) {
	values, err := c.q.GetLabelValues(ctx, lv.Label, lv.Metric)
	if err == nil {
		return values, nil
	}
	if lv.Metric == "" {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			fmt.Sprintf("cannot load values of label %q", lv.Label), "")
	}

	c.log.Debug("label values for %s failed (%v), falling back to series", lv.Label, err)
	series, serr := c.q.GetSeries(ctx, lv.Metric)
	if serr != nil {
		return nil, errors.WrapWithCode(serr, errors.ErrQuery,
			fmt.Sprintf("cannot load values of label %q for %s", lv.Label, lv.Metric), "")
	}

	seen := make(map[string]bool)
	for _, labels := range series {
		if v, ok := labels[lv.Label]; ok && v != "" {
			seen[v] = true
		}
	}
	out := lo.Keys(seen)
	sort.Strings(out)
	return out, nil
}

// queryResult answers a query_result(expr) query with one option per
// returned series.
func (c *Coordinator) queryResult(ctx context.Context, expr string) ([]string, error) {
	series, err := c.q.InstantQuery(ctx, expr, c.now())
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			fmt.Sprintf("cannot evaluate query_result(%s)", expr), "")
	}
	out := make([]string, 0, len(series))
	for _, s := range series {
		last, ok := s.Latest()
		if !ok {
			continue
		}
		out = append(out, grafana.QueryResultOption(s.Labels, last.Value, last.Timestamp.Unix()))
	}
	return out, nil
}
