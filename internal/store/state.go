package store

import (
	"time"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/prometheus"
)

// Status is the coordinator's lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// PanelData is a panel with its latest query results. Results are replaced
// as a whole on a successful refresh and kept when the panel's fetch fails.
type PanelData struct {
	Panel       grafana.Panel
	Results     []prometheus.QueryResult
	LastUpdated time.Time
	// Error is set when the last fetch for the panel failed as a whole.
	Error string
}

// Result returns the result for refID.
func (p PanelData) Result(refID string) (prometheus.QueryResult, bool) {
	for _, r := range p.Results {
		if r.RefID == refID {
			return r, true
		}
	}
	return prometheus.QueryResult{}, false
}

// HasData reports whether any result carries a series.
func (p PanelData) HasData() bool {
	for _, r := range p.Results {
		if len(r.Series) > 0 {
			return true
		}
	}
	return false
}

// State is a point-in-time copy of the coordinator's state. Slices and maps
// at the top level are copies; nested query results are shared and must be
// treated as read-only.
type State struct {
	Status          Status
	Title           string
	Path            string
	Panels          []PanelData
	Warnings        []string
	Variables       []grafana.Variable
	VariableValues  map[string]string
	VariableOptions map[string][]string
	// VariableErrors holds the last option-loading failure per variable.
	VariableErrors map[string]string
	Loading        bool
	Error          string
	LastRefresh    time.Time
	TimeRange      string
	// Generation increments on every load or switch.
	Generation uint64
}

// Panel returns the panel data for id.
func (s State) Panel(id int) (PanelData, bool) {
	for _, p := range s.Panels {
		if p.Panel.ID == id {
			return p, true
		}
	}
	return PanelData{}, false
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyOptions(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = copyStrings(v)
	}
	return out
}
