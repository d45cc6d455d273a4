package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/prometheus"
	"github.com/rileyhilliard/viewui/internal/store"
)

func TestRenderStat(t *testing.T) {
	s := sampleState()
	f := newFakeController(s)
	f.trends[historyKey(1, "A")] = store.TrendUp
	f.history[historyKey(1, "A")] = []float64{1000, 1200, 1500}

	out := renderPanelBody(s.Panels[0], f, 30, 6)
	assert.Contains(t, out, "1.5K")
	assert.Contains(t, out, TrendUpGlyph+" increasing")
	assert.Contains(t, out, "▁▃█", "history sparkline")
}

func TestRenderStat_SkipsFailedQueries(t *testing.T) {
	pd := store.PanelData{
		Panel: grafana.Panel{ID: 9, Title: "Errors", Type: grafana.PanelStat},
		Results: []prometheus.QueryResult{
			{RefID: "A", Error: "bad expr"},
			{RefID: "B", Series: []prometheus.TimeSeries{series(nil, 7)}},
		},
	}
	f := newFakeController(store.State{})
	f.trends[historyKey(9, "B")] = store.TrendDown

	out := renderPanelBody(pd, f, 30, 6)
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "decreasing", "trend follows the query the value came from")
}

func TestRenderStat_PercentBar(t *testing.T) {
	pd := store.PanelData{
		Panel:   grafana.Panel{ID: 4, Title: "Memory Usage", Type: grafana.PanelStat, Unit: "percent"},
		Results: []prometheus.QueryResult{{RefID: "A", Series: []prometheus.TimeSeries{series(nil, 50)}}},
	}
	out := renderPanelBody(pd, newFakeController(store.State{}), 40, 6)
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "███████████████░░░░░░░░░░░░░░░")
	assert.Contains(t, out, "stable")
}

func TestRenderPanelBody_States(t *testing.T) {
	f := newFakeController(store.State{})
	panel := grafana.Panel{ID: 1, Title: "P", Type: grafana.PanelTimeSeries}

	t.Run("loading before the first fetch", func(t *testing.T) {
		out := renderPanelBody(store.PanelData{Panel: panel}, f, 30, 5)
		assert.Contains(t, out, "Loading...")
	})

	t.Run("no data after a fetch", func(t *testing.T) {
		pd := store.PanelData{Panel: panel, LastUpdated: t0, Results: []prometheus.QueryResult{{RefID: "A"}}}
		assert.Contains(t, renderPanelBody(pd, f, 30, 5), "No data")
	})

	t.Run("error without data", func(t *testing.T) {
		pd := store.PanelData{Panel: panel, Error: "HTTP 503: Service Unavailable"}
		assert.Contains(t, renderPanelBody(pd, f, 60, 5), "Error: HTTP 503: Service Unavailable")
	})

	t.Run("error with previous data is shown as stale", func(t *testing.T) {
		pd := store.PanelData{
			Panel:       panel,
			LastUpdated: t0,
			Error:       "timeout",
			Results:     []prometheus.QueryResult{{RefID: "A", Series: []prometheus.TimeSeries{series(nil, 1, 2)}}},
		}
		out := renderPanelBody(pd, f, 60, 5)
		assert.Contains(t, out, "stale: timeout")
		assert.Contains(t, out, "value")
	})
}

func TestRenderTimeSeries(t *testing.T) {
	s := sampleState()
	out := renderTimeSeries(s.Panels[1], 60, 10)

	assert.Contains(t, out, "web-1")
	assert.Contains(t, out, "web-2")
	assert.Contains(t, out, "cur 30.00 min 10.00 max 30.00 avg 20.00")
	assert.Contains(t, out, "▁▄█")
	assert.Contains(t, out, "▅▅▅", "flat series")
}

func TestRenderTimeSeries_Overflow(t *testing.T) {
	pd := sampleState().Panels[1]
	pd.Results[0].Series = append(pd.Results[0].Series,
		series(map[string]string{"instance": "web-3"}, 1, 2))

	out := renderTimeSeries(pd, 60, 5)
	assert.Contains(t, out, "web-1")
	assert.Contains(t, out, "web-2")
	assert.NotContains(t, out, "web-3")
	assert.Contains(t, out, "+1 more series")
	assert.LessOrEqual(t, lipgloss.Height(out), 5)
}

func TestRenderTimeSeries_PartialFailure(t *testing.T) {
	pd := store.PanelData{
		Panel: grafana.Panel{ID: 1, Type: grafana.PanelTimeSeries},
		Results: []prometheus.QueryResult{
			{RefID: "A", Series: []prometheus.TimeSeries{series(map[string]string{"__name__": "up"}, 1)}},
			{RefID: "B", Error: "parse error"},
		},
	}
	out := renderTimeSeries(pd, 60, 10)
	assert.Contains(t, out, "up")
	assert.Contains(t, out, "B: parse error")
}

func TestLabelColumns(t *testing.T) {
	all := []prometheus.TimeSeries{
		series(map[string]string{"__name__": "up", "job": "node", "instance": "a", "zone": "x"}),
		series(map[string]string{"__name__": "up", "job": "node", "instance": "b"}),
		series(map[string]string{"job": "api", "pod": "p1", "env": "prod"}),
	}
	assert.Equal(t, []string{"job", "instance", "env"}, labelColumns(all))
	assert.Empty(t, labelColumns([]prometheus.TimeSeries{series(map[string]string{"__name__": "up"})}))
}

func TestRenderTable(t *testing.T) {
	s := sampleState()
	out := renderTable(s.Panels[2], 60, 5)

	assert.Contains(t, out, "instance")
	assert.Contains(t, out, "job")
	assert.Contains(t, out, "Value")
	assert.Contains(t, out, "a:9100")
	assert.Contains(t, out, "b:9100")
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "0.00")

	trimmed := renderTable(s.Panels[2], 60, 1)
	assert.Contains(t, trimmed, "... and 1 more rows")
}

func TestRenderPanel_Frame(t *testing.T) {
	s := sampleState()
	f := newFakeController(s)

	out := renderPanel(s.Panels[1], f, 40, 10, false)
	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, 10, len(lines))
	assert.Equal(t, 40, lipgloss.Width(out))
	assert.Contains(t, lines[1], "CPU")
}
