package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/prometheus"
	"github.com/rileyhilliard/viewui/internal/store"
)

func TestWriteSnapshot(t *testing.T) {
	s := sampleState()
	s.Warnings = []string{`Panel "Logs" (7): type "logs" not supported, skipping`}
	s.VariableErrors["instance"] = "HTTP 503: Service Unavailable"

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, s))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Node Overview\n"))
	assert.Contains(t, out, "status ready | last 5m | refreshed")
	assert.Contains(t, out, `warning: Panel "Logs" (7)`)

	assert.Contains(t, out, "VARIABLE")
	assert.Contains(t, out, "Instance")
	assert.Contains(t, out, "error: HTTP 503: Service Unavailable")

	assert.Contains(t, out, "## Requests (stat)")
	assert.Contains(t, out, "1.5K")
	assert.Contains(t, out, "## CPU (timeseries)")
	assert.Contains(t, out, "web-1")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "## Targets (table)")
	assert.Contains(t, out, "a:9100")
}

func TestWriteSnapshot_PanelStates(t *testing.T) {
	s := store.State{
		Status:    store.StatusFailed,
		Title:     "Broken",
		TimeRange: "1h",
		Error:     "invalid dashboard JSON: missing panels array",
		Panels: []store.PanelData{
			{Panel: grafana.Panel{ID: 1, Title: "Empty", Type: grafana.PanelStat}},
			{
				Panel:   grafana.Panel{ID: 2, Title: "Mixed", Type: grafana.PanelTimeSeries},
				Error:   "B: parse error",
				Results: []prometheus.QueryResult{{RefID: "A", Series: []prometheus.TimeSeries{series(nil, 4)}}, {RefID: "B", Error: "parse error"}},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "status failed | last 1h\n")
	assert.NotContains(t, out, "refreshed")
	assert.Contains(t, out, "error: invalid dashboard JSON: missing panels array")
	assert.Contains(t, out, "## Empty (stat)\nno data")
	assert.Contains(t, out, "error: B: parse error")
	assert.Contains(t, out, "parse error")
	assert.Contains(t, out, "4.00")
}

func TestWriteDashboardList(t *testing.T) {
	files := []grafana.DashboardFile{
		{Path: "/dash/api.json", Title: "API"},
		{Path: "/dash/node.json", Title: "Node Overview"},
	}
	var buf bytes.Buffer
	WriteDashboardList(&buf, files, "/dash/node.json")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var marked []string
	for _, l := range lines {
		if strings.Contains(l, "*") {
			marked = append(marked, l)
		}
	}
	require.Len(t, marked, 1)
	assert.Contains(t, marked[0], "Node Overview")
	assert.Contains(t, buf.String(), "/dash/api.json")
}
