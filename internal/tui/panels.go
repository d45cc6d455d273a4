package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/prometheus"
	"github.com/rileyhilliard/viewui/internal/store"
)

// HistorySource exposes the per-query history a stat panel reads its trend
// from.
type HistorySource interface {
	Trend(panelID int, refID string) store.Trend
	HistoryValues(panelID int, refID string, n int) []float64
}

// Table panel limits.
const (
	maxLabelColumns = 3
	valueColWidth   = 12
)

// renderPanel draws one panel card at the given outer size.
func renderPanel(pd store.PanelData, h HistorySource, width, height int, selected bool) string {
	style := PanelStyle
	if selected {
		style = PanelSelectedStyle
	}
	inner := max(width-4, 8)
	lines := max(height-2, 3)

	var b strings.Builder
	b.WriteString(PanelTitleStyle.Render(truncate(pd.Panel.Title, inner)))
	b.WriteString("\n")
	b.WriteString(renderPanelBody(pd, h, inner, lines-1))

	return style.Width(width - 2).Height(lines).MaxHeight(height).Render(b.String())
}

// renderPanelBody renders panel content without the frame or title.
func renderPanelBody(pd store.PanelData, h HistorySource, width, lines int) string {
	if pd.Error != "" && !pd.HasData() {
		return ErrorStyle.Render(truncate("Error: "+pd.Error, width))
	}
	if !pd.HasData() {
		if pd.LastUpdated.IsZero() && pd.Error == "" {
			return MutedStyle.Render("Loading...")
		}
		return MutedStyle.Render("No data")
	}

	var body string
	switch pd.Panel.Type {
	case grafana.PanelStat:
		body = renderStat(pd, h, width)
	case grafana.PanelTable:
		body = renderTable(pd, width, max(lines-3, 1))
	default:
		body = renderTimeSeries(pd, width, lines)
	}

	if pd.Error != "" {
		body += "\n" + WarningStyle.Render(truncate("stale: "+pd.Error, width))
	}
	return body
}

// statValue returns the latest sample of the first series of the first
// successful query.
func statValue(results []prometheus.QueryResult) (refID string, v float64, ok bool) {
	for _, r := range results {
		if r.Failed() || len(r.Series) == 0 {
			continue
		}
		if s, found := r.Series[0].Latest(); found {
			return r.RefID, s.Value, true
		}
	}
	return "", 0, false
}

func renderStat(pd store.PanelData, h HistorySource, width int) string {
	refID, v, ok := statValue(pd.Results)
	if !ok {
		return MutedStyle.Render("No data")
	}

	valueStyle := thresholdStyle(pd.Panel.Thresholds, v, 0, 100).Bold(true)
	text := FormatLarge(v)
	if pd.Panel.Unit == "percent" {
		text += "%"
	}

	lines := []string{lipgloss.PlaceHorizontal(width, lipgloss.Center, valueStyle.Render(text))}

	if percentLike(pd.Panel.Title, pd.Panel.Unit, v) {
		color := lipgloss.Color(grafana.ResolveColor(pd.Panel.Thresholds.ColorFor(v)))
		if pd.Panel.Thresholds == nil {
			color = ColorGraph
		}
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, PercentBar(v, min(width, 30), color)))
	}

	trend := h.Trend(pd.Panel.ID, refID)
	lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, renderTrend(trend)))

	if hist := h.HistoryValues(pd.Panel.ID, refID, width); len(hist) > 1 {
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, RenderSparkline(hist, width, ColorTextMuted)))
	}
	return strings.Join(lines, "\n")
}

func renderTrend(t store.Trend) string {
	switch t {
	case store.TrendUp:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Bold(true).Render(TrendUpGlyph) + LabelStyle.Render(" increasing")
	case store.TrendDown:
		return lipgloss.NewStyle().Foreground(ColorCritical).Bold(true).Render(TrendDownGlyph) + LabelStyle.Render(" decreasing")
	default:
		return MutedStyle.Bold(true).Render(TrendStableGlyph) + LabelStyle.Render(" stable")
	}
}

// renderTimeSeries draws each series as a legend line with its stats and a
// sparkline underneath, as many as fit in lines.
func renderTimeSeries(pd store.PanelData, width, lines int) string {
	var out []string
	idx := 0
	total := 0
	for _, r := range pd.Results {
		total += len(r.Series)
	}

	for _, r := range pd.Results {
		if r.Failed() {
			out = append(out, ErrorStyle.Render(truncate(r.RefID+": "+r.Error, width)))
			continue
		}
		for _, s := range r.Series {
			if len(out)+2 > lines {
				if rest := total - idx; rest > 0 {
					out = append(out, MutedStyle.Render(fmt.Sprintf("+%d more series", rest)))
				}
				return strings.Join(lo.Slice(out, 0, lines), "\n")
			}
			color := seriesColor(idx)
			out = append(out, legendLine(s, pd.Panel, color, width), RenderSparkline(s.Values(), width, color))
			idx++
		}
	}
	return strings.Join(out, "\n")
}

// legendLine is "■ name  cur X min Y max Z avg W", trimmed to width.
func legendLine(s prometheus.TimeSeries, p grafana.Panel, color lipgloss.Color, width int) string {
	st := ComputeStats(s.Values())
	stats := fmt.Sprintf("cur %s min %s max %s avg %s",
		FormatWithUnit(st.Current, p.Unit), FormatValue(st.Min), FormatValue(st.Max), FormatValue(st.Mean))

	nameWidth := max(width-lipgloss.Width(stats)-3, 6)
	name := truncate(s.Name(), nameWidth)
	marker := lipgloss.NewStyle().Foreground(color).Render("■")
	line := marker + " " + ValueStyle.Render(name)
	if pad := width - lipgloss.Width(line) - lipgloss.Width(stats); pad >= 1 {
		return line + strings.Repeat(" ", pad) + thresholdStyle(p.Thresholds, st.Current, st.Min, st.Max).Render(stats)
	}
	return line
}

// labelColumns picks the labels that appear most often across series,
// ignoring the metric name.
func labelColumns(series []prometheus.TimeSeries) []string {
	counts := map[string]int{}
	for _, s := range series {
		for k := range s.Labels {
			if k != "__name__" {
				counts[k]++
			}
		}
	}
	keys := lo.Keys(counts)
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return lo.Slice(keys, 0, maxLabelColumns)
}

// tableRows builds one row per series: its label values followed by the
// latest value.
func tableRows(series []prometheus.TimeSeries, cols []string, unit string) [][]string {
	return lo.Map(series, func(s prometheus.TimeSeries, _ int) []string {
		row := lo.Map(cols, func(c string, _ int) string {
			if v, ok := s.Labels[c]; ok {
				return v
			}
			return "-"
		})
		value := "-"
		if smp, ok := s.Latest(); ok {
			value = FormatWithUnit(smp.Value, unit)
		}
		if len(cols) == 0 {
			row = append(row, s.Name())
		}
		return append(row, value)
	})
}

func successfulSeries(results []prometheus.QueryResult) []prometheus.TimeSeries {
	var all []prometheus.TimeSeries
	for _, r := range results {
		if !r.Failed() {
			all = append(all, r.Series...)
		}
	}
	return all
}

// renderTable draws a bubbles table of the panel's series.
func renderTable(pd store.PanelData, width, maxRows int) string {
	series := successfulSeries(pd.Results)
	cols := labelColumns(series)
	rows := tableRows(series, cols, pd.Panel.Unit)

	titles := cols
	if len(cols) == 0 {
		titles = []string{"Series"}
	}
	labelWidth := max((width-valueColWidth)/len(titles)-2, 4)
	columns := lo.Map(titles, func(t string, _ int) table.Column {
		return table.Column{Title: truncate(t, labelWidth), Width: labelWidth}
	})
	columns = append(columns, table.Column{Title: "Value", Width: valueColWidth - 2})

	shown := lo.Slice(rows, 0, maxRows)
	tRows := lo.Map(shown, func(r []string, _ int) table.Row { return table.Row(r) })

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tRows),
		table.WithFocused(false),
		table.WithHeight(len(tRows)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(ColorGraph).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Cell = s.Cell.Foreground(ColorTextSecondary)
	s.Selected = s.Cell
	t.SetStyles(s)

	out := t.View()
	if len(rows) > len(shown) {
		out += "\n" + MutedStyle.Render(fmt.Sprintf("... and %d more rows", len(rows)-len(shown)))
	}
	return out
}
