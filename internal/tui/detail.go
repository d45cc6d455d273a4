package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/viewui/internal/prometheus"
	"github.com/rileyhilliard/viewui/internal/store"
)

var (
	detailSectionStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1).
				MarginBottom(1)

	detailHeadingStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)

// renderDetailView renders the focused panel in a scrollable viewport.
func (m Model) renderDetailView() string {
	pd, ok := m.SelectedPanel()
	if !ok {
		return LabelStyle.Render("No panel selected")
	}

	title := TitleStyle.Render(pd.Panel.Title) +
		LabelStyle.Render(fmt.Sprintf(" | %s | panel %d | last %s", pd.Panel.Type, pd.Panel.ID, m.state.TimeRange))
	header := HeaderStyle.Width(m.width).Render(title)

	footer := FooterStyle.Render(fmt.Sprintf("%3.f%% | esc back | ↑↓ scroll | tab next panel | r refresh",
		m.detail.ScrollPercent()*100))
	return header + "\n\n" + m.detail.View() + "\n" + footer
}

// renderDetailContent is the viewport body: queries, then every result with
// full statistics and a wide sparkline, then the panel's history.
func (m Model) renderDetailContent() string {
	pd, ok := m.SelectedPanel()
	if !ok {
		return ""
	}
	width := max(m.width-6, 40)

	var sections []string
	sections = append(sections, m.detailQueries(pd, width))

	if pd.Error != "" {
		sections = append(sections, detailSectionStyle.Width(width).Render(
			ErrorStyle.Render("Last fetch failed: "+pd.Error)))
	}

	for _, r := range pd.Results {
		sections = append(sections, m.detailResult(pd, r, width))
	}

	if !pd.LastUpdated.IsZero() {
		sections = append(sections, MutedStyle.Render("updated "+pd.LastUpdated.Format("15:04:05")))
	}
	return strings.Join(sections, "\n")
}

func (m Model) detailQueries(pd store.PanelData, width int) string {
	lines := []string{detailHeadingStyle.Render("Queries")}
	for _, q := range pd.Panel.Queries {
		lines = append(lines, LabelStyle.Render(q.RefID+": ")+ValueStyle.Render(q.Expr))
		if q.LegendFormat != "" {
			lines = append(lines, MutedStyle.Render("   legend "+q.LegendFormat))
		}
	}
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) detailResult(pd store.PanelData, r prometheus.QueryResult, width int) string {
	lines := []string{detailHeadingStyle.Render("Result " + r.RefID)}
	if r.Failed() {
		lines = append(lines, ErrorStyle.Render(r.Error))
		return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
	}
	if len(r.Series) == 0 {
		lines = append(lines, MutedStyle.Render("No data"))
	}

	inner := width - 4
	for i, s := range r.Series {
		color := seriesColor(i)
		st := ComputeStats(s.Values())
		lines = append(lines,
			lipgloss.NewStyle().Foreground(color).Render("■ ")+ValueStyle.Render(s.Name()),
			LabelStyle.Render(fmt.Sprintf("  current %s  min %s  max %s  mean %s  stddev %s  samples %d",
				FormatWithUnit(st.Current, pd.Panel.Unit), FormatValue(st.Min), FormatValue(st.Max),
				FormatValue(st.Mean), FormatValue(st.StdDev), st.Count)),
			"  "+RenderSparkline(s.Values(), inner-2, color),
		)
	}

	if hist := m.ctrl.HistoryValues(pd.Panel.ID, r.RefID, inner-2); len(hist) > 0 {
		lines = append(lines,
			LabelStyle.Render(fmt.Sprintf("  last %d refreshes, trend ", len(hist)))+renderTrend(m.ctrl.Trend(pd.Panel.ID, r.RefID)),
			"  "+RenderSparkline(hist, inner-2, ColorTextMuted),
		)
	}
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}
