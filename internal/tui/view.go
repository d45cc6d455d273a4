package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/store"
)

// renderDashboard renders the grid screen.
func (m Model) renderDashboard() string {
	top := []string{m.renderHeader()}
	if bar := m.renderVariableBar(); bar != "" {
		top = append(top, bar)
	}
	if m.state.Error != "" {
		top = append(top, ErrorStyle.Padding(0, 1).Render(truncate("✗ "+m.state.Error, m.width-2)))
	}
	if w := m.renderWarnings(); w != "" {
		top = append(top, w)
	}
	header := strings.Join(top, "\n")
	footer := m.renderFooter()

	avail := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - 1
	return header + "\n" + m.renderPanels(max(avail, minPanelHeight)) + "\n" + footer
}

// renderHeader is the title line: dashboard title, status, time range and
// the age of the last refresh.
func (m Model) renderHeader() string {
	title := m.state.Title
	if title == "" {
		title = "viewui"
	}

	var status string
	switch {
	case m.state.Loading || m.busy > 0:
		status = m.spinner.View() + " " + LabelStyle.Render(m.state.Status.String())
	case m.state.Status == store.StatusFailed:
		status = ErrorStyle.Render("● failed")
	case m.state.Status == store.StatusReady:
		status = lipgloss.NewStyle().Foreground(ColorHealthy).Render("● live")
	default:
		status = MutedStyle.Render("○ idle")
	}

	updated := "never"
	if !m.state.LastRefresh.IsZero() {
		updated = formatAge(int(m.now().Sub(m.state.LastRefresh).Seconds()))
	}

	stats := LabelStyle.Render(fmt.Sprintf(" | %s | last %s | %d panels | updated %s",
		status, m.state.TimeRange, len(m.state.Panels), updated))
	return HeaderStyle.Width(m.width).MaxHeight(1).Render(TitleStyle.Render(title) + stats)
}

// renderVariableBar lists every variable with its value, highlighting the
// one [ and ] act on.
func (m Model) renderVariableBar() string {
	if len(m.state.Variables) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.state.Variables))
	for i, v := range m.state.Variables {
		text := fmt.Sprintf("%s: %s", v.DisplayName(), m.state.VariableValues[v.Name])
		if _, failed := m.state.VariableErrors[v.Name]; failed {
			text += " !"
		}
		style := VariableStyle
		if i == m.varIndex {
			style = VariableSelectedStyle
		}
		parts = append(parts, style.Render(text))
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func (m Model) renderWarnings() string {
	n := len(m.state.Warnings)
	if n == 0 {
		return ""
	}
	text := "⚠ " + m.state.Warnings[0]
	if n > 1 {
		text += fmt.Sprintf(" (+%d more)", n-1)
	}
	return WarningStyle.Padding(0, 1).Render(truncate(text, m.width-2))
}

// panelRow is one rendered row of the grid.
type panelRow struct {
	indexes []int
	text    string
}

// renderPanels lays out panels in rows and scrolls so the selected panel is
// visible within height lines.
func (m Model) renderPanels(height int) string {
	if len(m.state.Panels) == 0 {
		if m.state.Loading {
			return LabelStyle.Padding(1, 1).Render(m.spinner.View() + " Loading dashboard...")
		}
		return LabelStyle.Padding(1, 1).Render("No panels to display")
	}

	var rows []panelRow
	if m.LayoutMode() == LayoutStacked {
		for i, pd := range m.state.Panels {
			rows = append(rows, panelRow{
				indexes: []int{i},
				text:    renderPanel(pd, m.ctrl, m.width, panelHeight(pd.Panel.GridPos.H), i == m.selected),
			})
		}
	} else {
		rows = m.gridRows()
	}

	sel := 0
	for r, row := range rows {
		for _, i := range row.indexes {
			if i == m.selected {
				sel = r
			}
		}
	}

	start := 0
	for start < sel && rowsHeight(rows[start:sel+1]) > height {
		start++
	}
	var out []string
	used := 0
	for _, row := range rows[start:] {
		h := lipgloss.Height(row.text)
		if used+h > height && len(out) > 0 {
			break
		}
		out = append(out, row.text)
		used += h
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func rowsHeight(rows []panelRow) int {
	total := 0
	for _, r := range rows {
		total += lipgloss.Height(r.text)
	}
	return total
}

// gridRows groups panels sharing a grid row and sizes each by its share of
// the 24-column grid.
func (m Model) gridRows() []panelRow {
	var rows []panelRow
	panels := m.state.Panels
	for i := 0; i < len(panels); {
		y := panels[i].Panel.GridPos.Y
		j := i
		for j < len(panels) && panels[j].Panel.GridPos.Y == y {
			j++
		}

		rowHeight := 0
		for _, pd := range panels[i:j] {
			rowHeight = max(rowHeight, panelHeight(pd.Panel.GridPos.H))
		}

		widths := columnWidths(panels[i:j], m.width)
		cards := make([]string, 0, j-i)
		idx := make([]int, 0, j-i)
		for k, pd := range panels[i:j] {
			cards = append(cards, renderPanel(pd, m.ctrl, widths[k], rowHeight, i+k == m.selected))
			idx = append(idx, i+k)
		}
		rows = append(rows, panelRow{indexes: idx, text: lipgloss.JoinHorizontal(lipgloss.Top, cards...)})
		i = j
	}
	return rows
}

// columnWidths splits width between panels by grid width, giving the
// rounding remainder to the last panel.
func columnWidths(panels []store.PanelData, width int) []int {
	total := 0
	for _, pd := range panels {
		total += gridWidth(pd.Panel.GridPos)
	}
	if total < 24 {
		total = 24
	}
	widths := make([]int, len(panels))
	used := 0
	for i, pd := range panels {
		widths[i] = max(width*gridWidth(pd.Panel.GridPos)/total, 12)
		used += widths[i]
	}
	if len(panels) > 0 && used < width && total == sumGridWidth(panels) {
		widths[len(widths)-1] += width - used
	}
	return widths
}

func gridWidth(g grafana.GridPos) int {
	if g.W <= 0 {
		return grafana.DefaultGridPos.W
	}
	return min(g.W, 24)
}

func sumGridWidth(panels []store.PanelData) int {
	total := 0
	for _, pd := range panels {
		total += gridWidth(pd.Panel.GridPos)
	}
	return total
}

// panelHeight maps grid height units to terminal lines.
func panelHeight(h int) int {
	if h <= 0 {
		h = grafana.DefaultGridPos.H
	}
	return max(minPanelHeight, min(h+2, maxPanelHeight))
}

// renderFooter shows the last action outcome and key hints.
func (m Model) renderFooter() string {
	hints := m.help.ShortHelpView(keys.ShortHelp())
	if m.status != "" {
		return FooterStyle.Render(ErrorStyle.Render(truncate(m.status, m.width/2)) + "  " + hints)
	}
	return FooterStyle.Render(hints)
}
