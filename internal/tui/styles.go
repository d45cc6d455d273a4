package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/viewui/internal/grafana"
)

// Palette for the dashboard chrome. Panel values are colored by their
// threshold steps instead.
const (
	ColorDarkBg    = lipgloss.Color("#0B0C10")
	ColorSurfaceBg = lipgloss.Color("#16181F")
	ColorBorder    = lipgloss.Color("#2C3038")

	ColorHealthy  = lipgloss.Color("#73BF69")
	ColorWarning  = lipgloss.Color("#FADE2A")
	ColorCritical = lipgloss.Color("#F2495C")

	ColorTextPrimary   = lipgloss.Color("#DCE4ED")
	ColorTextSecondary = lipgloss.Color("#9FA7B3")
	ColorTextMuted     = lipgloss.Color("#6E7580")

	ColorAccent = lipgloss.Color("#FF9830")
	ColorGraph  = lipgloss.Color("#5794F2")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	// PanelStyle has no background; each line carries its own colors.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	PanelSelectedStyle = PanelStyle.
				BorderForeground(ColorAccent)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	VariableStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Padding(0, 1)

	VariableSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorDarkBg).
				Background(ColorAccent).
				Padding(0, 1)
)

// Trend arrows for stat panels.
const (
	TrendUpGlyph     = "▲"
	TrendDownGlyph   = "▼"
	TrendStableGlyph = "─"
)

// thresholdStyle colors text with the threshold step matching v. Panels
// without thresholds render in the primary text color.
func thresholdStyle(t *grafana.ThresholdConfig, v, lo, hi float64) lipgloss.Style {
	if t == nil || len(t.Steps) == 0 {
		return ValueStyle
	}
	hex := grafana.ResolveColor(t.ColorForRange(v, lo, hi))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

// seriesColors cycles across series in a time-series panel.
var seriesColors = []lipgloss.Color{
	"#73BF69", "#FADE2A", "#5794F2", "#FF9830", "#F2495C", "#B877D9", "#8AB8FF", "#96D98D",
}

func seriesColor(i int) lipgloss.Color {
	return seriesColors[i%len(seriesColors)]
}
