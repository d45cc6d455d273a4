package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sparkline block characters, lowest to highest.
var sparklineBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the last width values as block characters scaled between
// their min and max. A flat series sits at the middle level.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := floats.Min(data), floats.Max(data)
	span := hi - lo
	levels := len(sparklineBlocks)

	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for _, v := range data {
		level := levels / 2
		if span > 0 {
			level = int((v - lo) / span * float64(levels-1))
			level = max(0, min(level, levels-1))
		}
		sb.WriteRune(sparklineBlocks[level])
	}
	return sb.String()
}

// RenderSparkline is Sparkline in the given color.
func RenderSparkline(data []float64, width int, color lipgloss.Color) string {
	line := Sparkline(data, width)
	if line == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(color).Render(line)
}

// Stats summarizes a series of finite values.
type Stats struct {
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	Current float64
	Count   int
}

// ComputeStats returns summary statistics for values. The zero Stats is
// returned for an empty slice.
func ComputeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		Mean:    stat.Mean(values, nil),
		Current: values[len(values)-1],
		Count:   len(values),
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

// PercentBar renders a fixed-width bar for a 0-100 value.
func PercentBar(v float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	filled := int(v / 100 * float64(width))
	filled = max(0, min(filled, width))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	return bar + MutedStyle.Render(strings.Repeat("░", width-filled))
}
