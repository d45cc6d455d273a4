package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// suffixes are the decimal magnitudes used for large values, largest first.
var suffixes = []struct {
	limit  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatLarge formats a stat value: one decimal with a K/M/G/T suffix at or
// above a thousand, integers as-is, everything else to one decimal.
func FormatLarge(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	for _, sf := range suffixes {
		if math.Abs(v) >= sf.limit {
			return strconv.FormatFloat(v/sf.limit, 'f', 1, 64) + sf.suffix
		}
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatValue formats a series value for tables and legends: two decimals
// with a K/M/G suffix, or exponent notation for tiny non-zero values.
func FormatValue(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	for _, sf := range suffixes[1:] {
		if math.Abs(v) >= sf.limit {
			return strconv.FormatFloat(v/sf.limit, 'f', 2, 64) + sf.suffix
		}
	}
	if v != 0 && math.Abs(v) < 0.01 {
		return strconv.FormatFloat(v, 'e', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatWithUnit appends a short unit for the common Grafana unit ids.
func FormatWithUnit(v float64, unit string) string {
	switch unit {
	case "percent":
		return FormatValue(v) + "%"
	case "percentunit":
		return FormatValue(v*100) + "%"
	case "s":
		return FormatValue(v) + "s"
	case "ms":
		return FormatValue(v) + "ms"
	case "bytes", "decbytes":
		return FormatValue(v) + "B"
	case "reqps":
		return FormatValue(v) + " req/s"
	default:
		return FormatValue(v)
	}
}

func formatNonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "+Inf", true
	case math.IsInf(v, -1):
		return "-Inf", true
	}
	return "", false
}

// truncate shortens s to width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// percentLike reports whether a panel reads as a percentage, going by its
// unit or title.
func percentLike(title, unit string, v float64) bool {
	if v < 0 || v > 100 {
		return false
	}
	if unit == "percent" {
		return true
	}
	t := strings.ToLower(title)
	return strings.Contains(t, "%") || strings.Contains(t, "percent") || strings.Contains(t, "usage")
}

// formatAge renders how long ago something happened in whole seconds.
func formatAge(seconds int) string {
	switch {
	case seconds <= 0:
		return "just now"
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	default:
		return fmt.Sprintf("%dm%02ds ago", seconds/60, seconds%60)
	}
}
