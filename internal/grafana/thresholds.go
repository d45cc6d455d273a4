package grafana

import (
	"math"
	"sort"
	"strings"
)

// ThresholdMode is the Grafana threshold mode.
type ThresholdMode string

const (
	ThresholdAbsolute   ThresholdMode = "absolute"
	ThresholdPercentage ThresholdMode = "percentage"
)

// ThresholdStep colors every value at or above Value. A nil Value marks the
// base step.
type ThresholdStep struct {
	Color string
	Value *float64
}

// ThresholdConfig is a panel's threshold definition. Steps are kept sorted
// with the base step first and the rest ascending.
type ThresholdConfig struct {
	Mode  ThresholdMode
	Steps []ThresholdStep
}

// DefaultColor is returned when there are no steps to resolve against.
const DefaultColor = "#ffffff"

func (c *ThresholdConfig) sortSteps() {
	sort.SliceStable(c.Steps, func(i, j int) bool {
		a, b := c.Steps[i].Value, c.Steps[j].Value
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return *a < *b
	})
}

// ColorFor returns the color name of the highest step whose value is at or
// below v, falling back to the base step. Non-finite values resolve to the
// base step.
func (c *ThresholdConfig) ColorFor(v float64) string {
	if c == nil || len(c.Steps) == 0 {
		return DefaultColor
	}
	color := c.Steps[0].Color
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return color
	}
	for _, s := range c.Steps {
		if s.Value == nil {
			color = s.Color
			continue
		}
		if *s.Value <= v {
			color = s.Color
		}
	}
	return color
}

// ColorForRange resolves v in percentage mode against [lo, hi]. Absolute
// mode ignores the bounds.
func (c *ThresholdConfig) ColorForRange(v, lo, hi float64) string {
	if c != nil && c.Mode == ThresholdPercentage && hi > lo {
		v = (v - lo) / (hi - lo) * 100
	}
	return c.ColorFor(v)
}

// namedColors maps Grafana palette names to hex values.
var namedColors = map[string]string{
	"green":              "#73BF69",
	"dark-green":         "#37872D",
	"semi-dark-green":    "#56A64B",
	"light-green":        "#96D98D",
	"super-light-green":  "#C8F2C2",
	"red":                "#F2495C",
	"dark-red":           "#C4162A",
	"semi-dark-red":      "#E02F44",
	"light-red":          "#FF7383",
	"super-light-red":    "#FFA6B0",
	"yellow":             "#FADE2A",
	"dark-yellow":        "#E0B400",
	"semi-dark-yellow":   "#F2CC0C",
	"light-yellow":       "#FFEE52",
	"super-light-yellow": "#FFF899",
	"orange":             "#FF9830",
	"dark-orange":        "#FA6400",
	"semi-dark-orange":   "#FF780A",
	"light-orange":       "#FFB357",
	"super-light-orange": "#FFCB7D",
	"blue":               "#5794F2",
	"dark-blue":          "#1F60C4",
	"semi-dark-blue":     "#3274D9",
	"light-blue":         "#8AB8FF",
	"super-light-blue":   "#C0D8FF",
	"purple":             "#B877D9",
	"dark-purple":        "#8F3BB8",
	"semi-dark-purple":   "#A352CC",
	"light-purple":       "#CA95E5",
	"super-light-purple": "#DEB6F2",
	"white":              "#FFFFFF",
	"black":              "#000000",
	"gray":               "#808080",
	"text":               "#DCE4ED",
}

// ResolveColor maps a Grafana color name to hex. Hex input passes through and
// unknown names resolve to green.
func ResolveColor(name string) string {
	if strings.HasPrefix(name, "#") {
		return name
	}
	if hex, ok := namedColors[strings.ToLower(name)]; ok {
		return hex
	}
	return namedColors["green"]
}
