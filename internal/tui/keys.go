package tui

import "github.com/charmbracelet/bubbles/key"

// ViewMode is the current screen of the dashboard.
type ViewMode int

const (
	ViewGrid ViewMode = iota
	ViewDetail
	ViewPicker
)

func (v ViewMode) String() string {
	switch v {
	case ViewDetail:
		return "detail"
	case ViewPicker:
		return "picker"
	default:
		return "grid"
	}
}

// KeyMap holds the dashboard key bindings.
type KeyMap struct {
	Quit         key.Binding
	Refresh      key.Binding
	Next         key.Binding
	Prev         key.Binding
	Detail       key.Binding
	Back         key.Binding
	NextVar      key.Binding
	PrevValue    key.Binding
	NextValue    key.Binding
	TimeRange    key.Binding
	Dashboards   key.Binding
	ToggleHelp   key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
	ScrollTop    key.Binding
	ScrollBottom key.Binding
}

var keys = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "right", "down", "l", "j"),
		key.WithHelp("tab/→", "next panel"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "left", "up", "h", "k"),
		key.WithHelp("shift+tab/←", "previous panel"),
	),
	Detail: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "panel detail"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	NextVar: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "next variable"),
	),
	PrevValue: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "previous value"),
	),
	NextValue: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next value"),
	),
	TimeRange: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "cycle time range"),
	),
	Dashboards: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "switch dashboard"),
	),
	ToggleHelp: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	ScrollTop: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("home", "top"),
	),
	ScrollBottom: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("end", "bottom"),
	),
}

// ShortHelp is the footer hint line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Next, k.Detail, k.NextVar, k.ToggleHelp}
}

// FullHelp is the help overlay, one column per group.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Detail, k.Back},
		{k.NextVar, k.PrevValue, k.NextValue, k.TimeRange},
		{k.Refresh, k.Dashboards, k.ToggleHelp, k.Quit},
	}
}

// timeRanges are the presets cycled by the time range key.
var timeRanges = []string{"5m", "15m", "1h", "6h", "1d"}

// nextTimeRange returns the preset after current, or the first preset when
// current isn't one of them.
func nextTimeRange(current string) string {
	for i, r := range timeRanges {
		if r == current {
			return timeRanges[(i+1)%len(timeRanges)]
		}
	}
	return timeRanges[0]
}
