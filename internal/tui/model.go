// Package tui renders a dashboard in the terminal. The Model never mutates
// dashboard state itself: it reads coordinator snapshots delivered through a
// Bridge and turns key presses into coordinator calls run as commands.
package tui

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/store"
)

// LayoutMode is picked from the terminal width.
type LayoutMode int

const (
	// LayoutStacked puts every panel on its own full-width row.
	LayoutStacked LayoutMode = iota
	// LayoutGrid places panels by their dashboard grid position.
	LayoutGrid
)

// Width and height breakpoints.
const (
	BreakpointGrid = 80
	minPanelHeight = 6
	maxPanelHeight = 16
	headerHeight   = 3
	footerHeight   = 2
)

// Controller is the coordinator surface the TUI drives.
type Controller interface {
	HistorySource
	Snapshot() store.State
	Refresh(ctx context.Context) error
	SetVariableValue(ctx context.Context, name, value string) error
	SetTimeRange(ctx context.Context, duration string) error
	SwitchDashboard(ctx context.Context, path string) error
}

// Model is the Bubble Tea model of the dashboard screen.
type Model struct {
	ctrl Controller
	ctx  context.Context
	dir  string
	now  func() time.Time

	state    store.State
	selected int
	varIndex int

	width    int
	height   int
	viewMode ViewMode
	showHelp bool
	quitting bool

	// status is the outcome of the last user action, shown in the footer.
	status string
	busy   int

	detail        viewport.Model
	viewportReady bool
	spinner       spinner.Model
	help          help.Model
	picker        Picker

	initial string
}

// Option configures a Model.
type Option func(*Model)

// WithDirectory sets the directory the dashboard picker lists.
func WithDirectory(dir string) Option {
	return func(m *Model) { m.dir = dir }
}

// WithContext sets the context coordinator calls run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// WithInitialDashboard loads path once the program starts, so the first
// fetch is visible as a loading state instead of delaying startup.
func WithInitialDashboard(path string) Option {
	return func(m *Model) { m.initial = path }
}

// WithClock overrides the time source for relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel creates a model seeded with the controller's current state.
func NewModel(ctrl Controller, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	h := help.New()
	h.Styles.ShortKey = LabelStyle
	h.Styles.ShortDesc = MutedStyle
	h.Styles.ShortSeparator = MutedStyle
	h.Styles.FullKey = LabelStyle.Bold(true)
	h.Styles.FullDesc = MutedStyle

	m := Model{
		ctrl:    ctrl,
		ctx:     context.Background(),
		now:     time.Now,
		state:   ctrl.Snapshot(),
		spinner: sp,
		help:    h,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the clock, and the initial load if one was
// requested.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, clockCmd()}
	if m.initial != "" {
		ctx, ctrl, path := m.ctx, m.ctrl, m.initial
		cmds = append(cmds, func() tea.Msg {
			return actionDoneMsg{action: "load", err: ctrl.SwitchDashboard(ctx, path)}
		})
	}
	return tea.Batch(cmds...)
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.viewMode == ViewPicker {
			return m.updatePicker(msg)
		}
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		if m.viewMode == ViewDetail && m.viewportReady {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		vpHeight := max(msg.Height-headerHeight-footerHeight, 1)
		if !m.viewportReady {
			m.detail = viewport.New(msg.Width, vpHeight)
			m.viewportReady = true
		} else {
			m.detail.Width = msg.Width
			m.detail.Height = vpHeight
		}
		if m.viewMode == ViewDetail {
			m.detail.SetContent(m.renderDetailContent())
		}
		// The picker is built with the current size when it opens.
		if m.viewMode == ViewPicker {
			m.picker.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case StateMsg:
		m.state = msg.State
		m.clampSelection()
		if m.viewMode == ViewDetail && m.viewportReady {
			m.detail.SetContent(m.renderDetailContent())
		}
		return m, nil

	case actionDoneMsg:
		m.busy = max(m.busy-1, 0)
		if msg.err != nil {
			m.status = msg.action + " failed: " + errors.Message(msg.err)
		} else {
			m.status = ""
		}
		return m, nil

	case pickerLoadedMsg:
		m.busy = max(m.busy-1, 0)
		if msg.err != nil {
			m.status = "can't list dashboards: " + errors.Message(msg.err)
			return m, nil
		}
		if len(msg.files) == 0 {
			m.status = "no dashboards found in " + m.dir
			return m, nil
		}
		m.picker = NewPicker(msg.files, m.state.Path, m.width, m.height)
		m.viewMode = ViewPicker
		return m, nil

	case clockMsg:
		return m, clockCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.viewMode == ViewPicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if !m.picker.Done() {
		return m, cmd
	}
	m.viewMode = ViewGrid
	sel := m.picker.Selected()
	if sel == nil || samePath(sel.Path, m.state.Path) {
		return m, nil
	}
	m.selected = 0
	m.varIndex = 0
	path := sel.Path
	return m, m.run("switch", func(ctx context.Context, c Controller) error {
		return c.SwitchDashboard(ctx, path)
	})
}

// run executes a coordinator call off the event loop. The resulting state
// arrives separately through the bridge.
func (m *Model) run(action string, fn func(ctx context.Context, c Controller) error) tea.Cmd {
	m.busy++
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx, ctrl)}
	}
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	switch m.viewMode {
	case ViewPicker:
		return m.picker.View()
	case ViewDetail:
		return m.renderDetailView()
	default:
		return m.renderDashboard()
	}
}

// LayoutMode returns the layout for the current width.
func (m Model) LayoutMode() LayoutMode {
	if m.width < BreakpointGrid {
		return LayoutStacked
	}
	return LayoutGrid
}

// SelectedPanel returns the highlighted panel.
func (m Model) SelectedPanel() (store.PanelData, bool) {
	if m.selected < 0 || m.selected >= len(m.state.Panels) {
		return store.PanelData{}, false
	}
	return m.state.Panels[m.selected], true
}

// SelectedVariable returns the variable [ and ] act on.
func (m Model) SelectedVariable() (grafana.Variable, bool) {
	if m.varIndex < 0 || m.varIndex >= len(m.state.Variables) {
		return grafana.Variable{}, false
	}
	return m.state.Variables[m.varIndex], true
}

// State returns the last snapshot the model received.
func (m Model) State() store.State { return m.state }

// Mode returns the current view mode.
func (m Model) Mode() ViewMode { return m.viewMode }

func (m *Model) clampSelection() {
	if m.selected >= len(m.state.Panels) {
		m.selected = max(len(m.state.Panels)-1, 0)
	}
	if m.varIndex >= len(m.state.Variables) {
		m.varIndex = 0
	}
	if m.viewMode == ViewDetail && len(m.state.Panels) == 0 {
		m.viewMode = ViewGrid
	}
}

// variableOptions returns the options cycled for v: the resolved options,
// or the declared ones before resolution.
func (m Model) variableOptions(v grafana.Variable) []string {
	if opts := m.state.VariableOptions[v.Name]; len(opts) > 0 {
		return opts
	}
	return v.Options
}

// stepVariable returns the option delta places from the current value.
func (m Model) stepVariable(v grafana.Variable, delta int) (string, bool) {
	opts := m.variableOptions(v)
	if len(opts) == 0 {
		return "", false
	}
	i := slices.Index(opts, m.state.VariableValues[v.Name])
	if i < 0 {
		return opts[0], true
	}
	n := len(opts)
	next := opts[((i+delta)%n+n)%n]
	return next, next != opts[i]
}
