package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/store"
)

func newTestModel(t *testing.T, s store.State, opts ...Option) (Model, *fakeController) {
	t.Helper()
	f := newFakeController(s)
	opts = append([]Option{WithClock(func() time.Time { return t0 })}, opts...)
	m := NewModel(f, opts...)
	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, f
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runCmd executes cmd and feeds its message back into the model.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	return update(m, cmd())
}

func TestNewModel_SeedsState(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	assert.Equal(t, "Node Overview", m.State().Title)
	assert.Equal(t, ViewGrid, m.Mode())

	pd, ok := m.SelectedPanel()
	require.True(t, ok)
	assert.Equal(t, 1, pd.Panel.ID)
}

func TestModel_PanelSelectionWraps(t *testing.T) {
	m, _ := newTestModel(t, sampleState())

	m, _ = press(m, "tab")
	pd, _ := m.SelectedPanel()
	assert.Equal(t, 2, pd.Panel.ID)

	m, _ = press(m, "right")
	m, _ = press(m, "tab")
	pd, _ = m.SelectedPanel()
	assert.Equal(t, 1, pd.Panel.ID, "wraps past the last panel")

	m, _ = press(m, "shift+tab")
	pd, _ = m.SelectedPanel()
	assert.Equal(t, 3, pd.Panel.ID, "wraps before the first panel")
}

func TestModel_DetailView(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	m, _ = press(m, "tab")

	m, _ = press(m, "enter")
	assert.Equal(t, ViewDetail, m.Mode())
	view := m.View()
	assert.Contains(t, view, "CPU")
	assert.Contains(t, view, "node_cpu")
	assert.Contains(t, view, "stddev")

	m, _ = press(m, "down")
	assert.Equal(t, ViewDetail, m.Mode(), "arrows scroll instead of switching panels")
	pd, _ := m.SelectedPanel()
	assert.Equal(t, 2, pd.Panel.ID)

	m, _ = press(m, "esc")
	assert.Equal(t, ViewGrid, m.Mode())
}

func TestModel_Refresh(t *testing.T) {
	m, f := newTestModel(t, sampleState())

	m, cmd := press(m, "r")
	assert.Contains(t, m.View(), SpinnerFrames.Frames[0], "busy while the refresh runs")
	m = runCmd(t, m, cmd)

	assert.Equal(t, []string{"refresh"}, f.Calls())
	assert.Zero(t, m.busy)
}

func TestModel_ActionFailureShowsStatus(t *testing.T) {
	m, f := newTestModel(t, sampleState())
	f.err = errors.New(errors.ErrQuery, "backend down", "")

	m, cmd := press(m, "r")
	m = runCmd(t, m, cmd)
	assert.Contains(t, m.View(), "refresh failed: backend down")

	f.err = nil
	m, cmd = press(m, "r")
	m = runCmd(t, m, cmd)
	assert.NotContains(t, m.View(), "refresh failed")
}

func TestModel_VariableCycling(t *testing.T) {
	m, f := newTestModel(t, sampleState())

	v, ok := m.SelectedVariable()
	require.True(t, ok)
	assert.Equal(t, "job", v.Name)

	m, cmd := press(m, "]")
	runCmd(t, m, cmd)
	assert.Equal(t, []string{"set job=api"}, f.Calls())

	m, _ = press(m, "v")
	v, _ = m.SelectedVariable()
	assert.Equal(t, "instance", v.Name)

	m, cmd = press(m, "[")
	runCmd(t, m, cmd)
	assert.Equal(t, "set instance=c:9100", f.Calls()[1], "wraps backwards")

	m, _ = press(m, "v")
	v, _ = m.SelectedVariable()
	assert.Equal(t, "job", v.Name, "wraps to the first variable")
}

func TestModel_VariableWithoutOptions(t *testing.T) {
	s := sampleState()
	s.VariableOptions = map[string][]string{}
	s.Variables[0].Options = nil
	m, f := newTestModel(t, s)

	_, cmd := press(m, "]")
	assert.Nil(t, cmd)
	assert.Empty(t, f.Calls())
}

func TestModel_UnknownValueJumpsToFirstOption(t *testing.T) {
	s := sampleState()
	s.VariableValues["job"] = "gone"
	m, f := newTestModel(t, s)

	m, cmd := press(m, "]")
	runCmd(t, m, cmd)
	assert.Equal(t, []string{"set job=node"}, f.Calls())
}

func TestModel_TimeRange(t *testing.T) {
	m, f := newTestModel(t, sampleState())
	m, cmd := press(m, "t")
	runCmd(t, m, cmd)
	assert.Equal(t, []string{"range 15m"}, f.Calls())

	assert.Equal(t, "5m", nextTimeRange("1d"))
	assert.Equal(t, "5m", nextTimeRange("2h"))
}

func TestModel_StateMsgClampsSelection(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	m, _ = press(m, "shift+tab")
	m, _ = press(m, "v")

	s := sampleState()
	s.Panels = s.Panels[:1]
	s.Variables = s.Variables[:1]
	m = update(m, StateMsg{State: s})

	pd, ok := m.SelectedPanel()
	require.True(t, ok)
	assert.Equal(t, 1, pd.Panel.ID)
	v, ok := m.SelectedVariable()
	require.True(t, ok)
	assert.Equal(t, "job", v.Name)
}

func TestModel_DetailClosesWhenPanelsVanish(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	m, _ = press(m, "enter")
	require.Equal(t, ViewDetail, m.Mode())

	m = update(m, StateMsg{State: store.State{Status: store.StatusLoading, Loading: true}})
	assert.Equal(t, ViewGrid, m.Mode())
	assert.Contains(t, m.View(), "Loading dashboard...")
}

func TestModel_DashboardPicker(t *testing.T) {
	t.Run("without a directory", func(t *testing.T) {
		m, _ := newTestModel(t, sampleState())
		m, cmd := press(m, "d")
		assert.Nil(t, cmd)
		assert.Contains(t, m.View(), "no dashboard directory configured")
	})

	t.Run("pick and switch", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"title":"Alpha","panels":[]}`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"title":"Beta","panels":[]}`), 0644))

		s := sampleState()
		s.Path = filepath.Join(dir, "a.json")
		m, f := newTestModel(t, s, WithDirectory(dir))

		m, cmd := press(m, "d")
		m = runCmd(t, m, cmd)
		require.Equal(t, ViewPicker, m.Mode())
		view := m.View()
		assert.Contains(t, view, "Alpha (current)")
		assert.Contains(t, view, "Beta")

		m, _ = press(m, "down")
		m, cmd = press(m, "enter")
		assert.Equal(t, ViewGrid, m.Mode())
		runCmd(t, m, cmd)
		assert.Equal(t, []string{"switch " + filepath.Join(dir, "b.json")}, f.Calls())
	})

	t.Run("picking the current dashboard is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"title":"Alpha","panels":[]}`), 0644))
		s := sampleState()
		s.Path = path
		m, f := newTestModel(t, s, WithDirectory(dir))

		m, cmd := press(m, "d")
		m = runCmd(t, m, cmd)
		m, cmd = press(m, "enter")
		assert.Nil(t, cmd)
		assert.Equal(t, ViewGrid, m.Mode())
		assert.Empty(t, f.Calls())
	})

	t.Run("esc cancels", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"title":"Alpha"}`), 0644))
		m, f := newTestModel(t, sampleState(), WithDirectory(dir))

		m, cmd := press(m, "d")
		m = runCmd(t, m, cmd)
		m, _ = press(m, "esc")
		assert.Equal(t, ViewGrid, m.Mode())
		assert.Empty(t, f.Calls())
	})

	t.Run("empty directory", func(t *testing.T) {
		m, _ := newTestModel(t, sampleState(), WithDirectory(t.TempDir()))
		m, cmd := press(m, "d")
		m = runCmd(t, m, cmd)
		assert.Equal(t, ViewGrid, m.Mode())
		assert.Contains(t, m.View(), "no dashboards found")
	})
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	m, _ = press(m, "?")
	view := m.View()
	assert.Contains(t, view, "Keyboard Shortcuts")
	assert.Contains(t, view, "switch dashboard")

	m, _ = press(m, "esc")
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	m, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := NewModel(newFakeController(sampleState()))
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_ResizeWithoutPicker(t *testing.T) {
	m := NewModel(newFakeController(store.State{Title: "x"}))
	assert.NotPanics(t, func() {
		m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
		m = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	})
	assert.Equal(t, ViewGrid, m.Mode())
	assert.Contains(t, m.View(), "x")
}

func TestModel_ResizeWhilePickerOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"title":"Alpha","panels":[]}`), 0644))
	m, _ := newTestModel(t, sampleState(), WithDirectory(dir))

	m, cmd := press(m, "d")
	m = runCmd(t, m, cmd)
	require.Equal(t, ViewPicker, m.Mode())

	m = update(m, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Equal(t, ViewPicker, m.Mode())
	assert.Contains(t, m.View(), "Alpha")
}

func TestModel_DashboardView(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	view := m.View()

	assert.Contains(t, view, "Node Overview")
	assert.Contains(t, view, "● live")
	assert.Contains(t, view, "last 5m")
	assert.Contains(t, view, "3 panels")
	assert.Contains(t, view, "updated just now")
	assert.Contains(t, view, "job: node")
	assert.Contains(t, view, "Instance: a:9100")
	assert.Contains(t, view, "Requests")
	assert.Contains(t, view, "CPU")
	assert.Contains(t, view, "Targets")
	assert.LessOrEqual(t, len(strings.Split(view, "\n")), 40)
}

func TestModel_ErrorsAndWarnings(t *testing.T) {
	s := sampleState()
	s.Status = store.StatusFailed
	s.Error = "dashboard file not found: /x.json"
	s.Warnings = []string{`Panel "Logs" (4): type "logs" not supported, skipping`, "second"}
	s.VariableErrors = map[string]string{"instance": "HTTP 503"}
	m, _ := newTestModel(t, s)

	view := m.View()
	assert.Contains(t, view, "● failed")
	assert.Contains(t, view, "✗ dashboard file not found: /x.json")
	assert.Contains(t, view, `type "logs" not supported`)
	assert.Contains(t, view, "(+1 more)")
	assert.Contains(t, view, "Instance: a:9100 !")
}

func TestModel_LayoutModes(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	assert.Equal(t, LayoutGrid, m.LayoutMode())

	m = update(m, tea.WindowSizeMsg{Width: 60, Height: 30})
	assert.Equal(t, LayoutStacked, m.LayoutMode())
	assert.Contains(t, m.View(), "Requests")
}

func TestModel_ScrollsToSelectedPanel(t *testing.T) {
	m, _ := newTestModel(t, sampleState())
	m = update(m, tea.WindowSizeMsg{Width: 60, Height: 16})

	assert.Contains(t, m.View(), "Requests")
	m, _ = press(m, "shift+tab")
	view := m.View()
	assert.Contains(t, view, "Targets")
	assert.NotContains(t, view, "Requests")
}

func TestColumnWidths(t *testing.T) {
	s := sampleState()
	assert.Equal(t, []int{60, 60}, columnWidths(s.Panels[:2], 120))
	assert.Equal(t, []int{60, 61}, columnWidths(s.Panels[:2], 121), "remainder goes to the last panel")
	assert.Equal(t, []int{60}, columnWidths(s.Panels[:1], 120), "a half-width panel stays half width")
	assert.Equal(t, []int{120}, columnWidths(s.Panels[2:], 120))
}

func TestModel_InitialDashboardLoad(t *testing.T) {
	m, f := newTestModel(t, store.State{}, WithInitialDashboard("/dash/node.json"))

	batch, ok := m.Init()().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 3)

	done, ok := batch[2]().(actionDoneMsg)
	require.True(t, ok)
	assert.NoError(t, done.err)
	assert.Equal(t, []string{"switch /dash/node.json"}, f.Calls())
}
