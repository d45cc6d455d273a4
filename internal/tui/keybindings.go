package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/viewui/internal/grafana"
)

// HandleKeyMsg processes a key press outside the picker. It reports whether
// the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, keys.ToggleHelp) {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key.Matches(msg, keys.Back) {
		m.showHelp = false
		return true, nil
	}

	if key.Matches(msg, keys.Quit) {
		m.quitting = true
		return true, tea.Quit
	}

	if m.viewMode == ViewDetail {
		switch {
		case key.Matches(msg, keys.Back):
			m.viewMode = ViewGrid
			return true, nil
		case key.Matches(msg, keys.ScrollUp, keys.ScrollDown):
			// left to the viewport
			return false, nil
		case key.Matches(msg, keys.ScrollTop):
			m.detail.GotoTop()
			return true, nil
		case key.Matches(msg, keys.ScrollBottom):
			m.detail.GotoBottom()
			return true, nil
		}
	}

	switch {
	case key.Matches(msg, keys.Refresh):
		return true, m.run("refresh", func(ctx context.Context, c Controller) error {
			return c.Refresh(ctx)
		})

	case key.Matches(msg, keys.Next):
		m.moveSelection(1)
		return true, nil

	case key.Matches(msg, keys.Prev):
		m.moveSelection(-1)
		return true, nil

	case key.Matches(msg, keys.Detail):
		if m.viewMode == ViewGrid && len(m.state.Panels) > 0 {
			m.viewMode = ViewDetail
			m.detail.SetContent(m.renderDetailContent())
			m.detail.GotoTop()
		}
		return true, nil

	case key.Matches(msg, keys.Back):
		m.viewMode = ViewGrid
		return true, nil

	case key.Matches(msg, keys.NextVar):
		if n := len(m.state.Variables); n > 0 {
			m.varIndex = (m.varIndex + 1) % n
		}
		return true, nil

	case key.Matches(msg, keys.PrevValue):
		return true, m.cycleVariable(-1)

	case key.Matches(msg, keys.NextValue):
		return true, m.cycleVariable(1)

	case key.Matches(msg, keys.TimeRange):
		next := nextTimeRange(m.state.TimeRange)
		return true, m.run("time range", func(ctx context.Context, c Controller) error {
			return c.SetTimeRange(ctx, next)
		})

	case key.Matches(msg, keys.Dashboards):
		return true, m.openPicker()
	}

	return false, nil
}

func (m *Model) moveSelection(delta int) {
	n := len(m.state.Panels)
	if n == 0 {
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
	if m.viewMode == ViewDetail {
		m.detail.SetContent(m.renderDetailContent())
		m.detail.GotoTop()
	}
}

func (m *Model) cycleVariable(delta int) tea.Cmd {
	v, ok := m.SelectedVariable()
	if !ok {
		return nil
	}
	value, changed := m.stepVariable(v, delta)
	if !changed {
		return nil
	}
	name := v.Name
	return m.run("set "+name, func(ctx context.Context, c Controller) error {
		return c.SetVariableValue(ctx, name, value)
	})
}

func (m *Model) openPicker() tea.Cmd {
	if m.dir == "" {
		m.status = "no dashboard directory configured"
		return nil
	}
	m.busy++
	dir := m.dir
	return func() tea.Msg {
		files, err := grafana.ScanDashboards(dir)
		return pickerLoadedMsg{files: files, err: err}
	}
}
