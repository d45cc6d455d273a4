package tui

import (
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/rileyhilliard/viewui/internal/grafana"
)

// dashboardItem implements list.Item for the picker.
type dashboardItem struct {
	file    grafana.DashboardFile
	current bool
}

func (i dashboardItem) Title() string {
	if i.current {
		return i.file.Title + " (current)"
	}
	return i.file.Title
}

func (i dashboardItem) Description() string { return filepath.Base(i.file.Path) }

func (i dashboardItem) FilterValue() string { return i.file.Title + " " + filepath.Base(i.file.Path) }

// Picker selects a dashboard file from a directory listing.
type Picker struct {
	list     list.Model
	selected *grafana.DashboardFile
	done     bool
}

var pickerKeys = struct {
	Enter  key.Binding
	Cancel key.Binding
}{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc", "cancel"),
	),
}

// NewPicker builds a picker over files, marking currentPath.
func NewPicker(files []grafana.DashboardFile, currentPath string, width, height int) Picker {
	items := lo.Map(files, func(f grafana.DashboardFile, _ int) list.Item {
		return dashboardItem{file: f, current: samePath(f.Path, currentPath)}
	})

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorAccent).
		BorderForeground(ColorAccent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorTextMuted).
		BorderForeground(ColorAccent)

	l := list.New(items, delegate, width, max(height-2, 5))
	l.Title = "Select a dashboard"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = MutedStyle
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{pickerKeys.Enter, pickerKeys.Cancel}
	}

	for i, f := range files {
		if samePath(f.Path, currentPath) {
			l.Select(i)
			break
		}
	}
	return Picker{list: l}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// Update handles a message. When the picker finishes, Done reports true and
// Selected holds the choice, or nil when cancelled.
func (p Picker) Update(msg tea.Msg) (Picker, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && p.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(km, pickerKeys.Enter):
			if item, ok := p.list.SelectedItem().(dashboardItem); ok {
				p.selected = &item.file
			}
			p.done = true
			return p, nil
		case key.Matches(km, pickerKeys.Cancel):
			p.done = true
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// SetSize resizes the list.
func (p *Picker) SetSize(width, height int) {
	p.list.SetSize(width, max(height-2, 5))
}

func (p Picker) View() string { return p.list.View() }

// Done reports whether the user picked or cancelled.
func (p Picker) Done() bool { return p.done }

// Selected returns the chosen dashboard, or nil if cancelled.
func (p Picker) Selected() *grafana.DashboardFile { return p.selected }
