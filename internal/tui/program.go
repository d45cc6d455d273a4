package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Source is a Controller that also publishes snapshots.
type Source interface {
	Controller
	Subscriber
}

// Run shows the dashboard until the user quits. Snapshots from src reach
// the model through a Bridge for the lifetime of the program.
func Run(ctx context.Context, src Source, in io.Reader, out io.Writer, opts ...Option) error {
	model := NewModel(src, append([]Option{WithContext(ctx)}, opts...)...)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	bridge := NewBridge(p)
	bridge.Attach(src)
	defer bridge.Detach()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
