package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/store"
)

// StateMsg carries a coordinator snapshot into the program.
type StateMsg struct {
	State store.State
}

// actionDoneMsg reports the end of a user-triggered coordinator call.
type actionDoneMsg struct {
	action string
	err    error
}

// pickerLoadedMsg carries the dashboard directory listing.
type pickerLoadedMsg struct {
	files []grafana.DashboardFile
	err   error
}

// clockMsg re-renders relative times once a second.
type clockMsg time.Time

// SpinnerFrames are the loading indicator frames.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 10,
}

// Sender is the part of tea.Program the bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Subscriber is the observer registration of the coordinator.
type Subscriber interface {
	Subscribe(fn store.Listener) (unsubscribe func())
}

// Bridge forwards coordinator snapshots to a Bubble Tea program. Send is
// goroutine-safe, so the listener can run on whichever goroutine commits.
type Bridge struct {
	program Sender

	mu          sync.Mutex
	unsubscribe func()
}

// NewBridge creates a bridge that forwards to program.
func NewBridge(program Sender) *Bridge {
	return &Bridge{program: program}
}

// Attach subscribes to src. A previous subscription is dropped.
func (b *Bridge) Attach(src Subscriber) {
	b.Detach()
	unsub := src.Subscribe(b.OnState)
	b.mu.Lock()
	b.unsubscribe = unsub
	b.mu.Unlock()
}

// Detach stops forwarding.
func (b *Bridge) Detach() {
	b.mu.Lock()
	unsub := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// OnState forwards one snapshot.
func (b *Bridge) OnState(s store.State) {
	b.program.Send(StateMsg{State: s})
}
