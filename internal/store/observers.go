package store

import "sync"

// Listener receives a snapshot after each committed state change. Listeners
// run synchronously on the committing goroutine, in registration order, and
// must not call the coordinator's mutating methods directly; hand off to
// another goroutine instead.
type Listener func(State)

type observer struct {
	id uint64
	fn Listener
}

// Subscribe registers fn and returns a function that removes it. The
// returned function is safe to call more than once.
func (c *Coordinator) Subscribe(fn Listener) (unsubscribe func()) {
	c.obsMu.Lock()
	c.nextObsID++
	id := c.nextObsID
	c.observers = append(c.observers, observer{id: id, fn: fn})
	c.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.obsMu.Lock()
			defer c.obsMu.Unlock()
			for i, o := range c.observers {
				if o.id == id {
					c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// notify delivers the current snapshot to every listener.
func (c *Coordinator) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.obsMu.Lock()
	observers := make([]observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.Unlock()
	if len(observers) == 0 {
		return
	}

	state := c.Snapshot()
	for _, o := range observers {
		o.fn(state)
	}
}
