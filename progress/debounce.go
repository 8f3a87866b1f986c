package progress

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

type debounced struct {
	next     Observer
	debounce func(func())

	mu      sync.Mutex
	pending *Event
}

// Debounced coalesces bursts of running updates so that only the latest one
// reaches next once wait has passed without another. Every other event is
// delivered at once and discards a pending update, which would be stale.
func Debounced(next Observer, wait time.Duration) Observer {
	return &debounced{next: next, debounce: debounce.New(wait)}
}

func (d *debounced) Observe(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e.Status == Running {
		d.pending = &e
		d.debounce(d.flush)
		return
	}
	d.pending = nil
	d.next.Observe(e)
}

func (d *debounced) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.next.Observe(*d.pending)
		d.pending = nil
	}
}
