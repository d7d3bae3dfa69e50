// Package render contains the renderers of the simulated backplane.
//
// The scheduler calls Update once per iteration on its own goroutine.
// Renderers that draw or read input on other goroutines share state with the
// scheduler only through a Queue: the latest snapshot goes one way, toggles go
// the other way. The register itself never leaves the scheduler goroutine.
package render

import (
	"sync"

	"mesa/pkg/cycle"
	"mesa/pkg/panel"
	"mesa/pkg/port"
)

// Queue hands toggles from input goroutines to the scheduler and the latest
// snapshot back. Its zero value is not usable, use NewQueue.
type Queue struct {
	mu      sync.Mutex
	toggles []port.Toggle
	snap    port.Snapshot
	frames  uint64
	closed  bool

	// backplane is latched with every snapshot, if set
	backplane *panel.Backplane
}

// NewQueue returns an open queue holding the power-on snapshot.
func NewQueue() *Queue {
	return &Queue{snap: port.NewRegister().Snapshot()}
}

// Attach makes Update latch every snapshot into the panels of b, so panels
// with memory see every cycle and not only the ones that get drawn.
func (q *Queue) Attach(b *panel.Backplane) {
	q.mu.Lock()
	q.backplane = b
	q.mu.Unlock()
}

// Push queues a toggle. Toggles pushed after Close are dropped.
func (q *Queue) Push(t port.Toggle) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.toggles = append(q.toggles, t)
}

// Close marks the host as torn down, the next Update returns cycle.ErrTeardown.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Snapshot returns the snapshot of the latest Update.
func (q *Queue) Snapshot() port.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snap
}

// Frames returns the number of Update calls so far.
func (q *Queue) Frames() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frames
}

// Pending returns the number of queued toggles.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toggles)
}

// Update implements cycle.Renderer. It latches s into the attached
// backplane, stores s and returns the oldest queued toggle.
func (q *Queue) Update(s port.Snapshot) (port.Toggle, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return port.Toggle{}, false, cycle.ErrTeardown
	}

	if q.backplane != nil {
		q.backplane.Latch(s)
	}
	q.snap = s
	q.frames++
	if len(q.toggles) == 0 {
		return port.Toggle{}, false, nil
	}

	t := q.toggles[0]
	q.toggles = q.toggles[1:]
	return t, true, nil
}
