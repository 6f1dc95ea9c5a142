package shutdown

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrShuttingDown is returned for work submitted after shutdown began.
var ErrShuttingDown = errors.New("server is shutting down")

// Tracker counts in-flight operations by name and lets shutdown wait for
// them to drain.
type Tracker struct {
	mu      sync.Mutex
	active  map[string]int
	total   int
	closed  bool
	drained chan struct{} // closed when total drops to zero after Close
}

// NewTracker returns an open Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		active:  make(map[string]int),
		drained: make(chan struct{}),
	}
}

// Begin registers an operation. It returns false once the tracker is closed.
// Every successful Begin must be paired with End.
func (t *Tracker) Begin(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	t.active[name]++
	t.total++
	return true
}

// End marks an operation started with Begin as finished.
func (t *Tracker) End(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[name] <= 1 {
		delete(t.active, name)
	} else {
		t.active[name]--
	}
	if t.total > 0 {
		t.total--
	}
	if t.closed && t.total == 0 {
		t.closeDrainedLocked()
	}
}

// Close stops new operations from starting.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	if t.total == 0 {
		t.closeDrainedLocked()
	}
}

// Wait blocks until the tracker is closed and idle, or ctx ends.
func (t *Tracker) Wait(ctx context.Context) error {
	select {
	case <-t.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of running operations.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// ActiveNames lists the names of running operations, sorted.
func (t *Tracker) ActiveNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.active))
	for name := range t.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Closed reports whether Close was called.
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tracker) closeDrainedLocked() {
	select {
	case <-t.drained:
	default:
		close(t.drained)
	}
}
