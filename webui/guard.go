package webui

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// BusyGuard admits one generation at a time. Acquisition never waits: a
// caller that finds the guard held is turned away.
type BusyGuard struct {
	sem  *semaphore.Weighted
	busy atomic.Bool
}

// NewBusyGuard returns an idle guard.
func NewBusyGuard() *BusyGuard {
	return &BusyGuard{sem: semaphore.NewWeighted(1)}
}

// TryAcquire marks the guard busy and returns true, or returns false when a
// generation is already running. Check and set happen atomically.
func (g *BusyGuard) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.busy.Store(true)
	return true
}

// Release clears the busy mark. It must follow a successful TryAcquire.
func (g *BusyGuard) Release() {
	g.busy.Store(false)
	g.sem.Release(1)
}

// Busy reports whether a generation is running.
func (g *BusyGuard) Busy() bool {
	return g.busy.Load()
}
