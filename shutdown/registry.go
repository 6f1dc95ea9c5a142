package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sdweb/core"
)

// Cleanup priorities used by the server. Lower runs first.
const (
	PriorityHTTPServer = 10 // stop accepting connections
	PriorityPipeline   = 20 // release the model backend
	PriorityTempFiles  = 30 // remove interrupted image writes
	PriorityLogger     = 90 // flush logs last
)

type cleanupEntry struct {
	name     string
	priority int
	seq      int // registration order, breaks priority ties
	fn       core.ShutdownFunc
}

// Registry holds cleanup functions and runs them once, in priority order.
type Registry struct {
	mu      sync.Mutex
	entries []cleanupEntry
	ran     bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fn under name. Registrations after Run are ignored.
func (r *Registry) Register(name string, priority int, fn core.ShutdownFunc) {
	if fn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ran {
		return
	}
	r.entries = append(r.entries, cleanupEntry{
		name:     name,
		priority: priority,
		seq:      len(r.entries),
		fn:       fn,
	})
}

// Run executes every cleanup function in order, continuing past failures,
// and returns one error per failed function prefixed with its name.
// Only the first call does anything.
func (r *Registry) Run(ctx context.Context) []error {
	r.mu.Lock()
	if r.ran {
		r.mu.Unlock()
		return nil
	}
	r.ran = true
	entries := r.sortedLocked()
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}

// Names lists registered cleanups in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.sortedLocked()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered cleanups.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sortedLocked() []cleanupEntry {
	sorted := append([]cleanupEntry(nil), r.entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].priority != sorted[j].priority {
			return sorted[i].priority < sorted[j].priority
		}
		return sorted[i].seq < sorted[j].seq
	})
	return sorted
}
