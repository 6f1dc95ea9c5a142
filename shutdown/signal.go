package shutdown

import (
	"os"
	"sync"
)

// SignalCounter counts termination signals. The first one starts a graceful
// shutdown; reaching forceAfter calls onForce.
type SignalCounter struct {
	mu         sync.Mutex
	count      int
	last       os.Signal
	forceAfter int
	onForce    func(os.Signal)
}

// NewSignalCounter returns a counter that calls onForce on the forceAfter-th
// signal. forceAfter below 2 is raised to 2 so the first signal is always
// graceful.
func NewSignalCounter(forceAfter int, onForce func(os.Signal)) *SignalCounter {
	if forceAfter < 2 {
		forceAfter = 2
	}
	return &SignalCounter{forceAfter: forceAfter, onForce: onForce}
}

// Observe records sig and reports whether it is the first one.
func (s *SignalCounter) Observe(sig os.Signal) (first bool) {
	s.mu.Lock()
	s.count++
	s.last = sig
	count, onForce := s.count, s.onForce
	s.mu.Unlock()

	if count == s.forceAfter && onForce != nil {
		onForce(sig)
	}
	return count == 1
}

// Count returns the number of signals observed.
func (s *SignalCounter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Last returns the most recent signal, or nil.
func (s *SignalCounter) Last() os.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
