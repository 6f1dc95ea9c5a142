// Package shutdown coordinates graceful termination: signal handling,
// draining in-flight generations and ordered cleanup.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sdweb/core"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 30 * time.Second

// Manager composes a Tracker, a Registry and a SignalCounter.
//
// Usage:
//
//	manager := shutdown.NewManager(logger, shutdown.WithTimeout(cfg.ShutdownTimeout))
//	manager.Register("http-server", shutdown.PriorityHTTPServer, shutdown.HTTPServer(srv))
//	manager.Register("pipeline", shutdown.PriorityPipeline, shutdown.Closer(pipeline))
//	manager.Start()
//
//	manager.Wait()
//	err := manager.Shutdown()
type Manager struct {
	logger   *zap.Logger
	timeout  time.Duration
	exit     func(code int)
	watching []os.Signal

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *Tracker
	registry *Registry
	signals  *SignalCounter

	mu       sync.Mutex
	started  bool
	shutdown bool
	sigChan  chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the bound on draining plus cleanup. Non-positive values
// keep the default.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithExitFunc replaces os.Exit for the forced exit on a second signal.
func WithExitFunc(exit func(code int)) ManagerOption {
	return func(m *Manager) {
		m.exit = exit
	}
}

// WithSignals replaces the watched signals (SIGINT and SIGTERM by default).
func WithSignals(sigs ...os.Signal) ManagerOption {
	return func(m *Manager) {
		m.watching = sigs
	}
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger.Named("shutdown"),
		timeout:  DefaultTimeout,
		exit:     os.Exit,
		watching: []os.Signal{os.Interrupt, syscall.SIGTERM},
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewTracker(),
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 2),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func(sig os.Signal) {
		m.logger.Warn("Received second signal, forcing exit", zap.String("signal", sig.String()))
		m.exit(exitCodeForSignal(sig))
	})
	return m
}

// Context is cancelled when shutdown is triggered.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priority runs first; see the
// Priority constants.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start begins watching for signals. Subsequent calls are no-ops.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, m.watching...)
	go func() {
		for sig := range m.sigChan {
			if m.signals.Observe(sig) {
				m.logger.Info("Received shutdown signal, initiating graceful shutdown",
					zap.String("signal", sig.String()),
				)
				m.cancel()
			}
		}
	}()
}

// Trigger starts shutdown without a signal, e.g. from a service manager.
func (m *Manager) Trigger() {
	m.cancel()
}

// Wait blocks until shutdown is triggered.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}

// Shutdown rejects new operations, waits for in-flight ones within the
// timeout, then runs cleanups with whatever time is left (at least one
// second). Only the first call does anything.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	m.cancel()
	start := time.Now()
	deadline := start.Add(m.timeout)

	m.tracker.Close()
	if active := m.tracker.Active(); active > 0 {
		m.logger.Info("Waiting for in-flight generations",
			zap.Int("active", active),
			zap.Strings("operations", m.tracker.ActiveNames()),
		)
	}

	waitCtx, cancelWait := context.WithDeadline(context.Background(), deadline)
	if err := m.tracker.Wait(waitCtx); err != nil {
		m.logger.Warn("Timed out waiting for in-flight generations",
			zap.Duration("waited", time.Since(start)),
			zap.Int("remaining", m.tracker.Active()),
		)
	}
	cancelWait()

	remaining := time.Until(deadline)
	if remaining < time.Second {
		remaining = time.Second
	}
	cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), remaining)
	defer cancelCleanup()

	m.logger.Info("Running cleanup", zap.Strings("handlers", m.registry.Names()))
	errs := m.registry.Run(cleanupCtx)
	for _, err := range errs {
		m.logger.Error("Cleanup failed", zap.Error(err))
	}

	if started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %d cleanup errors: %w", len(errs), errors.Join(errs...))
	}
	m.logger.Info("Graceful shutdown completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// WrapOperation runs fn as a tracked operation. Once shutdown has been
// triggered it returns ErrShuttingDown without calling fn. A running
// operation is not cancelled by shutdown; it is waited for.
func (m *Manager) WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	if m.ctx.Err() != nil || !m.tracker.Begin(name) {
		m.logger.Debug("Operation rejected, shutting down", zap.String("operation", name))
		return ErrShuttingDown
	}
	defer m.tracker.End(name)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// ActiveOperations returns the number of operations in flight.
func (m *Manager) ActiveOperations() int {
	return m.tracker.Active()
}

// IsShuttingDown reports whether shutdown has been triggered.
func (m *Manager) IsShuttingDown() bool {
	return m.ctx.Err() != nil
}

// RegisteredHandlers lists cleanup names in execution order.
func (m *Manager) RegisteredHandlers() []string {
	return m.registry.Names()
}

func exitCodeForSignal(sig os.Signal) int {
	if sig == syscall.SIGTERM {
		return core.ExitCodeSIGTERM
	}
	return core.ExitCodeSIGINT
}
