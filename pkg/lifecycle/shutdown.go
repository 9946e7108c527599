// Package lifecycle runs cleanup steps in reverse registration order when a
// command finishes or is interrupted.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/errors"
)

// Closer is a resource released at shutdown.
type Closer interface {
	Close() error
}

// CloseFunc is a shutdown step.
type CloseFunc func(ctx context.Context) error

type step struct {
	name string
	fn   CloseFunc
}

// ShutdownManager collects shutdown steps and runs them once.
type ShutdownManager struct {
	mu      sync.Mutex
	steps   []step
	timeout time.Duration
	logger  *zap.Logger
	done    bool
}

// ShutdownConfig configures the shutdown manager.
type ShutdownConfig struct {
	// Timeout bounds all steps together.
	Timeout time.Duration
	Logger  *zap.Logger
}

// DefaultShutdownConfig returns sensible defaults.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{Timeout: 10 * time.Second}
}

// NewShutdownManager creates a new shutdown manager.
func NewShutdownManager(cfg ShutdownConfig) *ShutdownManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ShutdownManager{timeout: cfg.Timeout, logger: cfg.Logger}
}

// Register adds a named step. Steps registered after Shutdown are ignored.
func (m *ShutdownManager) Register(name string, fn CloseFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return
	}
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// RegisterCloser adds c as a step.
func (m *ShutdownManager) RegisterCloser(name string, c Closer) {
	m.Register(name, func(context.Context) error { return c.Close() })
}

// SetLogger replaces the logger used to report steps.
func (m *ShutdownManager) SetLogger(l *zap.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l != nil {
		m.logger = l
	}
}

// Len returns the number of pending steps.
func (m *ShutdownManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Shutdown runs the steps last-registered first. Every step runs even when
// an earlier one fails; the failures are returned together. ctx
// cancellation does not stop shutdown, only the timeout does.
func (m *ShutdownManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	steps := m.steps
	m.steps = nil
	logger := m.logger
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	var errs errors.MultiError
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		start := time.Now()
		if err := s.fn(ctx); err != nil {
			logger.Warn("shutdown step failed", zap.String("step", s.name), zap.Error(err))
			errs.Add(errors.Wrapf(err, errors.CodeUnknown, "shutdown %s", s.name))
			continue
		}
		logger.Debug("shutdown step done", zap.String("step", s.name), zap.Duration("took", time.Since(start)))
	}
	return errs.Combined()
}
