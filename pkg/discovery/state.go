package discovery

import (
	"sync"

	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/errors"
)

// DiscardedEvent is an event dropped while splitting a log.
type DiscardedEvent struct {
	// Activity is the label of the dropped event
	Activity string

	// Trace and Position locate the event in the log that was split
	Trace    int
	Position int
}

// State is the per-threshold miner configuration plus the discard
// accumulator. The chains are read-only once the State is built; the
// accumulator is append-only and safe for concurrent use.
type State struct {
	threshold float64
	chains    Chains
	debug     bool
	logger    *zap.Logger

	mu        sync.Mutex
	discarded []DiscardedEvent
}

// NewState validates the threshold and chains and builds a State.
// A nil logger disables logging.
func NewState(threshold float64, chains Chains, debug bool, logger *zap.Logger) (*State, error) {
	if threshold < 0 || threshold > 1 || threshold != threshold {
		return nil, errors.New(errors.CodeInvalidThreshold, "threshold must be within [0, 1]").
			WithContext("threshold", threshold)
	}
	if err := chains.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		threshold: threshold,
		chains:    chains,
		debug:     debug,
		logger:    logger.With(zap.Float64("threshold", threshold)),
	}, nil
}

// Threshold returns the noise threshold.
func (s *State) Threshold() float64 {
	return s.threshold
}

// Chains returns the strategy chains.
func (s *State) Chains() Chains {
	return s.chains
}

// Debug reports whether recursion tracing is on.
func (s *State) Debug() bool {
	return s.debug
}

// AddDiscards appends to the accumulator.
func (s *State) AddDiscards(events []DiscardedEvent) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	s.discarded = append(s.discarded, events...)
	s.mu.Unlock()
	discardedEvents.WithLabelValues(thresholdLabel(s.threshold)).Add(float64(len(events)))
}

// Discarded returns a copy of every event discarded so far.
func (s *State) Discarded() []DiscardedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DiscardedEvent(nil), s.discarded...)
}

// DiscardCount returns the number of events discarded so far.
func (s *State) DiscardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.discarded)
}

// trace logs recursion details when debug is on.
func (s *State) trace(msg string, fields ...zap.Field) {
	if s.debug {
		s.logger.Debug(msg, fields...)
	}
}
