package discovery

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/logstats"
)

// ControllerConfig configures an adaptive sweep.
type ControllerConfig struct {
	// Thresholds are the noise thresholds to sweep, each in [0, 1].
	// Duplicates are ignored.
	Thresholds []float64

	// Chains are shared by every threshold's State.
	Chains Chains

	// Policy picks among the candidates; lowest threshold if nil.
	Policy SelectionPolicy

	Debug  bool
	Logger *zap.Logger
}

// Controller mines with one State per threshold. At every recursive call
// the statistics are computed once, base cases and fall-throughs use the
// lowest threshold, and each threshold proposes a cut; the policy decides
// which one is applied. Every threshold's split discards are committed to
// its own State, applied or not.
type Controller struct {
	states     map[float64]*State
	thresholds []float64
	policy     SelectionPolicy
	builder    *Builder
}

// NewController builds the threshold map and the underlying builder.
func NewController(cfg ControllerConfig, opts ...Option) (*Controller, error) {
	if len(cfg.Thresholds) == 0 {
		return nil, errors.New(errors.CodeInvalidThreshold, "at least one threshold is required")
	}

	c := &Controller{
		states: make(map[float64]*State, len(cfg.Thresholds)),
		policy: cfg.Policy,
	}
	if c.policy == nil {
		c.policy = lowestThreshold{}
	}

	for _, t := range cfg.Thresholds {
		if _, dup := c.states[t]; dup {
			continue
		}
		st, err := NewState(t, cfg.Chains, cfg.Debug, cfg.Logger)
		if err != nil {
			return nil, err
		}
		c.states[t] = st
		c.thresholds = append(c.thresholds, t)
	}
	sort.Float64s(c.thresholds)

	states := make([]*State, len(c.thresholds))
	for i, t := range c.thresholds {
		states[i] = c.states[t]
	}
	c.builder = newBuilder(states[0], states, opts...)
	c.builder.propose = c.sweep
	return c, nil
}

// Thresholds returns the swept thresholds in ascending order.
func (c *Controller) Thresholds() []float64 {
	return append([]float64(nil), c.thresholds...)
}

// State returns the State of threshold t.
func (c *Controller) State(t float64) (*State, bool) {
	st, ok := c.states[t]
	return st, ok
}

// Policy returns the selection policy.
func (c *Controller) Policy() SelectionPolicy {
	return c.policy
}

// Discover mines l; see Builder.Discover.
func (c *Controller) Discover(ctx context.Context, l *eventlog.Log) (*Result, error) {
	return c.builder.Discover(ctx, l)
}

func (c *Controller) sweep(ctx context.Context, l *eventlog.Log, s *logstats.Snapshot) (*Candidate, error) {
	var candidates []Candidate
	for _, t := range c.thresholds {
		cand, err := propose(ctx, c.states[t], l, s)
		if err != nil {
			return nil, err
		}
		if cand != nil {
			candidates = append(candidates, *cand)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	chosen, err := c.policy.Select(ctx, l, candidates)
	if err != nil {
		return nil, err
	}
	thresholdSelections.WithLabelValues(c.policy.Name(), thresholdLabel(chosen.Threshold)).Inc()
	return chosen, nil
}
