package discovery

import (
	"context"

	"github.com/logflow/procmine/pkg/eventlog"
)

// SelectionPolicy chooses one candidate among those produced by the
// thresholds of a sweep. Candidates arrive sorted by ascending threshold
// and there is always at least one.
type SelectionPolicy interface {
	Name() string
	Select(ctx context.Context, l *eventlog.Log, candidates []Candidate) (*Candidate, error)
}

// Scorer rates a candidate; higher is better. Conformance checking and
// other model quality measures live behind this interface.
type Scorer interface {
	Score(ctx context.Context, l *eventlog.Log, c Candidate) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, l *eventlog.Log, c Candidate) (float64, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, l *eventlog.Log, c Candidate) (float64, error) {
	return f(ctx, l, c)
}

// lowestThreshold prefers the least noise filtering.
type lowestThreshold struct{}

func (lowestThreshold) Name() string { return "lowest" }

func (lowestThreshold) Select(_ context.Context, _ *eventlog.Log, c []Candidate) (*Candidate, error) {
	return &c[0], nil
}

// highestThreshold prefers the most noise filtering.
type highestThreshold struct{}

func (highestThreshold) Name() string { return "highest" }

func (highestThreshold) Select(_ context.Context, _ *eventlog.Log, c []Candidate) (*Candidate, error) {
	return &c[len(c)-1], nil
}

// fewestDiscards prefers the split that keeps most events; ties go to the
// lower threshold.
type fewestDiscards struct{}

func (fewestDiscards) Name() string { return "fewest-discards" }

func (fewestDiscards) Select(_ context.Context, _ *eventlog.Log, c []Candidate) (*Candidate, error) {
	best := 0
	for i := 1; i < len(c); i++ {
		if c[i].Discards() < c[best].Discards() {
			best = i
		}
	}
	return &c[best], nil
}

// scored delegates to a Scorer; ties go to the lower threshold.
type scored struct {
	scorer Scorer
}

// ScoredPolicy selects the candidate the scorer rates highest.
func ScoredPolicy(s Scorer) SelectionPolicy {
	return scored{scorer: s}
}

func (scored) Name() string { return "scored" }

func (p scored) Select(ctx context.Context, l *eventlog.Log, c []Candidate) (*Candidate, error) {
	best, bestScore := -1, 0.0
	for i := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := p.scorer.Score(ctx, l, c[i])
		if err != nil {
			return nil, err
		}
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return &c[best], nil
}
