package discovery

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/logstats"
	"github.com/logflow/procmine/pkg/tree"
)

// activityOncePerTrace: an activity that occurs exactly once in every
// trace is put in parallel with the rest of the log.
type activityOncePerTrace struct{}

func (activityOncePerTrace) Name() string { return "activity-once-per-trace" }

func (activityOncePerTrace) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	acts := in.Stats.Activities()
	if len(acts) < 2 {
		return tree.NoNode, false, nil
	}
	for _, a := range acts {
		if in.Stats.OncePerTrace(a) {
			return parallelWith(ctx, in, a)
		}
	}
	return tree.NoNode, false, nil
}

// activityConcurrent: an activity whose removal leaves a log with a cut
// is put in parallel with the rest. Activities that never share a trace
// with another one are not candidates. Candidates are checked
// concurrently; the first in activity order wins.
type activityConcurrent struct{}

func (activityConcurrent) Name() string { return "activity-concurrent" }

func (activityConcurrent) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	acts := in.Stats.Activities()
	if len(acts) < 2 {
		return tree.NoNode, false, nil
	}

	found := make([]bool, len(acts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, a := range acts {
		if !in.Stats.SharesTraces(a) {
			continue
		}
		g.Go(func() error {
			snap := logstats.Compute(in.Log.Without(a))
			cut, err := in.State.FindCut(gctx, snap)
			if err != nil {
				return err
			}
			found[i] = cut.Valid()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tree.NoNode, false, err
	}

	for i, ok := range found {
		if ok {
			return parallelWith(ctx, in, acts[i])
		}
	}
	return tree.NoNode, false, nil
}

// parallelWith appends +(a, mine(L - a)).
func parallelWith(ctx context.Context, in *Input, a string) (tree.NodeID, bool, error) {
	leaf, err := in.Activity(ctx, a)
	if err != nil {
		return tree.NoNode, false, err
	}
	rest, err := in.Recurse(ctx, in.Log.Without(a))
	if err != nil {
		return tree.NoNode, false, err
	}
	id, err := in.Append(ctx, tree.Node{Kind: tree.KindParallel, Children: []tree.NodeID{leaf, rest}})
	return id, err == nil, err
}

// strictTauLoop splits traces wherever an end activity is directly
// followed by a start activity and loops over the pieces.
type strictTauLoop struct{}

func (strictTauLoop) Name() string { return "strict-tau-loop" }

func (strictTauLoop) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	s := in.Stats
	return tauLoopOver(ctx, in, func(prev, cur string) bool {
		return s.IsEnd(prev) && s.IsStart(cur)
	})
}

// tauLoop splits traces at every start activity that is not at the
// beginning of the trace.
type tauLoop struct{}

func (tauLoop) Name() string { return "tau-loop" }

func (tauLoop) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	s := in.Stats
	return tauLoopOver(ctx, in, func(_, cur string) bool {
		return s.IsStart(cur)
	})
}

func tauLoopOver(ctx context.Context, in *Input, cutBefore func(prev, cur string) bool) (tree.NodeID, bool, error) {
	split := &eventlog.Log{Traces: make([]eventlog.Trace, 0, in.Log.Len())}
	changed := false
	for _, t := range in.Log.Traces {
		from := 0
		for i := 1; i < len(t); i++ {
			if cutBefore(t[i-1], t[i]) {
				split.Traces = append(split.Traces, append(eventlog.Trace(nil), t[from:i]...))
				from = i
				changed = true
			}
		}
		split.Traces = append(split.Traces, append(eventlog.Trace(nil), t[from:]...))
	}
	if !changed {
		return tree.NoNode, false, nil
	}

	body, err := in.Recurse(ctx, split)
	if err != nil {
		return tree.NoNode, false, err
	}
	redo, err := in.Tau(ctx)
	if err != nil {
		return tree.NoNode, false, err
	}
	id, err := in.Loop(ctx, body, redo)
	return id, err == nil, err
}

// flower allows every activity in any order: *(X(a1, ..., an), tau, tau).
// It always applies.
type flower struct{}

func (flower) Name() string { return "flower" }

func (flower) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	id, err := flowerModel(ctx, in)
	return id, err == nil, err
}

func flowerModel(ctx context.Context, in *Input) (tree.NodeID, error) {
	acts := in.Stats.Activities()
	if len(acts) == 0 {
		return in.Tau(ctx)
	}

	leaves := make([]tree.NodeID, 0, len(acts))
	for _, a := range acts {
		id, err := in.Activity(ctx, a)
		if err != nil {
			return tree.NoNode, err
		}
		leaves = append(leaves, id)
	}
	body := leaves[0]
	if len(leaves) > 1 {
		var err error
		body, err = in.Append(ctx, tree.Node{Kind: tree.KindXor, Children: leaves})
		if err != nil {
			return tree.NoNode, err
		}
	}
	redo, err := in.Tau(ctx)
	if err != nil {
		return tree.NoNode, err
	}
	return in.Loop(ctx, body, redo)
}
