package discovery

import (
	"context"

	"github.com/logflow/procmine/pkg/tree"
)

// emptyLog: a log without activities is a silent step.
type emptyLog struct{}

func (emptyLog) Name() string { return "empty-log" }

func (emptyLog) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	if len(in.Stats.Activities()) > 0 {
		return tree.NoNode, false, nil
	}
	id, err := in.Tau(ctx)
	return id, err == nil, err
}

// singleActivity: every trace is exactly <a>.
type singleActivity struct{}

func (singleActivity) Name() string { return "single-activity" }

func (singleActivity) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	s := in.Stats
	acts := s.Activities()
	if len(acts) != 1 || s.EmptyTraces > 0 || s.EventCount != s.TraceCount {
		return tree.NoNode, false, nil
	}
	id, err := in.Activity(ctx, acts[0])
	return id, err == nil, err
}

// selfLoop: one activity, no empty traces, repeated in some trace.
type selfLoop struct{}

func (selfLoop) Name() string { return "self-loop" }

func (selfLoop) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	s := in.Stats
	acts := s.Activities()
	if len(acts) != 1 || s.EmptyTraces > 0 || s.MaxPerTrace[acts[0]] < 2 {
		return tree.NoNode, false, nil
	}
	body, err := in.Activity(ctx, acts[0])
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

// emptyTraces: empty and non-empty traces mixed. Below the threshold the
// empty traces are noise and dropped; otherwise they make the behaviour
// optional.
type emptyTraces struct{}

func (emptyTraces) Name() string { return "empty-traces" }

func (emptyTraces) Find(ctx context.Context, in *Input) (tree.NodeID, bool, error) {
	s := in.Stats
	if s.EmptyTraces == 0 || s.EmptyTraces == s.TraceCount {
		return tree.NoNode, false, nil
	}
	rest := in.Log.WithoutEmpty()

	if float64(s.EmptyTraces) < in.State.Threshold()*float64(s.TraceCount) {
		id, err := in.Recurse(ctx, rest)
		return id, err == nil, err
	}

	skip, err := in.Tau(ctx)
	if err != nil {
		return tree.NoNode, false, err
	}
	child, err := in.Recurse(ctx, rest)
	if err != nil {
		return tree.NoNode, false, err
	}
	id, err := in.Append(ctx, tree.Node{Kind: tree.KindXor, Children: []tree.NodeID{skip, child}})
	return id, err == nil, err
}
