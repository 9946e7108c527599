package discovery

import (
	"context"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/logstats"
	"github.com/logflow/procmine/pkg/tree"
)

// BaseCaseFinder decides trivial logs without a cut.
type BaseCaseFinder interface {
	Name() string
	Find(ctx context.Context, in *Input) (tree.NodeID, bool, error)
}

// CutFinder searches the statistics for a cut of one operator.
// Finders return NoCut when nothing applies; errors are reserved for
// cancellation.
type CutFinder interface {
	Name() string
	Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error)
}

// Splitter projects a log onto the groups of a cut.
type Splitter interface {
	Name() string
	Split(ctx context.Context, l *eventlog.Log, s *logstats.Snapshot, cut Cut, st *State) (*SplitResult, error)
}

// FallThrough produces a node when no cut exists.
type FallThrough interface {
	Name() string
	Find(ctx context.Context, in *Input) (tree.NodeID, bool, error)
}

// PostProcessor rewrites a node before it is appended to the tree.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, n tree.Node, in *Input) (tree.Node, error)
}

// SplitResult holds the sub-logs in group order and the dropped events.
// For loop cuts Sublogs[0] is the body.
type SplitResult struct {
	Sublogs   []*eventlog.Log
	Discarded []DiscardedEvent
}

// Chains are the ordered strategy lists of a State. Order matters: the
// first strategy that applies wins.
type Chains struct {
	BaseCases      []BaseCaseFinder
	Cuts           []CutFinder
	Splitter       Splitter
	FallThroughs   []FallThrough
	PostProcessors []PostProcessor
}

func (c Chains) validate() error {
	if c.Splitter == nil {
		return errors.New(errors.CodeEmptyChain, "no splitter configured")
	}
	if len(c.FallThroughs) == 0 {
		return errors.New(errors.CodeEmptyChain, "fall-through chain is empty")
	}
	return nil
}

// DefaultChains returns the IMf chains.
func DefaultChains() Chains {
	return Chains{
		BaseCases: []BaseCaseFinder{
			emptyLog{}, singleActivity{}, selfLoop{}, emptyTraces{},
		},
		Cuts: []CutFinder{
			sequenceCut{}, xorCut{}, parallelCut{}, loopCut{}, interleavedCut{}, maybeInterleavedCut{},
		},
		Splitter: imfSplitter{},
		FallThroughs: []FallThrough{
			activityOncePerTrace{}, activityConcurrent{}, strictTauLoop{}, tauLoop{}, flower{},
		},
	}
}

// FindCut runs the cut chain. With a positive threshold the chain first
// runs on the noise-filtered statistics and falls back to the raw ones.
// A cut only counts if it partitions the activities of the statistics
// its finder saw.
func (s *State) FindCut(ctx context.Context, snap *logstats.Snapshot) (Cut, error) {
	if s.threshold > 0 {
		cut, err := s.runCuts(ctx, snap.Filter(s.threshold))
		if err != nil || cut.Valid() {
			return cut, err
		}
	}
	return s.runCuts(ctx, snap)
}

func (s *State) runCuts(ctx context.Context, snap *logstats.Snapshot) (Cut, error) {
	for _, f := range s.chains.Cuts {
		if err := ctx.Err(); err != nil {
			return NoCut, err
		}
		cut, err := f.Find(ctx, snap, s)
		if err != nil {
			return NoCut, err
		}
		if cut.Valid() && cut.Covers(snap.Activities()) {
			return cut, nil
		}
	}
	return NoCut, nil
}

// Input is what base cases, fall-throughs and post-processors see of the
// current recursive call.
type Input struct {
	Log   *eventlog.Log
	Stats *logstats.Snapshot
	State *State
	Depth int

	run *run
}

// Tree returns the tree under construction.
func (in *Input) Tree() *tree.Tree {
	return in.run.tree
}

// Recurse mines l as a child of the current call.
func (in *Input) Recurse(ctx context.Context, l *eventlog.Log) (tree.NodeID, error) {
	return in.run.mine(ctx, l, in.Depth+1)
}

// Append post-processes n and adds it to the tree.
func (in *Input) Append(ctx context.Context, n tree.Node) (tree.NodeID, error) {
	return in.run.appendNode(ctx, n, in)
}

// Activity appends an activity leaf.
func (in *Input) Activity(ctx context.Context, label string) (tree.NodeID, error) {
	return in.Append(ctx, tree.Node{Kind: tree.KindActivity, Label: label})
}

// Tau appends a silent leaf.
func (in *Input) Tau(ctx context.Context) (tree.NodeID, error) {
	return in.Append(ctx, tree.Node{Kind: tree.KindTau})
}

// Loop appends *(body, redo, tau).
func (in *Input) Loop(ctx context.Context, body, redo tree.NodeID) (tree.NodeID, error) {
	exit, err := in.Tau(ctx)
	if err != nil {
		return tree.NoNode, err
	}
	return in.Append(ctx, tree.Node{Kind: tree.KindLoop, Children: []tree.NodeID{body, redo, exit}})
}
