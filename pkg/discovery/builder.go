package discovery

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/hooks"
	"github.com/logflow/procmine/pkg/logstats"
	"github.com/logflow/procmine/pkg/tree"
)

const tracerName = "github.com/logflow/procmine/pkg/discovery"

// Candidate is a cut proposed for a log together with its split.
type Candidate struct {
	State     *State
	Threshold float64
	Cut       Cut
	Split     *SplitResult
}

// Discards returns the number of events the candidate's split drops.
func (c Candidate) Discards() int {
	return len(c.Split.Discarded)
}

// Result is the outcome of a discovery run. A cancelled run has no tree.
type Result struct {
	Tree      *tree.Tree
	Root      tree.NodeID
	Cancelled bool

	// Discarded counts the events each threshold's State discarded
	// during this run.
	Discarded map[float64]int

	Duration time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithParallelism mines sibling sub-logs on up to n goroutines.
func WithParallelism(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.parallelism = n
		}
	}
}

// WithHooks attaches a hook manager.
func WithHooks(h *hooks.HookManager) Option {
	return func(b *Builder) {
		b.hooks = h
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(b *Builder) {
		b.tracer = t
	}
}

// proposeFunc returns the cut to apply to a log, or nil.
type proposeFunc func(ctx context.Context, l *eventlog.Log, s *logstats.Snapshot) (*Candidate, error)

// Builder mines process trees with a single State.
//
// Each recursive call runs base cases, then cut search and split, then
// fall-throughs. Children are mined before their parent is appended, so
// the tree never holds a node with missing children. A Builder is safe to
// reuse but runs sharing a State should not overlap, since the discard
// counts reported per run are taken from the State's accumulator.
type Builder struct {
	base        *State
	states      []*State
	propose     proposeFunc
	parallelism int
	hooks       *hooks.HookManager
	tracer      trace.Tracer
}

// NewBuilder creates a builder for st.
func NewBuilder(st *State, opts ...Option) *Builder {
	b := newBuilder(st, []*State{st}, opts...)
	b.propose = func(ctx context.Context, l *eventlog.Log, s *logstats.Snapshot) (*Candidate, error) {
		return propose(ctx, st, l, s)
	}
	return b
}

func newBuilder(base *State, states []*State, opts ...Option) *Builder {
	b := &Builder{
		base:        base,
		states:      states,
		parallelism: 1,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// propose runs cut search and split for one State and commits the split's
// discards to it, whether or not the candidate is applied.
func propose(ctx context.Context, st *State, l *eventlog.Log, s *logstats.Snapshot) (*Candidate, error) {
	cut, err := st.FindCut(ctx, s)
	if err != nil || !cut.Valid() {
		return nil, err
	}
	split, err := st.chains.Splitter.Split(ctx, l, s, cut, st)
	if err != nil {
		if ctx.Err() != nil || errors.IsFatal(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CodeSplitFailed, "split failed").
			WithContext("cut", cut.String())
	}
	if len(split.Sublogs) != len(cut.Groups) {
		return nil, errors.New(errors.CodeSplitFailed, "splitter returned wrong number of sub-logs").
			WithContext("cut", cut.String()).
			WithContext("sublogs", len(split.Sublogs))
	}
	st.AddDiscards(split.Discarded)
	return &Candidate{State: st, Threshold: st.threshold, Cut: cut, Split: split}, nil
}

// Discover mines l. Cancellation is not an error: the result comes back
// with Cancelled set and no tree. A context that is already cancelled
// leaves every State untouched.
func (b *Builder) Discover(ctx context.Context, l *eventlog.Log) (*Result, error) {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "discovery.Discover", trace.WithAttributes(
		attribute.Int("log.traces", l.Len()),
		attribute.Int("log.events", l.EventCount()),
		attribute.Int("parallelism", b.parallelism),
	))
	defer span.End()

	res := &Result{Root: tree.NoNode, Discarded: make(map[float64]int, len(b.states))}
	if ctx.Err() != nil {
		res.Cancelled = true
		discoveryRuns.WithLabelValues("cancelled").Inc()
		return res, nil
	}

	before := make([]int, len(b.states))
	for i, st := range b.states {
		before[i] = st.DiscardCount()
	}

	r := &run{b: b, tree: tree.New()}
	root, err := r.mine(ctx, l, 0)

	for i, st := range b.states {
		res.Discarded[st.threshold] = st.DiscardCount() - before[i]
	}
	res.Duration = time.Since(start)
	discoveryDuration.Observe(res.Duration.Seconds())

	switch {
	case err != nil && ctx.Err() != nil && isCancellation(err):
		res.Cancelled = true
		discoveryRuns.WithLabelValues("cancelled").Inc()
		span.SetAttributes(attribute.Bool("cancelled", true))
	case err != nil:
		discoveryRuns.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.base.logger.Error("discovery failed", zap.Error(err))
		if b.hooks != nil {
			if hookErr := b.hooks.RunError(ctx, err, "discover"); hookErr != nil {
				return nil, hookErr
			}
		}
		return nil, err
	default:
		if err := r.tree.SetRoot(root); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidTree, "setting root")
		}
		res.Tree = r.tree
		res.Root = root
		discoveryRuns.WithLabelValues("ok").Inc()
		span.SetAttributes(attribute.Int("tree.nodes", r.tree.Stats().Nodes))
	}

	if b.hooks != nil {
		info := &hooks.RunInfo{
			Root:      res.Root,
			Cancelled: res.Cancelled,
			Discarded: res.Discarded,
			Duration:  res.Duration.Nanoseconds(),
		}
		if res.Tree != nil {
			info.Nodes = res.Tree.Stats().Nodes
		}
		if err := b.hooks.RunDone(ctx, info); err != nil {
			return res, err
		}
	}
	return res, nil
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// run is the per-Discover recursion state.
type run struct {
	b    *Builder
	tree *tree.Tree
}

func (r *run) mine(ctx context.Context, l *eventlog.Log, depth int) (tree.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return tree.NoNode, err
	}
	s := logstats.Compute(l)
	st := r.b.base
	st.trace("mine",
		zap.Int("depth", depth),
		zap.Int("traces", s.TraceCount),
		zap.Strings("activities", s.Activities()))

	if r.b.hooks != nil {
		err := r.b.hooks.RunPreMine(ctx, &hooks.MineInfo{
			Depth:      depth,
			Traces:     s.TraceCount,
			Events:     s.EventCount,
			Activities: s.Activities(),
		})
		if err != nil {
			return tree.NoNode, err
		}
	}

	in := &Input{Log: l, Stats: s, State: st, Depth: depth, run: r}

	for _, f := range st.chains.BaseCases {
		if err := ctx.Err(); err != nil {
			return tree.NoNode, err
		}
		id, ok, err := f.Find(ctx, in)
		if err != nil {
			return tree.NoNode, err
		}
		if ok {
			strategyHits.WithLabelValues("base-case", f.Name()).Inc()
			return id, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return tree.NoNode, err
	}
	cand, err := r.b.propose(ctx, l, s)
	if err != nil {
		return tree.NoNode, err
	}
	if cand != nil {
		return r.compose(ctx, cand, l, s, depth)
	}

	for _, f := range st.chains.FallThroughs {
		if err := ctx.Err(); err != nil {
			return tree.NoNode, err
		}
		id, ok, err := f.Find(ctx, in)
		if err != nil {
			return tree.NoNode, err
		}
		if ok {
			strategyHits.WithLabelValues("fall-through", f.Name()).Inc()
			st.trace("fall-through", zap.String("name", f.Name()), zap.Int("depth", depth))
			return id, nil
		}
	}
	// configured chain without a catch-all
	return flowerModel(ctx, in)
}

// compose mines the candidate's sub-logs and appends the operator node over
// them.
func (r *run) compose(ctx context.Context, c *Candidate, l *eventlog.Log, s *logstats.Snapshot, depth int) (tree.NodeID, error) {
	kind, ok := c.Cut.Operator.Kind()
	if !ok {
		return tree.NoNode, errors.UnknownOperator(c.Cut.Operator)
	}

	cutsChosen.WithLabelValues(c.Cut.Operator.String()).Inc()
	c.State.trace("chosen cut",
		zap.Int("depth", depth),
		zap.Stringer("cut", c.Cut),
		zap.Int("discarded", c.Discards()))

	if r.b.hooks != nil {
		err := r.b.hooks.RunCut(ctx, &hooks.CutInfo{
			Depth:     depth,
			Operator:  c.Cut.Operator.String(),
			Groups:    c.Cut.Groups,
			Threshold: c.Threshold,
			Discarded: c.Discards(),
		})
		if err != nil {
			return tree.NoNode, err
		}
	}

	children, err := r.mineChildren(ctx, c.Split.Sublogs, depth+1)
	if err != nil {
		return tree.NoNode, err
	}
	if err := ctx.Err(); err != nil {
		return tree.NoNode, err
	}

	in := &Input{Log: l, Stats: s, State: c.State, Depth: depth, run: r}
	if kind != tree.KindLoop {
		return in.Append(ctx, tree.Node{Kind: kind, Children: children})
	}

	redo := children[1]
	if len(children) > 2 {
		redo, err = in.Append(ctx, tree.Node{Kind: tree.KindXor, Children: children[1:]})
		if err != nil {
			return tree.NoNode, err
		}
	}
	return in.Loop(ctx, children[0], redo)
}

// mineChildren mines sub-logs in order, concurrently when parallelism
// allows. Results keep sibling order.
func (r *run) mineChildren(ctx context.Context, logs []*eventlog.Log, depth int) ([]tree.NodeID, error) {
	ids := make([]tree.NodeID, len(logs))
	if r.b.parallelism <= 1 || len(logs) < 2 {
		for i, sub := range logs {
			id, err := r.mine(ctx, sub, depth)
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
		return ids, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.b.parallelism)
	for i, sub := range logs {
		g.Go(func() error {
			id, err := r.mine(gctx, sub, depth)
			ids[i] = id
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *run) appendNode(ctx context.Context, n tree.Node, in *Input) (tree.NodeID, error) {
	var err error
	for _, p := range in.State.chains.PostProcessors {
		n, err = p.Process(ctx, n, in)
		if err != nil {
			return tree.NoNode, err
		}
	}
	if r.b.hooks != nil {
		n, err = r.b.hooks.RunNode(ctx, n)
		if err != nil {
			return tree.NoNode, err
		}
	}
	if err := ctx.Err(); err != nil {
		return tree.NoNode, err
	}
	id, err := r.tree.Append(n)
	if err != nil {
		return tree.NoNode, errors.Wrap(err, errors.CodeInvalidTree, "appending node").
			WithContext("kind", n.Kind.String())
	}
	in.State.trace("discovered node",
		zap.Int("depth", in.Depth),
		zap.Int32("id", int32(id)),
		zap.Stringer("kind", n.Kind),
		zap.String("label", n.Label))
	return id, nil
}
