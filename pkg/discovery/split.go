package discovery

import (
	"context"

	"github.com/logflow/procmine/internal/pool"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/logstats"
)

var scratch = pool.NewLabelPool()

// imfSplitter splits logs the IMf way: events that do not fit the cut
// are discarded instead of failing the split.
type imfSplitter struct{}

func (imfSplitter) Name() string { return "imf" }

func (imfSplitter) Split(ctx context.Context, l *eventlog.Log, s *logstats.Snapshot, cut Cut, st *State) (*SplitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sp := &splitter{
		group: cut.GroupOf(),
		res:   &SplitResult{Sublogs: make([]*eventlog.Log, len(cut.Groups))},
	}
	for i := range sp.res.Sublogs {
		sp.res.Sublogs[i] = &eventlog.Log{}
	}

	for ti, t := range l.Traces {
		if ti%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		switch cut.Operator {
		case OpXor:
			sp.xor(ti, t)
		case OpSequence:
			sp.sequence(ti, t, len(cut.Groups))
		case OpParallel, OpInterleaved, OpMaybeInterleaved:
			sp.project(ti, t)
		case OpLoop:
			sp.loop(ti, t, st.Threshold() > 0)
		default:
			return nil, errors.UnknownOperator(cut.Operator)
		}
	}
	return sp.res, nil
}

type splitter struct {
	group map[string]int
	res   *SplitResult
}

func (sp *splitter) of(a string) int {
	if g, ok := sp.group[a]; ok {
		return g
	}
	return -1
}

func (sp *splitter) discard(ti, pos int, a string) {
	sp.res.Discarded = append(sp.res.Discarded, DiscardedEvent{Activity: a, Trace: ti, Position: pos})
}

func (sp *splitter) emit(g int, t eventlog.Trace) {
	sp.res.Sublogs[g].Traces = append(sp.res.Sublogs[g].Traces, t)
}

// xor sends the trace to the group holding most of its events.
func (sp *splitter) xor(ti int, t eventlog.Trace) {
	counts := make([]int, len(sp.res.Sublogs))
	for _, a := range t {
		if g := sp.of(a); g >= 0 {
			counts[g]++
		}
	}
	best := 0
	for g, c := range counts {
		if c > counts[best] {
			best = g
		}
	}

	buf := scratch.Get()
	defer scratch.Put(buf)
	for pos, a := range t {
		if sp.of(a) == best {
			buf.Items = append(buf.Items, a)
		} else {
			sp.discard(ti, pos, a)
		}
	}
	sp.emit(best, buf.Copy())
}

// sequence cuts the trace into consecutive pieces, one per group. For each
// group but the last, the split point minimises the events that end up on
// the wrong side of it.
func (sp *splitter) sequence(ti int, t eventlog.Trace, groups int) {
	start := 0
	for g := 0; g < groups; g++ {
		end := len(t)
		if g < groups-1 {
			end = sp.splitPoint(t, start, g)
		}
		buf := scratch.Get()
		for pos := start; pos < end; pos++ {
			if sp.of(t[pos]) == g {
				buf.Items = append(buf.Items, t[pos])
			} else {
				sp.discard(ti, pos, t[pos])
			}
		}
		sp.emit(g, buf.Copy())
		scratch.Put(buf)
		start = end
	}
}

// splitPoint returns the smallest e in [start, len(t)] minimising
// non-members of g in [start, e) plus members of g in [e, len(t)).
func (sp *splitter) splitPoint(t eventlog.Trace, start, g int) int {
	after := 0
	for pos := start; pos < len(t); pos++ {
		if sp.of(t[pos]) == g {
			after++
		}
	}
	best, bestCost := start, after
	before := 0
	for e := start + 1; e <= len(t); e++ {
		if sp.of(t[e-1]) == g {
			after--
		} else {
			before++
		}
		if cost := before + after; cost < bestCost {
			best, bestCost = e, cost
		}
	}
	return best
}

// project gives every group the subsequence of its own events.
func (sp *splitter) project(ti int, t eventlog.Trace) {
	bufs := make([]*pool.Labels, len(sp.res.Sublogs))
	for g := range bufs {
		bufs[g] = scratch.Get()
	}
	for pos, a := range t {
		if g := sp.of(a); g >= 0 {
			bufs[g].Items = append(bufs[g].Items, a)
		} else {
			sp.discard(ti, pos, a)
		}
	}
	for g, b := range bufs {
		sp.emit(g, b.Copy())
		scratch.Put(b)
	}
}

// loop cuts the trace into maximal runs of one group. Body runs go to
// sub-log 0 and redo runs to their group. The loop alternates body and
// redo, so an empty body trace stands in wherever a redo run is not
// surrounded by body runs. With noise filtering on, leading and trailing
// redo runs are discarded instead.
func (sp *splitter) loop(ti int, t eventlog.Trace, noisy bool) {
	type segment struct {
		group int
		items []string
		pos   []int
	}
	var runs []segment
	for pos, a := range t {
		g := sp.of(a)
		if g < 0 {
			sp.discard(ti, pos, a)
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].group == g {
			runs[n-1].items = append(runs[n-1].items, a)
			runs[n-1].pos = append(runs[n-1].pos, pos)
			continue
		}
		runs = append(runs, segment{group: g, items: []string{a}, pos: []int{pos}})
	}
	if len(runs) == 0 {
		sp.emit(0, eventlog.Trace{})
		return
	}

	first, last := 0, len(runs)-1
	if noisy {
		for first <= last && runs[first].group != 0 {
			for i, a := range runs[first].items {
				sp.discard(ti, runs[first].pos[i], a)
			}
			first++
		}
		for last >= first && runs[last].group != 0 {
			for i, a := range runs[last].items {
				sp.discard(ti, runs[last].pos[i], a)
			}
			last--
		}
		if first > last {
			sp.emit(0, eventlog.Trace{})
			return
		}
	}

	prevRedo := true // a leading redo run needs an empty body before it
	for _, r := range runs[first : last+1] {
		if r.group == 0 {
			sp.emit(0, eventlog.Trace(r.items))
			prevRedo = false
			continue
		}
		if prevRedo {
			sp.emit(0, eventlog.Trace{})
		}
		sp.emit(r.group, eventlog.Trace(r.items))
		prevRedo = true
	}
	if prevRedo {
		sp.emit(0, eventlog.Trace{})
	}
}
