package discovery

import (
	"context"

	"github.com/logflow/procmine/internal/graphalg"
	"github.com/logflow/procmine/pkg/logstats"
)

// interleavedCut finds groups that run one after the other in any order.
// Groups are the components left after removing end->start edges; every
// edge between groups must go from an end to a start, and every end of
// one group must directly reach every start of the other, both ways.
type interleavedCut struct{}

func (interleavedCut) Name() string { return "interleaved" }

func (interleavedCut) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	v, groups, ok := interleavedGroups(s)
	if !ok {
		return NoCut, nil
	}
	for i := range groups {
		for j := range groups {
			if i != j && !completeHandover(v, groups[i], groups[j]) {
				return NoCut, nil
			}
		}
	}
	return v.cut(OpInterleaved, groups), nil
}

// maybeInterleavedCut relaxes interleavedCut: each pair of groups only
// needs a handover in at least one direction.
type maybeInterleavedCut struct{}

func (maybeInterleavedCut) Name() string { return "maybe-interleaved" }

func (maybeInterleavedCut) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	v, groups, ok := interleavedGroups(s)
	if !ok {
		return NoCut, nil
	}
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			if !anyHandover(v, groups[i], groups[j]) && !anyHandover(v, groups[j], groups[i]) {
				return NoCut, nil
			}
		}
	}
	return v.cut(OpMaybeInterleaved, groups), nil
}

// interleavedGroups computes the candidate groups and checks the edge
// shape shared by both interleaving cuts.
func interleavedGroups(s *logstats.Snapshot) (*view, [][]int, bool) {
	n := len(s.Activities())
	if n < 2 {
		return nil, nil, false
	}
	v := newView(s)

	g := graphalg.New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v.edge[i][j] && !(v.ends[i] && v.starts[j]) {
				g.AddEdge(i, j)
			}
		}
	}
	groups := graphalg.WeakComponents(g)
	if len(groups) < 2 {
		return nil, nil, false
	}
	for _, grp := range groups {
		if !v.hasStartAndEnd(grp) {
			return nil, nil, false
		}
	}

	member := membership(n, groups)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v.edge[i][j] && member[i] != member[j] && !(v.ends[i] && v.starts[j]) {
				return nil, nil, false
			}
		}
	}
	return v, groups, true
}

// completeHandover: every end of from directly reaches every start of to.
func completeHandover(v *view, from, to []int) bool {
	for _, a := range from {
		if !v.ends[a] {
			continue
		}
		for _, b := range to {
			if v.starts[b] && !v.edge[a][b] {
				return false
			}
		}
	}
	return true
}

func anyHandover(v *view, from, to []int) bool {
	for _, a := range from {
		for _, b := range to {
			if v.edge[a][b] {
				return true
			}
		}
	}
	return false
}
