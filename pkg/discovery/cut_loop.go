package discovery

import (
	"context"
	"sort"

	"github.com/logflow/procmine/internal/graphalg"
	"github.com/logflow/procmine/pkg/logstats"
)

// loopCut puts start and end activities in the body and the remaining
// components in redo groups, unless a component behaves like body:
//   - it is entered from a start that is not an end, or leaves to an end
//     that is not a start
//   - it feeds some start but not all of them, or is fed by some end but
//     not all of them
//   - it is not connected to the body in both directions
type loopCut struct{}

func (loopCut) Name() string { return "loop" }

func (loopCut) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	n := len(s.Activities())
	if n < 2 || len(s.Starts) == 0 || len(s.Ends) == 0 {
		return NoCut, nil
	}
	v := newView(s)

	var body, rest []int
	for i := 0; i < n; i++ {
		if v.starts[i] || v.ends[i] {
			body = append(body, i)
		} else {
			rest = append(rest, i)
		}
	}
	if len(rest) == 0 {
		return NoCut, nil
	}

	// weak components of the DFG restricted to non-boundary activities
	local := make(map[int]int, len(rest))
	for i, x := range rest {
		local[x] = i
	}
	g := graphalg.New(len(rest))
	for i, a := range rest {
		for j, b := range rest {
			if v.edge[a][b] {
				g.AddEdge(i, j)
			}
		}
	}

	var redo [][]int
	for _, comp := range graphalg.WeakComponents(g) {
		members := make([]int, len(comp))
		for i, c := range comp {
			members[i] = rest[c]
		}
		if loopBody(v, members) {
			body = append(body, members...)
		} else {
			redo = append(redo, members)
		}
	}
	if len(redo) == 0 {
		return NoCut, nil
	}

	sort.Ints(body)
	return v.cut(OpLoop, append([][]int{body}, redo...)), nil
}

func loopBody(v *view, comp []int) bool {
	n := len(v.acts)
	entered, left := false, false
	for _, c := range comp {
		for x := 0; x < n; x++ {
			if v.starts[x] && !v.ends[x] && v.edge[x][c] {
				return true
			}
			if v.ends[x] && !v.starts[x] && v.edge[c][x] {
				return true
			}
		}

		feedsStart, feedsAllStarts := false, true
		fedByEnd, fedByAllEnds := false, true
		for x := 0; x < n; x++ {
			if v.starts[x] {
				if v.edge[c][x] {
					feedsStart = true
				} else {
					feedsAllStarts = false
				}
			}
			if v.ends[x] {
				if v.edge[x][c] {
					fedByEnd = true
				} else {
					fedByAllEnds = false
				}
			}
		}
		if (feedsStart && !feedsAllStarts) || (fedByEnd && !fedByAllEnds) {
			return true
		}
		entered = entered || fedByEnd
		left = left || feedsStart
	}
	return !entered || !left
}
