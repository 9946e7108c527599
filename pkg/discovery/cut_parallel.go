package discovery

import (
	"context"

	"github.com/logflow/procmine/internal/graphalg"
	"github.com/logflow/procmine/pkg/logstats"
)

// parallelCut groups activities that are not directly connected in both
// directions. Every group must be able to start and end a trace; groups
// that cannot are merged into a neighbour.
type parallelCut struct{}

func (parallelCut) Name() string { return "parallel" }

func (parallelCut) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	n := len(s.Activities())
	if n < 2 {
		return NoCut, nil
	}
	v := newView(s)

	uf := graphalg.NewUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !(v.edge[i][j] && v.edge[j][i]) {
				uf.Union(i, j)
			}
		}
	}
	groups := uf.Sets()

	for len(groups) > 1 {
		bad := -1
		for i, g := range groups {
			if !v.hasStartAndEnd(g) {
				bad = i
				break
			}
		}
		if bad < 0 {
			break
		}
		into := bad - 1
		if into < 0 {
			into = bad + 1
		}
		groups[into] = append(groups[into], groups[bad]...)
		groups = append(groups[:bad], groups[bad+1:]...)
	}
	if len(groups) < 2 {
		return NoCut, nil
	}

	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			for _, a := range groups[i] {
				for _, b := range groups[j] {
					if !v.edge[a][b] || !v.edge[b][a] {
						return NoCut, nil
					}
				}
			}
		}
	}
	return v.cut(OpParallel, groups), nil
}
