package discovery

import (
	"context"
	"sort"

	"github.com/logflow/procmine/internal/graphalg"
	"github.com/logflow/procmine/pkg/logstats"
)

// sequenceCut condenses the strongly connected components of the DFG,
// merges components that cannot reach each other and orders the merged
// groups by reachability.
type sequenceCut struct{}

func (sequenceCut) Name() string { return "sequence" }

func (sequenceCut) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	if len(s.Activities()) < 2 {
		return NoCut, nil
	}
	g := s.DFG.Graph()
	comps, err := graphalg.StronglyConnected(ctx, g)
	if err != nil {
		return NoCut, err
	}
	if len(comps) < 2 {
		return NoCut, nil
	}
	cg, _ := graphalg.Condense(g, comps)
	reach, err := cg.Reachability(ctx)
	if err != nil {
		return NoCut, err
	}

	uf := graphalg.NewUnionFind(len(comps))
	for i := range comps {
		for j := i + 1; j < len(comps); j++ {
			if !reach[i][j] && !reach[j][i] {
				uf.Union(i, j)
			}
		}
	}
	sets := uf.Sets()
	if len(sets) < 2 {
		return NoCut, nil
	}

	// Earlier groups reach strictly more components.
	reachCount := func(set []int) int {
		seen := make([]bool, len(comps))
		c := 0
		for _, x := range set {
			for y, r := range reach[x] {
				if r && !seen[y] {
					seen[y] = true
					c++
				}
			}
		}
		return c
	}
	sort.SliceStable(sets, func(a, b int) bool {
		return reachCount(sets[a]) > reachCount(sets[b])
	})

	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			for _, a := range sets[i] {
				for _, b := range sets[j] {
					if !reach[a][b] || reach[b][a] {
						return NoCut, nil
					}
				}
			}
		}
	}

	groups := make([][]int, len(sets))
	for i, set := range sets {
		for _, c := range set {
			groups[i] = append(groups[i], comps[c]...)
		}
		sort.Ints(groups[i])
	}
	return newView(s).cut(OpSequence, groups), nil
}
