package graphalg

import "sort"

// UnionFind is a disjoint-set forest with path compression and union by
// rank.
type UnionFind struct {
	parent []int
	rank   []int
}

// NewUnionFind creates n singleton sets.
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

// Find returns the representative of x's set.
func (uf *UnionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets of a and b.
func (uf *UnionFind) Union(a, b int) {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// Same reports whether a and b are in the same set.
func (uf *UnionFind) Same(a, b int) bool {
	return uf.Find(a) == uf.Find(b)
}

// Sets returns the sets, each sorted ascending, ordered by smallest member.
func (uf *UnionFind) Sets() [][]int {
	byRoot := make(map[int][]int)
	var roots []int
	for x := range uf.parent {
		r := uf.Find(x)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], x)
	}
	sets := make([][]int, 0, len(roots))
	for _, r := range roots {
		s := byRoot[r]
		sort.Ints(s)
		sets = append(sets, s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i][0] < sets[j][0] })
	return sets
}

// WeakComponents returns the weakly connected components of g.
func WeakComponents(g *Graph) [][]int {
	uf := NewUnionFind(g.N)
	for u, outs := range g.Out {
		for _, v := range outs {
			uf.Union(u, v)
		}
	}
	return uf.Sets()
}
