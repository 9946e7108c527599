// Package graphalg holds the small graph algorithms the cut finders need:
// strongly connected components, union-find and reachability closure over
// graphs whose nodes are dense integer indices.
package graphalg

import "context"

// Graph is a directed graph over nodes 0..N-1 stored as adjacency lists.
type Graph struct {
	N   int
	Out [][]int
}

// New creates an empty graph with n nodes.
func New(n int) *Graph {
	return &Graph{N: n, Out: make([][]int, n)}
}

// AddEdge adds the directed edge u -> v. Duplicate edges are kept.
func (g *Graph) AddEdge(u, v int) {
	g.Out[u] = append(g.Out[u], v)
}

// HasEdge reports whether u -> v exists.
func (g *Graph) HasEdge(u, v int) bool {
	for _, w := range g.Out[u] {
		if w == v {
			return true
		}
	}
	return false
}

// Reachability returns closure[u][v] == true iff v is reachable from u by a
// path of length >= 1. A node reaches itself only through a cycle.
// It returns ctx.Err() if ctx is cancelled between breadth-first passes.
func (g *Graph) Reachability(ctx context.Context) ([][]bool, error) {
	closure := make([][]bool, g.N)
	queue := make([]int, 0, g.N)

	for s := 0; s < g.N; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen := make([]bool, g.N)
		queue = queue[:0]
		for _, v := range g.Out[s] {
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range g.Out[u] {
				if !seen[v] {
					seen[v] = true
					queue = append(queue, v)
				}
			}
		}
		closure[s] = seen
	}
	return closure, nil
}
