package graphalg

import "context"

// sccCheckInterval is how many visited nodes pass between ctx checks.
const sccCheckInterval = 64

// StronglyConnected returns the strongly connected components of g using
// Tarjan's algorithm. Components are emitted in reverse topological order
// of the condensation (sinks first), as Tarjan produces them.
func StronglyConnected(ctx context.Context, g *Graph) ([][]int, error) {
	index := 0
	indices := make([]int, g.N)
	lowlinks := make([]int, g.N)
	onStack := make([]bool, g.N)
	for i := range indices {
		indices[i] = -1
	}
	stack := make([]int, 0, g.N)
	var sccs [][]int
	var aborted error

	var strongConnect func(v int)
	strongConnect = func(v int) {
		if index%sccCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				aborted = err
				return
			}
		}

		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Out[v] {
			if indices[w] < 0 {
				strongConnect(w)
				if aborted != nil {
					return
				}
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] && indices[w] < lowlinks[v] {
				lowlinks[v] = indices[w]
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < g.N; v++ {
		if indices[v] < 0 {
			strongConnect(v)
			if aborted != nil {
				return nil, aborted
			}
		}
	}
	return sccs, nil
}

// Condense returns the component graph of g for the given partition: one
// node per component and an edge wherever some edge of g joins two
// different components. It also returns the component of every node.
func Condense(g *Graph, comps [][]int) (*Graph, []int) {
	of := make([]int, g.N)
	for ci, comp := range comps {
		for _, v := range comp {
			of[v] = ci
		}
	}
	cg := New(len(comps))
	seen := make(map[[2]int]struct{})
	for u, outs := range g.Out {
		for _, v := range outs {
			e := [2]int{of[u], of[v]}
			if e[0] == e[1] {
				continue
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			cg.AddEdge(e[0], e[1])
		}
	}
	return cg, of
}
