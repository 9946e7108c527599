// Package logstats computes the directly-follows statistics the inductive
// miner derives its cuts from, and the noise filter applied to them.
package logstats

import (
	"sort"

	"github.com/logflow/procmine/internal/graphalg"
)

// DFG is a directly-follows graph.
// Edges[a][b] counts how often b directly follows a in some trace.
type DFG struct {
	// Activities is the sorted activity set
	Activities []string

	// Edges maps source -> target -> count; only positive counts are stored
	Edges map[string]map[string]int
}

// Edge is a single weighted directly-follows pair.
type Edge struct {
	Source string
	Target string
	Count  int
}

func newDFG() *DFG {
	return &DFG{Edges: make(map[string]map[string]int)}
}

func (d *DFG) add(a, b string, n int) {
	out, ok := d.Edges[a]
	if !ok {
		out = make(map[string]int)
		d.Edges[a] = out
	}
	out[b] += n
}

// Weight returns the count of a -> b, zero if absent.
func (d *DFG) Weight(a, b string) int {
	return d.Edges[a][b]
}

// HasEdge reports whether b directly follows a at least once.
func (d *DFG) HasEdge(a, b string) bool {
	return d.Edges[a][b] > 0
}

// EdgeList returns all edges sorted by source then target.
func (d *DFG) EdgeList() []Edge {
	var edges []Edge
	for a, out := range d.Edges {
		for b, n := range out {
			edges = append(edges, Edge{Source: a, Target: b, Count: n})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// Index maps each activity to its position in Activities.
func (d *DFG) Index() map[string]int {
	idx := make(map[string]int, len(d.Activities))
	for i, a := range d.Activities {
		idx[a] = i
	}
	return idx
}

// Graph converts the DFG into an index graph. Node i is Activities[i].
func (d *DFG) Graph() *graphalg.Graph {
	idx := d.Index()
	g := graphalg.New(len(d.Activities))
	for i, a := range d.Activities {
		targets := make([]string, 0, len(d.Edges[a]))
		for b := range d.Edges[a] {
			targets = append(targets, b)
		}
		sort.Strings(targets)
		for _, b := range targets {
			if j, ok := idx[b]; ok {
				g.AddEdge(i, j)
			}
		}
	}
	return g
}
