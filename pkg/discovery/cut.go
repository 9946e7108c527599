package discovery

import (
	"github.com/logflow/procmine/pkg/logstats"
)

// view is an index-based copy of a snapshot's relations shared by the
// cut finders. Node i is acts[i].
type view struct {
	acts   []string
	edge   [][]bool
	starts []bool
	ends   []bool
}

func newView(s *logstats.Snapshot) *view {
	acts := s.Activities()
	idx := s.DFG.Index()
	v := &view{
		acts:   acts,
		edge:   make([][]bool, len(acts)),
		starts: make([]bool, len(acts)),
		ends:   make([]bool, len(acts)),
	}
	for i, a := range acts {
		v.edge[i] = make([]bool, len(acts))
		for b, n := range s.DFG.Edges[a] {
			if j, ok := idx[b]; ok && n > 0 {
				v.edge[i][j] = true
			}
		}
		v.starts[i] = s.IsStart(a)
		v.ends[i] = s.IsEnd(a)
	}
	return v
}

func (v *view) names(group []int) []string {
	out := make([]string, len(group))
	for i, x := range group {
		out[i] = v.acts[x]
	}
	return out
}

func (v *view) cut(op Operator, groups [][]int) Cut {
	c := Cut{Operator: op, Groups: make([][]string, len(groups))}
	for i, g := range groups {
		c.Groups[i] = v.names(g)
	}
	return c
}

// hasStartAndEnd reports whether the group holds a start and an end
// activity.
func (v *view) hasStartAndEnd(group []int) bool {
	var s, e bool
	for _, x := range group {
		s = s || v.starts[x]
		e = e || v.ends[x]
	}
	return s && e
}

func membership(n int, groups [][]int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = -1
	}
	for gi, g := range groups {
		for _, x := range g {
			m[x] = gi
		}
	}
	return m
}
