package discovery

import (
	"fmt"
	"strings"

	"github.com/logflow/procmine/pkg/tree"
)

// Operator is the process tree operator a cut stands for.
type Operator uint8

const (
	OpNone Operator = iota
	OpSequence
	OpXor
	OpParallel
	OpLoop
	OpInterleaved
	OpMaybeInterleaved
)

// String returns the operator name.
func (o Operator) String() string {
	switch o {
	case OpSequence:
		return "sequence"
	case OpXor:
		return "xor"
	case OpParallel:
		return "parallel"
	case OpLoop:
		return "loop"
	case OpInterleaved:
		return "interleaved"
	case OpMaybeInterleaved:
		return "maybe-interleaved"
	case OpNone:
		return "none"
	default:
		return fmt.Sprintf("operator(%d)", o)
	}
}

// Kind maps the operator to its tree node kind.
func (o Operator) Kind() (tree.Kind, bool) {
	switch o {
	case OpSequence:
		return tree.KindSequence, true
	case OpXor:
		return tree.KindXor, true
	case OpParallel:
		return tree.KindParallel, true
	case OpLoop:
		return tree.KindLoop, true
	case OpInterleaved:
		return tree.KindInterleaved, true
	case OpMaybeInterleaved:
		return tree.KindMaybeInterleaved, true
	default:
		return 0, false
	}
}

// Cut partitions activities into ordered groups under an operator.
// For loops Groups[0] is the body; for sequences groups are in order.
type Cut struct {
	Operator Operator
	Groups   [][]string
}

// NoCut is returned by finders that found nothing.
var NoCut = Cut{}

// Valid reports whether the cut has at least two non-empty, pairwise
// disjoint groups.
func (c Cut) Valid() bool {
	if c.Operator == OpNone || len(c.Groups) < 2 {
		return false
	}
	seen := make(map[string]struct{})
	for _, g := range c.Groups {
		if len(g) == 0 {
			return false
		}
		for _, a := range g {
			if _, dup := seen[a]; dup {
				return false
			}
			seen[a] = struct{}{}
		}
	}
	return true
}

// Covers reports whether the groups hold exactly the given activities.
// Together with Valid this makes the cut a partition of them.
func (c Cut) Covers(activities []string) bool {
	group := c.GroupOf()
	if len(group) != len(activities) {
		return false
	}
	for _, a := range activities {
		if _, ok := group[a]; !ok {
			return false
		}
	}
	return true
}

// GroupOf maps each activity to the index of its group.
func (c Cut) GroupOf() map[string]int {
	m := make(map[string]int)
	for i, g := range c.Groups {
		for _, a := range g {
			m[a] = i
		}
	}
	return m
}

// String renders the cut as operator{a,b}{c}.
func (c Cut) String() string {
	var sb strings.Builder
	sb.WriteString(c.Operator.String())
	for _, g := range c.Groups {
		sb.WriteString("{" + strings.Join(g, ",") + "}")
	}
	return sb.String()
}
