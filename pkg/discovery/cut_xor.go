package discovery

import (
	"context"

	"github.com/logflow/procmine/internal/graphalg"
	"github.com/logflow/procmine/pkg/logstats"
)

// xorCut splits the DFG into weakly connected components.
type xorCut struct{}

func (xorCut) Name() string { return "xor" }

func (xorCut) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	if len(s.Activities()) < 2 {
		return NoCut, nil
	}
	groups := graphalg.WeakComponents(s.DFG.Graph())
	if len(groups) < 2 {
		return NoCut, nil
	}
	return newView(s).cut(OpXor, groups), nil
}
