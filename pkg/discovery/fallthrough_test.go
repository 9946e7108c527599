package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/eventlog"
)

func TestFallThroughs(t *testing.T) {
	tests := []struct {
		name   string
		chains func() Chains
		log    *eventlog.Log
		want   string
	}{
		{
			name:   "activity once per trace",
			chains: DefaultChains,
			log:    eventlog.New(tr{"a", "b", "a"}, tr{"b", "a"}),
			want:   "+(b, *(a, tau, tau))",
		},
		{
			name:   "strict tau loop",
			chains: DefaultChains,
			log:    eventlog.New(tr{"a", "b", "a", "b"}, tr{"a", "b"}),
			want:   "*(->(a, b), tau, tau)",
		},
		{
			name: "flower",
			chains: func() Chains {
				return Chains{Splitter: imfSplitter{}, FallThroughs: []FallThrough{flower{}}}
			},
			log:  eventlog.New(tr{"a", "b"}, tr{"b", "c"}),
			want: "*(X(a, b, c), tau, tau)",
		},
		{
			name: "tau loop then flower",
			chains: func() Chains {
				return Chains{Splitter: imfSplitter{}, FallThroughs: []FallThrough{tauLoop{}, flower{}}}
			},
			log:  eventlog.New(tr{"a", "b", "a"}),
			want: "*(*(X(a, b), tau, tau), tau, tau)",
		},
		{
			name: "chain without catch-all still terminates",
			chains: func() Chains {
				return Chains{Splitter: imfSplitter{}, FallThroughs: []FallThrough{activityOncePerTrace{}}}
			},
			log:  eventlog.New(tr{"a", "b", "a"}, tr{"b", "a", "b"}),
			want: "*(X(a, b), tau, tau)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewState(0, tt.chains(), false, nil)
			require.NoError(t, err)
			res := discover(t, st, tt.log)
			assert.Equal(t, tt.want, res.Tree.String())
			loopsAreTernary(t, res.Tree, res.Root)
		})
	}
}

func TestActivityConcurrent_SkipsLoneActivities(t *testing.T) {
	cuts := &countingCuts{}
	st, err := NewState(0, Chains{
		Cuts:         []CutFinder{cuts},
		Splitter:     imfSplitter{},
		FallThroughs: []FallThrough{activityConcurrent{}, flower{}},
	}, false, nil)
	require.NoError(t, err)

	res := discover(t, st, eventlog.New(tr{"a", "b"}, tr{"b", "a"}, tr{"d"}))
	assert.Equal(t, "*(X(a, b, d), tau, tau)", res.Tree.String())

	// one search on the log, then one each without a and without b
	assert.Equal(t, int64(3), cuts.calls.Load())
}
