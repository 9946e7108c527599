package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
)

func noisyLog() *eventlog.Log {
	l := eventlog.Repeat(100, tr{"a", "b"})
	l.Append(tr{"a", "x", "b"})
	return l
}

func TestController_Policies(t *testing.T) {
	tests := []struct {
		policy    SelectionPolicy
		want      string
		discarded map[float64]int
	}{
		{
			policy:    lowestThreshold{},
			want:      "->(a, X(tau, x), b)",
			discarded: map[float64]int{0: 0, 0.2: 1},
		},
		{
			policy:    highestThreshold{},
			want:      "->(a, b)",
			discarded: map[float64]int{0: 0, 0.2: 1},
		},
		{
			policy:    fewestDiscards{},
			want:      "->(a, X(tau, x), b)",
			discarded: map[float64]int{0: 0, 0.2: 1},
		},
		{
			policy: ScoredPolicy(ScorerFunc(func(_ context.Context, _ *eventlog.Log, c Candidate) (float64, error) {
				return c.Threshold, nil
			})),
			want:      "->(a, b)",
			discarded: map[float64]int{0: 0, 0.2: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.policy.Name(), func(t *testing.T) {
			c, err := NewController(ControllerConfig{
				Thresholds: []float64{0.2, 0},
				Chains:     DefaultChains(),
				Policy:     tt.policy,
			})
			require.NoError(t, err)

			res, err := c.Discover(context.Background(), noisyLog())
			require.NoError(t, err)
			require.False(t, res.Cancelled)
			assert.Equal(t, tt.want, res.Tree.String())
			assert.Equal(t, tt.discarded, res.Discarded)

			st, ok := c.State(0.2)
			require.True(t, ok)
			assert.Equal(t, tt.discarded[0.2], st.DiscardCount())
		})
	}
}

// Each threshold keeps its own discards even when another threshold's
// candidate is applied.
func TestController_DiscardsPerThreshold(t *testing.T) {
	c, err := NewController(ControllerConfig{
		Thresholds: []float64{0.1, 0.2},
		Chains:     DefaultChains(),
	})
	require.NoError(t, err)

	res, err := c.Discover(context.Background(), noisyLog())
	require.NoError(t, err)
	assert.Equal(t, "->(a, b)", res.Tree.String())
	assert.Equal(t, map[float64]int{0.1: 1, 0.2: 1}, res.Discarded)

	for _, th := range c.Thresholds() {
		st, _ := c.State(th)
		require.Equal(t, 1, st.DiscardCount(), "threshold %v", th)
		assert.Equal(t, "x", st.Discarded()[0].Activity)
	}
}

func TestController_SingleThresholdMatchesBuilder(t *testing.T) {
	for i, l := range sampleLogs() {
		c, err := NewController(ControllerConfig{Thresholds: []float64{0.3}, Chains: DefaultChains()})
		require.NoError(t, err)
		got, err := c.Discover(context.Background(), l)
		require.NoError(t, err)

		want := discover(t, newState(t, 0.3), l)
		assert.Equal(t, want.Tree.String(), got.Tree.String(), "log %d", i)
		assert.Equal(t, want.Discarded, got.Discarded, "log %d", i)
	}
}

func TestController_Config(t *testing.T) {
	_, err := NewController(ControllerConfig{Chains: DefaultChains()})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidThreshold))

	_, err = NewController(ControllerConfig{Thresholds: []float64{0, 1.5}, Chains: DefaultChains()})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidThreshold))

	_, err = NewController(ControllerConfig{Thresholds: []float64{0}})
	assert.True(t, errors.IsCode(err, errors.CodeEmptyChain))

	c, err := NewController(ControllerConfig{Thresholds: []float64{0.2, 0, 0.2}, Chains: DefaultChains()})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.2}, c.Thresholds())
	assert.Equal(t, "lowest", c.Policy().Name())
}

func TestController_PreCancelled(t *testing.T) {
	c, err := NewController(ControllerConfig{Thresholds: []float64{0, 0.2}, Chains: DefaultChains(), Policy: highestThreshold{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.Discover(ctx, noisyLog())
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	for _, th := range c.Thresholds() {
		st, _ := c.State(th)
		assert.Zero(t, st.DiscardCount())
	}
}

func TestState_Validation(t *testing.T) {
	for _, th := range []float64{-0.1, 1.01} {
		_, err := NewState(th, DefaultChains(), false, nil)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidThreshold), "threshold %v", th)
	}
	_, err := NewState(0, Chains{Splitter: imfSplitter{}}, false, nil)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyChain))

	st := newState(t, 0.5)
	st.AddDiscards([]DiscardedEvent{{Activity: "a"}, {Activity: "b"}})
	st.AddDiscards(nil)
	assert.Equal(t, 2, st.DiscardCount())
	assert.Equal(t, "a", st.Discarded()[0].Activity)
}
