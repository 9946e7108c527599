package eventlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/pkg/errors"
)

func ev(caseID, activity, lifecycle string, ts int64) *model.Event {
	return &model.Event{
		CaseID:    []byte(caseID),
		Activity:  []byte(activity),
		Lifecycle: []byte(lifecycle),
		Timestamp: ts,
	}
}

func TestBuilder_GroupsByCaseInArrivalOrder(t *testing.T) {
	b := NewBuilder(BuildOptions{})
	b.Add(ev("2", "x", "", 0))
	b.Add(ev("1", "a", "", 0))
	b.Add(ev("2", "y", "", 0))

	assert.Equal(t, 2, b.Cases())
	assert.Equal(t, []Trace{{"x", "y"}, {"a"}}, b.Log().Traces)
}

func TestBuilder_AddCopiesEvent(t *testing.T) {
	b := NewBuilder(BuildOptions{})
	e := ev("1", "a", "", 0)
	b.Add(e)
	e.Activity[0] = 'z'
	assert.Equal(t, []Trace{{"a"}}, b.Log().Traces)
}

func TestBuilder_SortByTime(t *testing.T) {
	b := NewBuilder(BuildOptions{SortByTime: true})
	b.Add(ev("1", "b", "", 20))
	b.Add(ev("1", "a", "", 10))
	b.Add(ev("1", "c", "", 20))
	assert.Equal(t, []Trace{{"a", "b", "c"}}, b.Log().Traces)
}

func TestBuilder_LifecycleRepairAndClassifier(t *testing.T) {
	b := NewBuilder(BuildOptions{RepairLifeCycle: true, Classifier: NameLifecycleClassifier})
	b.Add(ev("1", "a", "start", 1))
	b.Add(ev("1", "b", "start", 2))
	b.Add(ev("1", "a", "complete", 3))
	b.Add(ev("1", "c", "schedule", 4))
	assert.Equal(t, []Trace{{"b+complete", "a+complete"}}, b.Log().Traces)
}

func TestFromEvents_ReleasesEachEvent(t *testing.T) {
	ch := make(chan *model.Event, 3)
	ch <- ev("1", "a", "", 0)
	ch <- ev("1", "b", "", 0)
	ch <- ev("2", "a", "", 0)
	close(ch)

	released := 0
	l, err := FromEvents(context.Background(), ch, BuildOptions{
		Release: func(*model.Event) { released++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 3, released)
	assert.Equal(t, []Trace{{"a", "b"}, {"a"}}, l.Traces)
}

func TestFromEvents_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FromEvents(ctx, make(chan *model.Event), BuildOptions{})
	assert.True(t, errors.IsCode(err, errors.CodeContextCanceled))
}

func TestRepairLifeCycle_UnmatchedStartBecomesComplete(t *testing.T) {
	in := []*model.Event{ev("1", "a", "start", 1), ev("1", "b", "", 2)}
	out := RepairLifeCycle(in)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsComplete())
	assert.True(t, in[0].IsStart(), "input must not be modified")
}

func TestClassifierByName(t *testing.T) {
	c, err := ClassifierByName("resource")
	require.NoError(t, err)
	e := ev("1", "a", "", 0)
	e.Resource = []byte("ann")
	assert.Equal(t, "a@ann", c(e))

	_, err = ClassifierByName("bogus")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidConfig))
}
