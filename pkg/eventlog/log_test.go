package eventlog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNew_CopiesTraces(t *testing.T) {
	src := Trace{"a", "b"}
	l := New(src)
	src[0] = "z"
	assert.Equal(t, Trace{"a", "b"}, l.Traces[0])
}

func TestRepeat(t *testing.T) {
	l := Repeat(3, Trace{"a"}, Trace{"b", "c"})
	assert.Equal(t, 6, l.Len())
	assert.Equal(t, 9, l.EventCount())
	assert.Equal(t, Trace{"a"}, l.Traces[2])
	assert.Equal(t, Trace{"b", "c"}, l.Traces[3])
}

func TestActivities_Sorted(t *testing.T) {
	l := New(Trace{"c", "a"}, Trace{"b", "a"}, Trace{})
	assert.Equal(t, []string{"a", "b", "c"}, l.Activities())
}

func TestWithout_KeepsEmptyTraces(t *testing.T) {
	l := New(Trace{"a", "b", "a"}, Trace{"a"})
	got := l.Without("a")
	want := []Trace{{"b"}, {}}
	if diff := cmp.Diff(want, got.Traces); diff != "" {
		t.Errorf("Without mismatch (-want +got):\n%s", diff)
	}
	// original untouched
	assert.Equal(t, Trace{"a", "b", "a"}, l.Traces[0])
}

func TestWithoutEmpty(t *testing.T) {
	l := New(Trace{}, Trace{"a"}, Trace{})
	assert.Equal(t, []Trace{{"a"}}, l.WithoutEmpty().Traces)
}

func TestVariants(t *testing.T) {
	l := New(Trace{"a", "b"}, Trace{"b"}, Trace{"a", "b"}, Trace{"a"})
	got := l.Variants()
	want := []Variant{
		{Trace: Trace{"a", "b"}, Count: 2},
		{Trace: Trace{"a"}, Count: 1},
		{Trace: Trace{"b"}, Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Variants mismatch (-want +got):\n%s", diff)
	}
}

func TestTrace_String(t *testing.T) {
	assert.Equal(t, "<a,b>", Trace{"a", "b"}.String())
	assert.Equal(t, "<>", Trace{}.String())
}
