package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelPool_CopyIsOwned(t *testing.T) {
	lp := NewLabelPool()
	l := lp.Get()
	l.Items = append(l.Items, "a", "b")
	owned := l.Copy()
	lp.Put(l)

	assert.Equal(t, []string{"a", "b"}, owned)
	assert.Empty(t, l.Items)
}

func TestEventPool_Reset(t *testing.T) {
	ep := NewEventPool()
	e := ep.Get()
	e.Activity = append(e.Activity, "register"...)
	e.Timestamp = 42
	ep.Put(e)

	assert.Empty(t, e.Activity)
	assert.Zero(t, e.Timestamp)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC).UnixNano()

	tests := []struct {
		name   string
		input  string
		layout string
	}{
		{"rfc3339", "2024-03-01T10:30:00Z", ""},
		{"millis", "2024-03-01T10:30:00.000Z", ""},
		{"space", "2024-03-01 10:30:00", ""},
		{"explicit", "01.03.2024 10:30", "02.01.2006 15:04"},
		{"unix seconds", "1709289000", ""},
		{"unix millis", "1709289000000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp([]byte(tt.input), tt.layout)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseTimestamp([]byte("yesterday"), "")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}
