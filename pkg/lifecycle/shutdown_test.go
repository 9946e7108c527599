package lifecycle

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/errors"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdown_ReverseOrder(t *testing.T) {
	m := NewShutdownManager(DefaultShutdownConfig())
	var order []string
	for _, name := range []string{"logger", "tracing", "metrics"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.RegisterCloser("backend", closerFunc(func() error {
		order = append(order, "backend")
		return nil
	}))
	require.Equal(t, 4, m.Len())

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"backend", "metrics", "tracing", "logger"}, order)

	// A second shutdown and late registrations are no-ops.
	m.Register("late", func(context.Context) error { t.Fatal("ran late step"); return nil })
	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Zero(t, m.Len())
}

func TestShutdown_CollectsErrors(t *testing.T) {
	m := NewShutdownManager(ShutdownConfig{})
	boom := stderrors.New("boom")
	ran := 0
	m.Register("a", func(context.Context) error { ran++; return boom })
	m.Register("b", func(context.Context) error { ran++; return nil })
	m.Register("c", func(context.Context) error { ran++; return stderrors.New("bang") })

	err := m.Shutdown(context.Background())
	assert.Equal(t, 3, ran)
	var multi *errors.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
	assert.ErrorIs(t, multi.Errors[1], boom)
}

func TestShutdown_IgnoresCancelledContext(t *testing.T) {
	m := NewShutdownManager(ShutdownConfig{Timeout: time.Second})
	var stepErr error
	m.Register("flush", func(ctx context.Context) error {
		stepErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.NoError(t, stepErr)
}
