package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("ok value", func(t *testing.T) {
		out := Supplier(func() int { return 42 }).Run(ctx)
		require.True(t, out.IsOk())
		assert.Equal(t, 42, out.Value())
		assert.NoError(t, out.Err())
	})

	t.Run("zero value is still a value", func(t *testing.T) {
		out := Supplier(func() int { return 0 }).Run(ctx)
		v, ok := out.Get()
		assert.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("empty slice is a value", func(t *testing.T) {
		out := Supplier(func() []int { return []int{} }).Run(ctx)
		assert.True(t, out.IsOk())
	})

	t.Run("error", func(t *testing.T) {
		boom := errors.New("boom")
		out := Task[int](func(context.Context) (int, error) { return 7, boom }).Run(ctx)
		assert.False(t, out.IsOk())
		assert.ErrorIs(t, out.Err(), boom)
	})

	t.Run("panic", func(t *testing.T) {
		zero := 0
		out := Supplier(func() int { return 10 / zero }).Run(ctx)
		assert.False(t, out.IsOk())
		assert.ErrorIs(t, out.Err(), ErrTaskPanic)
		assert.Contains(t, out.Err().Error(), "divide by zero")
	})

	t.Run("absent values", func(t *testing.T) {
		assert.ErrorIs(t, Supplier(func() *int { return nil }).Run(ctx).Err(), ErrNoValue)
		assert.ErrorIs(t, Supplier(func() []string { return nil }).Run(ctx).Err(), ErrNoValue)
		assert.ErrorIs(t, Supplier(func() map[string]int { return nil }).Run(ctx).Err(), ErrNoValue)
		assert.ErrorIs(t, Supplier(func() any { return nil }).Run(ctx).Err(), ErrNoValue)
		assert.ErrorIs(t, Supplier(func() error { return nil }).Run(ctx).Err(), ErrNoValue)
	})

	t.Run("explicit no value", func(t *testing.T) {
		out := Task[string](func(context.Context) (string, error) { return "", ErrNoValue }).Run(ctx)
		assert.ErrorIs(t, out.Err(), ErrNoValue)
	})

	t.Run("nil task", func(t *testing.T) {
		var task Task[int]
		assert.ErrorIs(t, task.Run(ctx).Err(), ErrNoValue)
		assert.Nil(t, Supplier[int](nil))
	})
}

func TestOutcome(t *testing.T) {
	var zero Outcome[int]
	assert.False(t, zero.IsOk())
	assert.ErrorIs(t, zero.Err(), ErrNoValue)

	assert.Equal(t, "ok(3)", Ok(3).String())
	assert.Equal(t, "failed(fanout: task produced no value)", Failed[int](nil).String())
}

func TestRunWithRetry(t *testing.T) {
	ctx := context.Background()

	flaky := func(failures int32, calls *atomic.Int32) Task[string] {
		return func(context.Context) (string, error) {
			if calls.Add(1) <= failures {
				return "", errors.New("transient")
			}
			return "ok", nil
		}
	}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		out := runWithRetry(ctx, flaky(2, &calls), newRetryPolicy(3, time.Millisecond))
		require.True(t, out.IsOk())
		assert.Equal(t, "ok", out.Value())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		var calls atomic.Int32
		out := runWithRetry(ctx, flaky(5, &calls), newRetryPolicy(2, time.Millisecond))
		assert.False(t, out.IsOk())
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("single attempt by default", func(t *testing.T) {
		var calls atomic.Int32
		out := runWithRetry(ctx, flaky(1, &calls), retryPolicy{})
		assert.False(t, out.IsOk())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("absent value is not retried", func(t *testing.T) {
		var calls atomic.Int32
		task := Task[*int](func(context.Context) (*int, error) {
			calls.Add(1)
			return nil, nil
		})
		out := runWithRetry(ctx, task, newRetryPolicy(5, time.Millisecond))
		assert.ErrorIs(t, out.Err(), ErrNoValue)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("stops when context ends", func(t *testing.T) {
		var calls atomic.Int32
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		out := runWithRetry(cctx, flaky(5, &calls), newRetryPolicy(5, time.Second))
		assert.False(t, out.IsOk())
		assert.Equal(t, int32(1), calls.Load())
	})
}
