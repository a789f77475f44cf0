package fanout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/utkarsh5026/fanout/internal/algorithms"
)

var (
	// ErrNoValue reports that a task finished without producing a value.
	// A task may also return it directly to signal "nothing to contribute".
	ErrNoValue = errors.New("fanout: task produced no value")
	// ErrTaskPanic wraps a panic recovered from a task body.
	ErrTaskPanic = errors.New("fanout: task panicked")
	// ErrNilSubmitter is returned by New when no pool is given.
	ErrNilSubmitter = errors.New("fanout: nil submitter")
)

// Task is one computation of a batch. It receives a context that is
// cancelled when the batch times out or the pool is forced down.
type Task[R any] func(ctx context.Context) (R, error)

// Supplier adapts a plain zero-argument computation into a Task.
// A nil fn yields a nil Task, which the coordinator skips.
func Supplier[R any](fn func() R) Task[R] {
	if fn == nil {
		return nil
	}
	return func(context.Context) (R, error) {
		return fn(), nil
	}
}

// Outcome is the terminal state of one task: either ok with a value or
// failed with a cause. The zero Outcome is failed with ErrNoValue.
type Outcome[R any] struct {
	value R
	err   error
	ok    bool
}

// Ok returns a successful outcome holding v.
func Ok[R any](v R) Outcome[R] {
	return Outcome[R]{value: v, ok: true}
}

// Failed returns a failed outcome. A nil cause is recorded as ErrNoValue.
func Failed[R any](cause error) Outcome[R] {
	if cause == nil {
		cause = ErrNoValue
	}
	return Outcome[R]{err: cause}
}

// IsOk reports whether the task produced a value.
func (o Outcome[R]) IsOk() bool { return o.ok }

// Value returns the produced value, or the zero value for a failed outcome.
func (o Outcome[R]) Value() R { return o.value }

// Err returns the failure cause, nil when ok.
func (o Outcome[R]) Err() error {
	if o.ok {
		return nil
	}
	if o.err == nil {
		return ErrNoValue
	}
	return o.err
}

// Get returns the value and whether the outcome is ok.
func (o Outcome[R]) Get() (R, bool) {
	return o.value, o.ok
}

func (o Outcome[R]) String() string {
	if o.ok {
		return fmt.Sprintf("ok(%v)", o.value)
	}
	return fmt.Sprintf("failed(%v)", o.Err())
}

// Run executes t once and captures its terminal state. Errors, panics and
// absent values (ErrNoValue or a nil pointer, map, slice, func, chan or
// interface) all produce a failed Outcome; nothing escapes.
func (t Task[R]) Run(ctx context.Context) (out Outcome[R]) {
	if t == nil {
		return Failed[R](ErrNoValue)
	}

	defer func() {
		if r := recover(); r != nil {
			out = Failed[R](fmt.Errorf("%w: %v", ErrTaskPanic, r))
		}
	}()

	v, err := t(ctx)
	switch {
	case err != nil:
		return Failed[R](err)
	case isAbsent(v):
		return Failed[R](ErrNoValue)
	default:
		return Ok(v)
	}
}

func isAbsent(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// retryPolicy reruns failed tasks. The zero value runs each task once.
type retryPolicy struct {
	attempts int
	backoff  algorithms.BackoffStrategy
}

func newRetryPolicy(attempts int, delay time.Duration) retryPolicy {
	if attempts <= 1 {
		return retryPolicy{}
	}
	return retryPolicy{
		attempts: attempts,
		backoff:  algorithms.NewBackoffStrategy(algorithms.BackoffExponential, delay, delay<<5, 0),
	}
}

// runWithRetry runs t until it succeeds, the attempts are exhausted, or
// ctx is done. ErrNoValue is a legitimate result and never retried.
func runWithRetry[R any](ctx context.Context, t Task[R], p retryPolicy) Outcome[R] {
	out := t.Run(ctx)
	for attempt := 1; attempt < p.attempts; attempt++ {
		if out.IsOk() || errors.Is(out.Err(), ErrNoValue) {
			return out
		}

		timer := time.NewTimer(p.backoff.NextDelay(attempt - 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return out
		case <-timer.C:
		}

		out = t.Run(ctx)
	}
	return out
}
