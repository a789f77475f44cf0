package types

import (
	"context"
	"sync"
)

// Result carries the terminal value of one unit of work.
type Result[R any] struct {
	Value R
	Error error
}

// Future is a one-shot completion handle. It is completed exactly once by the
// goroutine that ran the work and can be observed by any number of readers.
type Future[R any] struct {
	once   sync.Once
	done   chan struct{}
	result Result[R]
}

// NewFuture returns a pending future.
func NewFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// Complete stores the result and releases every waiter.
// Only the first call has an effect; it reports whether this call won.
func (f *Future[R]) Complete(value R, err error) bool {
	won := false
	f.once.Do(func() {
		f.result = Result[R]{Value: value, Error: err}
		close(f.done)
		won = true
	})
	return won
}

// Get blocks until the future is completed.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.result.Value, f.result.Error
}

// GetWithContext blocks until the future is completed or ctx is done.
// On ctx expiry the zero value and the ctx error are returned; the future
// itself is left untouched.
func (f *Future[R]) GetWithContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Error
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// TryGet returns the result without blocking. ready is false while pending.
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Error, true
	default:
		return value, nil, false
	}
}

// Done returns a channel closed on completion.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the future has been completed.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
