package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

var (
	ErrNilTask         = errors.New("pool: nil task")
	ErrPoolClosed      = errors.New("pool: closed")
	ErrPoolSaturated   = errors.New("pool: saturated, task rejected")
	ErrShutdownTimeout = errors.New("pool: shutdown timed out, forced termination")
	ErrTaskDropped     = errors.New("pool: task dropped by forced shutdown")
	ErrInvalidConfig   = errors.New("pool: invalid configuration")
)

// runWithRecovery executes a task with panic recovery.
// A panic is converted to an error carrying the stack so the worker survives.
func runWithRecovery(ctx context.Context, task Runnable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	task(ctx)
	return nil
}

// waitUntil blocks until d is closed, ctx is done, or the timeout elapses.
// A non-positive timeout waits on d and ctx only.
func waitUntil(ctx context.Context, d <-chan struct{}, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-d:
		return nil
	case <-expired:
		return ErrShutdownTimeout
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}
