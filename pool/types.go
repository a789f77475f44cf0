package pool

import (
	"context"

	"github.com/utkarsh5026/fanout/internal/types"
)

// Runnable is a unit of work accepted by a Submitter. ctx is the pool's
// context and is cancelled when a shutdown is forced.
type Runnable func(ctx context.Context)

// Submitter is the admission surface shared by Executor and its decorators.
type Submitter interface {
	// Submit admits task for asynchronous execution and returns a handle that
	// completes when the task reaches a terminal state.
	Submit(ctx context.Context, task Runnable) (*Handle, error)

	// Stats returns a point-in-time snapshot of pool occupancy.
	Stats() Stats
}

// Handle represents the eventual completion of one submitted task.
type Handle struct {
	future *types.Future[struct{}]
}

func newHandle() *Handle {
	return &Handle{future: types.NewFuture[struct{}]()}
}

func (h *Handle) complete(err error) {
	h.future.Complete(struct{}{}, err)
}

// Done returns a channel closed once the task is terminal.
func (h *Handle) Done() <-chan struct{} {
	return h.future.Done()
}

// Wait blocks until the task is terminal or ctx is done. It returns the
// task's failure (a recovered panic or ErrTaskDropped), or the ctx error.
func (h *Handle) Wait(ctx context.Context) error {
	_, err := h.future.GetWithContext(ctx)
	return err
}

// Err returns the task's failure without blocking; nil while pending.
func (h *Handle) Err() error {
	_, err, _ := h.future.TryGet()
	return err
}

// Stats is a snapshot of pool occupancy and lifetime counters.
type Stats struct {
	Submitted  uint64 // tasks admitted, including caller-run ones
	Completed  uint64 // tasks that finished running
	Rejected   uint64 // submissions refused under the Reject policy
	CallerRuns uint64 // tasks run on the submitting goroutine
	Dropped    uint64 // queued tasks discarded by a forced shutdown

	Active  int // tasks running right now
	Queued  int // tasks waiting in the queue
	Workers int // live worker goroutines
	Peak    int // highest live worker count seen

	CoreWorkers   int
	MaxWorkers    int
	QueueCapacity int
}
