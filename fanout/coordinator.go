package fanout

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/fanout/pool"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for batch lifecycle events. Defaults to discarding.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds every batch. On expiry the blocking calls return, the
// result is sealed and late results are discarded. Zero disables the bound;
// a deadline on the caller's context applies either way.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithRetry reruns a failing task up to attempts times in total, waiting an
// exponentially growing delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Coordinator) {
		c.retry = newRetryPolicy(attempts, delay)
	}
}

// WithFailurePropagation makes one failed task empty every slot of a
// fixed-shape holder. By default each slot is isolated from its siblings.
func WithFailurePropagation() Option {
	return func(c *Coordinator) {
		c.propagate = true
	}
}

// Coordinator fans batches of tasks out to one shared pool and joins on
// their completion. It is safe for concurrent use; it keeps no reference to
// a batch's result after handing it to the caller.
type Coordinator struct {
	pool      pool.Submitter
	logger    *log.Logger
	timeout   time.Duration
	retry     retryPolicy
	propagate bool
}

// New creates a Coordinator submitting to p.
func New(p pool.Submitter, opts ...Option) (*Coordinator, error) {
	if p == nil {
		return nil, ErrNilSubmitter
	}

	c := &Coordinator{
		pool:   p,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// batch tracks one fan-out call from first submission to its barrier.
type batch struct {
	c       *Coordinator
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	group   errgroup.Group

	submitted int
	succeeded atomic.Int32
	failed    atomic.Int32
}

func (c *Coordinator) begin(ctx context.Context) *batch {
	b := &batch{c: c, id: uuid.NewString(), started: time.Now()}
	if c.timeout > 0 {
		b.ctx, b.cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		b.ctx, b.cancel = context.WithCancel(ctx)
	}
	return b
}

// launch submits task and routes an ok outcome to deliver. A refused
// submission or a dropped handle counts as the task's failure.
func launch[R any](b *batch, index int, task Task[R], deliver func(R) bool) {
	if task == nil {
		return
	}
	b.submitted++

	h, err := b.c.pool.Submit(b.ctx, func(poolCtx context.Context) {
		// the batch already gave up on this task
		if b.ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithCancel(b.ctx)
		defer cancel()
		stop := context.AfterFunc(poolCtx, cancel)
		defer stop()

		out := runWithRetry(ctx, task, b.c.retry)
		if b.ctx.Err() != nil {
			b.c.logger.Printf("batch %s: task %d finished after the batch ended, result discarded", b.id, index)
			return
		}
		if v, ok := out.Get(); ok {
			if deliver(v) {
				b.succeeded.Add(1)
			}
			return
		}
		b.failed.Add(1)
		b.c.logger.Printf("batch %s: task %d failed: %v", b.id, index, out.Err())
	})
	if err != nil {
		b.failed.Add(1)
		b.c.logger.Printf("batch %s: task %d not admitted: %v", b.id, index, err)
		return
	}

	b.group.Go(func() error {
		if err := h.Wait(b.ctx); err != nil {
			if b.ctx.Err() != nil {
				return err
			}
			b.failed.Add(1)
			b.c.logger.Printf("batch %s: task %d lost: %v", b.id, index, err)
		}
		return nil
	})
}

// wait is the completion barrier. It reports whether the batch ended
// because its context expired.
func (b *batch) wait() bool {
	defer b.cancel()

	timedOut := b.group.Wait() != nil
	elapsed := time.Since(b.started).Round(time.Millisecond)
	if timedOut {
		b.c.logger.Printf("batch %s: gave up after %v: submitted=%d ok=%d failed=%d",
			b.id, elapsed, b.submitted, b.succeeded.Load(), b.failed.Load())
	} else {
		b.c.logger.Printf("batch %s: done in %v: submitted=%d ok=%d failed=%d",
			b.id, elapsed, b.submitted, b.succeeded.Load(), b.failed.Load())
	}
	return timedOut
}

// ProcAsync submits the present tasks and returns without waiting. Each ok
// result fills the matching holder slot; a nil task is skipped and its slot
// stays empty. Holder.Done closes once every submitted task is terminal.
//
// Under the CallerRuns pool policy a saturated pool may run a task on the
// calling goroutine before ProcAsync returns. Under the Block policy
// ProcAsync waits inside Submit until the pool has room, the batch timeout
// expires or ctx ends.
func ProcAsync[F, S, T any](ctx context.Context, c *Coordinator, first Task[F], second Task[S], third Task[T]) *Holder[F, S, T] {
	h := newHolder[F, S, T]()
	b := c.begin(ctx)

	launch(b, 0, first, h.setFirst)
	launch(b, 1, second, h.setSecond)
	launch(b, 2, third, h.setThird)

	go func() {
		b.wait()
		h.finish(c.propagate && b.failed.Load() > 0)
	}()
	return h
}

// ProcAll is ProcAsync followed by a wait on the holder. Its wall-clock cost
// is the slowest task, not the sum of all three.
func ProcAll[F, S, T any](ctx context.Context, c *Coordinator, first Task[F], second Task[S], third Task[T]) *Holder[F, S, T] {
	h := ProcAsync(ctx, c, first, second, third)
	<-h.Done()
	return h
}

// ProcCollection submits every non-nil task, waits for all of them and
// returns their ok results. With distinct set, equal values are kept once.
// Result order follows completion, not submission. Empty input returns an
// empty slice without touching the pool.
func ProcCollection[R comparable](ctx context.Context, c *Coordinator, tasks []Task[R], distinct bool) []R {
	if distinct {
		return CollectDistinct(ctx, c, tasks)
	}
	return Collect(ctx, c, tasks)
}

// Collect returns the multiset of ok results of tasks.
func Collect[R any](ctx context.Context, c *Coordinator, tasks []Task[R]) []R {
	return gather(ctx, c, tasks, newCollection[R](false))
}

// CollectDistinct returns the set of ok results of tasks.
// When R is an interface type, a result whose dynamic type is not hashable
// (a slice, map or func) cannot be deduplicated and is dropped.
func CollectDistinct[R comparable](ctx context.Context, c *Coordinator, tasks []Task[R]) []R {
	return gather(ctx, c, tasks, newCollection[R](true))
}

func gather[R any](ctx context.Context, c *Coordinator, tasks []Task[R], into *collection[R]) []R {
	if !hasTask(tasks) {
		return into.seal()
	}

	b := c.begin(ctx)
	for i, t := range tasks {
		launch(b, i, t, into.add)
	}
	b.wait()
	return into.seal()
}

func hasTask[R any](tasks []Task[R]) bool {
	for _, t := range tasks {
		if t != nil {
			return true
		}
	}
	return false
}
