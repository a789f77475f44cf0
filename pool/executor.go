package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/utkarsh5026/fanout/internal/algorithms"
	"github.com/utkarsh5026/fanout/internal/cpu"
	"github.com/utkarsh5026/fanout/internal/queue"
)

const (
	blockInitialDelay = 500 * time.Microsecond
	blockMaxDelay     = 50 * time.Millisecond
	blockJitter       = 0.2
)

// job is one admitted Runnable together with its completion handle.
type job struct {
	run    Runnable
	handle *Handle
}

// Executor is a bounded pool of reusable worker goroutines.
//
// It keeps up to the core number of workers alive, buffers excess work in a
// fixed-capacity queue, grows to the maximum number of workers when the queue
// is full, and applies its SaturationPolicy beyond that. All admission state
// and counters are synchronized internally.
type Executor struct {
	conf    *executorConfig
	queue   *queue.Ring[*job]
	backoff algorithms.BackoffStrategy

	// mu guards closed against concurrent worker starts
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	forced atomic.Bool

	live   atomic.Int32
	peak   atomic.Int32
	active atomic.Int32
	slots  atomic.Int64

	submitted  atomic.Uint64
	completed  atomic.Uint64
	rejected   atomic.Uint64
	callerRuns atomic.Uint64
	dropped    atomic.Uint64
}

var _ Submitter = (*Executor)(nil)

// NewExecutor creates an Executor. No worker starts until the first Submit.
//
// Default configuration:
//   - core workers: 16
//   - max workers: 100
//   - queue capacity: 5000
//   - keep-alive: 60s
//   - saturation policy: CallerRuns
//   - shutdown timeout: 30m
//
// Example:
//
//	ex, err := NewExecutor(
//	    WithCoreWorkers(4),
//	    WithMaxWorkers(8),
//	    WithQueueCapacity(64),
//	    WithSaturationPolicy(Reject),
//	)
func NewExecutor(opts ...Option) (*Executor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		conf:    cfg,
		queue:   queue.New[*job](cfg.queueCapacity),
		backoff: algorithms.NewBackoffStrategy(algorithms.BackoffJittered, blockInitialDelay, blockMaxDelay, blockJitter),
		ctx:     ctx,
		cancel:  cancel,
	}

	cfg.logger.Printf("[%s] pool initialized: core=%d max=%d queue=%d keepAlive=%v policy=%s",
		cfg.name, cfg.coreWorkers, cfg.maxWorkers, e.queue.Cap(), cfg.keepAlive, cfg.policy)

	return e, nil
}

// Submit admits task for asynchronous execution. It does not wait for the
// task to run; the returned Handle completes when it does.
//
// Returns:
//   - ErrNilTask if task is nil
//   - ErrPoolClosed once Shutdown has been called
//   - ErrPoolSaturated under the Reject policy when no capacity is left
//   - ctx.Err() under the Block policy when ctx ends before room frees up
//
// Under CallerRuns a saturated pool runs task before Submit returns, and the
// returned handle is already complete.
func (e *Executor) Submit(ctx context.Context, task Runnable) (*Handle, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	j := &job{run: task, handle: newHandle()}

	for attempt := 0; ; attempt++ {
		admitted, err := e.admit(j)
		if err != nil {
			return nil, err
		}
		if admitted {
			return j.handle, nil
		}

		switch e.conf.policy {
		case Reject:
			e.rejected.Add(1)
			return nil, ErrPoolSaturated

		case CallerRuns:
			e.submitted.Add(1)
			e.callerRuns.Add(1)
			debugLog("caller runs task, queue=%d workers=%d", e.queue.Len(), e.live.Load())
			e.execute(j)
			return j.handle, nil

		case Block:
			timer := time.NewTimer(e.backoff.NextDelay(min(attempt, 16)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// admit tries, in order: a new core worker, the queue, a new extra worker.
// It reports false when all three are exhausted.
func (e *Executor) admit(j *job) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return false, ErrPoolClosed
	}

	e.submitted.Add(1)

	if e.startWorker(j, e.conf.coreWorkers) {
		return true, nil
	}

	if err := e.queue.TryEnqueue(j); err == nil {
		// zero core workers: make sure someone is around to run it
		if e.live.Load() == 0 {
			e.startWorker(nil, e.conf.maxWorkers)
		}
		return true, nil
	}

	if e.startWorker(j, e.conf.maxWorkers) {
		return true, nil
	}

	e.submitted.Add(^uint64(0))
	return false, nil
}

// startWorker starts a worker seeded with first if fewer than limit are live.
// Callers must hold mu for reading.
func (e *Executor) startWorker(first *job, limit int) bool {
	for {
		n := e.live.Load()
		if int(n) >= limit {
			return false
		}
		if e.live.CompareAndSwap(n, n+1) {
			e.notePeak(n + 1)
			break
		}
	}

	e.workers.Add(1)
	go e.worker(first)
	return true
}

func (e *Executor) notePeak(n int32) {
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (e *Executor) worker(first *job) {
	defer e.workers.Done()

	if e.conf.pinWorkers {
		release, err := cpu.Pin(int(e.slots.Add(1) - 1))
		defer release()
		if err != nil {
			e.conf.logger.Printf("[%s] cpu pinning failed: %v", e.conf.name, err)
		}
	}

	if first != nil {
		e.execute(first)
	}

	for {
		j, ok := e.next()
		if !ok {
			return
		}
		e.execute(j)
	}
}

// next blocks for the next queued job. It returns false when the worker
// should exit: the queue is closed and drained, the pool was forced down, or
// the worker idled past keep-alive while above the core count.
func (e *Executor) next() (*job, bool) {
	for {
		ctx, cancel := e.ctx, context.CancelFunc(func() {})
		if e.conf.keepAlive > 0 && int(e.live.Load()) > e.conf.coreWorkers {
			ctx, cancel = context.WithTimeout(e.ctx, e.conf.keepAlive)
		}

		j, err := e.queue.Dequeue(ctx)
		cancel()

		switch {
		case err == nil:
			return j, true
		case errors.Is(err, queue.ErrClosed), e.ctx.Err() != nil:
			e.live.Add(-1)
			return nil, false
		case e.retire():
			debugLog("worker retired after %v idle", e.conf.keepAlive)
			return nil, false
		}
	}
}

// retire gives up this worker's live slot if the pool is above its core size.
func (e *Executor) retire() bool {
	for {
		n := e.live.Load()
		if int(n) <= e.conf.coreWorkers {
			return false
		}
		if !e.live.CompareAndSwap(n, n-1) {
			continue
		}

		// a producer may have enqueued while seeing us as live
		if e.queue.Len() > 0 && e.reclaim() {
			return false
		}
		return true
	}
}

func (e *Executor) reclaim() bool {
	for {
		n := e.live.Load()
		if int(n) >= e.conf.maxWorkers {
			return false
		}
		if e.live.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (e *Executor) execute(j *job) {
	if e.forced.Load() {
		e.drop(j)
		return
	}

	if e.conf.rateLimiter != nil {
		if err := e.conf.rateLimiter.Wait(e.ctx); err != nil {
			e.drop(j)
			return
		}
	}

	e.active.Add(1)
	err := runWithRecovery(e.ctx, j.run)
	e.active.Add(-1)
	e.completed.Add(1)

	j.handle.complete(err)
}

func (e *Executor) drop(j *job) {
	e.dropped.Add(1)
	j.handle.complete(ErrTaskDropped)
}

// Shutdown stops admission and waits for queued and running tasks to finish.
//
// The wait is bounded by the configured shutdown timeout and by ctx. When
// either expires the pool context is cancelled, every task still queued is
// dropped, and an error wrapping ErrShutdownTimeout is returned. A second
// call returns ErrPoolClosed.
//
// Example:
//
//	ex, _ := NewExecutor(WithShutdownTimeout(10 * time.Second))
//	defer func() {
//	    if err := ex.Shutdown(context.Background()); err != nil {
//	        log.Printf("shutdown: %v", err)
//	    }
//	}()
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrPoolClosed
	}
	e.closed = true
	e.mu.Unlock()

	e.queue.Close()

	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(done)
	}()

	start := time.Now()
	err := waitUntil(ctx, done, e.conf.shutdownTimeout)
	if err == nil {
		e.cancel()
		e.conf.logger.Printf("[%s] pool drained in %v: completed=%d", e.conf.name,
			time.Since(start).Round(time.Millisecond), e.completed.Load())
		return nil
	}

	e.forced.Store(true)
	e.cancel()

	dropped := 0
	for {
		j, ok := e.queue.TryDequeue()
		if !ok {
			break
		}
		e.drop(j)
		dropped++
	}

	e.conf.logger.Printf("[%s] shutdown forced after %v: dropped=%d running=%d",
		e.conf.name, time.Since(start).Round(time.Millisecond), dropped, e.active.Load())

	return fmt.Errorf("%w (dropped %d queued, %d still running)", err, dropped, e.active.Load())
}

// Stats returns a snapshot of the executor's occupancy and counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Submitted:     e.submitted.Load(),
		Completed:     e.completed.Load(),
		Rejected:      e.rejected.Load(),
		CallerRuns:    e.callerRuns.Load(),
		Dropped:       e.dropped.Load(),
		Active:        int(e.active.Load()),
		Queued:        e.queue.Len(),
		Workers:       int(e.live.Load()),
		Peak:          int(e.peak.Load()),
		CoreWorkers:   e.conf.coreWorkers,
		MaxWorkers:    e.conf.maxWorkers,
		QueueCapacity: e.queue.Cap(),
	}
}

// Name returns the executor's configured name.
func (e *Executor) Name() string {
	return e.conf.name
}
