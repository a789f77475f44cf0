// Package pool provides the bounded worker pool that fan-out batches run on.
//
// The primary type is Executor, a pool of reusable worker goroutines with a
// bounded pending-work queue and a saturation policy. It is constructed
// explicitly, shared by whoever holds it, and shut down explicitly; there is
// no package-level singleton.
//
// # Basic Usage
//
//	ex, err := pool.NewExecutor(
//	    pool.WithCoreWorkers(16),
//	    pool.WithMaxWorkers(100),
//	    pool.WithQueueCapacity(5000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ex.Shutdown(context.Background())
//
//	h, err := ex.Submit(ctx, func(ctx context.Context) {
//	    // work
//	})
//	_ = h.Wait(ctx)
//
// # Admission
//
// Submit never blocks on the work itself. A task is handed to a new worker
// while fewer than the core count are alive, otherwise it is queued; when the
// queue is full an extra worker is started up to the maximum count. Past that
// point the saturation policy decides:
//
//   - CallerRuns (default): the task runs synchronously on the submitting goroutine
//   - Reject: Submit returns ErrPoolSaturated
//   - Block: Submit waits, with jittered backoff, until the queue has room
//
// Workers above the core count exit after the keep-alive idle period.
//
// # Shutdown
//
// Shutdown stops admission and lets workers drain the queue. If draining takes
// longer than the configured timeout the pool context is cancelled, queued
// tasks are dropped (their handles complete with ErrTaskDropped) and
// ErrShutdownTimeout is returned.
//
// # Instrumentation
//
// Instrument wraps any Submitter and reports pool occupancy on every
// submission without changing its behavior:
//
//	sub := pool.Instrument(ex, pool.WithObserver(func(e pool.Event) {
//	    fmt.Println(e.Stats.Active, e.Stats.Queued)
//	}))
package pool
