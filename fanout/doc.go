// Package fanout distributes batches of independent tasks across one shared
// worker pool and joins on their completion.
//
// A Coordinator is built around an injected pool.Submitter:
//
//	ex, _ := pool.NewExecutor(pool.WithCoreWorkers(8))
//	defer ex.Shutdown(context.Background())
//	c, _ := fanout.New(ex, fanout.WithTimeout(10*time.Second))
//
// Fixed-shape batches fill a three-slot Holder:
//
//	h := fanout.ProcAll(ctx, c,
//	    fanout.Supplier(loadUser),
//	    fanout.Supplier(loadOrders),
//	    nil, // third slot stays empty, nothing runs for it
//	)
//	user, ok := h.First()
//
// Dynamic-shape batches return the ok results of any number of tasks:
//
//	ids := fanout.CollectDistinct(ctx, c, tasks)
//
// # Failure isolation
//
// Every task runs inside a wrapper that turns errors, panics and absent
// values into a failed Outcome. A failed task contributes nothing: its slot
// stays empty or it adds no element to the collection. Siblings are never
// affected, and no task error reaches the caller. A task the pool refuses to
// admit is treated the same way.
//
// WithFailurePropagation switches fixed-shape batches to leave every slot
// empty when any of their tasks fails.
//
// # Timeouts
//
// With WithTimeout, or a deadline on the caller's context, a batch stops
// waiting at expiry. Its result is sealed: outstanding slots stay empty and
// results arriving later are discarded. Running tasks observe the
// cancellation through their context.
package fanout
