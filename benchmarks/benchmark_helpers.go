// Package benchmarks measures the executor and coordinator under
// representative fan-out workloads.
package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/utkarsh5026/fanout/fanout"
	"github.com/utkarsh5026/fanout/pool"
)

// policyConfig is one executor configuration under benchmark.
type policyConfig struct {
	name string
	opts []pool.Option
}

// getPolicies returns one small, saturating configuration per policy so the
// saturation path is part of the measurement.
func getPolicies(workerCount int) []policyConfig {
	base := func(p pool.SaturationPolicy) []pool.Option {
		return []pool.Option{
			pool.WithCoreWorkers(workerCount),
			pool.WithMaxWorkers(workerCount * 2),
			pool.WithQueueCapacity(workerCount * 4),
			pool.WithSaturationPolicy(p),
		}
	}
	return []policyConfig{
		{name: "CallerRuns", opts: base(pool.CallerRuns)},
		{name: "Block", opts: base(pool.Block)},
		{name: "Reject", opts: base(pool.Reject)},
	}
}

func newBenchExecutor(b *testing.B, opts ...pool.Option) *pool.Executor {
	b.Helper()
	ex, err := pool.NewExecutor(opts...)
	if err != nil {
		b.Fatalf("NewExecutor failed: %v", err)
	}
	b.Cleanup(func() {
		_ = ex.Shutdown(context.Background())
	})
	return ex
}

func newBenchCoordinator(b *testing.B, p pool.Submitter, opts ...fanout.Option) *fanout.Coordinator {
	b.Helper()
	c, err := fanout.New(p, opts...)
	if err != nil {
		b.Fatalf("fanout.New failed: %v", err)
	}
	return c
}

// cpuBoundWork simulates a CPU-intensive task
func cpuBoundWork(iterations, seed int) fanout.Task[int] {
	return func(ctx context.Context) (int, error) {
		result := 0
		for i := range iterations {
			result += i * seed
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration, v int) fanout.Task[int] {
	return func(ctx context.Context) (int, error) {
		select {
		case <-time.After(delay):
			return v, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func makeTasks(n int, gen func(i int) fanout.Task[int]) []fanout.Task[int] {
	tasks := make([]fanout.Task[int], n)
	for i := range tasks {
		tasks[i] = gen(i)
	}
	return tasks
}
