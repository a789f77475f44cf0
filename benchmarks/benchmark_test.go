package benchmarks

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/utkarsh5026/fanout/fanout"
	"github.com/utkarsh5026/fanout/pool"
)

func BenchmarkExecutor_Submit(b *testing.B) {
	workers := runtime.GOMAXPROCS(0)

	for _, p := range getPolicies(workers) {
		b.Run(p.name, func(b *testing.B) {
			ex := newBenchExecutor(b, p.opts...)
			ctx := context.Background()
			var wg sync.WaitGroup

			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				wg.Add(1)
				if _, err := ex.Submit(ctx, func(ctx context.Context) {
					defer wg.Done()
				}); err != nil {
					wg.Done()
				}
			}
			wg.Wait()
		})
	}
}

func BenchmarkExecutor_ParallelSubmit(b *testing.B) {
	ex := newBenchExecutor(b,
		pool.WithCoreWorkers(runtime.GOMAXPROCS(0)),
		pool.WithMaxWorkers(runtime.GOMAXPROCS(0)*2),
		pool.WithQueueCapacity(1024),
	)
	ctx := context.Background()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h, err := ex.Submit(ctx, func(ctx context.Context) {})
			if err == nil {
				_ = h.Wait(ctx)
			}
		}
	})
}

func BenchmarkCollect_CPUBound(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("tasks=%d", size), func(b *testing.B) {
			ex := newBenchExecutor(b, pool.WithCoreWorkers(runtime.GOMAXPROCS(0)))
			c := newBenchCoordinator(b, ex)
			tasks := makeTasks(size, func(i int) fanout.Task[int] { return cpuBoundWork(1000, i) })
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				if got := fanout.Collect(ctx, c, tasks); len(got) != size {
					b.Fatalf("expected %d results, got %d", size, len(got))
				}
			}
		})
	}
}

func BenchmarkCollect_IOBound(b *testing.B) {
	ex := newBenchExecutor(b, pool.WithCoreWorkers(64), pool.WithMaxWorkers(64))
	c := newBenchCoordinator(b, ex)
	tasks := makeTasks(64, func(i int) fanout.Task[int] { return ioBoundWork(time.Millisecond, i) })
	ctx := context.Background()

	for b.Loop() {
		fanout.Collect(ctx, c, tasks)
	}
}

func BenchmarkProcAll(b *testing.B) {
	ex := newBenchExecutor(b, pool.WithCoreWorkers(runtime.GOMAXPROCS(0)))
	c := newBenchCoordinator(b, ex)
	ctx := context.Background()

	first := cpuBoundWork(500, 1)
	second := fanout.Supplier(func() string { return "second" })
	third := fanout.Supplier(func() []int { return []int{1, 2, 3} })

	b.ReportAllocs()
	for b.Loop() {
		fanout.ProcAll(ctx, c, first, second, third)
	}
}

func BenchmarkInstrumented_Overhead(b *testing.B) {
	for _, instrumented := range []bool{false, true} {
		b.Run(fmt.Sprintf("instrumented=%v", instrumented), func(b *testing.B) {
			ex := newBenchExecutor(b, pool.WithCoreWorkers(runtime.GOMAXPROCS(0)))
			var s pool.Submitter = ex
			if instrumented {
				s = pool.Instrument(ex, pool.WithExecutionEvents(), pool.WithObserver(func(pool.Event) {}))
			}
			c := newBenchCoordinator(b, s)
			tasks := makeTasks(100, func(i int) fanout.Task[int] { return cpuBoundWork(100, i) })
			ctx := context.Background()

			b.ResetTimer()
			for b.Loop() {
				fanout.Collect(ctx, c, tasks)
			}
		})
	}
}
