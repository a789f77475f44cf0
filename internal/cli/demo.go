package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/fanout/fanout"
)

func newDemoCmd(opts *rootOptions) *cobra.Command {
	var unit time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the reference fan-out scenarios",
		Long: `demo runs three scenarios against the configured pool:

  collect  tasks sleeping 1u/2u/5u returning 2, 3, 2, as multiset and set
  holder   a fixed-shape batch returning [1 2 3], 1 and "awesome" at 7u/3u/15u
  divide   the same batch with a second task that divides by zero

u is the --unit duration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(context.Background()) }()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			runCollectScenario(ctx, out, rt.coord, unit)
			runHolderScenario(ctx, out, rt.coord, unit)
			if err := runDivideScenario(ctx, out, rt, unit); err != nil {
				return err
			}

			printSectionHeader(out, "POOL")
			return renderStats(out, rt.pool.Name(), rt.pool.Stats())
		},
	}

	cmd.Flags().DurationVar(&unit, "unit", 100*time.Millisecond, "time unit the scenario durations are expressed in")
	return cmd
}

func delayed[R any](d time.Duration, v R) fanout.Task[R] {
	return func(ctx context.Context) (R, error) {
		select {
		case <-time.After(d):
			return v, nil
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		}
	}
}

func runCollectScenario(ctx context.Context, out io.Writer, c *fanout.Coordinator, unit time.Duration) {
	printSectionHeader(out, "COLLECT", "Three tasks sleeping 1u, 2u and 5u return 2, 3 and 2.")

	tasks := []fanout.Task[int]{
		delayed(1*unit, 2),
		delayed(2*unit, 3),
		delayed(5*unit, 2),
	}

	for _, distinct := range []bool{false, true} {
		start := time.Now()
		got := fanout.ProcCollection(ctx, c, tasks, distinct)
		mode := "multiset"
		if distinct {
			mode = "set"
		}
		colorPrintf(out, cyan, "  %-9s", mode)
		colorPrintf(out, green, "%v", got)
		colorPrintf(out, yellow, "  in %v\n", time.Since(start).Round(time.Millisecond))
	}
}

func runHolderScenario(ctx context.Context, out io.Writer, c *fanout.Coordinator, unit time.Duration) {
	printSectionHeader(out, "HOLDER", "Fixed-shape batch: [1 2 3] at 7u, 1 at 3u, \"awesome\" at 15u.")

	start := time.Now()
	h := fanout.ProcAll(ctx, c,
		delayed(7*unit, []int{1, 2, 3}),
		delayed(3*unit, 1),
		delayed(15*unit, "awesome"),
	)
	printHolder(out, h)
	colorPrintf(out, yellow, "  took %v (slowest task 15u = %v)\n", time.Since(start).Round(time.Millisecond), 15*unit)
}

func runDivideScenario(ctx context.Context, out io.Writer, rt *session, unit time.Duration) error {
	printSectionHeader(out, "DIVIDE", "Second task divides by zero; per-slot isolation, then propagation.")

	zero := 0
	divide := fanout.Supplier(func() int { return 10 / zero })

	isolated := fanout.ProcAll(ctx, rt.coord, delayed(unit, []int{1, 2, 3}), divide, delayed(unit, "awesome"))
	colorPrintf(out, cyan, "  isolated\n")
	printHolder(out, isolated)

	propagating, err := fanout.New(rt.metered, fanout.WithFailurePropagation())
	if err != nil {
		return err
	}
	all := fanout.ProcAll(ctx, propagating, delayed(unit, []int{1, 2, 3}), divide, delayed(unit, "awesome"))
	colorPrintf(out, cyan, "  propagated\n")
	printHolder(out, all)
	return nil
}

func printHolder[F, S, T any](out io.Writer, h *fanout.Holder[F, S, T]) {
	first, ok1 := h.First()
	second, ok2 := h.Second()
	third, ok3 := h.Third()

	for i, s := range []string{
		slotString(first, ok1),
		slotString(second, ok2),
		slotString(third, ok3),
	} {
		c := green
		if s == "<empty>" {
			c = red
		}
		colorPrintf(out, bold, "    slot %d: ", i+1)
		colorPrintf(out, c, "%s\n", s)
	}
}
