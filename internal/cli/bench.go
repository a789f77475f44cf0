package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/fanout/fanout"
)

type benchOptions struct {
	tasks    int
	batches  int
	duration time.Duration
	quiet    bool
}

func newBenchCmd(opts *rootOptions) *cobra.Command {
	bo := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure batch wall clock against the serial cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bo.tasks < 1 || bo.batches < 1 {
				return fmt.Errorf("--tasks and --batches must be positive")
			}

			rt, err := newSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(context.Background()) }()

			return runBench(cmd, rt, bo)
		},
	}

	cmd.Flags().IntVar(&bo.tasks, "tasks", 100, "tasks per batch")
	cmd.Flags().IntVar(&bo.batches, "batches", 4, "concurrent batches")
	cmd.Flags().DurationVar(&bo.duration, "duration", 10*time.Millisecond, "sleep per task")
	cmd.Flags().BoolVarP(&bo.quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func runBench(cmd *cobra.Command, rt *session, bo *benchOptions) error {
	out := cmd.OutOrStdout()
	total := bo.tasks * bo.batches

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Running tasks"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetVisibility(!bo.quiet),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)

	collected := make([]int, bo.batches)
	g, ctx := errgroup.WithContext(cmd.Context())

	start := time.Now()
	for b := range bo.batches {
		g.Go(func() error {
			tasks := make([]fanout.Task[int], bo.tasks)
			for i := range tasks {
				tasks[i] = func(ctx context.Context) (int, error) {
					defer func() { _ = bar.Add(1) }()
					select {
					case <-time.After(bo.duration):
						return b*bo.tasks + i, nil
					case <-ctx.Done():
						return 0, ctx.Err()
					}
				}
			}
			collected[b] = len(fanout.Collect(ctx, rt.coord, tasks))
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	wall := time.Since(start)
	_ = bar.Finish()

	ok := 0
	for _, n := range collected {
		ok += n
	}
	serial := time.Duration(total) * bo.duration

	printSectionHeader(out, "BENCH",
		fmt.Sprintf("%d batches of %d tasks, %v each, sharing one pool", bo.batches, bo.tasks, bo.duration))

	table := tablewriter.NewWriter(out)
	table.Header("Tasks", "Results", "Wall Clock", "Serial Cost", "Speedup")
	_ = table.Append(
		strconv.Itoa(total),
		strconv.Itoa(ok),
		wall.Round(time.Millisecond).String(),
		serial.Round(time.Millisecond).String(),
		fmt.Sprintf("%.1fx", float64(serial)/float64(wall)),
	)
	if err := table.Render(); err != nil {
		colorPrintf(out, red, "Error in rendering bench table\n")
	}

	if ok != total {
		colorPrintf(out, yellow, "⚠️  %d tasks failed or timed out\n", total-ok)
	} else {
		colorPrintf(out, green, "✅ all %d tasks returned\n", total)
	}

	_, _ = fmt.Fprintln(out)
	return renderStats(out, rt.pool.Name(), rt.metered.Stats())
}
