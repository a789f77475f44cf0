// Package cli implements the fanout command line tool.
package cli

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/fanout/config"
	"github.com/utkarsh5026/fanout/fanout"
	"github.com/utkarsh5026/fanout/pool"
)

// Version is injected at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
	noColor    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "fanout",
		Short: "Bounded fan-out/fan-in over a shared worker pool",
		Long: `fanout runs batches of independent tasks on one bounded worker pool
and joins on their completion.

Examples:
  # run the reference scenarios with 1s time units
  fanout demo --unit 1s

  # check that batch wall clock tracks the slowest task
  fanout bench --tasks 200 --duration 20ms

  # print the effective configuration
  fanout config show --config fanout.yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "fanout.yaml", "path to the YAML configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pool and batch events to stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newDemoCmd(opts))
	root.AddCommand(newBenchCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// session is one configured pool plus the coordinator bound to it.
type session struct {
	cfg     *config.Config
	pool    *pool.Executor
	coord   *fanout.Coordinator
	metered *pool.Instrumented
}

func newSession(opts *rootOptions, stderr io.Writer, extra ...pool.Option) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "", log.LstdFlags|log.Lmicroseconds)
	}

	popts, err := cfg.PoolOptions()
	if err != nil {
		return nil, err
	}
	ex, err := pool.NewExecutor(append(append(popts, pool.WithLogger(logger)), extra...)...)
	if err != nil {
		return nil, err
	}

	iopts := []pool.InstrumentOption{}
	if opts.verbose {
		iopts = append(iopts, pool.WithEventLogger(logger))
	}
	metered := pool.Instrument(ex, iopts...)

	copts, err := cfg.CoordinatorOptions()
	if err != nil {
		_ = ex.Shutdown(context.Background())
		return nil, err
	}
	coord, err := fanout.New(metered, append(copts, fanout.WithLogger(logger))...)
	if err != nil {
		_ = ex.Shutdown(context.Background())
		return nil, err
	}

	return &session{cfg: cfg, pool: ex, coord: coord, metered: metered}, nil
}

func (r *session) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return r.pool.Shutdown(ctx)
}
