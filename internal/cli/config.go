package cli

import (
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/fanout/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the pool configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				colorPrintf(cmd.ErrOrStderr(), red, "✗ %s: %v\n", opts.configPath, err)
				return err
			}
			colorPrintf(cmd.OutOrStdout(), green, "✓ %s: core=%d max=%d queue=%d policy=%s\n",
				opts.configPath, cfg.Pool.CoreThreads, cfg.Pool.MaxThreads,
				cfg.Pool.QueueCapacity, cfg.Pool.SaturationPolicy)
			return nil
		},
	})

	return cmd
}

