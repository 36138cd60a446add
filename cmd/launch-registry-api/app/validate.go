package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/launch-registry-server/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Load a configuration file, apply defaults and run every validation check.
Exits non-zero and prints every problem found when the file is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(config.WithConfigPath(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "✓ Valid configuration")
			_, _ = fmt.Fprintf(out, "  Source type: %s\n", cfg.Source.Type)
			_, _ = fmt.Fprintf(out, "  Storage type: %s\n", cfg.Storage.Type)
			_, _ = fmt.Fprintf(out, "  Sync interval: %s\n", cfg.Sync.Interval)
			if cfg.Filter != nil {
				_, _ = fmt.Fprintln(out, "  Launch filter: enabled")
			}
			return nil
		},
	}
}
