package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	registryapp "github.com/stacklok/launch-registry-server/internal/app"
)

// syncOutput is printed by the sync command
type syncOutput struct {
	LaunchCount int    `json:"launchCount"`
	Upserted    int    `json:"upserted"`
	Hash        string `json:"hash"`
}

func newSyncCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync cycle and exit",
		Long: `Fetch the configured source once, upsert every launch into the local store
and print the result as JSON. Uses the same retry and timeout policies as the server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			app, err := registryapp.NewRegistryApp(ctx, registryapp.WithConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}
			defer app.Close()

			result, err := app.SyncNow(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(syncOutput{
				LaunchCount: result.LaunchCount,
				Upserted:    result.Upserted,
				Hash:        result.Hash,
			})
		},
	}
}
