package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fixmybarangay/internal/api"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Control queue synchronization",
	}
	cmd.AddCommand(newSyncNowCommand(ctx))
	return cmd
}

func newSyncNowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Drain the submission queue immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, store, cfg, err := ctx.openQueue()
			if err != nil {
				return err
			}
			defer store.Close()

			client := api.NewClient(cfg)
			if err := client.Probe(cmd.Context()); err != nil {
				return fmt.Errorf("backend is not reachable: %w", err)
			}

			cycleCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Sync.CycleTimeout)*time.Second)
			defer cancel()

			result, err := manager.Process(cycleCtx)
			if err != nil {
				return err
			}

			if reports, err := client.FetchReports(cycleCtx, "", "", cfg.Sync.CacheRefreshLimit); err == nil {
				if err := store.ReplaceCachedReports(cycleCtx, reports); err == nil {
					_ = store.SetLastSyncAt(cmd.Context(), time.Now().UTC())
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sync complete: %d submitted, %d failed, %d dropped.\n",
				result.Submitted, result.Failed, result.Dropped)
			return nil
		},
	}
}
