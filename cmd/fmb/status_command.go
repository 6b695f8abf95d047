package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"fixmybarangay/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, queue, and last-sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, store, cfg, err := ctx.openQueue()
			if err != nil {
				return err
			}
			defer store.Close()

			queueStatus, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}

			network := colorize(text.FgGreen, "online")
			client := api.NewClient(cfg)
			if err := client.Probe(cmd.Context()); err != nil {
				network = colorize(text.FgRed, "offline")
			}

			lastSync := "never"
			if at, err := store.LastSyncAt(cmd.Context()); err == nil && !at.IsZero() {
				lastSync = fmt.Sprintf("%s (%s ago)",
					at.Local().Format(time.DateTime),
					time.Since(at).Round(time.Second))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:    %s (%s)\n", network, cfg.API.BaseURL)
			fmt.Fprintf(out, "Pending:    %d\n", queueStatus.Pending)
			fmt.Fprintf(out, "Dropped:    %d\n", queueStatus.Dropped)
			fmt.Fprintf(out, "Last sync:  %s\n", lastSync)
			return nil
		},
	}
}
