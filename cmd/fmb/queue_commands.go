package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fixmybarangay/internal/localstore"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the offline submission queue",
	}
	cmd.AddCommand(newQueueStatusCommand(ctx))
	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))
	cmd.AddCommand(newQueueRetryCommand(ctx))
	cmd.AddCommand(newQueueDeadLettersCommand(ctx))
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending count and recent errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, store, _, err := ctx.openQueue()
			if err != nil {
				return err
			}
			defer store.Close()

			status, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pending:  %d\n", status.Pending)
			fmt.Fprintf(out, "Dropped:  %d\n", status.Dropped)
			if len(status.Errors) == 0 {
				fmt.Fprintln(out, "Errors:   none")
				return nil
			}
			fmt.Fprintln(out, "Recent errors:")
			for _, msg := range status.Errors {
				fmt.Fprintf(out, "  - %s\n", msg)
			}
			return nil
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued submissions in send order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := localstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListQueueItems(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				lastError := item.LastError
				if lastError == "" {
					lastError = "-"
				}
				rows = append(rows, []string{
					shortID(item.ID),
					item.Submission.Category,
					truncate(item.Submission.Description, 40),
					item.EnqueuedAt.Local().Format(time.DateTime),
					fmt.Sprintf("%d", item.RetryCount),
					truncate(lastError, 40),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Category", "Description", "Enqueued", "Retries", "Last Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the queue without --yes")
			}
			manager, store, _, err := ctx.openQueue()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := manager.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Queue cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the queue")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Reset errored items and attempt submission now",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, store, _, err := ctx.openQueue()
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := manager.RetryFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d, failed %d, dropped %d.\n",
				result.Submitted, result.Failed, result.Dropped)
			return nil
		},
	}
}

func newQueueDeadLettersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dead-letters",
		Short: "List submissions dropped after exhausting retries",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, store, _, err := ctx.openQueue()
			if err != nil {
				return err
			}
			defer store.Close()

			letters, err := manager.DeadLetters(cmd.Context())
			if err != nil {
				return err
			}
			if len(letters) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No dropped submissions.")
				return nil
			}

			rows := make([][]string, 0, len(letters))
			for _, letter := range letters {
				rows = append(rows, []string{
					shortID(letter.ID),
					letter.Submission.Category,
					truncate(letter.Submission.Description, 40),
					string(letter.Reason),
					letter.DroppedAt.Local().Format(time.DateTime),
					truncate(letter.LastError, 40),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Category", "Description", "Reason", "Dropped", "Last Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
