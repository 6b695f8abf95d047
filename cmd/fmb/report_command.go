package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fixmybarangay/internal/api"
	"fixmybarangay/internal/config"
	"fixmybarangay/internal/events"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/queue"
	"fixmybarangay/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compose and browse civic-issue reports",
	}
	cmd.AddCommand(newReportAddCommand(ctx))
	cmd.AddCommand(newReportListCommand(ctx))
	return cmd
}

func newReportAddCommand(ctx *commandContext) *cobra.Command {
	var (
		category    string
		description string
		lat         float64
		lng         float64
		address     string
		photo       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a new report for submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			sub := report.Submission{
				Category:    normalizeCategory(category),
				Description: strings.TrimSpace(description),
				Latitude:    lat,
				Longitude:   lng,
				Address:     strings.TrimSpace(address),
			}

			if photo != "" {
				url, err := uploadPhoto(cmd, cfg, photo)
				if err != nil {
					// Keep the report; the photo can ride along next time the
					// backend is reachable.
					fmt.Fprintf(cmd.OutOrStdout(), "Photo upload failed (%v); queuing report without it.\n", err)
				} else {
					sub.PhotoRef = url
				}
			}

			if err := sub.Validate(); err != nil {
				return err
			}

			store, err := localstore.Open(cfg)
			if err != nil {
				// No durable queue available; the report can still go out
				// directly while the backend is reachable.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: local store unavailable (%v); submitting directly.\n", err)
				return submitDirect(cmd, cfg, sub)
			}
			defer store.Close()

			manager := queue.NewManager(cfg, store, api.NewClient(cfg), events.NewBus(), logging.NewNop())
			id, err := manager.Add(cmd.Context(), sub)
			if err != nil {
				return err
			}

			status, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued report %s (%d pending). It will be submitted on the next sync.\n", id, status.Pending)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Report category ("+strings.Join(report.Categories, ", ")+")")
	cmd.Flags().StringVar(&description, "description", "", "What is wrong and where")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the issue")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude of the issue")
	cmd.Flags().StringVar(&address, "address", "", "Street address or landmark (optional)")
	cmd.Flags().StringVar(&photo, "photo", "", "Path to a photo of the issue (optional)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func newReportListCommand(ctx *commandContext) *cobra.Command {
	var (
		category string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached reports from the last successful sync",
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

			filter := localstore.ReportFilter{
				Category: normalizeCategory(category),
				Status:   status,
			}
			reports, err := store.ListCachedReports(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached reports. Run 'fmb sync now' while online to refresh.")
				return nil
			}

			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{
					fmt.Sprintf("%d", r.ID),
					r.Category,
					truncate(r.Description, 48),
					r.Status,
					r.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Category", "Description", "Status", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}

// submitDirect sends the report straight to the backend, bypassing the queue.
func submitDirect(cmd *cobra.Command, cfg *config.Config, sub report.Submission) error {
	client := api.NewClient(cfg)
	result, err := client.SubmitReport(cmd.Context(), sub)
	if err != nil {
		return fmt.Errorf("submit report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Submitted report %d (%s).\n", result.Report.ID, result.Report.Status)
	for _, dup := range result.PotentialDuplicates {
		fmt.Fprintf(cmd.OutOrStdout(), "  Possible duplicate of #%d (%dm away): %s\n",
			dup.ID, dup.DistanceM, truncate(dup.Description, 48))
	}
	return nil
}

// uploadPhoto pushes a local image to the backend and returns the hosted URL.
func uploadPhoto(cmd *cobra.Command, cfg *config.Config, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	contentType := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	}

	client := api.NewClient(cfg)
	return client.UploadPhoto(cmd.Context(), contentType, file)
}

// normalizeCategory folds user input like "water" or "ROAD" into the
// canonical category spelling.
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(category))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-1] + "…"
}
