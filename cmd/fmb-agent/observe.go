package main

import (
	"log/slog"

	"fixmybarangay/internal/events"
	"fixmybarangay/internal/logging"
)

// observeEvents mirrors pipeline events into the agent log so operators can
// follow queue activity without attaching a client.
func observeEvents(bus *events.Bus, logger *slog.Logger) {
	eventLogger := logging.NewComponentLogger(logger, "events")

	bus.Subscribe(events.ItemSynced, func(_ events.Event, payload any) {
		result, ok := payload.(events.ItemResult)
		if !ok {
			return
		}
		attrs := []logging.Attr{logging.String(logging.FieldItemID, result.ItemID)}
		if result.Report != nil {
			attrs = append(attrs, logging.Int64("report_id", result.Report.ID))
		}
		eventLogger.Info("report submitted", logging.Args(attrs...)...)
	})

	bus.Subscribe(events.ItemFailed, func(_ events.Event, payload any) {
		result, ok := payload.(events.ItemResult)
		if !ok {
			return
		}
		eventLogger.Warn("submission failed",
			logging.String(logging.FieldItemID, result.ItemID),
			logging.Int("retry_count", result.RetryCount),
			logging.Error(result.Err),
		)
	})

	bus.Subscribe(events.ItemDropped, func(_ events.Event, payload any) {
		result, ok := payload.(events.ItemResult)
		if !ok {
			return
		}
		eventLogger.Warn("submission dropped",
			logging.String(logging.FieldItemID, result.ItemID),
			logging.Error(result.Err),
		)
	})

	bus.Subscribe(events.SyncCompleted, func(_ events.Event, payload any) {
		result, ok := payload.(events.SyncResult)
		if !ok {
			return
		}
		if result.Submitted == 0 && result.Failed == 0 && result.Dropped == 0 {
			return
		}
		eventLogger.Info("sync finished",
			logging.Int("submitted", result.Submitted),
			logging.Int("failed", result.Failed),
			logging.Int("dropped", result.Dropped),
			logging.Duration("duration", result.Duration),
		)
	})
}
