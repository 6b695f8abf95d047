package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fixmybarangay/internal/api"
	"fixmybarangay/internal/config"
	"fixmybarangay/internal/events"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/report"
)

// Submitter delivers one report submission to the backend.
type Submitter interface {
	SubmitReport(ctx context.Context, sub report.Submission) (*api.SubmitResult, error)
}

// Status is a point-in-time queue snapshot. Readers may observe an item
// mid-retry; counts are eventually consistent.
type Status struct {
	Pending    int
	Processing bool
	Dropped    int
	Errors     []string
}

// CycleResult summarizes one drain cycle.
type CycleResult struct {
	Submitted int
	Failed    int
	Dropped   int
}

// Manager coordinates the offline submission queue.
type Manager struct {
	store     *localstore.Store
	submitter Submitter
	bus       *events.Bus
	logger    *slog.Logger

	maxItems     int
	maxRetries   int
	recentErrors int

	mu         sync.Mutex
	inflight   chan struct{}
	lastResult CycleResult
	lastErr    error
}

// NewManager constructs a queue manager.
func NewManager(cfg *config.Config, store *localstore.Store, submitter Submitter, bus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		store:        store,
		submitter:    submitter,
		bus:          bus,
		logger:       logging.NewComponentLogger(logger, "queue"),
		maxItems:     cfg.Queue.MaxItems,
		maxRetries:   cfg.Queue.MaxRetries,
		recentErrors: cfg.Queue.RecentErrors,
	}
}

// Add persists a new queue item and returns its id. Returns ErrQueueFull at
// capacity.
func (m *Manager) Add(ctx context.Context, sub report.Submission) (string, error) {
	count, err := m.store.CountQueueItems(ctx)
	if err != nil {
		return "", err
	}
	if count >= m.maxItems {
		return "", fmt.Errorf("%w (%d items)", ErrQueueFull, count)
	}

	item := localstore.QueueItem{
		ID:         uuid.NewString(),
		Kind:       localstore.KindCreateReport,
		Submission: sub,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := m.store.PutQueueItem(ctx, item); err != nil {
		return "", err
	}

	m.logger.Info("queued submission",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("category", sub.Category),
	)
	m.bus.Publish(events.QueueUpdated, count+1)
	return item.ID, nil
}

// Status reports pending/dropped counts and the most recent item errors.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	pending, err := m.store.CountQueueItems(ctx)
	if err != nil {
		return Status{}, err
	}
	dropped, err := m.store.CountDeadLetters(ctx)
	if err != nil {
		return Status{}, err
	}
	recent, err := m.store.RecentQueueErrors(ctx, m.recentErrors)
	if err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	processing := m.inflight != nil
	m.mu.Unlock()

	return Status{Pending: pending, Processing: processing, Dropped: dropped, Errors: recent}, nil
}

// Process drains the queue sequentially in FIFO order. A call made while a
// cycle is already running joins that cycle and returns its outcome.
// Individual submission failures are recorded per item; only storage errors
// and context cancellation propagate.
func (m *Manager) Process(ctx context.Context) (CycleResult, error) {
	m.mu.Lock()
	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()
		select {
		case <-done:
			m.mu.Lock()
			result, err := m.lastResult, m.lastErr
			m.mu.Unlock()
			return result, err
		case <-ctx.Done():
			return CycleResult{}, ctx.Err()
		}
	}
	done := make(chan struct{})
	m.inflight = done
	m.mu.Unlock()

	result, err := m.runCycle(ctx)

	m.mu.Lock()
	m.lastResult, m.lastErr = result, err
	m.inflight = nil
	close(done)
	m.mu.Unlock()

	return result, err
}

// Clear removes all queued items. Safe to call repeatedly.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.ClearQueueItems(ctx); err != nil {
		return err
	}
	m.bus.Publish(events.QueueUpdated, 0)
	return nil
}

// RetryFailed clears last_error on items that have failed but not exhausted
// their retries, then runs a drain cycle.
func (m *Manager) RetryFailed(ctx context.Context) (CycleResult, error) {
	items, err := m.store.ListQueueItems(ctx)
	if err != nil {
		return CycleResult{}, err
	}
	for _, item := range items {
		if item.LastError == "" || item.RetryCount >= m.maxRetries {
			continue
		}
		item.LastError = ""
		if err := m.store.PutQueueItem(ctx, item); err != nil {
			return CycleResult{}, err
		}
	}
	return m.Process(ctx)
}

// DeadLetters lists dropped submissions, newest first.
func (m *Manager) DeadLetters(ctx context.Context) ([]localstore.DeadLetter, error) {
	return m.store.ListDeadLetters(ctx)
}

func (m *Manager) runCycle(ctx context.Context) (CycleResult, error) {
	items, err := m.store.ListQueueItems(ctx)
	if err != nil {
		return CycleResult{}, err
	}

	var result CycleResult
	for i := range items {
		item := items[i]

		if item.RetryCount >= m.maxRetries {
			if err := m.deadLetter(ctx, item, localstore.DropRetriesExhausted, nil); err != nil {
				return result, err
			}
			result.Dropped++
			continue
		}

		submitted, submitErr := m.submitter.SubmitReport(ctx, item.Submission)
		if submitErr == nil {
			if err := m.store.DeleteQueueItem(ctx, item.ID); err != nil {
				return result, err
			}
			result.Submitted++
			m.logger.Info("submission delivered",
				logging.String(logging.FieldItemID, item.ID),
				logging.Int64("report_id", submitted.Report.ID),
				logging.Int("duplicates_nearby", len(submitted.PotentialDuplicates)),
			)
			m.bus.Publish(events.ItemSynced, events.ItemResult{ItemID: item.ID, Report: &submitted.Report})
			continue
		}

		if ctx.Err() != nil {
			// Cycle timed out or was cancelled; leave the item untouched so the
			// next cycle picks it up without burning a retry.
			return result, ctx.Err()
		}

		if api.IsPermanent(submitErr) {
			item.LastError = submitErr.Error()
			if err := m.deadLetter(ctx, item, localstore.DropPermanentError, submitErr); err != nil {
				return result, err
			}
			result.Dropped++
			continue
		}

		item.RetryCount++
		item.LastError = submitErr.Error()
		if err := m.store.PutQueueItem(ctx, item); err != nil {
			return result, err
		}
		result.Failed++
		m.logger.Warn("submission attempt failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.Int("retry_count", item.RetryCount),
			logging.Error(submitErr),
		)
		m.bus.Publish(events.ItemFailed, events.ItemResult{
			ItemID:     item.ID,
			Err:        submitErr,
			RetryCount: item.RetryCount,
		})
	}

	if result.Submitted > 0 || result.Dropped > 0 {
		pending, err := m.store.CountQueueItems(ctx)
		if err != nil {
			return result, err
		}
		m.bus.Publish(events.QueueUpdated, pending)
	}
	return result, nil
}

func (m *Manager) deadLetter(ctx context.Context, item localstore.QueueItem, reason localstore.DropReason, cause error) error {
	letter := localstore.DeadLetter{
		QueueItem: item,
		DroppedAt: time.Now().UTC(),
		Reason:    reason,
	}
	if err := m.store.PutDeadLetter(ctx, letter); err != nil {
		return err
	}
	if err := m.store.DeleteQueueItem(ctx, item.ID); err != nil {
		return err
	}
	m.logger.Warn("submission dropped",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("reason", string(reason)),
		logging.Int("retry_count", item.RetryCount),
	)
	m.bus.Publish(events.ItemDropped, events.ItemResult{
		ItemID:     item.ID,
		Err:        cause,
		RetryCount: item.RetryCount,
	})
	return nil
}
