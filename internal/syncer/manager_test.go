package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fixmybarangay/internal/api"
	"fixmybarangay/internal/config"
	"fixmybarangay/internal/events"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/queue"
	"fixmybarangay/internal/report"
	"fixmybarangay/internal/syncer"
	"fixmybarangay/internal/testsupport"
)

// fakeBackend stands in for the REST API: reachability, submission, and the
// report listing that feeds the cache.
type fakeBackend struct {
	mu         sync.Mutex
	probeErr   error
	submitErr  error
	submitHang bool
	nextID     int64
	submitted  []string
	reports    []report.Report
}

func (b *fakeBackend) Probe(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.probeErr
}

func (b *fakeBackend) SubmitReport(ctx context.Context, sub report.Submission) (*api.SubmitResult, error) {
	b.mu.Lock()
	hang := b.submitHang
	b.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	b.nextID++
	b.submitted = append(b.submitted, sub.Description)
	created := report.Report{ID: b.nextID, Category: sub.Category, Description: sub.Description, Status: report.StatusSubmitted, CreatedAt: time.Now().UTC()}
	b.reports = append(b.reports, created)
	return &api.SubmitResult{Report: created}, nil
}

func (b *fakeBackend) FetchReports(ctx context.Context, category, status string, limit int) ([]report.Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]report.Report, len(b.reports))
	copy(out, b.reports)
	return out, nil
}

func (b *fakeBackend) setProbeErr(err error) {
	b.mu.Lock()
	b.probeErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) submittedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submitted)
}

func newSyncManager(t *testing.T, backend *fakeBackend, mutate func(*config.Config)) (*syncer.Manager, *queue.Manager, *localstore.Store, *events.Bus) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Sync.SettleDelay = 0
	cfg.Sync.ProbeInterval = 1
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	bus := events.NewBus()
	queueManager := queue.NewManager(cfg, store, backend, bus, logging.NewNop())
	manager := syncer.NewManager(cfg, queueManager, backend, store, bus, logging.NewNop())
	return manager, queueManager, store, bus
}

func TestOfflineReconnectSyncsQueuedItem(t *testing.T) {
	backend := &fakeBackend{probeErr: errors.New("no route to host")}
	manager, queueManager, store, bus := newSyncManager(t, backend, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var syncedIDs []string
	bus.Subscribe(events.ItemSynced, func(_ events.Event, payload any) {
		if result, ok := payload.(events.ItemResult); ok {
			mu.Lock()
			syncedIDs = append(syncedIDs, result.ItemID)
			mu.Unlock()
		}
	})

	id, err := queueManager.Add(ctx, testsupport.Submission("queued while offline"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	// Give the initial probe time to fail; nothing may be submitted offline.
	time.Sleep(300 * time.Millisecond)
	if backend.submittedCount() != 0 {
		t.Fatal("submission attempted while offline")
	}

	// Connectivity returns; the periodic probe notices and triggers a sync.
	backend.setProbeErr(nil)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetQueueItem(ctx, id)
		if err != nil {
			t.Fatalf("GetQueueItem: %v", err)
		}
		if item == nil {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}

	if backend.submittedCount() != 1 {
		t.Fatalf("submitted %d times, want exactly once", backend.submittedCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(syncedIDs) != 1 || syncedIDs[0] != id {
		t.Fatalf("item-synced events = %v, want one for %s", syncedIDs, id)
	}
}

func TestSuccessfulSyncRefreshesCacheAndTimestamp(t *testing.T) {
	backend := &fakeBackend{}
	manager, queueManager, store, _ := newSyncManager(t, backend, nil)
	ctx := context.Background()

	if _, err := queueManager.Add(ctx, testsupport.Submission("cached afterwards")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	if err := manager.ForceSync(ctx); err != nil {
		t.Fatalf("ForceSync: %v", err)
	}

	cached, err := store.ListCachedReports(ctx, localstore.ReportFilter{})
	if err != nil {
		t.Fatalf("ListCachedReports: %v", err)
	}
	if len(cached) != 1 || cached[0].Description != "cached afterwards" {
		t.Fatalf("cache = %+v", cached)
	}

	at, err := store.LastSyncAt(ctx)
	if err != nil {
		t.Fatalf("LastSyncAt: %v", err)
	}
	if at.IsZero() {
		t.Fatal("last sync time not recorded")
	}
	if status := manager.Status(); status.LastSyncAt.IsZero() {
		t.Fatalf("status = %+v, want LastSyncAt set", status)
	}
}

func TestForceSyncWhileOffline(t *testing.T) {
	backend := &fakeBackend{probeErr: errors.New("airplane mode")}
	manager, _, _, _ := newSyncManager(t, backend, nil)
	ctx := context.Background()

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	err := manager.ForceSync(ctx)
	if !errors.Is(err, syncer.ErrOffline) {
		t.Fatalf("err = %v, want ErrOffline", err)
	}
}

func TestForceSyncWhenStopped(t *testing.T) {
	backend := &fakeBackend{}
	manager, _, _, _ := newSyncManager(t, backend, nil)

	if err := manager.ForceSync(context.Background()); !errors.Is(err, syncer.ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
}

func TestCycleTimeoutReportsSyncFailed(t *testing.T) {
	backend := &fakeBackend{submitHang: true}
	manager, queueManager, store, bus := newSyncManager(t, backend, func(cfg *config.Config) {
		cfg.Sync.CycleTimeout = 1
	})
	ctx := context.Background()

	failed := make(chan events.SyncResult, 1)
	bus.Subscribe(events.SyncFailed, func(_ events.Event, payload any) {
		if result, ok := payload.(events.SyncResult); ok {
			select {
			case failed <- result:
			default:
			}
		}
	})

	id, err := queueManager.Add(ctx, testsupport.Submission("stuck"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	if err := manager.ForceSync(ctx); err == nil {
		t.Fatal("ForceSync succeeded despite hung backend")
	}

	select {
	case result := <-failed:
		if result.Err == nil {
			t.Fatal("sync-failed event carried no error")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("sync-failed event not published")
	}

	// The item survives the timed-out cycle with its retry budget intact.
	item, err := store.GetQueueItem(ctx, id)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if item == nil {
		t.Fatal("item removed by timed-out cycle")
	}
	if item.RetryCount != 0 {
		t.Fatalf("timed-out cycle burned a retry: %+v", item)
	}
}

func TestStatusSnapshot(t *testing.T) {
	backend := &fakeBackend{}
	manager, _, _, _ := newSyncManager(t, backend, nil)
	ctx := context.Background()

	if status := manager.Status(); status.Enabled {
		t.Fatal("manager reports enabled before Start")
	}

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if status := manager.Status(); !status.Enabled {
		t.Fatal("manager reports disabled after Start")
	}

	manager.Stop()
	if status := manager.Status(); status.Enabled {
		t.Fatal("manager reports enabled after Stop")
	}
}

func TestStartTwiceFails(t *testing.T) {
	backend := &fakeBackend{}
	manager, _, _, _ := newSyncManager(t, backend, nil)
	ctx := context.Background()

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	if err := manager.Start(ctx); err == nil {
		t.Fatal("second Start succeeded")
	}
}
