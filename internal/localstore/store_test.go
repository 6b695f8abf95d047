package localstore_test

import (
	"context"
	"testing"
	"time"

	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/report"
	"fixmybarangay/internal/testsupport"
)

func newQueueItem(id, description string, enqueuedAt time.Time) localstore.QueueItem {
	return localstore.QueueItem{
		ID:         id,
		Kind:       localstore.KindCreateReport,
		Submission: testsupport.Submission(description),
		EnqueuedAt: enqueuedAt,
	}
}

func TestQueueItemsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	item := newQueueItem("item-1", "broken streetlight", base)
	if err := store.PutQueueItem(ctx, item); err != nil {
		t.Fatalf("PutQueueItem: %v", err)
	}

	got, err := store.GetQueueItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if got == nil {
		t.Fatal("GetQueueItem returned nil for stored item")
	}
	if got.Submission.Description != "broken streetlight" {
		t.Fatalf("description = %q", got.Submission.Description)
	}
	if !got.EnqueuedAt.Equal(base) {
		t.Fatalf("enqueued_at = %v, want %v", got.EnqueuedAt, base)
	}

	missing, err := store.GetQueueItem(ctx, "no-such-item")
	if err != nil {
		t.Fatalf("GetQueueItem missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing item, got %+v", missing)
	}
}

func TestQueueItemsListedInEnqueueOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	// Insert out of order; listing must follow enqueue time.
	for _, item := range []localstore.QueueItem{
		newQueueItem("third", "c", base.Add(2*time.Second)),
		newQueueItem("first", "a", base),
		newQueueItem("second", "b", base.Add(time.Second)),
	} {
		if err := store.PutQueueItem(ctx, item); err != nil {
			t.Fatalf("PutQueueItem: %v", err)
		}
	}

	items, err := store.ListQueueItems(ctx)
	if err != nil {
		t.Fatalf("ListQueueItems: %v", err)
	}
	wantOrder := []string{"first", "second", "third"}
	if len(items) != len(wantOrder) {
		t.Fatalf("listed %d items, want %d", len(items), len(wantOrder))
	}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Fatalf("items[%d].ID = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestQueueItemUpdatePreservesPosition(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	first := newQueueItem("first", "a", base)
	second := newQueueItem("second", "b", base.Add(time.Second))
	for _, item := range []localstore.QueueItem{first, second} {
		if err := store.PutQueueItem(ctx, item); err != nil {
			t.Fatalf("PutQueueItem: %v", err)
		}
	}

	first.RetryCount = 2
	first.LastError = "backend timeout"
	if err := store.PutQueueItem(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	items, err := store.ListQueueItems(ctx)
	if err != nil {
		t.Fatalf("ListQueueItems: %v", err)
	}
	if items[0].ID != "first" || items[0].RetryCount != 2 || items[0].LastError != "backend timeout" {
		t.Fatalf("updated item out of place or missing fields: %+v", items[0])
	}
}

func TestDeleteAndClearAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.PutQueueItem(ctx, newQueueItem("only", "x", time.Now().UTC())); err != nil {
		t.Fatalf("PutQueueItem: %v", err)
	}
	if err := store.DeleteQueueItem(ctx, "only"); err != nil {
		t.Fatalf("DeleteQueueItem: %v", err)
	}
	if err := store.DeleteQueueItem(ctx, "only"); err != nil {
		t.Fatalf("second DeleteQueueItem: %v", err)
	}

	if err := store.ClearQueueItems(ctx); err != nil {
		t.Fatalf("ClearQueueItems on empty queue: %v", err)
	}
	count, err := store.CountQueueItems(ctx)
	if err != nil {
		t.Fatalf("CountQueueItems: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestRecentQueueErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, msg := range []string{"", "timeout", "", "refused", "dns"} {
		item := newQueueItem(string(rune('a'+i)), "d", base.Add(time.Duration(i)*time.Second))
		item.LastError = msg
		if err := store.PutQueueItem(ctx, item); err != nil {
			t.Fatalf("PutQueueItem: %v", err)
		}
	}

	errs, err := store.RecentQueueErrors(ctx, 2)
	if err != nil {
		t.Fatalf("RecentQueueErrors: %v", err)
	}
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	for _, msg := range errs {
		if msg == "" {
			t.Fatal("blank error message returned")
		}
	}
}

func TestDeadLetters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	letter := localstore.DeadLetter{
		QueueItem: newQueueItem("dropped-1", "stale report", time.Now().UTC().Truncate(time.Second)),
		DroppedAt: time.Now().UTC().Truncate(time.Second),
		Reason:    localstore.DropRetriesExhausted,
	}
	letter.LastError = "connection refused"
	if err := store.PutDeadLetter(ctx, letter); err != nil {
		t.Fatalf("PutDeadLetter: %v", err)
	}

	letters, err := store.ListDeadLetters(ctx)
	if err != nil {
		t.Fatalf("ListDeadLetters: %v", err)
	}
	if len(letters) != 1 {
		t.Fatalf("got %d dead letters, want 1", len(letters))
	}
	if letters[0].Reason != localstore.DropRetriesExhausted {
		t.Fatalf("reason = %s", letters[0].Reason)
	}
	if letters[0].LastError != "connection refused" {
		t.Fatalf("last error = %q", letters[0].LastError)
	}

	count, err := store.CountDeadLetters(ctx)
	if err != nil {
		t.Fatalf("CountDeadLetters: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	if err := store.ClearDeadLetters(ctx); err != nil {
		t.Fatalf("ClearDeadLetters: %v", err)
	}
	if count, _ = store.CountDeadLetters(ctx); count != 0 {
		t.Fatalf("count after clear = %d, want 0", count)
	}
}

func TestCachedReportsReplaceAndFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	first := []report.Report{
		{ID: 1, Category: "Water", Description: "old", Status: report.StatusSubmitted, CreatedAt: now.Add(-time.Hour)},
	}
	if err := store.ReplaceCachedReports(ctx, first); err != nil {
		t.Fatalf("ReplaceCachedReports: %v", err)
	}

	second := []report.Report{
		{ID: 2, Category: "Road", Description: "pothole", Status: report.StatusSubmitted, CreatedAt: now},
		{ID: 3, Category: "Water", Description: "leak", Status: report.StatusResolved, CreatedAt: now},
	}
	if err := store.ReplaceCachedReports(ctx, second); err != nil {
		t.Fatalf("ReplaceCachedReports: %v", err)
	}

	all, err := store.ListCachedReports(ctx, localstore.ReportFilter{})
	if err != nil {
		t.Fatalf("ListCachedReports: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("replace did not supersede old cache: %d reports", len(all))
	}
	for _, r := range all {
		if r.ID == 1 {
			t.Fatal("stale report survived replacement")
		}
	}

	water, err := store.ListCachedReports(ctx, localstore.ReportFilter{Category: "Water"})
	if err != nil {
		t.Fatalf("filter by category: %v", err)
	}
	if len(water) != 1 || water[0].ID != 3 {
		t.Fatalf("category filter returned %+v", water)
	}

	resolved, err := store.ListCachedReports(ctx, localstore.ReportFilter{Status: report.StatusResolved})
	if err != nil {
		t.Fatalf("filter by status: %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != 3 {
		t.Fatalf("status filter returned %+v", resolved)
	}
}

func TestSyncState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	at, err := store.LastSyncAt(ctx)
	if err != nil {
		t.Fatalf("LastSyncAt empty: %v", err)
	}
	if !at.IsZero() {
		t.Fatalf("expected zero time before first sync, got %v", at)
	}

	want := time.Now().UTC().Truncate(time.Second)
	if err := store.SetLastSyncAt(ctx, want); err != nil {
		t.Fatalf("SetLastSyncAt: %v", err)
	}
	got, err := store.LastSyncAt(ctx)
	if err != nil {
		t.Fatalf("LastSyncAt: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("LastSyncAt = %v, want %v", got, want)
	}
}

func TestReopenPreservesQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := localstore.Open(cfg)
	if err != nil {
		t.Fatalf("localstore.Open: %v", err)
	}
	ctx := context.Background()

	if err := store.PutQueueItem(ctx, newQueueItem("persisted", "survives restart", time.Now().UTC())); err != nil {
		t.Fatalf("PutQueueItem: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	items, err := reopened.ListQueueItems(ctx)
	if err != nil {
		t.Fatalf("ListQueueItems after reopen: %v", err)
	}
	if len(items) != 1 || items[0].ID != "persisted" {
		t.Fatalf("queue not durable across reopen: %+v", items)
	}
}
