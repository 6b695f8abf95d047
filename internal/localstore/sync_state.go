package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SyncStateLastSync is the sync_state key recording the last successful sync.
const SyncStateLastSync = "last_sync_at"

// SetSyncState stores a key/value pair in the sync metadata collection.
func (s *Store) SetSyncState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set sync state %q: %w", key, err)
	}
	return nil
}

// GetSyncState reads a sync metadata value; ok is false when the key is absent.
func (s *Store) GetSyncState(ctx context.Context, key string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM sync_state WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get sync state %q: %w", key, err)
	}
	return value, true, nil
}

// SetLastSyncAt records the completion time of the last successful sync.
func (s *Store) SetLastSyncAt(ctx context.Context, at time.Time) error {
	return s.SetSyncState(ctx, SyncStateLastSync, at.UTC().Format(time.RFC3339Nano))
}

// LastSyncAt returns the recorded last-sync time, or the zero time when no
// sync has completed yet.
func (s *Store) LastSyncAt(ctx context.Context) (time.Time, error) {
	value, ok, err := s.GetSyncState(ctx, SyncStateLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", SyncStateLastSync, err)
	}
	return ts, nil
}
