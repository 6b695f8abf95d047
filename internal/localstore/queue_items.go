package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fixmybarangay/internal/report"
)

// PutQueueItem inserts or replaces a queue item by id.
func (s *Store) PutQueueItem(ctx context.Context, item QueueItem) error {
	payload, err := json.Marshal(item.Submission)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO queue_items (
            id, kind, payload_json, enqueued_at, retry_count, last_error
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Kind,
		string(payload),
		item.EnqueuedAt.UTC().Format(time.RFC3339Nano),
		item.RetryCount,
		nullableString(item.LastError),
	)
	if err != nil {
		return fmt.Errorf("put queue item: %w", err)
	}
	return nil
}

// ListQueueItems returns all queued items in FIFO order by enqueue time.
func (s *Store) ListQueueItems(ctx context.Context) ([]QueueItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, payload_json, enqueued_at, retry_count, last_error
         FROM queue_items ORDER BY enqueued_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue items: %w", err)
	}
	return items, nil
}

// GetQueueItem fetches one item by id; returns nil when absent.
func (s *Store) GetQueueItem(ctx context.Context, id string) (*QueueItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, kind, payload_json, enqueued_at, retry_count, last_error
         FROM queue_items WHERE id = ?`,
		id,
	)
	item, err := scanQueueItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// DeleteQueueItem removes an item; deleting a missing id is not an error.
func (s *Store) DeleteQueueItem(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM queue_items WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	return nil
}

// ClearQueueItems removes all queued items.
func (s *Store) ClearQueueItems(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM queue_items"); err != nil {
		return fmt.Errorf("clear queue items: %w", err)
	}
	return nil
}

// CountQueueItems returns the number of queued items.
func (s *Store) CountQueueItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM queue_items").Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue items: %w", err)
	}
	return count, nil
}

// RecentQueueErrors returns the most recent non-empty last_error values,
// newest enqueue first, capped at limit.
func (s *Store) RecentQueueErrors(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT last_error FROM queue_items
         WHERE last_error IS NOT NULL AND last_error != ''
         ORDER BY enqueued_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent queue errors: %w", err)
	}
	defer rows.Close()

	var errs []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan queue error: %w", err)
		}
		errs = append(errs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue errors: %w", err)
	}
	return errs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row rowScanner) (QueueItem, error) {
	var (
		item       QueueItem
		payload    string
		enqueuedAt string
		lastError  sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Kind, &payload, &enqueuedAt, &item.RetryCount, &lastError); err != nil {
		if err == sql.ErrNoRows {
			return QueueItem{}, err
		}
		return QueueItem{}, fmt.Errorf("scan queue item: %w", err)
	}

	var sub report.Submission
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		return QueueItem{}, fmt.Errorf("decode payload for %s: %w", item.ID, err)
	}
	item.Submission = sub

	ts, err := time.Parse(time.RFC3339Nano, enqueuedAt)
	if err != nil {
		return QueueItem{}, fmt.Errorf("parse enqueued_at for %s: %w", item.ID, err)
	}
	item.EnqueuedAt = ts
	item.LastError = lastError.String
	return item, nil
}
