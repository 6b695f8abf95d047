package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fixmybarangay/internal/report"
)

// PutDeadLetter records a dropped queue item for later inspection.
func (s *Store) PutDeadLetter(ctx context.Context, letter DeadLetter) error {
	payload, err := json.Marshal(letter.Submission)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO dead_letters (
            id, kind, payload_json, enqueued_at, dropped_at, retry_count, last_error, reason
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		letter.ID,
		letter.Kind,
		string(payload),
		letter.EnqueuedAt.UTC().Format(time.RFC3339Nano),
		letter.DroppedAt.UTC().Format(time.RFC3339Nano),
		letter.RetryCount,
		nullableString(letter.LastError),
		string(letter.Reason),
	)
	if err != nil {
		return fmt.Errorf("put dead letter: %w", err)
	}
	return nil
}

// ListDeadLetters returns dropped items, most recently dropped first.
func (s *Store) ListDeadLetters(ctx context.Context) ([]DeadLetter, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, payload_json, enqueued_at, dropped_at, retry_count, last_error, reason
         FROM dead_letters ORDER BY dropped_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var letters []DeadLetter
	for rows.Next() {
		var (
			letter     DeadLetter
			payload    string
			enqueuedAt string
			droppedAt  string
			lastError  sql.NullString
			reason     string
		)
		if err := rows.Scan(&letter.ID, &letter.Kind, &payload, &enqueuedAt, &droppedAt,
			&letter.RetryCount, &lastError, &reason); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}

		var sub report.Submission
		if err := json.Unmarshal([]byte(payload), &sub); err != nil {
			return nil, fmt.Errorf("decode payload for %s: %w", letter.ID, err)
		}
		letter.Submission = sub

		if letter.EnqueuedAt, err = time.Parse(time.RFC3339Nano, enqueuedAt); err != nil {
			return nil, fmt.Errorf("parse enqueued_at for %s: %w", letter.ID, err)
		}
		if letter.DroppedAt, err = time.Parse(time.RFC3339Nano, droppedAt); err != nil {
			return nil, fmt.Errorf("parse dropped_at for %s: %w", letter.ID, err)
		}
		letter.LastError = lastError.String
		letter.Reason = DropReason(reason)
		letters = append(letters, letter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letters: %w", err)
	}
	return letters, nil
}

// CountDeadLetters returns the number of dropped items on record.
func (s *Store) CountDeadLetters(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM dead_letters").Scan(&count); err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return count, nil
}

// ClearDeadLetters removes all dropped-item records.
func (s *Store) ClearDeadLetters(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM dead_letters"); err != nil {
		return fmt.Errorf("clear dead letters: %w", err)
	}
	return nil
}
