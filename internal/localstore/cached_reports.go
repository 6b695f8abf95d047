package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fixmybarangay/internal/report"
)

// PutCachedReport inserts or replaces a cached report by id.
func (s *Store) PutCachedReport(ctx context.Context, r report.Report) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO cached_reports (
            id, category, description, latitude, longitude, address, photo_url, status, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Category,
		r.Description,
		r.Latitude,
		r.Longitude,
		nullableString(r.Address),
		nullableString(r.PhotoURL),
		r.Status,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put cached report: %w", err)
	}
	return nil
}

// ReplaceCachedReports clears the cache and stores the given reports in a
// single transaction, so offline readers never observe a half-refreshed cache.
func (s *Store) ReplaceCachedReports(ctx context.Context, reports []report.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache refresh: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cached_reports"); err != nil {
		return fmt.Errorf("clear cached reports: %w", err)
	}
	for _, r := range reports {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO cached_reports (
                id, category, description, latitude, longitude, address, photo_url, status, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Category, r.Description, r.Latitude, r.Longitude,
			nullableString(r.Address), nullableString(r.PhotoURL), r.Status,
			r.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert cached report %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache refresh: %w", err)
	}
	return nil
}

// ListCachedReports returns cached reports, optionally filtered by the
// indexed category/status columns, newest first.
func (s *Store) ListCachedReports(ctx context.Context, filter ReportFilter) ([]report.Report, error) {
	query := `SELECT id, category, description, latitude, longitude, address, photo_url, status, created_at
        FROM cached_reports`
	var (
		clauses []string
		args    []any
	)
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cached reports: %w", err)
	}
	defer rows.Close()

	var reports []report.Report
	for rows.Next() {
		var (
			r         report.Report
			address   sql.NullString
			photoURL  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Category, &r.Description, &r.Latitude, &r.Longitude,
			&address, &photoURL, &r.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cached report: %w", err)
		}
		r.Address = address.String
		r.PhotoURL = photoURL.String
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %d: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached reports: %w", err)
	}
	return reports, nil
}

// ClearCachedReports empties the report cache.
func (s *Store) ClearCachedReports(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cached_reports"); err != nil {
		return fmt.Errorf("clear cached reports: %w", err)
	}
	return nil
}
