package server

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"fixmybarangay/internal/report"
)

//go:embed schema.sql
var schemaSQL string

// OpenDatabase connects to MySQL and applies the reports schema.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func insertReport(ctx context.Context, db *sql.DB, sub report.Submission) (report.Report, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `INSERT
	  INTO reports (category, description, latitude, longitude, address, photo_url, status, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Category, sub.Description, sub.Latitude, sub.Longitude,
		sub.Address, sub.PhotoRef, report.StatusSubmitted, now)
	if err != nil {
		return report.Report{}, fmt.Errorf("insert report: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return report.Report{}, fmt.Errorf("report id: %w", err)
	}
	return report.Report{
		ID:          id,
		Category:    sub.Category,
		Description: sub.Description,
		Latitude:    sub.Latitude,
		Longitude:   sub.Longitude,
		Address:     sub.Address,
		PhotoURL:    sub.PhotoRef,
		Status:      report.StatusSubmitted,
		CreatedAt:   now,
	}, nil
}

func queryReports(ctx context.Context, db *sql.DB, category, status string, limit int) ([]report.Report, error) {
	query := `SELECT id, category, description, latitude, longitude, address, photo_url, status, created_at
	  FROM reports`
	var (
		clauses []string
		args    []any
	)
	if category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, category)
	}
	if status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]report.Report, 0, limit)
	for rows.Next() {
		var r report.Report
		if err := rows.Scan(&r.ID, &r.Category, &r.Description, &r.Latitude, &r.Longitude,
			&r.Address, &r.PhotoURL, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
