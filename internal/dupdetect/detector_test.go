package dupdetect_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"fixmybarangay/internal/dupdetect"
	"fixmybarangay/internal/logging"
)

const (
	centerLat = 14.5995
	centerLng = 120.9842
)

func newDetector(t *testing.T) (*dupdetect.Detector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	detector := dupdetect.NewDetector(db, 120, 24*time.Hour, logging.NewNop())
	return detector, mock
}

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "description", "latitude", "longitude", "created_at"})
}

func TestFindNearbyFiltersByExactDistance(t *testing.T) {
	detector, mock := newDetector(t)
	now := time.Now().UTC()

	// Both rows fall inside the bounding rectangle; only the first is inside
	// the 120m circle (the second sits in a rectangle corner, ~170m away).
	rows := reportRows().
		AddRow(1, "leaking pipe", centerLat+0.0009, centerLng, now.Add(-time.Hour)).
		AddRow(2, "corner case", centerLat+0.00108, centerLng+0.00111, now.Add(-2*time.Hour))
	mock.ExpectQuery("SELECT id, description, latitude, longitude, created_at").
		WithArgs(int64(99), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	matches, err := detector.FindNearby(context.Background(), centerLat, centerLng, 99)
	if err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %+v, want only the in-radius row", matches)
	}
	if matches[0].ID != 1 {
		t.Fatalf("match id = %d", matches[0].ID)
	}
	if matches[0].DistanceM <= 0 || matches[0].DistanceM > 120 {
		t.Fatalf("distance = %d, want within (0, 120]", matches[0].DistanceM)
	}
}

func TestFindNearbySortsAndCapsAtFive(t *testing.T) {
	detector, mock := newDetector(t)
	now := time.Now().UTC()

	rows := reportRows()
	// Seven rows at increasing distance north of the center, all within 120m.
	offsets := []float64{0.0009, 0.0001, 0.0005, 0.0007, 0.0003, 0.0006, 0.0002}
	for i, offset := range offsets {
		rows.AddRow(int64(i+1), "report", centerLat+offset, centerLng, now.Add(-time.Minute))
	}
	mock.ExpectQuery("SELECT id, description, latitude, longitude, created_at").
		WillReturnRows(rows)

	matches, err := detector.FindNearby(context.Background(), centerLat, centerLng, 0)
	if err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("got %d matches, want 5", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].DistanceM < matches[i-1].DistanceM {
			t.Fatalf("matches not in ascending distance order: %+v", matches)
		}
	}
	// The nearest row (offset 0.0001, id 2) must survive the cap.
	if matches[0].ID != 2 {
		t.Fatalf("nearest match id = %d, want 2", matches[0].ID)
	}
}

// timeNear matches a time.Time argument within a minute of want.
type timeNear struct {
	want time.Time
}

func (m timeNear) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	if !ok {
		return false
	}
	diff := ts.Sub(m.want)
	if diff < 0 {
		diff = -diff
	}
	return diff < time.Minute
}

func TestFindNearbyRestrictsToRecencyWindow(t *testing.T) {
	detector, mock := newDetector(t)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT id, description, latitude, longitude, created_at").
		WithArgs(int64(0), timeNear{want: cutoff},
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(reportRows())

	if _, err := detector.FindNearby(context.Background(), centerLat, centerLng, 0); err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("query did not use a 24h cutoff: %v", err)
	}
}

func TestFindNearbyEmptyResult(t *testing.T) {
	detector, mock := newDetector(t)

	mock.ExpectQuery("SELECT id, description, latitude, longitude, created_at").
		WillReturnRows(reportRows())

	matches, err := detector.FindNearby(context.Background(), centerLat, centerLng, 0)
	if err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %+v, want none", matches)
	}
}

func TestFindNearbyQueryError(t *testing.T) {
	detector, mock := newDetector(t)

	mock.ExpectQuery("SELECT id, description, latitude, longitude, created_at").
		WillReturnError(errors.New("table is locked"))

	if _, err := detector.FindNearby(context.Background(), centerLat, centerLng, 0); err == nil {
		t.Fatal("expected query error to propagate")
	}
}
