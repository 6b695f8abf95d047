package dupdetect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"fixmybarangay/internal/geo"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/report"
)

// maxMatches caps how many nearby reports are attached to a response.
const maxMatches = 5

// Detector queries the reports table for recent nearby submissions.
type Detector struct {
	db     *sql.DB
	logger *slog.Logger
	radius float64
	window time.Duration
}

// NewDetector builds a detector with the given search radius in meters and
// recency window.
func NewDetector(db *sql.DB, radiusMeters float64, window time.Duration, logger *slog.Logger) *Detector {
	return &Detector{
		db:     db,
		logger: logging.NewComponentLogger(logger, "dupdetect"),
		radius: radiusMeters,
		window: window,
	}
}

// FindNearby returns up to five reports within the radius of (lat, lng)
// created inside the recency window, nearest first. excludeID keeps the
// freshly inserted report out of its own result set.
func (d *Detector) FindNearby(ctx context.Context, lat, lng float64, excludeID int64) ([]report.PotentialDuplicate, error) {
	rect := boundingRect(lat, lng, d.radius)
	since := time.Now().UTC().Add(-d.window)

	query := `SELECT id, description, latitude, longitude, created_at
	  FROM reports
	  WHERE id != ?
	    AND created_at >= ?
	    AND latitude BETWEEN ? AND ?
	    AND longitude BETWEEN ? AND ?`
	rows, err := d.db.QueryContext(ctx, query,
		excludeID, since,
		s1.Angle(rect.Lat.Lo).Degrees(), s1.Angle(rect.Lat.Hi).Degrees(),
		s1.Angle(rect.Lng.Lo).Degrees(), s1.Angle(rect.Lng.Hi).Degrees(),
	)
	if err != nil {
		return nil, fmt.Errorf("query nearby reports: %w", err)
	}
	defer rows.Close()

	var matches []report.PotentialDuplicate
	for rows.Next() {
		var (
			id          int64
			description string
			rowLat      float64
			rowLng      float64
			createdAt   time.Time
		)
		if err := rows.Scan(&id, &description, &rowLat, &rowLng, &createdAt); err != nil {
			return nil, fmt.Errorf("scan nearby report: %w", err)
		}
		distance := geo.DistanceMeters(lat, lng, rowLat, rowLng)
		if distance > d.radius {
			// Inside the bounding rectangle but outside the circle.
			continue
		}
		matches = append(matches, report.PotentialDuplicate{
			ID:          id,
			Description: description,
			DistanceM:   int(math.Round(distance)),
			CreatedAt:   createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby reports: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceM < matches[j].DistanceM
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	d.logger.Debug("duplicate scan complete",
		logging.Float64("lat", lat),
		logging.Float64("lng", lng),
		logging.Int("matches", len(matches)),
	)
	return matches, nil
}

// boundingRect is the latitude/longitude rectangle that fully contains the
// circle of radiusMeters around the center.
func boundingRect(lat, lng, radiusMeters float64) s2.Rect {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	angle := s1.Angle(radiusMeters / geo.EarthRadiusMeters)
	return s2.CapFromCenterAngle(center, angle).RectBound()
}
