// Package report defines the domain types shared by the client pipeline and
// the backend service: report submissions, stored reports, and duplicate
// candidates.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Categories lists the accepted report categories.
var Categories = []string{"Water", "Road", "Waste", "Lighting", "Drainage", "Other"}

// Report statuses assigned by the backend.
const (
	StatusSubmitted  = "submitted"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Submission captures the fields of a report at composition time.
type Submission struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address,omitempty"`
	PhotoRef    string  `json:"photo_ref,omitempty"`
}

// Report is a stored civic-issue report as returned by the backend.
type Report struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PotentialDuplicate is a read-only projection of a nearby recent report,
// produced fresh on every submission and never persisted.
type PotentialDuplicate struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	DistanceM   int       `json:"distance_m"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks a submission for fields the backend would reject outright.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return errors.New("category is required")
	}
	if !validCategory(s.Category) {
		return fmt.Errorf("unknown category %q (expected one of %s)", s.Category, strings.Join(Categories, ", "))
	}
	if strings.TrimSpace(s.Description) == "" {
		return errors.New("description is required")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", s.Longitude)
	}
	return nil
}

func validCategory(category string) bool {
	for _, known := range Categories {
		if strings.EqualFold(known, category) {
			return true
		}
	}
	return false
}
