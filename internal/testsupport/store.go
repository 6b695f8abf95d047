package testsupport

import (
	"testing"

	"fixmybarangay/internal/config"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/report"
)

// MustOpenStore opens a localstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *localstore.Store {
	t.Helper()

	store, err := localstore.Open(cfg)
	if err != nil {
		t.Fatalf("localstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Submission returns a valid test submission. The description distinguishes
// items when several are enqueued.
func Submission(description string) report.Submission {
	return report.Submission{
		Category:    "Water",
		Description: description,
		Latitude:    14.5995,
		Longitude:   120.9842,
		Address:     "Barangay 659, Ermita, Manila",
	}
}
