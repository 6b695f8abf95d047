package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"fixmybarangay/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists = true for a path with no file")
	}
	if resolved != path {
		t.Fatalf("resolved = %s, want %s", resolved, path)
	}
	if cfg.Queue.MaxItems != 100 || cfg.Queue.MaxRetries != 3 {
		t.Fatalf("queue defaults = %+v", cfg.Queue)
	}
	if cfg.Sync.Interval != 300 || cfg.Sync.CycleTimeout != 30 || cfg.Sync.SettleDelay != 2 {
		t.Fatalf("sync defaults = %+v", cfg.Sync)
	}
	if cfg.Server.DuplicateRadius != 120 || cfg.Server.DuplicateWindow != 24 {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
}

func TestLoadAppliesFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[api]
base_url = "https://reports.example.ph/"

[queue]
max_items = 25

[sync]
interval = 120
cycle_timeout = 20
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for a written file")
	}
	// Trailing slash is trimmed during normalization.
	if cfg.API.BaseURL != "https://reports.example.ph" {
		t.Fatalf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Queue.MaxItems != 25 {
		t.Fatalf("max_items = %d", cfg.Queue.MaxItems)
	}
	if cfg.Sync.Interval != 120 || cfg.Sync.CycleTimeout != 20 {
		t.Fatalf("sync = %+v", cfg.Sync)
	}
	// Unset sections keep defaults.
	if cfg.Queue.MaxRetries != 3 {
		t.Fatalf("max_retries = %d", cfg.Queue.MaxRetries)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"relative base url", "[api]\nbase_url = \"not a url\"\n"},
		{"cycle timeout too long", "[sync]\ninterval = 30\ncycle_timeout = 60\n"},
		{"unknown log format", "[logging]\nformat = \"xml\"\n"},
		{"absurd retry budget", "[queue]\nmax_retries = 50\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDatabaseDSNEnvFallback(t *testing.T) {
	t.Setenv("FMB_DATABASE_DSN", "fmb:secret@tcp(127.0.0.1:3306)/fmb?parseTime=true")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.DatabaseDSN != "fmb:secret@tcp(127.0.0.1:3306)/fmb?parseTime=true" {
		t.Fatalf("database_dsn = %q", cfg.Server.DatabaseDSN)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("WriteSample overwrote an existing file")
	}

	// The sample must itself be a loadable configuration.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestStoreAndLockPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/fmb-test"

	if got := cfg.StorePath(); got != "/tmp/fmb-test/fixmybarangay.db" {
		t.Fatalf("StorePath = %s", got)
	}
	if got := cfg.LockPath(); got != "/tmp/fmb-test/agent.lock" {
		t.Fatalf("LockPath = %s", got)
	}
}
