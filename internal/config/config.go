package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for the agent and CLI.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// API contains connection settings for the Fix My Barangay backend.
type API struct {
	BaseURL        string `toml:"base_url"`
	SubmitTimeout  int    `toml:"submit_timeout"`
	ProbeTimeout   int    `toml:"probe_timeout"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Queue contains offline submission queue policy.
type Queue struct {
	MaxItems     int `toml:"max_items"`
	MaxRetries   int `toml:"max_retries"`
	RecentErrors int `toml:"recent_errors"`
}

// Sync contains timing configuration for the sync manager.
type Sync struct {
	Interval          int `toml:"interval"`            // seconds between periodic sync cycles
	CycleTimeout      int `toml:"cycle_timeout"`       // wall-clock bound on one cycle, seconds
	SettleDelay       int `toml:"settle_delay"`        // wait after reconnect before syncing, seconds
	ProbeInterval     int `toml:"probe_interval"`      // seconds between reachability probes
	MaxCycleBackoff   int `toml:"max_cycle_backoff"`   // cap on between-cycle backoff, seconds
	CacheRefreshLimit int `toml:"cache_refresh_limit"` // reports fetched into the offline cache per sync
}

// Server contains configuration for the backend REST service.
type Server struct {
	Bind            string `toml:"bind"`
	DatabaseDSN     string `toml:"database_dsn"`
	DuplicateRadius int    `toml:"duplicate_radius_m"`
	DuplicateWindow int    `toml:"duplicate_window_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration shared by the CLI, agent, and server.
type Config struct {
	Paths   Paths   `toml:"paths"`
	API     API     `toml:"api"`
	Queue   Queue   `toml:"queue"`
	Sync    Sync    `toml:"sync"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fixmybarangay", "config.toml"), nil
}

// Load reads configuration from path (or the default location when path is
// empty), applies defaults, and validates the result. The returned string is
// the resolved path; the bool reports whether a config file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the agent needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the location of the local SQLite store.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "fixmybarangay.db")
}

// LockPath returns the agent's single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "agent.lock")
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
