package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeQueue()
	c.normalizeSync()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.SubmitTimeout <= 0 {
		c.API.SubmitTimeout = defaultSubmitTimeout
	}
	if c.API.ProbeTimeout <= 0 {
		c.API.ProbeTimeout = defaultProbeTimeout
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeQueue() {
	if c.Queue.MaxItems <= 0 {
		c.Queue.MaxItems = defaultQueueMaxItems
	}
	if c.Queue.MaxRetries <= 0 {
		c.Queue.MaxRetries = defaultQueueMaxRetries
	}
	if c.Queue.RecentErrors <= 0 {
		c.Queue.RecentErrors = defaultQueueRecentErrors
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = defaultSyncInterval
	}
	if c.Sync.CycleTimeout <= 0 {
		c.Sync.CycleTimeout = defaultCycleTimeout
	}
	if c.Sync.SettleDelay < 0 {
		c.Sync.SettleDelay = defaultSettleDelay
	}
	if c.Sync.ProbeInterval <= 0 {
		c.Sync.ProbeInterval = defaultProbeInterval
	}
	if c.Sync.MaxCycleBackoff <= 0 {
		c.Sync.MaxCycleBackoff = defaultMaxCycleBackoff
	}
	if c.Sync.CacheRefreshLimit <= 0 {
		c.Sync.CacheRefreshLimit = defaultCacheRefreshLimit
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.DatabaseDSN == "" {
		if value, ok := os.LookupEnv("FMB_DATABASE_DSN"); ok {
			c.Server.DatabaseDSN = strings.TrimSpace(value)
		}
	}
	if c.Server.DuplicateRadius <= 0 {
		c.Server.DuplicateRadius = defaultDuplicateRadius
	}
	if c.Server.DuplicateWindow <= 0 {
		c.Server.DuplicateWindow = defaultDuplicateWindow
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
