package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.MaxItems > 10000 {
		return errors.New("queue.max_items is unreasonably large (max 10000)")
	}
	if c.Queue.MaxRetries > 20 {
		return errors.New("queue.max_retries is unreasonably large (max 20)")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.CycleTimeout >= c.Sync.Interval {
		return errors.New("sync.cycle_timeout must be shorter than sync.interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
