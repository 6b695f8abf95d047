package main

import (
	"fmt"

	"fixmybarangay/internal/api"
	"fixmybarangay/internal/config"
	"fixmybarangay/internal/events"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/queue"
)

// commandContext carries lazily loaded configuration shared by subcommands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// openQueue wires the store, API client, and queue manager for a single
// command invocation. The caller closes the returned store.
func (c *commandContext) openQueue() (*queue.Manager, *localstore.Store, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := localstore.Open(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open local store: %w", err)
	}
	client := api.NewClient(cfg)
	manager := queue.NewManager(cfg, store, client, events.NewBus(), logging.NewNop())
	return manager, store, cfg, nil
}
