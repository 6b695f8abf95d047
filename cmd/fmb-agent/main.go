package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"

	"fixmybarangay/internal/api"
	"fixmybarangay/internal/config"
	"fixmybarangay/internal/events"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/queue"
	"fixmybarangay/internal/syncer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalf("fmb-agent: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, _, _, err := config.Load("")
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewForDir(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "fmb-agent")
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return errors.New("another fmb-agent instance is already running")
	}
	defer lock.Unlock() //nolint:errcheck

	store, err := localstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus()
	client := api.NewClient(cfg)
	queueManager := queue.NewManager(cfg, store, client, bus, logger)
	syncManager := syncer.NewManager(cfg, queueManager, client, store, bus, logger)

	observeEvents(bus, logger)

	if err := syncManager.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	syncManager.Stop()
	logger.Info("fmb-agent shutting down")
	return nil
}
