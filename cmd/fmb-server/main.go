package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"fixmybarangay/internal/config"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalf("fmb-server: %v", err)
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

	logger, err := logging.NewForDir(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "fmb-server")
	if err != nil {
		return err
	}

	db, err := server.OpenDatabase(ctx, cfg.Server.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(cfg, db, logger)
	return srv.Run(ctx)
}
