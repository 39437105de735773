package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eventmigrate/backend/internal/app"
	"eventmigrate/backend/internal/config"
	"eventmigrate/backend/internal/db"
	"eventmigrate/backend/internal/jobs"
	"eventmigrate/backend/internal/logging"
	"eventmigrate/backend/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "worker")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	imp, err := app.NewImporter(ctx, cfg, repo, logger)
	if err != nil {
		logger.Error("importer error", "error", err)
		os.Exit(1)
	}

	runner := jobs.NewRunner(repo, imp, jobs.Options{
		PollInterval: cfg.Worker.PollInterval,
		StaleAfter:   cfg.Worker.StaleAfter,
		MaxAttempts:  cfg.Worker.MaxAttempts,
	}, logger)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown", "service", "worker")
}
