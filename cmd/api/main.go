package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventmigrate/backend/internal/app"
	"eventmigrate/backend/internal/config"
	"eventmigrate/backend/internal/db"
	"eventmigrate/backend/internal/http/handlers"
	"eventmigrate/backend/internal/logging"
	"eventmigrate/backend/internal/repository"
	"eventmigrate/backend/migrations"
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
	logger = logger.With("service", "api")
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		logger.Error("migration error", "error", err)
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("migrations_applied", "names", applied)
	}

	repo := repository.New(pool)
	imp, err := app.NewImporter(ctx, cfg, repo, logger)
	if err != nil {
		logger.Error("importer error", "error", err)
		os.Exit(1)
	}
	clients := app.SourceClients(cfg.Source, logger)
	accounts := func(apiKey string) (handlers.SourceAccounts, error) {
		client, err := clients(apiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	h := handlers.New(repo, imp, accounts, cfg, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsMiddleware(handlers.NewRouter(h)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Source-Api-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
