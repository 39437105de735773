// Package app wires the importer from configuration. It is shared by the
// api, worker and command line binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"eventmigrate/backend/internal/config"
	"eventmigrate/backend/internal/importer"
	"eventmigrate/backend/internal/integrations"
	"eventmigrate/backend/internal/repository"
	"eventmigrate/backend/internal/source"
)

// SourceClients returns a constructor for source API clients sharing cfg.
func SourceClients(cfg config.SourceConfig, logger *slog.Logger) func(apiKey string) (*source.Client, error) {
	sc := source.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateRPS:   cfg.RateRPS,
		RateBurst: cfg.RateBurst,
	}
	return func(apiKey string) (*source.Client, error) {
		return source.NewClient(sc, apiKey, nil, logger.With("component", "source"))
	}
}

// Store adapts the repository to the importer's transaction boundary.
func Store(repo *repository.Repository) importer.Store {
	return importer.StoreFunc(func(ctx context.Context) (importer.Tx, error) {
		return repo.Begin(ctx)
	})
}

// NewImporter builds the importer. Asset re-hosting is enabled only when an
// S3 bucket is configured.
func NewImporter(ctx context.Context, cfg *config.Config, repo *repository.Repository, logger *slog.Logger) (*importer.Importer, error) {
	var uploader importer.Uploader
	if cfg.S3.Bucket != "" {
		s3Client, err := integrations.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		uploader = s3Client
	} else {
		logger.Warn("asset_storage_disabled")
	}

	clients := SourceClients(cfg.Source, logger)
	remote := func(apiKey string) (importer.Remote, error) {
		client, err := clients(apiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return importer.New(Store(repo), remote, uploader, importer.DefaultsFromConfig(cfg.Import), logger.With("component", "importer")), nil
}
