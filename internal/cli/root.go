package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"eventmigrate/backend/internal/app"
	"eventmigrate/backend/internal/config"
	"eventmigrate/backend/internal/db"
	"eventmigrate/backend/internal/importer"
	"eventmigrate/backend/internal/logging"
	"eventmigrate/backend/internal/repository"
	"eventmigrate/backend/internal/source"
	"eventmigrate/backend/migrations"

	"github.com/spf13/cobra"
)

// Importer runs an import request.
type Importer interface {
	ImportEvents(ctx context.Context, req importer.Request) ([]string, error)
}

// Accounts is the part of the source API the commands query directly.
type Accounts interface {
	FindEventIDs(ctx context.Context) ([]int64, error)
	FindUserID(ctx context.Context, email string) (int64, error)
	UserEvents(ctx context.Context, userID int64) ([]source.EventSummary, error)
}

// Deps opens the resources a command needs. Every opener returns a close
// function that is safe to call once.
type Deps struct {
	Importer func(ctx context.Context) (Importer, func(), error)
	Accounts func(apiKey string) (Accounts, error)
	Migrate  func(ctx context.Context) ([]string, error)
}

// NewRootCmd builds the command tree around deps.
func NewRootCmd(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "eventmigrate",
		Short: "Import XING Events data into the ticketing database",
		Long: `eventmigrate copies events, their ticket catalog, vouchers and orders
from the XING Events API into the ticketing database. Imports are
repeatable: a second run updates what the first one created.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newImportCmd(deps),
		newEventsCmd(deps),
		newMigrateCmd(deps),
		newHashPasswordCmd(),
	)
	return root
}

// Execute runs the command line with the production wiring.
func Execute(ctx context.Context) error {
	return NewRootCmd(defaultDeps()).ExecuteContext(ctx)
}

func defaultDeps() Deps {
	return Deps{
		Importer: openImporter,
		Accounts: func(apiKey string) (Accounts, error) {
			cfg, err := config.Read()
			if err != nil {
				return nil, err
			}
			client, err := app.SourceClients(cfg.Source, logging.Discard())(apiKey)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Migrate: func(ctx context.Context) ([]string, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			defer pool.Close()
			return migrations.Apply(ctx, pool)
		},
	}
}

func openImporter(ctx context.Context) (Importer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("log: %w", err)
	}
	logger = logger.With("service", "cli")
	slog.SetDefault(logger)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	closeAll := func() {
		pool.Close()
		_ = cleanup()
	}
	imp, err := app.NewImporter(ctx, cfg, repository.New(pool), logger)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return imp, closeAll, nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
