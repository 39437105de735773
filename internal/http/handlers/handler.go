package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"eventmigrate/backend/internal/config"
	"eventmigrate/backend/internal/importer"
	authmw "eventmigrate/backend/internal/http/middleware"
	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/source"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// JobStore persists background import jobs.
type JobStore interface {
	CreateImportJob(ctx context.Context, job models.ImportJob) (models.ImportJob, error)
	GetImportJob(ctx context.Context, id string) (models.ImportJob, error)
}

// Importer runs an import synchronously.
type Importer interface {
	ImportEvents(ctx context.Context, req importer.Request) ([]string, error)
}

// SourceAccounts is the account-level part of the source API.
type SourceAccounts interface {
	FindUserID(ctx context.Context, email string) (int64, error)
	UserEvents(ctx context.Context, userID int64) ([]source.EventSummary, error)
}

// SourceFactory builds an account client for apiKey.
type SourceFactory func(apiKey string) (SourceAccounts, error)

type Handler struct {
	jobs      JobStore
	importer  Importer
	source    SourceFactory
	cfg       *config.Config
	logger    *slog.Logger
	validator *validator.Validate
}

func New(jobs JobStore, imp Importer, sourceFactory SourceFactory, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		jobs:      jobs,
		importer:  imp,
		source:    sourceFactory,
		cfg:       cfg,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if login, ok := authmw.OperatorFromContext(r.Context()); ok {
		logger = logger.With("operator", login)
	}
	return logger
}
