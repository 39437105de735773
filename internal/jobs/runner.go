package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eventmigrate/backend/internal/importer"
	"eventmigrate/backend/internal/models"
)

// Queue is the persistent job table.
type Queue interface {
	ClaimImportJob(ctx context.Context) (models.ImportJob, bool, error)
	CompleteImportJob(ctx context.Context, id string, slugs []string) error
	FailImportJob(ctx context.Context, id string, slugs []string, message string) error
	TouchImportJob(ctx context.Context, id string) error
	RequeueStaleImportJobs(ctx context.Context, staleAfter time.Duration, maxAttempts int) (int64, error)
}

// Importer runs one import request.
type Importer interface {
	ImportEvents(ctx context.Context, req importer.Request) ([]string, error)
}

type Options struct {
	PollInterval time.Duration
	StaleAfter   time.Duration
	MaxAttempts  int
}

// Runner claims queued import jobs and executes them one at a time. Several
// runners may share a queue.
type Runner struct {
	queue    Queue
	importer Importer
	opts     Options
	logger   *slog.Logger
}

func NewRunner(queue Queue, imp Importer, opts Options, logger *slog.Logger) *Runner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{queue: queue, importer: imp, opts: opts, logger: logger}
}

// Run polls until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("worker_started", "poll_interval", r.opts.PollInterval.String())
	for {
		if n, err := r.queue.RequeueStaleImportJobs(ctx, r.opts.StaleAfter, r.opts.MaxAttempts); err != nil {
			r.logger.Warn("requeue_stale_jobs_error", "error", err)
		} else if n > 0 {
			r.logger.Info("requeue_stale_jobs", "count", n)
		}

		processed, err := r.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("claim_job_error", "error", err)
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			r.logger.Info("worker_stopped")
			return nil
		case <-time.After(r.opts.PollInterval):
		}
	}
}

// RunOnce processes at most one job. processed is false when the queue was
// empty. Import failures are recorded on the job, not returned.
func (r *Runner) RunOnce(ctx context.Context) (processed bool, err error) {
	job, ok, err := r.queue.ClaimImportJob(ctx)
	if err != nil || !ok {
		return false, err
	}
	logger := r.logger.With("job_id", job.ID, "organizer", job.Organizer, "attempt", job.Attempts)
	logger.Info("job_processing", "event_ids", job.EventIDs)

	slugs, importErr := r.importer.ImportEvents(ctx, importer.Request{
		Organizer:    job.Organizer,
		APIKey:       job.APIKey,
		EventIDs:     job.EventIDs,
		WithVouchers: job.WithVouchers,
		WithOrders:   job.WithOrders,
		Progress: func(ctx context.Context, eventID int64, slug string) {
			if err := r.queue.TouchImportJob(ctx, job.ID); err != nil {
				logger.Warn("job_heartbeat_error", "event_id", eventID, "error", err)
			}
		},
	})
	if importErr != nil {
		if errors.Is(importErr, context.Canceled) {
			// Left running; the stale sweep hands it to another worker.
			return true, importErr
		}
		logger.Error("job_failed", "error", importErr)
		if err := r.queue.FailImportJob(ctx, job.ID, slugs, importErr.Error()); err != nil {
			return true, err
		}
		return true, nil
	}
	if err := r.queue.CompleteImportJob(ctx, job.ID, slugs); err != nil {
		return true, err
	}
	logger.Info("job_done", "slugs", slugs)
	return true, nil
}
