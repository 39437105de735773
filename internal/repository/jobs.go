package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventmigrate/backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const importJobColumns = `id::text, organizer_slug, api_key, event_ids, with_vouchers, with_orders, status, attempts,
	result_slugs, last_error, created_by, created_at, started_at, finished_at, updated_at`

func scanImportJob(row pgx.Row) (models.ImportJob, error) {
	var out models.ImportJob
	var lastError, createdBy sql.NullString
	var startedAt, finishedAt sql.NullTime
	err := row.Scan(&out.ID, &out.Organizer, &out.APIKey, &out.EventIDs, &out.WithVouchers, &out.WithOrders, &out.Status, &out.Attempts,
		&out.ResultSlugs, &lastError, &createdBy, &out.CreatedAt, &startedAt, &finishedAt, &out.UpdatedAt)
	if err != nil {
		return out, err
	}
	out.LastError = lastError.String
	out.CreatedBy = createdBy.String
	out.StartedAt = nullTimeToPtr(startedAt)
	out.FinishedAt = nullTimeToPtr(finishedAt)
	return out, nil
}

func (r *Repository) CreateImportJob(ctx context.Context, job models.ImportJob) (models.ImportJob, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO import_jobs (id, organizer_slug, api_key, event_ids, with_vouchers, with_orders, status, created_by)
VALUES ($1::uuid, $2, $3, $4, $5, $6, 'queued', $7)
RETURNING `+importJobColumns+`;`,
		job.ID, job.Organizer, job.APIKey, job.EventIDs, job.WithVouchers, job.WithOrders, nullString(job.CreatedBy))
	return scanImportJob(row)
}

func (r *Repository) GetImportJob(ctx context.Context, id string) (models.ImportJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.ImportJob{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1::uuid`, id)
	job, err := scanImportJob(row)
	return job, notFound(err)
}

// ClaimImportJob moves the oldest queued job to running. Concurrent workers
// never claim the same job. ok is false when the queue is empty.
func (r *Repository) ClaimImportJob(ctx context.Context) (job models.ImportJob, ok bool, err error) {
	row := r.pool.QueryRow(ctx, `
UPDATE import_jobs SET
	status = 'running',
	attempts = attempts + 1,
	started_at = now(),
	updated_at = now()
WHERE id = (
	SELECT id FROM import_jobs
	WHERE status = 'queued'
	ORDER BY created_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING `+importJobColumns+`;`)
	job, err = scanImportJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (r *Repository) CompleteImportJob(ctx context.Context, id string, slugs []string) error {
	if slugs == nil {
		slugs = []string{}
	}
	return r.finishImportJob(ctx, id, models.JobSucceeded, slugs, "")
}

func (r *Repository) FailImportJob(ctx context.Context, id string, slugs []string, message string) error {
	if slugs == nil {
		slugs = []string{}
	}
	return r.finishImportJob(ctx, id, models.JobFailed, slugs, message)
}

func (r *Repository) finishImportJob(ctx context.Context, id, status string, slugs []string, message string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE import_jobs SET
	status = $2,
	result_slugs = $3,
	last_error = $4,
	finished_at = now(),
	updated_at = now()
WHERE id = $1::uuid AND status = 'running';`, id, status, slugs, nullString(message))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchImportJob records that the worker holding a running job is alive.
func (r *Repository) TouchImportJob(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE import_jobs SET updated_at = now() WHERE id = $1::uuid AND status = 'running';`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RequeueStaleImportJobs returns running jobs whose worker has not touched
// them within staleAfter. Jobs that already used maxAttempts fail.
func (r *Repository) RequeueStaleImportJobs(ctx context.Context, staleAfter time.Duration, maxAttempts int) (int64, error) {
	cutoff := time.Now().Add(-staleAfter)
	if _, err := r.pool.Exec(ctx, `
UPDATE import_jobs SET
	status = 'failed',
	last_error = 'worker stopped responding',
	finished_at = now(),
	updated_at = now()
WHERE status = 'running' AND updated_at < $1 AND attempts >= $2;`, cutoff, maxAttempts); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE import_jobs SET
	status = 'queued',
	updated_at = now()
WHERE status = 'running' AND updated_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
