package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// ReportRepository persists weekly report job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create enqueues a report job row in QUEUED state.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.ReportStatusQueued
	job.CreatedAt = time.Now().UTC()

	const query = `
INSERT INTO report_jobs (id, params, status, created_by, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.Params, job.Status, job.CreatedBy, job.CreatedAt,
	); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID fetches a job row. Returns sql.ErrNoRows when absent.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `
SELECT id, params, status, result_url, created_by, created_at, finished_at, error_message
FROM report_jobs
WHERE id = $1`

	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByUser returns the most recent jobs created by a user.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT id, params, status, result_url, created_by, created_at, finished_at, error_message
FROM report_jobs
WHERE created_by = $1
ORDER BY created_at DESC
LIMIT $2`

	jobs := []models.ReportJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// MarkProcessing transitions a job to PROCESSING.
func (r *ReportRepository) MarkProcessing(ctx context.Context, id string) error {
	const query = `UPDATE report_jobs SET status = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, models.ReportStatusProcessing, id); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}
	return nil
}

// MarkFinished records a successful render and its download URL.
func (r *ReportRepository) MarkFinished(ctx context.Context, id, resultURL string) error {
	const query = `
UPDATE report_jobs
SET status = $1, result_url = $2, finished_at = $3
WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query,
		models.ReportStatusFinished, resultURL, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("mark report finished: %w", err)
	}
	return nil
}

// MarkFailed records a failed render with its error message.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	const query = `
UPDATE report_jobs
SET status = $1, error_message = $2, finished_at = $3
WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query,
		models.ReportStatusFailed, errMsg, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("mark report failed: %w", err)
	}
	return nil
}

// DeleteOlderThan removes finished jobs past the retention cutoff and
// returns their IDs so the stored artifacts can be cleaned up too.
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	const query = `
DELETE FROM report_jobs
WHERE created_at < $1 AND status IN ($2, $3)
RETURNING id`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, cutoff,
		models.ReportStatusFinished, models.ReportStatusFailed,
	); err != nil {
		return nil, fmt.Errorf("delete old report jobs: %w", err)
	}
	return ids, nil
}
