package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activitypass-api/internal/models"
)

const auditJobColumns = `id, format, status, progress, result_url, error_message, requested_by, created_at, finished_at`

// AuditExportRepository persists conflict audit export jobs.
type AuditExportRepository struct {
	db *sqlx.DB
}

// NewAuditExportRepository constructs the repository.
func NewAuditExportRepository(db *sqlx.DB) *AuditExportRepository {
	return &AuditExportRepository{db: db}
}

// Create inserts a job, filling id, status and timestamp defaults.
func (r *AuditExportRepository) Create(ctx context.Context, job *models.AuditExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.AuditExportQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_export_jobs (` + auditJobColumns + `)
VALUES (:id, :format, :status, :progress, :result_url, :error_message, :requested_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create audit export job: %w", err)
	}
	return nil
}

// GetByID returns a job by id.
func (r *AuditExportRepository) GetByID(ctx context.Context, id string) (*models.AuditExportJob, error) {
	var job models.AuditExportJob
	if err := r.db.GetContext(ctx, &job, `SELECT `+auditJobColumns+` FROM audit_export_jobs WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("get audit export job: %w", err)
	}
	return &job, nil
}

// Update writes the non-nil fields of u.
func (r *AuditExportRepository) Update(ctx context.Context, u models.AuditExportUpdate) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.Progress != nil {
		add("progress", *u.Progress)
	}
	if u.ResultURL != nil {
		add("result_url", *u.ResultURL)
	}
	if u.ErrorMessage != nil {
		add("error_message", *u.ErrorMessage)
	}
	if u.FinishedAt != nil {
		add("finished_at", *u.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, u.ID)
	query := fmt.Sprintf("UPDATE audit_export_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update audit export job: %w", err)
	}
	return nil
}

// ListPending returns queued or interrupted jobs, oldest first, for restart recovery.
func (r *AuditExportRepository) ListPending(ctx context.Context, limit int) ([]models.AuditExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + auditJobColumns + ` FROM audit_export_jobs
WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1`
	var jobs []models.AuditExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list pending audit export jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs completed before cutoff.
func (r *AuditExportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.AuditExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + auditJobColumns + ` FROM audit_export_jobs
WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.AuditExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished audit export jobs: %w", err)
	}
	return jobs, nil
}
