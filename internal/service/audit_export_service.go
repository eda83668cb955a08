package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
	"github.com/noah-isme/activitypass-api/pkg/export"
	"github.com/noah-isme/activitypass-api/pkg/jobs"
	"github.com/noah-isme/activitypass-api/pkg/storage"
)

// AuditExportJobType tags queue jobs produced by the export service.
const AuditExportJobType = "course_conflict_export"

type auditExportStore interface {
	Create(ctx context.Context, job *models.AuditExportJob) error
	GetByID(ctx context.Context, id string) (*models.AuditExportJob, error)
	Update(ctx context.Context, u models.AuditExportUpdate) error
	ListPending(ctx context.Context, limit int) ([]models.AuditExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.AuditExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type artifactStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadCloser, error)
	Delete(name string) error
	Sweep(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, path string) (string, storage.Claims, error)
	Verify(token string) (storage.Claims, error)
}

type conflictReporter interface {
	Report(ctx context.Context) (*models.ConflictReport, error)
	Dataset(report *models.ConflictReport) export.Dataset
}

// AuditExportConfig governs export availability, links and cleanup.
type AuditExportConfig struct {
	Enabled         bool
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// AuditDownload is a resolved export artifact ready to stream.
type AuditDownload struct {
	Reader      io.ReadCloser
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// AuditExportService manages the lifecycle of conflict audit export jobs.
type AuditExportService struct {
	repo      auditExportStore
	queue     jobDispatcher
	files     artifactStore
	signer    downloadSigner
	reporter  conflictReporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AuditExportConfig
}

// NewAuditExportService constructs the service.
func NewAuditExportService(repo auditExportStore, queue jobDispatcher, files artifactStore, signer downloadSigner, reporter conflictReporter, validate *validator.Validate, logger *zap.Logger, cfg AuditExportConfig) *AuditExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &AuditExportService{
		repo:      repo,
		queue:     queue,
		files:     files,
		signer:    signer,
		reporter:  reporter,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob persists an export request and enqueues it.
func (s *AuditExportService) CreateJob(ctx context.Context, req dto.AuditExportRequest) (*dto.AuditExportJobResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "audit exports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	job := &models.AuditExportJob{
		Format:      string(format),
		Status:      models.AuditExportQueued,
		RequestedBy: req.RequestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, wrapInternal(err, "create audit export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: AuditExportJobType}); err != nil {
		status := models.AuditExportFailed
		progress := 100
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, models.AuditExportUpdate{
			ID:           job.ID,
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, wrapInternal(err, "enqueue audit export job")
	}
	return &dto.AuditExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus reports job progress.
func (s *AuditExportService) GetStatus(ctx context.Context, id string) (*dto.AuditExportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "export job", "load audit export job")
	}
	resp := &dto.AuditExportStatusResponse{
		ID:        job.ID,
		Format:    job.Format,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates token and opens the artifact it grants.
func (s *AuditExportService) ResolveDownload(ctx context.Context, token string) (*AuditDownload, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, claims.JobID)
	if err != nil {
		return nil, notFoundOr(err, "export job", "load audit export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.AuditExportFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}

	contentType := "application/octet-stream"
	if format, err := export.ParseFormat(job.Format); err == nil {
		if renderer, err := export.RendererFor(format); err == nil {
			contentType = renderer.ContentType()
		}
	}
	reader, err := s.files.Open(claims.Path)
	if err != nil {
		return nil, wrapInternal(err, "open export file")
	}
	return &AuditDownload{
		Reader:      reader,
		Filename:    path.Base(claims.Path),
		ContentType: contentType,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// Generate renders the current conflict report for job and stores it, returning
// the signed download URL.
func (s *AuditExportService) Generate(ctx context.Context, job *models.AuditExportJob) (string, error) {
	format, err := export.ParseFormat(job.Format)
	if err != nil {
		return "", err
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return "", err
	}
	report, err := s.reporter.Report(ctx)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(s.reporter.Dataset(report))
	if err != nil {
		return "", fmt.Errorf("render %s export: %w", format, err)
	}
	name := fmt.Sprintf("course-conflicts/%s.%s", job.ID, renderer.Extension())
	stored, err := s.files.Save(name, data)
	if err != nil {
		return "", err
	}
	token, _, err := s.signer.Sign(job.ID, stored)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/audits/downloads/" + token, nil
}

// RecoverPendingJobs re-enqueues jobs left queued or processing by a previous process.
func (s *AuditExportService) RecoverPendingJobs(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	pending, err := s.repo.ListPending(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover pending audit exports", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: AuditExportJobType}); err != nil {
			s.logger.Warn("failed to requeue audit export", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("requeued pending audit exports", zap.Int("count", len(pending)))
	}
}

// StartCleanup purges expired artifacts every cleanup interval until ctx ends.
func (s *AuditExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *AuditExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("audit export cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		claims, err := s.signer.Verify(extractToken(*job.ResultURL))
		if err != nil && !errors.Is(err, storage.ErrTokenExpired) {
			continue
		}
		if err := s.files.Delete(claims.Path); err != nil {
			s.logger.Warn("audit export delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	removed, err := s.files.Sweep(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("audit export sweep failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("audit export artifacts removed", zap.Int("count", len(removed)))
	}
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.AuditExportJob) (string, error)
}

// AuditExportWorker bridges queue jobs to the export generator.
type AuditExportWorker struct {
	repo       auditExportStore
	exporter   exportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewAuditExportWorker constructs a worker. maxRetries should match the queue's.
func NewAuditExportWorker(repo auditExportStore, exporter exportGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *AuditExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &AuditExportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job.
func (w *AuditExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	start := time.Now()
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.AuditExportProcessing
	progress := 10
	if err := w.repo.Update(ctx, models.AuditExportUpdate{ID: job.ID, Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	url, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.AuditExportFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, models.AuditExportUpdate{
				ID:           job.ID,
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
			w.metrics.ObserveExportJob(string(failed), time.Since(start))
		} else {
			queued := models.AuditExportQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, models.AuditExportUpdate{
				ID:           job.ID,
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}

	finished := models.AuditExportFinished
	progress = 100
	now := time.Now().UTC()
	cleared := ""
	if err := w.repo.Update(ctx, models.AuditExportUpdate{
		ID:           job.ID,
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &cleared,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.ObserveExportJob(string(finished), time.Since(start))
	w.logger.Info("audit export finished", zap.String("job_id", job.ID), zap.String("format", record.Format))
	return nil
}
