package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/repository"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/jobs"
)

const reportExportJobType = "evaluation_report"

type reportExportStore interface {
	Create(ctx context.Context, job *models.ReportExport) error
	GetByID(ctx context.Context, id string) (*models.ReportExport, error)
	Update(ctx context.Context, id string, params repository.UpdateReportExportParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportExport, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExport, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportExport) (*ExportResult, error)
}

// ReportExportService manages the lifecycle of asynchronous report exports.
type ReportExportService struct {
	repo     reportExportStore
	queue    jobDispatcher
	exporter *ExportService
	validate *validator.Validate
	logger   *zap.Logger
	cfg      ReportExportConfig
}

// ReportExportConfig governs queue recovery and cleanup.
type ReportExportConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is an opened export file ready to stream.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	Size      int64
	ExpiresAt time.Time
}

// NewReportExportService constructs the export job service.
func NewReportExportService(repo reportExportStore, queue jobDispatcher, exporter *ExportService, validate *validator.Validate, logger *zap.Logger, cfg ReportExportConfig) *ReportExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportExportService{
		repo:     repo,
		queue:    queue,
		exporter: exporter,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob persists a QUEUED export and hands it to the worker queue.
func (s *ReportExportService) CreateJob(ctx context.Context, req models.CreateReportExportRequest, actor string) (*models.ReportExportStatus, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid export request")
	}
	job := &models.ReportExport{
		Params: models.ReportExportParams{
			Filter: models.AggregateFilter{
				CourseCode: strings.TrimSpace(req.CourseCode),
				Batch:      strings.TrimSpace(req.Batch),
				FacultyID:  req.FacultyID,
				TemplateID: req.TemplateID,
			},
			Format: req.Format,
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: actor,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create report export")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportExportJobType}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateReportExportParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); updateErr != nil {
			s.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Internal(err, "failed to enqueue report export")
	}
	return exportStatus(job), nil
}

// GetStatus returns the current state of an export.
func (s *ReportExportService) GetStatus(ctx context.Context, id string) (*models.ReportExportStatus, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return exportStatus(job), nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *ReportExportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || extractToken(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, size, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		Size:      size,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues exports left QUEUED by a previous process.
func (s *ReportExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report exports", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportExportJobType}); err != nil {
			s.logger.Warn("failed to requeue pending export", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered queued report exports", zap.Int("count", len(pending)))
	}
}

// StartCleanup purges expired export files every CleanupInterval until ctx is done.
func (s *ReportExportService) StartCleanup(ctx context.Context) {
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

func (s *ReportExportService) cleanupExpired(ctx context.Context) {
	const batch = 100
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	jobs, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
	if err != nil {
		s.logger.Warn("cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range jobs {
		if job.ResultURL == nil {
			continue
		}
		token := extractToken(*job.ResultURL)
		if token == "" {
			continue
		}
		_, relPath, _, err := s.exporter.ParseToken(token, true)
		if err != nil {
			continue
		}
		if err := s.exporter.Delete(relPath); err != nil {
			s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ReportExportService) load(ctx context.Context, id string) (*models.ReportExport, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report export not found")
		}
		return nil, appErrors.Internal(err, "failed to load report export")
	}
	return job, nil
}

func exportStatus(job *models.ReportExport) *models.ReportExportStatus {
	status := &models.ReportExportStatus{
		ID:         job.ID,
		Status:     job.Status,
		Progress:   job.Progress,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.Status == models.ReportStatusFinished && job.ResultURL != nil {
		status.DownloadURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		status.Error = job.ErrorMessage
	}
	return status
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ReportExportWorker bridges queue jobs to ExportService.
type ReportExportWorker struct {
	repo       reportExportStore
	exporter   exportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReportExportWorker constructs a worker. metrics may be nil.
func NewReportExportWorker(repo reportExportStore, exporter exportGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ReportExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReportExportWorker{
		repo:       repo,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes one queued export. A returned error asks the queue to retry.
func (w *ReportExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("dropping export job without a record", zap.String("job_id", job.ID))
			return nil
		}
		w.markRetryOrFailed(ctx, job, err)
		return err
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportExportParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		w.markRetryOrFailed(ctx, job, err)
		return err
	}

	started := time.Now()
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		w.metrics.RecordExportJob(string(record.Params.Format), false, time.Since(started))
		w.markRetryOrFailed(ctx, job, err)
		return err
	}
	w.metrics.RecordExportJob(string(record.Params.Format), true, time.Since(started))

	finished := models.ReportStatusFinished
	progress = 100
	now := w.now()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportExportParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		w.markRetryOrFailed(ctx, job, err)
		return err
	}
	return nil
}

func (w *ReportExportWorker) markRetryOrFailed(ctx context.Context, job jobs.Job, cause error) {
	msg := cause.Error()
	params := repository.UpdateReportExportParams{ErrorMessage: &msg}
	if job.Attempt >= w.maxRetries {
		failed := models.ReportStatusFailed
		progress := 100
		now := w.now()
		params.Status = &failed
		params.Progress = &progress
		params.FinishedAt = &now
	} else {
		queued := models.ReportStatusQueued
		reset := 0
		params.Status = &queued
		params.Progress = &reset
	}
	if err := w.repo.Update(ctx, job.ID, params); err != nil {
		w.logger.Warn("failed to record export failure", zap.String("job_id", job.ID), zap.Error(err))
	}
}
