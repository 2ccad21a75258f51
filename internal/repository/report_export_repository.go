package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const reportExportColumns = `id, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportExportRepository persists report export job metadata.
type ReportExportRepository struct {
	db *sqlx.DB
}

// NewReportExportRepository constructs the repository.
func NewReportExportRepository(db *sqlx.DB) *ReportExportRepository {
	return &ReportExportRepository{db: db}
}

// Create inserts a new export row with generated defaults.
func (r *ReportExportRepository) Create(ctx context.Context, job *models.ReportExport) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_exports (id, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report export: %w", err)
	}
	return nil
}

// GetByID returns an export row; sql.ErrNoRows is returned unwrapped.
func (r *ReportExportRepository) GetByID(ctx context.Context, id string) (*models.ReportExport, error) {
	query := fmt.Sprintf("SELECT %s FROM report_exports WHERE id = $1", reportExportColumns)
	var job models.ReportExport
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get report export: %w", err)
	}
	return &job, nil
}

// UpdateReportExportParams defines the mutable fields.
type UpdateReportExportParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for an export row.
func (r *ReportExportRepository) Update(ctx context.Context, id string, params UpdateReportExportParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Progress != nil {
		add("progress", *params.Progress)
	}
	if params.ResultURL != nil {
		add("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_exports SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report export: %w", err)
	}
	return nil
}

// ListQueued fetches queued exports for cold start recovery.
func (r *ReportExportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportExport, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM report_exports WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1", reportExportColumns)
	var jobs []models.ReportExport
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued report exports: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves finished exports older than cutoff.
func (r *ReportExportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExport, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM report_exports WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2", reportExportColumns)
	var jobs []models.ReportExport
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished report exports: %w", err)
	}
	return jobs, nil
}
