package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const facultyRequestDetailSelect = `SELECT fr.request_id, fr.student_id, fr.course_code, fr.requested_faculty_name, fr.details, fr.status, fr.admin_comment, fr.created_at, fr.updated_at,
s.name AS student_name, c.name AS course_name
FROM faculty_requests fr
LEFT JOIN students s ON fr.student_id = s.student_id
LEFT JOIN courses c ON fr.course_code = c.course_code`

// FacultyRequestRepository persists student requests for a faculty member.
type FacultyRequestRepository struct {
	db *sqlx.DB
}

// NewFacultyRequestRepository constructs the repository.
func NewFacultyRequestRepository(db *sqlx.DB) *FacultyRequestRepository {
	return &FacultyRequestRepository{db: db}
}

// Create inserts a request and fills its id.
func (r *FacultyRequestRepository) Create(ctx context.Context, req *models.FacultyRequest) error {
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = models.FacultyRequestPending
	}
	const query = `INSERT INTO faculty_requests (student_id, course_code, requested_faculty_name, details, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING request_id`
	if err := r.db.QueryRowxContext(ctx, query, req.StudentID, req.CourseCode, req.RequestedFacultyName, req.Details, req.Status, req.CreatedAt, req.UpdatedAt).Scan(&req.RequestID); err != nil {
		return fmt.Errorf("create faculty request: %w", err)
	}
	return nil
}

// List returns requests newest first, optionally by status.
func (r *FacultyRequestRepository) List(ctx context.Context, status string) ([]models.FacultyRequestDetail, error) {
	query := facultyRequestDetailSelect + " WHERE 1=1"
	args := []interface{}{}
	if status != "" {
		query += " AND fr.status = $1"
		args = append(args, status)
	}
	query += " ORDER BY fr.created_at DESC"
	var requests []models.FacultyRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list faculty requests: %w", err)
	}
	return requests, nil
}

// FindByID returns a request; sql.ErrNoRows is returned unwrapped.
func (r *FacultyRequestRepository) FindByID(ctx context.Context, id int64) (*models.FacultyRequestDetail, error) {
	var req models.FacultyRequestDetail
	if err := r.db.GetContext(ctx, &req, facultyRequestDetailSelect+" WHERE fr.request_id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty request: %w", err)
	}
	return &req, nil
}

// UpdateStatus sets the status and appends entry to admin_comment.
func (r *FacultyRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.FacultyRequestStatus, entry string) (bool, error) {
	const query = `UPDATE faculty_requests SET status = $1, admin_comment = CONCAT(COALESCE(admin_comment, ''), $2::text), updated_at = $3 WHERE request_id = $4`
	res, err := r.db.ExecContext(ctx, query, status, entry, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("update faculty request status: %w", err)
	}
	return rowsMatched(res, "update faculty request status")
}

// CountByStatus counts requests in a status.
func (r *FacultyRequestRepository) CountByStatus(ctx context.Context, status models.FacultyRequestStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM faculty_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count faculty requests: %w", err)
	}
	return count, nil
}
