package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const complaintDetailSelect = `SELECT c.id, c.student_id, c.course_code, c.issue_type, c.details, c.status, c.admin_comments, c.created_at, c.updated_at,
s.name AS student_name, co.name AS course_name
FROM complaints c
LEFT JOIN students s ON c.student_id = s.student_id
LEFT JOIN courses co ON c.course_code = co.course_code`

// ComplaintRepository persists student complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs the repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts a complaint and fills its id.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	now := time.Now().UTC()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	if complaint.Status == "" {
		complaint.Status = models.ComplaintStatusPending
	}
	const query = `INSERT INTO complaints (student_id, course_code, issue_type, details, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, complaint.StudentID, complaint.CourseCode, complaint.IssueType, complaint.Details, complaint.Status, complaint.CreatedAt, complaint.UpdatedAt).Scan(&complaint.ID); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// List returns complaints newest first, optionally by status.
func (r *ComplaintRepository) List(ctx context.Context, status string) ([]models.ComplaintDetail, error) {
	query := complaintDetailSelect + " WHERE 1=1"
	args := []interface{}{}
	if status != "" {
		query += " AND c.status = $1"
		args = append(args, status)
	}
	query += " ORDER BY c.created_at DESC"
	var complaints []models.ComplaintDetail
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// ListByStudent returns a student's own complaints newest first.
func (r *ComplaintRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.ComplaintDetail, error) {
	query := complaintDetailSelect + " WHERE c.student_id = $1 ORDER BY c.created_at DESC"
	var complaints []models.ComplaintDetail
	if err := r.db.SelectContext(ctx, &complaints, query, studentID); err != nil {
		return nil, fmt.Errorf("list student complaints: %w", err)
	}
	return complaints, nil
}

// FindByID returns a complaint; sql.ErrNoRows is returned unwrapped.
func (r *ComplaintRepository) FindByID(ctx context.Context, id int64) (*models.ComplaintDetail, error) {
	var complaint models.ComplaintDetail
	if err := r.db.GetContext(ctx, &complaint, complaintDetailSelect+" WHERE c.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return &complaint, nil
}

// UpdateStatus sets a complaint's status. The returned bool is false when no row matched.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE complaints SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("update complaint status: %w", err)
	}
	return rowsMatched(res, "update complaint status")
}

// AppendComment appends an entry to admin_comments.
func (r *ComplaintRepository) AppendComment(ctx context.Context, id int64, entry string) (bool, error) {
	const query = `UPDATE complaints SET admin_comments = CONCAT(COALESCE(admin_comments, ''), $1::text), updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, entry, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("append complaint comment: %w", err)
	}
	return rowsMatched(res, "append complaint comment")
}

// CountByStatus counts complaints in a status.
func (r *ComplaintRepository) CountByStatus(ctx context.Context, status models.ComplaintStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM complaints WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return count, nil
}

func rowsMatched(res sql.Result, op string) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}
