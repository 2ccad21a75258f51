package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const studentColumns = `student_id, name, email, password, contact_no, dob, gender, session, batch, enrollment_date, department, cgpa, behavioral_records, profile_picture, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Session != "" {
		conditions = append(conditions, fmt.Sprintf("session = $%d", len(args)+1))
		args = append(args, filter.Session)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"name":       "name",
		"student_id": "student_id",
		"batch":      "batch",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		studentColumns, where, column, order, size, (page-1)*size)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by id; sql.ErrNoRows is returned unwrapped.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE student_id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ExistsByEmail checks if a student uses email, optionally excluding an id.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID > 0 {
		query += " AND student_id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (student_id, name, email, password, contact_no, dob, gender, session, batch, enrollment_date, department, cgpa, behavioral_records, profile_picture, created_at, updated_at)
VALUES (:student_id, :name, :email, :password, :contact_no, :dob, :gender, :session, :batch, :enrollment_date, :department, :cgpa, :behavioral_records, :profile_picture, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update replaces a student's attributes.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, password = :password, contact_no = :contact_no, dob = :dob, gender = :gender,
session = :session, batch = :batch, enrollment_date = :enrollment_date, department = :department, cgpa = :cgpa,
behavioral_records = :behavioral_records, profile_picture = :profile_picture, updated_at = :updated_at WHERE student_id = :student_id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateProfile writes the student-editable fields only.
func (r *StudentRepository) UpdateProfile(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = $1, contact_no = $2, profile_picture = $3, updated_at = $4 WHERE student_id = $5`
	if _, err := r.db.ExecContext(ctx, query, student.Name, student.ContactNo, student.ProfilePicture, student.UpdatedAt, student.StudentID); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}

// Delete removes a student. The returned bool is false when no row matched.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// CountBatches returns the number of distinct non-null batches.
func (r *StudentRepository) CountBatches(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT batch) FROM students WHERE batch IS NOT NULL`); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return count, nil
}

// ListSessions returns distinct sessions, newest first.
func (r *StudentRepository) ListSessions(ctx context.Context) ([]string, error) {
	var sessions []string
	if err := r.db.SelectContext(ctx, &sessions, `SELECT DISTINCT session FROM students WHERE session IS NOT NULL ORDER BY session DESC`); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListDepartments returns distinct departments alphabetically.
func (r *StudentRepository) ListDepartments(ctx context.Context) ([]string, error) {
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, `SELECT DISTINCT department FROM students WHERE department IS NOT NULL ORDER BY department ASC`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// ListBatchesWithDepartments returns the distinct (batch, department) pairs.
func (r *StudentRepository) ListBatchesWithDepartments(ctx context.Context) ([]models.BatchDepartment, error) {
	var batches []models.BatchDepartment
	const query = `SELECT DISTINCT batch, department FROM students WHERE batch IS NOT NULL ORDER BY batch ASC, department ASC`
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// IDsForCourse returns students linked to a course directly or through their batch.
func (r *StudentRepository) IDsForCourse(ctx context.Context, courseCode string) ([]int64, error) {
	const query = `SELECT cs.student_id FROM course_student cs WHERE cs.course_code = $1 AND cs.student_id IS NOT NULL
UNION
SELECT s.student_id FROM students s JOIN course_student cs ON s.batch = cs.batch WHERE cs.course_code = $1 AND cs.student_id IS NULL`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, courseCode); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return ids, nil
}

// IDsForBatch returns all students in a batch.
func (r *StudentRepository) IDsForBatch(ctx context.Context, batch string) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT student_id FROM students WHERE batch = $1`, batch); err != nil {
		return nil, fmt.Errorf("list batch students: %w", err)
	}
	return ids, nil
}

// IDsForSession returns all students in a session.
func (r *StudentRepository) IDsForSession(ctx context.Context, session string) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT student_id FROM students WHERE session = $1`, session); err != nil {
		return nil, fmt.Errorf("list session students: %w", err)
	}
	return ids, nil
}

// CohortsByIDs resolves the anonymous projection (id, batch, department) ordered by id.
func (r *StudentRepository) CohortsByIDs(ctx context.Context, ids []int64) ([]models.NonCompleter, error) {
	if len(ids) == 0 {
		return []models.NonCompleter{}, nil
	}
	const query = `SELECT student_id, batch, department FROM students WHERE student_id = ANY($1) ORDER BY student_id ASC`
	var cohorts []models.NonCompleter
	if err := r.db.SelectContext(ctx, &cohorts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("resolve student cohorts: %w", err)
	}
	return cohorts, nil
}
