package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/pkg/database"
)

const courseColumns = `course_code, name, status, creation_date, updated_at`

// CourseRepository manages courses and their faculty and student links.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses ordered by name, optionally restricted to a status.
func (r *CourseRepository) List(ctx context.Context, status string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses", courseColumns)
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY name ASC"
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCode returns a course; sql.ErrNoRows is returned unwrapped.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_code = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	course.CreationDate = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (course_code, name, status, creation_date, updated_at) VALUES (:course_code, :name, :status, :creation_date, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update changes a course's name and status.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, status = :status, updated_at = :updated_at WHERE course_code = :course_code`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course and its enrollment and faculty links in one transaction.
func (r *CourseRepository) Delete(ctx context.Context, code string) (bool, error) {
	var deleted bool
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM course_student WHERE course_code = $1`, code); err != nil {
			return fmt.Errorf("delete course students: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM course_faculty WHERE course_code = $1`, code); err != nil {
			return fmt.Errorf("delete course faculty: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE course_code = $1`, code)
		if err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

// Count returns the number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// FacultyAssigned reports whether the faculty member already teaches the course.
func (r *CourseRepository) FacultyAssigned(ctx context.Context, code string, facultyID int64) (bool, error) {
	return r.exists(ctx, "check course faculty", `SELECT 1 FROM course_faculty WHERE course_code = $1 AND faculty_id = $2`, code, facultyID)
}

// AssignFaculty links faculty to a course.
func (r *CourseRepository) AssignFaculty(ctx context.Context, code string, facultyID int64) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO course_faculty (course_code, faculty_id) VALUES ($1, $2)`, code, facultyID); err != nil {
		return fmt.Errorf("assign course faculty: %w", err)
	}
	return nil
}

// UnassignFaculty removes a faculty link. The returned bool is false when no row matched.
func (r *CourseRepository) UnassignFaculty(ctx context.Context, code string, facultyID int64) (bool, error) {
	return r.deleteLink(ctx, "unassign course faculty", `DELETE FROM course_faculty WHERE course_code = $1 AND faculty_id = $2`, code, facultyID)
}

// FacultyForCourse lists faculty teaching a course.
func (r *CourseRepository) FacultyForCourse(ctx context.Context, code string) ([]models.FacultySummary, error) {
	const query = `SELECT f.faculty_id, f.name, f.email FROM faculty f JOIN course_faculty cf ON f.faculty_id = cf.faculty_id WHERE cf.course_code = $1 ORDER BY f.name ASC`
	var faculty []models.FacultySummary
	if err := r.db.SelectContext(ctx, &faculty, query, code); err != nil {
		return nil, fmt.Errorf("list course faculty: %w", err)
	}
	return faculty, nil
}

// CoursesForFaculty lists courses a faculty member teaches.
func (r *CourseRepository) CoursesForFaculty(ctx context.Context, facultyID int64) ([]models.Course, error) {
	const query = `SELECT c.course_code, c.name, c.status, c.creation_date, c.updated_at FROM courses c JOIN course_faculty cf ON c.course_code = cf.course_code WHERE cf.faculty_id = $1 ORDER BY c.name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty courses: %w", err)
	}
	return courses, nil
}

// StudentAssigned reports whether the student is individually linked to the course.
func (r *CourseRepository) StudentAssigned(ctx context.Context, code string, studentID int64) (bool, error) {
	return r.exists(ctx, "check course student", `SELECT 1 FROM course_student WHERE course_code = $1 AND student_id = $2`, code, studentID)
}

// BatchAssigned reports whether the batch is linked to the course.
func (r *CourseRepository) BatchAssigned(ctx context.Context, code, batch string) (bool, error) {
	return r.exists(ctx, "check course batch", `SELECT 1 FROM course_student WHERE course_code = $1 AND batch = $2 AND student_id IS NULL`, code, batch)
}

// AssignStudent creates an individual enrollment link.
func (r *CourseRepository) AssignStudent(ctx context.Context, code string, studentID int64) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO course_student (course_code, student_id) VALUES ($1, $2)`, code, studentID); err != nil {
		return fmt.Errorf("assign course student: %w", err)
	}
	return nil
}

// AssignBatch creates a batch-wide enrollment link.
func (r *CourseRepository) AssignBatch(ctx context.Context, code, batch string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO course_student (course_code, batch) VALUES ($1, $2)`, code, batch); err != nil {
		return fmt.Errorf("assign course batch: %w", err)
	}
	return nil
}

// UnassignStudent removes an individual enrollment link.
func (r *CourseRepository) UnassignStudent(ctx context.Context, code string, studentID int64) (bool, error) {
	return r.deleteLink(ctx, "unassign course student", `DELETE FROM course_student WHERE course_code = $1 AND student_id = $2`, code, studentID)
}

// UnassignBatch removes a batch enrollment link.
func (r *CourseRepository) UnassignBatch(ctx context.Context, code, batch string) (bool, error) {
	return r.deleteLink(ctx, "unassign course batch", `DELETE FROM course_student WHERE course_code = $1 AND batch = $2 AND student_id IS NULL`, code, batch)
}

// Enrollments lists the course's student and batch links.
func (r *CourseRepository) Enrollments(ctx context.Context, code string) ([]models.CourseEnrollment, error) {
	const query = `SELECT cs.student_id, s.name AS student_name, COALESCE(cs.batch, s.batch) AS batch, s.department
FROM course_student cs
LEFT JOIN students s ON cs.student_id = s.student_id
WHERE cs.course_code = $1
ORDER BY cs.id ASC`
	var enrollments []models.CourseEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, code); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// CoursesForStudent lists courses the student attends directly or through the batch.
func (r *CourseRepository) CoursesForStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	const query = `SELECT DISTINCT c.course_code, c.name, c.status, c.creation_date, c.updated_at
FROM courses c
JOIN course_student cs ON cs.course_code = c.course_code
JOIN students s ON s.student_id = $1
WHERE cs.student_id = s.student_id OR (cs.student_id IS NULL AND cs.batch = s.batch)
ORDER BY c.name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) exists(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	var found int
	if err := r.db.GetContext(ctx, &found, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (r *CourseRepository) deleteLink(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}
