package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/pkg/database"
)

const templateColumns = `id, title, questions_set, batch, course_code, session, last_date, admin_id, source_template_id, created_at, updated_at`

const scopedCondition = `(course_code IS NOT NULL OR batch IS NOT NULL OR session IS NOT NULL)`

// EvaluationTemplateRepository manages evaluation_templates and their completion rows.
type EvaluationTemplateRepository struct {
	db *sqlx.DB
}

// NewEvaluationTemplateRepository constructs the repository.
func NewEvaluationTemplateRepository(db *sqlx.DB) *EvaluationTemplateRepository {
	return &EvaluationTemplateRepository{db: db}
}

// Create inserts a template and fills its generated id.
func (r *EvaluationTemplateRepository) Create(ctx context.Context, tpl *models.EvaluationTemplate) error {
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	const query = `INSERT INTO evaluation_templates (title, questions_set, batch, course_code, session, last_date, admin_id, source_template_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		tpl.Title, tpl.QuestionSet, tpl.Batch, tpl.CourseCode, tpl.Session, tpl.LastDate,
		tpl.AdminID, tpl.SourceTemplateID, tpl.CreatedAt, tpl.UpdatedAt,
	).Scan(&tpl.ID); err != nil {
		return fmt.Errorf("create evaluation template: %w", err)
	}
	return nil
}

// FindByID returns a template; sql.ErrNoRows is returned unwrapped.
func (r *EvaluationTemplateRepository) FindByID(ctx context.Context, id int64) (*models.EvaluationTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluation_templates WHERE id = $1", templateColumns)
	var tpl models.EvaluationTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find evaluation template: %w", err)
	}
	return &tpl, nil
}

// List returns templates matching the filter ordered by title.
func (r *EvaluationTemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.EvaluationTemplate, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.AdminID != nil {
		conditions = append(conditions, fmt.Sprintf("admin_id = $%d", len(args)+1))
		args = append(args, *filter.AdminID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")

	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM evaluation_templates WHERE %s ORDER BY title ASC, id ASC LIMIT %d OFFSET %d",
		templateColumns, where, size, (page-1)*size)
	var templates []models.EvaluationTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list evaluation templates: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM evaluation_templates WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count evaluation templates: %w", err)
	}
	return templates, total, nil
}

// Update persists title, question set and deadline.
func (r *EvaluationTemplateRepository) Update(ctx context.Context, tpl *models.EvaluationTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	const query = `UPDATE evaluation_templates SET title = $1, questions_set = $2, last_date = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, tpl.Title, tpl.QuestionSet, tpl.LastDate, tpl.UpdatedAt, tpl.ID); err != nil {
		return fmt.Errorf("update evaluation template: %w", err)
	}
	return nil
}

// UpdateLastDate sets a new deadline. The returned bool is false when no row matched.
func (r *EvaluationTemplateRepository) UpdateLastDate(ctx context.Context, id int64, lastDate time.Time) (bool, error) {
	const query = `UPDATE evaluation_templates SET last_date = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, lastDate, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("extend evaluation deadline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("extend evaluation deadline: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a template together with its evaluations and completion rows.
func (r *EvaluationTemplateRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		deleted, err = deleteTemplateCascade(ctx, tx, id)
		return err
	})
	return deleted, err
}

// DeleteForCourse removes the assignment only when it belongs to courseCode.
func (r *EvaluationTemplateRepository) DeleteForCourse(ctx context.Context, id int64, courseCode string) (bool, error) {
	var deleted bool
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked int64
		const lockQuery = `SELECT id FROM evaluation_templates WHERE id = $1 AND course_code = $2 FOR UPDATE`
		if err := tx.GetContext(ctx, &locked, lockQuery, id, courseCode); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("lock course template: %w", err)
		}
		var err error
		deleted, err = deleteTemplateCascade(ctx, tx, id)
		return err
	})
	return deleted, err
}

func deleteTemplateCascade(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE template_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete template evaluations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM evaluation_completion WHERE template_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete template completions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM evaluation_templates WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete evaluation template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete evaluation template: %w", err)
	}
	return affected > 0, nil
}

// ListOngoing returns scoped templates whose deadline is today or later.
func (r *EvaluationTemplateRepository) ListOngoing(ctx context.Context, today time.Time) ([]models.EvaluationTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluation_templates WHERE last_date >= $1 AND %s ORDER BY last_date ASC, title ASC",
		templateColumns, scopedCondition)
	var templates []models.EvaluationTemplate
	if err := r.db.SelectContext(ctx, &templates, query, today); err != nil {
		return nil, fmt.Errorf("list ongoing evaluations: %w", err)
	}
	return templates, nil
}

// ListPast returns scoped templates whose deadline has passed.
func (r *EvaluationTemplateRepository) ListPast(ctx context.Context, today time.Time) ([]models.EvaluationTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluation_templates WHERE last_date < $1 AND %s ORDER BY last_date DESC, title ASC",
		templateColumns, scopedCondition)
	var templates []models.EvaluationTemplate
	if err := r.db.SelectContext(ctx, &templates, query, today); err != nil {
		return nil, fmt.Errorf("list past evaluations: %w", err)
	}
	return templates, nil
}

// CountRunning counts templates still open. With an admin id, templates owned by other admins
// are excluded unless they are course assignments.
func (r *EvaluationTemplateRepository) CountRunning(ctx context.Context, today time.Time, adminID *int64) (int, error) {
	query := "SELECT COUNT(DISTINCT id) FROM evaluation_templates WHERE last_date >= $1"
	args := []interface{}{today}
	if adminID != nil {
		query += " AND (admin_id = $2 OR admin_id IS NULL OR course_code IS NOT NULL)"
		args = append(args, *adminID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count running evaluations: %w", err)
	}
	return count, nil
}

// ListByCourse returns templates assigned to a course.
func (r *EvaluationTemplateRepository) ListByCourse(ctx context.Context, courseCode string) ([]models.EvaluationTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluation_templates WHERE course_code = $1 ORDER BY last_date DESC, title ASC", templateColumns)
	var templates []models.EvaluationTemplate
	if err := r.db.SelectContext(ctx, &templates, query, courseCode); err != nil {
		return nil, fmt.Errorf("list course templates: %w", err)
	}
	return templates, nil
}

// CompletedStudentIDs returns students with a completed row for the assignment.
// A nil course code matches rows without a course.
func (r *EvaluationTemplateRepository) CompletedStudentIDs(ctx context.Context, templateID int64, courseCode *string) ([]int64, error) {
	query := "SELECT student_id FROM evaluation_completion WHERE template_id = $1 AND is_completed = TRUE"
	args := []interface{}{templateID}
	if courseCode == nil {
		query += " AND course_code IS NULL"
	} else {
		query += " AND course_code = $2"
		args = append(args, *courseCode)
	}
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list completed students: %w", err)
	}
	return ids, nil
}

// ListAssignedForStudent returns open templates relevant to the student that they have not completed.
func (r *EvaluationTemplateRepository) ListAssignedForStudent(ctx context.Context, studentID int64, today time.Time) ([]models.AssignedEvaluation, error) {
	const query = `SELECT et.id, et.title, et.course_code, c.name AS course_name, et.last_date
FROM evaluation_templates et
JOIN students s ON s.student_id = $1
LEFT JOIN courses c ON c.course_code = et.course_code
WHERE et.last_date >= $2
AND (
    (et.course_code IS NOT NULL AND EXISTS (
        SELECT 1 FROM course_student cs WHERE cs.course_code = et.course_code
        AND (cs.student_id = s.student_id OR (cs.student_id IS NULL AND cs.batch = s.batch))))
    OR (et.course_code IS NULL AND et.batch IS NOT NULL AND et.batch = s.batch)
    OR (et.course_code IS NULL AND et.batch IS NULL AND et.session IS NOT NULL AND et.session = s.session)
)
AND NOT EXISTS (
    SELECT 1 FROM evaluation_completion ec WHERE ec.template_id = et.id AND ec.student_id = s.student_id
    AND ec.is_completed = TRUE AND ec.course_code IS NOT DISTINCT FROM et.course_code)
ORDER BY et.last_date ASC, et.title ASC`
	var assigned []models.AssignedEvaluation
	if err := r.db.SelectContext(ctx, &assigned, query, studentID, today); err != nil {
		return nil, fmt.Errorf("list assigned evaluations: %w", err)
	}
	return assigned, nil
}

// ListCompletedForStudent returns the student's completion rows with template titles.
func (r *EvaluationTemplateRepository) ListCompletedForStudent(ctx context.Context, studentID int64) ([]models.CompletedEvaluation, error) {
	const query = `SELECT ec.template_id, et.title, ec.course_code, ec.completion_date
FROM evaluation_completion ec
JOIN evaluation_templates et ON et.id = ec.template_id
WHERE ec.student_id = $1 AND ec.is_completed = TRUE
ORDER BY ec.completion_date DESC`
	var completed []models.CompletedEvaluation
	if err := r.db.SelectContext(ctx, &completed, query, studentID); err != nil {
		return nil, fmt.Errorf("list completed evaluations: %w", err)
	}
	return completed, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
