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

// EvaluationRepository stores anonymous submissions and the rows reports are built from.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Submit inserts the evaluation and marks the student's completion row in one transaction.
func (r *EvaluationRepository) Submit(ctx context.Context, eval *models.Evaluation, studentID int64) error {
	if eval.Date.IsZero() {
		eval.Date = time.Now().UTC()
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertEval = `INSERT INTO evaluations (course_code, template_id, feedback, comment, date) VALUES ($1, $2, $3, $4, $5) RETURNING id`
		if err := tx.QueryRowxContext(ctx, insertEval, eval.CourseCode, eval.TemplateID, eval.Feedback, eval.Comment, eval.Date).Scan(&eval.ID); err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}
		return markCompleted(ctx, tx, eval.TemplateID, eval.CourseCode, studentID, eval.Date)
	})
}

func markCompleted(ctx context.Context, tx *sqlx.Tx, templateID int64, courseCode *string, studentID int64, at time.Time) error {
	lockQuery := `SELECT id FROM evaluation_completion WHERE template_id = $1 AND student_id = $2`
	args := []interface{}{templateID, studentID}
	if courseCode == nil {
		lockQuery += " AND course_code IS NULL"
	} else {
		lockQuery += " AND course_code = $3"
		args = append(args, *courseCode)
	}
	lockQuery += " ORDER BY id LIMIT 1 FOR UPDATE"

	var completionID int64
	err := tx.GetContext(ctx, &completionID, lockQuery, args...)
	switch {
	case err == sql.ErrNoRows:
		const insertQuery = `INSERT INTO evaluation_completion (template_id, course_code, student_id, is_completed, completion_date) VALUES ($1, $2, $3, TRUE, $4)`
		if _, err := tx.ExecContext(ctx, insertQuery, templateID, courseCode, studentID, at); err != nil {
			return fmt.Errorf("insert evaluation completion: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lock evaluation completion: %w", err)
	default:
		const updateQuery = `UPDATE evaluation_completion SET is_completed = TRUE, completion_date = $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, updateQuery, at, completionID); err != nil {
			return fmt.Errorf("update evaluation completion: %w", err)
		}
	}
	return nil
}

// AggregateRows returns one row per evaluation matching the filter with its template's question set.
func (r *EvaluationRepository) AggregateRows(ctx context.Context, filter models.AggregateFilter) ([]models.AggregateRow, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("et.batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.FacultyID > 0 {
		conditions = append(conditions, fmt.Sprintf("cf.faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.TemplateID > 0 {
		conditions = append(conditions, fmt.Sprintf("e.template_id = $%d", len(args)+1))
		args = append(args, filter.TemplateID)
	}

	query := fmt.Sprintf(`SELECT e.id, e.feedback, et.questions_set, e.comment AS general_comment
FROM evaluations e
JOIN evaluation_templates et ON e.template_id = et.id
LEFT JOIN courses c ON e.course_code = c.course_code
LEFT JOIN course_faculty cf ON e.course_code = cf.course_code
WHERE %s
GROUP BY e.id, et.id
ORDER BY e.id ASC`, strings.Join(conditions, " AND "))

	var rows []models.AggregateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list aggregate rows: %w", err)
	}
	return rows, nil
}

// FacultyScoreRows returns evaluations of courses taught by the faculty member in chronological order.
func (r *EvaluationRepository) FacultyScoreRows(ctx context.Context, facultyID int64) ([]models.FacultyScoreRow, error) {
	const query = `SELECT e.feedback, et.questions_set, to_char(e.date, 'YYYY-MM-DD') AS evaluation_date, e.course_code, c.name AS course_name
FROM evaluations e
JOIN evaluation_templates et ON e.template_id = et.id
JOIN courses c ON e.course_code = c.course_code
JOIN course_faculty cf ON e.course_code = cf.course_code
WHERE cf.faculty_id = $1
ORDER BY e.date ASC, e.id ASC`
	var rows []models.FacultyScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty score rows: %w", err)
	}
	return rows, nil
}
