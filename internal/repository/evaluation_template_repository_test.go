package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-eval-api/internal/models"
)

var templateRowColumns = []string{"id", "title", "questions_set", "batch", "course_code", "session", "last_date", "admin_id", "source_template_id", "created_at", "updated_at"}

const sampleQuestionSet = `{"instructions":"Be honest","questions":[{"id":"q1","text":"Rate the course","type":"rating","options":["1 Poor","5 Excellent"]}]}`

func TestEvaluationTemplateRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	course := "CS101"
	tpl := &models.EvaluationTemplate{
		FormDefinition:  models.FormDefinition{Title: "Midterm"},
		AssignmentScope: models.AssignmentScope{CourseCode: &course},
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO evaluation_templates")).
		WithArgs("Midterm", sqlmock.AnyArg(), nil, "CS101", nil, nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	require.NoError(t, repo.Create(context.Background(), tpl))
	assert.Equal(t, int64(11), tpl.ID)
	assert.False(t, tpl.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryFindByIDDecodesQuestions(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM evaluation_templates WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow(2, "Midterm", sampleQuestionSet, "2022", nil, nil, now, 1, nil, now, now))

	tpl, err := repo.FindByID(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, tpl.QuestionSet.Questions, 1)
	assert.Equal(t, "q1", tpl.QuestionSet.Questions[0].ID)
	assert.Equal(t, models.QuestionTypeRating, tpl.QuestionSet.Questions[0].Kind.Type())
	require.NotNil(t, tpl.Batch)
	assert.Equal(t, "2022", *tpl.Batch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryListPaginates(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM evaluation_templates WHERE 1=1 AND course_code = $1 AND LOWER(title) LIKE $2 ORDER BY title ASC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("CS101", "%mid%").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow(2, "Midterm", sampleQuestionSet, nil, "CS101", nil, now, nil, 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM evaluation_templates WHERE 1=1 AND course_code = $1 AND LOWER(title) LIKE $2")).
		WithArgs("CS101", "%mid%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	templates, total, err := repo.List(context.Background(), models.TemplateFilter{CourseCode: "CS101", Search: "Mid", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, templates, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM evaluations WHERE template_id = $1")).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM evaluation_completion WHERE template_id = $1")).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM evaluation_templates WHERE id = $1")).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryDeleteForCourseMismatch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM evaluation_templates WHERE id = $1 AND course_code = $2 FOR UPDATE")).
		WithArgs(int64(5), "CS999").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	deleted, err := repo.DeleteForCourse(context.Background(), 5, "CS999")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryCountRunningForAdmin(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	admin := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT id) FROM evaluation_templates WHERE last_date >= $1 AND (admin_id = $2 OR admin_id IS NULL OR course_code IS NOT NULL)")).
		WithArgs(today, admin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountRunning(context.Background(), today, &admin)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryCompletedStudentIDs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE template_id = $1 AND is_completed = TRUE AND course_code IS NULL")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(1).AddRow(2))

	ids, err := repo.CompletedStudentIDs(context.Background(), 8, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationTemplateRepositoryListOngoingRequiresScope(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEvaluationTemplateRepository(db)

	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE last_date >= $1 AND (course_code IS NOT NULL OR batch IS NOT NULL OR session IS NOT NULL) ORDER BY last_date ASC, title ASC")).
		WithArgs(today).
		WillReturnRows(sqlmock.NewRows(templateRowColumns))

	templates, err := repo.ListOngoing(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, templates)
	assert.NoError(t, mock.ExpectationsWereMet())
}
