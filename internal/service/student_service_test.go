package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type studentRepoStub struct {
	studentRepository
	rows    map[int64]*models.Student
	emails  map[string]int64
	profile *models.Student
}

func newStudentRepoStub(students ...models.Student) *studentRepoStub {
	stub := &studentRepoStub{rows: map[int64]*models.Student{}, emails: map[string]int64{}}
	for i := range students {
		s := students[i]
		stub.rows[s.StudentID] = &s
		stub.emails[s.Email] = s.StudentID
	}
	return stub
}

func (s *studentRepoStub) FindByID(_ context.Context, id int64) (*models.Student, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (s *studentRepoStub) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	id, ok := s.emails[email]
	return ok && id != excludeID, nil
}

func (s *studentRepoStub) Create(_ context.Context, student *models.Student) error {
	s.rows[student.StudentID] = student
	s.emails[student.Email] = student.StudentID
	return nil
}

func (s *studentRepoStub) UpdateProfile(_ context.Context, student *models.Student) error {
	s.profile = student
	return nil
}

func (s *studentRepoStub) ListSessions(context.Context) ([]string, error) {
	return nil, nil
}

type studentEvaluationsStub struct {
	today time.Time
}

func (s *studentEvaluationsStub) ListAssignedForStudent(_ context.Context, _ int64, today time.Time) ([]models.AssignedEvaluation, error) {
	s.today = today
	return nil, nil
}

func (s *studentEvaluationsStub) ListCompletedForStudent(context.Context, int64) ([]models.CompletedEvaluation, error) {
	return []models.CompletedEvaluation{{TemplateID: 3}}, nil
}

func TestStudentCreateHashesPasswordAndNormalizes(t *testing.T) {
	repo := newStudentRepoStub()
	svc := NewStudentService(repo, &studentEvaluationsStub{}, nil, zap.NewNop())

	batch := " 2022 "
	empty := "   "
	created, err := svc.Create(context.Background(), models.CreateStudentRequest{
		StudentID: 1001,
		Name:      " Ana ",
		Email:     "ana@example.com",
		Password:  "secret1",
		Batch:     &batch,
		Session:   &empty,
		DOB:       "2003-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", created.Name)
	require.NotNil(t, created.Batch)
	assert.Equal(t, "2022", *created.Batch)
	assert.Nil(t, created.Session)
	require.NotNil(t, created.DOB)
	assert.Equal(t, time.May, created.DOB.Month())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret1")))
}

func TestStudentCreateRejectsTakenEmail(t *testing.T) {
	repo := newStudentRepoStub(models.Student{StudentID: 1, Email: "ana@example.com"})
	svc := NewStudentService(repo, &studentEvaluationsStub{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.CreateStudentRequest{
		StudentID: 2,
		Name:      "Other",
		Email:     "ana@example.com",
		Password:  "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdateProfileKeepsUnsetFields(t *testing.T) {
	contact := "0800"
	repo := newStudentRepoStub(models.Student{StudentID: 1001, Name: "Ana", Email: "ana@example.com", ContactNo: &contact})
	svc := NewStudentService(repo, &studentEvaluationsStub{}, nil, zap.NewNop())
	ctx := context.Background()

	name := "Ana Maria"
	updated, err := svc.UpdateProfile(ctx, 1001, models.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	require.NotNil(t, updated.ContactNo)
	assert.Equal(t, "0800", *updated.ContactNo)
	assert.Same(t, updated, repo.profile)

	blank := "   "
	_, err = svc.UpdateProfile(ctx, 1001, models.UpdateProfileRequest{Name: &blank})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateProfile(ctx, 9, models.UpdateProfileRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentAssignedEvaluationsUsesStartOfDay(t *testing.T) {
	repo := newStudentRepoStub(models.Student{StudentID: 1001, Email: "ana@example.com"})
	evals := &studentEvaluationsStub{}
	svc := NewStudentService(repo, evals, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 12, 15, 30, 0, 0, time.UTC) }

	assigned, err := svc.AssignedEvaluations(context.Background(), 1001)
	require.NoError(t, err)
	assert.NotNil(t, assigned)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), evals.today)

	_, err = svc.AssignedEvaluations(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	completed, err := svc.CompletedEvaluations(context.Background(), 1001)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	sessions, err := svc.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, sessions)
}
