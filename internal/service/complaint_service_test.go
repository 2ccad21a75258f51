package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type complaintRepoStub struct {
	items map[int64]*models.ComplaintDetail
}

func (s *complaintRepoStub) Create(_ context.Context, complaint *models.Complaint) error {
	complaint.ID = int64(len(s.items) + 1)
	s.items[complaint.ID] = &models.ComplaintDetail{Complaint: *complaint}
	return nil
}

func (s *complaintRepoStub) List(_ context.Context, status string) ([]models.ComplaintDetail, error) {
	var out []models.ComplaintDetail
	for _, item := range s.items {
		if status == "" || string(item.Status) == status {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *complaintRepoStub) ListByStudent(context.Context, int64) ([]models.ComplaintDetail, error) {
	return nil, nil
}

func (s *complaintRepoStub) FindByID(_ context.Context, id int64) (*models.ComplaintDetail, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *complaintRepoStub) UpdateStatus(_ context.Context, id int64, status models.ComplaintStatus) (bool, error) {
	item, ok := s.items[id]
	if !ok {
		return false, nil
	}
	item.Status = status
	return true, nil
}

func (s *complaintRepoStub) AppendComment(_ context.Context, id int64, entry string) (bool, error) {
	item, ok := s.items[id]
	if !ok {
		return false, nil
	}
	combined := entry
	if item.AdminComments != nil {
		combined = *item.AdminComments + entry
	}
	item.AdminComments = &combined
	return true, nil
}

func newComplaintFixture() (*ComplaintService, *complaintRepoStub) {
	repo := &complaintRepoStub{items: map[int64]*models.ComplaintDetail{}}
	svc := NewComplaintService(repo, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 14, 5, 9, 0, time.UTC) }
	return svc, repo
}

func TestComplaintSubmitAndComment(t *testing.T) {
	svc, _ := newComplaintFixture()
	ctx := context.Background()

	complaint, err := svc.Submit(ctx, models.CreateComplaintRequest{
		CourseCode: strPtr("N/A"),
		IssueType:  " grading ",
		Details:    "Marks missing",
		StudentID:  1001,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusPending, complaint.Status)
	assert.Equal(t, "grading", complaint.IssueType)
	assert.Nil(t, complaint.CourseCode)

	detail, err := svc.AddComment(ctx, complaint.ID, "Root", models.ComplaintCommentRequest{Comment: "Looking into it"})
	require.NoError(t, err)
	require.NotNil(t, detail.AdminComments)
	assert.Equal(t, "\n\n--- Admin Comment by Root (2024-03-10 14:05:09) ---\nLooking into it", *detail.AdminComments)
}

func TestComplaintUpdateStatus(t *testing.T) {
	svc, _ := newComplaintFixture()
	ctx := context.Background()
	complaint, err := svc.Submit(ctx, models.CreateComplaintRequest{IssueType: "other", Details: "x", StudentID: 1})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, complaint.ID, models.UpdateComplaintStatusRequest{Status: "closed"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	detail, err := svc.UpdateStatus(ctx, complaint.ID, models.UpdateComplaintStatusRequest{Status: models.ComplaintStatusResolved})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusResolved, detail.Status)

	_, err = svc.UpdateStatus(ctx, 99, models.UpdateComplaintStatusRequest{Status: models.ComplaintStatusResolved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestComplaintListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newComplaintFixture()

	_, err := svc.List(context.Background(), "archived")
	require.Error(t, err)

	list, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, list)
}
