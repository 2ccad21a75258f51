package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

const commentTimestampLayout = "2006-01-02 15:04:05"

type complaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	List(ctx context.Context, status string) ([]models.ComplaintDetail, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.ComplaintDetail, error)
	FindByID(ctx context.Context, id int64) (*models.ComplaintDetail, error)
	UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus) (bool, error)
	AppendComment(ctx context.Context, id int64, entry string) (bool, error)
}

// ComplaintService handles student complaints and their admin follow-up.
type ComplaintService struct {
	repo      complaintRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewComplaintService constructs the complaint service.
func NewComplaintService(repo complaintRepository, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Submit files a complaint for the requesting student.
func (s *ComplaintService) Submit(ctx context.Context, req models.CreateComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid complaint payload")
	}
	issue := strings.TrimSpace(req.IssueType)
	details := strings.TrimSpace(req.Details)
	if issue == "" || details == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "issue_type and details are required")
	}
	complaint := &models.Complaint{
		StudentID:  req.StudentID,
		CourseCode: normalizeCourseCode(deref(req.CourseCode)),
		IssueType:  issue,
		Details:    details,
		Status:     models.ComplaintStatusPending,
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, writeError(err, "duplicate complaint", "failed to submit complaint")
	}
	return complaint, nil
}

// ListForStudent returns the student's own complaints.
func (s *ComplaintService) ListForStudent(ctx context.Context, studentID int64) ([]models.ComplaintDetail, error) {
	complaints, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list complaints")
	}
	if complaints == nil {
		complaints = []models.ComplaintDetail{}
	}
	return complaints, nil
}

// List returns complaints, optionally filtered by status.
func (s *ComplaintService) List(ctx context.Context, status string) ([]models.ComplaintDetail, error) {
	status = strings.TrimSpace(status)
	if status != "" && !models.ComplaintStatus(status).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid complaint status")
	}
	complaints, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list complaints")
	}
	if complaints == nil {
		complaints = []models.ComplaintDetail{}
	}
	return complaints, nil
}

// Get returns one complaint.
func (s *ComplaintService) Get(ctx context.Context, id int64) (*models.ComplaintDetail, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "complaint not found", "failed to load complaint")
	}
	return complaint, nil
}

// UpdateStatus moves a complaint to pending, in_progress or resolved.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id int64, req models.UpdateComplaintStatusRequest) (*models.ComplaintDetail, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be pending, in_progress or resolved")
	}
	updated, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update complaint status")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	}
	return s.Get(ctx, id)
}

// AddComment appends a stamped admin comment.
func (s *ComplaintService) AddComment(ctx context.Context, id int64, admin string, req models.ComplaintCommentRequest) (*models.ComplaintDetail, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment is required")
	}
	entry := fmt.Sprintf("\n\n--- Admin Comment by %s (%s) ---\n%s", admin, s.now().UTC().Format(commentTimestampLayout), comment)
	updated, err := s.repo.AppendComment(ctx, id, entry)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to add complaint comment")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	}
	return s.Get(ctx, id)
}
