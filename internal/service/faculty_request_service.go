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

type facultyRequestRepository interface {
	Create(ctx context.Context, req *models.FacultyRequest) error
	List(ctx context.Context, status string) ([]models.FacultyRequestDetail, error)
	FindByID(ctx context.Context, id int64) (*models.FacultyRequestDetail, error)
	UpdateStatus(ctx context.Context, id int64, status models.FacultyRequestStatus, entry string) (bool, error)
}

// FacultyRequestService handles student requests for a course faculty.
type FacultyRequestService struct {
	repo      facultyRequestRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFacultyRequestService constructs the service.
func NewFacultyRequestService(repo facultyRequestRepository, validate *validator.Validate, logger *zap.Logger) *FacultyRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyRequestService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Submit records a pending request.
func (s *FacultyRequestService) Submit(ctx context.Context, req models.CreateFacultyRequestRequest) (*models.FacultyRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid faculty request payload")
	}
	course := normalizeCourseCode(req.CourseCode)
	details := strings.TrimSpace(req.Details)
	if course == nil || details == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_code and details are required")
	}
	record := &models.FacultyRequest{
		StudentID:            req.StudentID,
		CourseCode:           *course,
		RequestedFacultyName: normalizeOptional(req.RequestedFacultyName),
		Details:              details,
		Status:               models.FacultyRequestPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, writeError(err, "duplicate faculty request", "failed to submit faculty request")
	}
	return record, nil
}

// List returns requests, optionally filtered by status.
func (s *FacultyRequestService) List(ctx context.Context, status string) ([]models.FacultyRequestDetail, error) {
	status = strings.TrimSpace(status)
	if status != "" && !models.FacultyRequestStatus(status).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request status")
	}
	requests, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list faculty requests")
	}
	if requests == nil {
		requests = []models.FacultyRequestDetail{}
	}
	return requests, nil
}

// Get returns one request.
func (s *FacultyRequestService) Get(ctx context.Context, id int64) (*models.FacultyRequestDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "faculty request not found", "failed to load faculty request")
	}
	return record, nil
}

// UpdateStatus records a decision and appends it to the admin comment log.
func (s *FacultyRequestService) UpdateStatus(ctx context.Context, id, adminID int64, req models.UpdateFacultyRequestStatusRequest) (*models.FacultyRequestDetail, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be pending, approved or rejected")
	}
	entry := fmt.Sprintf("\n\n--- Status '%s' by Admin %d (%s) ---\n%s",
		strings.ToUpper(string(req.Status)), adminID, s.now().UTC().Format(commentTimestampLayout), strings.TrimSpace(req.Comment))
	updated, err := s.repo.UpdateStatus(ctx, id, req.Status, entry)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update faculty request")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty request not found")
	}
	return s.Get(ctx, id)
}
