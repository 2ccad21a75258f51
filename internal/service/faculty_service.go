package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context) ([]models.Faculty, error)
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	Create(ctx context.Context, member *models.Faculty) error
	Update(ctx context.Context, member *models.Faculty) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type facultyCourseRepository interface {
	CoursesForFaculty(ctx context.Context, facultyID int64) ([]models.Course, error)
}

// FacultyService manages faculty members.
type FacultyService struct {
	repo      facultyRepository
	courses   facultyCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs the faculty service.
func NewFacultyService(repo facultyRepository, courses facultyCourseRepository, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns all faculty members.
func (s *FacultyService) List(ctx context.Context) ([]models.Faculty, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list faculty")
	}
	if members == nil {
		members = []models.Faculty{}
	}
	return members, nil
}

// Get returns one faculty member.
func (s *FacultyService) Get(ctx context.Context, id int64) (*models.Faculty, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "faculty not found", "failed to load faculty")
	}
	return member, nil
}

// Create registers a faculty member.
func (s *FacultyService) Create(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid faculty payload")
	}
	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, appErrors.Validation(err, "dob must be YYYY-MM-DD")
	}
	joined, err := parseOptionalDate(req.JoiningDate)
	if err != nil {
		return nil, appErrors.Validation(err, "joining_date must be YYYY-MM-DD")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	member := &models.Faculty{
		FacultyID:      req.FacultyID,
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		PasswordHash:   string(hash),
		ContactNo:      normalizeOptional(req.ContactNo),
		DOB:            dob,
		Gender:         normalizeOptional(req.Gender),
		JoiningDate:    joined,
		ProfilePicture: normalizeOptional(req.ProfilePicture),
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, writeError(err, "faculty id or email already used", "failed to create faculty")
	}
	return member, nil
}

// Update replaces a faculty member's attributes.
func (s *FacultyService) Update(ctx context.Context, id int64, req models.UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid faculty payload")
	}
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, appErrors.Validation(err, "dob must be YYYY-MM-DD")
	}
	joined, err := parseOptionalDate(req.JoiningDate)
	if err != nil {
		return nil, appErrors.Validation(err, "joining_date must be YYYY-MM-DD")
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		member.PasswordHash = string(hash)
	}
	member.Name = strings.TrimSpace(req.Name)
	member.Email = strings.TrimSpace(req.Email)
	member.ContactNo = normalizeOptional(req.ContactNo)
	member.DOB = dob
	member.Gender = normalizeOptional(req.Gender)
	member.JoiningDate = joined
	member.ProfilePicture = normalizeOptional(req.ProfilePicture)
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, writeError(err, "email already used", "failed to update faculty")
	}
	return member, nil
}

// Delete removes a faculty member.
func (s *FacultyService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return writeError(err, "faculty still referenced", "failed to delete faculty")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
	}
	return nil
}

// Courses lists the courses a faculty member teaches.
func (s *FacultyService) Courses(ctx context.Context, facultyID int64) ([]models.Course, error) {
	if _, err := s.Get(ctx, facultyID); err != nil {
		return nil, err
	}
	courses, err := s.courses.CoursesForFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list faculty courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}
