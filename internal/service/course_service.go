package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, status string) ([]models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, code string) (bool, error)
	FacultyAssigned(ctx context.Context, code string, facultyID int64) (bool, error)
	AssignFaculty(ctx context.Context, code string, facultyID int64) error
	UnassignFaculty(ctx context.Context, code string, facultyID int64) (bool, error)
	FacultyForCourse(ctx context.Context, code string) ([]models.FacultySummary, error)
	StudentAssigned(ctx context.Context, code string, studentID int64) (bool, error)
	BatchAssigned(ctx context.Context, code, batch string) (bool, error)
	AssignStudent(ctx context.Context, code string, studentID int64) error
	AssignBatch(ctx context.Context, code, batch string) error
	UnassignStudent(ctx context.Context, code string, studentID int64) (bool, error)
	UnassignBatch(ctx context.Context, code, batch string) (bool, error)
	Enrollments(ctx context.Context, code string) ([]models.CourseEnrollment, error)
}

// CourseService manages courses and their faculty and enrollment links.
type CourseService struct {
	repo      courseRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service. cache may be nil.
func NewCourseService(repo courseRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns courses, optionally by status.
func (s *CourseService) List(ctx context.Context, status string) ([]models.Course, error) {
	status = strings.TrimSpace(status)
	if status != "" && !validCourseStatus(models.CourseStatus(status)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid course status")
	}
	courses, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Upcoming lists courses with status upcoming.
func (s *CourseService) Upcoming(ctx context.Context) ([]models.Course, error) {
	return s.List(ctx, string(models.CourseStatusUpcoming))
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	return course, nil
}

// Create registers a course; status defaults to active.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	code := strings.TrimSpace(req.CourseCode)
	if normalizeCourseCode(code) == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_code is reserved")
	}
	status := req.Status
	if status == "" {
		status = models.CourseStatusActive
	}
	course := &models.Course{CourseCode: code, Name: strings.TrimSpace(req.Name), Status: status}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, writeError(err, "course already exists", "failed to create course")
	}
	return course, nil
}

// Update changes a course's name and status.
func (s *CourseService) Update(ctx context.Context, code string, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	course, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	course.Name = strings.TrimSpace(req.Name)
	course.Status = req.Status
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, writeError(err, "course conflict", "failed to update course")
	}
	return course, nil
}

// Delete removes a course together with its links, assignments and evaluations.
func (s *CourseService) Delete(ctx context.Context, code string) error {
	deleted, err := s.repo.Delete(ctx, strings.TrimSpace(code))
	if err != nil {
		return writeError(err, "course still referenced", "failed to delete course")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.invalidateReports(ctx, code)
	return nil
}

// AssignFaculty links a faculty member. A duplicate link is a conflict.
func (s *CourseService) AssignFaculty(ctx context.Context, code string, req models.AssignFacultyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid faculty assignment")
	}
	course, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	assigned, err := s.repo.FacultyAssigned(ctx, course.CourseCode, req.FacultyID)
	if err != nil {
		return appErrors.Internal(err, "failed to check faculty assignment")
	}
	if assigned {
		return appErrors.Clone(appErrors.ErrConflict, "faculty already assigned to course")
	}
	if err := s.repo.AssignFaculty(ctx, course.CourseCode, req.FacultyID); err != nil {
		return writeError(err, "faculty already assigned to course", "failed to assign faculty")
	}
	s.invalidateReports(ctx, course.CourseCode)
	return nil
}

// UnassignFaculty removes a faculty link.
func (s *CourseService) UnassignFaculty(ctx context.Context, code string, facultyID int64) error {
	removed, err := s.repo.UnassignFaculty(ctx, strings.TrimSpace(code), facultyID)
	if err != nil {
		return appErrors.Internal(err, "failed to unassign faculty")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "faculty assignment not found")
	}
	s.invalidateReports(ctx, code)
	return nil
}

// faculty aggregates join course_faculty, so link changes stale cached reports
func (s *CourseService) invalidateReports(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ReportCachePattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("course_code", code), zap.Error(err))
	}
}

// AssignStudent enrolls one student individually.
func (s *CourseService) AssignStudent(ctx context.Context, code string, req models.AssignStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid student assignment")
	}
	course, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	assigned, err := s.repo.StudentAssigned(ctx, course.CourseCode, req.StudentID)
	if err != nil {
		return appErrors.Internal(err, "failed to check student assignment")
	}
	if assigned {
		return appErrors.Clone(appErrors.ErrConflict, "student already assigned to course")
	}
	if err := s.repo.AssignStudent(ctx, course.CourseCode, req.StudentID); err != nil {
		return writeError(err, "student already assigned to course", "failed to assign student")
	}
	return nil
}

// AssignBatch enrolls a whole batch.
func (s *CourseService) AssignBatch(ctx context.Context, code string, req models.AssignBatchRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid batch assignment")
	}
	batch := strings.TrimSpace(req.Batch)
	if batch == "" {
		return appErrors.Clone(appErrors.ErrValidation, "batch is required")
	}
	course, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	assigned, err := s.repo.BatchAssigned(ctx, course.CourseCode, batch)
	if err != nil {
		return appErrors.Internal(err, "failed to check batch assignment")
	}
	if assigned {
		return appErrors.Clone(appErrors.ErrConflict, "batch already assigned to course")
	}
	if err := s.repo.AssignBatch(ctx, course.CourseCode, batch); err != nil {
		return writeError(err, "batch already assigned to course", "failed to assign batch")
	}
	return nil
}

// UnassignStudent removes an individual enrollment.
func (s *CourseService) UnassignStudent(ctx context.Context, code string, studentID int64) error {
	removed, err := s.repo.UnassignStudent(ctx, strings.TrimSpace(code), studentID)
	if err != nil {
		return appErrors.Internal(err, "failed to unassign student")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "student assignment not found")
	}
	return nil
}

// UnassignBatch removes a batch enrollment.
func (s *CourseService) UnassignBatch(ctx context.Context, code, batch string) error {
	removed, err := s.repo.UnassignBatch(ctx, strings.TrimSpace(code), strings.TrimSpace(batch))
	if err != nil {
		return appErrors.Internal(err, "failed to unassign batch")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "batch assignment not found")
	}
	return nil
}

// Enrollments lists the course's student and batch links.
func (s *CourseService) Enrollments(ctx context.Context, code string) ([]models.CourseEnrollment, error) {
	course, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.repo.Enrollments(ctx, course.CourseCode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.CourseEnrollment{}
	}
	return enrollments, nil
}

// Faculty lists the faculty teaching a course.
func (s *CourseService) Faculty(ctx context.Context, code string) ([]models.FacultySummary, error) {
	course, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	faculty, err := s.repo.FacultyForCourse(ctx, course.CourseCode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list course faculty")
	}
	if faculty == nil {
		faculty = []models.FacultySummary{}
	}
	return faculty, nil
}

// AssignmentsOverview lists courses with their faculty and enrollments.
// Faculty, batch and department filters keep courses with at least one matching link.
func (s *CourseService) AssignmentsOverview(ctx context.Context, filter models.CourseOverviewFilter) ([]models.CourseOverview, error) {
	courses, err := s.List(ctx, filter.Status)
	if err != nil {
		return nil, err
	}
	batch := strings.TrimSpace(filter.Batch)
	department := strings.TrimSpace(filter.Department)

	overview := make([]models.CourseOverview, 0, len(courses))
	for _, course := range courses {
		faculty, err := s.repo.FacultyForCourse(ctx, course.CourseCode)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list course faculty")
		}
		enrollments, err := s.repo.Enrollments(ctx, course.CourseCode)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list enrollments")
		}
		if filter.FacultyID > 0 && !hasFaculty(faculty, filter.FacultyID) {
			continue
		}
		if batch != "" && !hasEnrollment(enrollments, func(e models.CourseEnrollment) bool { return deref(e.Batch) == batch }) {
			continue
		}
		if department != "" && !hasEnrollment(enrollments, func(e models.CourseEnrollment) bool { return deref(e.Department) == department }) {
			continue
		}
		if faculty == nil {
			faculty = []models.FacultySummary{}
		}
		if enrollments == nil {
			enrollments = []models.CourseEnrollment{}
		}
		overview = append(overview, models.CourseOverview{
			CourseCode:  course.CourseCode,
			CourseName:  course.Name,
			Status:      course.Status,
			Faculty:     faculty,
			Enrollments: enrollments,
		})
	}
	return overview, nil
}

func validCourseStatus(status models.CourseStatus) bool {
	switch status {
	case models.CourseStatusActive, models.CourseStatusUpcoming, models.CourseStatusCompleted, models.CourseStatusInactive:
		return true
	default:
		return false
	}
}

func hasFaculty(faculty []models.FacultySummary, id int64) bool {
	for _, f := range faculty {
		if f.FacultyID == id {
			return true
		}
	}
	return false
}

func hasEnrollment(enrollments []models.CourseEnrollment, match func(models.CourseEnrollment) bool) bool {
	for _, e := range enrollments {
		if match(e) {
			return true
		}
	}
	return false
}
