package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateProfile(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountBatches(ctx context.Context) (int, error)
	ListSessions(ctx context.Context) ([]string, error)
	ListDepartments(ctx context.Context) ([]string, error)
	ListBatchesWithDepartments(ctx context.Context) ([]models.BatchDepartment, error)
}

type studentEvaluationRepository interface {
	ListAssignedForStudent(ctx context.Context, studentID int64, today time.Time) ([]models.AssignedEvaluation, error)
	ListCompletedForStudent(ctx context.Context, studentID int64) ([]models.CompletedEvaluation, error)
}

// StudentService handles student records and the student facing evaluation lists.
type StudentService struct {
	repo        studentRepository
	evaluations studentEvaluationRepository
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, evaluations studentEvaluationRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, evaluations: evaluations, validator: validate, logger: logger, now: time.Now}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a student under the admin-assigned id.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}
	dob, enrolled, err := parseStudentDates(req.DOB, req.EnrollmentDate)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	student := &models.Student{
		StudentID:         req.StudentID,
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.TrimSpace(req.Email),
		PasswordHash:      string(hash),
		ContactNo:         normalizeOptional(req.ContactNo),
		DOB:               dob,
		Gender:            normalizeOptional(req.Gender),
		Session:           normalizeOptional(req.Session),
		Batch:             normalizeOptional(req.Batch),
		EnrollmentDate:    enrolled,
		Department:        normalizeOptional(req.Department),
		CGPA:              req.CGPA,
		BehavioralRecords: normalizeOptional(req.BehavioralRecords),
		ProfilePicture:    normalizeOptional(req.ProfilePicture),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, writeError(err, "student id or email already used", "failed to create student")
	}
	return student, nil
}

// Update replaces a student's attributes. A blank password keeps the stored hash.
func (s *StudentService) Update(ctx context.Context, id int64, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if err := s.ensureEmailFree(ctx, req.Email, id); err != nil {
		return nil, err
	}
	dob, enrolled, err := parseStudentDates(req.DOB, req.EnrollmentDate)
	if err != nil {
		return nil, err
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		student.PasswordHash = string(hash)
	}
	student.Name = strings.TrimSpace(req.Name)
	student.Email = strings.TrimSpace(req.Email)
	student.ContactNo = normalizeOptional(req.ContactNo)
	student.DOB = dob
	student.Gender = normalizeOptional(req.Gender)
	student.Session = normalizeOptional(req.Session)
	student.Batch = normalizeOptional(req.Batch)
	student.EnrollmentDate = enrolled
	student.Department = normalizeOptional(req.Department)
	student.CGPA = req.CGPA
	student.BehavioralRecords = normalizeOptional(req.BehavioralRecords)
	student.ProfilePicture = normalizeOptional(req.ProfilePicture)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, writeError(err, "email already used", "failed to update student")
	}
	return student, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return writeError(err, "student still referenced", "failed to delete student")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

// UpdateProfile applies the student-editable fields. Nil fields are left unchanged.
func (s *StudentService) UpdateProfile(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be blank")
		}
		student.Name = name
	}
	if req.ContactNo != nil {
		student.ContactNo = normalizeOptional(req.ContactNo)
	}
	if req.ProfilePicture != nil {
		student.ProfilePicture = normalizeOptional(req.ProfilePicture)
	}
	if err := s.repo.UpdateProfile(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to update profile")
	}
	return student, nil
}

// TotalBatches counts distinct batches.
func (s *StudentService) TotalBatches(ctx context.Context) (int, error) {
	count, err := s.repo.CountBatches(ctx)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count batches")
	}
	return count, nil
}

// Sessions lists distinct sessions.
func (s *StudentService) Sessions(ctx context.Context) ([]string, error) {
	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list sessions")
	}
	return nonNilStrings(sessions), nil
}

// Departments lists distinct departments.
func (s *StudentService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list departments")
	}
	return nonNilStrings(departments), nil
}

// BatchesWithDepartments lists distinct batch and department pairs.
func (s *StudentService) BatchesWithDepartments(ctx context.Context) ([]models.BatchDepartment, error) {
	batches, err := s.repo.ListBatchesWithDepartments(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list batches")
	}
	if batches == nil {
		batches = []models.BatchDepartment{}
	}
	return batches, nil
}

// AssignedEvaluations lists open forms the student has not submitted yet.
func (s *StudentService) AssignedEvaluations(ctx context.Context, studentID int64) ([]models.AssignedEvaluation, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	assigned, err := s.evaluations.ListAssignedForStudent(ctx, studentID, startOfDay(s.now()))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assigned evaluations")
	}
	if assigned == nil {
		assigned = []models.AssignedEvaluation{}
	}
	return assigned, nil
}

// CompletedEvaluations lists the student's completion records.
func (s *StudentService) CompletedEvaluations(ctx context.Context, studentID int64) ([]models.CompletedEvaluation, error) {
	completed, err := s.evaluations.ListCompletedForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list completed evaluations")
	}
	if completed == nil {
		completed = []models.CompletedEvaluation{}
	}
	return completed, nil
}

func (s *StudentService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	exists, err := s.repo.ExistsByEmail(ctx, strings.TrimSpace(email), excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	return nil
}

func parseStudentDates(dob, enrollment string) (*time.Time, *time.Time, error) {
	birth, err := parseOptionalDate(dob)
	if err != nil {
		return nil, nil, appErrors.Validation(err, "dob must be YYYY-MM-DD")
	}
	enrolled, err := parseOptionalDate(enrollment)
	if err != nil {
		return nil, nil, appErrors.Validation(err, "enrollment_date must be YYYY-MM-DD")
	}
	return birth, enrolled, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
