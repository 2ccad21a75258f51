package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

// ReportCachePattern matches every cached aggregate report.
const ReportCachePattern = "reports:*"

type templateRepository interface {
	Create(ctx context.Context, tpl *models.EvaluationTemplate) error
	FindByID(ctx context.Context, id int64) (*models.EvaluationTemplate, error)
	List(ctx context.Context, filter models.TemplateFilter) ([]models.EvaluationTemplate, int, error)
	Update(ctx context.Context, tpl *models.EvaluationTemplate) error
	UpdateLastDate(ctx context.Context, id int64, lastDate time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteForCourse(ctx context.Context, id int64, courseCode string) (bool, error)
	ListOngoing(ctx context.Context, today time.Time) ([]models.EvaluationTemplate, error)
	ListPast(ctx context.Context, today time.Time) ([]models.EvaluationTemplate, error)
	CountRunning(ctx context.Context, today time.Time, adminID *int64) (int, error)
	ListByCourse(ctx context.Context, courseCode string) ([]models.EvaluationTemplate, error)
	CompletedStudentIDs(ctx context.Context, templateID int64, courseCode *string) ([]int64, error)
}

type respondentRepository interface {
	IDsForCourse(ctx context.Context, courseCode string) ([]int64, error)
	IDsForBatch(ctx context.Context, batch string) ([]int64, error)
	IDsForSession(ctx context.Context, session string) ([]int64, error)
	CohortsByIDs(ctx context.Context, ids []int64) ([]models.NonCompleter, error)
}

type evaluationWriter interface {
	Submit(ctx context.Context, eval *models.Evaluation, studentID int64) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// EvaluationTemplateService manages forms, their assignments and completion tracking.
type EvaluationTemplateService struct {
	templates   templateRepository
	students    respondentRepository
	evaluations evaluationWriter
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEvaluationTemplateService constructs the service. cache may be nil.
func NewEvaluationTemplateService(templates templateRepository, students respondentRepository, evaluations evaluationWriter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EvaluationTemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationTemplateService{
		templates:   templates,
		students:    students,
		evaluations: evaluations,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *EvaluationTemplateService) today() time.Time {
	return startOfDay(s.now())
}

// Create stores a new form. Questions without an id get one.
func (s *EvaluationTemplateService) Create(ctx context.Context, req models.CreateTemplateRequest) (*models.EvaluationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid template payload")
	}
	qs := req.QuestionSet.Clone()
	qs.EnsureIDs()
	if err := qs.Validate(); err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	lastDate, err := parseOptionalDate(req.LastDate)
	if err != nil {
		return nil, appErrors.Validation(err, "last_date must be YYYY-MM-DD")
	}

	tpl := &models.EvaluationTemplate{
		FormDefinition: models.FormDefinition{Title: strings.TrimSpace(req.Title), QuestionSet: qs},
		AssignmentScope: models.AssignmentScope{
			CourseCode: normalizeOptional(req.CourseCode),
			Batch:      normalizeOptional(req.Batch),
			Session:    normalizeOptional(req.Session),
			LastDate:   lastDate,
		},
		AdminID: req.AdminID,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, writeError(err, "template already exists", "failed to create template")
	}
	return tpl, nil
}

// Get returns one template.
func (s *EvaluationTemplateService) Get(ctx context.Context, id int64) (*models.EvaluationTemplate, error) {
	tpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "template not found", "failed to load template")
	}
	return tpl, nil
}

// List returns templates with pagination.
func (s *EvaluationTemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.EvaluationTemplate, *models.Pagination, error) {
	templates, total, err := s.templates.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list templates")
	}
	return templates, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Update changes title, questions or deadline.
func (s *EvaluationTemplateService) Update(ctx context.Context, id int64, req models.UpdateTemplateRequest) (*models.EvaluationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid template payload")
	}
	tpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "template not found", "failed to load template")
	}
	if req.Title != nil {
		tpl.Title = strings.TrimSpace(*req.Title)
	}
	if req.QuestionSet != nil {
		qs := req.QuestionSet.Clone()
		qs.AdoptIDs(tpl.QuestionSet)
		qs.EnsureIDs()
		if err := qs.Validate(); err != nil {
			return nil, appErrors.Validation(err, err.Error())
		}
		tpl.QuestionSet = qs
	}
	if req.LastDate != nil {
		lastDate, err := parseOptionalDate(*req.LastDate)
		if err != nil {
			return nil, appErrors.Validation(err, "last_date must be YYYY-MM-DD")
		}
		tpl.LastDate = lastDate
	}
	if err := s.templates.Update(ctx, tpl); err != nil {
		return nil, appErrors.Internal(err, "failed to update template")
	}
	s.invalidateReports(ctx)
	return tpl, nil
}

// Delete removes a template with its evaluations and completions.
func (s *EvaluationTemplateService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.templates.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete template")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "template not found")
	}
	s.invalidateReports(ctx)
	return nil
}

// Assign clones a form into a new scoped assignment. Question ids are preserved.
func (s *EvaluationTemplateService) Assign(ctx context.Context, sourceID int64, req models.AssignTemplateRequest) (*models.EvaluationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}
	scope := models.AssignmentScope{
		CourseCode: normalizeOptional(req.CourseCode),
		Batch:      normalizeOptional(req.Batch),
		Session:    normalizeOptional(req.Session),
	}
	if !scope.Scoped() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_code, batch or session is required")
	}
	lastDate, err := parseDate(req.LastDate)
	if err != nil {
		return nil, appErrors.Validation(err, "last_date must be YYYY-MM-DD")
	}
	scope.LastDate = &lastDate

	source, err := s.templates.FindByID(ctx, sourceID)
	if err != nil {
		return nil, lookupError(err, "source template not found", "failed to load source template")
	}

	master := source.ID
	if source.SourceTemplateID != nil {
		master = *source.SourceTemplateID
	}
	clone := &models.EvaluationTemplate{
		FormDefinition: models.FormDefinition{
			Title:       models.AssignmentTitle(source.Title, scope),
			QuestionSet: source.QuestionSet.Clone(),
		},
		AssignmentScope:  scope,
		AdminID:          req.AdminID,
		SourceTemplateID: &master,
	}
	if err := s.templates.Create(ctx, clone); err != nil {
		return nil, writeError(err, "assignment already exists", "failed to create assignment")
	}
	s.logger.Info("template assigned",
		zap.Int64("source_template_id", sourceID),
		zap.Int64("template_id", clone.ID),
		zap.String("course_code", deref(scope.CourseCode)),
		zap.String("batch", deref(scope.Batch)),
		zap.String("session", deref(scope.Session)),
	)
	return clone, nil
}

// ExtendDeadline moves last_date. The new date is not compared with today.
func (s *EvaluationTemplateService) ExtendDeadline(ctx context.Context, id int64, req models.ExtendDeadlineRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid deadline payload")
	}
	lastDate, err := parseDate(req.LastDate)
	if err != nil {
		return appErrors.Validation(err, "last_date must be YYYY-MM-DD")
	}
	updated, err := s.templates.UpdateLastDate(ctx, id, lastDate)
	if err != nil {
		return appErrors.Internal(err, "failed to extend deadline")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrNotFound, "template not found")
	}
	return nil
}

// Ongoing lists scoped templates still open today.
func (s *EvaluationTemplateService) Ongoing(ctx context.Context) ([]models.EvaluationTemplate, error) {
	templates, err := s.templates.ListOngoing(ctx, s.today())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list ongoing evaluations")
	}
	return templates, nil
}

// Past lists scoped templates whose deadline has passed.
func (s *EvaluationTemplateService) Past(ctx context.Context) ([]models.EvaluationTemplate, error) {
	templates, err := s.templates.ListPast(ctx, s.today())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list past evaluations")
	}
	return templates, nil
}

// RunningCount counts open templates, optionally as seen by one admin.
func (s *EvaluationTemplateService) RunningCount(ctx context.Context, adminID *int64) (int, error) {
	count, err := s.templates.CountRunning(ctx, s.today(), adminID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count running evaluations")
	}
	return count, nil
}

// TemplatesForCourse lists assignments of a course.
func (s *EvaluationTemplateService) TemplatesForCourse(ctx context.Context, courseCode string) ([]models.EvaluationTemplate, error) {
	templates, err := s.templates.ListByCourse(ctx, strings.TrimSpace(courseCode))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list course templates")
	}
	return templates, nil
}

// UnassignFromCourse deletes an assignment when it belongs to the course.
func (s *EvaluationTemplateService) UnassignFromCourse(ctx context.Context, id int64, courseCode string) error {
	deleted, err := s.templates.DeleteForCourse(ctx, id, strings.TrimSpace(courseCode))
	if err != nil {
		return appErrors.Internal(err, "failed to unassign template")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found for course")
	}
	s.invalidateReports(ctx)
	return nil
}

// EvaluationContent returns what a student needs to render the form.
func (s *EvaluationTemplateService) EvaluationContent(ctx context.Context, id int64) (*models.EvaluationContent, error) {
	tpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "template not found", "failed to load template")
	}
	questions := tpl.QuestionSet.Questions
	if questions == nil {
		questions = []models.Question{}
	}
	return &models.EvaluationContent{
		TemplateID:   tpl.ID,
		Title:        tpl.Title,
		CourseCode:   tpl.CourseCode,
		LastDate:     tpl.LastDate,
		Instructions: tpl.QuestionSet.Instructions,
		Questions:    questions,
	}, nil
}

// ResolveExpected returns the sorted, unique student ids an assignment targets.
// Course takes precedence over batch, batch over session.
func (s *EvaluationTemplateService) ResolveExpected(ctx context.Context, tpl *models.EvaluationTemplate) ([]int64, error) {
	var (
		ids []int64
		err error
	)
	switch {
	case tpl.CourseCode != nil:
		ids, err = s.students.IDsForCourse(ctx, *tpl.CourseCode)
	case tpl.Batch != nil:
		ids, err = s.students.IDsForBatch(ctx, *tpl.Batch)
	case tpl.Session != nil:
		ids, err = s.students.IDsForSession(ctx, *tpl.Session)
	default:
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	return uniqueSorted(ids), nil
}

// CompletionStatus compares expected respondents with completed rows for (template, course).
func (s *EvaluationTemplateService) CompletionStatus(ctx context.Context, templateID int64, courseCode string) (*models.CompletionStatus, error) {
	tpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, lookupError(err, "template not found", "failed to load template")
	}
	course := normalizeCourseCode(courseCode)
	status := &models.CompletionStatus{
		TemplateID:    templateID,
		CourseCode:    course,
		NonCompleters: []models.NonCompleter{},
	}

	expected, err := s.ResolveExpected(ctx, tpl)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve expected students")
	}
	if len(expected) == 0 {
		return status, nil
	}

	completedIDs, err := s.templates.CompletedStudentIDs(ctx, templateID, course)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load completions")
	}
	completed := make(map[int64]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	pending := make([]int64, 0, len(expected))
	for _, id := range expected {
		if _, ok := completed[id]; ok {
			status.CompletedCount++
			continue
		}
		pending = append(pending, id)
	}
	status.TotalExpected = len(expected)
	status.CompletionPercentage = roundTo(float64(status.CompletedCount)*100/float64(status.TotalExpected), 2)

	if len(pending) > 0 {
		cohorts, err := s.students.CohortsByIDs(ctx, pending)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load non completers")
		}
		sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].StudentID < cohorts[j].StudentID })
		status.NonCompleters = cohorts
	}
	return status, nil
}

// Submit records an anonymous evaluation and marks the student's completion atomically.
func (s *EvaluationTemplateService) Submit(ctx context.Context, req models.SubmitEvaluationRequest) (*models.SubmissionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "template_id and feedback are required")
	}
	tpl, err := s.templates.FindByID(ctx, req.TemplateID)
	if err != nil {
		return nil, lookupError(err, "template not found", "failed to load template")
	}

	course := normalizeCourseCode(req.CourseCode)
	switch {
	case tpl.CourseCode != nil && course == nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_code is required for this evaluation")
	case tpl.CourseCode != nil && *course != *tpl.CourseCode:
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_code does not match the evaluation")
	case tpl.CourseCode == nil && course != nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "evaluation is not assigned to a course")
	}

	feedback, err := canonicalFeedback(tpl.QuestionSet, req.Feedback)
	if err != nil {
		return nil, err
	}

	eval := &models.Evaluation{
		CourseCode: course,
		TemplateID: tpl.ID,
		Feedback:   feedback,
		Comment:    normalizeOptional(&req.Comment),
		Date:       s.now().UTC(),
	}
	if err := s.evaluations.Submit(ctx, eval, req.StudentID); err != nil {
		return nil, writeError(err, "evaluation already submitted", "failed to submit evaluation")
	}
	s.invalidateReports(ctx)

	return &models.SubmissionResult{
		EvaluationID: eval.ID,
		TemplateID:   eval.TemplateID,
		CourseCode:   eval.CourseCode,
		SubmittedAt:  eval.Date,
	}, nil
}

// canonicalFeedback rekeys answers by question id. Unknown keys are rejected.
func canonicalFeedback(qs models.QuestionSet, feedback models.Feedback) (models.Feedback, error) {
	out := make(models.Feedback, len(feedback))
	for key, answer := range feedback {
		q, ok := qs.Find(key)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown question %q", key))
		}
		canonical := q.Key()
		if _, dup := out[canonical]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %q answered twice", q.Text))
		}
		out[canonical] = answer
	}
	return out, nil
}

func (s *EvaluationTemplateService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ReportCachePattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
