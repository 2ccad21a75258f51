package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type studentProfileService interface {
	Get(ctx context.Context, id int64) (*models.Student, error)
	UpdateProfile(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.Student, error)
	AssignedEvaluations(ctx context.Context, studentID int64) ([]models.AssignedEvaluation, error)
	CompletedEvaluations(ctx context.Context, studentID int64) ([]models.CompletedEvaluation, error)
}

type evaluationFormService interface {
	EvaluationContent(ctx context.Context, id int64) (*models.EvaluationContent, error)
	Submit(ctx context.Context, req models.SubmitEvaluationRequest) (*models.SubmissionResult, error)
}

type courseLookupService interface {
	Faculty(ctx context.Context, code string) ([]models.FacultySummary, error)
	Upcoming(ctx context.Context) ([]models.Course, error)
}

type studentComplaintService interface {
	Submit(ctx context.Context, req models.CreateComplaintRequest) (*models.Complaint, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.ComplaintDetail, error)
}

type studentFacultyRequestService interface {
	Submit(ctx context.Context, req models.CreateFacultyRequestRequest) (*models.FacultyRequest, error)
}

// StudentPortalDeps groups the services behind the student facade.
type StudentPortalDeps struct {
	Students        studentProfileService
	Evaluations     evaluationFormService
	Courses         courseLookupService
	Complaints      studentComplaintService
	FacultyRequests studentFacultyRequestService
}

// StudentPortalHandler serves the endpoints a logged-in student uses.
type StudentPortalHandler struct {
	deps StudentPortalDeps
}

// NewStudentPortalHandler constructs the student facade handler.
func NewStudentPortalHandler(deps StudentPortalDeps) *StudentPortalHandler {
	return &StudentPortalHandler{deps: deps}
}

// Profile godoc
// @Summary Read own profile
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/profile [get]
func (h *StudentPortalHandler) Profile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	student, err := h.deps.Students.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Student
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /student/profile [put]
func (h *StudentPortalHandler) UpdateProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	student, err := h.deps.Students.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// AssignedEvaluations godoc
// @Summary Evaluations waiting for the student
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/evaluations/assigned [get]
func (h *StudentPortalHandler) AssignedEvaluations(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.deps.Students.AssignedEvaluations(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// CompletedEvaluations godoc
// @Summary Evaluations the student has submitted
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/evaluations/completed [get]
func (h *StudentPortalHandler) CompletedEvaluations(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.deps.Students.CompletedEvaluations(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// TemplateContent godoc
// @Summary Evaluation form content
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /student/evaluations/templates/{id} [get]
func (h *StudentPortalHandler) TemplateContent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.deps.Evaluations.EvaluationContent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, content)
}

// SubmitEvaluation godoc
// @Summary Submit an evaluation
// @Tags Student
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.SubmitEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/evaluations/submit [post]
func (h *StudentPortalHandler) SubmitEvaluation(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}
	req.StudentID = claims.UserID

	result, err := h.deps.Evaluations.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// CourseFaculty godoc
// @Summary Faculty teaching a course
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /student/courses/{code}/faculty [get]
func (h *StudentPortalHandler) CourseFaculty(c *gin.Context) {
	faculty, err := h.deps.Courses.Faculty(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, faculty)
}

// UpcomingCourses godoc
// @Summary Upcoming courses
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/courses/upcoming [get]
func (h *StudentPortalHandler) UpcomingCourses(c *gin.Context) {
	courses, err := h.deps.Courses.Upcoming(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// SubmitComplaint godoc
// @Summary File a complaint
// @Tags Student
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Router /student/complaints [post]
func (h *StudentPortalHandler) SubmitComplaint(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}
	req.StudentID = claims.UserID

	complaint, err := h.deps.Complaints.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}

// Complaints godoc
// @Summary List own complaints
// @Tags Student
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/complaints [get]
func (h *StudentPortalHandler) Complaints(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.deps.Complaints.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// SubmitFacultyRequest godoc
// @Summary Request a faculty member for a course
// @Tags Student
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateFacultyRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /student/faculty-requests [post]
func (h *StudentPortalHandler) SubmitFacultyRequest(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateFacultyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty request payload"))
		return
	}
	req.StudentID = claims.UserID

	created, err := h.deps.FacultyRequests.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}
