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

type courseService interface {
	List(ctx context.Context, status string) ([]models.Course, error)
	Get(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, code string, req models.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, code string) error
	AssignFaculty(ctx context.Context, code string, req models.AssignFacultyRequest) error
	UnassignFaculty(ctx context.Context, code string, facultyID int64) error
	AssignStudent(ctx context.Context, code string, req models.AssignStudentRequest) error
	AssignBatch(ctx context.Context, code string, req models.AssignBatchRequest) error
	UnassignStudent(ctx context.Context, code string, studentID int64) error
	UnassignBatch(ctx context.Context, code, batch string) error
	Enrollments(ctx context.Context, code string) ([]models.CourseEnrollment, error)
	Faculty(ctx context.Context, code string) ([]models.FacultySummary, error)
	AssignmentsOverview(ctx context.Context, filter models.CourseOverviewFilter) ([]models.CourseOverview, error)
}

// CourseHandler manages courses and their faculty/student links.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func courseCode(c *gin.Context) string {
	return strings.TrimSpace(c.Param("code"))
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param status query string false "active, upcoming, completed or inactive"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), courseCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param code path string true "Course code"
// @Param payload body models.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{code} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req models.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), courseCode(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 204
// @Router /admin/courses/{code} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), courseCode(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignFaculty godoc
// @Summary Assign a faculty member to a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Param code path string true "Course code"
// @Param payload body models.AssignFacultyRequest true "Faculty payload"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /admin/courses/{code}/faculty [post]
func (h *CourseHandler) AssignFaculty(c *gin.Context) {
	var req models.AssignFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.courses.AssignFaculty(c.Request.Context(), courseCode(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnassignFaculty godoc
// @Summary Remove a faculty member from a course
// @Tags Courses
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param faculty_id query int true "Faculty ID"
// @Success 204
// @Router /admin/courses/{code}/faculty [delete]
func (h *CourseHandler) UnassignFaculty(c *gin.Context) {
	facultyID, ok := queryID(c, "faculty_id")
	if !ok {
		return
	}
	if err := h.courses.UnassignFaculty(c.Request.Context(), courseCode(c), facultyID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignStudent godoc
// @Summary Enroll a single student in a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Param code path string true "Course code"
// @Param payload body models.AssignStudentRequest true "Student payload"
// @Success 204
// @Router /admin/courses/{code}/students [post]
func (h *CourseHandler) AssignStudent(c *gin.Context) {
	var req models.AssignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.courses.AssignStudent(c.Request.Context(), courseCode(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnassignStudent godoc
// @Summary Remove a student's individual enrollment
// @Tags Courses
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param student_id query int true "Student ID"
// @Success 204
// @Router /admin/courses/{code}/students [delete]
func (h *CourseHandler) UnassignStudent(c *gin.Context) {
	studentID, ok := queryID(c, "student_id")
	if !ok {
		return
	}
	if err := h.courses.UnassignStudent(c.Request.Context(), courseCode(c), studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignBatch godoc
// @Summary Enroll a whole batch in a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Param code path string true "Course code"
// @Param payload body models.AssignBatchRequest true "Batch payload"
// @Success 204
// @Router /admin/courses/{code}/batches [post]
func (h *CourseHandler) AssignBatch(c *gin.Context) {
	var req models.AssignBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.courses.AssignBatch(c.Request.Context(), courseCode(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnassignBatch godoc
// @Summary Remove a batch enrollment
// @Tags Courses
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param batch query string true "Batch"
// @Success 204
// @Router /admin/courses/{code}/batches [delete]
func (h *CourseHandler) UnassignBatch(c *gin.Context) {
	batch := strings.TrimSpace(c.Query("batch"))
	if batch == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batch required"))
		return
	}
	if err := h.courses.UnassignBatch(c.Request.Context(), courseCode(c), batch); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enrollments godoc
// @Summary Students and batches enrolled in a course
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{code}/enrollments [get]
func (h *CourseHandler) Enrollments(c *gin.Context) {
	items, err := h.courses.Enrollments(c.Request.Context(), courseCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Faculty godoc
// @Summary Faculty assigned to a course
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{code}/faculty [get]
func (h *CourseHandler) Faculty(c *gin.Context) {
	items, err := h.courses.Faculty(c.Request.Context(), courseCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Overview godoc
// @Summary Courses with their faculty and batches
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param status query string false "Course status"
// @Param faculty_id query int false "Faculty ID"
// @Param batch query string false "Batch"
// @Param department query string false "Department"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/overview [get]
func (h *CourseHandler) Overview(c *gin.Context) {
	var filter models.CourseOverviewFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid overview filter"))
		return
	}
	items, err := h.courses.AssignmentsOverview(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
