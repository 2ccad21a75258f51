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

type studentAdminService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
	Update(ctx context.Context, id int64, req models.UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
	TotalBatches(ctx context.Context) (int, error)
	Sessions(ctx context.Context) ([]string, error)
	Departments(ctx context.Context) ([]string, error)
	BatchesWithDepartments(ctx context.Context) ([]models.BatchDepartment, error)
}

// StudentHandler exposes student management endpoints.
type StudentHandler struct {
	students studentAdminService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentAdminService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search by name, email or id"
// @Param batch query string false "Filter by batch"
// @Param session query string false "Filter by session"
// @Param department query string false "Filter by department"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Batch:      c.Query("batch"),
		Session:    c.Query("session"),
		Department: c.Query("department"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /admin/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body models.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 204
// @Router /admin/students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sessions godoc
// @Summary Distinct student sessions
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/students/sessions [get]
func (h *StudentHandler) Sessions(c *gin.Context) {
	sessions, err := h.students.Sessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}

// Departments godoc
// @Summary Distinct student departments
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/students/departments [get]
func (h *StudentHandler) Departments(c *gin.Context) {
	departments, err := h.students.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, departments)
}

// Batches godoc
// @Summary Batches with their departments
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/students/batches [get]
func (h *StudentHandler) Batches(c *gin.Context) {
	ctx := c.Request.Context()
	batches, err := h.students.BatchesWithDepartments(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.students.TotalBatches(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil, map[string]interface{}{"total_batches": total})
}
