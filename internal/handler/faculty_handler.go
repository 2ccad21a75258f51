package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type facultyService interface {
	List(ctx context.Context) ([]models.Faculty, error)
	Get(ctx context.Context, id int64) (*models.Faculty, error)
	Create(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, error)
	Update(ctx context.Context, id int64, req models.UpdateFacultyRequest) (*models.Faculty, error)
	Delete(ctx context.Context, id int64) error
	Courses(ctx context.Context, facultyID int64) ([]models.Course, error)
}

// FacultyHandler manages faculty members.
type FacultyHandler struct {
	faculty facultyService
}

// NewFacultyHandler constructs FacultyHandler.
func NewFacultyHandler(faculty facultyService) *FacultyHandler {
	return &FacultyHandler{faculty: faculty}
}

// List godoc
// @Summary List faculty
// @Tags Faculty
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	items, err := h.faculty.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get faculty member
// @Tags Faculty
// @Security BearerAuth
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.faculty.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, member)
}

// Create godoc
// @Summary Create faculty member
// @Tags Faculty
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /admin/faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req models.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.faculty.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update faculty member
// @Tags Faculty
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Faculty ID"
// @Param payload body models.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty/{id} [put]
func (h *FacultyHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.faculty.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, member)
}

// Delete godoc
// @Summary Delete faculty member
// @Tags Faculty
// @Security BearerAuth
// @Param id path int true "Faculty ID"
// @Success 204
// @Router /admin/faculty/{id} [delete]
func (h *FacultyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.faculty.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Courses godoc
// @Summary Courses taught by a faculty member
// @Tags Faculty
// @Security BearerAuth
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty/{id}/courses [get]
func (h *FacultyHandler) Courses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	courses, err := h.faculty.Courses(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}
