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

type templateService interface {
	Create(ctx context.Context, req models.CreateTemplateRequest) (*models.EvaluationTemplate, error)
	Get(ctx context.Context, id int64) (*models.EvaluationTemplate, error)
	List(ctx context.Context, filter models.TemplateFilter) ([]models.EvaluationTemplate, *models.Pagination, error)
	Update(ctx context.Context, id int64, req models.UpdateTemplateRequest) (*models.EvaluationTemplate, error)
	Delete(ctx context.Context, id int64) error
	Assign(ctx context.Context, sourceID int64, req models.AssignTemplateRequest) (*models.EvaluationTemplate, error)
	ExtendDeadline(ctx context.Context, id int64, req models.ExtendDeadlineRequest) error
	Ongoing(ctx context.Context) ([]models.EvaluationTemplate, error)
	Past(ctx context.Context) ([]models.EvaluationTemplate, error)
	RunningCount(ctx context.Context, adminID *int64) (int, error)
	TemplatesForCourse(ctx context.Context, courseCode string) ([]models.EvaluationTemplate, error)
	UnassignFromCourse(ctx context.Context, id int64, courseCode string) error
	CompletionStatus(ctx context.Context, templateID int64, courseCode string) (*models.CompletionStatus, error)
}

// TemplateHandler exposes evaluation form and assignment endpoints.
type TemplateHandler struct {
	templates templateService
}

// NewTemplateHandler constructs TemplateHandler.
func NewTemplateHandler(templates templateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List godoc
// @Summary List evaluation templates
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Param course_code query string false "Course code"
// @Param batch query string false "Batch"
// @Param search query string false "Title search"
// @Param mine query bool false "Only templates created by the caller"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	filter := models.TemplateFilter{
		CourseCode: strings.TrimSpace(c.Query("course_code")),
		Batch:      strings.TrimSpace(c.Query("batch")),
		Search:     strings.TrimSpace(c.Query("search")),
		AdminID:    ownedAdmin(c, claims),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	items, pagination, err := h.templates.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get evaluation template
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /admin/templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tpl)
}

// Create godoc
// @Summary Create evaluation template
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	adminID := claims.UserID
	req.AdminID = &adminID

	tpl, err := h.templates.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// Update godoc
// @Summary Update evaluation template
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param payload body models.UpdateTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /admin/templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tpl)
}

// Delete godoc
// @Summary Delete evaluation template
// @Tags Templates
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 204
// @Router /admin/templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a template to a course, batch or session
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Source template ID"
// @Param payload body models.AssignTemplateRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /admin/templates/{id}/assign [post]
func (h *TemplateHandler) Assign(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AssignTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	adminID := claims.UserID
	req.AdminID = &adminID

	tpl, err := h.templates.Assign(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// ExtendDeadline godoc
// @Summary Move a template's last date
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Param id path int true "Template ID"
// @Param payload body models.ExtendDeadlineRequest true "Deadline payload"
// @Success 204
// @Router /admin/templates/{id}/deadline [put]
func (h *TemplateHandler) ExtendDeadline(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid deadline payload"))
		return
	}
	if err := h.templates.ExtendDeadline(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Ongoing godoc
// @Summary Templates whose deadline has not passed
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/templates/ongoing [get]
func (h *TemplateHandler) Ongoing(c *gin.Context) {
	items, err := h.templates.Ongoing(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Past godoc
// @Summary Templates whose deadline has passed
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/templates/past [get]
func (h *TemplateHandler) Past(c *gin.Context) {
	items, err := h.templates.Past(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// RunningCount godoc
// @Summary Number of running evaluations
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Param mine query bool false "Only templates created by the caller"
// @Success 200 {object} response.Envelope
// @Router /admin/templates/running-count [get]
func (h *TemplateHandler) RunningCount(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := h.templates.RunningCount(c.Request.Context(), ownedAdmin(c, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"running": count})
}

// Completion godoc
// @Summary Completion status for a template
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Param id path int true "Template ID"
// @Param course_code query string false "Course code"
// @Success 200 {object} response.Envelope
// @Router /admin/templates/{id}/completion [get]
func (h *TemplateHandler) Completion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := h.templates.CompletionStatus(c.Request.Context(), id, strings.TrimSpace(c.Query("course_code")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// ForCourse godoc
// @Summary Templates assigned to a course
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{code}/templates [get]
func (h *TemplateHandler) ForCourse(c *gin.Context) {
	items, err := h.templates.TemplatesForCourse(c.Request.Context(), courseCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// UnassignFromCourse godoc
// @Summary Remove a template assignment from a course
// @Tags Templates
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param id path int true "Template ID"
// @Success 204
// @Router /admin/courses/{code}/templates/{id} [delete]
func (h *TemplateHandler) UnassignFromCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.templates.UnassignFromCourse(c.Request.Context(), id, courseCode(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
