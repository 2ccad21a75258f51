package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context) ([]models.Admin, error)
	Get(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error)
	Update(ctx context.Context, id int64, req models.UpdateAdminRequest) (*models.Admin, error)
	Delete(ctx context.Context, id, actorID int64) error
}

// AdminHandler manages admin accounts and their permission flags.
type AdminHandler struct {
	admins adminService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admins adminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// List godoc
// @Summary List admins
// @Tags Admins
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, admins)
}

// Get godoc
// @Summary Get admin
// @Tags Admins
// @Security BearerAuth
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admin/admins/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	admin, err := h.admins.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, admin)
}

// Create godoc
// @Summary Create admin
// @Tags Admins
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Router /admin/admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.admins.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Update godoc
// @Summary Update admin
// @Tags Admins
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param payload body models.UpdateAdminRequest true "Admin payload"
// @Success 200 {object} response.Envelope
// @Router /admin/admins/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.admins.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, admin)
}

// Delete godoc
// @Summary Delete admin
// @Tags Admins
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /admin/admins/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admins.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
