package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/middleware"
	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context, adminID int64) (*models.DashboardSummary, bool, error)
}

type settingsService interface {
	Get(ctx context.Context, adminID int64) (*models.AppSettings, error)
	Save(ctx context.Context, adminID int64, req models.SaveSettingsRequest) (*models.AppSettings, error)
}

// DashboardHandler wires dashboard and settings services to HTTP endpoints.
type DashboardHandler struct {
	service  dashboardService
	settings settingsService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, settings settingsService) *DashboardHandler {
	return &DashboardHandler{service: service, settings: settings}
}

// Admin godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Admin(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}

// Settings godoc
// @Summary Read the caller's app settings
// @Tags Dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *DashboardHandler) Settings(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	settings, err := h.settings.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// SaveSettings godoc
// @Summary Save the caller's app settings
// @Tags Dashboard
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.SaveSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /admin/settings [put]
func (h *DashboardHandler) SaveSettings(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.settings.Save(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}
