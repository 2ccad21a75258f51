package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type calendarService interface {
	List(ctx context.Context, adminID *int64) ([]models.CalendarEvent, error)
	Month(ctx context.Context, query models.CalendarMonthQuery, adminID *int64) ([]models.CalendarEvent, error)
	Create(ctx context.Context, adminID int64, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	Update(ctx context.Context, id, adminID int64, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id, adminID int64) error
}

// CalendarHandler manages admin calendar events. Events are scoped to the caller
// plus shared ones unless all=true is passed.
type CalendarHandler struct {
	calendar calendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(calendar calendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// List godoc
// @Summary List calendar events
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Param all query bool false "Include every admin's events"
// @Success 200 {object} response.Envelope
// @Router /admin/calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	events, err := h.calendar.List(c.Request.Context(), scopedAdmin(c, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Month godoc
// @Summary Calendar events in a month
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month"
// @Param all query bool false "Include every admin's events"
// @Success 200 {object} response.Envelope
// @Router /admin/calendar/month [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var query models.CalendarMonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "year and month must be numbers"))
		return
	}
	events, err := h.calendar.Month(c.Request.Context(), query, scopedAdmin(c, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Create godoc
// @Summary Add a calendar event
// @Tags Calendar
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CalendarEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /admin/calendar [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.calendar.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update a calendar event
// @Tags Calendar
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body models.CalendarEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /admin/calendar/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.calendar.Update(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Delete godoc
// @Summary Delete a calendar event
// @Tags Calendar
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 204
// @Router /admin/calendar/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.calendar.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
