package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type complaintService interface {
	List(ctx context.Context, status string) ([]models.ComplaintDetail, error)
	Get(ctx context.Context, id int64) (*models.ComplaintDetail, error)
	UpdateStatus(ctx context.Context, id int64, req models.UpdateComplaintStatusRequest) (*models.ComplaintDetail, error)
	AddComment(ctx context.Context, id int64, admin string, req models.ComplaintCommentRequest) (*models.ComplaintDetail, error)
}

type facultyRequestService interface {
	List(ctx context.Context, status string) ([]models.FacultyRequestDetail, error)
	Get(ctx context.Context, id int64) (*models.FacultyRequestDetail, error)
	UpdateStatus(ctx context.Context, id, adminID int64, req models.UpdateFacultyRequestStatusRequest) (*models.FacultyRequestDetail, error)
}

// ComplaintHandler serves the admin side of complaints and faculty requests.
type ComplaintHandler struct {
	complaints complaintService
	requests   facultyRequestService
}

// NewComplaintHandler constructs ComplaintHandler.
func NewComplaintHandler(complaints complaintService, requests facultyRequestService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, requests: requests}
}

// List godoc
// @Summary List complaints
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, in_progress or resolved"
// @Success 200 {object} response.Envelope
// @Router /admin/complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	items, err := h.complaints.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get complaint
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /admin/complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	complaint, err := h.complaints.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, complaint)
}

// UpdateStatus godoc
// @Summary Change a complaint's status
// @Tags Complaints
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param payload body models.UpdateComplaintStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admin/complaints/{id}/status [put]
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateComplaintStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	complaint, err := h.complaints.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, complaint)
}

// AddComment godoc
// @Summary Append an admin comment to a complaint
// @Tags Complaints
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param payload body models.ComplaintCommentRequest true "Comment payload"
// @Success 200 {object} response.Envelope
// @Router /admin/complaints/{id}/comments [post]
func (h *ComplaintHandler) AddComment(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.ComplaintCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	complaint, err := h.complaints.AddComment(c.Request.Context(), id, claims.Name, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, complaint)
}

// ListFacultyRequests godoc
// @Summary List faculty requests
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty-requests [get]
func (h *ComplaintHandler) ListFacultyRequests(c *gin.Context) {
	items, err := h.requests.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// GetFacultyRequest godoc
// @Summary Get faculty request
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty-requests/{id} [get]
func (h *ComplaintHandler) GetFacultyRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// UpdateFacultyRequestStatus godoc
// @Summary Approve or reject a faculty request
// @Tags Complaints
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body models.UpdateFacultyRequestStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty-requests/{id}/status [put]
func (h *ComplaintHandler) UpdateFacultyRequestStatus(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateFacultyRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	item, err := h.requests.UpdateStatus(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}
