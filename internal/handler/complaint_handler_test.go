package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-eval-api/internal/models"
)

type fakeComplaintSrv struct {
	complaintService
	commentBy string
}

func (f *fakeComplaintSrv) AddComment(_ context.Context, id int64, admin string, req models.ComplaintCommentRequest) (*models.ComplaintDetail, error) {
	f.commentBy = admin
	detail := &models.ComplaintDetail{}
	detail.ID = id
	return detail, nil
}

type fakeFacultyRequestSrv struct {
	facultyRequestService
	decidedBy int64
	status    models.FacultyRequestStatus
}

func (f *fakeFacultyRequestSrv) UpdateStatus(_ context.Context, id, adminID int64, req models.UpdateFacultyRequestStatusRequest) (*models.FacultyRequestDetail, error) {
	f.decidedBy = adminID
	f.status = req.Status
	return &models.FacultyRequestDetail{}, nil
}

func TestComplaintHandlerCommentUsesAdminName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	complaints := &fakeComplaintSrv{}
	r := gin.New()
	r.Use(withClaims(adminClaims()))
	r.POST("/complaints/:id/comments", NewComplaintHandler(complaints, nil).AddComment)

	rec := perform(r, http.MethodPost, "/complaints/5/comments", `{"comment":"Looking into it"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Root", complaints.commentBy)

	rec = perform(r, http.MethodPost, "/complaints/x/comments", `{"comment":"Looking into it"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplaintHandlerFacultyRequestDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	requests := &fakeFacultyRequestSrv{}
	r := gin.New()
	r.Use(withClaims(adminClaims()))
	r.PUT("/faculty-requests/:id/status", NewComplaintHandler(nil, requests).UpdateFacultyRequestStatus)

	rec := perform(r, http.MethodPut, "/faculty-requests/3/status", `{"status":"approved","comment":"ok"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), requests.decidedBy)
	assert.Equal(t, models.FacultyRequestStatus("approved"), requests.status)
}
