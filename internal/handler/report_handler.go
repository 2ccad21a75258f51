package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/middleware"
	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/service"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/export"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

type reportService interface {
	Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.AggregatedReport, bool, error)
	FacultyScores(ctx context.Context, facultyID int64) ([]models.FacultyScore, error)
}

type reportExportService interface {
	CreateJob(ctx context.Context, req models.CreateReportExportRequest, actor string) (*models.ReportExportStatus, error)
	GetStatus(ctx context.Context, id string) (*models.ReportExportStatus, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes aggregated reports and export jobs.
type ReportHandler struct {
	reports reportService
	exports reportExportService
}

// NewReportHandler constructs handler. exports may be nil when report exports are disabled.
func NewReportHandler(reports reportService, exports reportExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Aggregate godoc
// @Summary Aggregated evaluation report
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param course_code query string false "Course code"
// @Param batch query string false "Batch"
// @Param faculty_id query int false "Faculty ID"
// @Param template_id query int false "Template ID"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/aggregate [get]
func (h *ReportHandler) Aggregate(c *gin.Context) {
	var filter models.AggregateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report filter"))
		return
	}
	report, hit, err := h.reports.Aggregate(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// FacultyScores godoc
// @Summary Average rating per evaluation for a faculty member
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/faculty/{id}/scores [get]
func (h *ReportHandler) FacultyScores(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	scores, err := h.reports.FacultyScores(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scores)
}

// CreateExport godoc
// @Summary Queue a report export
// @Tags Reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateReportExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Router /admin/reports/exports [post]
func (h *ReportHandler) CreateExport(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.New("EXPORTS_DISABLED", http.StatusServiceUnavailable, "report exports are disabled"))
		return
	}
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateReportExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	status, err := h.exports.CreateJob(c.Request.Context(), req, service.AuditActor(claims.Role, claims.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, status)
}

// ExportStatus godoc
// @Summary Poll a report export
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/exports/{id} [get]
func (h *ReportHandler) ExportStatus(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	status, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Download godoc
// @Summary Download a finished export through a signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/exports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	download, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("X-Expires-At", download.ExpiresAt.UTC().Format(time.RFC3339))
	response.Attachment(c, download.Filename, export.Format(download.Format).ContentType(), download.Size, download.File)
}
