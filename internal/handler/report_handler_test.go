package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-eval-api/internal/middleware"
	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/service"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type reportServiceMock struct {
	report     *models.AggregatedReport
	hit        bool
	lastFilter models.AggregateFilter
}

func (m *reportServiceMock) Aggregate(_ context.Context, filter models.AggregateFilter) (*models.AggregatedReport, bool, error) {
	m.lastFilter = filter
	return m.report, m.hit, nil
}

func (m *reportServiceMock) FacultyScores(context.Context, int64) ([]models.FacultyScore, error) {
	return []models.FacultyScore{{CourseCode: "CS101", AverageRating: 4.5}}, nil
}

type exportServiceMock struct {
	createResp  *models.ReportExportStatus
	createErr   error
	lastActor   string
	statusResp  *models.ReportExportStatus
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
}

func (m *exportServiceMock) CreateJob(_ context.Context, _ models.CreateReportExportRequest, actor string) (*models.ReportExportStatus, error) {
	m.lastActor = actor
	return m.createResp, m.createErr
}

func (m *exportServiceMock) GetStatus(context.Context, string) (*models.ReportExportStatus, error) {
	return m.statusResp, m.statusErr
}

func (m *exportServiceMock) ResolveDownload(context.Context, string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerAggregate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reports := &reportServiceMock{
		report: &models.AggregatedReport{Summary: models.ReportSummaryGenerated, TotalSubmissions: 4, ReportData: models.NewReportData()},
		hit:    true,
	}
	handler := NewReportHandler(reports, nil)

	c, w := newGinContext(http.MethodGet, "/admin/reports/aggregate?course_code=CS101&template_id=3", nil)
	handler.Aggregate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CS101", reports.lastFilter.CourseCode)
	assert.Equal(t, int64(3), reports.lastFilter.TemplateID)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, float64(4), envelope.Data["total_submissions"])
}

func TestReportHandlerAggregateBadFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/admin/reports/aggregate?faculty_id=abc", nil)
	handler.Aggregate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerCreateExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &exportServiceMock{
		createResp: &models.ReportExportStatus{ID: "job-1", Status: models.ReportStatusQueued},
	}
	handler := NewReportHandler(&reportServiceMock{}, exports)

	payload, _ := json.Marshal(models.CreateReportExportRequest{CourseCode: "CS101", Format: models.ReportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/admin/reports/exports", payload)
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.CreateExport(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "ADMIN:7", exports.lastActor)
}

func TestReportHandlerExportsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/admin/reports/exports", []byte(`{"format":"csv"}`))
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.CreateExport(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReportHandlerExportStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{}, &exportServiceMock{
		statusResp: &models.ReportExportStatus{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100},
	})

	c, w := newGinContext(http.MethodGet, "/admin/reports/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.ExportStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FINISHED", decodeEnvelope(t, w).Data["status"])
}

func TestReportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp(t.TempDir(), "report*.csv")
	require.NoError(t, err)
	_, _ = file.WriteString("data")
	_, _ = file.Seek(0, 0)

	handler := NewReportHandler(&reportServiceMock{}, &exportServiceMock{
		download: &service.ReportDownload{
			File:      file,
			Filename:  "evaluation_report_job-1.csv",
			Format:    models.ReportFormatCSV,
			Size:      4,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	})

	c, w := newGinContext(http.MethodGet, "/reports/exports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "evaluation_report_job-1.csv")
	assert.Equal(t, "data", w.Body.String())
}

func TestReportHandlerDownloadForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{}, &exportServiceMock{
		downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid download token"),
	})

	c, w := newGinContext(http.MethodGet, "/reports/exports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
