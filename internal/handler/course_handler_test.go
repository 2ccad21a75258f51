package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-eval-api/internal/middleware"
	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type fakeCourseSrv struct {
	courseService
	unassigned     [2]string
	assignedBatch  string
	overviewFilter models.CourseOverviewFilter
}

func (f *fakeCourseSrv) UnassignFaculty(_ context.Context, code string, facultyID int64) error {
	if facultyID == 404 {
		return appErrors.Clone(appErrors.ErrNotFound, "faculty is not assigned to this course")
	}
	f.unassigned = [2]string{code, "faculty"}
	return nil
}

func (f *fakeCourseSrv) AssignBatch(_ context.Context, code string, req models.AssignBatchRequest) error {
	if req.Batch == "2022" && code == "CS101" && f.assignedBatch == "2022" {
		return appErrors.Clone(appErrors.ErrConflict, "batch already assigned to this course")
	}
	f.assignedBatch = req.Batch
	return nil
}

func (f *fakeCourseSrv) AssignmentsOverview(_ context.Context, filter models.CourseOverviewFilter) ([]models.CourseOverview, error) {
	f.overviewFilter = filter
	return []models.CourseOverview{}, nil
}

type fakeTemplateSrv struct {
	templateService
	listFilter  models.TemplateFilter
	assigned    models.AssignTemplateRequest
	unassignArg struct {
		id   int64
		code string
	}
}

func (f *fakeTemplateSrv) List(_ context.Context, filter models.TemplateFilter) ([]models.EvaluationTemplate, *models.Pagination, error) {
	f.listFilter = filter
	return []models.EvaluationTemplate{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeTemplateSrv) Assign(_ context.Context, sourceID int64, req models.AssignTemplateRequest) (*models.EvaluationTemplate, error) {
	f.assigned = req
	return &models.EvaluationTemplate{ID: sourceID + 1}, nil
}

func (f *fakeTemplateSrv) UnassignFromCourse(_ context.Context, id int64, code string) error {
	f.unassignArg.id = id
	f.unassignArg.code = code
	return nil
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	}
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCourseHandlerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)
	r := gin.New()
	r.GET("/courses/overview", handler.Overview)
	r.DELETE("/courses/:code/faculty", handler.UnassignFaculty)
	r.POST("/courses/:code/batches", handler.AssignBatch)
	r.DELETE("/courses/:code/batches", handler.UnassignBatch)

	rec := perform(r, http.MethodDelete, "/courses/CS101/faculty?faculty_id=3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, [2]string{"CS101", "faculty"}, srv.unassigned)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodDelete, "/courses/CS101/faculty", "").Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodDelete, "/courses/CS101/faculty?faculty_id=404", "").Code)

	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodPost, "/courses/CS101/batches", `{"batch":"2022"}`).Code)
	assert.Equal(t, http.StatusConflict, perform(r, http.MethodPost, "/courses/CS101/batches", `{"batch":"2022"}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodDelete, "/courses/CS101/batches?batch=", "").Code)

	rec = perform(r, http.MethodGet, "/courses/overview?status=active&faculty_id=5&batch=2022", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CourseOverviewFilter{Status: "active", FacultyID: 5, Batch: "2022"}, srv.overviewFilter)
}

func TestTemplateHandlerListAndAssign(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTemplateSrv{}
	handler := NewTemplateHandler(srv)
	r := gin.New()
	r.Use(withClaims(adminClaims()))
	r.GET("/templates", handler.List)
	r.POST("/templates/:id/assign", handler.Assign)
	r.DELETE("/courses/:code/templates/:id", handler.UnassignFromCourse)

	rec := perform(r, http.MethodGet, "/templates?mine=true&page=2&page_size=5&course_code=%20CS101%20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.listFilter.AdminID)
	assert.Equal(t, int64(7), *srv.listFilter.AdminID)
	assert.Equal(t, "CS101", srv.listFilter.CourseCode)
	assert.Equal(t, 2, srv.listFilter.Page)
	assert.Contains(t, rec.Body.String(), `"page_size":5`)

	rec = perform(r, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.listFilter.AdminID)

	rec = perform(r, http.MethodPost, "/templates/1/assign", `{"course_code":"CS102","batch":"2022","last_date":"2024-04-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.assigned.AdminID)
	assert.Equal(t, int64(7), *srv.assigned.AdminID)
	assert.Equal(t, "CS102", *srv.assigned.CourseCode)

	rec = perform(r, http.MethodDelete, "/courses/CS102/templates/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(2), srv.unassignArg.id)
	assert.Equal(t, "CS102", srv.unassignArg.code)
}
