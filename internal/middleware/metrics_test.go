package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-eval-api/internal/service"
)

func TestMetricsSkipsHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin/courses/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, uint64(0), metrics.Snapshot().RequestsTotal)

	serve(r, http.MethodGet, "/admin/courses/CS101", "")
	serve(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestMetricsNilServicePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	assert.Equal(t, http.StatusAccepted, serve(r, http.MethodGet, "/x", "").Code)
}
