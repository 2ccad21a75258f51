package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/repository"
)

func newRedisCache(t *testing.T, metrics *MetricsService) (*miniredis.Miniredis, *CacheService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := repository.NewCacheRepository(client, zap.NewNop())
	return mr, NewCacheService(store, metrics, time.Minute, zap.NewNop(), true)
}

func TestCacheServiceHitMissAndInvalidate(t *testing.T) {
	metrics := NewMetricsService()
	mr, cache := newRedisCache(t, metrics)
	ctx := context.Background()

	var out map[string]int
	hit, err := cache.Get(ctx, "reports:aggregate:x", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "reports:aggregate:x", map[string]int{"n": 2}, 0))
	require.NoError(t, cache.Set(ctx, "dashboard:admin:1", map[string]int{"n": 1}, 0))
	hit, err = cache.Get(ctx, "reports:aggregate:x", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, out["n"])

	require.NoError(t, cache.Invalidate(ctx, ReportCachePattern))
	assert.False(t, mr.Exists("reports:aggregate:x"))
	assert.True(t, mr.Exists("dashboard:admin:1"))

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilCache *CacheService
	hit, err := nilCache.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilCache.Invalidate(context.Background(), "*"))

	off := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, off.Enabled())
	assert.NoError(t, off.Set(context.Background(), "k", 1, 0))
}

func TestSubmitInvalidatesCachedReports(t *testing.T) {
	_, cache := newRedisCache(t, nil)
	ctx := context.Background()
	repo := &aggregateRepoStub{rows: []models.AggregateRow{evalRow(1, `{"q1":"5 (Excellent)"}`, nil)}}
	reports := NewReportService(repo, cache, time.Minute, zap.NewNop())

	_, hit, err := reports.Aggregate(ctx, models.AggregateFilter{CourseCode: "CS101"})
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = reports.Aggregate(ctx, models.AggregateFilter{CourseCode: "CS101"})
	require.NoError(t, err)
	assert.True(t, hit)

	templates := newTemplateService(newTemplateRepoStub(courseTemplate(1, "CS101")), &respondentStub{}, &evaluationWriterStub{}, nil)
	templates.cache = cache
	_, err = templates.Submit(ctx, models.SubmitEvaluationRequest{
		TemplateID: 1,
		CourseCode: "CS101",
		StudentID:  5,
		Feedback:   models.Feedback{"q1": models.TextAnswer("4 (Good)")},
	})
	require.NoError(t, err)

	_, hit, err = reports.Aggregate(ctx, models.AggregateFilter{CourseCode: "CS101"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}
