package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
)

type countStub struct {
	n     int
	calls int
}

func (c *countStub) Count(context.Context) (int, error) {
	c.calls++
	return c.n, nil
}

func (c *countStub) CountBatches(context.Context) (int, error) {
	return c.n, nil
}

type runningStub struct {
	admin *int64
}

func (r *runningStub) CountRunning(_ context.Context, _ time.Time, adminID *int64) (int, error) {
	r.admin = adminID
	return 2, nil
}

type pendingComplaints struct{}

func (pendingComplaints) CountByStatus(_ context.Context, status models.ComplaintStatus) (int, error) {
	if status == models.ComplaintStatusPending {
		return 4, nil
	}
	return 0, nil
}

type pendingRequests struct{}

func (pendingRequests) CountByStatus(context.Context, models.FacultyRequestStatus) (int, error) {
	return 1, nil
}

func TestDashboardAdminSummaryCached(t *testing.T) {
	_, cache := newRedisCache(t, nil)
	students := &countStub{n: 120}
	running := &runningStub{}
	svc := NewDashboardService(DashboardServiceParams{
		Students:        students,
		Batches:         &countStub{n: 3},
		Faculty:         &countStub{n: 12},
		Courses:         &countStub{n: 20},
		Templates:       running,
		Complaints:      pendingComplaints{},
		FacultyRequests: pendingRequests{},
		Cache:           cache,
		Logger:          zap.NewNop(),
	})

	summary, hit, err := svc.Admin(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 120, summary.Students)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 2, summary.RunningEvaluations)
	assert.Equal(t, 4, summary.PendingComplaints)
	assert.Equal(t, 1, summary.PendingFacultyRequests)
	require.NotNil(t, running.admin)
	assert.Equal(t, int64(7), *running.admin)

	cached, hit, err := svc.Admin(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 120, cached.Students)
	assert.Equal(t, 1, students.calls)
}

func TestDashboardWithoutCache(t *testing.T) {
	students := &countStub{n: 1}
	svc := NewDashboardService(DashboardServiceParams{
		Students:        students,
		Batches:         &countStub{},
		Faculty:         &countStub{},
		Courses:         &countStub{},
		Templates:       &runningStub{},
		Complaints:      pendingComplaints{},
		FacultyRequests: pendingRequests{},
	})

	_, _, err := svc.Admin(context.Background(), 1)
	require.NoError(t, err)
	_, hit, err := svc.Admin(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, students.calls)
}
