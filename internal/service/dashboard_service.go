package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type entityCounter interface {
	Count(ctx context.Context) (int, error)
}

type batchCounter interface {
	CountBatches(ctx context.Context) (int, error)
}

type runningCounter interface {
	CountRunning(ctx context.Context, today time.Time, adminID *int64) (int, error)
}

type complaintCounter interface {
	CountByStatus(ctx context.Context, status models.ComplaintStatus) (int, error)
}

type facultyRequestCounter interface {
	CountByStatus(ctx context.Context, status models.FacultyRequestStatus) (int, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students        entityCounter
	Batches         batchCounter
	Faculty         entityCounter
	Courses         entityCounter
	Templates       runningCounter
	Complaints      complaintCounter
	FacultyRequests facultyRequestCounter
	Cache           *CacheService
	CacheTTL        time.Duration
	Logger          *zap.Logger
}

// DashboardService composes the admin landing page counters.
type DashboardService struct {
	params DashboardServiceParams
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	if params.CacheTTL <= 0 {
		params.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{params: params, logger: logger, now: time.Now}
}

// DashboardCacheKey is the cache key of an admin's summary.
func DashboardCacheKey(adminID int64) string {
	return fmt.Sprintf("dashboard:admin:%d", adminID)
}

// Admin returns the summary for adminID and whether it came from cache.
func (s *DashboardService) Admin(ctx context.Context, adminID int64) (*models.DashboardSummary, bool, error) {
	key := DashboardCacheKey(adminID)
	var cached models.DashboardSummary
	if hit, err := s.params.Cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary := &models.DashboardSummary{GeneratedAt: s.now().UTC()}
	var err error
	if summary.Students, err = s.params.Students.Count(ctx); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count students")
	}
	if summary.Faculty, err = s.params.Faculty.Count(ctx); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count faculty")
	}
	if summary.Courses, err = s.params.Courses.Count(ctx); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count courses")
	}
	if summary.Batches, err = s.params.Batches.CountBatches(ctx); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count batches")
	}
	owner := adminID
	if summary.RunningEvaluations, err = s.params.Templates.CountRunning(ctx, startOfDay(s.now()), &owner); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count running evaluations")
	}
	if summary.PendingComplaints, err = s.params.Complaints.CountByStatus(ctx, models.ComplaintStatusPending); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count complaints")
	}
	if summary.PendingFacultyRequests, err = s.params.FacultyRequests.CountByStatus(ctx, models.FacultyRequestPending); err != nil {
		return nil, false, appErrors.Internal(err, "failed to count faculty requests")
	}

	if err := s.params.Cache.Set(ctx, key, summary, s.params.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.Int64("admin_id", adminID), zap.Error(err))
	}
	return summary, false, nil
}
