package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/repository"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/jobs"
	"github.com/noah-isme/course-eval-api/pkg/storage"
)

type exportStoreStub struct {
	mu   sync.Mutex
	jobs map[string]*models.ReportExport
	seq  int

	getErr     error
	failStatus map[models.ReportStatus]error
}

func newExportStoreStub() *exportStoreStub {
	return &exportStoreStub{jobs: map[string]*models.ReportExport{}}
}

func (s *exportStoreStub) Create(_ context.Context, job *models.ReportExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	job.ID = fmt.Sprintf("job-%d", s.seq)
	job.CreatedAt = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *exportStoreStub) GetByID(_ context.Context, id string) (*models.ReportExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		err := s.getErr
		s.getErr = nil
		return nil, err
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get report export: %w", sql.ErrNoRows)
	}
	copied := *job
	return &copied, nil
}

func (s *exportStoreStub) Update(_ context.Context, id string, params repository.UpdateReportExportParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		if err := s.failStatus[*params.Status]; err != nil {
			return err
		}
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportStoreStub) ListQueued(context.Context, int) ([]models.ReportExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReportExport
	for _, job := range s.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportStoreStub) ListFinishedBefore(context.Context, time.Time, int) ([]models.ReportExport, error) {
	return nil, nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type staticAggregator struct {
	report *models.AggregatedReport
	err    error
}

func (a staticAggregator) Aggregate(context.Context, models.AggregateFilter) (*models.AggregatedReport, bool, error) {
	return a.report, false, a.err
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, *models.ReportExport) (*ExportResult, error) {
	return nil, errors.New("render failed")
}

func sampleReport() *models.AggregatedReport {
	data := models.NewReportData()
	avg := 4.5
	data.Put("Teaching quality", &models.QuestionReport{
		QuestionID: "q1",
		Type:       models.QuestionTypeRating,
		Options:    []string{"5 (Excellent)", "4 (Good)"},
		Counts:     map[string]int{"5 (Excellent)": 1, "4 (Good)": 1},
		Average:    &avg,
	})
	return &models.AggregatedReport{Summary: models.ReportSummaryGenerated, TotalSubmissions: 2, ReportData: data}
}

func newTestExporter(t *testing.T, agg reportAggregator) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(agg, files, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), ExportRenderers{})
}

func TestCreateJobQueuesExport(t *testing.T) {
	store := newExportStoreStub()
	queue := &dispatcherStub{}
	svc := NewReportExportService(store, queue, newTestExporter(t, staticAggregator{report: sampleReport()}), nil, zap.NewNop(), ReportExportConfig{})

	status, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{CourseCode: " CS101 ", Format: models.ReportFormatCSV}, "ADMIN:1")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusQueued, status.Status)
	assert.Nil(t, status.DownloadURL)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, status.ID, queue.jobs[0].ID)
	assert.Equal(t, 0, queue.jobs[0].Attempt)

	stored, err := store.GetByID(context.Background(), status.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS101", stored.Params.Filter.CourseCode)
	assert.Equal(t, "ADMIN:1", stored.CreatedBy)
}

func TestCreateJobRejectsUnknownFormat(t *testing.T) {
	svc := NewReportExportService(newExportStoreStub(), &dispatcherStub{}, nil, nil, zap.NewNop(), ReportExportConfig{})

	_, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{Format: "docx"}, "ADMIN:1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newExportStoreStub()
	svc := NewReportExportService(store, &dispatcherStub{err: errors.New("queue full")}, nil, nil, zap.NewNop(), ReportExportConfig{})

	_, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{Format: models.ReportFormatPDF}, "ADMIN:1")
	require.Error(t, err)

	stored, err := store.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}

func TestWorkerFinishesAndDownloadResolves(t *testing.T) {
	store := newExportStoreStub()
	exporter := newTestExporter(t, staticAggregator{report: sampleReport()})
	svc := NewReportExportService(store, &dispatcherStub{}, exporter, nil, zap.NewNop(), ReportExportConfig{})
	worker := NewReportExportWorker(store, exporter, nil, 3, zap.NewNop())

	created, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{Format: models.ReportFormatCSV}, "ADMIN:1")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: created.ID}))

	status, err := svc.GetStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Nil(t, status.Error)
	require.NotNil(t, status.DownloadURL)
	assert.True(t, strings.HasPrefix(*status.DownloadURL, "/api/v1/reports/exports/download/"))

	download, err := svc.ResolveDownload(context.Background(), extractToken(*status.DownloadURL))
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, "evaluation_report_"+created.ID+".csv", download.Filename)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, download.Size, int64(len(body)))
	assert.Contains(t, string(body), "Question,Type,Average,Details")
	assert.Contains(t, string(body), "4.50")
}

func TestResolveDownloadRejectsTamperedToken(t *testing.T) {
	store := newExportStoreStub()
	exporter := newTestExporter(t, staticAggregator{report: sampleReport()})
	svc := NewReportExportService(store, &dispatcherStub{}, exporter, nil, zap.NewNop(), ReportExportConfig{})

	_, err := svc.ResolveDownload(context.Background(), "job-1.123.abc.deadbeef")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestWorkerRetriesThenFails(t *testing.T) {
	store := newExportStoreStub()
	svc := NewReportExportService(store, &dispatcherStub{}, nil, nil, zap.NewNop(), ReportExportConfig{})
	worker := NewReportExportWorker(store, failingGenerator{}, nil, 1, zap.NewNop())

	created, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{Format: models.ReportFormatXLSX}, "ADMIN:1")
	require.NoError(t, err)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: created.ID, Attempt: 0}))
	stored, _ := store.GetByID(context.Background(), created.ID)
	assert.Equal(t, models.ReportStatusQueued, stored.Status)
	assert.Equal(t, 0, stored.Progress)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: created.ID, Attempt: 1}))
	stored, _ = store.GetByID(context.Background(), created.ID)
	assert.Equal(t, models.ReportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "render failed", *stored.ErrorMessage)
	assert.NotNil(t, stored.FinishedAt)
}

func TestWorkerStoreErrorsDoNotStrandJobs(t *testing.T) {
	transient := errors.New("connection reset")
	cases := []struct {
		name    string
		attempt int
		arrange func(*exportStoreStub)
		status  models.ReportStatus
	}{
		{
			name:    "load fails with retries left",
			attempt: 0,
			arrange: func(s *exportStoreStub) { s.getErr = transient },
			status:  models.ReportStatusQueued,
		},
		{
			name:    "load fails on last attempt",
			attempt: 1,
			arrange: func(s *exportStoreStub) { s.getErr = transient },
			status:  models.ReportStatusFailed,
		},
		{
			name:    "processing mark fails on last attempt",
			attempt: 1,
			arrange: func(s *exportStoreStub) {
				s.failStatus = map[models.ReportStatus]error{models.ReportStatusProcessing: transient}
			},
			status: models.ReportStatusFailed,
		},
		{
			name:    "finished mark fails with retries left",
			attempt: 0,
			arrange: func(s *exportStoreStub) {
				s.failStatus = map[models.ReportStatus]error{models.ReportStatusFinished: transient}
			},
			status: models.ReportStatusQueued,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newExportStoreStub()
			exporter := newTestExporter(t, staticAggregator{report: sampleReport()})
			svc := NewReportExportService(store, &dispatcherStub{}, exporter, nil, zap.NewNop(), ReportExportConfig{})
			worker := NewReportExportWorker(store, exporter, nil, 1, zap.NewNop())

			created, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{Format: models.ReportFormatCSV}, "ADMIN:1")
			require.NoError(t, err)
			tc.arrange(store)

			err = worker.Handle(context.Background(), jobs.Job{ID: created.ID, Attempt: tc.attempt})
			require.ErrorIs(t, err, transient)

			stored, err := store.GetByID(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.status, stored.Status)
			require.NotNil(t, stored.ErrorMessage)
			assert.Equal(t, "connection reset", *stored.ErrorMessage)
		})
	}
}

func TestWorkerDropsDeletedJob(t *testing.T) {
	store := newExportStoreStub()
	worker := NewReportExportWorker(store, failingGenerator{}, nil, 1, zap.NewNop())

	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-404"}))
}

func TestRecoverPendingJobsRequeues(t *testing.T) {
	store := newExportStoreStub()
	queue := &dispatcherStub{}
	svc := NewReportExportService(store, queue, nil, nil, zap.NewNop(), ReportExportConfig{})
	_, err := svc.CreateJob(context.Background(), models.CreateReportExportRequest{Format: models.ReportFormatCSV}, "ADMIN:1")
	require.NoError(t, err)

	svc.RecoverPendingJobs(context.Background())
	assert.Len(t, queue.jobs, 2)
}

func TestGetStatusNotFound(t *testing.T) {
	svc := NewReportExportService(newExportStoreStub(), &dispatcherStub{}, nil, nil, zap.NewNop(), ReportExportConfig{})

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
