package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/pkg/export"
	"github.com/noah-isme/course-eval-api/pkg/storage"
)

var reportHeaders = []string{"Question", "Type", "Average", "Details"}

type reportAggregator interface {
	Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.AggregatedReport, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, int64, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type documentRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders aggregated reports to files and signs their download links.
type ExportService struct {
	reports reportAggregator
	storage fileStorage
	csv     tableRenderer
	xlsx    tableRenderer
	pdf     documentRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// ExportRenderers overrides the default renderers; nil fields keep the defaults.
type ExportRenderers struct {
	CSV  tableRenderer
	XLSX tableRenderer
	PDF  documentRenderer
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportAggregator, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, renderers ExportRenderers) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if renderers.CSV == nil {
		renderers.CSV = export.NewCSVExporter()
	}
	if renderers.XLSX == nil {
		renderers.XLSX = export.NewXLSXExporter()
	}
	if renderers.PDF == nil {
		renderers.PDF = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		storage: files,
		csv:     renderers.CSV,
		xlsx:    renderers.XLSX,
		pdf:     renderers.PDF,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate aggregates the job's filter, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportExport) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	report, _, err := s.reports.Aggregate(ctx, job.Params.Filter)
	if err != nil {
		return nil, err
	}
	dataset := ReportDataset(report)
	title := reportTitle(job.Params.Filter)

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatXLSX:
		payload, err = s.xlsx.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.downloadURL(token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/reports/exports/download/%s", prefix, token)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file and its size.
func (s *ExportService) Open(relPath string) (*os.File, int64, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportExport) string {
	created := job.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return fmt.Sprintf("%s/evaluation_report_%s.%s", created.UTC().Format("20060102"), job.ID, job.Params.Format)
}

// ReportDataset flattens an aggregated report into one row per question bucket.
func ReportDataset(report *models.AggregatedReport) export.Dataset {
	dataset := export.Dataset{Headers: reportHeaders, Rows: []map[string]string{}}
	if report == nil || report.ReportData == nil {
		return dataset
	}
	for _, label := range report.ReportData.Keys() {
		entry, ok := report.ReportData.Get(label)
		if !ok {
			continue
		}
		average := ""
		if entry.Average != nil {
			average = fmt.Sprintf("%.2f", *entry.Average)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Question": label,
			"Type":     string(entry.Type),
			"Average":  average,
			"Details":  reportDetails(entry),
		})
	}
	return dataset
}

// reportDetails lists counts in option order, then any unlisted answers alphabetically.
func reportDetails(entry *models.QuestionReport) string {
	if entry.Type == models.QuestionTypeText {
		return strings.Join(entry.Comments, "\n")
	}
	seen := make(map[string]bool, len(entry.Options))
	lines := make([]string, 0, len(entry.Counts))
	for _, option := range entry.Options {
		seen[option] = true
		if count, ok := entry.Counts[option]; ok {
			lines = append(lines, fmt.Sprintf("Response: %s: %d", option, count))
		}
	}
	extra := make([]string, 0)
	for option := range entry.Counts {
		if !seen[option] {
			extra = append(extra, option)
		}
	}
	sort.Strings(extra)
	for _, option := range extra {
		lines = append(lines, fmt.Sprintf("Response: %s: %d", option, entry.Counts[option]))
	}
	return strings.Join(lines, "\n")
}

func reportTitle(filter models.AggregateFilter) string {
	parts := []string{"Evaluation Report"}
	if filter.CourseCode != "" {
		parts = append(parts, filter.CourseCode)
	}
	if filter.Batch != "" {
		parts = append(parts, "Batch "+filter.Batch)
	}
	if filter.FacultyID > 0 {
		parts = append(parts, fmt.Sprintf("Faculty %d", filter.FacultyID))
	}
	if filter.TemplateID > 0 {
		parts = append(parts, fmt.Sprintf("Template %d", filter.TemplateID))
	}
	return strings.Join(parts, " - ")
}
