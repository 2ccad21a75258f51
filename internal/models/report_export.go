package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportExport is a persisted export job of an aggregated report.
type ReportExport struct {
	ID           string             `db:"id" json:"id"`
	Params       ReportExportParams `db:"params" json:"params"`
	Status       ReportStatus       `db:"status" json:"status"`
	Progress     int                `db:"progress" json:"progress"`
	ResultURL    *string            `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string             `db:"created_by" json:"created_by"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time         `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string            `db:"error_message" json:"error_message,omitempty"`
}

// ReportExportParams is persisted as JSONB alongside the job.
type ReportExportParams struct {
	Filter AggregateFilter `json:"filter"`
	Format ReportFormat    `json:"format"`
}

// Value marshals params to JSON for persistence.
func (p ReportExportParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report export params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportExportParams) Scan(value interface{}) error {
	data, err := scanBytes(value, "ReportExportParams")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*p = ReportExportParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report export params: %w", err)
	}
	return nil
}

// CreateReportExportRequest is the admin payload starting an export.
type CreateReportExportRequest struct {
	CourseCode string       `json:"course_code"`
	Batch      string       `json:"batch"`
	FacultyID  int64        `json:"faculty_id"`
	TemplateID int64        `json:"template_id"`
	Format     ReportFormat `json:"format" validate:"required,oneof=csv xlsx pdf"`
}

// ReportExportStatus is returned when polling a job.
type ReportExportStatus struct {
	ID          string       `json:"id"`
	Status      ReportStatus `json:"status"`
	Progress    int          `json:"progress"`
	DownloadURL *string      `json:"download_url,omitempty"`
	Error       *string      `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
}
