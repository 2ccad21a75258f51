package models

import "time"

// DashboardSummary aggregates the counters shown on the admin landing page.
type DashboardSummary struct {
	Students               int       `json:"students"`
	Faculty                int       `json:"faculty"`
	Courses                int       `json:"courses"`
	Batches                int       `json:"batches"`
	RunningEvaluations     int       `json:"running_evaluations"`
	PendingComplaints      int       `json:"pending_complaints"`
	PendingFacultyRequests int       `json:"pending_faculty_requests"`
	GeneratedAt            time.Time `json:"generated_at"`
}
