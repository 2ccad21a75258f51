package models

import "time"

// FacultyRequestStatus enumerates faculty request decisions.
type FacultyRequestStatus string

const (
	FacultyRequestPending  FacultyRequestStatus = "pending"
	FacultyRequestApproved FacultyRequestStatus = "approved"
	FacultyRequestRejected FacultyRequestStatus = "rejected"
)

// Valid reports whether s is a known request status.
func (s FacultyRequestStatus) Valid() bool {
	switch s {
	case FacultyRequestPending, FacultyRequestApproved, FacultyRequestRejected:
		return true
	}
	return false
}

// FacultyRequest represents a row of the faculty_requests table.
type FacultyRequest struct {
	RequestID            int64                `db:"request_id" json:"request_id"`
	StudentID            int64                `db:"student_id" json:"student_id"`
	CourseCode           string               `db:"course_code" json:"course_code"`
	RequestedFacultyName *string              `db:"requested_faculty_name" json:"requested_faculty_name,omitempty"`
	Details              string               `db:"details" json:"details"`
	Status               FacultyRequestStatus `db:"status" json:"status"`
	AdminComment         *string              `db:"admin_comment" json:"admin_comment,omitempty"`
	CreatedAt            time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time            `db:"updated_at" json:"updated_at"`
}

// FacultyRequestDetail joins the request with student and course names.
type FacultyRequestDetail struct {
	FacultyRequest
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	CourseName  *string `db:"course_name" json:"course_name,omitempty"`
}

// CreateFacultyRequestRequest is the student payload.
type CreateFacultyRequestRequest struct {
	CourseCode           string  `json:"course_code" validate:"required,max=32"`
	RequestedFacultyName *string `json:"requested_faculty_name" validate:"omitempty,max=255"`
	Details              string  `json:"details" validate:"required"`
	StudentID            int64   `json:"-"`
}

// UpdateFacultyRequestStatusRequest records an admin decision.
type UpdateFacultyRequestStatusRequest struct {
	Status  FacultyRequestStatus `json:"status" validate:"required"`
	Comment string               `json:"comment"`
}
