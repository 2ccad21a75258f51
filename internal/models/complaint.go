package models

import "time"

// ComplaintStatus enumerates complaint handling states.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// Valid reports whether s is a known complaint status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// Complaint represents a row of the complaints table.
type Complaint struct {
	ID            int64           `db:"id" json:"id"`
	StudentID     int64           `db:"student_id" json:"student_id"`
	CourseCode    *string         `db:"course_code" json:"course_code,omitempty"`
	IssueType     string          `db:"issue_type" json:"issue_type"`
	Details       string          `db:"details" json:"details"`
	Status        ComplaintStatus `db:"status" json:"status"`
	AdminComments *string         `db:"admin_comments" json:"admin_comments,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ComplaintDetail is a complaint joined with student and course names.
type ComplaintDetail struct {
	Complaint
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	CourseName  *string `db:"course_name" json:"course_name,omitempty"`
}

// CreateComplaintRequest is the student payload for a complaint.
type CreateComplaintRequest struct {
	CourseCode *string `json:"course_code" validate:"omitempty,max=32"`
	IssueType  string  `json:"issue_type" validate:"required,max=64"`
	Details    string  `json:"details" validate:"required"`
	StudentID  int64   `json:"-"`
}

// UpdateComplaintStatusRequest changes a complaint's status.
type UpdateComplaintStatusRequest struct {
	Status ComplaintStatus `json:"status" validate:"required"`
}

// ComplaintCommentRequest appends an admin comment.
type ComplaintCommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}
