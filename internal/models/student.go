package models

import "time"

// Student represents a row of the students table. StudentID is assigned by the admin.
type Student struct {
	StudentID         int64      `db:"student_id" json:"student_id"`
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password" json:"-"`
	ContactNo         *string    `db:"contact_no" json:"contact_no,omitempty"`
	DOB               *time.Time `db:"dob" json:"dob,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	Session           *string    `db:"session" json:"session,omitempty"`
	Batch             *string    `db:"batch" json:"batch,omitempty"`
	EnrollmentDate    *time.Time `db:"enrollment_date" json:"enrollment_date,omitempty"`
	Department        *string    `db:"department" json:"department,omitempty"`
	CGPA              *float64   `db:"cgpa" json:"cgpa,omitempty"`
	BehavioralRecords *string    `db:"behavioral_records" json:"behavioral_records,omitempty"`
	ProfilePicture    *string    `db:"profile_picture" json:"profile_picture,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Batch      string
	Session    string
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	StudentID         int64    `json:"student_id" validate:"required,gt=0"`
	Name              string   `json:"name" validate:"required,max=255"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"required,min=6"`
	ContactNo         *string  `json:"contact_no" validate:"omitempty,max=32"`
	DOB               string   `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender            *string  `json:"gender" validate:"omitempty,max=16"`
	Session           *string  `json:"session" validate:"omitempty,max=32"`
	Batch             *string  `json:"batch" validate:"omitempty,max=32"`
	EnrollmentDate    string   `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
	Department        *string  `json:"department" validate:"omitempty,max=128"`
	CGPA              *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=4"`
	BehavioralRecords *string  `json:"behavioral_records"`
	ProfilePicture    *string  `json:"profile_picture"`
}

// UpdateStudentRequest replaces a student's attributes. An empty password keeps the current hash.
type UpdateStudentRequest struct {
	Name              string   `json:"name" validate:"required,max=255"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"omitempty,min=6"`
	ContactNo         *string  `json:"contact_no" validate:"omitempty,max=32"`
	DOB               string   `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender            *string  `json:"gender" validate:"omitempty,max=16"`
	Session           *string  `json:"session" validate:"omitempty,max=32"`
	Batch             *string  `json:"batch" validate:"omitempty,max=32"`
	EnrollmentDate    string   `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
	Department        *string  `json:"department" validate:"omitempty,max=128"`
	CGPA              *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=4"`
	BehavioralRecords *string  `json:"behavioral_records"`
	ProfilePicture    *string  `json:"profile_picture"`
}

// UpdateProfileRequest is the subset of fields a student may edit.
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=255"`
	ContactNo      *string `json:"contact_no" validate:"omitempty,max=32"`
	ProfilePicture *string `json:"profile_picture"`
}

// BatchDepartment pairs a batch with its department.
type BatchDepartment struct {
	Batch      string  `db:"batch" json:"batch"`
	Department *string `db:"department" json:"department,omitempty"`
}

// StudentCohort is the minimal student projection used for respondent resolution.
type StudentCohort struct {
	StudentID  int64   `db:"student_id" json:"student_id"`
	Name       string  `db:"name" json:"name,omitempty"`
	Batch      *string `db:"batch" json:"batch,omitempty"`
	Department *string `db:"department" json:"department,omitempty"`
	Session    *string `db:"session" json:"session,omitempty"`
}
