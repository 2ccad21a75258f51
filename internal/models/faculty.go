package models

import "time"

// Faculty represents a row of the faculty table.
type Faculty struct {
	FacultyID      int64      `db:"faculty_id" json:"faculty_id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password" json:"-"`
	ContactNo      *string    `db:"contact_no" json:"contact_no,omitempty"`
	DOB            *time.Time `db:"dob" json:"dob,omitempty"`
	Gender         *string    `db:"gender" json:"gender,omitempty"`
	JoiningDate    *time.Time `db:"joining_date" json:"joining_date,omitempty"`
	ProfilePicture *string    `db:"profile_picture" json:"profile_picture,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateFacultyRequest registers a faculty member.
type CreateFacultyRequest struct {
	FacultyID      int64   `json:"faculty_id" validate:"required,gt=0"`
	Name           string  `json:"name" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6"`
	ContactNo      *string `json:"contact_no" validate:"omitempty,max=32"`
	DOB            string  `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender         *string `json:"gender" validate:"omitempty,max=16"`
	JoiningDate    string  `json:"joining_date" validate:"omitempty,datetime=2006-01-02"`
	ProfilePicture *string `json:"profile_picture"`
}

// UpdateFacultyRequest replaces a faculty member's attributes. An empty password keeps the current hash.
type UpdateFacultyRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"omitempty,min=6"`
	ContactNo      *string `json:"contact_no" validate:"omitempty,max=32"`
	DOB            string  `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender         *string `json:"gender" validate:"omitempty,max=16"`
	JoiningDate    string  `json:"joining_date" validate:"omitempty,datetime=2006-01-02"`
	ProfilePicture *string `json:"profile_picture"`
}
