package models

import "time"

// CourseStatus enumerates the lifecycle of a course.
type CourseStatus string

const (
	CourseStatusActive    CourseStatus = "active"
	CourseStatusUpcoming  CourseStatus = "upcoming"
	CourseStatusCompleted CourseStatus = "completed"
	CourseStatusInactive  CourseStatus = "inactive"
)

// Course represents a row of the courses table.
type Course struct {
	CourseCode   string       `db:"course_code" json:"course_code"`
	Name         string       `db:"name" json:"name"`
	Status       CourseStatus `db:"status" json:"status"`
	CreationDate time.Time    `db:"creation_date" json:"creation_date"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseStudent links a course to either one student or a whole batch, never both.
type CourseStudent struct {
	ID         int64   `db:"id" json:"id"`
	CourseCode string  `db:"course_code" json:"course_code"`
	StudentID  *int64  `db:"student_id" json:"student_id,omitempty"`
	Batch      *string `db:"batch" json:"batch,omitempty"`
}

// CourseFaculty links a faculty member to a course.
type CourseFaculty struct {
	CourseCode string `db:"course_code" json:"course_code"`
	FacultyID  int64  `db:"faculty_id" json:"faculty_id"`
}

// CreateCourseRequest registers a course.
type CreateCourseRequest struct {
	CourseCode string       `json:"course_code" validate:"required,max=32"`
	Name       string       `json:"name" validate:"required,max=255"`
	Status     CourseStatus `json:"status" validate:"omitempty,oneof=active upcoming completed inactive"`
}

// UpdateCourseRequest changes a course's name or status.
type UpdateCourseRequest struct {
	Name   string       `json:"name" validate:"required,max=255"`
	Status CourseStatus `json:"status" validate:"required,oneof=active upcoming completed inactive"`
}

// AssignFacultyRequest links a faculty member to a course.
type AssignFacultyRequest struct {
	FacultyID int64 `json:"faculty_id" validate:"required,gt=0"`
}

// AssignStudentRequest links a single student to a course.
type AssignStudentRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
}

// AssignBatchRequest links a batch to a course.
type AssignBatchRequest struct {
	Batch string `json:"batch" validate:"required,max=32"`
}

// FacultySummary is the faculty projection attached to courses.
type FacultySummary struct {
	FacultyID int64  `db:"faculty_id" json:"faculty_id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
}

// CourseEnrollment is a course_student row resolved with the student when individual.
type CourseEnrollment struct {
	StudentID   *int64  `db:"student_id" json:"student_id,omitempty"`
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	Batch       *string `db:"batch" json:"batch,omitempty"`
	Department  *string `db:"department" json:"department,omitempty"`
}

// CourseOverviewFilter narrows the assignments overview.
type CourseOverviewFilter struct {
	Status     string `form:"status"`
	FacultyID  int64  `form:"faculty_id"`
	Batch      string `form:"batch"`
	Department string `form:"department"`
}

// CourseOverview describes a course with its faculty and enrollments.
type CourseOverview struct {
	CourseCode  string             `json:"course_code"`
	CourseName  string             `json:"course_name"`
	Status      CourseStatus       `json:"course_status"`
	Faculty     []FacultySummary   `json:"assigned_faculty"`
	Enrollments []CourseEnrollment `json:"assigned_students_batches"`
}
