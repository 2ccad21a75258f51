package models

import (
	"fmt"
	"strings"
	"time"
)

// FormDefinition is the reusable content of an evaluation form.
type FormDefinition struct {
	Title       string      `db:"title" json:"title"`
	QuestionSet QuestionSet `db:"questions_set" json:"questions_set"`
}

// AssignmentScope selects who must answer a form and until when.
type AssignmentScope struct {
	CourseCode *string    `db:"course_code" json:"course_code,omitempty"`
	Batch      *string    `db:"batch" json:"batch,omitempty"`
	Session    *string    `db:"session" json:"session,omitempty"`
	LastDate   *time.Time `db:"last_date" json:"last_date,omitempty"`
}

// Scoped reports whether any respondent selector is set.
func (s AssignmentScope) Scoped() bool {
	return s.CourseCode != nil || s.Batch != nil || s.Session != nil
}

// EvaluationTemplate is one row of evaluation_templates. A row is both a form and an
// assignment instance; clones point back to their master via SourceTemplateID.
type EvaluationTemplate struct {
	ID int64 `db:"id" json:"id"`
	FormDefinition
	AssignmentScope
	AdminID          *int64    `db:"admin_id" json:"admin_id,omitempty"`
	SourceTemplateID *int64    `db:"source_template_id" json:"source_template_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentTitle builds the clone title, e.g. "Assignment: Midterm for Course CS101 Batch 2022".
func AssignmentTitle(title string, scope AssignmentScope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assignment: %s", title)
	if scope.CourseCode != nil {
		fmt.Fprintf(&b, " for Course %s", *scope.CourseCode)
	}
	if scope.Batch != nil {
		fmt.Fprintf(&b, " Batch %s", *scope.Batch)
	}
	if scope.Session != nil {
		fmt.Fprintf(&b, " Session %s", *scope.Session)
	}
	return b.String()
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	CourseCode string
	Batch      string
	AdminID    *int64
	Search     string
	Page       int
	PageSize   int
}

// CreateTemplateRequest creates a master form, optionally already scoped.
type CreateTemplateRequest struct {
	Title       string      `json:"title" validate:"required,max=255"`
	QuestionSet QuestionSet `json:"questions_set"`
	CourseCode  *string     `json:"course_code" validate:"omitempty,max=32"`
	Batch       *string     `json:"batch" validate:"omitempty,max=32"`
	Session     *string     `json:"session" validate:"omitempty,max=32"`
	LastDate    string      `json:"last_date" validate:"omitempty,datetime=2006-01-02"`
	AdminID     *int64      `json:"-"`
}

// UpdateTemplateRequest changes a template's content or deadline.
type UpdateTemplateRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=255"`
	QuestionSet *QuestionSet `json:"questions_set"`
	LastDate    *string      `json:"last_date" validate:"omitempty,datetime=2006-01-02"`
}

// AssignTemplateRequest clones a form into a new scoped assignment.
type AssignTemplateRequest struct {
	CourseCode *string `json:"course_code" validate:"omitempty,max=32"`
	Batch      *string `json:"batch" validate:"omitempty,max=32"`
	Session    *string `json:"session" validate:"omitempty,max=32"`
	LastDate   string  `json:"last_date" validate:"required,datetime=2006-01-02"`
	AdminID    *int64  `json:"-"`
}

// ExtendDeadlineRequest moves a template's last date.
type ExtendDeadlineRequest struct {
	LastDate string `json:"last_date" validate:"required,datetime=2006-01-02"`
}
