package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Answer holds a submitted value: a JSON string, a number, or a list of strings and numbers.
// It re-encodes in the shape it was received.
type Answer struct {
	raw json.RawMessage
}

// TextAnswer builds a string answer.
func TextAnswer(s string) Answer {
	raw, _ := json.Marshal(s)
	return Answer{raw: raw}
}

// ListAnswer builds a list answer of strings.
func ListAnswer(values ...string) Answer {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return Answer{raw: raw}
}

// UnmarshalJSON accepts strings, numbers, null and flat lists of strings or numbers.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty answer")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		for _, item := range items {
			if !isScalar(item) {
				return fmt.Errorf("answer list items must be strings or numbers")
			}
		}
	case 'n':
		if string(trimmed) != "null" {
			return fmt.Errorf("invalid answer %s", trimmed)
		}
	default:
		if !isScalar(trimmed) {
			return fmt.Errorf("answer must be a string, number or list")
		}
	}
	a.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON returns the answer in its received shape.
func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return []byte("null"), nil
	}
	return a.raw, nil
}

// IsList reports whether the answer was submitted as a list.
func (a Answer) IsList() bool {
	return len(a.raw) > 0 && a.raw[0] == '['
}

// Values returns the answer as display strings, one per list element.
// Numbers keep their literal form.
func (a Answer) Values() []string {
	if len(a.raw) == 0 || string(a.raw) == "null" {
		return nil
	}
	if !a.IsList() {
		return []string{scalarString(a.raw)}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(a.raw, &items); err != nil {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		values = append(values, scalarString(item))
	}
	return values
}

// String renders the answer as a single label. Lists are joined with ", ".
func (a Answer) String() string {
	return strings.Join(a.Values(), ", ")
}

// Empty reports whether the answer carries no value.
func (a Answer) Empty() bool {
	values := a.Values()
	if len(values) == 0 {
		return true
	}
	return !a.IsList() && values[0] == ""
}

// Rating extracts the leading integer token of a scalar answer, e.g. 4 from "4 (Good)".
func (a Answer) Rating() (int, bool) {
	if a.IsList() || a.Empty() {
		return 0, false
	}
	token := strings.SplitN(a.String(), " ", 2)[0]
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return value, true
}

func isScalar(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v.(type) {
	case string, float64:
		return true
	default:
		return false
	}
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Feedback maps a question id (or the question text for legacy rows) to its answer.
type Feedback map[string]Answer

// Lookup finds the answer for q by id first, then by text.
func (f Feedback) Lookup(q Question) (Answer, bool) {
	if q.ID != "" {
		if answer, ok := f[q.ID]; ok {
			return answer, true
		}
	}
	answer, ok := f[q.Text]
	return answer, ok
}

// Value marshals feedback for persistence.
func (f Feedback) Value() (driver.Value, error) {
	if f == nil {
		f = Feedback{}
	}
	data, err := json.Marshal(map[string]Answer(f))
	if err != nil {
		return nil, fmt.Errorf("marshal feedback: %w", err)
	}
	return string(data), nil
}

// Scan decodes the JSON text column.
func (f *Feedback) Scan(value interface{}) error {
	data, err := scanBytes(value, "Feedback")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*f = Feedback{}
		return nil
	}
	decoded := Feedback{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("unmarshal feedback: %w", err)
	}
	*f = decoded
	return nil
}

// Evaluation is an anonymous submission; it never references the student.
type Evaluation struct {
	ID         int64     `db:"id" json:"id"`
	CourseCode *string   `db:"course_code" json:"course_code,omitempty"`
	TemplateID int64     `db:"template_id" json:"template_id"`
	Feedback   Feedback  `db:"feedback" json:"feedback"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	Date       time.Time `db:"date" json:"date"`
}

// EvaluationCompletion tracks whether a student submitted a template assignment.
type EvaluationCompletion struct {
	ID             int64      `db:"id" json:"id"`
	TemplateID     int64      `db:"template_id" json:"template_id"`
	CourseCode     *string    `db:"course_code" json:"course_code,omitempty"`
	StudentID      int64      `db:"student_id" json:"student_id"`
	IsCompleted    bool       `db:"is_completed" json:"is_completed"`
	CompletionDate *time.Time `db:"completion_date" json:"completion_date,omitempty"`
}

// SubmitEvaluationRequest is the student payload for a submission.
type SubmitEvaluationRequest struct {
	TemplateID int64    `json:"template_id" validate:"required,gt=0"`
	CourseCode string   `json:"course_code"`
	Feedback   Feedback `json:"feedback" validate:"required,min=1"`
	Comment    string   `json:"comment"`
	StudentID  int64    `json:"-"`
}

// SubmissionResult is returned after a successful submit.
type SubmissionResult struct {
	EvaluationID int64     `json:"evaluation_id"`
	TemplateID   int64     `json:"template_id"`
	CourseCode   *string   `json:"course_code,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// NonCompleter identifies a student who has not submitted, without exposing their name.
type NonCompleter struct {
	StudentID  int64   `db:"student_id" json:"student_id"`
	Batch      *string `db:"batch" json:"batch"`
	Department *string `db:"department" json:"department"`
}

// CompletionStatus summarises submissions against the expected respondents.
type CompletionStatus struct {
	TemplateID           int64          `json:"template_id"`
	CourseCode           *string        `json:"course_code,omitempty"`
	TotalExpected        int            `json:"total_expected"`
	CompletedCount       int            `json:"completed_count"`
	CompletionPercentage float64        `json:"completion_percentage"`
	NonCompleters        []NonCompleter `json:"non_completers"`
}

// CompletedEvaluation is a completion row joined with its template title.
type CompletedEvaluation struct {
	TemplateID     int64      `db:"template_id" json:"template_id"`
	Title          string     `db:"title" json:"title"`
	CourseCode     *string    `db:"course_code" json:"course_code,omitempty"`
	CompletionDate *time.Time `db:"completion_date" json:"completion_date,omitempty"`
}

// AssignedEvaluation is an open template the student still has to answer.
type AssignedEvaluation struct {
	TemplateID int64      `db:"id" json:"template_id"`
	Title      string     `db:"title" json:"title"`
	CourseCode *string    `db:"course_code" json:"course_code,omitempty"`
	CourseName *string    `db:"course_name" json:"course_name,omitempty"`
	LastDate   *time.Time `db:"last_date" json:"last_date,omitempty"`
}

// EvaluationContent is what a student sees when opening a form.
type EvaluationContent struct {
	TemplateID   int64      `json:"template_id"`
	Title        string     `json:"title"`
	CourseCode   *string    `json:"course_code,omitempty"`
	LastDate     *time.Time `json:"last_date,omitempty"`
	Instructions string     `json:"instructions"`
	Questions    []Question `json:"questions"`
}
