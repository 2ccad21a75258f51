package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GeneralCommentsKey is the synthetic text question collecting evaluation comments.
const GeneralCommentsKey = "General Comments"

const (
	ReportSummaryEmpty     = "No evaluations found for the given criteria."
	ReportSummaryGenerated = "Report generated successfully."
)

// AggregateFilter selects the evaluations to tally. All fields are optional and combined with AND.
type AggregateFilter struct {
	CourseCode string `form:"course_code" json:"course_code,omitempty"`
	Batch      string `form:"batch" json:"batch,omitempty"`
	FacultyID  int64  `form:"faculty_id" json:"faculty_id,omitempty"`
	TemplateID int64  `form:"template_id" json:"template_id,omitempty"`
}

// AggregateRow is one evaluation joined with its template's question set.
type AggregateRow struct {
	ID             int64   `db:"id"`
	Feedback       string  `db:"feedback"`
	QuestionsSet   string  `db:"questions_set"`
	GeneralComment *string `db:"general_comment"`
}

// QuestionReport is the tally for one question bucket.
type QuestionReport struct {
	QuestionID string       `json:"question_id,omitempty"`
	Type       QuestionType `json:"type"`
	Options    []string     `json:"options"`
	Counts     map[string]int
	Comments   []string
	Average    *float64 `json:"average,omitempty"`
}

type questionReportWire struct {
	QuestionID string          `json:"question_id,omitempty"`
	Type       QuestionType    `json:"type"`
	Options    []string        `json:"options"`
	Data       json.RawMessage `json:"data"`
	Average    *float64        `json:"average,omitempty"`
}

type commentsData struct {
	Comments []string `json:"comments"`
}

// MarshalJSON renders data as an {option: count} map, or {"comments": [...]} for text questions.
func (q QuestionReport) MarshalJSON() ([]byte, error) {
	var data interface{}
	if q.Type == QuestionTypeText {
		if q.Comments == nil {
			data = map[string]interface{}{}
		} else {
			data = commentsData{Comments: q.Comments}
		}
	} else {
		counts := q.Counts
		if counts == nil {
			counts = map[string]int{}
		}
		data = counts
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionReportWire{
		QuestionID: q.QuestionID,
		Type:       q.Type,
		Options:    q.Options,
		Data:       raw,
		Average:    q.Average,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (q *QuestionReport) UnmarshalJSON(raw []byte) error {
	var wire questionReportWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	*q = QuestionReport{QuestionID: wire.QuestionID, Type: wire.Type, Options: wire.Options, Average: wire.Average}
	if len(wire.Data) == 0 {
		return nil
	}
	if wire.Type == QuestionTypeText {
		var data commentsData
		if err := json.Unmarshal(wire.Data, &data); err != nil {
			return err
		}
		q.Comments = data.Comments
		return nil
	}
	return json.Unmarshal(wire.Data, &q.Counts)
}

// ReportData keeps question buckets in the order they were first seen.
type ReportData struct {
	keys    []string
	entries map[string]*QuestionReport
}

// NewReportData returns an empty ordered bucket map.
func NewReportData() *ReportData {
	return &ReportData{entries: map[string]*QuestionReport{}}
}

// Get returns the bucket stored under label.
func (d *ReportData) Get(label string) (*QuestionReport, bool) {
	if d == nil || d.entries == nil {
		return nil, false
	}
	entry, ok := d.entries[label]
	return entry, ok
}

// Put stores a bucket, appending label to the order when new.
func (d *ReportData) Put(label string, report *QuestionReport) {
	if d.entries == nil {
		d.entries = map[string]*QuestionReport{}
	}
	if _, ok := d.entries[label]; !ok {
		d.keys = append(d.keys, label)
	}
	d.entries[label] = report
}

// Keys returns the labels in insertion order.
func (d *ReportData) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len returns the number of buckets.
func (d *ReportData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// MarshalJSON writes the buckets as an object preserving order.
func (d *ReportData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if d != nil {
		for i, key := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(d.entries[key])
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order.
func (d *ReportData) UnmarshalJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("report data must be an object")
	}
	*d = ReportData{entries: map[string]*QuestionReport{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("report data key must be a string")
		}
		var entry QuestionReport
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		d.Put(key, &entry)
	}
	_, err = dec.Token()
	return err
}

// AggregatedReport is the anonymised per-question tally.
type AggregatedReport struct {
	Summary          string      `json:"summary"`
	TotalSubmissions int         `json:"total_submissions"`
	ReportData       *ReportData `json:"report_data"`
}

// FacultyScoreRow is one evaluation of a course taught by the faculty member.
type FacultyScoreRow struct {
	Feedback       string `db:"feedback"`
	QuestionsSet   string `db:"questions_set"`
	EvaluationDate string `db:"evaluation_date"`
	CourseCode     string `db:"course_code"`
	CourseName     string `db:"course_name"`
}

// FacultyScore is a point of a faculty member's rating series.
type FacultyScore struct {
	CourseCode         string  `json:"course_code"`
	CourseName         string  `json:"course_name"`
	EvaluationDate     string  `json:"evaluation_date"`
	AverageRating      float64 `json:"average_rating"`
	NumRatingQuestions int     `json:"num_rating_questions"`
}
