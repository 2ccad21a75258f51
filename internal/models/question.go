package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QuestionType is the wire discriminator of a question.
type QuestionType string

const (
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeText           QuestionType = "text"
)

// QuestionKind is implemented by RatingQuestion, MultipleChoiceQuestion and TextQuestion only.
type QuestionKind interface {
	Type() QuestionType
	isQuestionKind()
}

// RatingQuestion is answered with a label whose leading token is an integer, e.g. "4 (Good)".
type RatingQuestion struct {
	Options []string
}

// MultipleChoiceQuestion is answered with one option or a list of options.
type MultipleChoiceQuestion struct {
	Options []string
}

// TextQuestion is answered with free text.
type TextQuestion struct{}

func (RatingQuestion) Type() QuestionType         { return QuestionTypeRating }
func (MultipleChoiceQuestion) Type() QuestionType { return QuestionTypeMultipleChoice }
func (TextQuestion) Type() QuestionType           { return QuestionTypeText }

func (RatingQuestion) isQuestionKind()         {}
func (MultipleChoiceQuestion) isQuestionKind() {}
func (TextQuestion) isQuestionKind()           {}

// Options returns the option labels of a question kind, nil for text questions.
func Options(kind QuestionKind) []string {
	switch k := kind.(type) {
	case RatingQuestion:
		return k.Options
	case MultipleChoiceQuestion:
		return k.Options
	default:
		return nil
	}
}

// Question is a single entry of a question set. ID is stable across assignment clones.
type Question struct {
	ID   string
	Text string
	Kind QuestionKind
}

type questionWire struct {
	ID      string       `json:"id,omitempty"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
}

// Key identifies the question for answer lookup and report bucketing.
// Legacy questions without an id are keyed by their text.
func (q Question) Key() string {
	if q.ID != "" {
		return q.ID
	}
	return q.Text
}

// MarshalJSON encodes the question as {"id","text","type","options"}.
func (q Question) MarshalJSON() ([]byte, error) {
	if q.Kind == nil {
		return nil, fmt.Errorf("question %q has no type", q.Text)
	}
	return json.Marshal(questionWire{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Kind.Type(),
		Options: Options(q.Kind),
	})
}

// UnmarshalJSON decodes the wire shape, rejecting unknown types.
func (q *Question) UnmarshalJSON(data []byte) error {
	var wire questionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	kind, err := newQuestionKind(wire.Type, wire.Options)
	if err != nil {
		return err
	}
	*q = Question{ID: wire.ID, Text: wire.Text, Kind: kind}
	return nil
}

func newQuestionKind(t QuestionType, options []string) (QuestionKind, error) {
	switch t {
	case QuestionTypeRating:
		return RatingQuestion{Options: options}, nil
	case QuestionTypeMultipleChoice:
		return MultipleChoiceQuestion{Options: options}, nil
	case QuestionTypeText:
		return TextQuestion{}, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", t)
	}
}

// QuestionSet is the form content stored as JSON text in evaluation_templates.questions_set.
type QuestionSet struct {
	Instructions string     `json:"instructions"`
	Questions    []Question `json:"questions"`
}

var (
	ErrEmptyQuestionSet   = errors.New("question set requires at least one question")
	ErrDuplicateQuestion  = errors.New("duplicate question id")
	ErrQuestionText       = errors.New("question text is required")
	ErrQuestionOptions    = errors.New("multiple choice questions require options")
	ErrQuestionTypeAbsent = errors.New("question type is required")
)

// Validate reports the first structural problem with the set.
func (s QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return ErrEmptyQuestionSet
	}
	seen := make(map[string]struct{}, len(s.Questions))
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d: %w", i+1, ErrQuestionText)
		}
		if q.Kind == nil {
			return fmt.Errorf("question %d: %w", i+1, ErrQuestionTypeAbsent)
		}
		if mc, ok := q.Kind.(MultipleChoiceQuestion); ok && len(mc.Options) == 0 {
			return fmt.Errorf("question %d: %w", i+1, ErrQuestionOptions)
		}
		if q.ID == "" {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w %q", ErrDuplicateQuestion, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// EnsureIDs assigns a fresh id to every question that lacks one.
func (s *QuestionSet) EnsureIDs() {
	for i := range s.Questions {
		if s.Questions[i].ID == "" {
			s.Questions[i].ID = uuid.NewString()
		}
	}
}

// AdoptIDs copies ids from previous onto id-less questions with the same text.
// An id already carried by another question in s is never reused.
func (s *QuestionSet) AdoptIDs(previous QuestionSet) {
	used := make(map[string]struct{}, len(s.Questions))
	for _, q := range s.Questions {
		if q.ID != "" {
			used[q.ID] = struct{}{}
		}
	}
	byText := make(map[string]string, len(previous.Questions))
	for _, q := range previous.Questions {
		text := strings.TrimSpace(q.Text)
		if _, seen := byText[text]; q.ID != "" && !seen {
			byText[text] = q.ID
		}
	}
	for i := range s.Questions {
		if s.Questions[i].ID != "" {
			continue
		}
		id, ok := byText[strings.TrimSpace(s.Questions[i].Text)]
		if !ok {
			continue
		}
		if _, taken := used[id]; taken {
			continue
		}
		s.Questions[i].ID = id
		used[id] = struct{}{}
	}
}

// Find resolves a feedback key to a question, matching ids before texts.
func (s QuestionSet) Find(key string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID != "" && q.ID == key {
			return q, true
		}
	}
	for _, q := range s.Questions {
		if q.Text == key {
			return q, true
		}
	}
	return Question{}, false
}

// Clone returns a deep copy keeping question ids.
func (s QuestionSet) Clone() QuestionSet {
	out := QuestionSet{Instructions: s.Instructions, Questions: make([]Question, len(s.Questions))}
	for i, q := range s.Questions {
		switch k := q.Kind.(type) {
		case RatingQuestion:
			q.Kind = RatingQuestion{Options: append([]string(nil), k.Options...)}
		case MultipleChoiceQuestion:
			q.Kind = MultipleChoiceQuestion{Options: append([]string(nil), k.Options...)}
		}
		out.Questions[i] = q
	}
	return out
}

// Value marshals the set for persistence.
func (s QuestionSet) Value() (driver.Value, error) {
	if s.Questions == nil {
		s.Questions = []Question{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal question set: %w", err)
	}
	return string(data), nil
}

// Scan decodes the JSON text column.
func (s *QuestionSet) Scan(value interface{}) error {
	data, err := scanBytes(value, "QuestionSet")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*s = QuestionSet{}
		return nil
	}
	var decoded QuestionSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("unmarshal question set: %w", err)
	}
	*s = decoded
	return nil
}

// ParseQuestionSet decodes raw JSON text into a QuestionSet.
func ParseQuestionSet(raw string) (QuestionSet, error) {
	var s QuestionSet
	err := s.Scan(raw)
	return s, err
}

func scanBytes(value interface{}, target string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T for %s", value, target)
	}
}
