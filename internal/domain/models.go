package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionType tags each schema entry.
type QuestionType string

const (
	TypeText     QuestionType = "text"
	TypeNumber   QuestionType = "number"
	TypeRating   QuestionType = "rating"
	TypeCheckbox QuestionType = "checkbox"
)

// Label is the display form used by the analytics view, e.g. "Rating Question".
func (t QuestionType) Label() string {
	s := string(t)
	if s == "" {
		return "Question"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Question"
}

// PollVariant distinguishes the pre-activity and post-activity instance of a poll.
type PollVariant string

const (
	VariantPre  PollVariant = "pre"
	VariantPost PollVariant = "post"
)

// ParseVariant accepts "pre" and "post" only.
func ParseVariant(raw string) (PollVariant, error) {
	switch PollVariant(raw) {
	case VariantPre, VariantPost:
		return PollVariant(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, raw)
}

// Prefix namespaces element ids so both variants can share one page.
func (v PollVariant) Prefix() string {
	if v == VariantPost {
		return "post-"
	}
	return "pre-"
}

// Title is the capitalised variant name ("Pre", "Post").
func (v PollVariant) Title() string {
	if v == "" {
		return ""
	}
	return strings.ToUpper(string(v[:1])) + string(v[1:])
}

// AnswerSet maps question id to the submitted value. Checkbox groups arrive comma-joined.
type AnswerSet map[string]string

// QuestionBase holds the fields every question variant carries.
type QuestionBase struct {
	ID       string
	Prompt   string
	Required bool
}

// Question is a schema entry. Each implementation carries only the fields valid for its type.
type Question interface {
	Kind() QuestionType
	Base() QuestionBase
}

type TextQuestion struct {
	QuestionBase
}

type NumberQuestion struct {
	QuestionBase
}

// RatingQuestion renders one choice per integer in [Min, Max]; Labels name the endpoints.
type RatingQuestion struct {
	QuestionBase
	Min    int
	Max    int
	Labels [2]string
}

type CheckboxQuestion struct {
	QuestionBase
	Options []string
}

func (q TextQuestion) Kind() QuestionType     { return TypeText }
func (q NumberQuestion) Kind() QuestionType   { return TypeNumber }
func (q RatingQuestion) Kind() QuestionType   { return TypeRating }
func (q CheckboxQuestion) Kind() QuestionType { return TypeCheckbox }

func (q TextQuestion) Base() QuestionBase     { return q.QuestionBase }
func (q NumberQuestion) Base() QuestionBase   { return q.QuestionBase }
func (q RatingQuestion) Base() QuestionBase   { return q.QuestionBase }
func (q CheckboxQuestion) Base() QuestionBase { return q.QuestionBase }

// HasOption reports whether option is declared on the question.
func (q CheckboxQuestion) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Schema is the GET /poll document. Questions are shared by both poll variants.
type Schema struct {
	Title            string
	Description      string
	ScaleDescription string
	Questions        []Question
}

// Find returns the question with the given id.
func (s Schema) Find(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Base().ID == id {
			return q, true
		}
	}
	return nil, false
}

type rawQuestion struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
	Min      *int         `json:"min,omitempty"`
	Max      *int         `json:"max,omitempty"`
	Labels   []string     `json:"labels,omitempty"`
	Options  []string     `json:"options,omitempty"`
}

type rawSchema struct {
	Title            string            `json:"title,omitempty"`
	Description      string            `json:"description,omitempty"`
	ScaleDescription string            `json:"scale_description,omitempty"`
	Questions        []json.RawMessage `json:"questions"`
}

// DecodeQuestion turns one wire entry into its typed variant.
func DecodeQuestion(data []byte) (Question, error) {
	var raw rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	base := QuestionBase{ID: raw.ID, Prompt: raw.Question, Required: raw.Required}
	switch raw.Type {
	case TypeText:
		return TextQuestion{QuestionBase: base}, nil
	case TypeNumber:
		return NumberQuestion{QuestionBase: base}, nil
	case TypeRating:
		if raw.Min == nil || raw.Max == nil {
			return nil, fmt.Errorf("rating question %q: min and max are required", raw.ID)
		}
		q := RatingQuestion{QuestionBase: base, Min: *raw.Min, Max: *raw.Max}
		copy(q.Labels[:], raw.Labels)
		return q, nil
	case TypeCheckbox:
		return CheckboxQuestion{QuestionBase: base, Options: raw.Options}, nil
	}
	return nil, fmt.Errorf("%w: %q (question %q)", ErrUnknownQuestionType, raw.Type, raw.ID)
}

// EncodeQuestion is the inverse of DecodeQuestion.
func EncodeQuestion(q Question) ([]byte, error) {
	b := q.Base()
	raw := rawQuestion{ID: b.ID, Question: b.Prompt, Type: q.Kind(), Required: b.Required}
	switch v := q.(type) {
	case RatingQuestion:
		raw.Min, raw.Max = &v.Min, &v.Max
		raw.Labels = v.Labels[:]
	case CheckboxQuestion:
		raw.Options = v.Options
	}
	return json.Marshal(raw)
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw rawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	questions := make([]Question, 0, len(raw.Questions))
	for _, entry := range raw.Questions {
		q, err := DecodeQuestion(entry)
		if err != nil {
			return err
		}
		questions = append(questions, q)
	}
	*s = Schema{
		Title:            raw.Title,
		Description:      raw.Description,
		ScaleDescription: raw.ScaleDescription,
		Questions:        questions,
	}
	return nil
}

func (s Schema) MarshalJSON() ([]byte, error) {
	raw := rawSchema{
		Title:            s.Title,
		Description:      s.Description,
		ScaleDescription: s.ScaleDescription,
		Questions:        make([]json.RawMessage, 0, len(s.Questions)),
	}
	for _, q := range s.Questions {
		data, err := EncodeQuestion(q)
		if err != nil {
			return nil, err
		}
		raw.Questions = append(raw.Questions, data)
	}
	return json.Marshal(raw)
}
