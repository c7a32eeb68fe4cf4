package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Count is one key of a backend count mapping (rating -> count, option -> delta, ...).
type Count struct {
	Key   string
	Value int
}

// Counts keeps the backend's JSON key order, which carries meaning (most common first).
type Counts []Count

func (c *Counts) UnmarshalJSON(data []byte) error {
	out := Counts{}
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("count %q: %w", key, err)
		}
		out = append(out, Count{Key: key, Value: int(math.Round(n))})
		return nil
	})
	if err != nil {
		return err
	}
	*c = out
	return nil
}

// Max is the largest value, or 0 for an empty mapping.
func (c Counts) Max() int {
	m := 0
	for i, e := range c {
		if i == 0 || e.Value > m {
			m = e.Value
		}
	}
	return m
}

// Summary holds response totals for the presenter view.
type Summary struct {
	PrePollCount   int `json:"pre_poll_count"`
	PostPollCount  int `json:"post_poll_count"`
	TotalResponses int `json:"total_responses"`
}

// QuestionStats is the per-type analytics shape. Exactly one variant per question.
type QuestionStats interface {
	Kind() QuestionType
}

type RatingSide struct {
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Distribution Counts  `json:"distribution"`
}

type RatingDifferential struct {
	MeanChange         float64 `json:"mean_change"`
	DistributionChange Counts  `json:"distribution_change"`
}

type RatingStats struct {
	Pre          RatingSide
	Post         RatingSide
	Differential RatingDifferential
}

type CheckboxSide struct {
	Count         int    `json:"count"`
	Selections    Counts `json:"selections,omitempty"`
	TopSelections Counts `json:"top_selections"`
}

type CheckboxDifferential struct {
	SelectionChanges Counts `json:"selection_changes"`
}

type CheckboxStats struct {
	Pre          CheckboxSide
	Post         CheckboxSide
	Differential CheckboxDifferential
}

// Keyword is a word and how often it occurred in free-text answers.
type Keyword struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type TextSide struct {
	Count         int       `json:"count"`
	ResponseRate  float64   `json:"response_rate"`
	AverageLength float64   `json:"average_length"`
	Keywords      []Keyword `json:"keywords"`
}

type TextDifferential struct {
	ResponseRateChange float64 `json:"response_rate_change"`
	AvgLengthChange    float64 `json:"avg_length_change"`
}

type TextStats struct {
	Pre  TextSide
	Post TextSide
	// Differential is nil when the backend omits it.
	Differential *TextDifferential
}

// OtherStats stands in for question types without a dedicated layout (number).
type OtherStats struct {
	Type QuestionType
}

func (RatingStats) Kind() QuestionType   { return TypeRating }
func (CheckboxStats) Kind() QuestionType { return TypeCheckbox }
func (TextStats) Kind() QuestionType     { return TypeText }
func (s OtherStats) Kind() QuestionType  { return s.Type }

// QuestionEntry is one item of the analytics "questions" mapping. The stats body is
// decoded on demand so a malformed entry fails alone.
type QuestionEntry struct {
	ID   string
	Text string
	Type QuestionType

	raw     json.RawMessage
	metaErr error
}

// AnalyticsPayload is the GET /analytics document.
type AnalyticsPayload struct {
	Summary   Summary
	Questions []QuestionEntry
}

func (p *AnalyticsPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Summary   *Summary        `json:"summary"`
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Summary == nil {
		return errors.New("analytics payload: missing summary")
	}
	out := AnalyticsPayload{Summary: *raw.Summary}
	err := decodeOrderedObject(raw.Questions, func(key string, body json.RawMessage) error {
		out.Questions = append(out.Questions, newQuestionEntry(key, body))
		return nil
	})
	if err != nil {
		return fmt.Errorf("analytics payload: questions: %w", err)
	}
	*p = out
	return nil
}

func newQuestionEntry(id string, body json.RawMessage) QuestionEntry {
	entry := QuestionEntry{ID: id, raw: body}
	var meta struct {
		QuestionText string       `json:"question_text"`
		QuestionType QuestionType `json:"question_type"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		entry.metaErr = err
		return entry
	}
	entry.Text = meta.QuestionText
	entry.Type = meta.QuestionType
	return entry
}

// Stats decodes the entry into the variant named by its question_type.
func (e QuestionEntry) Stats() (QuestionStats, error) {
	if e.metaErr != nil {
		return nil, fmt.Errorf("question %q: %w", e.ID, e.metaErr)
	}
	switch e.Type {
	case TypeRating:
		var body struct {
			Pre          *RatingSide        `json:"pre_poll"`
			Post         *RatingSide        `json:"post_poll"`
			Differential RatingDifferential `json:"differential"`
		}
		if err := e.decode(&body); err != nil {
			return nil, err
		}
		if body.Pre == nil || body.Post == nil {
			return nil, e.missingSide()
		}
		return RatingStats{Pre: *body.Pre, Post: *body.Post, Differential: body.Differential}, nil
	case TypeCheckbox:
		var body struct {
			Pre          *CheckboxSide        `json:"pre_poll"`
			Post         *CheckboxSide        `json:"post_poll"`
			Differential CheckboxDifferential `json:"differential"`
		}
		if err := e.decode(&body); err != nil {
			return nil, err
		}
		if body.Pre == nil || body.Post == nil {
			return nil, e.missingSide()
		}
		return CheckboxStats{Pre: *body.Pre, Post: *body.Post, Differential: body.Differential}, nil
	case TypeText:
		var body struct {
			Pre          *TextSide         `json:"pre_poll"`
			Post         *TextSide         `json:"post_poll"`
			Differential *TextDifferential `json:"differential"`
		}
		if err := e.decode(&body); err != nil {
			return nil, err
		}
		if body.Pre == nil || body.Post == nil {
			return nil, e.missingSide()
		}
		return TextStats{Pre: *body.Pre, Post: *body.Post, Differential: body.Differential}, nil
	case TypeNumber:
		return OtherStats{Type: e.Type}, nil
	}
	return nil, fmt.Errorf("question %q: %w: %q", e.ID, ErrUnknownQuestionType, e.Type)
}

func (e QuestionEntry) decode(v any) error {
	if err := json.Unmarshal(e.raw, v); err != nil {
		return fmt.Errorf("question %q: %w", e.ID, err)
	}
	return nil
}

func (e QuestionEntry) missingSide() error {
	return fmt.Errorf("question %q: %s stats need pre_poll and post_poll", e.ID, e.Type)
}

// decodeOrderedObject walks a JSON object in document order. null decodes as empty.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
