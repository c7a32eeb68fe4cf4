package form

import (
	"errors"
	"net/url"
	"strings"

	"prepost-poll/internal/domain"
)

// Field is one submitted form control, in declaration order.
type Field struct {
	Name  string
	Value string
}

// Collect builds an answer set. Names submitted more than once (checkbox groups) are
// joined with ", " in field order; names never submitted stay absent.
func Collect(fields []Field) domain.AnswerSet {
	grouped := make(map[string][]string)
	order := []string{}
	for _, f := range fields {
		if _, seen := grouped[f.Name]; !seen {
			order = append(order, f.Name)
		}
		grouped[f.Name] = append(grouped[f.Name], f.Value)
	}
	answers := make(domain.AnswerSet, len(order))
	for _, name := range order {
		answers[name] = strings.Join(grouped[name], ", ")
	}
	return answers
}

// FieldsFromRequest orders submitted values by the schema's question order. Values for one name
// keep their submission order; names outside the schema are ignored.
func FieldsFromRequest(schema domain.Schema, values url.Values) []Field {
	var fields []Field
	for _, q := range schema.Questions {
		id := q.Base().ID
		for _, v := range values[id] {
			fields = append(fields, Field{Name: id, Value: v})
		}
	}
	return fields
}

// CollectSubmission gathers answers from a posted form. Checkbox values are replayed
// through the selection cap; any value past the cap is dropped and reported as a
// *domain.ValidationError alongside the remaining answers.
func CollectSubmission(schema domain.Schema, values url.Values) (domain.AnswerSet, error) {
	var fields []Field
	var errs []error
	for _, q := range schema.Questions {
		id := q.Base().ID
		submitted := values[id]
		cb, ok := q.(domain.CheckboxQuestion)
		if !ok {
			for _, v := range submitted {
				fields = append(fields, Field{Name: id, Value: v})
			}
			continue
		}
		group := NewCheckboxGroup(cb)
		for _, v := range submitted {
			if err := group.Toggle(v, true); err != nil {
				errs = append(errs, err)
			}
		}
		for _, v := range group.Checked() {
			fields = append(fields, Field{Name: id, Value: v})
		}
	}
	return Collect(fields), errors.Join(errs...)
}
