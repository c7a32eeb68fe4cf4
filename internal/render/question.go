package render

import (
	"strconv"

	"prepost-poll/internal/domain"

	"golang.org/x/net/html"
)

// MaxCheckboxSelections is the advisory cap announced on checkbox groups.
const MaxCheckboxSelections = 3

// RenderQuestion builds the markup for one schema entry. The variant only namespaces
// element ids so the same question can appear in both forms on one page.
func RenderQuestion(q domain.Question, variant domain.PollVariant) *html.Node {
	base := q.Base()
	prefix := variant.Prefix()

	item := El("div", "class", "question-item")
	prompt := ElText("p", base.Prompt+" ", "class", "question-text")
	if base.Required {
		Append(prompt, ElText("span", "*", "class", "required"))
	}
	Append(item, prompt)

	switch v := q.(type) {
	case domain.TextQuestion:
		Append(item, withRequired(El("textarea", "id", prefix+base.ID, "name", base.ID, "rows", "4"), base.Required))
	case domain.NumberQuestion:
		Append(item, withRequired(El("input", "type", "number", "id", prefix+base.ID, "name", base.ID), base.Required))
	case domain.RatingQuestion:
		Append(item, ratingInputs(v, prefix))
	case domain.CheckboxQuestion:
		Append(item, checkboxInputs(v, prefix, variant))
		Append(item, ElText("p", "Please select up to "+strconv.Itoa(MaxCheckboxSelections)+" options", "class", "checkbox-instruction"))
	}
	return item
}

func ratingInputs(q domain.RatingQuestion, prefix string) *html.Node {
	container := El("div", "class", "rating-container")
	Append(container, Append(El("div", "class", "rating-labels"),
		ElText("span", q.Labels[0]),
		ElText("span", q.Labels[1]),
	))
	options := El("div", "class", "rating-options")
	for i := q.Min; i <= q.Max; i++ {
		id := prefix + q.ID + "-" + strconv.Itoa(i)
		input := withRequired(El("input", "type", "radio", "id", id, "name", q.ID, "value", strconv.Itoa(i)), q.Required)
		Append(options, Append(El("div", "class", "rating-option"),
			input,
			ElText("label", strconv.Itoa(i), "for", id),
		))
	}
	return Append(container, options)
}

func checkboxInputs(q domain.CheckboxQuestion, prefix string, variant domain.PollVariant) *html.Node {
	container := El("div",
		"class", "checkbox-container",
		"data-question", q.ID,
		"data-variant", string(variant),
		"data-max-selections", strconv.Itoa(MaxCheckboxSelections),
	)
	for i, option := range q.Options {
		id := prefix + q.ID + "-" + strconv.Itoa(i)
		Append(container, Append(El("div", "class", "checkbox-option"),
			El("input", "type", "checkbox", "id", id, "name", q.ID, "value", option),
			ElText("label", option, "for", id),
		))
	}
	return container
}

func withRequired(n *html.Node, required bool) *html.Node {
	if required {
		SetAttr(n, "required", "")
	}
	return n
}

// RenderForm builds a complete poll form for one variant: intro blocks, every
// question in schema order and the submit button.
func RenderForm(schema domain.Schema, variant domain.PollVariant) *html.Node {
	form := El("form",
		"id", string(variant)+"-poll-form",
		"method", "post",
		"action", "/poll/"+string(variant),
	)
	questions := El("div", "id", string(variant)+"-poll-questions")
	if schema.Description != "" {
		Append(questions, ElText("div", schema.Description, "class", "poll-description"))
		if schema.ScaleDescription != "" {
			Append(questions, ElText("div", schema.ScaleDescription, "class", "scale-description"))
		}
	}
	for _, q := range schema.Questions {
		Append(questions, RenderQuestion(q, variant))
	}
	Append(form, questions)
	Append(form, ElText("button", "Submit "+variant.Title()+"-Poll", "type", "submit", "class", "submit-button"))
	return form
}

// SectionTitle is the form heading: the schema title, or a per-variant default.
func SectionTitle(schema domain.Schema, variant domain.PollVariant) string {
	if schema.Title != "" {
		return schema.Title
	}
	return variant.Title() + "-Activity Poll"
}
