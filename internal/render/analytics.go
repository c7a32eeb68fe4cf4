package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"prepost-poll/internal/domain"

	"golang.org/x/net/html"
)

// RenderAnalytics clears container and rebuilds the presenter view from payload.
//
// Every question gets its own section. An entry whose stats cannot be decoded is
// replaced by an inline error block; the remaining questions still render and the
// failures are returned joined.
func RenderAnalytics(container *html.Node, payload domain.AnalyticsPayload) error {
	Clear(container)
	Append(container, summaryCards(payload.Summary))

	var errs []error
	for _, entry := range payload.Questions {
		section := El("div", "class", "question-analytics", "data-question", entry.ID)
		Append(section,
			ElText("h3", entry.Text, "class", "question-header"),
			ElText("div", entry.Type.Label(), "class", "question-type-label"),
		)

		stats, err := entry.Stats()
		if err != nil {
			errs = append(errs, err)
			Append(section, ElText("p", "Could not render this question: "+err.Error(), "class", "render-error"))
			Append(container, section)
			continue
		}

		switch s := stats.(type) {
		case domain.RatingStats:
			Append(section, RatingAnalytics(s))
		case domain.CheckboxStats:
			Append(section, CheckboxAnalytics(s))
		case domain.TextStats:
			Append(section, TextAnalytics(s, entry.ID))
		}
		Append(container, section)
	}
	return errors.Join(errs...)
}

func summaryCards(s domain.Summary) *html.Node {
	card := func(title string, n int) *html.Node {
		return Append(El("div", "class", "analytics-card"),
			ElText("h3", title),
			ElText("span", strconv.Itoa(n), "class", "analytics-count"),
		)
	}
	return Append(El("div", "class", "analytics-summary"),
		card("Pre-Poll Responses", s.PrePollCount),
		card("Post-Poll Responses", s.PostPollCount),
		card("Total Responses", s.TotalResponses),
	)
}

// FormatNumber prints v the way the page shows numbers: no trailing zeros.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Signed prefixes positive values with "+"; zero and negatives print as-is.
func Signed(v float64) string {
	if v > 0 {
		return "+" + FormatNumber(v)
	}
	return FormatNumber(v)
}

// ChangeClass is the list-item class for a delta.
func ChangeClass(delta int) string {
	switch {
	case delta > 0:
		return "increase"
	case delta < 0:
		return "decrease"
	}
	return "neutral"
}

func column(title string, extraClass string) *html.Node {
	class := "poll-column"
	if extraClass != "" {
		class += " " + extraClass
	}
	return Append(El("div", "class", class), ElText("h4", title))
}

func para(format string, args ...any) *html.Node {
	return ElText("p", fmt.Sprintf(format, args...))
}
