package render

import (
	"encoding/json"
	"strings"
	"testing"

	"prepost-poll/internal/domain"

	"golang.org/x/net/html"
)

func mustPayload(t *testing.T, data string) domain.AnalyticsPayload {
	t.Helper()
	var payload domain.AnalyticsPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return payload
}

const ratingPayload = `{
	"summary": {"pre_poll_count": 8, "post_poll_count": 10, "total_responses": 18},
	"questions": {
		"q1": {
			"question_text": "Crisis?",
			"question_type": "rating",
			"pre_poll": {"count": 8, "mean": 1.88, "median": 2, "distribution": {"1": 2, "2": 5, "3": 1, "4": 0}},
			"post_poll": {"count": 10, "mean": 3.4, "median": 3.5, "distribution": {"1": 0, "2": 1, "3": 4, "4": 5}},
			"differential": {"mean_change": 1.52, "distribution_change": {"1": -2, "2": -4, "3": 3, "4": 5}}
		}
	}
}`

func barHeight(t *testing.T, chart *html.Node, rating string) string {
	t.Helper()
	col := Find(chart, func(n *html.Node) bool {
		v, ok := Attr(n, "data-rating")
		return ok && v == rating && HasClass(n, "bar-column")
	})
	if col == nil {
		t.Fatalf("no bar for rating %s", rating)
	}
	style, _ := Attr(Find(col, ByClass("bar")), "style")
	return style
}

func TestRatingChartsShareGlobalMax(t *testing.T) {
	pre := domain.Counts{{Key: "1", Value: 2}, {Key: "2", Value: 5}, {Key: "3", Value: 1}, {Key: "4", Value: 0}}
	post := domain.Counts{{Key: "1", Value: 0}, {Key: "2", Value: 1}, {Key: "3", Value: 4}, {Key: "4", Value: 5}}
	if got := GlobalMax(pre, post); got != 5 {
		t.Fatalf("expected global max 5, got %d", got)
	}

	container := El("div")
	if err := RenderAnalytics(container, mustPayload(t, ratingPayload)); err != nil {
		t.Fatalf("render: %v", err)
	}
	charts := FindAll(container, ByClass("enhanced-chart"))
	if len(charts) != 2 {
		t.Fatalf("expected pre and post charts, got %d", len(charts))
	}
	if got := barHeight(t, charts[0], "2"); got != "height: 100%" {
		t.Fatalf("pre[2]: expected 100%%, got %q", got)
	}
	if got := barHeight(t, charts[1], "4"); got != "height: 100%" {
		t.Fatalf("post[4]: expected 100%%, got %q", got)
	}
	if got := barHeight(t, charts[0], "3"); got != "height: 20%" {
		t.Fatalf("pre[3]: expected 20%%, got %q", got)
	}
	if got := barHeight(t, charts[0], "4"); got != "height: 0%" {
		t.Fatalf("pre[4]: expected zero-height bar, got %q", got)
	}
}

func TestBarHeightsZeroMax(t *testing.T) {
	bars := BarHeights(domain.Counts{{Key: "2", Value: 0}, {Key: "1", Value: 0}}, 0)
	if len(bars) != 2 || bars[0].Rating != "1" || bars[0].HeightPercent != 0 {
		t.Fatalf("unexpected bars %+v", bars)
	}
}

func TestClassifyMeanChange(t *testing.T) {
	cases := map[float64]string{
		0.6:  "significant-increase",
		0.5:  "increase",
		0.3:  "increase",
		0:    "neutral",
		-0.3: "decrease",
		-0.5: "decrease",
		-0.6: "significant-decrease",
	}
	for change, want := range cases {
		if got := ClassifyMeanChange(change).Class; got != want {
			t.Fatalf("change %v: expected %s, got %s", change, want, got)
		}
	}
}

func TestRatingDifferentialList(t *testing.T) {
	container := El("div")
	if err := RenderAnalytics(container, mustPayload(t, ratingPayload)); err != nil {
		t.Fatalf("render: %v", err)
	}
	change := Find(container, ByClass("change-value"))
	if !HasClass(change, "significant-increase") || !strings.Contains(TextContent(change), "Mean Change: +1.52") {
		t.Fatalf("unexpected change block %q", TextContent(change))
	}
	items := FindAll(Find(container, ByClass("distribution-changes")), ByTag("li"))
	want := []string{"Rating 1: -2", "Rating 2: -4", "Rating 3: +3", "Rating 4: +5"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range items {
		if TextContent(item) != want[i] {
			t.Fatalf("item %d: expected %q, got %q", i, want[i], TextContent(item))
		}
	}
}

func TestTopShiftsByMagnitude(t *testing.T) {
	changes := domain.Counts{
		{Key: "A", Value: 3}, {Key: "B", Value: -5}, {Key: "C", Value: 1},
		{Key: "D", Value: -2}, {Key: "E", Value: 0}, {Key: "F", Value: 4},
	}
	top := TopShifts(changes, TopShiftCount)
	got := []string{}
	for _, c := range top {
		got = append(got, c.Key+"("+Signed(float64(c.Value))+")")
	}
	want := "B(-5) F(+4) A(+3) D(-2) C(+1)"
	if strings.Join(got, " ") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(got, " "))
	}
}

func TestCheckboxAnalyticsRendersShifts(t *testing.T) {
	payload := mustPayload(t, `{
		"summary": {"pre_poll_count": 1, "post_poll_count": 1, "total_responses": 2},
		"questions": {"q4": {
			"question_text": "Causes?", "question_type": "checkbox",
			"pre_poll": {"count": 1, "top_selections": {"B": 5, "D": 2}},
			"post_poll": {"count": 1, "top_selections": {"F": 4, "A": 3}},
			"differential": {"selection_changes": {"A": 3, "B": -5, "C": 1, "D": -2, "E": 0, "F": 4}}
		}}
	}`)
	container := El("div")
	if err := RenderAnalytics(container, payload); err != nil {
		t.Fatalf("render: %v", err)
	}
	items := FindAll(Find(container, ByClass("changes-list")), ByTag("li"))
	if len(items) != 5 {
		t.Fatalf("expected 5 shifts, got %d", len(items))
	}
	if TextContent(items[0]) != "B: -5" || !HasClass(items[0], "decrease") {
		t.Fatalf("unexpected first shift %q", TextContent(items[0]))
	}
	if TextContent(items[1]) != "F: +4" || !HasClass(items[1], "increase") {
		t.Fatalf("unexpected second shift %q", TextContent(items[1]))
	}
	lists := FindAll(container, ByClass("selections-list"))
	if len(lists) != 2 || !strings.HasPrefix(TextContent(lists[0]), "B: 5 selections") {
		t.Fatalf("unexpected selection lists")
	}
}

func TestRenderAnalyticsIsIdempotent(t *testing.T) {
	payload := mustPayload(t, ratingPayload)
	container := El("div")
	if err := RenderAnalytics(container, payload); err != nil {
		t.Fatalf("render: %v", err)
	}
	first, _ := String(container)
	if err := RenderAnalytics(container, payload); err != nil {
		t.Fatalf("render again: %v", err)
	}
	second, _ := String(container)
	if first != second {
		t.Fatalf("expected identical trees across renders")
	}
	if n := len(FindAll(container, ByClass("analytics-summary"))); n != 1 {
		t.Fatalf("expected container to be rebuilt, found %d summaries", n)
	}
}

func TestMalformedQuestionIsReportedNotFatal(t *testing.T) {
	payload := mustPayload(t, `{
		"summary": {"pre_poll_count": 0, "post_poll_count": 0, "total_responses": 0},
		"questions": {
			"q1": {"question_text": "Broken", "question_type": "rating", "pre_poll": 7},
			"q2": {"question_text": "Fine", "question_type": "text",
				"pre_poll": {"count": 0, "response_rate": 0, "average_length": 0, "keywords": []},
				"post_poll": {"count": 0, "response_rate": 0, "average_length": 0, "keywords": []}}
		}
	}`)
	container := El("div")
	err := RenderAnalytics(container, payload)
	if err == nil {
		t.Fatalf("expected error for malformed q1")
	}
	if Find(container, ByClass("render-error")) == nil {
		t.Fatalf("expected inline error block")
	}
	if len(FindAll(container, ByClass("question-analytics"))) != 2 {
		t.Fatalf("expected both sections to be present")
	}
	if Find(container, ByClass("text-analytics")) == nil {
		t.Fatalf("expected q2 to render after q1 failed")
	}
}

func TestSignedFormatting(t *testing.T) {
	if Signed(3) != "+3" || Signed(-2) != "-2" || Signed(0) != "0" || Signed(0.25) != "+0.25" {
		t.Fatalf("unexpected signed formatting")
	}
}
