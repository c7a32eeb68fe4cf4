package render

import (
	"math"
	"sort"
	"strconv"

	"prepost-poll/internal/domain"

	"golang.org/x/net/html"
)

// ChangeSignificance buckets a mean change for display.
type ChangeSignificance struct {
	Class string
	Arrow string
}

// ClassifyMeanChange maps a mean change onto five buckets split at 0 and ±0.5.
func ClassifyMeanChange(change float64) ChangeSignificance {
	switch {
	case change > 0.5:
		return ChangeSignificance{Class: "significant-increase", Arrow: "↑↑"}
	case change > 0:
		return ChangeSignificance{Class: "increase", Arrow: "↑"}
	case change < -0.5:
		return ChangeSignificance{Class: "significant-decrease", Arrow: "↓↓"}
	case change < 0:
		return ChangeSignificance{Class: "decrease", Arrow: "↓"}
	}
	return ChangeSignificance{Class: "neutral", Arrow: "→"}
}

// Bar is one column of a rating distribution chart.
type Bar struct {
	Rating        string
	Count         int
	HeightPercent float64
}

// GlobalMax is the largest count across both distributions so pre and post charts
// share one scale.
func GlobalMax(pre, post domain.Counts) int {
	m := pre.Max()
	if p := post.Max(); p > m {
		m = p
	}
	return m
}

// BarHeights scales each count against globalMax. A zero globalMax is treated as 1.
func BarHeights(dist domain.Counts, globalMax int) []Bar {
	effective := globalMax
	if effective == 0 {
		effective = 1
	}
	ordered := sortedRatings(dist)
	bars := make([]Bar, 0, len(ordered))
	for _, c := range ordered {
		bars = append(bars, Bar{
			Rating:        c.Key,
			Count:         c.Value,
			HeightPercent: float64(c.Value) / float64(effective) * 100,
		})
	}
	return bars
}

// sortedRatings orders integer keys ascending; other keys keep their place after them.
func sortedRatings(dist domain.Counts) domain.Counts {
	out := make(domain.Counts, len(dist))
	copy(out, dist)
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i].Key)
		b, errB := strconv.Atoi(out[j].Key)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		}
		return false
	})
	return out
}

var ratingLabels = map[string]string{
	"1": "Strongly Disagree",
	"2": "Disagree",
	"3": "Agree",
	"4": "Strongly Agree",
}

func ratingLabel(rating string) string {
	if l, ok := ratingLabels[rating]; ok {
		return l
	}
	return rating
}

// BarChart draws one distribution against the shared globalMax.
func BarChart(dist domain.Counts, globalMax int) *html.Node {
	yAxis := Append(El("div", "class", "y-axis"),
		ElText("div", strconv.Itoa(globalMax), "class", "y-axis-label"),
		ElText("div", strconv.Itoa(int(math.Ceil(float64(globalMax)/2))), "class", "y-axis-label"),
		ElText("div", "0", "class", "y-axis-label"),
	)
	content := El("div", "class", "chart-content")
	for _, bar := range BarHeights(dist, globalMax) {
		Append(content, Append(El("div", "class", "bar-column", "data-rating", bar.Rating),
			Append(El("div", "class", "bar-wrapper"),
				Append(El("div", "class", "bar", "style", "height: "+FormatNumber(bar.HeightPercent)+"%"),
					ElText("span", strconv.Itoa(bar.Count), "class", "bar-value"),
				),
			),
			ElText("div", bar.Rating, "class", "x-axis-label", "title", ratingLabel(bar.Rating)),
		))
	}
	return Append(El("div", "class", "enhanced-chart"), yAxis, content)
}

// RatingAnalytics lays out pre results, the change analysis and post results.
func RatingAnalytics(s domain.RatingStats) *html.Node {
	globalMax := GlobalMax(s.Pre.Distribution, s.Post.Distribution)

	side := func(title string, r domain.RatingSide) *html.Node {
		col := column(title, "")
		return Append(col,
			para("Responses: %d", r.Count),
			para("Average Rating: %s", FormatNumber(r.Mean)),
			para("Median Rating: %s", FormatNumber(r.Median)),
			Append(El("div", "class", "chart-container"), BarChart(r.Distribution, globalMax)),
		)
	}

	sig := ClassifyMeanChange(s.Differential.MeanChange)
	diff := column("Change Analysis", "difference-column")
	Append(diff, Append(El("p", "class", "change-value "+sig.Class),
		ElText("span", "Mean Change: "+Signed(s.Differential.MeanChange)),
		ElText("span", sig.Arrow, "class", "change-arrow"),
	))
	list := El("ul")
	for _, c := range sortedRatings(s.Differential.DistributionChange) {
		Append(list, ElText("li", "Rating "+c.Key+": "+Signed(float64(c.Value)), "class", ChangeClass(c.Value)))
	}
	Append(diff, Append(El("div", "class", "distribution-changes"),
		ElText("h5", "Response Distribution Changes:"),
		list,
	))

	return Append(El("div", "class", "rating-analytics flex-container"),
		side("Pre-Poll Results", s.Pre),
		diff,
		side("Post-Poll Results", s.Post),
	)
}
