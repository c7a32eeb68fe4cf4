package render

import (
	"sort"
	"strconv"

	"prepost-poll/internal/domain"

	"golang.org/x/net/html"
)

// TopShiftCount is how many options the opinion-shift column lists.
const TopShiftCount = 5

// TopShifts ranks changes by absolute delta, descending. Ties keep backend order.
func TopShifts(changes domain.Counts, n int) domain.Counts {
	ranked := make(domain.Counts, len(changes))
	copy(ranked, changes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return abs(ranked[i].Value) > abs(ranked[j].Value)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CheckboxAnalytics lays out pre selections, the biggest shifts and post selections.
func CheckboxAnalytics(s domain.CheckboxStats) *html.Node {
	side := func(title string, c domain.CheckboxSide) *html.Node {
		list := El("ul")
		for _, sel := range c.TopSelections {
			Append(list, Append(El("li"),
				ElText("strong", sel.Key),
				Text(": "+strconv.Itoa(sel.Value)+" selections"),
			))
		}
		return Append(column(title, ""),
			para("Responses: %d", c.Count),
			Append(El("div", "class", "selections-list"), list),
		)
	}

	changes := El("ul")
	for _, c := range TopShifts(s.Differential.SelectionChanges, TopShiftCount) {
		Append(changes, Append(El("li", "class", ChangeClass(c.Value)),
			ElText("strong", c.Key),
			Text(": "),
			ElText("span", Signed(float64(c.Value))),
		))
	}
	diff := Append(column("Biggest Opinion Shifts", "difference-column"),
		Append(El("div", "class", "changes-list"), changes),
		ElText("p", "Note: Shows largest changes between pre and post polls", "class", "note"),
	)

	return Append(El("div", "class", "checkbox-analytics flex-container"),
		side("Pre-Poll Top Selections", s.Pre),
		diff,
		side("Post-Poll Top Selections", s.Post),
	)
}
