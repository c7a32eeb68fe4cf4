package render

import (
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"prepost-poll/internal/domain"

	"golang.org/x/net/html"
)

const (
	MinFontSize   = 12.0
	MaxFontSize   = 50.0
	ColorClasses  = 10
	HoverScale    = 1.2
	CloudWidth    = 300
	CloudHeight   = 300
	wordPadding   = 5.0
	glyphWidthEm  = 0.6
	spiralStep    = 0.1
	emptyCloudMsg = "Not enough data for visualization"
)

// FontSize maps value linearly from [1, maxValue] onto [MinFontSize, MaxFontSize].
// A degenerate domain yields the midpoint.
func FontSize(value, maxValue int) float64 {
	if maxValue <= 1 {
		return (MinFontSize + MaxFontSize) / 2
	}
	t := float64(value-1) / float64(maxValue-1)
	size := MinFontSize + t*(MaxFontSize-MinFontSize)
	return math.Min(MaxFontSize, math.Max(MinFontSize, size))
}

// ColorClass buckets value/maxValue into one of ColorClasses classes, color-1..color-10.
func ColorClass(value, maxValue int) string {
	if maxValue <= 0 {
		maxValue = 1
	}
	idx := int(math.Ceil(float64(value) / float64(maxValue) * ColorClasses))
	if idx < 1 {
		idx = 1
	}
	if idx > ColorClasses {
		idx = ColorClasses
	}
	return "color-" + strconv.Itoa(idx)
}

// PlacedWord is a keyword after layout. X and Y are relative to the canvas centre.
type PlacedWord struct {
	Text          string
	Value         int
	FontSize      float64
	HoverFontSize float64
	ColorClass    string
	X, Y          float64
}

// Tooltip is the hover text for the word.
func (w PlacedWord) Tooltip() string {
	return w.Text + ": " + strconv.Itoa(w.Value) + " occurrences"
}

// WordCloud is a laid-out keyword visualisation with hover emphasis.
type WordCloud struct {
	Words []PlacedWord

	root    *html.Node
	tooltip *html.Node
	texts   []*html.Node
}

type rect struct{ x0, y0, x1, y1 float64 }

func (a rect) overlaps(b rect) bool {
	return a.x0 < b.x1 && b.x0 < a.x1 && a.y0 < b.y1 && b.y0 < a.y1
}

// BuildWordCloud lays keywords out on an Archimedean spiral from the canvas centre,
// largest first, without rotation. Words that cannot fit are dropped.
func BuildWordCloud(keywords []domain.Keyword) *WordCloud {
	maxValue := 1
	for _, k := range keywords {
		if k.Value > maxValue {
			maxValue = k.Value
		}
	}

	order := make([]domain.Keyword, len(keywords))
	copy(order, keywords)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Value > order[j].Value })

	halfW, halfH := float64(CloudWidth)/2, float64(CloudHeight)/2
	limit := math.Hypot(CloudWidth, CloudHeight)
	var placed []rect
	cloud := &WordCloud{}

	for _, k := range order {
		size := FontSize(k.Value, maxValue)
		w := glyphWidthEm*size*float64(utf8.RuneCountInString(k.Text)) + 2*wordPadding
		h := size + 2*wordPadding

		for t := 0.0; ; t += spiralStep {
			r := t
			if r > limit {
				break
			}
			x, y := r*math.Cos(t), r*math.Sin(t)
			box := rect{x - w/2, y - h/2, x + w/2, y + h/2}
			if box.x0 < -halfW || box.x1 > halfW || box.y0 < -halfH || box.y1 > halfH {
				continue
			}
			if collides(box, placed) {
				continue
			}
			placed = append(placed, box)
			cloud.Words = append(cloud.Words, PlacedWord{
				Text:          k.Text,
				Value:         k.Value,
				FontSize:      size,
				HoverFontSize: size * HoverScale,
				ColorClass:    ColorClass(k.Value, maxValue),
				X:             math.Round(x*10) / 10,
				Y:             math.Round(y*10) / 10,
			})
			break
		}
	}
	cloud.build()
	return cloud
}

func collides(box rect, placed []rect) bool {
	for _, p := range placed {
		if box.overlaps(p) {
			return true
		}
	}
	return false
}

func fontStyle(size float64) string {
	return "font-family: Impact, sans-serif; font-size: " + FormatNumber(math.Round(size*100)/100) + "px"
}

func (c *WordCloud) build() {
	c.tooltip = El("div", "class", "word-cloud-tooltip", "style", "opacity: 0")
	group := SVG("g", "transform", "translate("+strconv.Itoa(CloudWidth/2)+", "+strconv.Itoa(CloudHeight/2)+")")
	c.texts = c.texts[:0]
	for i, w := range c.Words {
		text := SVG("text",
			"text-anchor", "middle",
			"transform", "translate("+FormatNumber(w.X)+", "+FormatNumber(w.Y)+")",
			"class", w.ColorClass,
			"style", fontStyle(w.FontSize),
			"data-index", strconv.Itoa(i),
			"data-font-size", FormatNumber(math.Round(w.FontSize*100)/100),
			"data-hover-font-size", FormatNumber(math.Round(w.HoverFontSize*100)/100),
			"data-tooltip", w.Tooltip(),
		)
		Append(text, Text(w.Text), Append(SVG("title"), Text(w.Tooltip())))
		c.texts = append(c.texts, text)
		Append(group, text)
	}
	svg := SVG("svg", "width", strconv.Itoa(CloudWidth), "height", strconv.Itoa(CloudHeight))
	Append(svg, group)
	c.root = Append(El("div", "class", "word-cloud"), c.tooltip, svg)
}

// Node is the cloud markup: a tooltip div and the svg canvas.
func (c *WordCloud) Node() *html.Node { return c.root }

// Emphasize grows word i by HoverScale and shows its occurrence tooltip.
func (c *WordCloud) Emphasize(i int) string {
	if i < 0 || i >= len(c.Words) {
		return ""
	}
	w := c.Words[i]
	SetAttr(c.texts[i], "style", fontStyle(w.HoverFontSize))
	SetAttr(c.tooltip, "style", "opacity: 1")
	Clear(c.tooltip)
	Append(c.tooltip, Text(w.Tooltip()))
	return w.Tooltip()
}

// Release reverts word i to its resting size and hides the tooltip.
func (c *WordCloud) Release(i int) {
	if i < 0 || i >= len(c.Words) {
		return
	}
	SetAttr(c.texts[i], "style", fontStyle(c.Words[i].FontSize))
	SetAttr(c.tooltip, "style", "opacity: 0")
}

// WordCloudContainer is the cloud for keywords, or a notice when there are none.
func WordCloudContainer(id string, keywords []domain.Keyword) *html.Node {
	container := El("div", "class", "word-cloud-container", "id", id)
	if len(keywords) == 0 {
		return Append(container, ElText("p", emptyCloudMsg, "class", "note"))
	}
	return Append(container, BuildWordCloud(keywords).Node())
}

// TextAnalytics lays out the pre and post free-text summaries with keyword clouds.
func TextAnalytics(s domain.TextStats, questionID string) *html.Node {
	side := func(label, prefix string, t domain.TextSide) *html.Node {
		stat := func(name, value string) *html.Node {
			return Append(El("div", "class", "text-stat"),
				ElText("div", name, "class", "text-stat-label"),
				ElText("div", value, "class", "text-stat-value"),
			)
		}
		return Append(column(label+" Text Responses", ""),
			Append(El("div", "class", "text-analytics-summary"),
				stat("Response Count", strconv.Itoa(t.Count)),
				stat("Response Rate", FormatNumber(t.ResponseRate)+"%"),
				stat("Avg Length", FormatNumber(t.AverageLength)),
			),
			ElText("div", "Common Keywords in "+label+" Responses", "class", "word-cloud-title"),
			WordCloudContainer(prefix+"-word-cloud-"+questionID, t.Keywords),
		)
	}

	wrapper := El("div", "class", "text-analytics flex-container")
	Append(wrapper, side("Pre-Poll", "pre", s.Pre))
	if d := s.Differential; d != nil {
		Append(wrapper, Append(column("Change Analysis", "difference-column"),
			Append(El("ul"),
				ElText("li", "Response Rate: "+Signed(d.ResponseRateChange)+"%", "class", changeClassFloat(d.ResponseRateChange)),
				ElText("li", "Avg Length: "+Signed(d.AvgLengthChange), "class", changeClassFloat(d.AvgLengthChange)),
			),
		))
	}
	Append(wrapper, side("Post-Poll", "post", s.Post))
	return wrapper
}

func changeClassFloat(v float64) string {
	switch {
	case v > 0:
		return "increase"
	case v < 0:
		return "decrease"
	}
	return "neutral"
}
