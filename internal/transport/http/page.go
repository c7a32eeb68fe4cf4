package http

import (
	"slices"

	"golang.org/x/net/html"

	"prepost-poll/internal/app"
	"prepost-poll/internal/domain"
	"prepost-poll/internal/render"
)

const pageTitle = "Pre/Post Activity Poll"

// RenderPage builds the whole document for one page state.
func RenderPage(v app.View) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	head := render.Append(render.El("head"),
		render.El("meta", "charset", "utf-8"),
		render.El("meta", "name", "viewport", "content", "width=device-width, initial-scale=1"),
		render.ElText("title", pageTitle),
	)

	body := render.El("body", "data-session", v.ID)
	if v.Theme == app.ThemeDark {
		render.AddClass(body, "dark-mode")
	}
	render.Append(body,
		header(v),
		render.Append(render.El("main"),
			pollSection(v, domain.VariantPre),
			pollSection(v, domain.VariantPost),
			analyticsSection(v),
		),
		notificationSlot(v.Notification),
		themeToggle(),
		render.Append(render.El("script"), render.Text(pageScript)),
	)

	render.Append(doc, render.Append(render.El("html", "lang", "en"), head, body))
	return doc
}

func header(v app.View) *html.Node {
	indicator := render.ElText("div", v.Indicator, "id", "poll-indicator", "class", "poll-indicator")
	if v.Presenter {
		render.AddClass(indicator, "presenter")
	} else if v.Indicator == "POST-Activity Poll" {
		render.AddClass(indicator, "post")
	}

	nav := render.El("nav")
	if !v.NavVisible {
		render.SetAttr(nav, "style", "display: none")
	}
	for _, s := range app.Sections {
		f := render.El("form", "method", "post", "action", "/navigate/"+string(s), "class", "nav-form")
		button := render.ElText("button", s.NavLabel(), "type", "submit", "id", "nav-"+string(s))
		if s == v.Section {
			render.AddClass(button, "active")
		}
		render.Append(nav, render.Append(f, button))
	}

	return render.Append(render.El("header"),
		render.ElText("h1", pageTitle),
		indicator,
		nav,
	)
}

func pollSection(v app.View, variant domain.PollVariant) *html.Node {
	section := sectionShell(v, app.SectionForVariant(variant))
	if v.Schema == nil {
		render.Append(section,
			render.ElText("h2", render.SectionTitle(domain.Schema{}, variant)),
			render.ElText("p", "Questions are unavailable right now.", "class", "note"),
		)
		return section
	}
	f := render.RenderForm(*v.Schema, variant)
	markChecked(f, variant, v.Checked)
	return render.Append(section, render.ElText("h2", render.SectionTitle(*v.Schema, variant)), f)
}

// markChecked restores the live checkbox selection into a freshly rendered form.
func markChecked(f *html.Node, variant domain.PollVariant, checked map[string][]string) {
	boxes := render.FindAll(f, func(n *html.Node) bool {
		typ, _ := render.Attr(n, "type")
		return n.Data == "input" && typ == "checkbox"
	})
	for _, box := range boxes {
		name, _ := render.Attr(box, "name")
		value, _ := render.Attr(box, "value")
		if slices.Contains(checked[variant.Prefix()+name], value) {
			render.SetAttr(box, "checked", "")
		}
	}
}

func analyticsSection(v app.View) *html.Node {
	section := render.Append(sectionShell(v, app.SectionAnalytics), render.ElText("h2", "Poll Analytics"))
	if v.HasAnalytics {
		return render.Append(section, &html.Node{Type: html.RawNode, Data: v.AnalyticsHTML})
	}
	return render.Append(section,
		render.Append(render.El("div", "id", "analytics-container"),
			render.ElText("p", "Loading analytics...", "class", "note")))
}

func sectionShell(v app.View, s app.Section) *html.Node {
	section := render.El("section", "id", string(s), "class", "section")
	if v.Section != s {
		render.AddClass(section, "hidden")
	}
	return section
}

func notificationSlot(n app.Notification) *html.Node {
	slot := render.El("div", "id", "notification", "class", "notification")
	if n.Visible {
		render.AddClass(slot, string(n.Severity))
		render.AddClass(slot, "show")
		render.Append(slot, render.Text(n.Message))
	}
	return slot
}

func themeToggle() *html.Node {
	button := render.Append(
		render.El("button", "type", "submit", "class", "theme-toggle", "aria-label", "Toggle Dark Mode"),
		render.Text("◐"),
		render.ElText("span", "Toggle Dark Mode", "class", "sr-only"),
	)
	return render.Append(render.El("form", "method", "post", "action", "/theme", "class", "theme-form"), button)
}

// pageScript wires the live parts: checkbox toggles go over the websocket, the
// server answers with the resulting selection and notification changes.
const pageScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  var slot = document.getElementById("notification");

  ws.onmessage = function (event) {
    var msg = JSON.parse(event.data);
    if (msg.type === "notification") {
      var n = msg.payload;
      slot.className = "notification" + (n.visible ? " " + n.severity + " show" : "");
      slot.textContent = n.visible ? n.message : "";
    } else if (msg.type === "selection") {
      var sel = msg.payload;
      document.querySelectorAll('#' + sel.variant + '-poll-form input[type=checkbox][name="' + sel.questionId + '"]')
        .forEach(function (box) { box.checked = sel.checked.indexOf(box.value) !== -1; });
    }
  };

  document.addEventListener("change", function (event) {
    var box = event.target;
    if (box.type !== "checkbox" || ws.readyState !== WebSocket.OPEN) return;
    var container = box.closest(".checkbox-container");
    ws.send(JSON.stringify({type: "toggle", payload: {
      variant: container.dataset.variant,
      questionId: container.dataset.question,
      option: box.value,
      checked: box.checked
    }}));
  });

  document.querySelectorAll(".word-cloud").forEach(function (cloud) {
    var tip = cloud.querySelector(".word-cloud-tooltip");
    cloud.querySelectorAll("text").forEach(function (word) {
      word.addEventListener("mouseover", function () {
        word.style.fontSize = word.dataset.hoverFontSize + "px";
        tip.textContent = word.dataset.tooltip;
        tip.style.opacity = 1;
      });
      word.addEventListener("mouseout", function () {
        word.style.fontSize = word.dataset.fontSize + "px";
        tip.style.opacity = 0;
      });
    });
  });
})();
`
