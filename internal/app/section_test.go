package app

import (
	"errors"
	"net/url"
	"testing"

	"prepost-poll/internal/domain"
)

func TestResolveInitialSection(t *testing.T) {
	cases := []struct {
		query string
		want  Section
	}{
		{"access=presenter2023&poll=post", SectionAnalytics},
		{"access=presenter2023", SectionAnalytics},
		{"poll=post", SectionPostPoll},
		{"poll=pre", SectionPrePoll},
		{"", SectionPrePoll},
		{"access=wrong&poll=post", SectionPostPoll},
	}
	for _, c := range cases {
		query, err := url.ParseQuery(c.query)
		if err != nil {
			t.Fatalf("parse %q: %v", c.query, err)
		}
		if got := ResolveInitialSection(query, "presenter2023"); got != c.want {
			t.Fatalf("%q: expected %s, got %s", c.query, c.want, got)
		}
	}
}

func TestParseSection(t *testing.T) {
	if s, err := ParseSection("post-poll"); err != nil || s != SectionPostPoll {
		t.Fatalf("unexpected %v %v", s, err)
	}
	if _, err := ParseSection("results"); !errors.Is(err, domain.ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if v, ok := SectionAnalytics.Variant(); ok {
		t.Fatalf("analytics has no variant, got %s", v)
	}
}

func TestAppStateIndicatorAndNav(t *testing.T) {
	presenter := NewAppState("a", url.Values{"access": {"presenter2023"}}, "presenter2023", ThemeLight, nil)
	defer presenter.Close()
	if presenter.Indicator() != "PRESENTER VIEW" || !presenter.View().NavVisible {
		t.Fatalf("unexpected presenter view %+v", presenter.View())
	}

	post := NewAppState("b", url.Values{"poll": {"post"}}, "presenter2023", ThemeLight, nil)
	defer post.Close()
	if post.Indicator() != "POST-Activity Poll" || post.View().NavVisible {
		t.Fatalf("unexpected participant view %+v", post.View())
	}

	wrong := NewAppState("c", url.Values{"access": {"guess"}}, "presenter2023", ThemeLight, nil)
	defer wrong.Close()
	if wrong.Section() != SectionPrePoll || !wrong.View().NavVisible || wrong.Indicator() != "PRE-Activity Poll" {
		t.Fatalf("any access value shows the nav but does not unlock analytics")
	}
}

func TestNavigateIsUnconditional(t *testing.T) {
	state := NewAppState("a", url.Values{}, "presenter2023", ThemeLight, nil)
	defer state.Close()
	for _, target := range []Section{SectionAnalytics, SectionPostPoll, SectionPrePoll, SectionAnalytics} {
		state.Navigate(target)
		if state.Section() != target {
			t.Fatalf("expected %s, got %s", target, state.Section())
		}
	}
}

func TestThemeCookieValues(t *testing.T) {
	if ThemeFromCookie("enabled") != ThemeDark || ThemeFromCookie("") != ThemeLight {
		t.Fatalf("unexpected cookie mapping")
	}
	if ThemeDark.CookieValue() != "enabled" || ThemeLight.CookieValue() != "disabled" {
		t.Fatalf("unexpected cookie values")
	}
	if ThemeLight.Toggle() != ThemeDark {
		t.Fatalf("expected toggle to dark")
	}
}
