package app

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"prepost-poll/internal/domain"
	"prepost-poll/internal/form"
	"prepost-poll/internal/pollclient"
)

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeFromCookie maps the darkMode cookie value to a theme.
func ThemeFromCookie(value string) Theme {
	if value == "enabled" {
		return ThemeDark
	}
	return ThemeLight
}

// CookieValue is the darkMode cookie value for t.
func (t Theme) CookieValue() string {
	if t == ThemeDark {
		return "enabled"
	}
	return "disabled"
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// AppState is everything one page load owns. It is created on page load and torn
// down with Close when the page goes away.
type AppState struct {
	id        string
	createdAt time.Time

	mu            sync.RWMutex
	section       Section
	presenter     bool
	navVisible    bool
	variant       domain.PollVariant
	theme         Theme
	schema        *domain.Schema
	analyticsHTML string
	hasAnalytics  bool
	checkboxes    map[string]*form.CheckboxGroup
	closed        bool

	analyticsGuard pollclient.Guard
	notifier       *Notifier
}

// NewAppState resolves the initial section from the page query.
func NewAppState(id string, query url.Values, accessCode string, theme Theme, notifier *Notifier) *AppState {
	return newAppStateWithClock(id, query, accessCode, theme, notifier, time.Now)
}

func newAppStateWithClock(id string, query url.Values, accessCode string, theme Theme, notifier *Notifier, now func() time.Time) *AppState {
	if notifier == nil {
		notifier = NewNotifier()
	}
	variant := domain.VariantPre
	if query.Get("poll") == string(domain.VariantPost) {
		variant = domain.VariantPost
	}
	return &AppState{
		id:         id,
		createdAt:  now(),
		section:    ResolveInitialSection(query, accessCode),
		presenter:  IsPresenter(query, accessCode),
		navVisible: query.Get("access") != "",
		variant:    variant,
		theme:      theme,
		checkboxes: make(map[string]*form.CheckboxGroup),
		notifier:   notifier,
	}
}

func (s *AppState) ID() string { return s.id }

func (s *AppState) CreatedAt() time.Time { return s.createdAt }

func (s *AppState) Notifier() *Notifier { return s.notifier }

// Navigate jumps to section. Every section is reachable from every other; the
// analytics view of a previous visit is discarded.
func (s *AppState) Navigate(section Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.section = section
	s.hasAnalytics = false
	s.analyticsHTML = ""
}

func (s *AppState) Section() Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.section
}

func (s *AppState) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *AppState) ToggleTheme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = s.theme.Toggle()
	return s.theme
}

// Schema returns the pinned question schema, if fetched.
func (s *AppState) Schema() (domain.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schema == nil {
		return domain.Schema{}, false
	}
	return *s.schema, true
}

// PinSchema keeps the first schema this page received.
func (s *AppState) PinSchema(schema domain.Schema) domain.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema == nil {
		s.schema = &schema
	}
	return *s.schema
}

func (s *AppState) setAnalyticsView(markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyticsHTML = markup
	s.hasAnalytics = true
}

// Indicator is the badge text naming the page mode.
func (s *AppState) Indicator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.presenter {
		return "PRESENTER VIEW"
	}
	if s.variant == domain.VariantPost {
		return "POST-Activity Poll"
	}
	return "PRE-Activity Poll"
}

// ToggleCheckbox applies one option change to the live selection of a checkbox
// question and returns the options left checked.
func (s *AppState) ToggleCheckbox(variant domain.PollVariant, q domain.CheckboxQuestion, option string, checked bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := variant.Prefix() + q.ID
	group, ok := s.checkboxes[key]
	if !ok {
		group = form.NewCheckboxGroup(q)
		s.checkboxes[key] = group
	}
	err := group.Toggle(option, checked)
	return group.Checked(), err
}

// ResetForm clears the live checkbox state of one variant's form.
func (s *AppState) ResetForm(variant domain.PollVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, group := range s.checkboxes {
		if strings.HasPrefix(key, variant.Prefix()) {
			group.Reset()
		}
	}
}

// View is a consistent snapshot for rendering.
type View struct {
	ID            string
	Section       Section
	Presenter     bool
	NavVisible    bool
	Indicator     string
	Theme         Theme
	Schema        *domain.Schema
	Checked       map[string][]string
	AnalyticsHTML string
	HasAnalytics  bool
	Notification  Notification
}

func (s *AppState) View() View {
	indicator := s.Indicator()
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		ID:            s.id,
		Section:       s.section,
		Presenter:     s.presenter,
		NavVisible:    s.navVisible,
		Indicator:     indicator,
		Theme:         s.theme,
		Schema:        s.schema,
		Checked:       make(map[string][]string, len(s.checkboxes)),
		AnalyticsHTML: s.analyticsHTML,
		HasAnalytics:  s.hasAnalytics,
		Notification:  s.notifier.Current(),
	}
	for key, group := range s.checkboxes {
		v.Checked[key] = group.Checked()
	}
	return v
}

// Close cancels in-flight fetches and stops the notifier.
func (s *AppState) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.analyticsGuard.Cancel()
	s.notifier.Close()
}

func (s *AppState) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
