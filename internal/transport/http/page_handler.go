package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"prepost-poll/internal/app"
	"prepost-poll/internal/domain"
)

const (
	sessionCookie = "poll_session"
	themeCookie   = "darkMode"
	themeMaxAge   = 365 * 24 * time.Hour
)

// PageHandler serves the server-rendered page and its form posts.
type PageHandler struct {
	service *app.PageService
	logger  *zap.Logger
}

func NewPageHandler(service *app.PageService, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{service: service, logger: logger}
}

// Index is a page load: the previous page state of this browser is torn down and a
// new one is built from the query.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		h.service.Close(r.Context(), id)
	}
	state, err := h.service.Open(r.Context(), r.URL.Query(), themeFromRequest(r))
	if err != nil {
		h.logger.Error("open page", zap.Error(err))
		http.Error(w, "could not open page", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    state.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.write(w, state)
}

// View re-renders the current page state.
func (h *PageHandler) View(w http.ResponseWriter, r *http.Request) {
	state, ok := h.session(w, r)
	if !ok {
		return
	}
	h.write(w, state)
}

func (h *PageHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	section, err := app.ParseSection(r.PathValue("section"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if _, err := h.service.Navigate(r.Context(), sessionID(r), section); err != nil {
		h.recover(w, r, err)
		return
	}
	http.Redirect(w, r, "/view", http.StatusSeeOther)
}

// Submit posts a poll form. The outcome is shown through the page notification
// after the redirect.
func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	variant, err := domain.ParseVariant(r.PathValue("variant"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := h.service.Submit(r.Context(), sessionID(r), variant, r.PostForm); errors.Is(err, domain.ErrSessionNotFound) {
		h.recover(w, r, err)
		return
	}
	http.Redirect(w, r, "/view", http.StatusSeeOther)
}

// Theme flips dark mode and remembers it in a cookie.
func (h *PageHandler) Theme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.service.ToggleTheme(r.Context(), sessionID(r))
	if err != nil {
		theme = themeFromRequest(r).Toggle()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    theme.CookieValue(),
		Path:     "/",
		MaxAge:   int(themeMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/view", http.StatusSeeOther)
}

func (h *PageHandler) session(w http.ResponseWriter, r *http.Request) (*app.AppState, bool) {
	state, err := h.service.Session(r.Context(), sessionID(r))
	if err != nil {
		h.recover(w, r, err)
		return nil, false
	}
	return state, true
}

// recover sends expired sessions back to a fresh page load.
func (h *PageHandler) recover(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.logger.Error("page request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (h *PageHandler) write(w http.ResponseWriter, state *app.AppState) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := html.Render(w, RenderPage(state.View())); err != nil {
		h.logger.Warn("render page", zap.String("session", state.ID()), zap.Error(err))
	}
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func themeFromRequest(r *http.Request) app.Theme {
	c, err := r.Cookie(themeCookie)
	if err != nil {
		return app.ThemeLight
	}
	return app.ThemeFromCookie(c.Value)
}
