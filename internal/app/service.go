package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prepost-poll/internal/domain"
	"prepost-poll/internal/form"
	"prepost-poll/internal/pollclient"
	"prepost-poll/internal/render"
)

// SessionRepository abstracts where page sessions live (in-memory, Redis, etc).
type SessionRepository interface {
	Put(ctx context.Context, state *AppState) error
	Get(ctx context.Context, id string) (*AppState, error)
	Delete(ctx context.Context, id string)
}

// SchemaRepository loads the question schema (from cache/backend).
type SchemaRepository interface {
	GetSchema(ctx context.Context) (domain.Schema, error)
}

// PollBackend submits answers and reads aggregate results.
type PollBackend interface {
	Submit(ctx context.Context, variant domain.PollVariant, answers domain.AnswerSet) error
	FetchAnalytics(ctx context.Context) (domain.AnalyticsPayload, error)
}

// PageService contains the page use cases: load, navigate, submit, analytics.
type PageService struct {
	sessions   SessionRepository
	schemas    SchemaRepository
	backend    PollBackend
	accessCode string
	logger     *zap.Logger
	newID      func() string
	notifiers  func() *Notifier
}

func NewPageService(sessions SessionRepository, schemas SchemaRepository, backend PollBackend, accessCode string, logger *zap.Logger) *PageService {
	return newPageServiceWithNotifiers(sessions, schemas, backend, accessCode, logger, NewNotifier)
}

func newPageServiceWithNotifiers(sessions SessionRepository, schemas SchemaRepository, backend PollBackend, accessCode string, logger *zap.Logger, notifiers func() *Notifier) *PageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageService{
		sessions:   sessions,
		schemas:    schemas,
		backend:    backend,
		accessCode: accessCode,
		logger:     logger,
		newID:      uuid.NewString,
		notifiers:  notifiers,
	}
}

// Open creates the state for a fresh page load, fetches the schema and, for the
// presenter, the analytics.
func (s *PageService) Open(ctx context.Context, query url.Values, theme Theme) (*AppState, error) {
	state := NewAppState(s.newID(), query, s.accessCode, theme, s.notifiers())
	if err := s.sessions.Put(ctx, state); err != nil {
		state.Close()
		return nil, err
	}
	s.logger.Info("page opened",
		zap.String("session", state.ID()),
		zap.String("section", string(state.Section())))

	if _, err := s.schema(ctx, state); err != nil {
		state.Notifier().Show("Error loading questions: "+err.Error(), SeverityError)
	}
	if state.Section() == SectionAnalytics {
		_ = s.loadAnalytics(ctx, state)
	}
	return state, nil
}

// Session returns a live page state.
func (s *PageService) Session(ctx context.Context, id string) (*AppState, error) {
	return s.sessions.Get(ctx, id)
}

// Navigate jumps to section; entering analytics always refetches.
func (s *PageService) Navigate(ctx context.Context, id string, section Section) (*AppState, error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state.Navigate(section)
	s.logger.Info("navigate", zap.String("session", id), zap.String("section", string(section)))
	if section == SectionAnalytics {
		_ = s.loadAnalytics(ctx, state)
	}
	return state, nil
}

// Submit collects a posted form and sends it to the backend. The outcome is reported
// through the page's notifier and also returned.
func (s *PageService) Submit(ctx context.Context, id string, variant domain.PollVariant, values url.Values) error {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	schema, err := s.schema(ctx, state)
	if err != nil {
		state.Notifier().Show("Error loading questions: "+err.Error(), SeverityError)
		return err
	}

	answers, err := form.CollectSubmission(schema, values)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			state.Notifier().Show(verr.Message, SeverityWarning)
		}
		return err
	}

	if err := s.backend.Submit(ctx, variant, answers); err != nil {
		var serverErr *domain.ServerError
		if errors.As(err, &serverErr) {
			state.Notifier().Show("Error: "+serverErr.Error(), SeverityError)
		} else {
			state.Notifier().Show("Error submitting poll: "+err.Error(), SeverityError)
		}
		s.logger.Warn("submission rejected",
			zap.String("session", id),
			zap.String("variant", string(variant)),
			zap.Error(err))
		return err
	}

	state.ResetForm(variant)
	state.Notifier().Show(variant.Title()+" poll submitted successfully!", SeveritySuccess)
	s.logger.Info("poll submitted",
		zap.String("session", id),
		zap.String("variant", string(variant)),
		zap.Int("answers", len(answers)))
	return nil
}

// LoadAnalytics fetches and renders the presenter view. A fetch replaced by a newer
// one returns pollclient.ErrSuperseded and leaves the state untouched.
func (s *PageService) LoadAnalytics(ctx context.Context, id string) error {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.loadAnalytics(ctx, state)
}

func (s *PageService) loadAnalytics(ctx context.Context, state *AppState) error {
	payload, err := pollclient.Run(ctx, &state.analyticsGuard, s.backend.FetchAnalytics)
	if errors.Is(err, pollclient.ErrSuperseded) {
		s.logger.Debug("analytics fetch superseded", zap.String("session", state.ID()))
		return err
	}
	if err != nil {
		state.Notifier().Show("Error loading analytics: "+err.Error(), SeverityError)
		return err
	}

	container := render.El("div", "id", "analytics-container")
	renderErr := render.RenderAnalytics(container, payload)
	markup, err := render.String(container)
	if err != nil {
		return err
	}
	state.setAnalyticsView(markup)
	if renderErr != nil {
		state.Notifier().Show("Error loading analytics: "+renderErr.Error(), SeverityError)
		s.logger.Warn("analytics rendered with errors", zap.String("session", state.ID()), zap.Error(renderErr))
	}
	return renderErr
}

// ToggleCheckbox applies a live checkbox change. Over-selection is reported through
// the notifier and leaves the option unchecked.
func (s *PageService) ToggleCheckbox(ctx context.Context, id string, variant domain.PollVariant, questionID, option string, checked bool) ([]string, error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schema, err := s.schema(ctx, state)
	if err != nil {
		return nil, err
	}
	q, ok := schema.Find(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrQuestionNotFound, questionID)
	}
	cb, ok := q.(domain.CheckboxQuestion)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a checkbox question", domain.ErrQuestionNotFound, questionID)
	}
	selected, err := state.ToggleCheckbox(variant, cb, option, checked)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		state.Notifier().Show(verr.Message, SeverityWarning)
	}
	return selected, err
}

// ToggleTheme flips the page theme and records it with the session.
func (s *PageService) ToggleTheme(ctx context.Context, id string) (Theme, error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return "", err
	}
	theme := state.ToggleTheme()
	if err := s.sessions.Put(ctx, state); err != nil {
		s.logger.Warn("theme not persisted", zap.String("session", id), zap.Error(err))
	}
	return theme, nil
}

// Close tears a page session down.
func (s *PageService) Close(ctx context.Context, id string) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return
	}
	state.Close()
	s.sessions.Delete(ctx, id)
	s.logger.Info("page closed", zap.String("session", id))
}

// Subscribe returns the notification stream of a page.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *PageService) Subscribe(ctx context.Context, id string) (<-chan Notification, func(), error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := state.Notifier().Subscribe()
	return ch, cancel, nil
}

func (s *PageService) schema(ctx context.Context, state *AppState) (domain.Schema, error) {
	if schema, ok := state.Schema(); ok {
		return schema, nil
	}
	schema, err := s.schemas.GetSchema(ctx)
	if err != nil {
		s.logger.Warn("schema load failed", zap.String("session", state.ID()), zap.Error(err))
		return domain.Schema{}, err
	}
	return state.PinSchema(schema), nil
}
