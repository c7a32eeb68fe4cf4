package memory

import (
	"context"
	"sync"
	"time"

	"prepost-poll/internal/app"
	"prepost-poll/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository. Sessions
// idle for longer than ttl are closed on their next lookup, and every Put sweeps
// the ones nobody looks up again.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	state    *app.AppState
	lastSeen time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*entry),
	}
}

func (s *SessionStore) Put(_ context.Context, state *app.AppState) error {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	s.sessions[state.ID()] = &entry{state: state, lastSeen: now}
	return nil
}

func (s *SessionStore) idle(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// sweepLocked drops and closes every idle session. s.mu must be held.
func (s *SessionStore) sweepLocked(now time.Time) {
	for id, e := range s.sessions {
		if s.idle(e, now) {
			delete(s.sessions, id)
			e.state.Close()
		}
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (*app.AppState, error) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.idle(e, now) {
		delete(s.sessions, id)
		e.state.Close()
		return nil, domain.ErrSessionNotFound
	}
	e.lastSeen = now
	return e.state, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
