package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"prepost-poll/internal/app"
	"prepost-poll/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Page states stay in a local map; their notifier timers and in-flight fetches
//     cannot leave the process.
//   - Redis holds a liveness key per session carrying the theme preference. The key
//     expires after ttl of inactivity and each lookup refreshes it.
//   - Every Put sweeps local entries idle past ttl, so states whose key expired
//     without another lookup are still closed.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	state    *app.AppState
	lastSeen time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*entry),
	}
}

func (s *SessionStore) Put(ctx context.Context, state *app.AppState) error {
	if err := s.client.Set(ctx, s.key(state.ID()), string(state.Theme()), s.ttl).Err(); err != nil {
		return err
	}
	now := s.clock()
	s.mu.Lock()
	swept := s.sweepLocked(now)
	s.sessions[state.ID()] = &entry{state: state, lastSeen: now}
	s.mu.Unlock()

	if len(swept) > 0 {
		// usually gone already; Del covers keys refreshed by another process
		_ = s.client.Del(ctx, swept...).Err()
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*app.AppState, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	alive, err := s.touch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] != e {
		return nil, domain.ErrSessionNotFound
	}
	if !alive {
		delete(s.sessions, id)
		e.state.Close()
		return nil, domain.ErrSessionNotFound
	}
	e.lastSeen = s.clock()
	return e.state, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	// best-effort cleanup; the key expires anyway
	_ = s.client.Del(ctx, s.key(id)).Err()
}

// Len reports how many sessions are held locally.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Theme reads the mirrored theme preference of a session.
func (s *SessionStore) Theme(ctx context.Context, id string) (app.Theme, error) {
	v, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return "", domain.ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return app.Theme(v), nil
}

// sweepLocked drops and closes local entries idle past ttl and returns their keys.
// s.mu must be held.
func (s *SessionStore) sweepLocked(now time.Time) []string {
	if s.ttl <= 0 {
		return nil
	}
	var keys []string
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			e.state.Close()
			keys = append(keys, s.key(id))
		}
	}
	return keys
}

// touch refreshes the liveness key and reports whether it still existed.
func (s *SessionStore) touch(ctx context.Context, id string) (bool, error) {
	if s.ttl <= 0 {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		return n == 1, err
	}
	return s.client.Expire(ctx, s.key(id), s.ttl).Result()
}

func (s *SessionStore) key(id string) string {
	return "poll:session:" + id
}
