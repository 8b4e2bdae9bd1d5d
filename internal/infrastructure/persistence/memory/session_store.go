package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sinovhub/sinov-test-bot/internal/application/session"
)

// SessionStore реализует session.Store в памяти с ленивым истечением TTL.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]sessionEntry
}

type sessionEntry struct {
	sess      session.Session
	expiresAt time.Time
}

// NewSessionStore создаёт хранилище. Нулевой ttl - session.DefaultTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl == 0 {
		ttl = session.DefaultTTL
	}
	return &SessionStore{ttl: ttl, sessions: make(map[int64]sessionEntry)}
}

func (s *SessionStore) Get(_ context.Context, telegramID int64) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[telegramID]
	if !ok || timeNow().After(entry.expiresAt) {
		delete(s.sessions, telegramID)
		return nil, session.ErrSessionNotFound
	}
	cp := entry.sess
	return &cp, nil
}

func (s *SessionStore) Put(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.TelegramID] = sessionEntry{
		sess:      *sess,
		expiresAt: timeNow().Add(s.ttl),
	}
	return nil
}

func (s *SessionStore) Clear(_ context.Context, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, telegramID)
	return nil
}
