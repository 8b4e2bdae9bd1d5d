package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sinovhub/sinov-test-bot/internal/application/session"
)

// SessionStore implements session.Store on Redis.
//
// Sessions expire after the configured TTL, so an abandoned dialog
// silently resets instead of trapping the user in a stale state.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore. A zero ttl means session.DefaultTTL.
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	if ttl == 0 {
		ttl = session.DefaultTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Get returns the stored session for the user.
func (s *SessionStore) Get(ctx context.Context, telegramID int64) (*session.Session, error) {
	data, err := s.client.rdb.Get(ctx, sessionKey(telegramID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis: get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return &sess, nil
}

// Put saves the session, refreshing its TTL.
func (s *SessionStore) Put(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return s.client.rdb.Set(ctx, sessionKey(sess.TelegramID), data, s.ttl).Err()
}

// Clear removes the session.
func (s *SessionStore) Clear(ctx context.Context, telegramID int64) error {
	return s.client.rdb.Del(ctx, sessionKey(telegramID)).Err()
}

func sessionKey(telegramID int64) string {
	return prefixSession + strconv.FormatInt(telegramID, 10)
}
