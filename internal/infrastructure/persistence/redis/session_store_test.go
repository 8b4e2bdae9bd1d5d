package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/application/session"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb), mr
}

func TestSessionStore_PutGet(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewSessionStore(client, time.Hour)

	sess := session.New(100)
	sess.BindCode("AB12CD")
	require.NoError(t, store.Put(context.Background(), sess))

	got, err := store.Get(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.TelegramID)
	assert.Equal(t, session.StateAwaitingAnswers, got.State)
	assert.Equal(t, "AB12CD", got.Code)
}

func TestSessionStore_GetMissing(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewSessionStore(client, time.Hour)

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStore_Clear(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewSessionStore(client, time.Hour)

	sess := session.New(100)
	sess.Transition(session.StateAwaitingKey)
	require.NoError(t, store.Put(context.Background(), sess))

	require.NoError(t, store.Clear(context.Background(), 100))

	_, err := store.Get(context.Background(), 100)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	// Clearing an absent session is not an error.
	assert.NoError(t, store.Clear(context.Background(), 100))
}

func TestSessionStore_Expiry(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewSessionStore(client, time.Minute)

	require.NoError(t, store.Put(context.Background(), session.New(100)))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(context.Background(), 100)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStore_ZeroTTLUsesDefault(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewSessionStore(client, 0)

	require.NoError(t, store.Put(context.Background(), session.New(100)))

	ttl := mr.TTL(sessionKey(100))
	assert.Equal(t, session.DefaultTTL, ttl)
}
