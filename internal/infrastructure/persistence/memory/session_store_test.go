package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/application/session"
)

func TestSessionStore_PutGetClear(t *testing.T) {
	store := NewSessionStore(time.Hour)

	sess := session.New(100)
	sess.BindCode("AB12CD")
	require.NoError(t, store.Put(context.Background(), sess))

	got, err := store.Get(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingAnswers, got.State)
	assert.Equal(t, "AB12CD", got.Code)

	// The stored copy is detached from the caller's session.
	sess.Transition(session.StateIdle)
	got, err = store.Get(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingAnswers, got.State)

	require.NoError(t, store.Clear(context.Background(), 100))
	_, err = store.Get(context.Background(), 100)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStore_Expires(t *testing.T) {
	store := NewSessionStore(time.Nanosecond)

	require.NoError(t, store.Put(context.Background(), session.New(100)))
	time.Sleep(time.Millisecond)

	_, err := store.Get(context.Background(), 100)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
