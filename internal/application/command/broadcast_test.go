package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeBroadcaster) SendHTML(_ context.Context, chatID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, chatID)
	return nil
}

func TestBroadcast(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "A")
	f.seedUser(t, 200, "B")
	f.seedUser(t, 300, "C")

	sender := &fakeBroadcaster{}
	handler := NewBroadcastHandler(f.users, sender)

	res, err := handler.Handle(context.Background(), BroadcastCommand{HTML: "<b>E'lon</b>"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Delivered)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, sender.sent, 3)
}

func TestBroadcast_CountsFailures(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "A")
	f.seedUser(t, 200, "B")

	sender := &fakeBroadcaster{failFor: map[int64]bool{200: true}}
	handler := NewBroadcastHandler(f.users, sender)

	res, err := handler.Handle(context.Background(), BroadcastCommand{HTML: "salom"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Delivered)
	assert.Equal(t, 1, res.Failed)
}

func TestBroadcast_EmptyMessage(t *testing.T) {
	f := newFixtures()
	handler := NewBroadcastHandler(f.users, &fakeBroadcaster{})

	_, err := handler.Handle(context.Background(), BroadcastCommand{HTML: ""})
	assert.Error(t, err)
}
