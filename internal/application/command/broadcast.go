package command

import (
	"context"
	"errors"
	"time"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
)

// ══════════════════════════════════════════════════════════════════════════════
// BROADCAST COMMAND
// Sends an admin-composed message to every registered user. Delivery is
// sequential with a small pause to respect Telegram rate limits; blocked
// users are counted, not retried.
// ══════════════════════════════════════════════════════════════════════════════

// broadcastPause is the delay between consecutive sends.
const broadcastPause = 50 * time.Millisecond

// BroadcastCommand contains the message to deliver.
type BroadcastCommand struct {
	// HTML is the message body in Telegram HTML markup.
	HTML string
}

// BroadcastResult contains delivery counters.
type BroadcastResult struct {
	Total     int
	Delivered int
	Failed    int
}

// BroadcastHandler handles BroadcastCommand.
type BroadcastHandler struct {
	users  identity.Repository
	sender Broadcaster
}

// NewBroadcastHandler creates a BroadcastHandler.
func NewBroadcastHandler(users identity.Repository, sender Broadcaster) *BroadcastHandler {
	return &BroadcastHandler{users: users, sender: sender}
}

// Handle delivers the message to all users. Stops early only when the
// context is cancelled; individual failures are counted and skipped.
func (h *BroadcastHandler) Handle(ctx context.Context, cmd BroadcastCommand) (*BroadcastResult, error) {
	if cmd.HTML == "" {
		return nil, errors.New("broadcast: empty message")
	}

	all, err := h.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &BroadcastResult{Total: len(all)}
	for _, u := range all {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := h.sender.SendHTML(ctx, int64(u.TelegramID), cmd.HTML); err != nil {
			result.Failed++
		} else {
			result.Delivered++
		}
		time.Sleep(broadcastPause)
	}
	return result, nil
}
