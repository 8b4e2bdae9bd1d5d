package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL MANAGEMENT COMMANDS
// Admins register channels users must join before using the bot.
// Removal is a soft delete; re-adding a removed channel reactivates it.
// ══════════════════════════════════════════════════════════════════════════════

// AddChannelCommand registers a mandatory channel.
type AddChannelCommand struct {
	// Identifier is @username or the numeric chat ID, as typed by the admin.
	Identifier string
}

// AddChannelResult contains the registered channel.
type AddChannelResult struct {
	Channel *channel.Channel

	// Reactivated is true when a previously removed channel was restored
	// instead of a new one being created.
	Reactivated bool
}

// AddChannelHandler handles AddChannelCommand.
type AddChannelHandler struct {
	channels channel.Repository
	resolver ChatResolver
}

// NewAddChannelHandler creates an AddChannelHandler.
func NewAddChannelHandler(channels channel.Repository, resolver ChatResolver) *AddChannelHandler {
	return &AddChannelHandler{channels: channels, resolver: resolver}
}

// Handle resolves the channel through Telegram and stores it.
func (h *AddChannelHandler) Handle(ctx context.Context, cmd AddChannelCommand) (*AddChannelResult, error) {
	info, err := h.resolver.ResolveChat(ctx, cmd.Identifier)
	if err != nil {
		return nil, fmt.Errorf("add_channel: resolve %q: %w", cmd.Identifier, err)
	}

	existing, err := h.channels.GetByChatID(ctx, info.ChatID)
	if err == nil {
		if existing.IsActive {
			return nil, shared.ErrChannelAlreadyExists
		}
		existing.IsActive = true
		existing.Username = info.Username
		existing.Title = info.Title
		if err := h.channels.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("add_channel: reactivate: %w", err)
		}
		return &AddChannelResult{Channel: existing, Reactivated: true}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("add_channel: lookup: %w", err)
	}

	ch := channel.NewChannel(uuid.NewString(), info.ChatID, info.Username, info.Title, time.Now().UTC())
	if err := h.channels.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("add_channel: persist: %w", err)
	}
	return &AddChannelResult{Channel: ch}, nil
}

// ══════════════════════════════════════════════════════════════════════════════

// RemoveChannelCommand deactivates a mandatory channel.
type RemoveChannelCommand struct {
	ChatID channel.ChatID
}

// RemoveChannelHandler handles RemoveChannelCommand.
type RemoveChannelHandler struct {
	channels channel.Repository
}

// NewRemoveChannelHandler creates a RemoveChannelHandler.
func NewRemoveChannelHandler(channels channel.Repository) *RemoveChannelHandler {
	return &RemoveChannelHandler{channels: channels}
}

// Handle deactivates the channel.
func (h *RemoveChannelHandler) Handle(ctx context.Context, cmd RemoveChannelCommand) error {
	return h.channels.Deactivate(ctx, cmd.ChatID)
}
