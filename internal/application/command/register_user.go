package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Upserts the user on every incoming update so profile data stays fresh.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the Telegram profile of the sender.
type RegisterUserCommand struct {
	TelegramID int64
	Username   string
	FullName   string
}

// RegisterUserHandler handles RegisterUserCommand.
type RegisterUserHandler struct {
	users identity.Repository
}

// NewRegisterUserHandler creates a RegisterUserHandler.
func NewRegisterUserHandler(users identity.Repository) *RegisterUserHandler {
	return &RegisterUserHandler{users: users}
}

// Handle returns the existing user, refreshing the profile fields when
// they changed, or creates a new one.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*identity.User, error) {
	user, err := h.users.GetByTelegramID(ctx, identity.TelegramID(cmd.TelegramID))
	if err == nil {
		if user.Username != cmd.Username || user.FullName != cmd.FullName {
			user.Username = cmd.Username
			user.FullName = cmd.FullName
			if err := h.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("register_user: refresh profile: %w", err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("register_user: lookup: %w", err)
	}

	user = identity.NewUser(uuid.NewString(), identity.TelegramID(cmd.TelegramID), cmd.Username, cmd.FullName, time.Now().UTC())
	if err := h.users.Create(ctx, user); err != nil {
		// Lost a race with another update from the same user.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return h.users.GetByTelegramID(ctx, identity.TelegramID(cmd.TelegramID))
		}
		return nil, fmt.Errorf("register_user: create: %w", err)
	}
	return user, nil
}
