package command

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRANT ADMIN COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// GrantAdminCommand promotes a user to administrator.
type GrantAdminCommand struct {
	// TargetTelegramID is the Telegram ID of the user being promoted.
	// The user must have interacted with the bot at least once.
	TargetTelegramID int64
}

// GrantAdminResult contains the promoted user.
type GrantAdminResult struct {
	User *identity.User

	// AlreadyAdmin is true when the user held the role before the call.
	AlreadyAdmin bool
}

// GrantAdminHandler handles GrantAdminCommand.
type GrantAdminHandler struct {
	users identity.Repository
}

// NewGrantAdminHandler creates a GrantAdminHandler.
func NewGrantAdminHandler(users identity.Repository) *GrantAdminHandler {
	return &GrantAdminHandler{users: users}
}

// Handle promotes the target user.
func (h *GrantAdminHandler) Handle(ctx context.Context, cmd GrantAdminCommand) (*GrantAdminResult, error) {
	user, err := h.users.GetByTelegramID(ctx, identity.TelegramID(cmd.TargetTelegramID))
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return &GrantAdminResult{User: user, AlreadyAdmin: true}, nil
	}
	user.IsAdmin = true
	if err := h.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("grant_admin: %w", err)
	}
	return &GrantAdminResult{User: user}, nil
}
