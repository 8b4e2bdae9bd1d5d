package command

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// END TEST COMMAND
// The creator (or an administrator) finishes a test. After this no new
// submissions are accepted and full statistics become visible.
// ══════════════════════════════════════════════════════════════════════════════

// EndTestCommand contains the data to finish a test.
type EndTestCommand struct {
	// Code is the test code, as typed.
	Code string

	// ActorTelegramID is the Telegram ID of the user finishing the test.
	ActorTelegramID int64
}

// EndTestResult contains the finished test.
type EndTestResult struct {
	Test *quiz.Test
}

// EndTestHandler handles EndTestCommand.
type EndTestHandler struct {
	tests    quiz.TestRepository
	users    identity.Repository
	notifier Notifier
}

// NewEndTestHandler creates an EndTestHandler.
func NewEndTestHandler(tests quiz.TestRepository, users identity.Repository, notifier Notifier) *EndTestHandler {
	return &EndTestHandler{tests: tests, users: users, notifier: notifier}
}

// Handle finishes the test after an authorization check.
//
// The transition itself is a conditional update in the repository, so
// two concurrent requests cannot both succeed.
func (h *EndTestHandler) Handle(ctx context.Context, cmd EndTestCommand) (*EndTestResult, error) {
	code := quiz.NormalizeCode(cmd.Code)

	test, err := h.tests.GetByCode(ctx, quiz.Code(code))
	if err != nil {
		return nil, err
	}

	actor, err := h.users.GetByTelegramID(ctx, identity.TelegramID(cmd.ActorTelegramID))
	if err != nil {
		return nil, fmt.Errorf("end_test: actor lookup: %w", err)
	}
	if !test.CanBeManagedBy(actor.ID, actor.IsAdmin) {
		return nil, shared.ErrNotPrivileged
	}

	ended, err := h.tests.End(ctx, quiz.Code(code))
	if err != nil {
		return nil, err
	}

	if h.notifier != nil {
		go h.notifier.TestEnded(context.WithoutCancel(ctx), ended, actor)
	}

	return &EndTestResult{Test: ended}, nil
}
