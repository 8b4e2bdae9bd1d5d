package handler

import (
	"context"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start: greets the user and shows the main menu. A deep link
// parameter with a test code (t.me/bot?start=CODE) jumps straight into
// the solve flow.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start command.
type StartHandler struct {
	sessions  session.Store
	solve     *SolveHandler
	texts     *presenter.TextPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewStartHandler creates a StartHandler.
func NewStartHandler(
	sessions session.Store,
	solve *SolveHandler,
	texts *presenter.TextPresenter,
	keyboards *presenter.KeyboardBuilder,
) *StartHandler {
	return &StartHandler{
		sessions:  sessions,
		solve:     solve,
		texts:     texts,
		keyboards: keyboards,
	}
}

// Handle processes /start. The user is already registered by the access
// middleware; args may carry a deep-linked test code.
func (h *StartHandler) Handle(ctx context.Context, user *identity.User, args string) (*Response, error) {
	// /start always aborts any unfinished flow.
	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(args); code != "" && quiz.NormalizeCode(code).IsValid() {
		return h.solve.Begin(ctx, user, code)
	}

	return HTML(h.texts.Welcome(user.DisplayName())).
		WithMenu(h.keyboards.MainMenu(user.IsAdmin)), nil
}

// Help returns the /help message.
func (h *StartHandler) Help(user *identity.User) *Response {
	return HTML(h.texts.Help()).WithMenu(h.keyboards.MainMenu(user.IsAdmin))
}

// Cancel aborts the active flow, if any.
func (h *StartHandler) Cancel(ctx context.Context, user *identity.User) (*Response, error) {
	sess, err := session.GetOrNew(ctx, h.sessions, int64(user.TelegramID))
	if err != nil {
		return nil, err
	}

	if sess.IsIdle() {
		return HTML(h.texts.NothingToCancel()), nil
	}

	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, err
	}
	return HTML(h.texts.Cancelled()).WithMenu(h.keyboards.MainMenu(user.IsAdmin)), nil
}
