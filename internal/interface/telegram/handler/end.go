package handler

import (
	"context"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// END HANDLER
// Finishes a test on behalf of its creator or an administrator.
// ══════════════════════════════════════════════════════════════════════════════

// EndHandler handles the test finishing flow.
type EndHandler struct {
	end       *command.EndTestHandler
	sessions  session.Store
	texts     *presenter.TextPresenter
	stats     *presenter.StatsPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewEndHandler creates an EndHandler.
func NewEndHandler(
	end *command.EndTestHandler,
	sessions session.Store,
	texts *presenter.TextPresenter,
	stats *presenter.StatsPresenter,
	keyboards *presenter.KeyboardBuilder,
) *EndHandler {
	return &EndHandler{
		end:       end,
		sessions:  sessions,
		texts:     texts,
		stats:     stats,
		keyboards: keyboards,
	}
}

// Begin starts the flow. With a code argument the prompt is skipped.
func (h *EndHandler) Begin(ctx context.Context, user *identity.User, args string) (*Response, error) {
	if code := strings.TrimSpace(args); code != "" {
		return h.HandleCode(ctx, user, code)
	}

	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingEndCode)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML(h.texts.AskEndCode()).
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleCode finishes the test with the typed code.
func (h *EndHandler) HandleCode(ctx context.Context, user *identity.User, text string) (*Response, error) {
	res, err := h.end.Handle(ctx, command.EndTestCommand{
		Code:            text,
		ActorTelegramID: int64(user.TelegramID),
	})
	if err != nil {
		if shared.IsNotFound(err) {
			return HTML(h.texts.ErrorText(err)).
				WithKeyboard(h.keyboards.CancelKeyboard()), nil
		}
		if shared.IsUserFacing(err) {
			if clearErr := h.sessions.Clear(ctx, int64(user.TelegramID)); clearErr != nil {
				return nil, clearErr
			}
			return HTML(h.texts.ErrorText(err)).
				WithMenu(h.keyboards.MainMenu(user.IsAdmin)), nil
		}
		return nil, err
	}

	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, err
	}

	return HTML(h.stats.TestEnded(res)).
		WithKeyboard(h.keyboards.StatsKeyboard(string(res.Test.Code), false)), nil
}
