package handler

import (
	"context"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE HANDLER
// Two-step flow: prompt for the answer key, then create the test and
// hand back the shareable code.
// ══════════════════════════════════════════════════════════════════════════════

// CreateHandler handles the test creation flow.
type CreateHandler struct {
	create    *command.CreateTestHandler
	sessions  session.Store
	texts     *presenter.TextPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewCreateHandler creates a CreateHandler.
func NewCreateHandler(
	create *command.CreateTestHandler,
	sessions session.Store,
	texts *presenter.TextPresenter,
	keyboards *presenter.KeyboardBuilder,
) *CreateHandler {
	return &CreateHandler{
		create:    create,
		sessions:  sessions,
		texts:     texts,
		keyboards: keyboards,
	}
}

// Begin starts the flow: the next message is expected to be the key.
func (h *CreateHandler) Begin(ctx context.Context, user *identity.User) (*Response, error) {
	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingKey)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML(h.texts.AskAnswerKey()).
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleKey receives the answer key and creates the test.
// On a validation error the session stays in place so the user can
// simply retype the key.
func (h *CreateHandler) HandleKey(ctx context.Context, user *identity.User, text string) (*Response, error) {
	res, err := h.create.Handle(ctx, command.CreateTestCommand{
		CreatorTelegramID: int64(user.TelegramID),
		RawAnswerKey:      text,
	})
	if err != nil {
		if shared.IsValidation(err) {
			return HTML(h.texts.ErrorText(err)).
				WithKeyboard(h.keyboards.CancelKeyboard()), nil
		}
		return nil, err
	}

	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, err
	}

	return HTML(h.texts.TestCreated(res.Test)).
		WithKeyboard(h.keyboards.TestCreatedKeyboard(string(res.Code))), nil
}
