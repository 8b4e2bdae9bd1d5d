package handler

import (
	"context"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// SOLVE HANDLER
// Flow: code → answers → graded result. The code is validated against
// the repository before the answer prompt, so the user learns about a
// missing or finished test immediately, not after typing answers.
// ══════════════════════════════════════════════════════════════════════════════

// SolveHandler handles the test solving flow.
type SolveHandler struct {
	submit    *command.SubmitAnswersHandler
	tests     quiz.TestRepository
	sessions  session.Store
	texts     *presenter.TextPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewSolveHandler creates a SolveHandler.
func NewSolveHandler(
	submit *command.SubmitAnswersHandler,
	tests quiz.TestRepository,
	sessions session.Store,
	texts *presenter.TextPresenter,
	keyboards *presenter.KeyboardBuilder,
) *SolveHandler {
	return &SolveHandler{
		submit:    submit,
		tests:     tests,
		sessions:  sessions,
		texts:     texts,
		keyboards: keyboards,
	}
}

// Begin starts the flow. With a code argument the code step is skipped.
func (h *SolveHandler) Begin(ctx context.Context, user *identity.User, args string) (*Response, error) {
	if code := strings.TrimSpace(args); code != "" {
		return h.HandleCode(ctx, user, code)
	}

	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingCode)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML(h.texts.AskCode()).
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleCode validates the typed code and binds it to the session.
func (h *SolveHandler) HandleCode(ctx context.Context, user *identity.User, text string) (*Response, error) {
	code := quiz.NormalizeCode(text)
	if !code.IsValid() {
		return HTML(h.texts.ErrorText(shared.ErrTestNotFound)).
			WithKeyboard(h.keyboards.CancelKeyboard()), nil
	}

	test, err := h.tests.GetByCode(ctx, code)
	if err != nil {
		if shared.IsNotFound(err) {
			return HTML(h.texts.ErrorText(err)).
				WithKeyboard(h.keyboards.CancelKeyboard()), nil
		}
		return nil, err
	}
	if !test.IsActive {
		return HTML(h.texts.ErrorText(shared.ErrTestAlreadyEnded)), nil
	}

	sess := session.New(int64(user.TelegramID))
	sess.BindCode(string(code))
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML(h.texts.AskAnswers(test)).
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleAnswers grades the answer string against the bound test.
func (h *SolveHandler) HandleAnswers(ctx context.Context, user *identity.User, sess *session.Session, text string) (*Response, error) {
	res, err := h.submit.Handle(ctx, command.SubmitAnswersCommand{
		Code:                 sess.Code,
		RespondentTelegramID: int64(user.TelegramID),
		RawAnswers:           text,
	})
	if err != nil {
		// Fixable input: keep the session so the user can retype.
		if shared.IsValidation(err) {
			return HTML(h.texts.ErrorText(err)).
				WithKeyboard(h.keyboards.CancelKeyboard()), nil
		}
		// Terminal refusals end the flow.
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

	return HTML(h.texts.SubmissionResult(res)).
		WithMenu(h.keyboards.MainMenu(user.IsAdmin)), nil
}
