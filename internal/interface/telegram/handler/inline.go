package handler

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// INLINE HANDLER
// Answers inline queries ("@bot CODE") with a shareable invitation card
// for an active test. Unknown or finished codes yield no results.
// ══════════════════════════════════════════════════════════════════════════════

// InlineArticle is a library-agnostic inline query result.
type InlineArticle struct {
	// ID identifies the result within the answer.
	ID string

	// Title and Description are shown in the result popup.
	Title       string
	Description string

	// Text is the HTML message sent when the result is picked.
	Text string

	// Keyboard is attached to the sent message.
	Keyboard *presenter.InlineKeyboard
}

// InlineHandler handles inline queries.
type InlineHandler struct {
	tests     quiz.TestRepository
	texts     *presenter.TextPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewInlineHandler creates an InlineHandler.
func NewInlineHandler(
	tests quiz.TestRepository,
	texts *presenter.TextPresenter,
	keyboards *presenter.KeyboardBuilder,
) *InlineHandler {
	return &InlineHandler{
		tests:     tests,
		texts:     texts,
		keyboards: keyboards,
	}
}

// Handle resolves the query into inline results. botUsername builds the
// deep link on the invitation button.
func (h *InlineHandler) Handle(ctx context.Context, botUsername, queryText string) ([]InlineArticle, error) {
	code := quiz.NormalizeCode(queryText)
	if !code.IsValid() {
		return nil, nil
	}

	test, err := h.tests.GetByCode(ctx, code)
	if err != nil {
		// Missing code is a normal outcome for a half-typed query.
		return nil, nil
	}
	if !test.IsActive {
		return nil, nil
	}

	return []InlineArticle{
		{
			ID:          string(test.Code),
			Title:       fmt.Sprintf("Test %s", test.Code),
			Description: fmt.Sprintf("%d ta savol — do'stlaringizni taklif qiling", test.TotalQuestions()),
			Text:        h.texts.InlineInvitation(test),
			Keyboard:    h.keyboards.SolveKeyboard(botUsername, string(test.Code)),
		},
	}, nil
}
