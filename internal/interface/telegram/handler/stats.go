package handler

import (
	"context"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// Shows per-test statistics and the personal lists (created tests and
// solved tests).
// ══════════════════════════════════════════════════════════════════════════════

// StatsHandler handles statistics views.
type StatsHandler struct {
	testStats *query.GetTestStatsHandler
	myTests   *query.GetMyTestsHandler
	myResults *query.GetMyResultsHandler
	sessions  session.Store
	texts     *presenter.TextPresenter
	stats     *presenter.StatsPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(
	testStats *query.GetTestStatsHandler,
	myTests *query.GetMyTestsHandler,
	myResults *query.GetMyResultsHandler,
	sessions session.Store,
	texts *presenter.TextPresenter,
	stats *presenter.StatsPresenter,
	keyboards *presenter.KeyboardBuilder,
) *StatsHandler {
	return &StatsHandler{
		testStats: testStats,
		myTests:   myTests,
		myResults: myResults,
		sessions:  sessions,
		texts:     texts,
		stats:     stats,
		keyboards: keyboards,
	}
}

// Begin starts the stats flow. With a code argument the prompt is skipped.
func (h *StatsHandler) Begin(ctx context.Context, user *identity.User, args string) (*Response, error) {
	if code := strings.TrimSpace(args); code != "" {
		return h.HandleCode(ctx, user, code)
	}

	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingStatsCode)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML(h.texts.AskStatsCode()).
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleCode renders statistics for the typed code.
// The query rejects anyone but the creator or an administrator.
func (h *StatsHandler) HandleCode(ctx context.Context, user *identity.User, text string) (*Response, error) {
	view, err := h.testStats.Handle(ctx, query.GetTestStatsQuery{
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

	return HTML(h.stats.TestStats(view)).
		WithKeyboard(h.keyboards.StatsKeyboard(string(view.Test.Code), view.Test.IsActive)), nil
}

// MyTests lists the tests created by the user.
func (h *StatsHandler) MyTests(ctx context.Context, user *identity.User) (*Response, error) {
	tests, err := h.myTests.Handle(ctx, query.GetMyTestsQuery{TelegramID: int64(user.TelegramID)})
	if err != nil {
		return nil, err
	}
	return HTML(h.stats.MyTests(tests)), nil
}

// MyResults lists the user's submissions.
func (h *StatsHandler) MyResults(ctx context.Context, user *identity.User) (*Response, error) {
	results, err := h.myResults.Handle(ctx, query.GetMyResultsQuery{TelegramID: int64(user.TelegramID)})
	if err != nil {
		return nil, err
	}
	return HTML(h.stats.MyResults(results)), nil
}
