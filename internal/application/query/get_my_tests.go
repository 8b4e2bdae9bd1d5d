package query

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
)

// ══════════════════════════════════════════════════════════════════════════════
// MY TESTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetMyTestsQuery asks for all tests the user created.
type GetMyTestsQuery struct {
	TelegramID int64
}

// CreatedTest is one test with its submission count.
type CreatedTest struct {
	Test            *quiz.Test
	SubmissionCount int
}

// GetMyTestsHandler handles GetMyTestsQuery.
type GetMyTestsHandler struct {
	tests       quiz.TestRepository
	submissions quiz.SubmissionRepository
	users       identity.Repository
}

// NewGetMyTestsHandler creates a GetMyTestsHandler.
func NewGetMyTestsHandler(
	tests quiz.TestRepository,
	submissions quiz.SubmissionRepository,
	users identity.Repository,
) *GetMyTestsHandler {
	return &GetMyTestsHandler{tests: tests, submissions: submissions, users: users}
}

// Handle returns the user's tests, newest first.
func (h *GetMyTestsHandler) Handle(ctx context.Context, q GetMyTestsQuery) ([]CreatedTest, error) {
	user, err := h.users.GetByTelegramID(ctx, identity.TelegramID(q.TelegramID))
	if err != nil {
		return nil, err
	}

	tests, err := h.tests.GetByCreator(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get_my_tests: %w", err)
	}

	out := make([]CreatedTest, 0, len(tests))
	for _, t := range tests {
		count, err := h.submissions.CountByTest(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("get_my_tests: count for %s: %w", t.Code, err)
		}
		out = append(out, CreatedTest{Test: t, SubmissionCount: count})
	}
	return out, nil
}
