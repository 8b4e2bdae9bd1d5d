package query

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
)

// ══════════════════════════════════════════════════════════════════════════════
// MY RESULTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetMyResultsQuery asks for all submissions the user made.
type GetMyResultsQuery struct {
	TelegramID int64
}

// SolvedTest is one submission together with the test it answered.
type SolvedTest struct {
	Submission *quiz.TestSubmission
	Test       *quiz.Test
}

// GetMyResultsHandler handles GetMyResultsQuery.
type GetMyResultsHandler struct {
	tests       quiz.TestRepository
	submissions quiz.SubmissionRepository
	users       identity.Repository
}

// NewGetMyResultsHandler creates a GetMyResultsHandler.
func NewGetMyResultsHandler(
	tests quiz.TestRepository,
	submissions quiz.SubmissionRepository,
	users identity.Repository,
) *GetMyResultsHandler {
	return &GetMyResultsHandler{tests: tests, submissions: submissions, users: users}
}

// Handle returns the user's submissions, newest first.
func (h *GetMyResultsHandler) Handle(ctx context.Context, q GetMyResultsQuery) ([]SolvedTest, error) {
	user, err := h.users.GetByTelegramID(ctx, identity.TelegramID(q.TelegramID))
	if err != nil {
		return nil, err
	}

	subs, err := h.submissions.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get_my_results: %w", err)
	}

	out := make([]SolvedTest, 0, len(subs))
	for _, s := range subs {
		test, err := h.tests.GetByID(ctx, s.TestID)
		if err != nil {
			// The test may have been removed, the submission alone
			// still carries the score.
			out = append(out, SolvedTest{Submission: s})
			continue
		}
		out = append(out, SolvedTest{Submission: s, Test: test})
	}
	return out, nil
}
