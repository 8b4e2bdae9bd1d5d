package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWERS COMMAND
// A respondent submits an answer string against an active test.
// Admission rules, in order: test must exist, must be active, the
// respondent must not be the creator, and must not have submitted before.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswersCommand contains a respondent's submission.
type SubmitAnswersCommand struct {
	// Code is the test code, as typed (normalized internally).
	Code string

	// RespondentTelegramID is the Telegram ID of the respondent.
	RespondentTelegramID int64

	// RawAnswers is the answer string exactly as the user typed it.
	RawAnswers string
}

// SubmitAnswersResult contains the graded submission.
type SubmitAnswersResult struct {
	// Submission is the stored (or previously stored) submission.
	Submission *quiz.TestSubmission

	// Test is the test that was answered.
	Test *quiz.Test

	// AlreadySubmitted is true when an earlier submission was returned
	// instead of grading this one.
	AlreadySubmitted bool
}

// SubmitAnswersHandler handles SubmitAnswersCommand.
type SubmitAnswersHandler struct {
	tests       quiz.TestRepository
	submissions quiz.SubmissionRepository
	users       identity.Repository
	notifier    Notifier
}

// NewSubmitAnswersHandler creates a SubmitAnswersHandler.
func NewSubmitAnswersHandler(
	tests quiz.TestRepository,
	submissions quiz.SubmissionRepository,
	users identity.Repository,
	notifier Notifier,
) *SubmitAnswersHandler {
	return &SubmitAnswersHandler{
		tests:       tests,
		submissions: submissions,
		users:       users,
		notifier:    notifier,
	}
}

// Handle grades and stores the submission.
//
// Resubmission is idempotent: both the early lookup and the unique
// constraint on (test_id, user_id) map to the previously stored result,
// so a concurrent double-send never produces two rows.
func (h *SubmitAnswersHandler) Handle(ctx context.Context, cmd SubmitAnswersCommand) (*SubmitAnswersResult, error) {
	code := quiz.NormalizeCode(cmd.Code)
	if !quiz.Code(code).IsValid() {
		return nil, shared.ErrTestNotFound
	}

	test, err := h.tests.GetByCode(ctx, quiz.Code(code))
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, shared.ErrTestAlreadyEnded
	}

	respondent, err := h.users.GetByTelegramID(ctx, identity.TelegramID(cmd.RespondentTelegramID))
	if err != nil {
		return nil, fmt.Errorf("submit_answers: respondent lookup: %w", err)
	}
	if respondent.ID == test.CreatorID {
		return nil, shared.ErrOwnTestSubmission
	}

	if prior, err := h.submissions.GetByTestAndUser(ctx, test.ID, respondent.ID); err == nil {
		return &SubmitAnswersResult{Submission: prior, Test: test, AlreadySubmitted: true}, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("submit_answers: prior lookup: %w", err)
	}

	answers, err := quiz.ValidateAnswerString(cmd.RawAnswers, test.TotalQuestions())
	if err != nil {
		return nil, err
	}

	result := quiz.Score(test.AnswerKey, answers)
	sub := quiz.NewSubmission(uuid.NewString(), test.ID, respondent.ID, answers, result, time.Now().UTC())

	if err := h.submissions.Create(ctx, sub); err != nil {
		// Lost a race with a concurrent submission from the same user.
		if errors.Is(err, shared.ErrAlreadySubmitted) {
			prior, lookupErr := h.submissions.GetByTestAndUser(ctx, test.ID, respondent.ID)
			if lookupErr != nil {
				return nil, fmt.Errorf("submit_answers: race recovery: %w", lookupErr)
			}
			return &SubmitAnswersResult{Submission: prior, Test: test, AlreadySubmitted: true}, nil
		}
		return nil, fmt.Errorf("submit_answers: persist: %w", err)
	}

	if h.notifier != nil {
		go h.notifier.SubmissionReceived(context.WithoutCancel(ctx), test, sub, respondent)
	}

	return &SubmitAnswersResult{Submission: sub, Test: test}, nil
}
