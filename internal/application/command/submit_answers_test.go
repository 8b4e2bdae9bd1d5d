package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

func TestSubmitAnswers(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	respondent := f.seedUser(t, 200, "O'quvchi")
	test := f.seedTest(t, "AB12CD", "abbac", creator.ID)

	handler := f.submitHandler()
	res, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "ab12cd",
		RespondentTelegramID: 200,
		RawAnswers:           "ABBAD",
	})
	require.NoError(t, err)

	assert.False(t, res.AlreadySubmitted)
	assert.Equal(t, test.ID, res.Test.ID)
	assert.Equal(t, respondent.ID, res.Submission.UserID)
	assert.Equal(t, "abbad", res.Submission.Answers)
	assert.Equal(t, 4, res.Submission.CorrectCount)
	assert.Equal(t, 5, res.Submission.TotalCount)
	assert.Equal(t, 80.0, res.Submission.Percentage())
}

func TestSubmitAnswers_UnknownCode(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 200, "O'quvchi")
	handler := f.submitHandler()

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "ZZZZZZ",
		RespondentTelegramID: 200,
		RawAnswers:           "abc",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Malformed input maps to the same not-found answer, never to a
	// storage lookup.
	_, err = handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "too long to be a code",
		RespondentTelegramID: 200,
		RawAnswers:           "abc",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSubmitAnswers_EndedTest(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	f.seedUser(t, 200, "O'quvchi")
	f.seedTest(t, "AB12CD", "abc", creator.ID)

	_, err := f.tests.End(context.Background(), "AB12CD")
	require.NoError(t, err)

	_, err = f.submitHandler().Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "AB12CD",
		RespondentTelegramID: 200,
		RawAnswers:           "abc",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyEnded)
}

func TestSubmitAnswers_OwnTest(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	f.seedTest(t, "AB12CD", "abc", creator.ID)

	_, err := f.submitHandler().Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "AB12CD",
		RespondentTelegramID: 100,
		RawAnswers:           "abc",
	})
	assert.ErrorIs(t, err, shared.ErrSelfSubmission)
}

func TestSubmitAnswers_InvalidAnswers(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	f.seedUser(t, 200, "O'quvchi")
	f.seedTest(t, "AB12CD", "abcde", creator.ID)

	handler := f.submitHandler()

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "AB12CD",
		RespondentTelegramID: 200,
		RawAnswers:           "abc",
	})
	assert.ErrorIs(t, err, shared.ErrAnswerLengthMismatch)

	_, err = handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "AB12CD",
		RespondentTelegramID: 200,
		RawAnswers:           "ab1de",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidAnswerString)
}

func TestSubmitAnswers_ResubmissionIsIdempotent(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	f.seedUser(t, 200, "O'quvchi")
	f.seedTest(t, "AB12CD", "abc", creator.ID)

	handler := f.submitHandler()

	first, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "AB12CD",
		RespondentTelegramID: 200,
		RawAnswers:           "abc",
	})
	require.NoError(t, err)
	require.False(t, first.AlreadySubmitted)

	// The second attempt returns the stored result, not a new grade,
	// even when the answers differ.
	second, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		Code:                 "AB12CD",
		RespondentTelegramID: 200,
		RawAnswers:           "xyz",
	})
	require.NoError(t, err)
	assert.True(t, second.AlreadySubmitted)
	assert.Equal(t, first.Submission.ID, second.Submission.ID)
	assert.Equal(t, "abc", second.Submission.Answers)

	count, err := f.submissions.CountByTest(context.Background(), first.Test.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
