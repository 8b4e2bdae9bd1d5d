package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

func TestScore_PerfectMatch(t *testing.T) {
	key, err := NewAnswerKey("abbacabbac")
	require.NoError(t, err)

	result := Score(key, "abbacabbac")

	assert.Equal(t, 10, result.CorrectCount)
	assert.Equal(t, 10, result.TotalCount)
	assert.Equal(t, 100.0, result.Percentage())
	for i, ok := range result.PerQuestion {
		assert.True(t, ok, "question %d", i+1)
	}
}

func TestScore_PartialMatch(t *testing.T) {
	key, err := NewAnswerKey("abbacabbac")
	require.NoError(t, err)

	result := Score(key, "abacabbaca")

	assert.Equal(t, 10, result.TotalCount)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 30.0, result.Percentage())
	assert.Equal(t, []bool{true, true, false, false, false, false, true, false, false, false}, result.PerQuestion)
}

func TestScore_CaseInsensitive(t *testing.T) {
	key, err := NewAnswerKey("ABCD")
	require.NoError(t, err)

	result := Score(key, "aBcD")

	assert.Equal(t, 4, result.CorrectCount)
	assert.Equal(t, 100.0, result.Percentage())
}

func TestScore_ShorterSubmission(t *testing.T) {
	key, err := NewAnswerKey("abcde")
	require.NoError(t, err)

	// The validation layer rejects length mismatches before scoring,
	// but the engine itself must treat missing positions as wrong.
	result := Score(key, "abc")

	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 5, result.TotalCount)
	assert.Equal(t, []bool{true, true, true, false, false}, result.PerQuestion)
}

func TestScore_TrimsWhitespace(t *testing.T) {
	key, err := NewAnswerKey("abc")
	require.NoError(t, err)

	result := Score(key, "  abc  ")

	assert.Equal(t, 3, result.CorrectCount)
}

func TestScore_RoundsPercentageToTenth(t *testing.T) {
	key, err := NewAnswerKey("abc")
	require.NoError(t, err)

	result := Score(key, "abd")

	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 66.7, result.Percentage())
}

func TestValidateAnswerString(t *testing.T) {
	answers, err := ValidateAnswerString("  ABcd  ", 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", answers)

	_, err = ValidateAnswerString("ab1d", 4)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = ValidateAnswerString("abc", 4)
	assert.ErrorIs(t, err, shared.ErrAnswerLengthMismatch)

	_, err = ValidateAnswerString("abcde", 4)
	assert.ErrorIs(t, err, shared.ErrAnswerLengthMismatch)

	_, err = ValidateAnswerString("", 4)
	assert.ErrorIs(t, err, shared.ErrInvalidAnswerString)
}
