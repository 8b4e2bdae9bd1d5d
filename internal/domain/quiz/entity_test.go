package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, Code("AB12CD"), NormalizeCode("  ab12cd  "))
	assert.Equal(t, Code("XYZ789"), NormalizeCode("xyz789"))
}

func TestCode_IsValid(t *testing.T) {
	assert.True(t, Code("AB12CD").IsValid())
	assert.True(t, Code("AAAAAA").IsValid())
	assert.True(t, Code("000000").IsValid())

	assert.False(t, Code("AB12C").IsValid(), "too short")
	assert.False(t, Code("AB12CDE").IsValid(), "too long")
	assert.False(t, Code("ab12cd").IsValid(), "lowercase")
	assert.False(t, Code("AB12C!").IsValid(), "punctuation")
	assert.False(t, Code("").IsValid())
}

func TestNewAnswerKey(t *testing.T) {
	key, err := NewAnswerKey("  ABcDe  ")
	require.NoError(t, err)
	assert.Equal(t, AnswerKey("abcde"), key)
	assert.Equal(t, 5, key.Len())

	_, err = NewAnswerKey("")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewAnswerKey("   ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewAnswerKey("ab1c")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = NewAnswerKey("ab c")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestTest_End(t *testing.T) {
	now := time.Now().UTC()
	test := NewTest("test-1", "AB12CD", "abc", "creator-1", now)

	require.True(t, test.IsActive)
	require.Nil(t, test.EndedAt)

	endedAt := now.Add(time.Hour)
	require.NoError(t, test.End(endedAt))

	assert.False(t, test.IsActive)
	require.NotNil(t, test.EndedAt)
	assert.Equal(t, endedAt, *test.EndedAt)

	// Active -> Ended happens exactly once.
	err := test.End(endedAt.Add(time.Minute))
	assert.ErrorIs(t, err, shared.ErrAlreadyEnded)
	assert.Equal(t, endedAt, *test.EndedAt)
}

func TestTest_CanBeManagedBy(t *testing.T) {
	test := NewTest("test-1", "AB12CD", "abc", "creator-1", time.Now())

	assert.True(t, test.CanBeManagedBy("creator-1", false))
	assert.True(t, test.CanBeManagedBy("someone-else", true))
	assert.False(t, test.CanBeManagedBy("someone-else", false))
}

func TestTest_TotalQuestions(t *testing.T) {
	test := NewTest("test-1", "AB12CD", "abbacabbac", "creator-1", time.Now())
	assert.Equal(t, 10, test.TotalQuestions())
}
