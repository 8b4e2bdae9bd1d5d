package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEndedTest(t *testing.T, key string) *Test {
	t.Helper()
	answerKey, err := NewAnswerKey(key)
	require.NoError(t, err)
	return NewTest("test-1", "AB12CD", answerKey, "creator-1", time.Now())
}

func submissionFor(test *Test, id, userID, answers string) *TestSubmission {
	result := Score(test.AnswerKey, answers)
	return NewSubmission(id, test.ID, userID, answers, result, time.Now())
}

func TestAggregate_NoSubmissions(t *testing.T) {
	test := newEndedTest(t, "abc")

	stats := Aggregate(test, nil, nil)

	assert.Equal(t, 0, stats.TotalSubmissions)
	assert.Empty(t, stats.Questions)
	assert.Nil(t, stats.Easiest)
	assert.Nil(t, stats.Hardest)
	assert.Empty(t, stats.Leaderboard)
}

func TestAggregate_PerQuestionCounts(t *testing.T) {
	test := newEndedTest(t, "abcd")

	subs := []*TestSubmission{
		submissionFor(test, "s1", "u1", "abcd"), // all correct
		submissionFor(test, "s2", "u2", "abcx"), // q4 wrong
		submissionFor(test, "s3", "u3", "axxx"), // only q1 correct
	}

	stats := Aggregate(test, subs, nil)

	require.Len(t, stats.Questions, 4)
	assert.Equal(t, 3, stats.Questions[0].CorrectCount)
	assert.Equal(t, 2, stats.Questions[1].CorrectCount)
	assert.Equal(t, 2, stats.Questions[2].CorrectCount)
	assert.Equal(t, 1, stats.Questions[3].CorrectCount)

	assert.Equal(t, 100.0, stats.Questions[0].Percentage)
	assert.Equal(t, 66.7, stats.Questions[1].Percentage)
	assert.Equal(t, 33.3, stats.Questions[3].Percentage)

	require.NotNil(t, stats.Easiest)
	require.NotNil(t, stats.Hardest)
	assert.Equal(t, 1, *stats.Easiest)
	assert.Equal(t, 4, *stats.Hardest)
}

func TestAggregate_TieBreaksOnFirstQuestion(t *testing.T) {
	test := newEndedTest(t, "abcd")

	// Every question answered correctly by everyone: ties resolve to
	// the first question in scan order for both extremes.
	subs := []*TestSubmission{
		submissionFor(test, "s1", "u1", "abcd"),
		submissionFor(test, "s2", "u2", "abcd"),
	}

	stats := Aggregate(test, subs, nil)

	require.NotNil(t, stats.Easiest)
	require.NotNil(t, stats.Hardest)
	assert.Equal(t, 1, *stats.Easiest)
	assert.Equal(t, 1, *stats.Hardest)
}

func TestAggregate_LeaderboardOrder(t *testing.T) {
	test := newEndedTest(t, "abcd")

	subs := []*TestSubmission{
		submissionFor(test, "s1", "u1", "axxx"), // 1 correct
		submissionFor(test, "s2", "u2", "abcd"), // 4 correct
		submissionFor(test, "s3", "u3", "abxx"), // 2 correct
		submissionFor(test, "s4", "u4", "abyy"), // 2 correct, after u3
	}

	names := map[string]string{"u1": "Aziz", "u2": "Bobur", "u3": "Kamola", "u4": "Dilnoza"}
	stats := Aggregate(test, subs, func(userID string) string { return names[userID] })

	require.Len(t, stats.Leaderboard, 4)
	assert.Equal(t, "Bobur", stats.Leaderboard[0].DisplayName)
	assert.Equal(t, 4, stats.Leaderboard[0].CorrectCount)
	assert.Equal(t, 100.0, stats.Leaderboard[0].Percentage)

	// Stable sort keeps submission order for equal scores.
	assert.Equal(t, "Kamola", stats.Leaderboard[1].DisplayName)
	assert.Equal(t, "Dilnoza", stats.Leaderboard[2].DisplayName)
	assert.Equal(t, "Aziz", stats.Leaderboard[3].DisplayName)
}

func TestSubmission_Percentage(t *testing.T) {
	sub := &TestSubmission{CorrectCount: 2, TotalCount: 3}
	assert.Equal(t, 66.7, sub.Percentage())

	empty := &TestSubmission{}
	assert.Equal(t, 0.0, empty.Percentage())
}
