package presenter

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

func TestScoreEmoji(t *testing.T) {
	assert.Equal(t, "🏆", ScoreEmoji(100))
	assert.Equal(t, "🏆", ScoreEmoji(90))
	assert.Equal(t, "😎", ScoreEmoji(89.9))
	assert.Equal(t, "😎", ScoreEmoji(70))
	assert.Equal(t, "🙂", ScoreEmoji(69.9))
	assert.Equal(t, "🙂", ScoreEmoji(50))
	assert.Equal(t, "😔", ScoreEmoji(49.9))
	assert.Equal(t, "😔", ScoreEmoji(0))
}

func TestRankMedal(t *testing.T) {
	assert.Equal(t, "🥇", rankMedal(1))
	assert.Equal(t, "🥈", rankMedal(2))
	assert.Equal(t, "🥉", rankMedal(3))
	assert.Equal(t, "4.", rankMedal(4))
	assert.Equal(t, "10.", rankMedal(10))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt; &amp; &quot;y&quot;", EscapeHTML(`<b>x</b> & "y"`))
	assert.Equal(t, "oddiy matn", EscapeHTML("oddiy matn"))
}

func TestErrorText_KnownErrors(t *testing.T) {
	p := NewTextPresenter()

	assert.Contains(t, p.ErrorText(shared.ErrTestNotFound), "topilmadi")
	assert.Contains(t, p.ErrorText(shared.ErrTestAlreadyEnded), "yakunlangan")
	assert.Contains(t, p.ErrorText(shared.ErrOwnTestSubmission), "yecha olmaysiz")
	assert.Contains(t, p.ErrorText(shared.ErrSubmissionExists), "allaqachon")
	assert.Contains(t, p.ErrorText(shared.ErrAnswerLengthMismatch), "mos kelmadi")
	assert.Contains(t, p.ErrorText(shared.ErrInvalidAnswerString), "format")
	assert.Contains(t, p.ErrorText(shared.ErrNotPrivileged), "huquq")
}

func TestErrorText_UnknownErrorIsGeneric(t *testing.T) {
	p := NewTextPresenter()
	text := p.ErrorText(errors.New("pgx: connection refused"))

	assert.Contains(t, text, "Xatolik yuz berdi")
	assert.NotContains(t, text, "pgx", "internal details never leak to users")
}

func newTestEntity(t *testing.T, key string) *quiz.Test {
	t.Helper()
	answerKey, err := quiz.NewAnswerKey(key)
	require.NoError(t, err)
	return quiz.NewTest("test-1", "AB12CD", answerKey, "creator-1", time.Now().UTC())
}

func TestTextPresenter_AskAnswers(t *testing.T) {
	p := NewTextPresenter()
	text := p.AskAnswers(newTestEntity(t, "abcde"))

	assert.Contains(t, text, "AB12CD")
	assert.Contains(t, text, "<b>5</b>")
	assert.Contains(t, text, "aaaaa", "example string matches question count")
}

func TestTextPresenter_SubmissionResult(t *testing.T) {
	p := NewTextPresenter()
	test := newTestEntity(t, "abcde")

	res := &command.SubmitAnswersResult{
		Test: test,
		Submission: &quiz.TestSubmission{
			CorrectCount: 5,
			TotalCount:   5,
		},
	}
	text := p.SubmissionResult(res)
	assert.Contains(t, text, "🏆")
	assert.Contains(t, text, "5/5")
	assert.Contains(t, text, "100.0%")

	res.AlreadySubmitted = true
	text = p.SubmissionResult(res)
	assert.Contains(t, text, "allaqachon yechgansiz")
}

func TestStatsPresenter_ActiveTestHidesBreakdown(t *testing.T) {
	p := NewStatsPresenter()
	view := &query.TestStats{
		Test:            newTestEntity(t, "abcde"),
		SubmissionCount: 3,
	}

	text := p.TestStats(view)

	assert.Contains(t, text, "3")
	assert.Contains(t, text, "yakunlangach")
	assert.NotContains(t, text, "savol:", "per-question lines only after the test ends")
}

func TestStatsPresenter_EndedTestFullBreakdown(t *testing.T) {
	p := NewStatsPresenter()
	test := newTestEntity(t, "abc")
	require.NoError(t, test.End(time.Now().UTC()))

	easiest, hardest := 1, 3
	view := &query.TestStats{
		Test:            test,
		SubmissionCount: 2,
		Full: &quiz.Statistics{
			TotalSubmissions: 2,
			Questions: []quiz.QuestionStat{
				{Number: 1, CorrectCount: 2, Percentage: 100.0},
				{Number: 2, CorrectCount: 1, Percentage: 50.0},
				{Number: 3, CorrectCount: 0, Percentage: 0.0},
			},
			Easiest: &easiest,
			Hardest: &hardest,
			Leaderboard: []quiz.LeaderboardEntry{
				{DisplayName: "Aziz", CorrectCount: 3, TotalCount: 3, Percentage: 100.0},
				{DisplayName: "Bobur", CorrectCount: 1, TotalCount: 3, Percentage: 33.3},
			},
		},
	}

	text := p.TestStats(view)

	assert.Contains(t, text, "1-savol")
	assert.Contains(t, text, "3-savol")
	assert.Contains(t, text, "🥇")
	assert.Contains(t, text, "Aziz")
	assert.Contains(t, text, "🥈")
	assert.Contains(t, text, "Bobur")
}

func TestStatsPresenter_LeaderboardCappedAtTen(t *testing.T) {
	p := NewStatsPresenter()
	test := newTestEntity(t, "abc")
	require.NoError(t, test.End(time.Now().UTC()))

	easiest, hardest := 1, 3
	entries := make([]quiz.LeaderboardEntry, 13)
	for i := range entries {
		entries[i] = quiz.LeaderboardEntry{
			DisplayName:  fmt.Sprintf("Ishtirokchi %d", i+1),
			CorrectCount: 3,
			TotalCount:   3,
			Percentage:   100.0,
		}
	}
	view := &query.TestStats{
		Test:            test,
		SubmissionCount: len(entries),
		Full: &quiz.Statistics{
			TotalSubmissions: len(entries),
			Questions: []quiz.QuestionStat{
				{Number: 1, CorrectCount: 13, Percentage: 100.0},
				{Number: 2, CorrectCount: 13, Percentage: 100.0},
				{Number: 3, CorrectCount: 13, Percentage: 100.0},
			},
			Easiest:     &easiest,
			Hardest:     &hardest,
			Leaderboard: entries,
		},
	}

	text := p.TestStats(view)
	assert.Contains(t, text, "Ishtirokchi 10")
	assert.NotContains(t, text, "Ishtirokchi 11")
	assert.Contains(t, text, "... va yana 3 ta ishtirokchi")
}

func TestStatsPresenter_MyResultsWithoutTest(t *testing.T) {
	p := NewStatsPresenter()

	results := []query.SolvedTest{
		{Submission: &quiz.TestSubmission{CorrectCount: 1, TotalCount: 2, SubmittedAt: time.Now().UTC()}},
	}
	text := p.MyResults(results)

	assert.Contains(t, text, "—", "removed tests render a placeholder code")
	assert.Contains(t, text, "1/2")
}

func TestKeyboardBuilder_MainMenu(t *testing.T) {
	b := NewKeyboardBuilder()

	menu := b.MainMenu(false)
	var labels []string
	for _, row := range menu.Rows {
		labels = append(labels, row...)
	}
	assert.Contains(t, labels, MenuCreate)
	assert.Contains(t, labels, MenuSolve)
	assert.NotContains(t, labels, MenuAdmin)

	adminMenu := b.MainMenu(true)
	labels = labels[:0]
	for _, row := range adminMenu.Rows {
		labels = append(labels, row...)
	}
	assert.Contains(t, labels, MenuAdmin)
}

func TestKeyboardBuilder_TestCreatedKeyboard(t *testing.T) {
	b := NewKeyboardBuilder()
	kb := b.TestCreatedKeyboard("AB12CD")

	var callbacks, queries []string
	for _, row := range kb.Rows {
		for _, btn := range row {
			if btn.CallbackData != "" {
				callbacks = append(callbacks, btn.CallbackData)
			}
			if btn.SwitchInlineQuery != "" {
				queries = append(queries, btn.SwitchInlineQuery)
			}
		}
	}
	assert.Contains(t, callbacks, "stats:AB12CD")
	assert.Contains(t, callbacks, "end:AB12CD")
	assert.Contains(t, queries, "AB12CD")
}

func TestKeyboardBuilder_SolveKeyboard(t *testing.T) {
	b := NewKeyboardBuilder()
	kb := b.SolveKeyboard("sinov_test_bot", "AB12CD")

	require.NotEmpty(t, kb.Rows)
	url := kb.Rows[0][0].URL
	assert.True(t, strings.HasPrefix(url, "https://t.me/sinov_test_bot?start=AB12CD"), url)
}
