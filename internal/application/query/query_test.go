package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/memory"
)

type fixtures struct {
	tests       *memory.TestRepository
	submissions *memory.SubmissionRepository
	users       *memory.UserRepository
	channels    *memory.ChannelRepository
}

func newFixtures() *fixtures {
	return &fixtures{
		tests:       memory.NewTestRepository(),
		submissions: memory.NewSubmissionRepository(),
		users:       memory.NewUserRepository(),
		channels:    memory.NewChannelRepository(),
	}
}

func (f *fixtures) seedUser(t *testing.T, telegramID int64, fullName string) *identity.User {
	t.Helper()
	user := identity.NewUser(uuid.NewString(), identity.TelegramID(telegramID), "", fullName, time.Now().UTC())
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixtures) seedTest(t *testing.T, code quiz.Code, key string, creatorID string) *quiz.Test {
	t.Helper()
	answerKey, err := quiz.NewAnswerKey(key)
	require.NoError(t, err)
	test := quiz.NewTest(uuid.NewString(), code, answerKey, creatorID, time.Now().UTC())
	require.NoError(t, f.tests.Create(context.Background(), test))
	return test
}

func (f *fixtures) seedSubmission(t *testing.T, test *quiz.Test, userID, answers string) *quiz.TestSubmission {
	t.Helper()
	result := quiz.Score(test.AnswerKey, answers)
	sub := quiz.NewSubmission(uuid.NewString(), test.ID, userID, answers, result, time.Now().UTC())
	require.NoError(t, f.submissions.Create(context.Background(), sub))
	return sub
}

// memStatsCache is a map-backed StatsCache for tests.
type memStatsCache struct {
	mu      sync.Mutex
	entries map[quiz.Code]*quiz.Statistics
	hits    int
}

func newMemStatsCache() *memStatsCache {
	return &memStatsCache{entries: make(map[quiz.Code]*quiz.Statistics)}
}

func (c *memStatsCache) Get(_ context.Context, code quiz.Code) (*quiz.Statistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.entries[code]; ok {
		c.hits++
		return s, nil
	}
	return nil, nil
}

func (c *memStatsCache) Put(_ context.Context, code quiz.Code, stats *quiz.Statistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = stats
	return nil
}

func TestGetTestStats_ActiveTestHidesBreakdown(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	solver := f.seedUser(t, 200, "Aziz")
	test := f.seedTest(t, "AB12CD", "abcd", creator.ID)
	f.seedSubmission(t, test, solver.ID, "abcd")

	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, nil)
	view, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "ab12cd", ActorTelegramID: 100})
	require.NoError(t, err)

	assert.True(t, view.Test.IsActive)
	assert.Equal(t, 1, view.SubmissionCount)
	assert.Nil(t, view.Full, "breakdown stays hidden while active")
}

func TestGetTestStats_EndedTestFullBreakdown(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	aziz := f.seedUser(t, 200, "Aziz")
	bobur := f.seedUser(t, 300, "Bobur")
	test := f.seedTest(t, "AB12CD", "abcd", creator.ID)
	f.seedSubmission(t, test, aziz.ID, "abcd")
	f.seedSubmission(t, test, bobur.ID, "abxx")

	_, err := f.tests.End(context.Background(), "AB12CD")
	require.NoError(t, err)

	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, nil)
	view, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "AB12CD", ActorTelegramID: 100})
	require.NoError(t, err)

	require.NotNil(t, view.Full)
	assert.Equal(t, 2, view.SubmissionCount)
	assert.Equal(t, 2, view.Full.TotalSubmissions)
	require.Len(t, view.Full.Leaderboard, 2)
	assert.Equal(t, "Aziz", view.Full.Leaderboard[0].DisplayName)
	assert.Equal(t, "Bobur", view.Full.Leaderboard[1].DisplayName)
	require.NotNil(t, view.Full.Hardest)
	assert.Equal(t, 3, *view.Full.Hardest)
}

func TestGetTestStats_CachesEndedTest(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	solver := f.seedUser(t, 200, "Aziz")
	test := f.seedTest(t, "AB12CD", "abc", creator.ID)
	f.seedSubmission(t, test, solver.ID, "abc")

	_, err := f.tests.End(context.Background(), "AB12CD")
	require.NoError(t, err)

	cache := newMemStatsCache()
	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, cache)

	first, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "AB12CD", ActorTelegramID: 100})
	require.NoError(t, err)
	require.NotNil(t, first.Full)
	assert.Equal(t, 0, cache.hits)

	second, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "AB12CD", ActorTelegramID: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Full.TotalSubmissions, second.Full.TotalSubmissions)
}

func TestGetTestStats_UnknownCode(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "Ustoz")
	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, nil)

	_, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "ZZZZZZ", ActorTelegramID: 100})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetTestStats_StrangerRejected(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	stranger := f.seedUser(t, 200, "Aziz")
	test := f.seedTest(t, "AB12CD", "abcd", creator.ID)
	f.seedSubmission(t, test, stranger.ID, "abcd")

	_, err := f.tests.End(context.Background(), "AB12CD")
	require.NoError(t, err)

	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, nil)
	view, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "AB12CD", ActorTelegramID: 200})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Nil(t, view)
}

func TestGetTestStats_AdminSeesAnyTest(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	admin := f.seedUser(t, 999, "Admin")
	admin.IsAdmin = true
	require.NoError(t, f.users.Update(context.Background(), admin))
	solver := f.seedUser(t, 200, "Aziz")
	test := f.seedTest(t, "AB12CD", "abcd", creator.ID)
	f.seedSubmission(t, test, solver.ID, "abcd")

	_, err := f.tests.End(context.Background(), "AB12CD")
	require.NoError(t, err)

	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, nil)
	view, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "AB12CD", ActorTelegramID: 999})
	require.NoError(t, err)
	require.NotNil(t, view.Full)
}

func TestGetTestStats_MissingRespondentGetsPlaceholderName(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	test := f.seedTest(t, "AB12CD", "abcd", creator.ID)
	// A submission whose user record has disappeared.
	f.seedSubmission(t, test, uuid.NewString(), "abcd")

	_, err := f.tests.End(context.Background(), "AB12CD")
	require.NoError(t, err)

	handler := NewGetTestStatsHandler(f.tests, f.submissions, f.users, nil)
	view, err := handler.Handle(context.Background(), GetTestStatsQuery{Code: "AB12CD", ActorTelegramID: 100})
	require.NoError(t, err)
	require.Len(t, view.Full.Leaderboard, 1)
	assert.Equal(t, "Noma'lum ishtirokchi", view.Full.Leaderboard[0].DisplayName)
}

func TestGetMyTests(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	other := f.seedUser(t, 101, "Boshqa")
	solver := f.seedUser(t, 200, "Aziz")

	first := f.seedTest(t, "AAAAAA", "abc", creator.ID)
	second := f.seedTest(t, "BBBBBB", "abcd", creator.ID)
	f.seedTest(t, "CCCCCC", "ab", other.ID)
	f.seedSubmission(t, second, solver.ID, "abcd")

	handler := NewGetMyTestsHandler(f.tests, f.submissions, f.users)
	out, err := handler.Handle(context.Background(), GetMyTestsQuery{TelegramID: 100})
	require.NoError(t, err)

	require.Len(t, out, 2)
	// Newest first.
	assert.Equal(t, second.Code, out[0].Test.Code)
	assert.Equal(t, 1, out[0].SubmissionCount)
	assert.Equal(t, first.Code, out[1].Test.Code)
	assert.Equal(t, 0, out[1].SubmissionCount)
}

func TestGetMyResults(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	solver := f.seedUser(t, 200, "Aziz")
	test := f.seedTest(t, "AB12CD", "abcd", creator.ID)
	f.seedSubmission(t, test, solver.ID, "abxx")

	handler := NewGetMyResultsHandler(f.tests, f.submissions, f.users)
	out, err := handler.Handle(context.Background(), GetMyResultsQuery{TelegramID: 200})
	require.NoError(t, err)

	require.Len(t, out, 1)
	require.NotNil(t, out[0].Test)
	assert.Equal(t, quiz.Code("AB12CD"), out[0].Test.Code)
	assert.Equal(t, 2, out[0].Submission.CorrectCount)
	assert.Equal(t, 50.0, out[0].Submission.Percentage())
}

func TestGetMyResults_EmptyWithoutSubmissions(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 200, "Aziz")

	handler := NewGetMyResultsHandler(f.tests, f.submissions, f.users)
	out, err := handler.Handle(context.Background(), GetMyResultsQuery{TelegramID: 200})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetAdminOverview(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	f.seedUser(t, 200, "Aziz")
	f.seedTest(t, "AAAAAA", "abc", creator.ID)
	f.seedTest(t, "BBBBBB", "abc", creator.ID)

	_, err := f.tests.End(context.Background(), "AAAAAA")
	require.NoError(t, err)

	handler := NewGetAdminOverviewHandler(f.tests, f.users, f.channels)
	o, err := handler.Handle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, o.TotalUsers)
	assert.Equal(t, 2, o.TotalTests)
	assert.Equal(t, 1, o.ActiveTests)
	assert.Equal(t, 0, o.ChannelCount)
	assert.NotEmpty(t, o.RecentUsers)
	assert.NotEmpty(t, o.RecentTests)
}
