package command

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/memory"
)

// racingTestRepo fails the first Create calls with ErrTestAlreadyExists,
// simulating a code that lost the race on the unique index.
type racingTestRepo struct {
	*memory.TestRepository
	failures int
	creates  int
}

func (r *racingTestRepo) Create(ctx context.Context, test *quiz.Test) error {
	r.creates++
	if r.creates <= r.failures {
		return shared.ErrTestAlreadyExists
	}
	return r.TestRepository.Create(ctx, test)
}

func TestCreateTest(t *testing.T) {
	f := newFixtures()
	creator := f.seedUser(t, 100, "Ustoz")
	handler := f.createHandler()

	res, err := handler.Handle(context.Background(), CreateTestCommand{
		CreatorTelegramID: 100,
		RawAnswerKey:      "  ABbaC  ",
	})
	require.NoError(t, err)

	assert.True(t, res.Code.IsValid())
	assert.Equal(t, res.Code, res.Test.Code)
	assert.Equal(t, "abbac", res.Test.AnswerKey.String())
	assert.Equal(t, creator.ID, res.Test.CreatorID)
	assert.True(t, res.Test.IsActive)

	stored, err := f.tests.GetByCode(context.Background(), res.Code)
	require.NoError(t, err)
	assert.Equal(t, res.Test.ID, stored.ID)
}

func TestCreateTest_InvalidKey(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "Ustoz")
	handler := f.createHandler()

	_, err := handler.Handle(context.Background(), CreateTestCommand{
		CreatorTelegramID: 100,
		RawAnswerKey:      "ab1c",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = handler.Handle(context.Background(), CreateTestCommand{
		CreatorTelegramID: 100,
		RawAnswerKey:      "   ",
	})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestCreateTest_UnknownCreator(t *testing.T) {
	f := newFixtures()
	handler := f.createHandler()

	_, err := handler.Handle(context.Background(), CreateTestCommand{
		CreatorTelegramID: 999,
		RawAnswerKey:      "abc",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateTest_RetriesLostInsertRace(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "Ustoz")

	repo := &racingTestRepo{TestRepository: f.tests, failures: 2}
	generator := quiz.NewGenerator(repo, rand.New(rand.NewSource(1)))
	handler := NewCreateTestHandler(repo, f.users, generator, nil)

	res, err := handler.Handle(context.Background(), CreateTestCommand{
		CreatorTelegramID: 100,
		RawAnswerKey:      "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.creates, "two lost races then a successful insert")

	stored, err := f.tests.GetByCode(context.Background(), res.Code)
	require.NoError(t, err)
	assert.Equal(t, res.Test.ID, stored.ID)
}

func TestCreateTest_GivesUpAfterRepeatedRaces(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "Ustoz")

	repo := &racingTestRepo{TestRepository: f.tests, failures: 10}
	generator := quiz.NewGenerator(repo, rand.New(rand.NewSource(1)))
	handler := NewCreateTestHandler(repo, f.users, generator, nil)

	_, err := handler.Handle(context.Background(), CreateTestCommand{
		CreatorTelegramID: 100,
		RawAnswerKey:      "abc",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCreateTest_CodesAreUnique(t *testing.T) {
	f := newFixtures()
	f.seedUser(t, 100, "Ustoz")
	handler := f.createHandler()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		res, err := handler.Handle(context.Background(), CreateTestCommand{
			CreatorTelegramID: 100,
			RawAnswerKey:      "abc",
		})
		require.NoError(t, err)
		require.False(t, seen[res.Code.String()], "duplicate code %s", res.Code)
		seen[res.Code.String()] = true
	}
}
