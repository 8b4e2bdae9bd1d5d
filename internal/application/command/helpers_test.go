package command

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/memory"
)

// fixtures bundles the in-memory repositories a command test needs.
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

func (f *fixtures) seedAdmin(t *testing.T, telegramID int64, fullName string) *identity.User {
	t.Helper()
	user := f.seedUser(t, telegramID, fullName)
	user.IsAdmin = true
	require.NoError(t, f.users.Update(context.Background(), user))
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

func (f *fixtures) createHandler() *CreateTestHandler {
	generator := quiz.NewGenerator(f.tests, rand.New(rand.NewSource(1)))
	return NewCreateTestHandler(f.tests, f.users, generator, nil)
}

func (f *fixtures) submitHandler() *SubmitAnswersHandler {
	return NewSubmitAnswersHandler(f.tests, f.submissions, f.users, nil)
}

func (f *fixtures) endHandler() *EndTestHandler {
	return NewEndTestHandler(f.tests, f.users, nil)
}
