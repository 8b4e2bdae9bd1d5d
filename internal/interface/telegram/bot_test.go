package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	tgclient "github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/memory"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/service"
	"github.com/sinovhub/sinov-test-bot/pkg/logger"
)

// apiRecorder is a fake Bot API server counting calls per method.
type apiRecorder struct {
	mu           sync.Mutex
	calls        map[string]int
	memberStatus string
}

func (a *apiRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		a.mu.Lock()
		a.calls[method]++
		status := a.memberStatus
		a.mu.Unlock()

		switch method {
		case "getChatMember":
			fmt.Fprintf(w, `{"ok":true,"result":{"status":%q,"user":{"id":1}}}`, status)
		default:
			fmt.Fprint(w, `{"ok":true,"result":{}}`)
		}
	}
}

func (a *apiRecorder) count(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[method]
}

type botFixture struct {
	bot      *Bot
	api      *apiRecorder
	sessions session.Store
	users    *memory.UserRepository
	channels *memory.ChannelRepository
}

func newBotFixture(t *testing.T, memberStatus string) *botFixture {
	t.Helper()

	api := &apiRecorder{calls: make(map[string]int), memberStatus: memberStatus}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	clientConfig := tgclient.DefaultClientConfig("test-token")
	clientConfig.BaseURL = server.URL
	clientConfig.RetryAttempts = 0
	clientConfig.RetryDelay = time.Millisecond
	client := tgclient.NewClient(clientConfig)

	tests := memory.NewTestRepository()
	submissions := memory.NewSubmissionRepository()
	users := memory.NewUserRepository()
	channels := memory.NewChannelRepository()
	sessions := memory.NewSessionStore(time.Hour)

	quiet := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	gate := service.NewMembershipGate(client, channels, quiet)
	sender := service.NewBroadcastSender(client)

	generator := quiz.NewGenerator(tests, nil)

	botConfig := DefaultBotConfig()
	botConfig.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	bot, err := NewBot(botConfig, BotDependencies{
		Client:   client,
		Tests:    tests,
		Channels: channels,
		Sessions: sessions,
		Gate:     gate,

		RegisterUserCmd:  command.NewRegisterUserHandler(users),
		CreateTestCmd:    command.NewCreateTestHandler(tests, users, generator, nil),
		SubmitAnswersCmd: command.NewSubmitAnswersHandler(tests, submissions, users, nil),
		EndTestCmd:       command.NewEndTestHandler(tests, users, nil),
		AddChannelCmd:    command.NewAddChannelHandler(channels, client),
		RemoveChannelCmd: command.NewRemoveChannelHandler(channels),
		GrantAdminCmd:    command.NewGrantAdminHandler(users),
		BroadcastCmd:     command.NewBroadcastHandler(users, sender),

		TestStatsQuery:     query.NewGetTestStatsHandler(tests, submissions, users, nil),
		MyTestsQuery:       query.NewGetMyTestsHandler(tests, submissions, users),
		MyResultsQuery:     query.NewGetMyResultsHandler(tests, submissions, users),
		AdminOverviewQuery: query.NewGetAdminOverviewHandler(tests, users, channels),
	})
	require.NoError(t, err)

	return &botFixture{bot: bot, api: api, sessions: sessions, users: users, channels: channels}
}

func (f *botFixture) seedUser(t *testing.T, telegramID int64, isAdmin bool) *identity.User {
	t.Helper()
	user := identity.NewUser(uuid.NewString(), identity.TelegramID(telegramID), "", "Foydalanuvchi", time.Now().UTC())
	user.IsAdmin = isAdmin
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *botFixture) seedChannel(t *testing.T) {
	t.Helper()
	ch := channel.NewChannel(uuid.NewString(), -1001, "testkanal", "Test kanal", time.Now().UTC())
	require.NoError(t, f.channels.Create(context.Background(), ch))
}

func (f *botFixture) dispatch(t *testing.T, cmd string, user *identity.User) {
	t.Helper()
	err := f.bot.router.HandleCommand(context.Background(), cmd, CommandContext{
		TelegramID: int64(user.TelegramID),
		ChatID:     int64(user.TelegramID),
		User:       user,
	})
	require.NoError(t, err)
}

func TestBot_CreateBlockedForNonMembers(t *testing.T) {
	f := newBotFixture(t, "left")
	f.seedChannel(t)
	user := f.seedUser(t, 100, false)

	f.dispatch(t, "create", user)

	assert.Equal(t, 1, f.api.count("getChatMember"))
	_, err := f.sessions.Get(context.Background(), 100)
	assert.ErrorIs(t, err, session.ErrSessionNotFound, "blocked user must not enter the create flow")
}

func TestBot_SolveBlockedForNonMembers(t *testing.T) {
	f := newBotFixture(t, "kicked")
	f.seedChannel(t)
	user := f.seedUser(t, 100, false)

	f.dispatch(t, "solve", user)

	assert.Equal(t, 1, f.api.count("getChatMember"))
	_, err := f.sessions.Get(context.Background(), 100)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestBot_CreateOpensForMembers(t *testing.T) {
	f := newBotFixture(t, "member")
	f.seedChannel(t)
	user := f.seedUser(t, 100, false)

	f.dispatch(t, "create", user)

	sess, err := f.sessions.Get(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingKey, sess.State)
}

func TestBot_StartAndResultsNotGated(t *testing.T) {
	f := newBotFixture(t, "left")
	f.seedChannel(t)
	user := f.seedUser(t, 100, false)

	f.dispatch(t, "start", user)
	f.dispatch(t, "myresults", user)

	assert.Equal(t, 0, f.api.count("getChatMember"),
		"only create and solve consult the membership gate")
}

func TestBot_AdminBypassesGate(t *testing.T) {
	f := newBotFixture(t, "left")
	f.seedChannel(t)
	admin := f.seedUser(t, 999, true)

	f.dispatch(t, "create", admin)

	assert.Equal(t, 0, f.api.count("getChatMember"))
	sess, err := f.sessions.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingKey, sess.State)
}
