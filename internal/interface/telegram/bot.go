package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/service"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/handler"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/middleware"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// PollingTimeout is the long polling timeout in seconds.
	PollingTimeout int

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout bounds the wait for in-flight handlers.
	GracefulShutdownTimeout time.Duration
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		PollingTimeout:          30,
		Debug:                   false,
		Logger:                  slog.Default(),
		MaxConcurrentUpdates:    100,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// BotDependencies aggregates everything the handlers need.
type BotDependencies struct {
	// Client is the Telegram API client, shared with the notifier.
	Client *telegram.Client

	// Repositories
	Tests    quiz.TestRepository
	Channels channel.Repository

	// Session store
	Sessions session.Store

	// Membership gate for mandatory channels.
	Gate *service.MembershipGate

	// Commands
	RegisterUserCmd  *command.RegisterUserHandler
	CreateTestCmd    *command.CreateTestHandler
	SubmitAnswersCmd *command.SubmitAnswersHandler
	EndTestCmd       *command.EndTestHandler
	AddChannelCmd    *command.AddChannelHandler
	RemoveChannelCmd *command.RemoveChannelHandler
	GrantAdminCmd    *command.GrantAdminHandler
	BroadcastCmd     *command.BroadcastHandler

	// Queries
	TestStatsQuery     *query.GetTestStatsHandler
	MyTestsQuery       *query.GetMyTestsHandler
	MyResultsQuery     *query.GetMyResultsHandler
	AdminOverviewQuery *query.GetAdminOverviewHandler
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	sessions session.Store
	gate     *service.MembershipGate

	access      *middleware.AccessMiddleware
	rateLimiter *middleware.RateLimiter
	recovery    *middleware.RecoveryMiddleware

	texts     *presenter.TextPresenter
	keyboards *presenter.KeyboardBuilder

	startHandler  *handler.StartHandler
	inlineHandler *handler.InlineHandler

	// botUsername is filled by getMe on startup, used for deep links.
	botUsername   string
	botUsernameMu sync.RWMutex

	running   bool
	runningMu sync.RWMutex
	updateSem chan struct{}
	wg        sync.WaitGroup

	stats *BotStats
}

// BotStats holds runtime counters.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// NewBot creates the bot and wires all handlers into the router.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if deps.Client == nil {
		return nil, errors.New("telegram client is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	texts := presenter.NewTextPresenter()
	statsPresenter := presenter.NewStatsPresenter()
	keyboards := presenter.NewKeyboardBuilder()

	solveHandler := handler.NewSolveHandler(
		deps.SubmitAnswersCmd, deps.Tests, deps.Sessions, texts, keyboards)
	startHandler := handler.NewStartHandler(
		deps.Sessions, solveHandler, texts, keyboards)
	createHandler := handler.NewCreateHandler(
		deps.CreateTestCmd, deps.Sessions, texts, keyboards)
	statsHandler := handler.NewStatsHandler(
		deps.TestStatsQuery, deps.MyTestsQuery, deps.MyResultsQuery,
		deps.Sessions, texts, statsPresenter, keyboards)
	endHandler := handler.NewEndHandler(
		deps.EndTestCmd, deps.Sessions, texts, statsPresenter, keyboards)
	adminHandler := handler.NewAdminHandler(
		deps.AdminOverviewQuery, deps.AddChannelCmd, deps.RemoveChannelCmd,
		deps.GrantAdminCmd, deps.BroadcastCmd, deps.Channels,
		deps.Sessions, texts, statsPresenter, keyboards)
	inlineHandler := handler.NewInlineHandler(deps.Tests, texts, keyboards)

	access := middleware.NewAccessMiddleware(
		deps.RegisterUserCmd, middleware.DefaultAccessConfig())
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	recovery := middleware.NewRecoveryMiddleware(middleware.DefaultRecoveryConfig())

	router := NewRouter(RouterConfig{Logger: config.Logger, Debug: config.Debug})

	b := &Bot{
		config:        config,
		client:        deps.Client,
		router:        router,
		logger:        config.Logger,
		sessions:      deps.Sessions,
		gate:          deps.Gate,
		access:        access,
		rateLimiter:   rateLimiter,
		recovery:      recovery,
		texts:         texts,
		keyboards:     keyboards,
		startHandler:  startHandler,
		inlineHandler: inlineHandler,
		updateSem:     make(chan struct{}, config.MaxConcurrentUpdates),
		stats:         &BotStats{CommandsCount: make(map[string]int64)},
	}

	// Commands.
	router.RegisterCommand("start", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return startHandler.Handle(ctx, c.User, c.Args)
	}))
	router.RegisterCommand("help", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return startHandler.Help(c.User), nil
	}))
	router.RegisterCommand("cancel", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return startHandler.Cancel(ctx, c.User)
	}))
	router.RegisterCommand("create", b.membershipGated(b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return createHandler.Begin(ctx, c.User)
	})))
	router.RegisterCommand("solve", b.membershipGated(b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return solveHandler.Begin(ctx, c.User, c.Args)
	})))
	router.RegisterCommand("stats", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return statsHandler.Begin(ctx, c.User, c.Args)
	}))
	router.RegisterCommand("end", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return endHandler.Begin(ctx, c.User, c.Args)
	}))
	router.RegisterCommand("mytests", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return statsHandler.MyTests(ctx, c.User)
	}))
	router.RegisterCommand("myresults", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return statsHandler.MyResults(ctx, c.User)
	}))
	router.RegisterCommand("admin", b.respondCommand(func(ctx context.Context, c CommandContext) (*handler.Response, error) {
		return adminHandler.Panel(ctx, c.User)
	}))
	router.SetDefaultCommandHandler(func(ctx context.Context, c CommandContext) error {
		_, err := b.client.SendHTML(ctx, c.ChatID, texts.UnknownCommand())
		return err
	})

	// Free text by session state.
	router.RegisterTextState(session.StateAwaitingKey, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return createHandler.HandleKey(ctx, t.User, t.Text)
	}))
	router.RegisterTextState(session.StateAwaitingCode, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return solveHandler.HandleCode(ctx, t.User, t.Text)
	}))
	router.RegisterTextState(session.StateAwaitingAnswers, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return solveHandler.HandleAnswers(ctx, t.User, t.Session, t.Text)
	}))
	router.RegisterTextState(session.StateAwaitingStatsCode, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return statsHandler.HandleCode(ctx, t.User, t.Text)
	}))
	router.RegisterTextState(session.StateAwaitingEndCode, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return endHandler.HandleCode(ctx, t.User, t.Text)
	}))
	router.RegisterTextState(session.StateAwaitingChannel, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return adminHandler.HandleChannelInput(ctx, t.User, t.Text)
	}))
	router.RegisterTextState(session.StateAwaitingAdminID, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		resp, grantedID, err := adminHandler.HandleAdminIDInput(ctx, t.User, t.Text)
		if grantedID != 0 {
			// The promoted user must see the admin menu on next contact.
			access.InvalidateCache(grantedID)
		}
		return resp, err
	}))
	router.RegisterTextState(session.StateAwaitingBroadcast, b.respondText(func(ctx context.Context, t TextContext) (*handler.Response, error) {
		return adminHandler.HandleBroadcastInput(ctx, t.User, t.Text)
	}))
	router.SetDefaultTextHandler(func(ctx context.Context, t TextContext) error {
		_, err := b.client.SendHTML(ctx, t.ChatID, texts.UnknownInput())
		return err
	})

	// Callbacks.
	router.RegisterCallbackPrefix("checkmembership", b.handleMembershipCheck)
	router.RegisterCallbackPrefix("cancel", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return startHandler.Cancel(ctx, c.User)
	}))
	router.RegisterCallbackPrefix("stats:", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return statsHandler.HandleCode(ctx, c.User, strings.TrimPrefix(c.Data, "stats:"))
	}))
	router.RegisterCallbackPrefix("end:", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return endHandler.HandleCode(ctx, c.User, strings.TrimPrefix(c.Data, "end:"))
	}))
	router.RegisterCallbackPrefix("admin:panel", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return adminHandler.Panel(ctx, c.User)
	}))
	router.RegisterCallbackPrefix("admin:channels", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return adminHandler.Channels(ctx, c.User)
	}))
	router.RegisterCallbackPrefix("admin:addchannel", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return adminHandler.BeginAddChannel(ctx, c.User)
	}))
	router.RegisterCallbackPrefix("admin:delchannel:", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		raw := strings.TrimPrefix(c.Data, "admin:delchannel:")
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad chat id in callback %q: %w", c.Data, err)
		}
		return adminHandler.RemoveChannel(ctx, c.User, chatID)
	}))
	router.RegisterCallbackPrefix("admin:grantadmin", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return adminHandler.BeginGrantAdmin(ctx, c.User)
	}))
	router.RegisterCallbackPrefix("admin:broadcast", b.respondCallback(func(ctx context.Context, c CallbackContext) (*handler.Response, error) {
		return adminHandler.BeginBroadcast(ctx, c.User)
	}))

	return b, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start verifies the token and begins long polling. Blocks until the
// context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.stats.StartedAt = time.Now()
	b.runningMu.Unlock()

	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	b.botUsernameMu.Lock()
	b.botUsername = me.Username
	b.botUsernameMu.Unlock()

	b.logger.Info("starting telegram bot",
		"username", me.Username,
		"id", me.ID,
		"debug", b.config.Debug,
	)

	return b.client.StartPolling(ctx, b.handleUpdate)
}

// Stop waits for in-flight handlers to finish, bounded by the
// configured shutdown timeout.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")
	b.rateLimiter.Stop()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	case <-ctx.Done():
		b.logger.Warn("context cancelled during shutdown")
		return ctx.Err()
	}

	return nil
}

// IsRunning reports whether the bot is polling.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// Username returns the bot's username, empty before Start.
func (b *Bot) Username() string {
	b.botUsernameMu.RLock()
	defer b.botUsernameMu.RUnlock()
	return b.botUsername
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	start := time.Now()

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		err = b.handleInlineQuery(ctx, update.InlineQuery)
	default:
		return nil
	}

	if err != nil {
		b.stats.mu.Lock()
		b.stats.ErrorsCount++
		b.stats.mu.Unlock()
		b.logger.Error("failed to handle update",
			"update_id", update.UpdateID,
			"error", err,
			"duration", time.Since(start),
		)
	} else {
		b.stats.mu.Lock()
		b.stats.UpdatesHandled++
		b.stats.mu.Unlock()
	}

	return err
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.From == nil || !telegram.IsPrivateChat(msg) {
		return nil
	}

	telegramID := msg.From.ID
	chatID := msg.Chat.ID
	ctx = middleware.ContextWithTelegramID(ctx, telegramID)

	if limit := b.rateLimiter.Check(ctx, telegramID); !limit.Allowed {
		_, err := b.client.SendHTML(ctx, chatID, fmt.Sprintf(
			"⏳ Juda tez! %d soniyadan so'ng qaytadan urinib ko'ring.",
			int(limit.RetryAfter.Seconds())+1))
		return err
	}

	user, err := b.access.Resolve(ctx, telegramID, msg.From.Username, msg.From.FullName())
	if err != nil {
		b.logger.Error("failed to resolve user", "telegram_id", telegramID, "error", err)
		_, sendErr := b.client.SendHTML(ctx, chatID, b.texts.ErrorText(err))
		if sendErr != nil {
			return sendErr
		}
		return err
	}
	ctx = middleware.ContextWithUser(ctx, user)

	cmd := telegram.ExtractCommand(msg)
	args := telegram.ExtractCommandArgs(msg)

	// Reply keyboard buttons arrive as plain text.
	if cmd == "" {
		cmd = menuCommand(msg.Text)
	}

	if cmd != "" {
		return b.handleCommand(ctx, user, chatID, cmd, args, msg)
	}

	if msg.Text != "" {
		return b.handleTextMessage(ctx, user, chatID, msg)
	}

	return nil
}

func (b *Bot) handleCommand(
	ctx context.Context,
	user *identity.User,
	chatID int64,
	cmd, args string,
	msg *telegram.Message,
) error {
	b.stats.mu.Lock()
	b.stats.CommandsCount[cmd]++
	b.stats.mu.Unlock()

	result, err := b.recovery.RecoverWithHandler(ctx, int64(user.TelegramID), cmd, func() error {
		return b.router.HandleCommand(ctx, cmd, CommandContext{
			TelegramID: int64(user.TelegramID),
			ChatID:     chatID,
			MessageID:  msg.MessageID,
			Args:       args,
			User:       user,
			Message:    msg,
		})
	})
	if result.Recovered {
		b.logPanic(result)
		_, sendErr := b.client.SendHTML(ctx, chatID, result.UserMessage)
		return sendErr
	}
	if err != nil {
		_, sendErr := b.client.SendHTML(ctx, chatID, b.texts.ErrorText(err))
		if sendErr != nil {
			return sendErr
		}
	}
	return err
}

func (b *Bot) handleTextMessage(ctx context.Context, user *identity.User, chatID int64, msg *telegram.Message) error {
	sess, err := session.GetOrNew(ctx, b.sessions, int64(user.TelegramID))
	if err != nil {
		return err
	}

	result, err := b.recovery.RecoverWithHandler(ctx, int64(user.TelegramID), "text:"+string(sess.State), func() error {
		return b.router.HandleText(ctx, TextContext{
			TelegramID: int64(user.TelegramID),
			ChatID:     chatID,
			Text:       msg.Text,
			User:       user,
			Session:    sess,
		})
	})
	if result.Recovered {
		b.logPanic(result)
		_, sendErr := b.client.SendHTML(ctx, chatID, result.UserMessage)
		return sendErr
	}
	if err != nil {
		_, sendErr := b.client.SendHTML(ctx, chatID, b.texts.ErrorText(err))
		if sendErr != nil {
			return sendErr
		}
	}
	return err
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq == nil || cq.From == nil {
		return nil
	}

	telegramID := cq.From.ID
	var chatID, messageID int64
	if cq.Message != nil {
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	}

	// Answer first to drop the loading spinner.
	defer func() {
		_ = b.client.AnswerCallbackQuery(ctx, cq.ID, "", false)
	}()

	if limit := b.rateLimiter.Check(ctx, telegramID); !limit.Allowed {
		return b.client.AnswerCallbackQuery(ctx, cq.ID, "⏳ Juda tez!", true)
	}

	user, err := b.access.Resolve(ctx, telegramID, cq.From.Username, cq.From.FullName())
	if err != nil {
		b.logger.Error("failed to resolve user", "telegram_id", telegramID, "error", err)
		return err
	}
	ctx = middleware.ContextWithUser(ctx, user)

	result, err := b.recovery.RecoverWithHandler(ctx, telegramID, "callback:"+cq.Data, func() error {
		return b.router.HandleCallback(ctx, cq.Data, CallbackContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  messageID,
			QueryID:    cq.ID,
			Data:       cq.Data,
			User:       user,
		})
	})
	if result.Recovered {
		b.logPanic(result)
		if chatID != 0 {
			_, _ = b.client.SendHTML(ctx, chatID, result.UserMessage)
		}
		return nil
	}
	if err != nil && chatID != 0 {
		_, _ = b.client.SendHTML(ctx, chatID, b.texts.ErrorText(err))
	}
	return err
}

func (b *Bot) handleInlineQuery(ctx context.Context, iq *telegram.InlineQuery) error {
	if iq == nil || iq.From == nil {
		return nil
	}

	articles, err := b.inlineHandler.Handle(ctx, b.Username(), iq.Query)
	if err != nil {
		return err
	}

	results := make([]telegram.InlineQueryResultArticle, 0, len(articles))
	for _, a := range articles {
		results = append(results, telegram.InlineQueryResultArticle{
			Type:        "article",
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			InputMessageContent: telegram.InputTextContent{
				MessageText: a.Text,
				ParseMode:   "HTML",
			},
			ReplyMarkup: convertKeyboard(a.Keyboard),
		})
	}

	return b.client.AnswerInlineQuery(ctx, iq.ID, results)
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERSHIP GATE
// ══════════════════════════════════════════════════════════════════════════════

// membershipGated guards a command entry with the mandatory channel
// gate. Only the create and solve entry points are gated; /start, /help
// and the personal lists stay reachable for non-members. Admins bypass
// the gate.
func (b *Bot) membershipGated(fn CommandFunc) CommandFunc {
	return func(ctx context.Context, c CommandContext) error {
		if !c.User.IsAdmin {
			if blocked, err := b.checkMembership(ctx, c.ChatID, c.TelegramID); err != nil || blocked {
				return err
			}
		}
		return fn(ctx, c)
	}
}

// checkMembership enforces the mandatory channel gate. Returns true
// when the user is blocked and the join prompt has been sent.
func (b *Bot) checkMembership(ctx context.Context, chatID, telegramID int64) (bool, error) {
	if b.gate == nil {
		return false, nil
	}

	missing, err := b.gate.Check(ctx, telegramID)
	if err != nil {
		// The gate degrades open: an unavailable check never locks
		// users out.
		b.logger.Warn("membership check failed", "telegram_id", telegramID, "error", err)
		return false, nil
	}
	if len(missing) == 0 {
		return false, nil
	}

	_, err = b.client.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:       chatID,
		Text:         b.texts.JoinPrompt(),
		ParseMode:    "HTML",
		InlineMarkup: convertKeyboard(b.keyboards.JoinChannelsKeyboard(missing)),
	})
	return true, err
}

// handleMembershipCheck re-runs the gate on "checkmembership" callback.
func (b *Bot) handleMembershipCheck(ctx context.Context, c CallbackContext) error {
	missing, err := b.gate.Check(ctx, c.TelegramID)
	if err != nil {
		b.logger.Warn("membership re-check failed", "telegram_id", c.TelegramID, "error", err)
		missing = nil
	}

	if len(missing) > 0 {
		_, err := b.client.EditMessageText(ctx, c.ChatID, c.MessageID,
			b.texts.JoinPrompt(), "HTML",
			convertKeyboard(b.keyboards.JoinChannelsKeyboard(missing)))
		return err
	}

	_, err = b.client.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      c.ChatID,
		Text:        b.texts.MembershipConfirmed(),
		ParseMode:   "HTML",
		ReplyMarkup: convertMenu(b.keyboards.MainMenu(c.User.IsAdmin)),
	})
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ADAPTERS
// Handlers return *handler.Response; these adapters send it.
// ══════════════════════════════════════════════════════════════════════════════

type commandResponder func(ctx context.Context, c CommandContext) (*handler.Response, error)
type callbackResponder func(ctx context.Context, c CallbackContext) (*handler.Response, error)
type textResponder func(ctx context.Context, t TextContext) (*handler.Response, error)

func (b *Bot) respondCommand(fn commandResponder) CommandFunc {
	return func(ctx context.Context, c CommandContext) error {
		resp, err := fn(ctx, c)
		if err != nil {
			return err
		}
		return b.sendResponse(ctx, c.ChatID, resp)
	}
}

func (b *Bot) respondText(fn textResponder) TextFunc {
	return func(ctx context.Context, t TextContext) error {
		resp, err := fn(ctx, t)
		if err != nil {
			return err
		}
		return b.sendResponse(ctx, t.ChatID, resp)
	}
}

// respondCallback edits the originating message in place when possible.
// Responses carrying a reply keyboard are sent as new messages, Telegram
// does not allow attaching one to an edit.
func (b *Bot) respondCallback(fn callbackResponder) CallbackFunc {
	return func(ctx context.Context, c CallbackContext) error {
		resp, err := fn(ctx, c)
		if err != nil {
			return err
		}
		if resp == nil {
			return nil
		}
		if c.ChatID == 0 || c.MessageID == 0 || resp.Menu != nil {
			return b.sendResponse(ctx, c.ChatID, resp)
		}
		_, err = b.client.EditMessageText(ctx, c.ChatID, c.MessageID,
			resp.Text, parseMode(resp), convertKeyboard(resp.Keyboard))
		if err != nil && telegram.IsNotModified(err) {
			return nil
		}
		return err
	}
}

func (b *Bot) sendResponse(ctx context.Context, chatID int64, resp *handler.Response) error {
	if resp == nil || chatID == 0 {
		return nil
	}

	params := telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      resp.Text,
		ParseMode: parseMode(resp),
	}
	if resp.Keyboard != nil {
		params.InlineMarkup = convertKeyboard(resp.Keyboard)
	} else if resp.Menu != nil {
		params.ReplyMarkup = convertMenu(resp.Menu)
	}

	_, err := b.client.SendMessage(ctx, params)
	return err
}

func parseMode(resp *handler.Response) string {
	if resp.ParseMode != "" {
		return resp.ParseMode
	}
	return "HTML"
}

func (b *Bot) logPanic(result *middleware.RecoveryResult) {
	info := result.PanicInfo
	if info == nil {
		return
	}
	b.logger.Error("panic recovered",
		"operation", info.Operation,
		"telegram_id", info.TelegramID,
		"panic", info.Value,
		"stack", info.StackTrace,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// menuCommand maps reply keyboard labels to commands.
func menuCommand(text string) string {
	switch strings.TrimSpace(text) {
	case presenter.MenuCreate:
		return "create"
	case presenter.MenuSolve:
		return "solve"
	case presenter.MenuStats:
		return "stats"
	case presenter.MenuEnd:
		return "end"
	case presenter.MenuMyTests:
		return "mytests"
	case presenter.MenuMyResults:
		return "myresults"
	case presenter.MenuHelp:
		return "help"
	case presenter.MenuAdmin:
		return "admin"
	}
	return ""
}

// GetStats returns runtime counters for the health endpoint.
func (b *Bot) GetStats() map[string]interface{} {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	commands := make(map[string]int64, len(b.stats.CommandsCount))
	for k, v := range b.stats.CommandsCount {
		commands[k] = v
	}

	return map[string]interface{}{
		"started_at":       b.stats.StartedAt,
		"uptime":           time.Since(b.stats.StartedAt).String(),
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors_count":     b.stats.ErrorsCount,
		"commands_count":   commands,
		"running":          b.IsRunning(),
	}
}
