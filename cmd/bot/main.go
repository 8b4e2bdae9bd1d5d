// Package main - точка входа Telegram-бота для проведения тестов.
//
// Преподаватель отправляет ключ ответов, получает шестизначный код,
// ученики отправляют свои ответы по коду, бот проверяет посимвольно
// и считает статистику.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: проверка ответов, коды, статистика - без внешних зависимостей
// - Application: use cases (Commands/Queries) и состояния диалогов
// - Infrastructure: PostgreSQL, Redis, Telegram Bot API
// - Interface: Telegram handlers, HTTP health endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sinovhub/sinov-test-bot/config"
	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	tgclient "github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/memory"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/postgres"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/redis"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/service"
	httpserver "github.com/sinovhub/sinov-test-bot/internal/interface/http"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram"
	"github.com/sinovhub/sinov-test-bot/pkg/logger"
	"github.com/sinovhub/sinov-test-bot/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting sinov test bot",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// Инфраструктурные сервисы и HTTP-сервер используют pkg/logger.
	infraLog := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: true,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")

	startup := retry.StartupRetrier()

	var dbConn *postgres.Connection
	err = startup.Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS: СЕССИИ ДИАЛОГОВ И КЕШ СТАТИСТИКИ
	// ─────────────────────────────────────────────────────────────────────────
	var sessions session.Store
	var statsCache query.StatsCache
	var redisClient *redis.Client

	if cfg.Redis.Disabled {
		log.Warn("redis disabled, using in-process session store")
		sessions = memory.NewSessionStore(cfg.App.SessionTTL)
	} else {
		log.Info("connecting to redis...")

		err = startup.Do(ctx, func(ctx context.Context) error {
			var connErr error
			redisClient, connErr = redis.NewClient(ctx, redis.Config{
				Host:         cfg.Redis.Host,
				Port:         cfg.Redis.Port,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				PoolSize:     cfg.Redis.PoolSize,
				MinIdleConns: cfg.Redis.MinIdleConns,
				DialTimeout:  cfg.Redis.DialTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			return connErr
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			log.Info("closing redis connection...")
			_ = redisClient.Close()
		}()

		sessions = redis.NewSessionStore(redisClient, cfg.App.SessionTTL)
		statsCache = redis.NewStatsCache(redisClient, cfg.App.StatsCacheTTL)
		log.Info("redis connection established")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. РЕПОЗИТОРИИ
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(dbConn)
	testRepo := postgres.NewTestRepository(dbConn)
	submissionRepo := postgres.NewSubmissionRepository(dbConn)
	channelRepo := postgres.NewChannelRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. TELEGRAM-КЛИЕНТ И СЕРВИСЫ
	// ─────────────────────────────────────────────────────────────────────────
	clientConfig := tgclient.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.Logger = log
	clientConfig.Debug = cfg.App.Debug
	client := tgclient.NewClient(clientConfig)

	notifier := service.NewNotifier(client, userRepo, infraLog)
	gate := service.NewMembershipGate(client, channelRepo, infraLog)
	broadcastSender := service.NewBroadcastSender(client)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	generator := quiz.NewGenerator(testRepo, nil)

	registerUserCmd := command.NewRegisterUserHandler(userRepo)
	createTestCmd := command.NewCreateTestHandler(testRepo, userRepo, generator, notifier)
	submitAnswersCmd := command.NewSubmitAnswersHandler(testRepo, submissionRepo, userRepo, notifier)
	endTestCmd := command.NewEndTestHandler(testRepo, userRepo, notifier)
	addChannelCmd := command.NewAddChannelHandler(channelRepo, client)
	removeChannelCmd := command.NewRemoveChannelHandler(channelRepo)
	grantAdminCmd := command.NewGrantAdminHandler(userRepo)
	broadcastCmd := command.NewBroadcastHandler(userRepo, broadcastSender)

	testStatsQuery := query.NewGetTestStatsHandler(testRepo, submissionRepo, userRepo, statsCache)
	myTestsQuery := query.NewGetMyTestsHandler(testRepo, submissionRepo, userRepo)
	myResultsQuery := query.NewGetMyResultsHandler(testRepo, submissionRepo, userRepo)
	adminOverviewQuery := query.NewGetAdminOverviewHandler(testRepo, userRepo, channelRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. НАЧАЛЬНЫЕ АДМИНИСТРАТОРЫ
	// ─────────────────────────────────────────────────────────────────────────
	if err := seedAdmins(ctx, userRepo, cfg.Telegram.AdminIDs, log); err != nil {
		return fmt.Errorf("failed to seed admins: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing telegram bot...")

	botConfig := telegram.DefaultBotConfig()
	botConfig.PollingTimeout = int(cfg.Telegram.PollingTimeout / time.Second)
	botConfig.Debug = cfg.App.Debug
	botConfig.Logger = log
	botConfig.GracefulShutdownTimeout = cfg.App.ShutdownTimeout

	bot, err := telegram.NewBot(botConfig, telegram.BotDependencies{
		Client:             client,
		Tests:              testRepo,
		Channels:           channelRepo,
		Sessions:           sessions,
		Gate:               gate,
		RegisterUserCmd:    registerUserCmd,
		CreateTestCmd:      createTestCmd,
		SubmitAnswersCmd:   submitAnswersCmd,
		EndTestCmd:         endTestCmd,
		AddChannelCmd:      addChannelCmd,
		RemoveChannelCmd:   removeChannelCmd,
		GrantAdminCmd:      grantAdminCmd,
		BroadcastCmd:       broadcastCmd,
		TestStatsQuery:     testStatsQuery,
		MyTestsQuery:       myTestsQuery,
		MyResultsQuery:     myResultsQuery,
		AdminOverviewQuery: adminOverviewQuery,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER (health, stats)
	// ─────────────────────────────────────────────────────────────────────────
	health := httpserver.NewHealthChecker()
	health.AddCheck("postgres", func(ctx context.Context) error {
		return dbConn.Ping(ctx)
	})
	if redisClient != nil {
		health.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx)
		})
	}

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port

	server := httpserver.NewServer(httpConfig, health, bot, infraLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	go func() {
		log.Info("starting http server", "address", httpConfig.Address())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	go func() {
		log.Info("starting telegram bot")
		if err := bot.Start(ctx); err != nil {
			errCh <- fmt.Errorf("telegram bot error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	if err := bot.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop bot gracefully", "error", err)
		shutdownErr = err
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop http server gracefully", "error", err)
		shutdownErr = err
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// seedAdmins выдаёт права администратора пользователям из конфигурации.
// Пользователь, ещё не писавший боту, создаётся сразу привилегированным.
func seedAdmins(ctx context.Context, users identity.Repository, ids []int64, log *slog.Logger) error {
	for _, id := range ids {
		user, err := users.GetByTelegramID(ctx, identity.TelegramID(id))
		switch {
		case err == nil:
			if user.IsAdmin {
				continue
			}
			user.IsAdmin = true
			if err := users.Update(ctx, user); err != nil {
				return fmt.Errorf("promote %d: %w", id, err)
			}
			log.Info("promoted configured admin", "telegram_id", id)

		case errors.Is(err, shared.ErrNotFound):
			user = identity.NewUser(uuid.NewString(), identity.TelegramID(id), "", "", time.Now().UTC())
			user.IsAdmin = true
			if err := users.Create(ctx, user); err != nil {
				return fmt.Errorf("create admin %d: %w", id, err)
			}
			log.Info("created configured admin", "telegram_id", id)

		default:
			return fmt.Errorf("lookup %d: %w", id, err)
		}
	}
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
