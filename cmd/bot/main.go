package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/config"
	"github.com/aliskhannn/testroom/internal/delivery/rest"
	"github.com/aliskhannn/testroom/internal/delivery/telegram"
	"github.com/aliskhannn/testroom/internal/infra/postgres"
	"github.com/aliskhannn/testroom/internal/infra/postgres/repository"
	"github.com/aliskhannn/testroom/internal/logger"
	"github.com/aliskhannn/testroom/internal/service"
	"github.com/aliskhannn/testroom/internal/storage"
)

// deadlineBackend is a session deadline store the whole application can share.
type deadlineBackend interface {
	service.DeadlineStore
	service.DeadlineCleaner
	service.DeadlinePurger
}

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		lg.Fatal("database is not configured", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	tx := postgres.NewTransactor(pool)

	var deadlines deadlineBackend
	switch cfg.Session.TimerStore {
	case config.TimerStoreMemory:
		deadlines = storage.NewDeadlineStorage()
	default:
		deadlines = repository.NewDeadlineRepository(pool)
	}

	userService := service.NewUserService(userRepo)
	testService := service.NewTestService(testRepo, attemptRepo, deadlines, tx, lg)
	attemptService := service.NewAttemptService(attemptRepo)

	sessions := service.NewSessionManager(ctx, service.SessionDeps{
		Bank:          testRepo,
		Recorder:      attemptRepo,
		Store:         deadlines,
		Sampler:       service.NewSampler(nil),
		Logger:        lg,
		TickInterval:  cfg.Session.TickInterval,
		SubmitTimeout: cfg.Session.SubmitTimeout,
	})
	defer sessions.Shutdown()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		lg.Fatal("failed to create telegram bot", zap.Error(err))
	}

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "tests", Description: "Available tests"},
		{Command: "history", Description: "Your latest results"},
		{Command: "help", Description: "Help"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	bot.Debug = cfg.Env == "local"
	lg.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	handler := telegram.NewHandler(
		bot,
		lg,
		userService,
		testService,
		attemptService,
		sessions,
		cfg.Session.HistoryLimit,
	)
	sessions.SetNotifier(handler)

	sweeper := service.NewDeadlineSweeper(deadlines, cfg.Session.SweepSchedule, cfg.Session.StaleDeadlineAfter, lg)
	go func() {
		if err := sweeper.Start(ctx); err != nil {
			lg.Error("deadline sweeper stopped", zap.Error(err))
		}
	}()

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: rest.NewRouter(testService, lg, rest.Options{
			Token:          cfg.AdminAPIToken,
			IsAdmin:        cfg.IsAdmin,
			MaxUploadBytes: cfg.HTTP.MaxUploadMiB << 20,
		}),
		ReadTimeout: cfg.HTTP.ReadTimeout,
	}
	go func() {
		lg.Info("admin api listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("admin api stopped", zap.Error(err))
			stop()
		}
	}()

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("telegram handler stopped", zap.Error(err))
	}
	bot.StopReceivingUpdates()

	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Warn("admin api shutdown", zap.Error(err))
	}
}
