package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	taskreward "github.com/set-night/taskreward"
	"github.com/set-night/taskreward/internal/clock"
	"github.com/set-night/taskreward/internal/config"
	"github.com/set-night/taskreward/internal/dashboard"
	"github.com/set-night/taskreward/internal/handler"
	"github.com/set-night/taskreward/internal/middleware"
	"github.com/set-night/taskreward/internal/repository"
	"github.com/set-night/taskreward/internal/service"
	"github.com/set-night/taskreward/internal/telegram"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Load task catalog
	taskDefs, err := config.LoadTasks(cfg.TasksFile)
	if err != nil {
		slog.Error("failed to load task catalog", "error", err, "path", cfg.TasksFile)
		os.Exit(1)
	}
	tasks, err := service.NewTaskRegistry(taskDefs)
	if err != nil {
		slog.Error("invalid task catalog", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open state storage
	persister, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open state storage", "error", err, "backend", cfg.StateBackend)
		os.Exit(1)
	}
	defer closeStore()

	// Initialize services
	clk := clock.System{}
	locks := service.NewUserLocks()
	gateway := service.NewGateway(persister, clk)
	ledger := service.NewLedger(gateway, clk, locks)
	timer := service.NewTaskTimer(tasks, gateway, clk, locks)
	rewards := service.NewRewardService(ledger, timer, tasks, gateway, locks)
	payouts := service.NewPayoutService(service.PayoutPolicy{
		MinWithdraw:      cfg.MinWithdraw,
		MinAddressLength: config.MinAddressLength,
	}, ledger, gateway, clk, locks)
	stats := service.NewStatsService(ledger, timer, payouts, gateway)

	if err := gateway.Restore(ctx); err != nil {
		slog.Error("failed to restore state", "error", err)
		os.Exit(1)
	}

	if cfg.ProbeTaskLinks {
		go service.NewLinkProbe().Check(ctx, tasks.List())
	}

	// Start dashboard
	go func() {
		if err := dashboard.NewServer(cfg.DashboardAddr, stats).Run(ctx); err != nil {
			slog.Error("dashboard stopped", "error", err)
		}
	}()

	// The event logger needs the bot, so the recover middleware resolves it lazily
	var events *telegram.EventLogger

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(eventReporter{&events}),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewChatLimiter(cfg.RateLimitPerMinute, clk)),
			middleware.UserLoader(ledger),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message != nil && update.Message.Chat.Type == models.ChatTypePrivate {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   "Use /tasks to see what you can do.",
				})
			}
		}),
	}
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	events = telegram.NewEventLogger(b, cfg)

	// Initialize handler
	h := handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		Tasks:       tasks,
		Ledger:      ledger,
		Timer:       timer,
		Rewards:     rewards,
		Payouts:     payouts,
		Stats:       stats,
		Events:      events,
		BotUsername: me.Username,
	})

	// Register all handlers
	h.Register()

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID, "state_revision", gateway.Revision())
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}

// openStore returns the configured snapshot backend and its cleanup func.
func openStore(ctx context.Context, cfg *config.Config) (service.Persister, func(), error) {
	switch cfg.StateBackend {
	case config.BackendPostgres:
		migrationsFS, err := fs.Sub(taskreward.MigrationsFS, "migrations")
		if err != nil {
			return nil, nil, err
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			return nil, nil, err
		}
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool), pool.Close, nil
	default:
		return repository.NewFileStore(cfg.StateFile), func() {}, nil
	}
}

// eventReporter resolves the event logger lazily; it is created after the
// bot, but the middleware chain is fixed at bot construction.
type eventReporter struct {
	events **telegram.EventLogger
}

func (r eventReporter) LogError(err error, where string) {
	(*r.events).LogError(err, where)
}
