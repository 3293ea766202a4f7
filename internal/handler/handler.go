package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/taskreward/internal/config"
	"github.com/set-night/taskreward/internal/service"
	"github.com/set-night/taskreward/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	tasks       *service.TaskRegistry
	ledger      *service.Ledger
	timer       *service.TaskTimer
	rewards     *service.RewardService
	payouts     *service.PayoutService
	stats       *service.StatsService
	events      *telegram.EventLogger
	botUsername string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	Tasks       *service.TaskRegistry
	Ledger      *service.Ledger
	Timer       *service.TaskTimer
	Rewards     *service.RewardService
	Payouts     *service.PayoutService
	Stats       *service.StatsService
	Events      *telegram.EventLogger
	BotUsername string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		tasks:       deps.Tasks,
		ledger:      deps.Ledger,
		timer:       deps.Timer,
		rewards:     deps.Rewards,
		payouts:     deps.Payouts,
		stats:       deps.Stats,
		events:      deps.Events,
		botUsername: deps.BotUsername,
	}
}
