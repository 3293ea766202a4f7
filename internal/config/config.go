package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	// Core
	BotToken string  `env:"BOT_TOKEN,required"`
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// State
	StateBackend string `env:"STATE_BACKEND" envDefault:"file"`
	StateFile    string `env:"STATE_FILE" envDefault:"data.json"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// Tasks
	TasksFile      string `env:"TASKS_FILE" envDefault:"tasks.yaml"`
	ProbeTaskLinks bool   `env:"PROBE_TASK_LINKS" envDefault:"false"`

	// Earning rules
	DailyLimit    decimal.Decimal            `env:"DAILY_LIMIT" envDefault:"5"`
	ReferralBonus decimal.Decimal            `env:"REFERRAL_BONUS" envDefault:"1"`
	MinWithdraw   map[string]decimal.Decimal `env:"MIN_WITHDRAW" envDefault:"faucetpay:0.05,payeer:2" envSeparator:"," envKeyValSeparator:":"`
	Currency      string                     `env:"CURRENCY" envDefault:"$"`

	// Dashboard
	DashboardAddr string `env:"DASHBOARD_ADDR" envDefault:":5001"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	// Logging
	LogLevel             slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogTelegramChatID    int64      `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int        `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int        `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicPayout       int        `env:"LOG_TOPIC_PAYOUT"`
	LogTopicTaskReward   int        `env:"LOG_TOPIC_TASK_REWARD"`
}

var decimalParsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
		return decimal.NewFromString(strings.TrimSpace(v))
	},
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{FuncMap: decimalParsers}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StateBackend {
	case BackendFile:
		if c.StateFile == "" {
			errs = append(errs, errors.New("STATE_FILE must be set for the file backend"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend))
	}
	if c.DailyLimit.IsNegative() {
		errs = append(errs, errors.New("DAILY_LIMIT must not be negative"))
	}
	if c.ReferralBonus.IsNegative() {
		errs = append(errs, errors.New("REFERRAL_BONUS must not be negative"))
	}
	if len(c.MinWithdraw) == 0 {
		errs = append(errs, errors.New("MIN_WITHDRAW must list at least one method"))
	}
	for method, minimum := range c.MinWithdraw {
		if strings.TrimSpace(method) == "" || !minimum.IsPositive() {
			errs = append(errs, fmt.Errorf("MIN_WITHDRAW entry %q must have a positive minimum", method))
		}
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
