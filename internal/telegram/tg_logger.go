package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/config"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/shopspring/decimal"
)

// messageSender is the part of *bot.Bot the event logger needs.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// EventLogger mirrors business events into forum topics of an admin chat.
type EventLogger struct {
	sender messageSender
	cfg    *config.Config
}

func NewEventLogger(sender messageSender, cfg *config.Config) *EventLogger {
	return &EventLogger{sender: sender, cfg: cfg}
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
	LogTypePayout       LogType = "payout"
	LogTypeTaskReward   LogType = "taskReward"
)

func (l *EventLogger) Log(logType LogType, message string) {
	if l == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.topicID(logType)
	if topicID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.EventLogTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            Truncate(message, config.MaxTelegramMessageLen),
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: topicID,
	}
	if _, err := l.sender.SendMessage(ctx, params); err != nil {
		slog.Debug("markdown log failed, retrying as plain text", "type", logType, "error", err)
		params.ParseMode = ""
		if _, err := l.sender.SendMessage(ctx, params); err != nil {
			slog.Error("failed to send telegram log", "type", logType, "error", err)
		}
	}
}

func (l *EventLogger) LogError(err error, where string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		EscapeMarkdown(where), err.Error(), time.Now().UTC().Format(time.DateTime))
	l.Log(LogTypeError, msg)
}

func (l *EventLogger) LogRegistration(userID int64, username string, referredBy int64) {
	msg := fmt.Sprintf("👤 *New User*\n\n*ID:* `%d`\n*Username:* @%s", userID, EscapeMarkdown(username))
	if referredBy != 0 {
		msg += fmt.Sprintf("\n*Referred by:* `%d`", referredBy)
	}
	l.Log(LogTypeRegistration, msg)
}

func (l *EventLogger) LogTaskReward(userID int64, taskName string, reward decimal.Decimal) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf("✅ *Task Claimed*\n\n*User:* `%d`\n*Task:* %s\n*Reward:* %s%s",
		userID, EscapeMarkdown(taskName), l.cfg.Currency, reward.String())
	l.Log(LogTypeTaskReward, msg)
}

func (l *EventLogger) LogPayout(req domain.PayoutRequest) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf("💸 *Payout %s*\n\n*Request:* `%s`\n*User:* `%d`\n*Amount:* %s%s\n*Method:* %s\n*Address:* `%s`",
		req.Status, req.ID, req.UserID, l.cfg.Currency, req.Amount.String(), req.Method, req.Address)
	if req.AdminNote != "" {
		msg += fmt.Sprintf("\n*Note:* %s", EscapeMarkdown(req.AdminNote))
	}
	l.Log(LogTypePayout, msg)
}

func (l *EventLogger) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypePayout:
		return l.cfg.LogTopicPayout
	case LogTypeTaskReward:
		return l.cfg.LogTopicTaskReward
	default:
		return 0
	}
}
