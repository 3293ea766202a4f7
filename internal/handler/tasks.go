package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/middleware"
	tg "github.com/set-night/taskreward/internal/telegram"
)

func (h *Handler) handleTasks(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	text, keyboard := h.taskList(*user)
	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, text, keyboard)
}

func (h *Handler) handleTasksCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	q := update.CallbackQuery
	tg.AnswerCallback(ctx, b, q.ID, "", false)

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	text, keyboard := h.taskList(*user)
	tg.SendLongMessage(ctx, b, callbackChatID(q), text, keyboard)
}

// taskList renders the catalog with one button per task.
func (h *Handler) taskList(user domain.User) (string, models.ReplyMarkup) {
	tasks := h.tasks.List()
	if len(tasks) == 0 {
		return "📋 No tasks available right now.", nil
	}

	var sb strings.Builder
	sb.WriteString("📋 *Available tasks:*\n\n")
	buttons := make([]models.InlineKeyboardButton, 0, len(tasks))
	for _, t := range tasks {
		marker := "•"
		if h.timer.IsClaimable(user.ID, t.Key) {
			marker = "🎁"
		} else if _, running := h.timer.Attempt(user.ID, t.Key); running {
			marker = "⏳"
		}
		fmt.Fprintf(&sb, "%s *%s* — %s (%s)\n", marker, tg.EscapeMarkdown(t.Name),
			formatMoney(h.cfg.Currency, t.Reward), formatWait(t.Wait))
		buttons = append(buttons, tg.InlineButton(t.Name, taskCallbackPrefix+t.Key))
	}
	if !h.ledger.CanEarnToday(user, h.cfg.DailyLimit) {
		sb.WriteString("\n🛑 Daily earning limit reached. Come back tomorrow.")
	}
	return sb.String(), tg.InlineKeyboard(tg.Columns(2, buttons...)...)
}

func (h *Handler) handleStartTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	q := update.CallbackQuery
	user := middleware.GetUser(ctx)
	if user == nil {
		tg.AnswerCallback(ctx, b, q.ID, "", false)
		return
	}

	key := strings.TrimPrefix(q.Data, taskCallbackPrefix)
	attempt, err := h.rewards.StartTask(ctx, user.ID, key, h.cfg.DailyLimit)
	if err != nil {
		h.answerError(ctx, b, q, err, "start task")
		return
	}
	tg.AnswerCallback(ctx, b, q.ID, "", false)

	def, _ := h.tasks.Lookup(key)
	remaining := h.timer.RemainingTime(user.ID, key)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📌 *%s*\n\n", tg.EscapeMarkdown(def.Name))
	if def.Description != "" {
		sb.WriteString(tg.EscapeMarkdown(def.Description) + "\n\n")
	}
	fmt.Fprintf(&sb, "💰 Reward: %s\n", formatMoney(h.cfg.Currency, def.Reward))
	if remaining > 0 {
		fmt.Fprintf(&sb, "⏳ Claim available in %s.", formatWait(remaining))
	} else {
		sb.WriteString("🎁 Ready to claim.")
	}

	var rows [][]models.InlineKeyboardButton
	for i, link := range def.Links {
		rows = append(rows, tg.ButtonRow(tg.URLButton(fmt.Sprintf("🔗 Open link %d", i+1), link)))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("🎁 Claim reward", claimCallbackPrefix+key)))

	slog.Debug("task started", "user_id", user.ID, "task", key, "started_at", attempt.StartedAt)
	tg.SendLongMessage(ctx, b, callbackChatID(q), sb.String(), tg.InlineKeyboard(rows...))
}

func (h *Handler) handleClaimTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	q := update.CallbackQuery
	user := middleware.GetUser(ctx)
	if user == nil {
		tg.AnswerCallback(ctx, b, q.ID, "", false)
		return
	}

	key := strings.TrimPrefix(q.Data, claimCallbackPrefix)
	updated, err := h.rewards.ClaimTask(ctx, user.ID, key, h.cfg.DailyLimit)
	if err != nil {
		h.answerError(ctx, b, q, err, "claim task")
		return
	}
	def, _ := h.tasks.Lookup(key)
	tg.AnswerCallback(ctx, b, q.ID, "✅ Reward credited!", false)
	h.events.LogTaskReward(user.ID, def.Name, def.Reward)

	text := fmt.Sprintf("✅ *%s* completed!\n\n💰 +%s\nBalance: %s",
		tg.EscapeMarkdown(def.Name),
		formatMoney(h.cfg.Currency, def.Reward),
		formatMoney(h.cfg.Currency, updated.Balance))
	keyboard := tg.InlineKeyboard(tg.ButtonRow(tg.InlineButton("📋 More tasks", tasksCallback)))

	if msgID := callbackMessageID(q); msgID != 0 {
		if err := tg.EditMessage(ctx, b, callbackChatID(q), msgID, text, keyboard); err == nil {
			return
		}
	}
	tg.SendLongMessage(ctx, b, callbackChatID(q), text, keyboard)
}

// answerError shows a service error as a callback alert.
func (h *Handler) answerError(ctx context.Context, b *bot.Bot, q *models.CallbackQuery, err error, where string) {
	msg, known := userMessage(err)
	if !known {
		slog.Error(where, "error", err, "user_id", q.From.ID, "data", q.Data)
		h.events.LogError(err, where)
	}
	tg.AnswerCallback(ctx, b, q.ID, msg, true)
}

// replyError answers a command with a service error.
func (h *Handler) replyError(ctx context.Context, b *bot.Bot, chatID int64, err error, where string) {
	msg, known := userMessage(err)
	if !known {
		slog.Error(where, "error", err, "chat_id", chatID)
		h.events.LogError(err, where)
	}
	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msg})
}
