package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			updateType := "unknown"
			var chatID, userID int64
			var payload string

			if update.Message != nil {
				updateType = "message"
				chatID = update.Message.Chat.ID
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
				if len(update.Message.Entities) > 0 && update.Message.Entities[0].Type == models.MessageEntityTypeBotCommand {
					e := update.Message.Entities[0]
					payload = commandText(update.Message.Text, e.Offset, e.Length)
				}
			} else if update.CallbackQuery != nil {
				updateType = "callback_query"
				if update.CallbackQuery.Message.Message != nil {
					chatID = update.CallbackQuery.Message.Message.Chat.ID
				}
				userID = update.CallbackQuery.From.ID
				payload = update.CallbackQuery.Data
			}

			next(ctx, b, update)

			slog.Debug("update processed",
				"type", updateType,
				"chat_id", chatID,
				"user_id", userID,
				"payload", payload,
				"duration", time.Since(start),
			)
		}
	}
}

// commandText extracts the command entity; offsets are in UTF-16 units but
// commands are ASCII and sit at the start of the message in practice.
func commandText(text string, offset, length int) string {
	if offset < 0 || length <= 0 || offset+length > len(text) {
		return ""
	}
	return text[offset : offset+length]
}
