package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/config"
)

// SendLongMessage sends text in as many parts as needed, attaching the
// keyboard to the last one. Falls back to plain text if Markdown parsing fails.
func SendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, replyMarkup models.ReplyMarkup) error {
	parts := SplitMessage(text, config.MaxTelegramMessageLen)

	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if i == len(parts)-1 && replyMarkup != nil {
			params.ReplyMarkup = replyMarkup
		}

		if _, err := b.SendMessage(ctx, params); err != nil {
			slog.Debug("markdown send failed, retrying as plain text", "chat_id", chatID, "error", err)
			params.ParseMode = ""
			if _, err := b.SendMessage(ctx, params); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}

	return nil
}

// EditMessage replaces the text and keyboard of an existing message.
func EditMessage(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, replyMarkup models.ReplyMarkup) error {
	params := &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        Truncate(text, config.MaxTelegramMessageLen),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: replyMarkup,
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		params.ParseMode = ""
		if _, err := b.EditMessageText(ctx, params); err != nil {
			return fmt.Errorf("edit message: %w", err)
		}
	}
	return nil
}

// AnswerCallback acknowledges a callback query, optionally with an alert.
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		slog.Debug("answer callback failed", "error", err)
	}
}
