package telegram

import (
	"github.com/go-telegram/bot/models"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton creates a URL inline keyboard button.
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// Columns lays buttons out in rows of at most n.
func Columns(n int, buttons ...models.InlineKeyboardButton) [][]models.InlineKeyboardButton {
	if n <= 0 {
		n = 1
	}
	rows := make([][]models.InlineKeyboardButton, 0, (len(buttons)+n-1)/n)
	for len(buttons) > 0 {
		end := min(n, len(buttons))
		rows = append(rows, buttons[:end])
		buttons = buttons[end:]
	}
	return rows
}
