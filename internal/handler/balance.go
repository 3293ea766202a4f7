package handler

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/middleware"
	tg "github.com/set-night/taskreward/internal/telegram"
)

func (h *Handler) handleBalance(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	canEarn := h.ledger.CanEarnToday(*user, h.cfg.DailyLimit)
	today := h.ledger.EarnedToday(*user)
	status := "✅ You can earn today"
	if !canEarn {
		status = "🛑 Daily limit reached"
	}

	text := fmt.Sprintf(
		"💰 *Balance:* %s\n"+
			"📈 *Total earned:* %s\n"+
			"📅 *Today:* %s / %s\n"+
			"✔️ *Tasks completed:* %d\n"+
			"👥 *Referrals:* %d\n\n%s",
		formatMoney(h.cfg.Currency, user.Balance),
		formatMoney(h.cfg.Currency, user.TotalEarned),
		formatMoney(h.cfg.Currency, today),
		formatMoney(h.cfg.Currency, h.cfg.DailyLimit),
		user.TasksCompleted,
		user.Referrals,
		status,
	)
	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, text, nil)
}
