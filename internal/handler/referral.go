package handler

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/middleware"
	tg "github.com/set-night/taskreward/internal/telegram"
)

func (h *Handler) handleReferral(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	refLink := fmt.Sprintf("https://t.me/%s?start=%d", h.botUsername, user.ID)
	text := fmt.Sprintf(
		"👥 *Referral program*\n\n"+
			"Your link:\n`%s`\n\n"+
			"You get *%s* for every new user who joins with it.\n"+
			"Invited so far: *%d*",
		refLink,
		formatMoney(h.cfg.Currency, h.cfg.ReferralBonus),
		user.Referrals,
	)
	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, text, nil)
}
