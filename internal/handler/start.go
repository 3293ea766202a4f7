package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/middleware"
	tg "github.com/set-night/taskreward/internal/telegram"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != models.ChatTypePrivate {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		h.replyError(ctx, b, update.Message.Chat.ID, errors.New("user not loaded"), "start")
		return
	}
	chatID := update.Message.Chat.ID

	if middleware.IsNewUser(ctx) {
		referrerID := parseStartPayload(update.Message.Text)
		if referrerID != 0 {
			h.creditReferral(ctx, b, referrerID, user)
		}
		h.events.LogRegistration(user.ID, user.Username, referrerID)
	}

	text := fmt.Sprintf(
		"👋 Welcome!\n\n"+
			"Complete simple tasks and earn rewards.\n\n"+
			"📋 *Commands:*\n"+
			"/tasks — Available tasks\n"+
			"/balance — Your balance\n"+
			"/referral — Invite friends (+%s each)\n"+
			"/payout — Withdraw earnings\n"+
			"/requests — Your payout requests",
		formatMoney(h.cfg.Currency, h.cfg.ReferralBonus),
	)

	tg.SendLongMessage(ctx, b, chatID, text, tg.InlineKeyboard(
		tg.ButtonRow(tg.InlineButton("📋 Tasks", tasksCallback)),
	))
}

func (h *Handler) creditReferral(ctx context.Context, b *bot.Bot, referrerID int64, user *domain.User) {
	referrer, credited, err := h.rewards.CreditReferral(ctx, referrerID, user.ID, h.cfg.ReferralBonus)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSelfReferral) {
			slog.Info("referral ignored", "referrer_id", referrerID, "user_id", user.ID, "reason", err)
			return
		}
		slog.Error("credit referral", "error", err, "referrer_id", referrerID, "user_id", user.ID)
		h.events.LogError(err, "credit referral")
		return
	}
	if !credited {
		return
	}
	user.ReferredBy = referrerID

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: referrerID,
		Text: fmt.Sprintf("🎉 A new user joined with your link! +%s\nBalance: %s",
			formatMoney(h.cfg.Currency, h.cfg.ReferralBonus),
			formatMoney(h.cfg.Currency, referrer.Balance)),
	})
}
