package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/middleware"
	tg "github.com/set-night/taskreward/internal/telegram"
)

// isAdminMessage reports whether update is a message from a configured admin.
func (h *Handler) isAdminMessage(ctx context.Context, update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	user := middleware.GetUser(ctx)
	return user != nil && h.cfg.IsAdmin(user.ID)
}

func (h *Handler) handlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.isAdminMessage(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	pending := h.payouts.ListPending()
	if len(pending) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "📭 No pending requests."})
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ *Pending requests (%d):*\n\n", len(pending))
	for _, r := range pending {
		fmt.Fprintf(&sb, "`%d` @%s\n%s\n\n", r.UserID, tg.EscapeMarkdown(r.Username), formatRequest(r, h.cfg.Currency))
	}
	tg.SendLongMessage(ctx, b, chatID, sb.String(), nil)
}

func (h *Handler) handleApprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.isAdminMessage(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	id, err := parseRequestID(update.Message.Text)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "Usage: /approve <request id>"})
		return
	}
	req, err := h.payouts.Approve(ctx, id)
	if err != nil {
		h.replyError(ctx, b, chatID, err, "approve payout")
		return
	}
	h.afterProcessed(ctx, b, chatID, req)
}

func (h *Handler) handleReject(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.isAdminMessage(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	id, reason, err := parseRejectArgs(update.Message.Text)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "Usage: /reject <request id> <reason>"})
		return
	}
	req, err := h.payouts.Reject(ctx, id, reason)
	if err != nil {
		h.replyError(ctx, b, chatID, err, "reject payout")
		return
	}
	h.afterProcessed(ctx, b, chatID, req)
}

func (h *Handler) handleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.isAdminMessage(ctx, update) {
		return
	}
	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, formatStats(h.stats.Collect(), h.cfg.Currency), nil)
}

func (h *Handler) afterProcessed(ctx context.Context, b *bot.Bot, chatID int64, req domain.PayoutRequest) {
	h.events.LogPayout(req)
	h.notifyUser(ctx, b, req)
	tg.SendLongMessage(ctx, b, chatID, fmt.Sprintf("Done.\n\n%s", formatRequest(req, h.cfg.Currency)), nil)
}
