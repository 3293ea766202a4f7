package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/middleware"
	tg "github.com/set-night/taskreward/internal/telegram"
)

func (h *Handler) handlePayout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args, err := parsePayoutArgs(update.Message.Text)
	if errors.Is(err, errUsage) {
		tg.SendLongMessage(ctx, b, chatID, h.payoutUsage(), nil)
		return
	}
	if err != nil {
		h.replyError(ctx, b, chatID, err, "parse payout")
		return
	}

	amount := args.amount
	if args.all {
		current, err := h.ledger.Get(user.ID)
		if err != nil {
			h.replyError(ctx, b, chatID, err, "load balance")
			return
		}
		amount = current.Balance
	}

	req, err := h.payouts.CreateRequest(ctx, user.ID, user.Username, amount, args.method, args.address)
	if err != nil {
		h.replyError(ctx, b, chatID, err, "create payout")
		return
	}
	h.events.LogPayout(req)

	tg.SendLongMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Payout request created.\n\n%s\n\nYou will be notified when it is processed.",
		formatRequest(req, h.cfg.Currency)), nil)

	h.notifyAdmins(ctx, b, fmt.Sprintf(
		"💸 *New payout request*\n\nUser: `%d` @%s\n%s\n\n%s",
		req.UserID, tg.EscapeMarkdown(req.Username), formatRequest(req, h.cfg.Currency), adminActions(req.ID)))
}

func (h *Handler) payoutUsage() string {
	var sb strings.Builder
	sb.WriteString("Usage: /payout <method> <address> [amount]\n\n")
	sb.WriteString("Without an amount your whole balance is requested.\n\nMethods:\n")
	for _, m := range h.payouts.Methods() {
		fmt.Fprintf(&sb, "• %s (min %s)\n", m.Name, formatMoney(h.cfg.Currency, m.Minimum))
	}
	return sb.String()
}

func (h *Handler) handleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	requests := h.payouts.ListForUser(user.ID)
	if len(requests) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "📭 You have no payout requests.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("📄 *Your payout requests:*\n\n")
	for _, r := range requests {
		sb.WriteString(formatRequest(r, h.cfg.Currency) + "\n")
	}
	tg.SendLongMessage(ctx, b, update.Message.Chat.ID, sb.String(), nil)
}

// notifyUser tells the owner of req about its new status.
func (h *Handler) notifyUser(ctx context.Context, b *bot.Bot, req domain.PayoutRequest) {
	var text string
	switch req.Status {
	case domain.PayoutStatusApproved:
		text = fmt.Sprintf("✅ Your payout of %s via %s was approved.",
			formatMoney(h.cfg.Currency, req.Amount), req.Method)
	case domain.PayoutStatusRejected:
		text = fmt.Sprintf("❌ Your payout of %s was rejected: %s\nThe amount was returned to your balance.",
			formatMoney(h.cfg.Currency, req.Amount), req.AdminNote)
	default:
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: req.UserID, Text: text})
}

func (h *Handler) notifyAdmins(ctx context.Context, b *bot.Bot, text string) {
	for _, id := range h.cfg.AdminIDs {
		tg.SendLongMessage(ctx, b, id, text, nil)
	}
}
