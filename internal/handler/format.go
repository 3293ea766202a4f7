package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/service"
	tg "github.com/set-night/taskreward/internal/telegram"
	"github.com/shopspring/decimal"
)

const (
	taskCallbackPrefix  = "task_"
	claimCallbackPrefix = "claim_"
	tasksCallback       = "tasks"
)

var errUsage = errors.New("usage")

// parseStartPayload returns the referrer id carried by "/start <id>", or 0.
func parseStartPayload(text string) int64 {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(parts[1], "r_"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

type payoutArgs struct {
	method  string
	address string
	amount  decimal.Decimal
	all     bool
}

// parsePayoutArgs reads "/payout <method> <address> [amount]". Without an
// amount the whole balance is requested.
func parsePayoutArgs(text string) (payoutArgs, error) {
	parts := strings.Fields(text)
	if len(parts) < 3 || len(parts) > 4 {
		return payoutArgs{}, errUsage
	}
	args := payoutArgs{
		method:  strings.ToLower(parts[1]),
		address: parts[2],
		all:     true,
	}
	if len(parts) == 4 {
		amount, err := decimal.NewFromString(strings.ReplaceAll(parts[3], ",", "."))
		if err != nil {
			return payoutArgs{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
		}
		args.amount = amount
		args.all = false
	}
	return args, nil
}

// parseRejectArgs reads "/reject <id> <reason...>".
func parseRejectArgs(text string) (string, string, error) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return "", "", errUsage
	}
	return parts[1], strings.Join(parts[2:], " "), nil
}

// parseRequestID reads "/approve <id>".
func parseRequestID(text string) (string, error) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return "", errUsage
	}
	return parts[1], nil
}

func formatMoney(currency string, amount decimal.Decimal) string {
	return currency + amount.StringFixedBank(2)
}

func formatWait(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// userMessage turns a service error into a reply. ok is false for internal
// errors the user should not see.
func userMessage(err error) (string, bool) {
	var waiting *domain.TaskStillWaitingError
	var running *domain.AttemptRunningError
	switch {
	case errors.As(err, &waiting):
		return fmt.Sprintf("⏳ Not yet. %s left before you can claim.", formatWait(waiting.Remaining)), true
	case errors.As(err, &running):
		return fmt.Sprintf("⏳ Task already started. %s left.", formatWait(running.Remaining)), true
	case errors.Is(err, domain.ErrUnknownTask):
		return "❌ This task is not available.", true
	case errors.Is(err, domain.ErrTaskNotStarted):
		return "❌ Start the task first.", true
	case errors.Is(err, domain.ErrDailyLimitReached):
		return "🛑 Daily earning limit reached. Come back tomorrow.", true
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "❌ Insufficient balance.", true
	case errors.Is(err, domain.ErrExistingPendingRequest):
		return "⏳ You already have a pending payout request.", true
	case errors.Is(err, domain.ErrInvalidAddress):
		return "❌ Invalid payment address.", true
	case errors.Is(err, domain.ErrInvalidAmount):
		return "❌ Invalid amount.", true
	case errors.Is(err, domain.ErrUnknownMethod):
		return "❌ Unknown payout method.", true
	case errors.Is(err, domain.ErrBelowMinimum):
		return "❌ Amount is below the minimum for this method.", true
	case errors.Is(err, domain.ErrRequestNotPending):
		return "❌ Request is already processed.", true
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Not found.", true
	case errors.Is(err, domain.ErrSelfReferral):
		return "❌ You cannot refer yourself.", true
	default:
		return "⚠️ Something went wrong. Please try again later.", false
	}
}

func formatRequest(r domain.PayoutRequest, currency string) string {
	line := fmt.Sprintf("`%s` %s via %s to `%s` [%s]",
		r.ID, formatMoney(currency, r.Amount), r.Method, r.Address, r.Status)
	if r.AdminNote != "" {
		line += " " + tg.EscapeMarkdown(r.AdminNote)
	}
	return line
}

func formatStats(s service.Stats, currency string) string {
	var sb strings.Builder
	sb.WriteString("📊 *Bot statistics*\n\n")
	fmt.Fprintf(&sb, "Users: %d\n", s.TotalUsers)
	fmt.Fprintf(&sb, "Total balance: %s\n", formatMoney(currency, s.TotalBalance))
	fmt.Fprintf(&sb, "Total earned: %s\n", formatMoney(currency, s.TotalEarned))
	fmt.Fprintf(&sb, "Total paid out: %s\n\n", formatMoney(currency, s.TotalPaidOut))
	fmt.Fprintf(&sb, "Pending requests: %d\n", s.PendingPayouts)
	fmt.Fprintf(&sb, "Approved requests: %d\n", s.ApprovedPayouts)
	fmt.Fprintf(&sb, "Rejected requests: %d\n", s.RejectedPayouts)
	fmt.Fprintf(&sb, "Running tasks: %d", s.ActiveAttempts)
	return sb.String()
}

// adminActions renders the approve and reject commands for a request. Ids
// contain underscores, so they go inside code spans.
func adminActions(id string) string {
	return fmt.Sprintf("`/approve %s`\n`/reject %s <reason>`", id, id)
}

// callbackChatID returns the chat of the message the button belongs to.
func callbackChatID(q *models.CallbackQuery) int64 {
	if q.Message.Message != nil {
		return q.Message.Message.Chat.ID
	}
	return q.From.ID
}

func callbackMessageID(q *models.CallbackQuery) int {
	if q.Message.Message != nil {
		return q.Message.Message.ID
	}
	return 0
}
