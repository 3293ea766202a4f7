package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/clock"
)

// ChatLimiter counts messages per chat in fixed one-minute windows.
type ChatLimiter struct {
	mu      sync.Mutex
	limit   int
	clock   clock.Clock
	windows map[int64]*window
}

type window struct {
	start time.Time
	count int
}

// NewChatLimiter allows limit messages per chat per minute. A limit of zero
// disables limiting.
func NewChatLimiter(limit int, clk clock.Clock) *ChatLimiter {
	return &ChatLimiter{
		limit:   limit,
		clock:   clk,
		windows: make(map[int64]*window),
	}
}

// Allow records one message for chatID and reports whether it is within the
// limit.
func (l *ChatLimiter) Allow(chatID int64) bool {
	if l.limit <= 0 {
		return true
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[chatID]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.evict(now)
		w = &window{start: now}
		l.windows[chatID] = w
	}
	w.count++
	return w.count <= l.limit
}

// evict drops expired windows; called with mu held.
func (l *ChatLimiter) evict(now time.Time) {
	for id, w := range l.windows {
		if now.Sub(w.start) >= time.Minute {
			delete(l.windows, id)
		}
	}
}

// RateLimit returns middleware that enforces per-minute rate limits.
func RateLimit(limiter *ChatLimiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only messages count; buttons stay responsive.
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiter.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", limiter.limit)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Please wait a minute.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
