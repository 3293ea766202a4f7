package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/taskreward/internal/domain"
)

type ctxKey string

const (
	UserKey    ctxKey = "user"
	NewUserKey ctxKey = "new_user"
)

// UserStore creates users on first contact.
type UserStore interface {
	GetOrCreate(ctx context.Context, userID int64, username string) (domain.User, bool, error)
}

// GetUser extracts user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// IsNewUser reports whether the user was created by this update.
func IsNewUser(ctx context.Context) bool {
	created, _ := ctx.Value(NewUserKey).(bool)
	return created
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *domain.User, created bool) context.Context {
	ctx = context.WithValue(ctx, UserKey, u)
	return context.WithValue(ctx, NewUserKey, created)
}

// UserLoader returns middleware that loads the sender into context,
// registering them on first contact.
func UserLoader(users UserStore) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil || from.IsBot {
				next(ctx, b, update)
				return
			}

			user, created, err := users.GetOrCreate(ctx, from.ID, from.Username)
			if err != nil {
				slog.Error("load user", "error", err, "user_id", from.ID)
			} else {
				ctx = WithUser(ctx, &user, created)
			}

			next(ctx, b, update)
		}
	}
}
