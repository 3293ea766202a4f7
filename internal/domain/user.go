package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"totalEarned"`
	DailyEarned    decimal.Decimal `json:"dailyEarned"`
	TasksCompleted int             `json:"tasksCompleted"`
	Referrals      int             `json:"referrals"`
	ReferredBy     int64           `json:"referredBy,omitempty"`
	LastActivity   time.Time       `json:"lastActivity"`
	Joined         time.Time       `json:"joined"`
}

// WasReferred reports whether a referral has already been recorded for u.
func (u *User) WasReferred() bool {
	return u.ReferredBy != 0
}

// SameDay reports whether a and b fall on the same UTC calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ActiveBefore reports whether the user's last activity happened on a UTC
// calendar date strictly earlier than now's.
func (u *User) ActiveBefore(now time.Time) bool {
	if SameDay(u.LastActivity, now) {
		return false
	}
	return u.LastActivity.Before(now)
}
