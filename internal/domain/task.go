package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type TaskDefinition struct {
	Key         string
	Name        string
	Description string
	Reward      decimal.Decimal
	Wait        int // seconds
	Links       []string
	Active      bool
}

func (t *TaskDefinition) WaitDuration() time.Duration {
	return time.Duration(t.Wait) * time.Second
}

type TaskAttempt struct {
	UserID    int64     `json:"userId"`
	TaskKey   string    `json:"taskKey"`
	StartedAt time.Time `json:"startedAt"`
}

func (a *TaskAttempt) Elapsed(now time.Time) time.Duration {
	d := now.Sub(a.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns the whole seconds left before the attempt can be claimed,
// rounded up so that zero means claimable.
func (a *TaskAttempt) Remaining(now time.Time, wait time.Duration) int {
	left := wait - a.Elapsed(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func (a *TaskAttempt) Claimable(now time.Time, wait time.Duration) bool {
	return a.Elapsed(now) >= wait
}
