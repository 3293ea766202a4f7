package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/set-night/taskreward/internal/domain"
)

func TestTaskTimerStart(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	a, err := c.timer.Start(ctx, 1, "like")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.StartedAt.Equal(testStart) || a.UserID != 1 || a.TaskKey != "like" {
		t.Fatalf("attempt = %+v", a)
	}
	if got := c.timer.RemainingTime(1, "like"); got != 30 {
		t.Fatalf("RemainingTime = %d, want 30", got)
	}

	c.clock.Advance(10 * time.Second)
	_, err = c.timer.Start(ctx, 1, "like")
	var running *domain.AttemptRunningError
	if !errors.As(err, &running) || running.Remaining != 20 {
		t.Fatalf("restart = %v, want AttemptRunningError{20}", err)
	}
	if !errors.Is(err, domain.ErrAttemptAlreadyRunning) {
		t.Fatalf("restart should match ErrAttemptAlreadyRunning")
	}

	c.clock.Advance(25 * time.Second)
	again, err := c.timer.Start(ctx, 1, "like")
	if err != nil {
		t.Fatalf("Start on claimable attempt: %v", err)
	}
	if !again.StartedAt.Equal(testStart) {
		t.Fatalf("claimable attempt was restarted: %+v", again)
	}
}

func TestTaskTimerUnknownTask(t *testing.T) {
	c := newTestCore(t)
	for _, key := range []string{"missing", "visit"} {
		if _, err := c.timer.Start(context.Background(), 1, key); !errors.Is(err, domain.ErrUnknownTask) {
			t.Fatalf("Start(%s) = %v, want ErrUnknownTask", key, err)
		}
	}
	if c.timer.ActiveCount() != 0 {
		t.Fatalf("unknown task recorded an attempt")
	}
}

func TestTaskTimerQueriesAreReadOnly(t *testing.T) {
	c := newTestCore(t)
	if _, err := c.timer.Start(context.Background(), 1, "like"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	saves := c.persister.saveCount()
	before := c.gw.Snapshot()

	for range 5 {
		c.timer.RemainingTime(1, "like")
		c.timer.IsClaimable(1, "like")
		c.timer.RemainingTime(2, "watch")
		c.timer.IsClaimable(2, "watch")
	}

	after := c.gw.Snapshot()
	if c.persister.saveCount() != saves {
		t.Fatalf("queries triggered a save")
	}
	if len(after.TaskAttempts) != len(before.TaskAttempts) || len(after.Users) != len(before.Users) {
		t.Fatalf("queries changed state")
	}
	if got := c.timer.RemainingTime(2, "watch"); got != 0 {
		t.Fatalf("RemainingTime without attempt = %d, want 0", got)
	}
	if c.timer.IsClaimable(2, "watch") {
		t.Fatalf("IsClaimable true without attempt")
	}
}

func TestTaskTimerRemainingRoundsUp(t *testing.T) {
	c := newTestCore(t)
	if _, err := c.timer.Start(context.Background(), 1, "like"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.clock.Advance(29*time.Second + 500*time.Millisecond)
	if got := c.timer.RemainingTime(1, "like"); got != 1 {
		t.Fatalf("RemainingTime = %d, want 1", got)
	}
	if c.timer.IsClaimable(1, "like") {
		t.Fatalf("claimable before wait elapsed")
	}
	c.clock.Advance(500 * time.Millisecond)
	if !c.timer.IsClaimable(1, "like") || c.timer.RemainingTime(1, "like") != 0 {
		t.Fatalf("not claimable at exactly the wait")
	}
}
