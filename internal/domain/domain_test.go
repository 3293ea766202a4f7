package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAttemptRemainingRoundsUp(t *testing.T) {
	start := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	a := TaskAttempt{UserID: 1, TaskKey: "watch", StartedAt: start}
	wait := 30 * time.Second

	cases := []struct {
		elapsed   time.Duration
		remaining int
		claimable bool
	}{
		{0, 30, false},
		{500 * time.Millisecond, 30, false},
		{29*time.Second + 10*time.Millisecond, 1, false},
		{30 * time.Second, 0, true},
		{2 * time.Minute, 0, true},
	}
	for _, tc := range cases {
		now := start.Add(tc.elapsed)
		if got := a.Remaining(now, wait); got != tc.remaining {
			t.Fatalf("elapsed %s: expected remaining %d, got %d", tc.elapsed, tc.remaining, got)
		}
		if got := a.Claimable(now, wait); got != tc.claimable {
			t.Fatalf("elapsed %s: expected claimable=%v", tc.elapsed, tc.claimable)
		}
	}
}

func TestUserActiveBefore(t *testing.T) {
	now := time.Date(2025, 5, 10, 0, 0, 1, 0, time.UTC)
	u := User{LastActivity: time.Date(2025, 5, 9, 23, 59, 59, 0, time.UTC)}
	if !u.ActiveBefore(now) {
		t.Fatalf("expected activity yesterday to count as an earlier day")
	}
	u.LastActivity = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	if u.ActiveBefore(now) {
		t.Fatalf("expected same-day activity not to count as an earlier day")
	}
}

func TestAttemptKeyRoundTrip(t *testing.T) {
	key := AttemptKey(42, "watch_3min")
	id, task, err := ParseAttemptKey(key)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 || task != "watch_3min" {
		t.Fatalf("unexpected parse result %d %q", id, task)
	}
	if _, _, err := ParseAttemptKey("nope"); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestWaitingErrorsMatchSentinels(t *testing.T) {
	var err error = &TaskStillWaitingError{Remaining: 12}
	if !errors.Is(err, ErrTaskStillWaiting) {
		t.Fatalf("expected errors.Is to match ErrTaskStillWaiting")
	}
	var waiting *TaskStillWaitingError
	if !errors.As(err, &waiting) || waiting.Remaining != 12 {
		t.Fatalf("expected remaining 12, got %+v", waiting)
	}
	err = &AttemptRunningError{Remaining: 3}
	if !errors.Is(err, ErrAttemptAlreadyRunning) {
		t.Fatalf("expected errors.Is to match ErrAttemptAlreadyRunning")
	}
}
