package service

import (
	"context"
	"sync"
	"time"

	"github.com/set-night/taskreward/internal/clock"
	"github.com/set-night/taskreward/internal/domain"
)

// TaskTimer tracks the running attempt per (user, task) pair.
type TaskTimer struct {
	mu       sync.RWMutex
	attempts map[string]domain.TaskAttempt

	tasks *TaskRegistry
	gw    *Gateway
	clock clock.Clock
	locks *UserLocks
}

func NewTaskTimer(tasks *TaskRegistry, gw *Gateway, clk clock.Clock, locks *UserLocks) *TaskTimer {
	t := &TaskTimer{
		attempts: make(map[string]domain.TaskAttempt),
		tasks:    tasks,
		gw:       gw,
		clock:    clk,
		locks:    locks,
	}
	gw.register(t)
	return t
}

// Start records a new attempt. A live attempt that is still waiting fails
// with AttemptRunningError; one that is already claimable is returned as is.
func (t *TaskTimer) Start(ctx context.Context, userID int64, taskKey string) (domain.TaskAttempt, error) {
	unlock := t.locks.Lock(userID)
	defer unlock()
	return t.startLocked(ctx, userID, taskKey)
}

func (t *TaskTimer) startLocked(ctx context.Context, userID int64, taskKey string) (domain.TaskAttempt, error) {
	def, err := t.tasks.Active(taskKey)
	if err != nil {
		return domain.TaskAttempt{}, err
	}
	now := t.clock.Now()
	if a, ok := t.Attempt(userID, taskKey); ok {
		if a.Claimable(now, def.WaitDuration()) {
			return a, nil
		}
		return domain.TaskAttempt{}, &domain.AttemptRunningError{Remaining: a.Remaining(now, def.WaitDuration())}
	}

	var started domain.TaskAttempt
	err = t.gw.Commit(ctx, func(tx *Tx) error {
		started = t.start(tx, userID, taskKey, now)
		return nil
	})
	if err != nil {
		return domain.TaskAttempt{}, err
	}
	return started, nil
}

// RemainingTime returns whole seconds until the attempt can be claimed, or 0
// when there is no attempt.
func (t *TaskTimer) RemainingTime(userID int64, taskKey string) int {
	a, ok := t.Attempt(userID, taskKey)
	if !ok {
		return 0
	}
	def, found := t.tasks.Lookup(taskKey)
	if !found {
		return 0
	}
	return a.Remaining(t.clock.Now(), def.WaitDuration())
}

func (t *TaskTimer) IsClaimable(userID int64, taskKey string) bool {
	a, ok := t.Attempt(userID, taskKey)
	if !ok {
		return false
	}
	def, found := t.tasks.Lookup(taskKey)
	if !found {
		return false
	}
	return a.Claimable(t.clock.Now(), def.WaitDuration())
}

func (t *TaskTimer) Attempt(userID int64, taskKey string) (domain.TaskAttempt, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.attempts[domain.AttemptKey(userID, taskKey)]
	return a, ok
}

func (t *TaskTimer) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.attempts)
}

func (t *TaskTimer) start(tx *Tx, userID int64, taskKey string, now time.Time) domain.TaskAttempt {
	key := domain.AttemptKey(userID, taskKey)
	a := domain.TaskAttempt{UserID: userID, TaskKey: taskKey, StartedAt: now}

	t.mu.Lock()
	prev, had := t.attempts[key]
	t.attempts[key] = a
	t.mu.Unlock()

	tx.OnRollback(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if had {
			t.attempts[key] = prev
		} else {
			delete(t.attempts, key)
		}
	})
	return a
}

// Complete removes the attempt inside tx.
func (t *TaskTimer) Complete(tx *Tx, userID int64, taskKey string) {
	key := domain.AttemptKey(userID, taskKey)

	t.mu.Lock()
	prev, had := t.attempts[key]
	delete(t.attempts, key)
	t.mu.Unlock()

	if !had {
		return
	}
	tx.OnRollback(func() {
		t.mu.Lock()
		t.attempts[key] = prev
		t.mu.Unlock()
	})
}

func (t *TaskTimer) fillSnapshot(snap *domain.Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, a := range t.attempts {
		snap.TaskAttempts[k] = a
	}
}

func (t *TaskTimer) restoreSnapshot(snap *domain.Snapshot) error {
	attempts := make(map[string]domain.TaskAttempt, len(snap.TaskAttempts))
	for k, a := range snap.TaskAttempts {
		userID, taskKey, err := domain.ParseAttemptKey(k)
		if err != nil {
			return err
		}
		a.UserID = userID
		a.TaskKey = taskKey
		attempts[k] = a
	}
	t.mu.Lock()
	t.attempts = attempts
	t.mu.Unlock()
	return nil
}
