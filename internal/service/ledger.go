package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/set-night/taskreward/internal/clock"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/shopspring/decimal"
)

// Ledger owns every User record. Public mutators take the user's lock and
// persist through the Gateway; the lower-case variants are building blocks
// for compound operations that already hold the lock and run inside a commit.
type Ledger struct {
	mu    sync.RWMutex
	users map[int64]domain.User

	gw    *Gateway
	clock clock.Clock
	locks *UserLocks
}

func NewLedger(gw *Gateway, clk clock.Clock, locks *UserLocks) *Ledger {
	l := &Ledger{
		users: make(map[int64]domain.User),
		gw:    gw,
		clock: clk,
		locks: locks,
	}
	gw.register(l)
	return l
}

func (l *Ledger) Get(userID int64) (domain.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return u, nil
}

// GetOrCreate returns the user, creating it with zeroed counters on first
// contact. A changed username is recorded.
func (l *Ledger) GetOrCreate(ctx context.Context, userID int64, username string) (domain.User, bool, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	if u, err := l.Get(userID); err == nil {
		if username == "" || u.Username == username {
			return u, false, nil
		}
		var updated domain.User
		err := l.gw.Commit(ctx, func(tx *Tx) error {
			var err error
			updated, err = l.mutate(tx, userID, func(u *domain.User) error {
				u.Username = username
				return nil
			})
			return err
		})
		if err != nil {
			return domain.User{}, false, fmt.Errorf("update username: %w", err)
		}
		return updated, false, nil
	}

	var created domain.User
	err := l.gw.Commit(ctx, func(tx *Tx) error {
		created = l.create(tx, userID, username)
		return nil
	})
	if err != nil {
		return domain.User{}, false, fmt.Errorf("create user: %w", err)
	}
	return created, true, nil
}

// Credit adds amount to balance, totalEarned and dailyEarned, and counts a
// completed task when countsAsTask is set.
func (l *Ledger) Credit(ctx context.Context, userID int64, amount decimal.Decimal, countsAsTask bool) (domain.User, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	var out domain.User
	err := l.gw.Commit(ctx, func(tx *Tx) error {
		var err error
		out, err = l.credit(tx, userID, amount, countsAsTask)
		return err
	})
	return out, err
}

// Debit removes amount from the balance only.
func (l *Ledger) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (domain.User, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	var out domain.User
	err := l.gw.Commit(ctx, func(tx *Tx) error {
		var err error
		out, err = l.debit(tx, userID, amount)
		return err
	})
	return out, err
}

// Restore gives amount back to the balance without counting it as earnings.
func (l *Ledger) Restore(ctx context.Context, userID int64, amount decimal.Decimal) (domain.User, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	var out domain.User
	err := l.gw.Commit(ctx, func(tx *Tx) error {
		var err error
		out, err = l.restore(tx, userID, amount)
		return err
	})
	return out, err
}

// CanEarnToday reports whether u may still earn today. Activity on an
// earlier UTC date always allows earning since dailyEarned is reset on the
// next credit.
func (l *Ledger) CanEarnToday(u domain.User, dailyLimit decimal.Decimal) bool {
	if u.ActiveBefore(l.clock.Now()) {
		return true
	}
	return u.DailyEarned.LessThan(dailyLimit)
}

// EarnedToday is u.DailyEarned, or zero if that figure belongs to an earlier
// day and has not been reset yet.
func (l *Ledger) EarnedToday(u domain.User) decimal.Decimal {
	if u.ActiveBefore(l.clock.Now()) {
		return decimal.Zero
	}
	return u.DailyEarned
}

// Totals returns the user count and summed balance and lifetime earnings.
func (l *Ledger) Totals() (int, decimal.Decimal, decimal.Decimal) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, earned := decimal.Zero, decimal.Zero
	for _, u := range l.users {
		balance = balance.Add(u.Balance)
		earned = earned.Add(u.TotalEarned)
	}
	return len(l.users), balance, earned
}

// peek returns the stored user or a blank one for an id never seen before.
func (l *Ledger) peek(userID int64) domain.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if u, ok := l.users[userID]; ok {
		return u
	}
	return domain.User{ID: userID}
}

func (l *Ledger) exists(userID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.users[userID]
	return ok
}

func (l *Ledger) create(tx *Tx, userID int64, username string) domain.User {
	now := l.clock.Now()
	u := domain.User{
		ID:           userID,
		Username:     username,
		Balance:      decimal.Zero,
		TotalEarned:  decimal.Zero,
		DailyEarned:  decimal.Zero,
		LastActivity: now,
		Joined:       now,
	}
	l.mu.Lock()
	l.users[userID] = u
	l.mu.Unlock()

	tx.OnRollback(func() {
		l.mu.Lock()
		delete(l.users, userID)
		l.mu.Unlock()
	})
	return u
}

// ensure creates the user inside tx if it does not exist yet.
func (l *Ledger) ensure(tx *Tx, userID int64) {
	if !l.exists(userID) {
		l.create(tx, userID, "")
	}
}

// mutate applies fn to a copy of the user and stores it if fn succeeds.
func (l *Ledger) mutate(tx *Tx, userID int64, fn func(u *domain.User) error) (domain.User, error) {
	l.mu.Lock()
	prev, ok := l.users[userID]
	if !ok {
		l.mu.Unlock()
		return domain.User{}, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	next := prev
	if err := fn(&next); err != nil {
		l.mu.Unlock()
		return domain.User{}, err
	}
	l.users[userID] = next
	l.mu.Unlock()

	tx.OnRollback(func() {
		l.mu.Lock()
		l.users[userID] = prev
		l.mu.Unlock()
	})
	return next, nil
}

func (l *Ledger) credit(tx *Tx, userID int64, amount decimal.Decimal, countsAsTask bool) (domain.User, error) {
	if amount.IsNegative() {
		return domain.User{}, domain.ErrInvalidAmount
	}
	l.ensure(tx, userID)
	now := l.clock.Now()
	return l.mutate(tx, userID, func(u *domain.User) error {
		if u.ActiveBefore(now) {
			u.DailyEarned = decimal.Zero
		}
		u.Balance = u.Balance.Add(amount)
		u.TotalEarned = u.TotalEarned.Add(amount)
		u.DailyEarned = u.DailyEarned.Add(amount)
		if countsAsTask {
			u.TasksCompleted++
		}
		u.LastActivity = now
		return nil
	})
}

func (l *Ledger) debit(tx *Tx, userID int64, amount decimal.Decimal) (domain.User, error) {
	if !amount.IsPositive() {
		return domain.User{}, domain.ErrInvalidAmount
	}
	return l.mutate(tx, userID, func(u *domain.User) error {
		if amount.GreaterThan(u.Balance) {
			return domain.ErrInsufficientBalance
		}
		u.Balance = u.Balance.Sub(amount)
		return nil
	})
}

func (l *Ledger) restore(tx *Tx, userID int64, amount decimal.Decimal) (domain.User, error) {
	if !amount.IsPositive() {
		return domain.User{}, domain.ErrInvalidAmount
	}
	return l.mutate(tx, userID, func(u *domain.User) error {
		u.Balance = u.Balance.Add(amount)
		return nil
	})
}

func (l *Ledger) fillSnapshot(snap *domain.Snapshot) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, u := range l.users {
		snap.Users[id] = u
	}
}

func (l *Ledger) restoreSnapshot(snap *domain.Snapshot) error {
	users := make(map[int64]domain.User, len(snap.Users))
	for id, u := range snap.Users {
		if u.Balance.IsNegative() {
			return fmt.Errorf("user %d: negative balance %s", id, u.Balance)
		}
		u.ID = id
		users[id] = u
	}
	l.mu.Lock()
	l.users = users
	l.mu.Unlock()
	return nil
}
