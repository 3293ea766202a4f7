package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/monitoring"
	"github.com/shopspring/decimal"
)

// RewardService turns finished task attempts and referrals into ledger credits.
type RewardService struct {
	ledger *Ledger
	timer  *TaskTimer
	tasks  *TaskRegistry
	gw     *Gateway
	locks  *UserLocks
}

func NewRewardService(ledger *Ledger, timer *TaskTimer, tasks *TaskRegistry, gw *Gateway, locks *UserLocks) *RewardService {
	return &RewardService{
		ledger: ledger,
		timer:  timer,
		tasks:  tasks,
		gw:     gw,
		locks:  locks,
	}
}

// StartTask refuses to start a timer once the daily limit is reached.
func (s *RewardService) StartTask(ctx context.Context, userID int64, taskKey string, dailyLimit decimal.Decimal) (domain.TaskAttempt, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.tasks.Active(taskKey); err != nil {
		return domain.TaskAttempt{}, err
	}
	if !s.ledger.CanEarnToday(s.ledger.peek(userID), dailyLimit) {
		return domain.TaskAttempt{}, domain.ErrDailyLimitReached
	}
	a, err := s.timer.startLocked(ctx, userID, taskKey)
	if err != nil {
		return domain.TaskAttempt{}, err
	}
	monitoring.TasksStarted.WithLabelValues(taskKey).Inc()
	return a, nil
}

// ClaimTask credits the task reward and clears the attempt in one commit.
func (s *RewardService) ClaimTask(ctx context.Context, userID int64, taskKey string, dailyLimit decimal.Decimal) (domain.User, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.claimLocked(ctx, userID, taskKey, dailyLimit)
	if err != nil {
		monitoring.ClaimsRejected.WithLabelValues(claimRejectReason(err)).Inc()
		return domain.User{}, err
	}
	monitoring.TasksClaimed.WithLabelValues(taskKey).Inc()
	slog.Info("task claimed", "user_id", userID, "task", taskKey, "balance", user.Balance.String())
	return user, nil
}

func (s *RewardService) claimLocked(ctx context.Context, userID int64, taskKey string, dailyLimit decimal.Decimal) (domain.User, error) {
	def, err := s.tasks.Active(taskKey)
	if err != nil {
		return domain.User{}, err
	}
	if !s.ledger.CanEarnToday(s.ledger.peek(userID), dailyLimit) {
		return domain.User{}, domain.ErrDailyLimitReached
	}
	attempt, ok := s.timer.Attempt(userID, taskKey)
	if !ok {
		return domain.User{}, domain.ErrTaskNotStarted
	}
	now := s.ledger.clock.Now()
	if !attempt.Claimable(now, def.WaitDuration()) {
		return domain.User{}, &domain.TaskStillWaitingError{Remaining: attempt.Remaining(now, def.WaitDuration())}
	}

	var user domain.User
	err = s.gw.Commit(ctx, func(tx *Tx) error {
		var err error
		user, err = s.ledger.credit(tx, userID, def.Reward, true)
		if err != nil {
			return fmt.Errorf("credit reward: %w", err)
		}
		s.timer.Complete(tx, userID, taskKey)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	monitoring.RewardsCredited.WithLabelValues("task").Add(def.Reward.InexactFloat64())
	return user, nil
}

// CreditReferral records referredID as invited by referrerID and pays the
// referrer the bonus. A user can be referred only once; later calls report
// credited=false.
func (s *RewardService) CreditReferral(ctx context.Context, referrerID, referredID int64, bonus decimal.Decimal) (domain.User, bool, error) {
	if referrerID == referredID {
		return domain.User{}, false, domain.ErrSelfReferral
	}
	if bonus.IsNegative() {
		return domain.User{}, false, domain.ErrInvalidAmount
	}
	unlock := s.locks.LockPair(referrerID, referredID)
	defer unlock()

	referrer, err := s.ledger.Get(referrerID)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("referrer: %w", err)
	}
	if referred := s.ledger.peek(referredID); referred.WasReferred() {
		return referrer, false, nil
	}

	err = s.gw.Commit(ctx, func(tx *Tx) error {
		s.ledger.ensure(tx, referredID)
		if _, err := s.ledger.mutate(tx, referredID, func(u *domain.User) error {
			u.ReferredBy = referrerID
			return nil
		}); err != nil {
			return fmt.Errorf("mark referred: %w", err)
		}
		if _, err := s.ledger.mutate(tx, referrerID, func(u *domain.User) error {
			u.Referrals++
			return nil
		}); err != nil {
			return fmt.Errorf("count referral: %w", err)
		}
		referrer, err = s.ledger.credit(tx, referrerID, bonus, false)
		if err != nil {
			return fmt.Errorf("credit bonus: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, false, err
	}
	monitoring.RewardsCredited.WithLabelValues("referral").Add(bonus.InexactFloat64())
	slog.Info("referral credited", "referrer_id", referrerID, "referred_id", referredID, "bonus", bonus.String())
	return referrer, true, nil
}

func claimRejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownTask):
		return "unknown_task"
	case errors.Is(err, domain.ErrDailyLimitReached):
		return "daily_limit"
	case errors.Is(err, domain.ErrTaskNotStarted):
		return "not_started"
	case errors.Is(err, domain.ErrTaskStillWaiting):
		return "still_waiting"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}
