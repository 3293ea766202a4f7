package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTask            = errors.New("unknown task")
	ErrTaskNotStarted         = errors.New("task not started")
	ErrTaskStillWaiting       = errors.New("task still waiting")
	ErrDailyLimitReached      = errors.New("daily limit reached")
	ErrAttemptAlreadyRunning  = errors.New("attempt already running")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrExistingPendingRequest = errors.New("pending payout request exists")
	ErrInvalidAddress         = errors.New("invalid payment address")
	ErrRequestNotPending      = errors.New("payout request not pending")
	ErrNotFound               = errors.New("not found")
	ErrPersistence            = errors.New("persistence failure")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrUnknownMethod          = errors.New("unknown payout method")
	ErrBelowMinimum           = errors.New("amount below method minimum")
	ErrSelfReferral           = errors.New("self referral")
)

// TaskStillWaitingError carries the seconds left before a task can be claimed.
type TaskStillWaitingError struct {
	Remaining int
}

func (e *TaskStillWaitingError) Error() string {
	return fmt.Sprintf("%s: %ds remaining", ErrTaskStillWaiting, e.Remaining)
}

func (e *TaskStillWaitingError) Is(target error) bool {
	return target == ErrTaskStillWaiting
}

// AttemptRunningError carries the seconds left on the running attempt.
type AttemptRunningError struct {
	Remaining int
}

func (e *AttemptRunningError) Error() string {
	return fmt.Sprintf("%s: %ds remaining", ErrAttemptAlreadyRunning, e.Remaining)
}

func (e *AttemptRunningError) Is(target error) bool {
	return target == ErrAttemptAlreadyRunning
}
