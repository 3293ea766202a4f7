package service

import (
	"github.com/set-night/taskreward/internal/domain"
	"github.com/shopspring/decimal"
)

type Stats struct {
	TotalUsers       int             `json:"totalUsers"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	TotalEarned      decimal.Decimal `json:"totalEarned"`
	TotalPaidOut     decimal.Decimal `json:"totalPaidOut"`
	ActiveAttempts   int             `json:"activeAttempts"`
	PendingPayouts   int             `json:"pendingPayouts"`
	ApprovedPayouts  int             `json:"approvedPayouts"`
	RejectedPayouts  int             `json:"rejectedPayouts"`
	SnapshotRevision string          `json:"snapshotRevision,omitempty"`
}

type StatsService struct {
	ledger  *Ledger
	timer   *TaskTimer
	payouts *PayoutService
	gw      *Gateway
}

func NewStatsService(ledger *Ledger, timer *TaskTimer, payouts *PayoutService, gw *Gateway) *StatsService {
	return &StatsService{ledger: ledger, timer: timer, payouts: payouts, gw: gw}
}

func (s *StatsService) Collect() Stats {
	users, balance, earned := s.ledger.Totals()
	counts := s.payouts.CountByStatus()
	return Stats{
		TotalUsers:       users,
		TotalBalance:     balance,
		TotalEarned:      earned,
		TotalPaidOut:     s.payouts.TotalPaidOut(),
		ActiveAttempts:   s.timer.ActiveCount(),
		PendingPayouts:   counts[domain.PayoutStatusPending],
		ApprovedPayouts:  counts[domain.PayoutStatusApproved],
		RejectedPayouts:  counts[domain.PayoutStatusRejected],
		SnapshotRevision: s.gw.Revision(),
	}
}
