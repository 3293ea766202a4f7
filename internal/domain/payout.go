package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
)

type PayoutRequest struct {
	ID          string          `json:"id"`
	Seq         uint64          `json:"seq"`
	UserID      int64           `json:"userId"`
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Address     string          `json:"address"`
	Status      PayoutStatus    `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	ProcessedAt *time.Time      `json:"processedAt"`
	AdminNote   string          `json:"adminNote"`
}

func (r *PayoutRequest) IsPending() bool {
	return r.Status == PayoutStatusPending
}
