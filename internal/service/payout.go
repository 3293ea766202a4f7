package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/set-night/taskreward/internal/clock"
	"github.com/set-night/taskreward/internal/config"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/monitoring"
	"github.com/shopspring/decimal"
)

// PayoutPolicy holds the withdrawal rules configured by the operator.
type PayoutPolicy struct {
	MinWithdraw      map[string]decimal.Decimal
	MinAddressLength int
}

// PayoutMethod is a configured method and its minimum amount.
type PayoutMethod struct {
	Name    string
	Minimum decimal.Decimal
}

// PayoutService runs the payout request lifecycle: pending, then approved or
// rejected by an admin.
type PayoutService struct {
	mu       sync.RWMutex
	requests map[string]domain.PayoutRequest
	seq      uint64

	policy PayoutPolicy
	ledger *Ledger
	gw     *Gateway
	clock  clock.Clock
	locks  *UserLocks

	randSuffix func() (int, error)
}

func NewPayoutService(policy PayoutPolicy, ledger *Ledger, gw *Gateway, clk clock.Clock, locks *UserLocks) *PayoutService {
	if policy.MinAddressLength <= 0 {
		policy.MinAddressLength = config.MinAddressLength
	}
	minimums := make(map[string]decimal.Decimal, len(policy.MinWithdraw))
	for method, minimum := range policy.MinWithdraw {
		minimums[strings.ToLower(strings.TrimSpace(method))] = minimum
	}
	policy.MinWithdraw = minimums
	s := &PayoutService{
		requests:   make(map[string]domain.PayoutRequest),
		policy:     policy,
		ledger:     ledger,
		gw:         gw,
		clock:      clk,
		locks:      locks,
		randSuffix: cryptoSuffix,
	}
	gw.register(s)
	return s
}

// CreateRequest debits amount and stores a pending request in one commit.
func (s *PayoutService) CreateRequest(ctx context.Context, userID int64, username string, amount decimal.Decimal, method, address string) (domain.PayoutRequest, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	method = strings.ToLower(strings.TrimSpace(method))
	address = strings.TrimSpace(address)

	if _, ok := s.PendingForUser(userID); ok {
		return domain.PayoutRequest{}, domain.ErrExistingPendingRequest
	}
	if !amount.IsPositive() {
		return domain.PayoutRequest{}, domain.ErrInvalidAmount
	}
	minimum, ok := s.policy.MinWithdraw[method]
	if !ok {
		return domain.PayoutRequest{}, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, method)
	}
	if amount.LessThan(minimum) {
		return domain.PayoutRequest{}, fmt.Errorf("%w: %s requires %s", domain.ErrBelowMinimum, method, minimum)
	}
	user, err := s.ledger.Get(userID)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	if amount.GreaterThan(user.Balance) {
		return domain.PayoutRequest{}, domain.ErrInsufficientBalance
	}
	if len([]rune(address)) < s.policy.MinAddressLength {
		return domain.PayoutRequest{}, domain.ErrInvalidAddress
	}

	var req domain.PayoutRequest
	err = s.gw.Commit(ctx, func(tx *Tx) error {
		if _, err := s.ledger.debit(tx, userID, amount); err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		now := s.clock.Now()
		id, err := s.newRequestID(now.Unix())
		if err != nil {
			return err
		}
		if username == "" {
			username = user.Username
		}
		req = domain.PayoutRequest{
			ID:        id,
			UserID:    userID,
			Username:  username,
			Amount:    amount,
			Method:    method,
			Address:   address,
			Status:    domain.PayoutStatusPending,
			CreatedAt: now,
		}
		req = s.insert(tx, req)
		return nil
	})
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	monitoring.PayoutRequests.WithLabelValues(string(domain.PayoutStatusPending)).Inc()
	slog.Info("payout requested", "request_id", req.ID, "user_id", userID, "amount", amount.String(), "method", method)
	return req, nil
}

// Approve marks a pending request as paid out.
func (s *PayoutService) Approve(ctx context.Context, requestID string) (domain.PayoutRequest, error) {
	return s.process(ctx, requestID, domain.PayoutStatusApproved, "")
}

// Reject marks a pending request as rejected and returns the amount to the
// user's balance.
func (s *PayoutService) Reject(ctx context.Context, requestID, reason string) (domain.PayoutRequest, error) {
	return s.process(ctx, requestID, domain.PayoutStatusRejected, reason)
}

func (s *PayoutService) process(ctx context.Context, requestID string, status domain.PayoutStatus, note string) (domain.PayoutRequest, error) {
	req, err := s.Get(requestID)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	unlock := s.locks.Lock(req.UserID)
	defer unlock()

	// Status may have changed while waiting for the lock.
	req, err = s.Get(requestID)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	if !req.IsPending() {
		return domain.PayoutRequest{}, fmt.Errorf("request %s is %s: %w", requestID, req.Status, domain.ErrRequestNotPending)
	}

	err = s.gw.Commit(ctx, func(tx *Tx) error {
		now := s.clock.Now()
		req.Status = status
		req.ProcessedAt = &now
		req.AdminNote = note
		if status == domain.PayoutStatusRejected {
			if _, err := s.ledger.restore(tx, req.UserID, req.Amount); err != nil {
				return fmt.Errorf("restore balance: %w", err)
			}
		}
		s.replace(tx, req)
		return nil
	})
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	monitoring.PayoutRequests.WithLabelValues(string(status)).Inc()
	slog.Info("payout processed", "request_id", req.ID, "user_id", req.UserID, "status", status)
	return req, nil
}

func (s *PayoutService) Get(requestID string) (domain.PayoutRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return domain.PayoutRequest{}, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	return req, nil
}

// PendingForUser returns the user's pending request, if any.
func (s *PayoutService) PendingForUser(userID int64) (domain.PayoutRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.UserID == userID && req.IsPending() {
			return req, true
		}
	}
	return domain.PayoutRequest{}, false
}

// ListPending returns pending requests in creation order.
func (s *PayoutService) ListPending() []domain.PayoutRequest {
	return s.filter(func(r *domain.PayoutRequest) bool { return r.IsPending() })
}

// ListForUser returns every request of userID in creation order.
func (s *PayoutService) ListForUser(userID int64) []domain.PayoutRequest {
	return s.filter(func(r *domain.PayoutRequest) bool { return r.UserID == userID })
}

// Methods lists the configured payout methods sorted by name.
func (s *PayoutService) Methods() []PayoutMethod {
	out := make([]PayoutMethod, 0, len(s.policy.MinWithdraw))
	for name, minimum := range s.policy.MinWithdraw {
		out = append(out, PayoutMethod{Name: name, Minimum: minimum})
	}
	slices.SortFunc(out, func(a, b PayoutMethod) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (s *PayoutService) CountByStatus() map[domain.PayoutStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[domain.PayoutStatus]int{
		domain.PayoutStatusPending:  0,
		domain.PayoutStatusApproved: 0,
		domain.PayoutStatusRejected: 0,
	}
	for _, req := range s.requests {
		counts[req.Status]++
	}
	return counts
}

// TotalPaidOut sums the amounts of approved requests.
func (s *PayoutService) TotalPaidOut() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, req := range s.requests {
		if req.Status == domain.PayoutStatusApproved {
			total = total.Add(req.Amount)
		}
	}
	return total
}

func (s *PayoutService) filter(keep func(r *domain.PayoutRequest) bool) []domain.PayoutRequest {
	s.mu.RLock()
	out := make([]domain.PayoutRequest, 0)
	for _, req := range s.requests {
		if keep(&req) {
			out = append(out, req)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// newRequestID returns REQ_<unix>_<suffix>, retrying on collision.
func (s *PayoutService) newRequestID(unix int64) (string, error) {
	for range config.RequestIDAttempts {
		n, err := s.randSuffix()
		if err != nil {
			return "", fmt.Errorf("generate request id: %w", err)
		}
		id := fmt.Sprintf("REQ_%d_%d", unix, n)
		s.mu.RLock()
		_, taken := s.requests[id]
		s.mu.RUnlock()
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate request id: no free id after %d attempts", config.RequestIDAttempts)
}

func (s *PayoutService) insert(tx *Tx, req domain.PayoutRequest) domain.PayoutRequest {
	s.mu.Lock()
	prevSeq := s.seq
	s.seq++
	req.Seq = s.seq
	s.requests[req.ID] = req
	s.mu.Unlock()

	tx.OnRollback(func() {
		s.mu.Lock()
		delete(s.requests, req.ID)
		s.seq = prevSeq
		s.mu.Unlock()
	})
	return req
}

func (s *PayoutService) replace(tx *Tx, req domain.PayoutRequest) {
	s.mu.Lock()
	prev := s.requests[req.ID]
	s.requests[req.ID] = req
	s.mu.Unlock()

	tx.OnRollback(func() {
		s.mu.Lock()
		s.requests[req.ID] = prev
		s.mu.Unlock()
	})
}

func (s *PayoutService) fillSnapshot(snap *domain.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, req := range s.requests {
		snap.PayoutRequests[id] = req
	}
}

func (s *PayoutService) restoreSnapshot(snap *domain.Snapshot) error {
	requests := make(map[string]domain.PayoutRequest, len(snap.PayoutRequests))
	var seq uint64
	for id, req := range snap.PayoutRequests {
		req.ID = id
		requests[id] = req
		seq = max(seq, req.Seq)
	}
	s.mu.Lock()
	s.requests = requests
	s.seq = seq
	s.mu.Unlock()
	return nil
}

// cryptoSuffix returns a number in [1000, 9999].
func cryptoSuffix() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 1000, nil
}
