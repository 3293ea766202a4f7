package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/set-night/taskreward/internal/domain"
)

func TestPayoutLifecycle(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.fund(t, 1, "10")

	req, err := c.payouts.CreateRequest(ctx, 1, "alice", dec("10"), "payeer", "P1234567")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Status != domain.PayoutStatusPending || req.ProcessedAt != nil {
		t.Fatalf("new request = %+v", req)
	}
	u, _ := c.ledger.Get(1)
	if !u.Balance.IsZero() {
		t.Fatalf("balance after request = %s, want 0", u.Balance)
	}

	if _, err := c.payouts.CreateRequest(ctx, 1, "alice", dec("1"), "payeer", "P1234567"); !errors.Is(err, domain.ErrExistingPendingRequest) {
		t.Fatalf("second request = %v, want ErrExistingPendingRequest", err)
	}

	c.clock.Advance(time.Hour)
	rejected, err := c.payouts.Reject(ctx, req.ID, "bad address")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != domain.PayoutStatusRejected || rejected.AdminNote != "bad address" {
		t.Fatalf("rejected = %+v", rejected)
	}
	if rejected.ProcessedAt == nil || !rejected.ProcessedAt.Equal(testStart.Add(time.Hour)) {
		t.Fatalf("processedAt = %v", rejected.ProcessedAt)
	}
	u, _ = c.ledger.Get(1)
	if !u.Balance.Equal(dec("10")) || !u.TotalEarned.Equal(dec("10")) {
		t.Fatalf("after reject: %+v", u)
	}

	if _, err := c.payouts.Approve(ctx, req.ID); !errors.Is(err, domain.ErrRequestNotPending) {
		t.Fatalf("approve rejected = %v, want ErrRequestNotPending", err)
	}
	if _, err := c.payouts.Reject(ctx, req.ID, "again"); !errors.Is(err, domain.ErrRequestNotPending) {
		t.Fatalf("reject rejected = %v, want ErrRequestNotPending", err)
	}
}

func TestPayoutApprove(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.fund(t, 1, "3")

	req, err := c.payouts.CreateRequest(ctx, 1, "", dec("1"), "FaucetPay", " user@example.com ")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Method != "faucetpay" || req.Address != "user@example.com" {
		t.Fatalf("request not normalised: %+v", req)
	}
	approved, err := c.payouts.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != domain.PayoutStatusApproved || approved.ProcessedAt == nil {
		t.Fatalf("approved = %+v", approved)
	}
	u, _ := c.ledger.Get(1)
	if !u.Balance.Equal(dec("2")) {
		t.Fatalf("balance after approve = %s, want 2", u.Balance)
	}
	if _, ok := c.payouts.PendingForUser(1); ok {
		t.Fatalf("approved request still pending")
	}
	if _, err := c.payouts.CreateRequest(ctx, 1, "", dec("1"), "faucetpay", "user@example.com"); err != nil {
		t.Fatalf("new request after approval: %v", err)
	}
}

func TestPayoutValidationOrder(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.fund(t, 1, "6")

	cases := []struct {
		name    string
		amount  string
		method  string
		address string
		want    error
	}{
		{"zero amount", "0", "payeer", "P1234567", domain.ErrInvalidAmount},
		{"negative amount", "-1", "nope", "x", domain.ErrInvalidAmount},
		{"unknown method", "6", "paypal", "P1234567", domain.ErrUnknownMethod},
		{"below minimum", "4.99", "payeer", "x", domain.ErrBelowMinimum},
		{"insufficient", "7", "payeer", "x", domain.ErrInsufficientBalance},
		{"short address", "6", "payeer", " abcd ", domain.ErrInvalidAddress},
	}
	for _, tc := range cases {
		_, err := c.payouts.CreateRequest(ctx, 1, "", dec(tc.amount), tc.method, tc.address)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
	u, _ := c.ledger.Get(1)
	if !u.Balance.Equal(dec("6")) {
		t.Fatalf("failed requests changed balance: %s", u.Balance)
	}
	if len(c.payouts.ListForUser(1)) != 0 {
		t.Fatalf("failed requests were stored")
	}
}

func TestPayoutUnknownRequest(t *testing.T) {
	c := newTestCore(t)
	if _, err := c.payouts.Approve(context.Background(), "REQ_1_1000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Approve = %v, want ErrNotFound", err)
	}
	if _, err := c.payouts.Reject(context.Background(), "REQ_1_1000", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Reject = %v, want ErrNotFound", err)
	}
}

func TestPayoutRequestIDs(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	suffixes := []int{4242, 4242, 4242, 7000}
	c.payouts.randSuffix = func() (int, error) {
		n := suffixes[0]
		suffixes = suffixes[1:]
		return n, nil
	}
	c.fund(t, 1, "1")
	c.fund(t, 2, "1")

	first, err := c.payouts.CreateRequest(ctx, 1, "", dec("1"), "faucetpay", "addr-1")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	second, err := c.payouts.CreateRequest(ctx, 2, "", dec("1"), "faucetpay", "addr-2")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	wantFirst := "REQ_" + itoa(testStart.Unix()) + "_4242"
	wantSecond := "REQ_" + itoa(testStart.Unix()) + "_7000"
	if first.ID != wantFirst || second.ID != wantSecond {
		t.Fatalf("ids = %s, %s; want %s, %s", first.ID, second.ID, wantFirst, wantSecond)
	}

	pending := c.payouts.ListPending()
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("ListPending order = %+v", pending)
	}
}

func TestPayoutRequestIDExhausted(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.payouts.randSuffix = func() (int, error) { return 1111, nil }
	c.fund(t, 1, "1")
	c.fund(t, 2, "1")

	if _, err := c.payouts.CreateRequest(ctx, 1, "", dec("1"), "faucetpay", "addr-1"); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := c.payouts.CreateRequest(ctx, 2, "", dec("1"), "faucetpay", "addr-2"); err == nil {
		t.Fatalf("expected id exhaustion error")
	}
	u, _ := c.ledger.Get(2)
	if !u.Balance.Equal(dec("1")) {
		t.Fatalf("failed request kept the debit: %s", u.Balance)
	}
}

func TestPayoutDefaultRequestIDFormat(t *testing.T) {
	c := newTestCore(t)
	c.fund(t, 1, "1")
	req, err := c.payouts.CreateRequest(context.Background(), 1, "", dec("0.5"), "faucetpay", "addr-1")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if !regexp.MustCompile(`^REQ_\d+_[1-9]\d{3}$`).MatchString(req.ID) {
		t.Fatalf("id %q has unexpected format", req.ID)
	}
}

func TestPayoutListForUserAndMethods(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.fund(t, 1, "3")

	for i := range 3 {
		req, err := c.payouts.CreateRequest(ctx, 1, "", dec("1"), "faucetpay", "addr-1")
		if err != nil {
			t.Fatalf("CreateRequest %d: %v", i, err)
		}
		if _, err := c.payouts.Approve(ctx, req.ID); err != nil {
			t.Fatalf("Approve %d: %v", i, err)
		}
	}
	list := c.payouts.ListForUser(1)
	if len(list) != 3 {
		t.Fatalf("ListForUser = %d requests, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Seq <= list[i-1].Seq {
			t.Fatalf("ListForUser not in creation order: %+v", list)
		}
	}

	methods := c.payouts.Methods()
	if len(methods) != 2 || methods[0].Name != "faucetpay" || methods[1].Name != "payeer" {
		t.Fatalf("Methods() = %+v", methods)
	}
	counts := c.payouts.CountByStatus()
	if counts[domain.PayoutStatusApproved] != 3 || counts[domain.PayoutStatusPending] != 0 {
		t.Fatalf("CountByStatus() = %v", counts)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestParallelPayoutRequestsDebitOnce(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.fund(t, 1, "10")

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		pending int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.payouts.CreateRequest(ctx, 1, "alice", dec("10"), "payeer", "P1234567")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrExistingPendingRequest):
				pending++
			default:
				t.Errorf("unexpected payout error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || pending != n-1 {
		t.Fatalf("ok=%d pending=%d, want 1 and %d", ok, pending, n-1)
	}
	u, _ := c.ledger.Get(1)
	if !u.Balance.IsZero() {
		t.Fatalf("balance = %s, want 0", u.Balance)
	}
	if reqs := c.payouts.ListForUser(1); len(reqs) != 1 || !reqs[0].Amount.Equal(dec("10")) {
		t.Fatalf("requests = %+v", reqs)
	}
}
