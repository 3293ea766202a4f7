package handler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/service"
	"github.com/shopspring/decimal"
)

func TestParseStartPayload(t *testing.T) {
	cases := map[string]int64{
		"/start":          0,
		"/start 12345":    12345,
		"/start r_777":    777,
		"/start abc":      0,
		"/start -5":       0,
		"/start 0":        0,
		"/start  99 more": 99,
	}
	for text, want := range cases {
		if got := parseStartPayload(text); got != want {
			t.Fatalf("parseStartPayload(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestParsePayoutArgs(t *testing.T) {
	args, err := parsePayoutArgs("/payout FaucetPay user@example.com")
	if err != nil {
		t.Fatalf("parsePayoutArgs: %v", err)
	}
	if args.method != "faucetpay" || args.address != "user@example.com" || !args.all {
		t.Fatalf("args = %+v", args)
	}

	args, err = parsePayoutArgs("/payout payeer P1234567 2,5")
	if err != nil {
		t.Fatalf("parsePayoutArgs: %v", err)
	}
	if args.all || !args.amount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("args = %+v", args)
	}

	if _, err := parsePayoutArgs("/payout payeer"); !errors.Is(err, errUsage) {
		t.Fatalf("short command = %v, want errUsage", err)
	}
	if _, err := parsePayoutArgs("/payout payeer P1 2 extra"); !errors.Is(err, errUsage) {
		t.Fatalf("long command = %v, want errUsage", err)
	}
	if _, err := parsePayoutArgs("/payout payeer P1234567 lots"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("bad amount = %v, want ErrInvalidAmount", err)
	}
}

func TestParseAdminArgs(t *testing.T) {
	id, reason, err := parseRejectArgs("/reject REQ_1_1000 wrong wallet format")
	if err != nil || id != "REQ_1_1000" || reason != "wrong wallet format" {
		t.Fatalf("parseRejectArgs = %q, %q, %v", id, reason, err)
	}
	if _, _, err := parseRejectArgs("/reject REQ_1_1000"); !errors.Is(err, errUsage) {
		t.Fatalf("reject without reason = %v", err)
	}

	id, err = parseRequestID("/approve REQ_1_1000")
	if err != nil || id != "REQ_1_1000" {
		t.Fatalf("parseRequestID = %q, %v", id, err)
	}
	if _, err := parseRequestID("/approve"); !errors.Is(err, errUsage) {
		t.Fatalf("approve without id = %v", err)
	}
}

func TestFormatWait(t *testing.T) {
	cases := map[int]string{0: "0s", 30: "30s", 60: "1m", 180: "3m", 95: "1m 35s"}
	for in, want := range cases {
		if got := formatWait(in); got != want {
			t.Fatalf("formatWait(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := formatMoney("$", decimal.RequireFromString("0.05")); got != "$0.05" {
		t.Fatalf("formatMoney = %q", got)
	}
	if got := formatMoney("₽", decimal.RequireFromString("2")); got != "₽2.00" {
		t.Fatalf("formatMoney = %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	msg, known := userMessage(&domain.TaskStillWaitingError{Remaining: 95})
	if !known || !strings.Contains(msg, "1m 35s") {
		t.Fatalf("waiting message = %q, %v", msg, known)
	}
	msg, known = userMessage(fmt.Errorf("claim: %w", domain.ErrDailyLimitReached))
	if !known || !strings.Contains(msg, "limit") {
		t.Fatalf("limit message = %q, %v", msg, known)
	}
	if _, known := userMessage(fmt.Errorf("%w: disk full", domain.ErrPersistence)); known {
		t.Fatalf("persistence failure should be internal")
	}
}

func TestAdminActionsKeepIDsInCodeSpans(t *testing.T) {
	got := adminActions("REQ_1773489600_4242")
	want := "`/approve REQ_1773489600_4242`\n`/reject REQ_1773489600_4242 <reason>`"
	if got != want {
		t.Fatalf("adminActions = %q, want %q", got, want)
	}

	// Underscores outside code spans would be read as italics.
	parts := strings.Split(got, "`")
	for i := 0; i < len(parts); i += 2 {
		if strings.Contains(parts[i], "_") {
			t.Fatalf("underscore outside code span in %q", got)
		}
	}
}

func TestFormatStats(t *testing.T) {
	got := formatStats(service.Stats{
		TotalUsers:      3,
		TotalBalance:    decimal.RequireFromString("5.5"),
		TotalEarned:     decimal.RequireFromString("10.5"),
		TotalPaidOut:    decimal.RequireFromString("5"),
		ActiveAttempts:  1,
		PendingPayouts:  2,
		ApprovedPayouts: 1,
	}, "$")

	for _, want := range []string{
		"Users: 3",
		"Total balance: $5.50",
		"Total earned: $10.50",
		"Total paid out: $5.00",
		"Pending requests: 2",
		"Approved requests: 1",
		"Rejected requests: 0",
		"Running tasks: 1",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("stats message missing %q:\n%s", want, got)
		}
	}
}
