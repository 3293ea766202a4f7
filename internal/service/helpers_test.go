package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/set-night/taskreward/internal/clock"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/shopspring/decimal"
)

var errDiskFull = errors.New("disk full")

type memPersister struct {
	mu    sync.Mutex
	saved *domain.Snapshot
	saves int
	fail  bool
}

func (p *memPersister) Load(context.Context) (*domain.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved, nil
}

func (p *memPersister) Save(_ context.Context, snap *domain.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errDiskFull
	}
	p.saved = snap
	p.saves++
	return nil
}

func (p *memPersister) setFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func (p *memPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

type testCore struct {
	persister *memPersister
	clock     *clock.Fake
	gw        *Gateway
	tasks     *TaskRegistry
	ledger    *Ledger
	timer     *TaskTimer
	rewards   *RewardService
	payouts   *PayoutService
	stats     *StatsService
}

var testStart = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTasks() []domain.TaskDefinition {
	return []domain.TaskDefinition{
		{Key: "like", Name: "Like a post", Reward: dec("0.05"), Wait: 30, Active: true},
		{Key: "watch", Name: "Watch a video", Reward: dec("0.5"), Wait: 180, Active: true},
		{Key: "visit", Name: "Visit site", Reward: dec("0.1"), Wait: 10, Active: false},
	}
}

func newTestCore(t *testing.T) *testCore {
	t.Helper()
	return newTestCoreWith(t, &memPersister{})
}

func newTestCoreWith(t *testing.T, p *memPersister) *testCore {
	t.Helper()
	clk := clock.NewFake(testStart)
	gw := NewGateway(p, clk)
	locks := NewUserLocks()
	tasks, err := NewTaskRegistry(testTasks())
	if err != nil {
		t.Fatalf("NewTaskRegistry: %v", err)
	}
	ledger := NewLedger(gw, clk, locks)
	timer := NewTaskTimer(tasks, gw, clk, locks)
	payouts := NewPayoutService(PayoutPolicy{
		MinWithdraw: map[string]decimal.Decimal{
			"faucetpay": dec("0.05"),
			"payeer":    dec("5"),
		},
	}, ledger, gw, clk, locks)
	return &testCore{
		persister: p,
		clock:     clk,
		gw:        gw,
		tasks:     tasks,
		ledger:    ledger,
		timer:     timer,
		rewards:   NewRewardService(ledger, timer, tasks, gw, locks),
		payouts:   payouts,
		stats:     NewStatsService(ledger, timer, payouts, gw),
	}
}

// fund gives the user a balance through the public credit path.
func (c *testCore) fund(t *testing.T, userID int64, amount string) domain.User {
	t.Helper()
	u, err := c.ledger.Credit(context.Background(), userID, dec(amount), false)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	return u
}

func (c *testCore) completeTask(t *testing.T, userID int64, key string) domain.User {
	t.Helper()
	ctx := context.Background()
	def, _ := c.tasks.Lookup(key)
	if _, err := c.timer.Start(ctx, userID, key); err != nil {
		t.Fatalf("Start(%s): %v", key, err)
	}
	c.clock.Advance(def.WaitDuration())
	u, err := c.rewards.ClaimTask(ctx, userID, key, dec("100"))
	if err != nil {
		t.Fatalf("ClaimTask(%s): %v", key, err)
	}
	return u
}
