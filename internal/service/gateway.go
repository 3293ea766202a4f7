package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/taskreward/internal/clock"
	"github.com/set-night/taskreward/internal/domain"
	"github.com/set-night/taskreward/internal/monitoring"
)

// Persister stores and loads whole state snapshots.
type Persister interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
}

// snapshotPart is implemented by every component that owns persisted state.
type snapshotPart interface {
	fillSnapshot(snap *domain.Snapshot)
	restoreSnapshot(snap *domain.Snapshot) error
}

// Tx collects undo steps for the in-memory changes made during a commit.
type Tx struct {
	undo []func()
}

// OnRollback registers fn to run if the commit fails.
func (tx *Tx) OnRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// Gateway serialises state changes and writes a full snapshot after each one.
// A change is visible to callers only after its snapshot is durable, except
// to concurrent readers during the write itself; a failed write is undone.
type Gateway struct {
	mu        sync.Mutex
	persister Persister
	clock     clock.Clock
	parts     []snapshotPart
	revision  string
}

func NewGateway(persister Persister, clk clock.Clock) *Gateway {
	return &Gateway{persister: persister, clock: clk}
}

func (g *Gateway) register(p snapshotPart) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.parts = append(g.parts, p)
}

// Commit runs fn and persists the resulting state. If fn fails or the
// snapshot cannot be written, every change fn registered on the Tx is undone.
func (g *Gateway) Commit(ctx context.Context, fn func(tx *Tx) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx := &Tx{}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	snap := g.snapshotLocked()
	start := time.Now()
	err := g.persister.Save(ctx, snap)
	monitoring.SnapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		tx.rollback()
		monitoring.PersistenceFailures.Inc()
		slog.Error("snapshot write failed, change rolled back", "error", err, "revision", snap.Revision)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	g.revision = snap.Revision
	return nil
}

// Restore loads the last persisted snapshot into every registered component.
func (g *Gateway) Restore(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap, err := g.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}
	for _, p := range g.parts {
		if err := p.restoreSnapshot(snap); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
	}
	g.revision = snap.Revision
	slog.Info("state restored",
		"revision", snap.Revision,
		"users", len(snap.Users),
		"task_attempts", len(snap.TaskAttempts),
		"payout_requests", len(snap.PayoutRequests),
	)
	return nil
}

// Snapshot returns a copy of the current state.
func (g *Gateway) Snapshot() *domain.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := g.snapshotLocked()
	snap.Revision = g.revision
	return snap
}

// Revision is the id of the last snapshot written or restored.
func (g *Gateway) Revision() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.revision
}

func (g *Gateway) snapshotLocked() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Revision = uuid.NewString()
	snap.SavedAt = g.clock.Now()
	for _, p := range g.parts {
		p.fillSnapshot(snap)
	}
	return snap
}
