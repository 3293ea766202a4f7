package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/taskreward/internal/domain"
)

const (
	upsertSnapshotSQL = `
INSERT INTO ledger_snapshots (id, revision, saved_at, state, updated_at)
VALUES (1, $1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE
SET revision = EXCLUDED.revision,
    saved_at = EXCLUDED.saved_at,
    state = EXCLUDED.state,
    updated_at = NOW()`

	selectSnapshotSQL = `SELECT state FROM ledger_snapshots WHERE id = 1`
)

// PostgresStore keeps the latest snapshot in a single jsonb row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, selectSnapshotSQL).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return decodeSnapshot(raw)
}

func (s *PostgresStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.pool.Exec(ctx, upsertSnapshotSQL, snap.Revision, snap.SavedAt, raw); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
