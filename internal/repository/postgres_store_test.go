package repository

import (
	"context"
	"io/fs"
	"os"
	"testing"

	taskreward "github.com/set-night/taskreward"
)

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TASKREWARD_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKREWARD_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	migrationsFS, err := fs.Sub(taskreward.MigrationsFS, "migrations")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	if err := RunMigrations(dsn, migrationsFS); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "DELETE FROM ledger_snapshots"); err != nil {
		t.Fatalf("reset table: %v", err)
	}
	store := NewPostgresStore(pool)

	snap, err := store.Load(ctx)
	if err != nil || snap != nil {
		t.Fatalf("Load on empty table = %v, %v", snap, err)
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want.Users[43] = want.Users[42]
	want.Revision = "0b7d3f9e-1c2a-4f5b-8e6d-a9c8b7d6e5f4"
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Revision != want.Revision || len(got.Users) != 2 || len(got.PayoutRequests) != 1 {
		t.Fatalf("loaded snapshot = %+v", got)
	}
}
