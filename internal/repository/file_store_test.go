package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/set-night/taskreward/internal/domain"
	"github.com/shopspring/decimal"
)

func sampleSnapshot() *domain.Snapshot {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	processed := now.Add(time.Hour)
	snap := domain.NewSnapshot()
	snap.Revision = "7f0c1b2e-5d7a-4d8e-9a51-3c2f1e0b9a11"
	snap.SavedAt = now
	snap.Users[42] = domain.User{
		ID:             42,
		Username:       "alice",
		Balance:        decimal.RequireFromString("1.25"),
		TotalEarned:    decimal.RequireFromString("3.75"),
		DailyEarned:    decimal.RequireFromString("0.5"),
		TasksCompleted: 4,
		Referrals:      1,
		ReferredBy:     7,
		LastActivity:   now,
		Joined:         now.Add(-48 * time.Hour),
	}
	snap.TaskAttempts[domain.AttemptKey(42, "like")] = domain.TaskAttempt{UserID: 42, TaskKey: "like", StartedAt: now}
	snap.PayoutRequests["REQ_1773489600_4242"] = domain.PayoutRequest{
		ID:          "REQ_1773489600_4242",
		Seq:         1,
		UserID:      42,
		Username:    "alice",
		Amount:      decimal.RequireFromString("2.5"),
		Method:      "payeer",
		Address:     "P1234567",
		Status:      domain.PayoutStatusRejected,
		CreatedAt:   now,
		ProcessedAt: &processed,
		AdminNote:   "bad address",
	}
	return snap
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	store := NewFileStore(path)
	ctx := context.Background()

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Revision != want.Revision || !got.SavedAt.Equal(want.SavedAt) {
		t.Fatalf("header = %s %v", got.Revision, got.SavedAt)
	}
	u := got.Users[42]
	if u.Username != "alice" || !u.Balance.Equal(want.Users[42].Balance) || u.ReferredBy != 7 || u.TasksCompleted != 4 {
		t.Fatalf("user = %+v", u)
	}
	a, ok := got.TaskAttempts["42:like"]
	if !ok || !a.StartedAt.Equal(want.SavedAt) {
		t.Fatalf("attempt = %+v, %v", a, ok)
	}
	r := got.PayoutRequests["REQ_1773489600_4242"]
	if r.Status != domain.PayoutStatusRejected || r.ProcessedAt == nil || r.AdminNote != "bad address" {
		t.Fatalf("request = %+v", r)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	snap, err := store.Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", snap, err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFileStoreNullMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"users":null}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	snap, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Users == nil || snap.TaskAttempts == nil || snap.PayoutRequests == nil {
		t.Fatalf("nil maps in decoded snapshot")
	}
}

func TestFileStoreSaveFailsInMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing", "data.json"))
	if err := store.Save(context.Background(), sampleSnapshot()); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestFileStoreSyncsDirectoryAfterRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	store := NewFileStore(path)

	var synced []string
	store.syncDir = func(d string) error {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("directory synced before rename: %v", err)
		}
		synced = append(synced, d)
		return nil
	}

	if err := store.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(synced) != 1 || synced[0] != dir {
		t.Fatalf("synced = %v, want [%s]", synced, dir)
	}

	store.syncDir = func(string) error { return errors.New("sync failed") }
	if err := store.Save(context.Background(), sampleSnapshot()); err == nil {
		t.Fatalf("Save succeeded although the directory sync failed")
	}

	if err := syncDir(dir); err != nil {
		t.Fatalf("syncDir: %v", err)
	}
}
