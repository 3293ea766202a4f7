package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/set-night/taskreward/internal/domain"
)

// FileStore keeps the latest snapshot in a JSON file. Writes go to a temp
// file in the same directory which is synced and renamed over the target,
// then the directory itself is synced so the rename survives a crash.
type FileStore struct {
	path    string
	syncDir func(dir string) error
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, syncDir: syncDir}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (*domain.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return decodeSnapshot(raw)
}

func (s *FileStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	if err := s.syncDir(dir); err != nil {
		return fmt.Errorf("sync state dir: %w", err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

func decodeSnapshot(raw []byte) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Users == nil {
		snap.Users = make(map[int64]domain.User)
	}
	if snap.TaskAttempts == nil {
		snap.TaskAttempts = make(map[string]domain.TaskAttempt)
	}
	if snap.PayoutRequests == nil {
		snap.PayoutRequests = make(map[string]domain.PayoutRequest)
	}
	return snap, nil
}
