package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the persisted state document. Field names are read by external
// tooling and must stay stable.
type Snapshot struct {
	Revision       string                   `json:"revision"`
	SavedAt        time.Time                `json:"savedAt"`
	Users          map[int64]User           `json:"users"`
	TaskAttempts   map[string]TaskAttempt   `json:"taskAttempts"`
	PayoutRequests map[string]PayoutRequest `json:"payoutRequests"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Users:          make(map[int64]User),
		TaskAttempts:   make(map[string]TaskAttempt),
		PayoutRequests: make(map[string]PayoutRequest),
	}
}

// AttemptKey builds the taskAttempts map key for a (user, task) pair.
func AttemptKey(userID int64, taskKey string) string {
	return fmt.Sprintf("%d:%s", userID, taskKey)
}

// ParseAttemptKey is the inverse of AttemptKey.
func ParseAttemptKey(key string) (int64, string, error) {
	idStr, taskKey, ok := strings.Cut(key, ":")
	if !ok || taskKey == "" {
		return 0, "", fmt.Errorf("malformed attempt key %q", key)
	}
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed attempt key %q: %w", key, err)
	}
	return userID, taskKey, nil
}
