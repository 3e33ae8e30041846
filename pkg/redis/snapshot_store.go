package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	// SnapshotKeyPrefix is the fixed storage key of the persisted wallet mirror
	SnapshotKeyPrefix = "wallet-storage"
	// DefaultSnapshotTTL keeps an idle browser's wallet mirror for 30 days
	DefaultSnapshotTTL = 30 * 24 * time.Hour
)

var (
	setSnapshotValue = Set
	getSnapshotValue = Get
	delSnapshotValue = Del
)

// SnapshotStore persists per-session JSON snapshots in Redis
type SnapshotStore struct {
	ttl time.Duration
}

// NewSnapshotStore creates a snapshot store. A non-positive ttl uses DefaultSnapshotTTL.
func NewSnapshotStore(ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{ttl: ttl}
}

// SnapshotKey returns the redis key for a session
func SnapshotKey(sessionID string) string {
	return SnapshotKeyPrefix + ":" + sessionID
}

// Save stores v as JSON under the session's key
func (s *SnapshotStore) Save(ctx context.Context, sessionID string, v interface{}) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return setSnapshotValue(ctx, SnapshotKey(sessionID), data, s.ttl)
}

// Load decodes the session's snapshot into v. found is false when nothing was stored.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string, v interface{}) (bool, error) {
	raw, err := getSnapshotValue(ctx, SnapshotKey(sessionID))
	if err != nil {
		if IsNil(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the session's snapshot
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return delSnapshotValue(ctx, SnapshotKey(sessionID))
}
