package repositories

import (
	"context"

	"nft-marketplace.backend/internal/domain/entities"
	"nft-marketplace.backend/pkg/redis"
)

// WalletSnapshotRepositoryImpl stores wallet snapshots in Redis
type WalletSnapshotRepositoryImpl struct {
	store *redis.SnapshotStore
}

func NewWalletSnapshotRepository(store *redis.SnapshotStore) *WalletSnapshotRepositoryImpl {
	return &WalletSnapshotRepositoryImpl{store: store}
}

func (r *WalletSnapshotRepositoryImpl) Save(ctx context.Context, sessionID string, state entities.WalletState) error {
	return r.store.Save(ctx, sessionID, state)
}

func (r *WalletSnapshotRepositoryImpl) Load(ctx context.Context, sessionID string) (*entities.WalletState, error) {
	var state entities.WalletState
	found, err := r.store.Load(ctx, sessionID, &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (r *WalletSnapshotRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, sessionID)
}
