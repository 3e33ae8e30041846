package repositories

import (
	"context"

	"nft-marketplace.backend/internal/domain/entities"
)

// WalletSnapshotRepository persists a session's wallet mirror between visits
type WalletSnapshotRepository interface {
	Save(ctx context.Context, sessionID string, state entities.WalletState) error
	// Load returns nil when nothing was stored
	Load(ctx context.Context, sessionID string) (*entities.WalletState, error)
	Delete(ctx context.Context, sessionID string) error
}
