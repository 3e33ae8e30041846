package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"nft-marketplace.backend/internal/domain/entities"
)

// MarketplaceTransactionRepository stores wallet-submitted writes until they land
type MarketplaceTransactionRepository interface {
	Create(ctx context.Context, tx *entities.MarketplaceTransaction) error
	GetByHash(ctx context.Context, txHash string) (*entities.MarketplaceTransaction, error)
	// ListPending returns pending transactions, least recently checked first
	ListPending(ctx context.Context, limit int) ([]*entities.MarketplaceTransaction, error)
	MarkChecked(ctx context.Context, ids []uuid.UUID, at time.Time) error
	CountPendingBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*entities.MarketplaceTransaction, int64, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID, blockNumber uint64) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, blockNumber uint64) error
}
