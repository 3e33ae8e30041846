package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/infrastructure/models"
)

// MarketplaceTransactionRepositoryImpl implements MarketplaceTransactionRepository
type MarketplaceTransactionRepositoryImpl struct {
	db *gorm.DB
}

func NewMarketplaceTransactionRepository(db *gorm.DB) *MarketplaceTransactionRepositoryImpl {
	return &MarketplaceTransactionRepositoryImpl{db: db}
}

func (r *MarketplaceTransactionRepositoryImpl) Create(ctx context.Context, tx *entities.MarketplaceTransaction) error {
	now := time.Now()
	m := &models.MarketplaceTransaction{
		ID:        tx.ID,
		SessionID: tx.SessionID,
		Action:    string(tx.Action),
		TokenID:   tx.TokenID,
		TxHash:    strings.ToLower(tx.TxHash),
		Status:    string(tx.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return nil
}

func (r *MarketplaceTransactionRepositoryImpl) GetByHash(ctx context.Context, txHash string) (*entities.MarketplaceTransaction, error) {
	var m models.MarketplaceTransaction
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("tx_hash = ?", strings.ToLower(txHash)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *MarketplaceTransactionRepositoryImpl) ListPending(ctx context.Context, limit int) ([]*entities.MarketplaceTransaction, error) {
	var ms []models.MarketplaceTransaction
	if err := r.db.WithContext(ctx).
		Where("status = ?", entities.TxStatusPending).
		Order("last_checked_at IS NOT NULL").
		Order("last_checked_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	txs := make([]*entities.MarketplaceTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, r.toEntity(&ms[i]))
	}
	return txs, nil
}

// MarkChecked stamps the still-pending rows among ids as polled at at
func (r *MarketplaceTransactionRepositoryImpl) MarkChecked(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.MarketplaceTransaction{}).
		Where("id IN ? AND status = ?", ids, entities.TxStatusPending).
		Update("last_checked_at", at).Error
}

func (r *MarketplaceTransactionRepositoryImpl) CountPendingBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.MarketplaceTransaction{}).
		Where("session_id = ? AND status = ?", sessionID, entities.TxStatusPending).
		Count(&n).Error
	return n, err
}

func (r *MarketplaceTransactionRepositoryImpl) ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*entities.MarketplaceTransaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.MarketplaceTransaction{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var ms []models.MarketplaceTransaction
	if err := query.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]*entities.MarketplaceTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, r.toEntity(&ms[i]))
	}
	return txs, total, nil
}

func (r *MarketplaceTransactionRepositoryImpl) MarkConfirmed(ctx context.Context, id uuid.UUID, blockNumber uint64) error {
	now := time.Now()
	return r.finalize(ctx, id, map[string]interface{}{
		"status":       entities.TxStatusConfirmed,
		"block_number": blockNumber,
		"confirmed_at": now,
		"updated_at":   now,
	})
}

func (r *MarketplaceTransactionRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string, blockNumber uint64) error {
	updates := map[string]interface{}{
		"status":     entities.TxStatusFailed,
		"error":      reason,
		"updated_at": time.Now(),
	}
	if blockNumber > 0 {
		updates["block_number"] = blockNumber
	}
	return r.finalize(ctx, id, updates)
}

// finalize only moves pending rows, so a transaction settles once
func (r *MarketplaceTransactionRepositoryImpl) finalize(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.MarketplaceTransaction{}).
		Where("id = ? AND status = ?", id, entities.TxStatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *MarketplaceTransactionRepositoryImpl) toEntity(m *models.MarketplaceTransaction) *entities.MarketplaceTransaction {
	return &entities.MarketplaceTransaction{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Action:      entities.TxAction(m.Action),
		TokenID:     m.TokenID,
		TxHash:      m.TxHash,
		Status:      entities.TxStatus(m.Status),
		Error:       null.StringFromPtr(m.Error),
		BlockNumber: null.Uint64FromPtr(m.BlockNumber),
		ConfirmedAt: null.TimeFromPtr(m.ConfirmedAt),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
