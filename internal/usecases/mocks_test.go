package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"nft-marketplace.backend/internal/domain/entities"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock MarketplaceTransactionRepository
type MockMarketplaceTransactionRepository struct {
	mock.Mock
}

func (m *MockMarketplaceTransactionRepository) Create(ctx context.Context, tx *entities.MarketplaceTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockMarketplaceTransactionRepository) GetByHash(ctx context.Context, txHash string) (*entities.MarketplaceTransaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MarketplaceTransaction), args.Error(1)
}

func (m *MockMarketplaceTransactionRepository) ListPending(ctx context.Context, limit int) ([]*entities.MarketplaceTransaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MarketplaceTransaction), args.Error(1)
}

func (m *MockMarketplaceTransactionRepository) MarkChecked(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	args := m.Called(ctx, ids, at)
	return args.Error(0)
}

func (m *MockMarketplaceTransactionRepository) CountPendingBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMarketplaceTransactionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*entities.MarketplaceTransaction, int64, error) {
	args := m.Called(ctx, sessionID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.MarketplaceTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockMarketplaceTransactionRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, blockNumber uint64) error {
	args := m.Called(ctx, id, blockNumber)
	return args.Error(0)
}

func (m *MockMarketplaceTransactionRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, blockNumber uint64) error {
	args := m.Called(ctx, id, reason, blockNumber)
	return args.Error(0)
}
