package usecases_test

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"nft-marketplace.backend/internal/domain/entities"
)

// MockMarketplaceReader
type MockMarketplaceReader struct {
	mock.Mock
}

func (m *MockMarketplaceReader) IsReady() bool {
	return m.Called().Bool(0)
}

func (m *MockMarketplaceReader) ListListedTokenIDs(ctx context.Context) ([]*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*big.Int), args.Error(1)
}

func (m *MockMarketplaceReader) GetUserTokenIDs(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*big.Int), args.Error(1)
}

func (m *MockMarketplaceReader) GetRecord(ctx context.Context, tokenID *big.Int) (*entities.OnchainRecord, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.OnchainRecord), args.Error(1)
}

func (m *MockMarketplaceReader) GetTotalNFTs(ctx context.Context) (*big.Int, error) {
	return m.uint(m.Called(ctx))
}

func (m *MockMarketplaceReader) GetTotalSold(ctx context.Context) (*big.Int, error) {
	return m.uint(m.Called(ctx))
}

func (m *MockMarketplaceReader) GetMarketplaceFee(ctx context.Context) (*big.Int, error) {
	return m.uint(m.Called(ctx))
}

func (m *MockMarketplaceReader) uint(args mock.Arguments) (*big.Int, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func tokenIDs(ids ...int64) []*big.Int {
	out := make([]*big.Int, len(ids))
	for i, id := range ids {
		out[i] = big.NewInt(id)
	}
	return out
}

// idMatcher matches a *big.Int argument by value
func idMatcher(id int64) interface{} {
	return mock.MatchedBy(func(v *big.Int) bool { return v != nil && v.Int64() == id })
}

var (
	testCreator = common.HexToAddress("0x00000000000000000000000000000000001a2b3c")
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000004d5e6f")
)

func listedRecord(id int64, priceWei string) *entities.OnchainRecord {
	price, _ := new(big.Int).SetString(priceWei, 10)
	return &entities.OnchainRecord{
		TokenID:  big.NewInt(id),
		Creator:  testCreator,
		Owner:    testOwner,
		Price:    price,
		IsListed: true,
	}
}
