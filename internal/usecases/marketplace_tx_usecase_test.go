package usecases_test

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/infrastructure/blockchain"
	"nft-marketplace.backend/internal/usecases"
	"nft-marketplace.backend/pkg/utils"
)

const testTxHash = "0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b"

type writerStub struct {
	ready bool
	rec   *entities.OnchainRecord
	err   error
}

func (w writerStub) IsReady() bool { return w.ready }

func (w writerStub) GetRecord(context.Context, *big.Int) (*entities.OnchainRecord, error) {
	return w.rec, w.err
}

func (w writerStub) ContractAddress() string { return testContract }

func (w writerStub) ABI() abi.ABI { return blockchain.MarketplaceABI }

func newTxUsecase(w writerStub) (*usecases.MarketplaceTxUsecase, *MockMarketplaceTransactionRepository, *MockUnitOfWork) {
	repo := new(MockMarketplaceTransactionRepository)
	uow := new(MockUnitOfWork)
	return usecases.NewMarketplaceTxUsecase(w, repo, uow, 31337), repo, uow
}

func packed(t *testing.T, method string, args ...interface{}) string {
	t.Helper()
	data, err := blockchain.MarketplaceABI.Pack(method, args...)
	require.NoError(t, err)
	return hexutil.Encode(data)
}

func assertAppStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.Status)
}

func TestMarketplaceTxUsecase_BuildBuy(t *testing.T) {
	uc, _, _ := newTxUsecase(writerStub{ready: true, rec: listedRecord(7, "1000000000000000000")})

	req, err := uc.BuildBuy(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, testContract, req.To)
	assert.Equal(t, packed(t, "buyNFT", big.NewInt(7)), req.Data)
	assert.Equal(t, "0xde0b6b3a7640000", req.Value)
	assert.Equal(t, int64(31337), req.ChainID)
	assert.Equal(t, "buy", req.Action)
	assert.Equal(t, "7", req.TokenID)
}

func TestMarketplaceTxUsecase_BuildBuy_Errors(t *testing.T) {
	sold := listedRecord(7, "1")
	sold.Sold = true
	unlisted := listedRecord(7, "1")
	unlisted.IsListed = false

	cases := []struct {
		name    string
		writer  writerStub
		tokenID string
		status  int
		is      error
	}{
		{"bad id", writerStub{ready: true}, "abc", http.StatusBadRequest, domainerrors.ErrInvalidInput},
		{"negative id", writerStub{ready: true}, "-1", http.StatusBadRequest, domainerrors.ErrInvalidInput},
		{"not connected", writerStub{}, "7", http.StatusServiceUnavailable, domainerrors.ErrNotConnected},
		{"read failure", writerStub{ready: true, err: errors.New("execution reverted")}, "7", http.StatusNotFound, domainerrors.ErrNotFound},
		{"sold", writerStub{ready: true, rec: sold}, "7", http.StatusConflict, domainerrors.ErrNotListed},
		{"unlisted", writerStub{ready: true, rec: unlisted}, "7", http.StatusConflict, domainerrors.ErrNotListed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc, _, _ := newTxUsecase(tc.writer)
			_, err := uc.BuildBuy(context.Background(), tc.tokenID)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.is)
			assertAppStatus(t, err, tc.status)
		})
	}
}

func TestMarketplaceTxUsecase_BuildPricedCalls(t *testing.T) {
	uc, _, _ := newTxUsecase(writerStub{ready: true})
	wei, _ := new(big.Int).SetString("2500000000000000000", 10)

	list, err := uc.Build(context.Background(), usecases.BuildTxInput{Action: entities.TxActionList, TokenID: "3", Price: "2.5"})
	require.NoError(t, err)
	assert.Equal(t, packed(t, "listNFT", big.NewInt(3), wei), list.Data)
	assert.Equal(t, "0x0", list.Value)

	update, err := uc.Build(context.Background(), usecases.BuildTxInput{Action: entities.TxActionUpdatePrice, TokenID: "3", Price: "2.5"})
	require.NoError(t, err)
	assert.Equal(t, packed(t, "updateNFTPrice", big.NewInt(3), wei), update.Data)
	assert.Equal(t, "update-price", update.Action)

	unlist, err := uc.Build(context.Background(), usecases.BuildTxInput{Action: entities.TxActionUnlist, TokenID: "3"})
	require.NoError(t, err)
	assert.Equal(t, packed(t, "unlistNFT", big.NewInt(3)), unlist.Data)
}

func TestMarketplaceTxUsecase_BuildPricedCalls_Errors(t *testing.T) {
	uc, _, _ := newTxUsecase(writerStub{ready: true})

	for _, price := range []string{"", "0", "-1", "abc", "0.0000000000000000001"} {
		_, err := uc.BuildList("3", price)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidInput, "price %q", price)
	}

	_, err := uc.Build(context.Background(), usecases.BuildTxInput{Action: "mint", TokenID: "3"})
	assertAppStatus(t, err, http.StatusBadRequest)

	offline, _, _ := newTxUsecase(writerStub{})
	_, err = offline.BuildUpdatePrice("3", "1")
	assert.ErrorIs(t, err, domainerrors.ErrNotConnected)
	_, err = offline.BuildUnlist("3")
	assert.ErrorIs(t, err, domainerrors.ErrNotConnected)
	_, err = offline.BuildUnlist("x")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestMarketplaceTxUsecase_Track_CreatesPending(t *testing.T) {
	uc, repo, uow := newTxUsecase(writerStub{ready: true})
	sessionID := uuid.New()

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetByHash", mock.Anything, testTxHash).Return(nil, domainerrors.ErrNotFound).Once()
	repo.On("CountPendingBySession", mock.Anything, sessionID).Return(int64(0), nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(tx *entities.MarketplaceTransaction) bool {
		return tx.SessionID == sessionID && tx.Status == entities.TxStatusPending && tx.TxHash == testTxHash && tx.ID != uuid.Nil
	})).Return(nil).Once()

	tx, err := uc.Track(context.Background(), sessionID, usecases.TrackTxInput{
		Action:  entities.TxActionBuy,
		TokenID: "7",
		TxHash:  "0x9FC76417374AA880D4449A1F7F31EC597F00B1F6F3DD2D66F4C9C6C445836D8B",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TxActionBuy, tx.Action)
	repo.AssertExpectations(t)
	uow.AssertNumberOfCalls(t, "Do", 1)
}

func TestMarketplaceTxUsecase_Track_Dedupe(t *testing.T) {
	uc, repo, uow := newTxUsecase(writerStub{ready: true})
	sessionID := uuid.New()
	existing := &entities.MarketplaceTransaction{ID: uuid.New(), SessionID: sessionID, TxHash: testTxHash}

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetByHash", mock.Anything, testTxHash).Return(existing, nil)

	got, err := uc.Track(context.Background(), sessionID, usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: testTxHash})
	require.NoError(t, err)
	assert.Same(t, existing, got)

	_, err = uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: testTxHash})
	assertAppStatus(t, err, http.StatusConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMarketplaceTxUsecase_Track_Errors(t *testing.T) {
	uc, repo, uow := newTxUsecase(writerStub{ready: true})
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: "mint", TokenID: "7", TxHash: testTxHash})
	assertAppStatus(t, err, http.StatusBadRequest)
	_, err = uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "x", TxHash: testTxHash})
	assertAppStatus(t, err, http.StatusBadRequest)
	_, err = uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: "0x1234"})
	assertAppStatus(t, err, http.StatusBadRequest)

	repo.On("GetByHash", mock.Anything, testTxHash).Return(nil, errors.New("db down")).Once()
	_, err = uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: testTxHash})
	assert.EqualError(t, err, "db down")

	repo.On("GetByHash", mock.Anything, testTxHash).Return(nil, domainerrors.ErrNotFound).Once()
	repo.On("CountPendingBySession", mock.Anything, mock.Anything).Return(int64(0), nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(domainerrors.ErrAlreadyExists).Once()
	_, err = uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: testTxHash})
	assertAppStatus(t, err, http.StatusConflict)

	repo.On("GetByHash", mock.Anything, testTxHash).Return(nil, domainerrors.ErrNotFound).Once()
	repo.On("CountPendingBySession", mock.Anything, mock.Anything).Return(int64(0), errors.New("count failed")).Once()
	_, err = uc.Track(context.Background(), uuid.New(), usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: testTxHash})
	assert.EqualError(t, err, "count failed")
}

func TestMarketplaceTxUsecase_Track_CapsPendingPerSession(t *testing.T) {
	uc, repo, uow := newTxUsecase(writerStub{ready: true})
	sessionID := uuid.New()

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetByHash", mock.Anything, testTxHash).Return(nil, domainerrors.ErrNotFound).Once()
	repo.On("CountPendingBySession", mock.Anything, sessionID).Return(int64(usecases.MaxPendingPerSession), nil).Once()

	_, err := uc.Track(context.Background(), sessionID, usecases.TrackTxInput{Action: entities.TxActionBuy, TokenID: "7", TxHash: testTxHash})
	assertAppStatus(t, err, http.StatusTooManyRequests)
	assert.ErrorIs(t, err, domainerrors.ErrTooManyPending)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMarketplaceTxUsecase_GetAndList(t *testing.T) {
	uc, repo, _ := newTxUsecase(writerStub{ready: true})
	sessionID := uuid.New()
	tx := &entities.MarketplaceTransaction{ID: uuid.New(), SessionID: sessionID, TxHash: testTxHash}

	repo.On("GetByHash", mock.Anything, testTxHash).Return(tx, nil).Once()
	got, err := uc.Get(context.Background(), testTxHash)
	require.NoError(t, err)
	assert.Same(t, tx, got)

	repo.On("GetByHash", mock.Anything, testTxHash).Return(nil, domainerrors.ErrNotFound).Once()
	_, err = uc.Get(context.Background(), testTxHash)
	assertAppStatus(t, err, http.StatusNotFound)

	_, err = uc.Get(context.Background(), "nope")
	assertAppStatus(t, err, http.StatusBadRequest)

	repo.On("ListBySession", mock.Anything, sessionID, 2, 2).Return([]*entities.MarketplaceTransaction{tx}, int64(5), nil).Once()
	items, meta, err := uc.List(context.Background(), sessionID, utils.GetPaginationParams(2, 2))
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasMore)

	repo.On("ListBySession", mock.Anything, sessionID, 20, 0).Return(nil, int64(0), errors.New("db down")).Once()
	_, _, err = uc.List(context.Background(), sessionID, utils.GetPaginationParams(1, 0))
	assert.Error(t, err)
}
