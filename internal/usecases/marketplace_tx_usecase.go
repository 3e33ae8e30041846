package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/domain/repositories"
	"nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/units"
	"nft-marketplace.backend/pkg/utils"
)

// MaxPendingPerSession caps the unsettled transactions one session may track
const MaxPendingPerSession = 20

// MarketplaceWriter is what building a write transaction needs from the contract gateway
type MarketplaceWriter interface {
	IsReady() bool
	GetRecord(ctx context.Context, tokenID *big.Int) (*entities.OnchainRecord, error)
	ContractAddress() string
	ABI() abi.ABI
}

// BuildTxInput asks for an unsigned marketplace transaction
type BuildTxInput struct {
	Action  entities.TxAction `json:"action" binding:"required"`
	TokenID string            `json:"tokenId" binding:"required"`
	Price   string            `json:"price"`
}

// TrackTxInput reports a transaction the wallet has broadcast
type TrackTxInput struct {
	Action  entities.TxAction `json:"action" binding:"required"`
	TokenID string            `json:"tokenId" binding:"required"`
	TxHash  string            `json:"txHash" binding:"required"`
}

// MarketplaceTxUsecase builds unsigned writes for the user's wallet and tracks what it submits.
// The service never signs.
type MarketplaceTxUsecase struct {
	gateway MarketplaceWriter
	txRepo  repositories.MarketplaceTransactionRepository
	uow     repositories.UnitOfWork
	chainID int64
}

// NewMarketplaceTxUsecase creates a new marketplace transaction usecase
func NewMarketplaceTxUsecase(
	gateway MarketplaceWriter,
	txRepo repositories.MarketplaceTransactionRepository,
	uow repositories.UnitOfWork,
	chainID int64,
) *MarketplaceTxUsecase {
	return &MarketplaceTxUsecase{
		gateway: gateway,
		txRepo:  txRepo,
		uow:     uow,
		chainID: chainID,
	}
}

// Build dispatches on input.Action
func (u *MarketplaceTxUsecase) Build(ctx context.Context, input BuildTxInput) (*entities.TxRequest, error) {
	switch input.Action {
	case entities.TxActionBuy:
		return u.BuildBuy(ctx, input.TokenID)
	case entities.TxActionList:
		return u.BuildList(input.TokenID, input.Price)
	case entities.TxActionUnlist:
		return u.BuildUnlist(input.TokenID)
	case entities.TxActionUpdatePrice:
		return u.BuildUpdatePrice(input.TokenID, input.Price)
	default:
		return nil, domainerrors.BadRequest(fmt.Sprintf("unknown action %q", input.Action))
	}
}

// BuildBuy returns a buyNFT call paying the record's listed price
func (u *MarketplaceTxUsecase) BuildBuy(ctx context.Context, tokenID string) (*entities.TxRequest, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	if !u.gateway.IsReady() {
		return nil, notConnected()
	}

	rec, err := u.gateway.GetRecord(ctx, id)
	if err != nil {
		logger.Error(ctx, "Failed to read NFT record", zap.String("token_id", tokenID), zap.Error(err))
		return nil, domainerrors.NotFound("NFT not found")
	}
	if !rec.IsListed || rec.Sold {
		return nil, domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeConflict, "NFT is not listed for sale", domainerrors.ErrNotListed)
	}
	return u.pack(entities.TxActionBuy, tokenID, rec.Price, "buyNFT", id)
}

// BuildList returns a listNFT call at price (display units)
func (u *MarketplaceTxUsecase) BuildList(tokenID, price string) (*entities.TxRequest, error) {
	return u.buildPriced(entities.TxActionList, "listNFT", tokenID, price)
}

// BuildUnlist returns an unlistNFT call
func (u *MarketplaceTxUsecase) BuildUnlist(tokenID string) (*entities.TxRequest, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	if !u.gateway.IsReady() {
		return nil, notConnected()
	}
	return u.pack(entities.TxActionUnlist, tokenID, nil, "unlistNFT", id)
}

// BuildUpdatePrice returns an updateNFTPrice call at price (display units)
func (u *MarketplaceTxUsecase) BuildUpdatePrice(tokenID, price string) (*entities.TxRequest, error) {
	return u.buildPriced(entities.TxActionUpdatePrice, "updateNFTPrice", tokenID, price)
}

func (u *MarketplaceTxUsecase) buildPriced(action entities.TxAction, method, tokenID, price string) (*entities.TxRequest, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	wei, err := units.ParseEther(price)
	if err != nil || wei.Sign() == 0 {
		return nil, domainerrors.BadRequest("price must be a positive amount")
	}
	if !u.gateway.IsReady() {
		return nil, notConnected()
	}
	return u.pack(action, tokenID, nil, method, id, wei)
}

func (u *MarketplaceTxUsecase) pack(action entities.TxAction, tokenID string, value *big.Int, method string, args ...interface{}) (*entities.TxRequest, error) {
	contractABI := u.gateway.ABI()
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, domainerrors.InternalError(fmt.Errorf("pack %s: %w", method, err))
	}
	if value == nil {
		value = big.NewInt(0)
	}
	return &entities.TxRequest{
		To:      u.gateway.ContractAddress(),
		Data:    hexutil.Encode(data),
		Value:   hexutil.EncodeBig(value),
		ChainID: u.chainID,
		Action:  string(action),
		TokenID: tokenID,
	}, nil
}

// Track records a submitted transaction as pending. Reporting the same hash
// again from the same session returns the existing record.
func (u *MarketplaceTxUsecase) Track(ctx context.Context, sessionID uuid.UUID, input TrackTxInput) (*entities.MarketplaceTransaction, error) {
	if !input.Action.IsValid() {
		return nil, domainerrors.BadRequest(fmt.Sprintf("unknown action %q", input.Action))
	}
	if _, err := parseTokenID(input.TokenID); err != nil {
		return nil, err
	}
	hash, ok := normalizeTxHash(input.TxHash)
	if !ok {
		return nil, domainerrors.BadRequest("invalid transaction hash")
	}

	var tracked *entities.MarketplaceTransaction
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		existing, err := u.txRepo.GetByHash(txCtx, hash)
		switch {
		case err == nil && existing.SessionID == sessionID:
			tracked = existing
			return nil
		case err == nil:
			return domainerrors.Conflict("transaction already tracked")
		case !errors.Is(err, domainerrors.ErrNotFound):
			return err
		}

		pending, err := u.txRepo.CountPendingBySession(txCtx, sessionID)
		if err != nil {
			return err
		}
		if pending >= MaxPendingPerSession {
			return domainerrors.NewAppError(http.StatusTooManyRequests, domainerrors.CodeTooManyPending, "too many pending transactions", domainerrors.ErrTooManyPending)
		}

		tx := &entities.MarketplaceTransaction{
			ID:        utils.GenerateUUIDv7(),
			SessionID: sessionID,
			Action:    input.Action,
			TokenID:   input.TokenID,
			TxHash:    hash,
			Status:    entities.TxStatusPending,
		}
		if err := u.txRepo.Create(txCtx, tx); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return domainerrors.Conflict("transaction already tracked")
			}
			return err
		}
		tracked = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tracked, nil
}

// Get returns a tracked transaction by hash
func (u *MarketplaceTxUsecase) Get(ctx context.Context, txHash string) (*entities.MarketplaceTransaction, error) {
	hash, ok := normalizeTxHash(txHash)
	if !ok {
		return nil, domainerrors.BadRequest("invalid transaction hash")
	}
	tx, err := u.txRepo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("transaction not found")
		}
		return nil, err
	}
	return tx, nil
}

// List returns a session's tracked transactions, newest first
func (u *MarketplaceTxUsecase) List(ctx context.Context, sessionID uuid.UUID, pagination utils.PaginationParams) ([]*entities.MarketplaceTransaction, utils.PaginationMeta, error) {
	items, total, err := u.txRepo.ListBySession(ctx, sessionID, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return items, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

func parseTokenID(tokenID string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(tokenID), 10)
	if !ok || id.Sign() < 0 {
		return nil, domainerrors.BadRequest("invalid token id")
	}
	return id, nil
}

func normalizeTxHash(h string) (string, bool) {
	h = strings.ToLower(strings.TrimSpace(h))
	b, err := hexutil.Decode(h)
	if err != nil || len(b) != common.HashLength {
		return "", false
	}
	return h, true
}

func notConnected() *domainerrors.AppError {
	return domainerrors.NewAppError(http.StatusServiceUnavailable, domainerrors.CodeNotConnected, "marketplace contract not connected", domainerrors.ErrNotConnected)
}
