package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/interfaces/http/middleware"
	"nft-marketplace.backend/internal/interfaces/http/response"
	"nft-marketplace.backend/internal/usecases"
	"nft-marketplace.backend/pkg/utils"
)

type marketplaceTxService interface {
	Build(ctx context.Context, input usecases.BuildTxInput) (*entities.TxRequest, error)
	Track(ctx context.Context, sessionID uuid.UUID, input usecases.TrackTxInput) (*entities.MarketplaceTransaction, error)
	Get(ctx context.Context, txHash string) (*entities.MarketplaceTransaction, error)
	List(ctx context.Context, sessionID uuid.UUID, pagination utils.PaginationParams) ([]*entities.MarketplaceTransaction, utils.PaginationMeta, error)
}

// TransactionHandler builds unsigned marketplace writes and tracks submitted ones
type TransactionHandler struct {
	txUsecase marketplaceTxService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txUsecase *usecases.MarketplaceTxUsecase) *TransactionHandler {
	return &TransactionHandler{txUsecase: txUsecase}
}

// BuildTransaction returns an unsigned transaction for the wallet to sign
// POST /api/v1/transactions/build
func (h *TransactionHandler) BuildTransaction(c *gin.Context) {
	var input usecases.BuildTxInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	tx, err := h.txUsecase.Build(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": tx})
}

// TrackTransaction records a broadcast transaction as pending
// POST /api/v1/transactions
func (h *TransactionHandler) TrackTransaction(c *gin.Context) {
	var input usecases.TrackTxInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Session not authenticated"))
		return
	}

	tx, err := h.txUsecase.Track(c.Request.Context(), sessionID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"transaction": tx})
}

// ListTransactions lists the session's tracked transactions
// GET /api/v1/transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Session not authenticated"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(utils.DefaultLimit)))
	pagination := utils.GetPaginationParams(page, limit)

	items, meta, err := h.txUsecase.List(c.Request.Context(), sessionID, pagination)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []*entities.MarketplaceTransaction{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"items": items,
		"meta":  meta,
	})
}

// GetTransaction returns one tracked transaction
// GET /api/v1/transactions/:hash
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	tx, err := h.txUsecase.Get(c.Request.Context(), c.Param("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": tx})
}
