package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/interfaces/http/response"
	"nft-marketplace.backend/internal/usecases"
)

type catalogService interface {
	GetListedCatalog(ctx context.Context) []*entities.NFT
	GetOwnedCatalog(ctx context.Context, address string) []*entities.NFT
	GetByID(ctx context.Context, id string) (*entities.NFT, error)
	GetStats(ctx context.Context) entities.MarketplaceStats
}

// NFTHandler serves the public catalog. Catalog reads never fail with a 5xx.
type NFTHandler struct {
	catalog catalogService
}

// NewNFTHandler creates a new NFT handler
func NewNFTHandler(catalog *usecases.CatalogUsecase) *NFTHandler {
	return &NFTHandler{catalog: catalog}
}

// ListNFTs returns every listed NFT
// GET /api/v1/nfts
func (h *NFTHandler) ListNFTs(c *gin.Context) {
	nfts := h.catalog.GetListedCatalog(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{
		"nfts":  nfts,
		"total": len(nfts),
	})
}

// GetNFT returns one listed NFT
// GET /api/v1/nfts/:id
func (h *NFTHandler) GetNFT(c *gin.Context) {
	nft, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) || errors.Is(err, domainerrors.ErrInvalidInput) {
			response.Error(c, domainerrors.NotFound("NFT not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"nft": nft})
}

// GetStats returns marketplace counters
// GET /api/v1/nfts/stats
func (h *NFTHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.catalog.GetStats(c.Request.Context()))
}

// ListUserNFTs returns the NFTs owned by an address
// GET /api/v1/users/:address/nfts
func (h *NFTHandler) ListUserNFTs(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		response.Error(c, domainerrors.BadRequest("Invalid address"))
		return
	}

	nfts := h.catalog.GetOwnedCatalog(c.Request.Context(), address)
	response.Success(c, http.StatusOK, gin.H{
		"owner": common.HexToAddress(address).Hex(),
		"nfts":  nfts,
		"total": len(nfts),
	})
}
