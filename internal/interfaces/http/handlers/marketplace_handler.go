package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/interfaces/http/response"
	"nft-marketplace.backend/internal/usecases"
)

type marketplaceService interface {
	View(ctx context.Context, store *usecases.MarketplaceStore, owner string) entities.MarketplaceView
	LoadMore(ctx context.Context, store *usecases.MarketplaceStore, owner string) entities.MarketplaceView
	Reset(ctx context.Context, store *usecases.MarketplaceStore, owner string) entities.MarketplaceView
	SelectCategory(ctx context.Context, store *usecases.MarketplaceStore, owner, category string) (entities.MarketplaceView, error)
}

// SelectCategoryInput switches the marketplace tab
type SelectCategoryInput struct {
	Category string `json:"category" binding:"required"`
}

// MarketplaceHandler serves a session's paginated marketplace view
type MarketplaceHandler struct {
	marketplace marketplaceService
	sessions    sessionProvider
}

// NewMarketplaceHandler creates a new marketplace handler
func NewMarketplaceHandler(marketplace *usecases.MarketplaceUsecase, sessions *usecases.SessionRegistry) *MarketplaceHandler {
	return &MarketplaceHandler{marketplace: marketplace, sessions: sessions}
}

// GetView returns the session's view, switching tab first when ?tab is given
// GET /api/v1/marketplace
func (h *MarketplaceHandler) GetView(c *gin.Context) {
	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if tab := c.Query("tab"); tab != "" {
		view, err := h.marketplace.SelectCategory(ctx, s.Store, s.Owner(), tab)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid tab"))
			return
		}
		response.Success(c, http.StatusOK, view)
		return
	}

	response.Success(c, http.StatusOK, h.marketplace.View(ctx, s.Store, s.Owner()))
}

// LoadMore reveals the next page
// POST /api/v1/marketplace/load-more
func (h *MarketplaceHandler) LoadMore(c *gin.Context) {
	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.marketplace.LoadMore(c.Request.Context(), s.Store, s.Owner()))
}

// Reset returns the view to its first page of the default tab
// POST /api/v1/marketplace/reset
func (h *MarketplaceHandler) Reset(c *gin.Context) {
	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.marketplace.Reset(c.Request.Context(), s.Store, s.Owner()))
}

// SelectCategory switches the tab
// PUT /api/v1/marketplace/category
func (h *MarketplaceHandler) SelectCategory(c *gin.Context) {
	var input SelectCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	view, err := h.marketplace.SelectCategory(c.Request.Context(), s.Store, s.Owner(), input.Category)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid category"))
		return
	}
	response.Success(c, http.StatusOK, view)
}
