package usecases

import (
	"context"

	"nft-marketplace.backend/internal/domain/entities"
	"nft-marketplace.backend/internal/infrastructure/cache"
)

// MarketplaceUsecase feeds a session's store from the query cache and renders its view
type MarketplaceUsecase struct {
	catalog *CatalogUsecase
	queries *cache.QueryClient
}

// NewMarketplaceUsecase creates a new marketplace usecase
func NewMarketplaceUsecase(catalog *CatalogUsecase, queries *cache.QueryClient) *MarketplaceUsecase {
	return &MarketplaceUsecase{catalog: catalog, queries: queries}
}

// View syncs the store with the catalog of its selected tab and returns what the client renders.
// owner is the session's connected wallet address, used by the my-nfts tab.
func (u *MarketplaceUsecase) View(ctx context.Context, store *MarketplaceStore, owner string) entities.MarketplaceView {
	key := cache.KeyNFTs
	category := store.Category()
	if category == entities.CategoryMyNFTs {
		key = cache.UserNFTsKey(owner)
	}

	if state, ok := u.queries.Peek(key); !ok || !state.HasData() {
		store.SetLoading(true)
	}

	var nfts []*entities.NFT
	switch {
	case category == entities.CategoryMyNFTs && owner == "":
		nfts = []*entities.NFT{}
	case category == entities.CategoryMyNFTs:
		nfts = u.catalog.GetOwnedCatalog(ctx, owner)
	default:
		nfts = u.catalog.GetListedCatalog(ctx)
	}

	store.SetNfts(nfts)
	store.SetLoading(false)
	state, _ := u.queries.Peek(key)
	store.SetError(state.Err)

	return renderView(store.Snapshot())
}

// LoadMore reveals the next page of the selected tab
func (u *MarketplaceUsecase) LoadMore(ctx context.Context, store *MarketplaceStore, owner string) entities.MarketplaceView {
	store.LoadMore()
	return u.View(ctx, store, owner)
}

// Reset returns the store to its initial state
func (u *MarketplaceUsecase) Reset(ctx context.Context, store *MarketplaceStore, owner string) entities.MarketplaceView {
	store.Reset()
	return u.View(ctx, store, owner)
}

// SelectCategory switches the store's tab
func (u *MarketplaceUsecase) SelectCategory(ctx context.Context, store *MarketplaceStore, owner, category string) (entities.MarketplaceView, error) {
	if err := store.SetSelectedCategory(category); err != nil {
		return entities.MarketplaceView{}, err
	}
	return u.View(ctx, store, owner), nil
}

func renderView(s MarketplaceSnapshot) entities.MarketplaceView {
	return entities.MarketplaceView{
		NFTs:             s.NFTs,
		TotalCount:       s.Total,
		IsLoading:        s.IsLoading,
		Error:            s.Error,
		Pagination:       s.Pagination,
		SelectedCategory: s.SelectedCategory,
		HasResults:       s.Total > 0,
		HasMore:          s.Pagination.HasMore,
		IsEmpty:          !s.IsLoading && s.Total == 0,
	}
}
