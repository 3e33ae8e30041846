package usecases

import (
	"sync"

	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
)

// DefaultPageLimit is the page size of a new store
const DefaultPageLimit = 12

// MarketplaceStore holds one client's paginated view of a catalog.
// The visible slice is always the prefix list[0 : page*limit].
type MarketplaceStore struct {
	mu         sync.RWMutex
	limit      int
	nfts       []*entities.NFT
	isLoading  bool
	err        *string
	pagination entities.PaginationState
	category   string
}

// MarketplaceSnapshot is a consistent copy of the store state
type MarketplaceSnapshot struct {
	NFTs             []*entities.NFT
	Total            int
	IsLoading        bool
	Error            *string
	Pagination       entities.PaginationState
	SelectedCategory string
}

// NewMarketplaceStore creates a store in its initial state
func NewMarketplaceStore(limit int) *MarketplaceStore {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	s := &MarketplaceStore{limit: limit}
	s.resetLocked()
	return s
}

// initialPagination reports HasMore before any list is known so the first
// LoadMore is never refused. HasMore only tracks Total > Limit*Page once
// SetNfts has run.
func (s *MarketplaceStore) initialPagination() entities.PaginationState {
	return entities.PaginationState{Page: 1, Limit: s.limit, Total: 0, HasMore: true}
}

func (s *MarketplaceStore) resetLocked() {
	s.nfts = []*entities.NFT{}
	s.isLoading = false
	s.err = nil
	s.pagination = s.initialPagination()
	s.category = entities.CategoryNFTs
}

func (s *MarketplaceStore) recomputeLocked() {
	s.pagination.Total = len(s.nfts)
	s.pagination.HasMore = s.pagination.Total > s.pagination.Limit*s.pagination.Page
}

// SetNfts replaces the backing list. The current page is kept.
func (s *MarketplaceStore) SetNfts(nfts []*entities.NFT) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nfts == nil {
		nfts = []*entities.NFT{}
	}
	s.nfts = nfts
	s.recomputeLocked()
}

// SetLoading sets the loading flag
func (s *MarketplaceStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

// SetError sets or, with nil, clears the error message
func (s *MarketplaceStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.err = nil
		return
	}
	msg := err.Error()
	s.err = &msg
}

// SetSelectedCategory switches tabs. Switching to another tab restarts pagination.
func (s *MarketplaceStore) SetSelectedCategory(category string) error {
	if !entities.IsValidCategory(category) {
		return domainerrors.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.category == category {
		return nil
	}
	s.category = category
	s.nfts = []*entities.NFT{}
	s.err = nil
	s.pagination = s.initialPagination()
	return nil
}

// LoadMore reveals the next page. It is a no-op when nothing more is available.
func (s *MarketplaceStore) LoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pagination.HasMore {
		return false
	}
	s.pagination.Page++
	s.recomputeLocked()
	return true
}

// Reset returns the store to its initial state
func (s *MarketplaceStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Category returns the selected tab
func (s *MarketplaceStore) Category() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

// Snapshot returns the visible prefix and the flags
func (s *MarketplaceStore) Snapshot() MarketplaceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := make([]*entities.NFT, s.pagination.VisibleCount())
	copy(visible, s.nfts)

	return MarketplaceSnapshot{
		NFTs:             visible,
		Total:            len(s.nfts),
		IsLoading:        s.isLoading,
		Error:            s.err,
		Pagination:       s.pagination,
		SelectedCategory: s.category,
	}
}
