package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"nft-marketplace.backend/internal/domain/entities"
	"nft-marketplace.backend/internal/usecases"
)

func listedReader(n int64) *MockMarketplaceReader {
	reader := new(MockMarketplaceReader)
	reader.On("IsReady").Return(true)
	all := make([]int64, n)
	for i := range all {
		all[i] = int64(i + 1)
		reader.On("GetRecord", mock.Anything, idMatcher(all[i])).Return(listedRecord(all[i], "1"), nil)
	}
	reader.On("ListListedTokenIDs", mock.Anything).Return(tokenIDs(all...), nil)
	return reader
}

func TestMarketplaceUsecase_ViewPaginatesListedCatalog(t *testing.T) {
	catalog, qc := newCatalogUsecase(listedReader(15))
	uc := usecases.NewMarketplaceUsecase(catalog, qc)
	store := usecases.NewMarketplaceStore(12)
	ctx := context.Background()

	view := uc.View(ctx, store, "")
	assert.Len(t, view.NFTs, 12)
	assert.Equal(t, 15, view.TotalCount)
	assert.True(t, view.HasMore)
	assert.True(t, view.HasResults)
	assert.False(t, view.IsEmpty)
	assert.False(t, view.IsLoading)
	assert.Nil(t, view.Error)
	assert.Equal(t, entities.CategoryNFTs, view.SelectedCategory)

	view = uc.LoadMore(ctx, store, "")
	assert.Len(t, view.NFTs, 15)
	assert.False(t, view.HasMore)
	assert.Equal(t, 2, view.Pagination.Page)

	view = uc.Reset(ctx, store, "")
	assert.Len(t, view.NFTs, 12)
	assert.Equal(t, 1, view.Pagination.Page)
}

func TestMarketplaceUsecase_MyNFTsTab(t *testing.T) {
	reader := listedReader(0)
	reader.On("GetUserTokenIDs", mock.Anything, testOwner).Return(tokenIDs(42), nil)
	reader.On("GetRecord", mock.Anything, idMatcher(42)).Return(listedRecord(42, "1"), nil)
	catalog, qc := newCatalogUsecase(reader)
	uc := usecases.NewMarketplaceUsecase(catalog, qc)
	store := usecases.NewMarketplaceStore(12)
	ctx := context.Background()

	_, err := uc.SelectCategory(ctx, store, "", "bogus")
	assert.Error(t, err)

	view, err := uc.SelectCategory(ctx, store, "", entities.CategoryMyNFTs)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty)
	assert.Empty(t, view.NFTs)

	view = uc.View(ctx, store, testOwner.Hex())
	require.Len(t, view.NFTs, 1)
	assert.Equal(t, "42", view.NFTs[0].ID)
	assert.Equal(t, entities.CategoryMyNFTs, view.SelectedCategory)
}
