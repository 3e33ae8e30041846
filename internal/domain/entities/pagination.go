package entities

// PaginationState tracks the visible prefix of a catalog
type PaginationState struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// VisibleCount is the length of list[0 : page*limit] clipped to total
func (p PaginationState) VisibleCount() int {
	n := p.Page * p.Limit
	if n > p.Total {
		return p.Total
	}
	if n < 0 {
		return 0
	}
	return n
}

// Marketplace categories (tabs)
const (
	CategoryNFTs   = "nfts"
	CategoryMyNFTs = "my-nfts"
)

// IsValidCategory reports whether category is a known tab
func IsValidCategory(category string) bool {
	return category == CategoryNFTs || category == CategoryMyNFTs
}

// MarketplaceView is what a client renders for one tab
type MarketplaceView struct {
	NFTs             []*NFT          `json:"nfts"`
	TotalCount       int             `json:"totalCount"`
	IsLoading        bool            `json:"isLoading"`
	Error            *string         `json:"error"`
	Pagination       PaginationState `json:"pagination"`
	SelectedCategory string          `json:"selectedCategory"`
	HasResults       bool            `json:"hasResults"`
	HasMore          bool            `json:"hasMore"`
	IsEmpty          bool            `json:"isEmpty"`
}
