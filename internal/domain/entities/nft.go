package entities

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CatalogKind distinguishes the marketplace-wide catalog from a single owner's catalog
type CatalogKind string

const (
	CatalogListed CatalogKind = "listed"
	CatalogOwned  CatalogKind = "owned"
)

// OnchainRecord is the marketplace contract's item struct for one token.
// Creator holds the contract's seller field.
type OnchainRecord struct {
	TokenID  *big.Int
	Creator  common.Address
	Owner    common.Address
	Price    *big.Int // wei
	IsListed bool
	Sold     bool
}

// Attribute is a single trait of an NFT
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFT is the display record derived from an OnchainRecord
type NFT struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Artist          string      `json:"artist"`
	ArtistAvatar    string      `json:"artistAvatar"`
	Image           string      `json:"image"`
	Price           string      `json:"price"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	IsListed        bool        `json:"isListed"`
	TokenID         string      `json:"tokenId"`
	ContractAddress string      `json:"contractAddress"`
	Creator         string      `json:"creator"`
	Owner           string      `json:"owner"`
	Sold            bool        `json:"sold"`
	Attributes      []Attribute `json:"attributes"`
}

// Catalog is an ordered list of NFTs plus an id index over it
type Catalog struct {
	Items     []*NFT         `json:"items"`
	Index     map[string]int `json:"index"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// NewCatalog builds a catalog and its index. Later duplicates do not shadow earlier ids.
func NewCatalog(items []*NFT, fetchedAt time.Time) *Catalog {
	if items == nil {
		items = []*NFT{}
	}
	index := make(map[string]int, len(items))
	for i, item := range items {
		if _, exists := index[item.ID]; !exists {
			index[item.ID] = i
		}
	}
	return &Catalog{Items: items, Index: index, FetchedAt: fetchedAt}
}

// Lookup returns the NFT with the given id
func (c *Catalog) Lookup(id string) (*NFT, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.Index[id]
	if !ok || i < 0 || i >= len(c.Items) {
		return nil, false
	}
	return c.Items[i], true
}

// Len returns the number of NFTs in the catalog
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// MarketplaceStats holds marketplace-wide counters
type MarketplaceStats struct {
	TotalNFTs         uint64 `json:"totalNfts"`
	TotalSold         uint64 `json:"totalSold"`
	MarketplaceFeeBps uint64 `json:"marketplaceFeeBps"`
}
