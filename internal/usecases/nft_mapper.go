package usecases

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/pkg/placeholder"
	"nft-marketplace.backend/pkg/units"
)

const artistSuffixLen = 6

// NFTMapper converts on-chain records into display records.
// It performs no I/O and is safe for concurrent use.
type NFTMapper struct {
	contractAddress string
	symbol          string
	formatPrice     func(*big.Int) string
	now             func() time.Time
}

// NewNFTMapper creates a mapper. A nil formatPrice renders ether.
func NewNFTMapper(contractAddress, symbol string, formatPrice func(*big.Int) string) *NFTMapper {
	if formatPrice == nil {
		formatPrice = units.FormatEther
	}
	return &NFTMapper{
		contractAddress: contractAddress,
		symbol:          symbol,
		formatPrice:     formatPrice,
		now:             time.Now,
	}
}

// ToDisplayRecord converts rec. It fails with ErrInvalidRecord when the token id
// or the creator address is missing; callers skip such records.
func (m *NFTMapper) ToDisplayRecord(rec entities.OnchainRecord, kind entities.CatalogKind) (*entities.NFT, error) {
	if rec.TokenID == nil || rec.TokenID.Sign() < 0 {
		return nil, fmt.Errorf("token id: %w", domainerrors.ErrInvalidRecord)
	}
	if rec.Creator == (common.Address{}) {
		return nil, fmt.Errorf("token %s has no creator: %w", rec.TokenID, domainerrors.ErrInvalidRecord)
	}

	id := rec.TokenID.String()
	creator := rec.Creator.Hex()
	now := m.now()

	description := fmt.Sprintf("Digital collectible #%s created on the marketplace", id)
	if kind == entities.CatalogOwned {
		description = fmt.Sprintf("Digital collectible #%s owned by you", id)
	}

	return &entities.NFT{
		ID:              id,
		Title:           "NFT #" + id,
		Description:     description,
		Artist:          "Creator " + creator[len(creator)-artistSuffixLen:],
		ArtistAvatar:    placeholder.AvatarFor(rec.TokenID),
		Image:           placeholder.NFTImagePath(rec.TokenID),
		Price:           units.WithSymbol(m.formatPrice(rec.Price), m.symbol),
		CreatedAt:       now,
		UpdatedAt:       now,
		IsListed:        rec.IsListed,
		TokenID:         id,
		ContractAddress: m.contractAddress,
		Creator:         creator,
		Owner:           rec.Owner.Hex(),
		Sold:            rec.Sold,
		Attributes:      []entities.Attribute{},
	}, nil
}
