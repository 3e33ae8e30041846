package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/pkg/units"
)

// ViewCaller executes read-only contract calls
type ViewCaller interface {
	CallView(ctx context.Context, to string, data []byte) ([]byte, error)
}

// connectionChecker is implemented by callers that connect lazily
type connectionChecker interface {
	Connected() bool
}

// nftItem mirrors the getNFTItem tuple; field names follow the ABI component names.
type nftItem struct {
	TokenId *big.Int
	Seller  common.Address
	Owner   common.Address
	Price   *big.Int
	Sold    bool
	Listed  bool
}

// MarketplaceGateway is a typed, read-only binding of the marketplace contract.
// It is immutable after construction and safe for concurrent use; the caller
// may resolve its connection lazily.
type MarketplaceGateway struct {
	caller   ViewCaller
	abi      abi.ABI
	address  common.Address
	decimals int32
}

// NewMarketplaceGateway binds caller to the marketplace contract at address.
// A nil caller or an invalid address yields a gateway that is not ready.
func NewMarketplaceGateway(caller ViewCaller, address string, decimals int32) *MarketplaceGateway {
	g := &MarketplaceGateway{
		caller:   caller,
		abi:      MarketplaceABI,
		decimals: decimals,
	}
	if common.IsHexAddress(address) {
		g.address = common.HexToAddress(address)
	}
	return g
}

// IsReady reports whether both the RPC connection and the contract binding
// exist. With a lazily connecting caller it turns true once the node is reachable.
func (g *MarketplaceGateway) IsReady() bool {
	if g == nil || g.caller == nil {
		return false
	}
	if c, ok := g.caller.(*EVMClient); ok && c == nil {
		return false
	}
	if g.address == (common.Address{}) {
		return false
	}
	if cc, ok := g.caller.(connectionChecker); ok {
		return cc.Connected()
	}
	return true
}

// ContractAddress returns the checksummed contract address
func (g *MarketplaceGateway) ContractAddress() string {
	return g.address.Hex()
}

// ABI returns the parsed marketplace ABI
func (g *MarketplaceGateway) ABI() abi.ABI {
	return g.abi
}

// ListListedTokenIDs returns the ids of every listed item
func (g *MarketplaceGateway) ListListedTokenIDs(ctx context.Context) ([]*big.Int, error) {
	if !g.IsReady() {
		return nil, domainerrors.ErrNotConnected
	}
	return callTypedView[[]*big.Int](ctx, g.caller, g.address.Hex(), g.abi, "getListedNFTs")
}

// GetUserTokenIDs returns the ids owned by owner
func (g *MarketplaceGateway) GetUserTokenIDs(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	if !g.IsReady() {
		return nil, domainerrors.ErrNotConnected
	}
	return callTypedView[[]*big.Int](ctx, g.caller, g.address.Hex(), g.abi, "getUserNFTs", owner)
}

// GetRecord fetches one item. The contract's seller is reported as the creator.
func (g *MarketplaceGateway) GetRecord(ctx context.Context, tokenID *big.Int) (*entities.OnchainRecord, error) {
	if !g.IsReady() {
		return nil, domainerrors.ErrNotConnected
	}
	if tokenID == nil {
		return nil, fmt.Errorf("getNFTItem: %w", domainerrors.ErrInvalidInput)
	}

	data, err := g.abi.Pack("getNFTItem", tokenID)
	if err != nil {
		return nil, err
	}
	out, err := g.caller.CallView(ctx, g.address.Hex(), data)
	if err != nil {
		return nil, fmt.Errorf("getNFTItem(%s): %w", tokenID, err)
	}
	vals, err := g.abi.Unpack("getNFTItem", out)
	if err != nil || len(vals) == 0 {
		return nil, fmt.Errorf("failed to decode getNFTItem(%s)", tokenID)
	}
	item := *abi.ConvertType(vals[0], new(nftItem)).(*nftItem)

	return &entities.OnchainRecord{
		TokenID:  item.TokenId,
		Creator:  item.Seller,
		Owner:    item.Owner,
		Price:    item.Price,
		IsListed: item.Listed,
		Sold:     item.Sold,
	}, nil
}

// GetTotalNFTs returns the number of items ever created
func (g *MarketplaceGateway) GetTotalNFTs(ctx context.Context) (*big.Int, error) {
	return g.callUint(ctx, "getTotalNFTs")
}

// GetTotalSold returns the number of items sold
func (g *MarketplaceGateway) GetTotalSold(ctx context.Context) (*big.Int, error) {
	return g.callUint(ctx, "getTotalSold")
}

// GetMarketplaceFee returns the fee in basis points
func (g *MarketplaceGateway) GetMarketplaceFee(ctx context.Context) (*big.Int, error) {
	return g.callUint(ctx, "getMarketplaceFee")
}

// TokenURI returns the metadata URI of tokenID
func (g *MarketplaceGateway) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	if !g.IsReady() {
		return "", domainerrors.ErrNotConnected
	}
	return callTypedView[string](ctx, g.caller, g.address.Hex(), g.abi, "tokenURI", tokenID)
}

// FormatPrice converts wei into a decimal string in the payment token's units
func (g *MarketplaceGateway) FormatPrice(wei *big.Int) string {
	return units.FormatUnits(wei, g.decimals)
}

func (g *MarketplaceGateway) callUint(ctx context.Context, method string) (*big.Int, error) {
	if !g.IsReady() {
		return nil, domainerrors.ErrNotConnected
	}
	return callTypedView[*big.Int](ctx, g.caller, g.address.Hex(), g.abi, method)
}

func callTypedView[T any](
	ctx context.Context,
	caller ViewCaller,
	contractAddress string,
	parsedABI abi.ABI,
	method string,
	args ...interface{},
) (T, error) {
	var zero T

	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return zero, err
	}
	out, err := caller.CallView(ctx, contractAddress, data)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", method, err)
	}
	vals, err := parsedABI.Unpack(method, out)
	if err != nil || len(vals) == 0 {
		return zero, fmt.Errorf("failed to decode %s", method)
	}
	value, ok := vals[0].(T)
	if !ok {
		return zero, fmt.Errorf("invalid %s return type", method)
	}
	return value, nil
}
