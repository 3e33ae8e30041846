package usecases

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"nft-marketplace.backend/internal/config"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/infrastructure/cache"
	"nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/metrics"
)

// DefaultMarketplaceFeeBps is reported when the fee read fails
const DefaultMarketplaceFeeBps = 250

// MarketplaceReader is the read side of the marketplace contract
type MarketplaceReader interface {
	IsReady() bool
	ListListedTokenIDs(ctx context.Context) ([]*big.Int, error)
	GetUserTokenIDs(ctx context.Context, owner common.Address) ([]*big.Int, error)
	GetRecord(ctx context.Context, tokenID *big.Int) (*entities.OnchainRecord, error)
	GetTotalNFTs(ctx context.Context) (*big.Int, error)
	GetTotalSold(ctx context.Context) (*big.Int, error)
	GetMarketplaceFee(ctx context.Context) (*big.Int, error)
}

// CatalogUsecase builds display catalogs from the marketplace contract.
// Its read entry points are fail-soft: failures degrade to empty results.
type CatalogUsecase struct {
	reader  MarketplaceReader
	mapper  *NFTMapper
	queries *cache.QueryClient
	cfg     config.CatalogConfig
	metrics *metrics.Metrics
	now     func() time.Time

	feeFallbackBps uint64
}

// NewCatalogUsecase creates a new catalog usecase
func NewCatalogUsecase(
	reader MarketplaceReader,
	mapper *NFTMapper,
	queries *cache.QueryClient,
	cfg config.CatalogConfig,
	m *metrics.Metrics,
) *CatalogUsecase {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	return &CatalogUsecase{
		reader:  reader,
		mapper:  mapper,
		queries: queries,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,

		feeFallbackBps: DefaultMarketplaceFeeBps,
	}
}

// SetFeeFallback sets the fee reported when the contract's fee cannot be read
func (u *CatalogUsecase) SetFeeFallback(bps uint64) {
	u.feeFallbackBps = bps
}

// ListedOptions is the cache policy of the marketplace-wide catalog
func (u *CatalogUsecase) ListedOptions() cache.QueryOptions {
	return cache.QueryOptions{StaleTime: u.cfg.ListedStaleTime, GCTime: u.cfg.ListedGCTime}
}

// OwnedOptions is the cache policy of an owner's catalog
func (u *CatalogUsecase) OwnedOptions() cache.QueryOptions {
	return cache.QueryOptions{StaleTime: u.cfg.OwnedStaleTime, GCTime: u.cfg.ListedGCTime}
}

// GetListedCatalog returns every listed NFT in contract order. It never fails.
func (u *CatalogUsecase) GetListedCatalog(ctx context.Context) []*entities.NFT {
	catalog, err := u.ListedCatalog(ctx)
	if err != nil {
		return []*entities.NFT{}
	}
	return catalog.Items
}

// ListedCatalog returns the cached listed catalog with its index.
// The only possible error is the caller's context ending.
func (u *CatalogUsecase) ListedCatalog(ctx context.Context) (*entities.Catalog, error) {
	catalog, err := cache.Fetch(ctx, u.queries, cache.KeyNFTs, u.ListedOptions(), u.fetchListed)
	if catalog == nil {
		catalog = entities.NewCatalog(nil, u.now())
	}
	return catalog, err
}

// GetOwnedCatalog returns the NFTs owned by address, or an empty list for a missing or malformed address
func (u *CatalogUsecase) GetOwnedCatalog(ctx context.Context, address string) []*entities.NFT {
	if !common.IsHexAddress(address) {
		return []*entities.NFT{}
	}
	owner := common.HexToAddress(address)
	catalog, err := cache.Fetch(ctx, u.queries, cache.UserNFTsKey(owner.Hex()), u.OwnedOptions(),
		func(ctx context.Context) (*entities.Catalog, error) {
			return u.fetchOwned(ctx, owner), nil
		})
	if err != nil || catalog == nil {
		return []*entities.NFT{}
	}
	return catalog.Items
}

// GetByID finds a listed NFT by its decimal token id
func (u *CatalogUsecase) GetByID(ctx context.Context, id string) (*entities.NFT, error) {
	if _, ok := new(big.Int).SetString(id, 10); !ok {
		return nil, domainerrors.ErrInvalidInput
	}
	catalog, err := u.ListedCatalog(ctx)
	if err != nil {
		return nil, err
	}
	nft, ok := catalog.Lookup(id)
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return nft, nil
}

// GetStats returns marketplace counters, falling back to 0, 0 and the default fee on read failure
func (u *CatalogUsecase) GetStats(ctx context.Context) entities.MarketplaceStats {
	stats, err := cache.Fetch(ctx, u.queries, cache.KeyStats, u.ListedOptions(),
		func(ctx context.Context) (entities.MarketplaceStats, error) {
			return u.fetchStats(ctx), nil
		})
	if err != nil {
		return entities.MarketplaceStats{MarketplaceFeeBps: u.feeFallbackBps}
	}
	return stats
}

// RefreshListed refetches the listed catalog when it is stale
func (u *CatalogUsecase) RefreshListed(ctx context.Context) bool {
	if !u.queries.IsStale(cache.KeyNFTs, u.ListedOptions()) {
		return false
	}
	u.queries.Invalidate(ctx, cache.KeyNFTs)
	_, err := u.ListedCatalog(ctx)
	return err == nil
}

// RefreshOwned refetches an owner's catalog once it is older than the refetch interval
func (u *CatalogUsecase) RefreshOwned(ctx context.Context, address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}
	key := cache.UserNFTsKey(common.HexToAddress(address).Hex())
	if !u.queries.IsStale(key, cache.QueryOptions{StaleTime: u.cfg.OwnedRefetchInterval}) {
		return false
	}
	u.queries.Invalidate(ctx, key)
	u.GetOwnedCatalog(ctx, address)
	return true
}

// InvalidateAfterWrite drops the catalogs a confirmed write may have changed
func (u *CatalogUsecase) InvalidateAfterWrite(ctx context.Context) {
	u.queries.Invalidate(ctx, cache.KeyNFTs)
	u.queries.Invalidate(ctx, cache.KeyUserNFTs)
	u.queries.Invalidate(ctx, cache.KeyStats)
}

func (u *CatalogUsecase) fetchListed(ctx context.Context) (*entities.Catalog, error) {
	if !u.reader.IsReady() {
		logger.Error(ctx, "Marketplace contract not connected")
		u.metrics.ObserveCatalog(string(entities.CatalogListed), metrics.OutcomeNotReady, 0, 0)
		return entities.NewCatalog(nil, u.now()), nil
	}

	ids, err := u.reader.ListListedTokenIDs(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list token ids", zap.Error(err))
		u.metrics.ObserveCatalog(string(entities.CatalogListed), metrics.OutcomeFetchFailed, 0, 0)
		return entities.NewCatalog(nil, u.now()), nil
	}
	return u.BuildCatalog(ctx, entities.CatalogListed, ids), nil
}

func (u *CatalogUsecase) fetchOwned(ctx context.Context, owner common.Address) *entities.Catalog {
	if !u.reader.IsReady() {
		logger.Error(ctx, "Marketplace contract not connected")
		u.metrics.ObserveCatalog(string(entities.CatalogOwned), metrics.OutcomeNotReady, 0, 0)
		return entities.NewCatalog(nil, u.now())
	}

	ids, err := u.reader.GetUserTokenIDs(ctx, owner)
	if err != nil {
		logger.Error(ctx, "Failed to list owned token ids", zap.String("owner", owner.Hex()), zap.Error(err))
		u.metrics.ObserveCatalog(string(entities.CatalogOwned), metrics.OutcomeFetchFailed, 0, 0)
		return entities.NewCatalog(nil, u.now())
	}
	return u.BuildCatalog(ctx, entities.CatalogOwned, ids)
}

// BuildCatalog fetches and converts every id concurrently. The result keeps the
// order of ids; records that fail to fetch or convert are logged and dropped.
func (u *CatalogUsecase) BuildCatalog(ctx context.Context, kind entities.CatalogKind, ids []*big.Int) *entities.Catalog {
	slots := make([]*entities.NFT, len(ids))

	var g errgroup.Group
	g.SetLimit(u.cfg.FetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			rec, err := u.reader.GetRecord(ctx, id)
			if err != nil {
				logger.Warn(ctx, "Failed to fetch NFT record", zap.Stringer("token_id", id), zap.Error(err))
				return nil
			}
			nft, err := u.mapper.ToDisplayRecord(*rec, kind)
			if err != nil {
				logger.Warn(ctx, "Skipping malformed NFT record", zap.Stringer("token_id", id), zap.Error(err))
				return nil
			}
			slots[i] = nft
			return nil
		})
	}
	_ = g.Wait()

	items := make([]*entities.NFT, 0, len(slots))
	for _, nft := range slots {
		if nft != nil {
			items = append(items, nft)
		}
	}

	u.metrics.ObserveCatalog(string(kind), metrics.OutcomeSuccess, len(items), len(ids)-len(items))
	return entities.NewCatalog(items, u.now())
}

func (u *CatalogUsecase) fetchStats(ctx context.Context) entities.MarketplaceStats {
	stats := entities.MarketplaceStats{MarketplaceFeeBps: u.feeFallbackBps}
	if !u.reader.IsReady() {
		return stats
	}

	var g errgroup.Group
	g.Go(func() error {
		if v, err := u.reader.GetTotalNFTs(ctx); err == nil && v != nil && v.IsUint64() {
			stats.TotalNFTs = v.Uint64()
		} else if err != nil {
			logger.Warn(ctx, "Failed to read total NFTs", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if v, err := u.reader.GetTotalSold(ctx); err == nil && v != nil && v.IsUint64() {
			stats.TotalSold = v.Uint64()
		} else if err != nil {
			logger.Warn(ctx, "Failed to read total sold", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if v, err := u.reader.GetMarketplaceFee(ctx); err == nil && v != nil && v.IsUint64() {
			stats.MarketplaceFeeBps = v.Uint64()
		} else if err != nil {
			logger.Warn(ctx, "Failed to read marketplace fee", zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()
	return stats
}
