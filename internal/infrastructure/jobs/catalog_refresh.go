package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nft-marketplace.backend/pkg/logger"
)

type catalogRefresher interface {
	RefreshListed(ctx context.Context) bool
	RefreshOwned(ctx context.Context, address string) bool
}

type addressSource interface {
	ConnectedAddresses() []string
}

type queryCollector interface {
	GC() int
}

// CatalogRefreshJob refetches stale catalogs in the background and collects unused cache entries
type CatalogRefreshJob struct {
	catalog   catalogRefresher
	addresses addressSource
	queries   queryCollector
	interval  time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewCatalogRefreshJob(catalog catalogRefresher, addresses addressSource, queries queryCollector, interval time.Duration) *CatalogRefreshJob {
	return &CatalogRefreshJob{
		catalog:   catalog,
		addresses: addresses,
		queries:   queries,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

func (j *CatalogRefreshJob) Start(ctx context.Context) {
	runEvery(ctx, "catalog-refresh", j.interval, j.stop, func(ctx context.Context) {
		j.refresh(ctx)
	})
}

func (j *CatalogRefreshJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *CatalogRefreshJob) refresh(ctx context.Context) {
	refreshed := 0
	if j.catalog.RefreshListed(ctx) {
		refreshed++
	}
	for _, addr := range j.addresses.ConnectedAddresses() {
		if j.catalog.RefreshOwned(ctx, addr) {
			refreshed++
		}
	}
	dropped := j.queries.GC()
	if refreshed > 0 || dropped > 0 {
		logger.Debug(ctx, "Catalog refresh", zap.Int("refreshed", refreshed), zap.Int("collected", dropped))
	}
}
