package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/pkg/logger"
)

const (
	lazyDialInitialInterval = time.Second
	lazyDialMaxInterval     = 30 * time.Second
)

// LazyClient resolves the EVMClient for one RPC URL through a ClientFactory on
// first use. A failed dial is retried no sooner than an exponential backoff
// allows, so a node that is down at boot is picked up once it comes back.
type LazyClient struct {
	factory *ClientFactory
	rpcURL  string
	now     func() time.Time

	mu       sync.Mutex
	client   *EVMClient
	backoff  *backoff.ExponentialBackOff
	nextDial time.Time
}

// NewLazyClient creates a client that dials rpcURL on demand
func NewLazyClient(factory *ClientFactory, rpcURL string) *LazyClient {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = lazyDialInitialInterval
	b.MaxInterval = lazyDialMaxInterval
	b.Reset()
	return &LazyClient{
		factory: factory,
		rpcURL:  rpcURL,
		now:     time.Now,
		backoff: b,
	}
}

// Client returns the connected client, dialing first if no earlier failure is
// still backing off. The error wraps ErrNotConnected.
func (l *LazyClient) Client() (*EVMClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}
	now := l.now()
	if now.Before(l.nextDial) {
		return nil, fmt.Errorf("%w: next dial of %s at %s", domainerrors.ErrNotConnected, l.rpcURL, l.nextDial.Format(time.RFC3339))
	}

	c, err := l.factory.GetEVMClient(l.rpcURL)
	if err != nil {
		wait := l.backoff.NextBackOff()
		l.nextDial = now.Add(wait)
		logger.Warn(context.Background(), "RPC dial failed",
			zap.String("rpc_url", l.rpcURL),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrNotConnected, err)
	}

	l.client = c
	l.backoff.Reset()
	logger.Info(context.Background(), "RPC connected",
		zap.String("rpc_url", c.RPCURL()),
		zap.String("chain_id", c.ChainID().String()),
	)
	return c, nil
}

// Connected reports whether a client is available, dialing if allowed
func (l *LazyClient) Connected() bool {
	_, err := l.Client()
	return err == nil
}

// CallView executes a read-only contract call on the resolved client
func (l *LazyClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	c, err := l.Client()
	if err != nil {
		return nil, err
	}
	return c.CallView(ctx, to, data)
}

// GetTransactionReceipt reads a receipt on the resolved client
func (l *LazyClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	c, err := l.Client()
	if err != nil {
		return nil, err
	}
	return c.GetTransactionReceipt(ctx, txHash)
}
