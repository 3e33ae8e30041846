package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nft-marketplace.backend/internal/domain/entities"
	"nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/metrics"
)

const (
	txBatchSize = 100
	// DefaultTxDropAfter is how long a transaction may stay unmined before it is marked failed
	DefaultTxDropAfter = time.Hour
)

type pendingTxRepository interface {
	ListPending(ctx context.Context, limit int) ([]*entities.MarketplaceTransaction, error)
	MarkChecked(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkConfirmed(ctx context.Context, id uuid.UUID, blockNumber uint64) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, blockNumber uint64) error
}

type receiptReader interface {
	GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
}

type connectionChecker interface {
	Connected() bool
}

type catalogInvalidator interface {
	InvalidateAfterWrite(ctx context.Context)
}

type balanceNotifier interface {
	NotifyBalanceChanged(sessionID uuid.UUID)
}

// TxConfirmationJob polls receipts of tracked transactions and settles them
type TxConfirmationJob struct {
	repo      pendingTxRepository
	receipts  receiptReader
	catalog   catalogInvalidator
	sessions  balanceNotifier
	metrics   *metrics.Metrics
	interval  time.Duration
	dropAfter time.Duration
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewTxConfirmationJob(
	repo pendingTxRepository,
	receipts receiptReader,
	catalog catalogInvalidator,
	sessions balanceNotifier,
	m *metrics.Metrics,
	interval time.Duration,
) *TxConfirmationJob {
	return &TxConfirmationJob{
		repo:      repo,
		receipts:  receipts,
		catalog:   catalog,
		sessions:  sessions,
		metrics:   m,
		interval:  interval,
		dropAfter: DefaultTxDropAfter,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

func (j *TxConfirmationJob) Start(ctx context.Context) {
	runEvery(ctx, "tx-confirmation", j.interval, j.stop, func(ctx context.Context) {
		j.processPending(ctx)
	})
}

func (j *TxConfirmationJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

// processPending settles the least recently checked batch of pending
// transactions whose receipt is available and returns how many were settled.
// Unsettled ones are stamped as checked so the next tick reaches the rows
// behind them.
func (j *TxConfirmationJob) processPending(ctx context.Context) int {
	if c, ok := j.receipts.(connectionChecker); ok && !c.Connected() {
		return 0
	}
	pending, err := j.repo.ListPending(ctx, txBatchSize)
	if err != nil {
		logger.Error(ctx, "Failed to list pending transactions", zap.Error(err))
		return 0
	}

	settled := 0
	var unsettled []uuid.UUID
	for _, tx := range pending {
		if !j.settle(ctx, tx) {
			unsettled = append(unsettled, tx.ID)
			continue
		}
		settled++
		if j.sessions != nil {
			j.sessions.NotifyBalanceChanged(tx.SessionID)
		}
	}
	if err := j.repo.MarkChecked(ctx, unsettled, j.now()); err != nil {
		logger.Warn(ctx, "Failed to stamp checked transactions", zap.Int("count", len(unsettled)), zap.Error(err))
	}

	if settled > 0 {
		j.catalog.InvalidateAfterWrite(ctx)
		logger.Info(ctx, "Settled marketplace transactions", zap.Int("count", settled))
	}
	return settled
}

func (j *TxConfirmationJob) settle(ctx context.Context, tx *entities.MarketplaceTransaction) bool {
	receipt, err := j.receipts.GetTransactionReceipt(ctx, tx.TxHash)
	if errors.Is(err, ethereum.NotFound) {
		if j.dropAfter > 0 && j.now().Sub(tx.CreatedAt) > j.dropAfter {
			return j.finish(ctx, tx, entities.TxStatusFailed, "transaction was not mined", 0)
		}
		return false
	}
	if err != nil {
		logger.Warn(ctx, "Failed to read transaction receipt", zap.String("tx_hash", tx.TxHash), zap.Error(err))
		return false
	}

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return j.finish(ctx, tx, entities.TxStatusConfirmed, "", block)
	}
	return j.finish(ctx, tx, entities.TxStatusFailed, "transaction reverted", block)
}

func (j *TxConfirmationJob) finish(ctx context.Context, tx *entities.MarketplaceTransaction, status entities.TxStatus, reason string, block uint64) bool {
	var err error
	if status == entities.TxStatusConfirmed {
		err = j.repo.MarkConfirmed(ctx, tx.ID, block)
	} else {
		err = j.repo.MarkFailed(ctx, tx.ID, reason, block)
	}
	if err != nil {
		logger.Error(ctx, "Failed to settle transaction", zap.String("tx_hash", tx.TxHash), zap.Error(err))
		return false
	}
	j.metrics.ObserveTx(string(tx.Action), string(status))
	return true
}
