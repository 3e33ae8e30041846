package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"nft-marketplace.backend/internal/config"
	"nft-marketplace.backend/internal/domain/entities"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/domain/repositories"
	"nft-marketplace.backend/internal/infrastructure/wallet"
	"nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/units"
)

// WalletSDK is the wallet session the facade mirrors. It stays the source of truth.
type WalletSDK interface {
	FindConnector(keyword string) (wallet.Connector, bool)
	Connect(ctx context.Context, connector wallet.Connector) error
	Disconnect(ctx context.Context) error
	SwitchChain(ctx context.Context, chainID int64) error
	Account() (wallet.Account, bool)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	Subscribe() (<-chan wallet.Event, func())
}

// accountProvider is implemented by browser wallet connectors
type accountProvider interface {
	Provide(address string, chainID int64) error
}

// WalletConfig describes the network the marketplace runs on
type WalletConfig struct {
	TargetChainID   int64
	TargetChainName string
	Symbol          string
	Decimals        int32
}

// WalletConfigFrom derives the facade config from the blockchain settings
func WalletConfigFrom(cfg config.BlockchainConfig) WalletConfig {
	return WalletConfig{
		TargetChainID:   cfg.ChainID,
		TargetChainName: cfg.ChainName,
		Symbol:          cfg.PaymentTokenSymbol,
		Decimals:        cfg.PaymentTokenDecimals,
	}
}

// ConnectOptions carries what a browser wallet reported about itself
type ConnectOptions struct {
	Address string
	ChainID int64
}

// WalletUsecase mirrors one session's wallet into a WalletState snapshot
type WalletUsecase struct {
	sessionID string
	sdk       WalletSDK
	snapshots repositories.WalletSnapshotRepository
	notifier  Notifier
	cfg       WalletConfig

	syncMu sync.Mutex

	mu           sync.RWMutex
	state        entities.WalletState
	connecting   bool
	switching    bool
	errMsg       *string
	wrongNetwork bool

	lifecycle sync.Mutex
	stop      context.CancelFunc
	done      chan struct{}
}

// NewWalletUsecase creates the facade for one session
func NewWalletUsecase(
	sessionID string,
	sdk WalletSDK,
	snapshots repositories.WalletSnapshotRepository,
	notifier Notifier,
	cfg WalletConfig,
) *WalletUsecase {
	if cfg.Symbol == "" {
		cfg.Symbol = "ETH"
	}
	if cfg.Decimals <= 0 {
		cfg.Decimals = 18
	}
	return &WalletUsecase{
		sessionID: sessionID,
		sdk:       sdk,
		snapshots: snapshots,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// Start runs the sync loop until ctx is done or Close is called
func (u *WalletUsecase) Start(ctx context.Context) {
	u.lifecycle.Lock()
	defer u.lifecycle.Unlock()
	if u.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	events, unsubscribe := u.sdk.Subscribe()
	u.stop = cancel
	u.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		defer unsubscribe()
		u.Sync(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				u.Sync(ctx)
			}
		}
	}(u.done)
}

// Close stops the sync loop and waits for it to exit
func (u *WalletUsecase) Close() {
	u.lifecycle.Lock()
	stop, done := u.stop, u.done
	u.stop, u.done = nil, nil
	u.lifecycle.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done
}

// Sync rebuilds the snapshot from the SDK's account, chain and balance
func (u *WalletUsecase) Sync(ctx context.Context) {
	u.syncMu.Lock()
	defer u.syncMu.Unlock()

	next := entities.WalletState{}
	if acct, ok := u.sdk.Account(); ok {
		address := acct.Address.Hex()
		chainID := acct.ChainID
		walletType := strings.ToLower(acct.ConnectorName)
		next.IsConnected = true
		next.Address = &address
		next.ChainID = &chainID
		next.WalletType = &walletType

		if bal, err := u.sdk.Balance(ctx, acct.Address); err == nil && bal != nil {
			formatted := units.FormatUnits(bal, u.cfg.Decimals)
			next.Balance = &formatted
		} else if err != nil {
			logger.Debug(ctx, "Wallet balance unavailable", zap.String("address", address), zap.Error(err))
		}
	}

	u.mu.Lock()
	u.state = next
	wasWrong := u.wrongNetwork
	u.wrongNetwork = isWrongNetwork(next, u.cfg.TargetChainID)
	promptSwitch := u.wrongNetwork && !wasWrong && !u.switching
	u.mu.Unlock()

	if promptSwitch {
		u.notifier.Error(ctx, u.switchPrompt())
	}
	u.persist(ctx, next)
}

func (u *WalletUsecase) persist(ctx context.Context, state entities.WalletState) {
	if u.snapshots == nil {
		return
	}
	var err error
	if state.IsConnected {
		err = u.snapshots.Save(ctx, u.sessionID, state)
	} else {
		err = u.snapshots.Delete(ctx, u.sessionID)
	}
	if err != nil {
		logger.Warn(ctx, "Failed to persist wallet snapshot", zap.Error(err))
	}
}

func (u *WalletUsecase) switchPrompt() string {
	if u.cfg.TargetChainID == 31337 {
		return "Please switch to Anvil Local network"
	}
	return "Please switch to the correct network"
}

func isWrongNetwork(state entities.WalletState, target int64) bool {
	return state.IsConnected && (state.ChainID == nil || *state.ChainID != target)
}

// ConnectWallet connects the first connector whose name contains walletType
func (u *WalletUsecase) ConnectWallet(ctx context.Context, walletType string, opts ConnectOptions) error {
	u.setError(nil)

	connector, ok := u.sdk.FindConnector(walletType)
	if !ok {
		err := fmt.Errorf("%s %w", walletType, domainerrors.ErrConnectorNotFound)
		return u.fail(ctx, err.Error(), err)
	}

	if opts.Address != "" {
		provider, ok := connector.(accountProvider)
		if !ok {
			err := fmt.Errorf("%s does not accept a provided account: %w", connector.Name(), domainerrors.ErrUnsupportedWallet)
			return u.fail(ctx, err.Error(), err)
		}
		if err := provider.Provide(opts.Address, opts.ChainID); err != nil {
			return u.fail(ctx, err.Error(), err)
		}
	}

	u.setConnecting(true)
	err := u.sdk.Connect(ctx, connector)
	u.setConnecting(false)
	if err != nil {
		return u.fail(ctx, err.Error(), err)
	}

	u.Sync(ctx)
	u.notifier.Success(ctx, "Connected to "+walletType)
	return nil
}

// DisconnectWallet disconnects the SDK and always clears the local mirror
func (u *WalletUsecase) DisconnectWallet(ctx context.Context) {
	if err := u.sdk.Disconnect(ctx); err != nil {
		logger.Warn(ctx, "Wallet SDK disconnect failed", zap.Error(err))
	}

	u.mu.Lock()
	u.state = entities.WalletState{}
	u.connecting = false
	u.switching = false
	u.errMsg = nil
	u.wrongNetwork = false
	u.mu.Unlock()

	if u.snapshots != nil {
		if err := u.snapshots.Delete(ctx, u.sessionID); err != nil {
			logger.Warn(ctx, "Failed to delete wallet snapshot", zap.Error(err))
		}
	}
	u.notifier.Success(ctx, "Wallet disconnected")
}

// SwitchNetwork moves the wallet to chainID, or to the marketplace's chain when chainID is nil or zero
func (u *WalletUsecase) SwitchNetwork(ctx context.Context, chainID *int64) error {
	target := u.cfg.TargetChainID
	if chainID != nil && *chainID != 0 {
		target = *chainID
	}

	u.setSwitching(true)
	err := u.sdk.SwitchChain(ctx, target)
	u.setSwitching(false)
	if err != nil {
		failed := u.fail(ctx, err.Error(), err)
		// a failed switch leaves the wallet where it was, so ask again
		if u.State().IsWrongNetwork {
			u.notifier.Error(ctx, u.switchPrompt())
		}
		return failed
	}

	u.Sync(ctx)
	u.notifier.Success(ctx, "Network switched successfully")
	return nil
}

// Restore loads the persisted snapshot and reconnects its wallet when possible.
// The next sync reconciles the mirror with whatever the SDK reports.
func (u *WalletUsecase) Restore(ctx context.Context) error {
	if u.snapshots == nil {
		return nil
	}
	snap, err := u.snapshots.Load(ctx, u.sessionID)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	u.mu.Lock()
	u.state = *snap
	u.mu.Unlock()

	if snap.IsConnected && snap.WalletType != nil {
		if err := u.reconnect(ctx, *snap); err != nil {
			logger.Info(ctx, "Persisted wallet could not reconnect", zap.String("wallet_type", *snap.WalletType), zap.Error(err))
		}
	}
	u.Sync(ctx)
	return nil
}

func (u *WalletUsecase) reconnect(ctx context.Context, snap entities.WalletState) error {
	connector, ok := u.sdk.FindConnector(*snap.WalletType)
	if !ok {
		return domainerrors.ErrConnectorNotFound
	}
	if provider, ok := connector.(accountProvider); ok && snap.Address != nil {
		var chainID int64
		if snap.ChainID != nil {
			chainID = *snap.ChainID
		}
		if err := provider.Provide(*snap.Address, chainID); err != nil {
			return err
		}
	}
	return u.sdk.Connect(ctx, connector)
}

// State returns the mirror and its derived fields
func (u *WalletUsecase) State() entities.WalletView {
	u.mu.RLock()
	defer u.mu.RUnlock()

	view := entities.WalletView{
		WalletState:    u.state,
		IsConnecting:   u.connecting || u.switching,
		Error:          u.errMsg,
		IsWrongNetwork: isWrongNetwork(u.state, u.cfg.TargetChainID),
		TargetChainID:  u.cfg.TargetChainID,
	}
	if u.state.Address != nil {
		formatted := FormatAddress(*u.state.Address)
		view.FormattedAddress = &formatted
	}
	if u.state.Balance != nil {
		if formatted, ok := FormatBalance(*u.state.Balance, u.cfg.Symbol); ok {
			view.FormattedBalance = &formatted
		}
	}
	return view
}

// ConnectedAddress returns the connected account's address
func (u *WalletUsecase) ConnectedAddress() (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if !u.state.IsConnected || u.state.Address == nil {
		return "", false
	}
	return *u.state.Address, true
}

// IsWalletSupported reports whether walletType is one of the supported keywords
func (u *WalletUsecase) IsWalletSupported(walletType string) bool {
	return IsWalletSupported(walletType)
}

// IsWalletSupported reports whether walletType exactly names a supported wallet
func IsWalletSupported(walletType string) bool {
	for _, w := range entities.SupportedWallets {
		if string(w) == walletType {
			return true
		}
	}
	return false
}

// FormatAddress shortens 0x1234567890abcdef to 0x1234...cdef
func FormatAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// FormatBalance renders a decimal balance with four fraction digits and the symbol
func FormatBalance(balance, symbol string) (string, bool) {
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return "", false
	}
	return d.StringFixed(4) + " " + symbol, true
}

func (u *WalletUsecase) fail(ctx context.Context, message string, err error) error {
	u.setError(&message)
	u.notifier.Error(ctx, message)
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domainerrors.WalletError(message, err)
}

func (u *WalletUsecase) setError(msg *string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errMsg = msg
}

func (u *WalletUsecase) setConnecting(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.connecting = v
}

func (u *WalletUsecase) setSwitching(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.switching = v
}
