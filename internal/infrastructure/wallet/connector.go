// Package wallet is the server-side wallet SDK: connectors that expose
// accounts, and a per-client session tracking account, chain and balance.
package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNoAccounts = errors.New("wallet has no accounts")

// Connector exposes the accounts of one wallet
type Connector interface {
	ID() string
	Name() string
	Accounts(ctx context.Context) ([]common.Address, error)
}

// ChainAware is implemented by connectors that report the chain the wallet is on
type ChainAware interface {
	ChainID() int64
	SetChainID(chainID int64)
}

// InjectedConnector stands for a browser wallet. The browser provides the
// account and chain it is on; the service never holds its keys.
type InjectedConnector struct {
	id   string
	name string

	mu      sync.RWMutex
	account *common.Address
	chainID int64
}

// NewInjectedConnector creates a browser wallet connector
func NewInjectedConnector(id, name string) *InjectedConnector {
	return &InjectedConnector{id: id, name: name}
}

// DefaultInjectedConnectors returns the browser wallets clients may connect with
func DefaultInjectedConnectors() []*InjectedConnector {
	return []*InjectedConnector{
		NewInjectedConnector("io.metamask", "MetaMask"),
		NewInjectedConnector("walletConnect", "WalletConnect"),
		NewInjectedConnector("coinbaseWalletSDK", "Coinbase Wallet"),
	}
}

func (c *InjectedConnector) ID() string   { return c.id }
func (c *InjectedConnector) Name() string { return c.name }

// Provide records the account and chain reported by the browser's provider
func (c *InjectedConnector) Provide(address string, chainID int64) error {
	if !common.IsHexAddress(address) {
		return errors.New("invalid account address")
	}
	addr := common.HexToAddress(address)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = &addr
	if chainID > 0 {
		c.chainID = chainID
	}
	return nil
}

// Accounts returns the provided account
func (c *InjectedConnector) Accounts(context.Context) ([]common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.account == nil {
		return nil, ErrNoAccounts
	}
	return []common.Address{*c.account}, nil
}

func (c *InjectedConnector) ChainID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainID
}

func (c *InjectedConnector) SetChainID(chainID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainID = chainID
}

// KeystoreConnector exposes the accounts of an encrypted key directory
type KeystoreConnector struct {
	ks *keystore.KeyStore
}

// NewKeystoreConnectorWithKeyStore wraps an open key store
func NewKeystoreConnectorWithKeyStore(ks *keystore.KeyStore) *KeystoreConnector {
	return &KeystoreConnector{ks: ks}
}

func (c *KeystoreConnector) ID() string   { return "keystore" }
func (c *KeystoreConnector) Name() string { return "Keystore" }

// Accounts lists the addresses held in the key directory
func (c *KeystoreConnector) Accounts(context.Context) ([]common.Address, error) {
	accs := c.ks.Accounts()
	if len(accs) == 0 {
		return nil, ErrNoAccounts
	}
	out := make([]common.Address, len(accs))
	for i, a := range accs {
		out[i] = a.Address
	}
	return out, nil
}
