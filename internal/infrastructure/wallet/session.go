package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/infrastructure/blockchain"
)

// EventKind names which of the session's signals changed
type EventKind string

const (
	EventAccount EventKind = "account"
	EventChain   EventKind = "chain"
	EventBalance EventKind = "balance"
)

// Event is a change signal. Subscribers re-read the session on receipt.
type Event struct {
	Kind EventKind
}

// BalanceReader reads native balances on one chain
type BalanceReader interface {
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)
}

// ChainResolver returns a balance reader for a chain id
type ChainResolver interface {
	ClientFor(chainID int64) (BalanceReader, error)
}

// FactoryResolver resolves chains through configured RPC URLs and a shared client factory
type FactoryResolver struct {
	factory   *blockchain.ClientFactory
	rpcURLFor func(chainID int64) (string, bool)
}

// NewFactoryResolver creates a resolver
func NewFactoryResolver(factory *blockchain.ClientFactory, rpcURLFor func(chainID int64) (string, bool)) *FactoryResolver {
	return &FactoryResolver{factory: factory, rpcURLFor: rpcURLFor}
}

// ClientFor returns the shared client of chainID
func (r *FactoryResolver) ClientFor(chainID int64) (BalanceReader, error) {
	url, ok := r.rpcURLFor(chainID)
	if !ok || url == "" {
		return nil, fmt.Errorf("chain %d: %w", chainID, domainerrors.ErrUnsupportedChain)
	}
	client, err := r.factory.GetEVMClient(url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Account is the connected account
type Account struct {
	Address       common.Address
	ConnectorID   string
	ConnectorName string
	ChainID       int64
}

// Session is one client's wallet connection. It is safe for concurrent use.
type Session struct {
	connectors []Connector
	resolver   ChainResolver

	mu        sync.RWMutex
	active    Connector
	address   common.Address
	chainID   int64
	client    BalanceReader
	subs      map[int]chan Event
	nextSubID int
}

// NewSession creates a disconnected session on defaultChainID
func NewSession(connectors []Connector, resolver ChainResolver, defaultChainID int64) *Session {
	return &Session{
		connectors: connectors,
		resolver:   resolver,
		chainID:    defaultChainID,
		subs:       make(map[int]chan Event),
	}
}

// Connectors returns the available connectors
func (s *Session) Connectors() []Connector {
	out := make([]Connector, len(s.connectors))
	copy(out, s.connectors)
	return out
}

// FindConnector returns the first connector whose lowercase name contains keyword
func (s *Session) FindConnector(keyword string) (Connector, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, false
	}
	for _, c := range s.connectors {
		if strings.Contains(strings.ToLower(c.Name()), keyword) {
			return c, true
		}
	}
	return nil, false
}

// Connect activates connector with its first account
func (s *Session) Connect(ctx context.Context, connector Connector) error {
	accounts, err := connector.Accounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return ErrNoAccounts
	}

	s.mu.Lock()
	chainID := s.chainID
	if ca, ok := connector.(ChainAware); ok && ca.ChainID() > 0 {
		chainID = ca.ChainID()
	}
	s.active = connector
	s.address = accounts[0]
	s.chainID = chainID
	// An unknown chain leaves the balance unreadable; the account still connects.
	s.client, _ = s.resolver.ClientFor(chainID)
	s.emitLocked(EventAccount)
	s.emitLocked(EventChain)
	s.mu.Unlock()
	return nil
}

// Disconnect drops the active connector
func (s *Session) Disconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	s.active = nil
	s.address = common.Address{}
	s.client = nil
	s.emitLocked(EventAccount)
	return nil
}

// SwitchChain moves the session to chainID. Unknown chains are rejected.
func (s *Session) SwitchChain(_ context.Context, chainID int64) error {
	client, err := s.resolver.ClientFor(chainID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chainID = chainID
	s.client = client
	if ca, ok := s.active.(ChainAware); ok {
		ca.SetChainID(chainID)
	}
	s.emitLocked(EventChain)
	return nil
}

// Account returns the connected account
func (s *Session) Account() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Account{ChainID: s.chainID}, false
	}
	return Account{
		Address:       s.address,
		ConnectorID:   s.active.ID(),
		ConnectorName: s.active.Name(),
		ChainID:       s.chainID,
	}, true
}

// Balance reads address's native balance on the session's chain
func (s *Session) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	s.mu.RLock()
	client := s.client
	chainID := s.chainID
	s.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("chain %d: %w", chainID, domainerrors.ErrUnsupportedChain)
	}
	return client.GetBalance(ctx, address)
}

// NotifyBalanceChanged signals subscribers to re-read the balance
func (s *Session) NotifyBalanceChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(EventBalance)
}

// Subscribe returns a channel of change signals and a function that closes it
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 8)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// emitLocked never blocks; a full subscriber already has a pending re-read.
func (s *Session) emitLocked(kind EventKind) {
	for _, ch := range s.subs {
		select {
		case ch <- Event{Kind: kind}:
		default:
		}
	}
}
