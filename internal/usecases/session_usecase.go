package usecases

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/domain/repositories"
	"nft-marketplace.backend/pkg/jwt"
	"nft-marketplace.backend/pkg/logger"
)

// DefaultSessionIdleTTL is how long an unused session keeps its in-memory state
const DefaultSessionIdleTTL = 30 * time.Minute

// SessionWallet is a per-session wallet SDK that can be told a balance changed
type SessionWallet interface {
	WalletSDK
	NotifyBalanceChanged()
}

// SessionDeps configures a SessionRegistry
type SessionDeps struct {
	JWT          *jwt.JWTService
	NewWallet    func() SessionWallet
	Snapshots    repositories.WalletSnapshotRepository
	WalletConfig WalletConfig
	PageLimit    int
	IdleTTL      time.Duration
}

// Session is one browser client's server-side state
type Session struct {
	ID            uuid.UUID
	Store         *MarketplaceStore
	Wallet        *WalletUsecase
	Notifications *NotificationQueue

	sdk      SessionWallet
	lastSeen time.Time
}

// Owner returns the connected wallet address used by the my-nfts tab
func (s *Session) Owner() string {
	addr, _ := s.Wallet.ConnectedAddress()
	return addr
}

// SessionRegistry issues session tokens and keeps per-session state, created
// lazily and dropped after IdleTTL without use.
type SessionRegistry struct {
	deps SessionDeps
	now  func() time.Time

	root   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(deps SessionDeps) *SessionRegistry {
	if deps.PageLimit <= 0 {
		deps.PageLimit = DefaultPageLimit
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = DefaultSessionIdleTTL
	}
	root, cancel := context.WithCancel(context.Background())
	return &SessionRegistry{
		deps:     deps,
		now:      time.Now,
		root:     root,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session and returns its token
func (r *SessionRegistry) Create(ctx context.Context) (*jwt.SessionToken, error) {
	id := uuid.New()
	token, err := r.deps.JWT.GenerateSessionToken(id)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	r.Get(ctx, id)
	logger.Info(ctx, "Session created", zap.String("session_id", id.String()))
	return token, nil
}

// Authenticate validates a session token
func (r *SessionRegistry) Authenticate(token string) (uuid.UUID, error) {
	claims, err := r.deps.JWT.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return uuid.Nil, domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, "session expired", domainerrors.ErrTokenExpired)
		}
		return uuid.Nil, domainerrors.Unauthorized("invalid session token")
	}
	return claims.SessionID, nil
}

// Get returns the session's state, creating it (and restoring its wallet) on first use
func (r *SessionRegistry) Get(ctx context.Context, id uuid.UUID) *Session {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		r.mu.Unlock()
		return s
	}

	sdk := r.deps.NewWallet()
	notes := NewNotificationQueue(DefaultNotificationCapacity)
	s := &Session{
		ID:            id,
		Store:         NewMarketplaceStore(r.deps.PageLimit),
		Wallet:        NewWalletUsecase(id.String(), sdk, r.deps.Snapshots, notes, r.deps.WalletConfig),
		Notifications: notes,
		sdk:           sdk,
		lastSeen:      r.now(),
	}
	r.sessions[id] = s
	r.mu.Unlock()

	loopCtx := context.WithValue(r.root, logger.SessionIDKey, id.String())
	if err := s.Wallet.Restore(ctx); err != nil {
		logger.Warn(ctx, "Failed to restore wallet snapshot", zap.Error(err))
	}
	s.Wallet.Start(loopCtx)
	return s
}

// Lookup returns the session if it is held in memory
func (r *SessionRegistry) Lookup(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// NotifyBalanceChanged asks the session's wallet to re-read its balance
func (r *SessionRegistry) NotifyBalanceChanged(id uuid.UUID) {
	if s, ok := r.Lookup(id); ok {
		s.sdk.NotifyBalanceChanged()
	}
}

// ConnectedAddresses returns the distinct wallet addresses of in-memory sessions, sorted
func (r *SessionRegistry) ConnectedAddresses() []string {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range sessions {
		addr, ok := s.Wallet.ConnectedAddress()
		if !ok {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of in-memory sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops sessions unused for longer than IdleTTL. Their wallet
// snapshots stay persisted, so a returning client is restored.
func (r *SessionRegistry) EvictIdle() int {
	cutoff := r.now().Add(-r.deps.IdleTTL)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Wallet.Close()
	}
	return len(idle)
}

// Close stops every session's sync loop
func (r *SessionRegistry) Close() {
	r.cancel()
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Wallet.Close()
	}
}
