package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/infrastructure/wallet"
	"nft-marketplace.backend/internal/interfaces/http/middleware"
	"nft-marketplace.backend/internal/usecases"
)

const testWalletAddress = "0x00000000000000000000000000000000001a2b3c"

type balanceStub struct{}

func (balanceStub) GetBalance(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(2_000_000_000_000_000_000), nil
}

type resolverStub struct{}

func (resolverStub) ClientFor(chainID int64) (wallet.BalanceReader, error) {
	if chainID != 31337 && chainID != 5 {
		return nil, domainerrors.ErrUnsupportedChain
	}
	return balanceStub{}, nil
}

// sessionsStub builds sessions the way the registry does, minus restore and the sync loop
type sessionsStub struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*usecases.Session
}

func newSessionsStub() *sessionsStub {
	return &sessionsStub{sessions: map[uuid.UUID]*usecases.Session{}}
}

func (s *sessionsStub) Get(_ context.Context, id uuid.UUID) *usecases.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing
	}

	connectors := []wallet.Connector{}
	for _, c := range wallet.DefaultInjectedConnectors() {
		connectors = append(connectors, c)
	}
	sdk := wallet.NewSession(connectors, resolverStub{}, 31337)
	notes := usecases.NewNotificationQueue(0)
	session := &usecases.Session{
		ID:    id,
		Store: usecases.NewMarketplaceStore(2),
		Wallet: usecases.NewWalletUsecase(id.String(), sdk, nil, notes, usecases.WalletConfig{
			TargetChainID:   31337,
			TargetChainName: "Anvil Local",
			Symbol:          "ETH",
			Decimals:        18,
		}),
		Notifications: notes,
	}
	s.sessions[id] = session
	return session
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// withSession stands in for the session auth middleware
func withSession(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.SessionIDKey, id)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
