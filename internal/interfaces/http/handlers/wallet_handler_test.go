package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
)

func newWalletRouter(h *WalletHandler, id uuid.UUID) http.Handler {
	r := newTestEngine()
	g := r.Group("/wallet", withSession(id))
	g.GET("", h.GetWallet)
	g.POST("/connect", h.ConnectWallet)
	g.POST("/disconnect", h.DisconnectWallet)
	g.POST("/switch-network", h.SwitchNetwork)
	g.GET("/notifications", h.ListNotifications)
	return r
}

func walletField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	w, ok := body["wallet"].(map[string]any)
	require.True(t, ok)
	return w
}

func TestWalletHandler_ConnectSwitchDisconnect(t *testing.T) {
	h := &WalletHandler{sessions: newSessionsStub()}
	r := newWalletRouter(h, uuid.New())

	w := doJSON(t, r, http.MethodGet, "/wallet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, walletField(t, decodeBody(t, w))["isConnected"])

	w = doJSON(t, r, http.MethodPost, "/wallet/connect", map[string]any{
		"walletType": "metamask",
		"address":    testWalletAddress,
	})
	require.Equal(t, http.StatusOK, w.Code)
	state := walletField(t, decodeBody(t, w))
	assert.Equal(t, true, state["isConnected"])
	assert.Equal(t, common.HexToAddress(testWalletAddress).Hex(), state["address"])
	assert.Equal(t, "metamask", state["walletType"])
	assert.Equal(t, "2.0000 ETH", state["formattedBalance"])
	assert.Equal(t, false, state["isWrongNetwork"])

	w = doJSON(t, r, http.MethodPost, "/wallet/switch-network", map[string]any{"chainId": 5})
	require.Equal(t, http.StatusOK, w.Code)
	state = walletField(t, decodeBody(t, w))
	assert.EqualValues(t, 5, state["chainId"])
	assert.Equal(t, true, state["isWrongNetwork"])

	w = doJSON(t, r, http.MethodPost, "/wallet/switch-network", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 31337, walletField(t, decodeBody(t, w))["chainId"])

	w = doJSON(t, r, http.MethodPost, "/wallet/disconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state = walletField(t, decodeBody(t, w))
	assert.Equal(t, false, state["isConnected"])
	assert.Nil(t, state["address"])
}

func TestWalletHandler_ConnectErrors(t *testing.T) {
	h := &WalletHandler{sessions: newSessionsStub()}
	r := newWalletRouter(h, uuid.New())

	w := doJSON(t, r, http.MethodPost, "/wallet/connect", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/wallet/connect", map[string]any{"walletType": "phantom"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domainerrors.CodeConnectorNotFound, decodeBody(t, w)["code"])
}

func TestWalletHandler_Notifications(t *testing.T) {
	sessions := newSessionsStub()
	h := &WalletHandler{sessions: sessions}
	id := uuid.New()
	r := newWalletRouter(h, id)

	w := doJSON(t, r, http.MethodGet, "/wallet/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"notifications":[]}`, w.Body.String())

	sessions.Get(context.Background(), id).Notifications.Success(context.Background(), "hello")
	w = doJSON(t, r, http.MethodGet, "/wallet/notifications", nil)
	body := decodeBody(t, w)
	items, ok := body["notifications"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].(map[string]any)["message"])

	w = doJSON(t, r, http.MethodGet, "/wallet/notifications", nil)
	assert.JSONEq(t, `{"notifications":[]}`, w.Body.String())
}
