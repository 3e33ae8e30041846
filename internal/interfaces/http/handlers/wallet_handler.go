package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/interfaces/http/response"
	"nft-marketplace.backend/internal/usecases"
)

// ConnectWalletInput selects a connector and, for injected wallets, the account it exposes
type ConnectWalletInput struct {
	WalletType string `json:"walletType" binding:"required"`
	Address    string `json:"address"`
	ChainID    int64  `json:"chainId"`
}

// SwitchNetworkInput targets a chain. Omitted means the marketplace's chain.
type SwitchNetworkInput struct {
	ChainID *int64 `json:"chainId"`
}

// WalletHandler drives a session's wallet connection
type WalletHandler struct {
	sessions sessionProvider
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(sessions *usecases.SessionRegistry) *WalletHandler {
	return &WalletHandler{sessions: sessions}
}

// GetWallet returns the wallet view
// GET /api/v1/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": s.Wallet.State()})
}

// ConnectWallet connects the requested wallet type
// POST /api/v1/wallet/connect
func (h *WalletHandler) ConnectWallet(c *gin.Context) {
	var input ConnectWalletInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	opts := usecases.ConnectOptions{Address: input.Address, ChainID: input.ChainID}
	if err := s.Wallet.ConnectWallet(c.Request.Context(), input.WalletType, opts); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Wallet connected",
		"wallet":  s.Wallet.State(),
	})
}

// DisconnectWallet disconnects the wallet. It always succeeds.
// POST /api/v1/wallet/disconnect
func (h *WalletHandler) DisconnectWallet(c *gin.Context) {
	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	s.Wallet.DisconnectWallet(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{
		"message": "Wallet disconnected",
		"wallet":  s.Wallet.State(),
	})
}

// SwitchNetwork moves the wallet to another chain
// POST /api/v1/wallet/switch-network
func (h *WalletHandler) SwitchNetwork(c *gin.Context) {
	var input SwitchNetworkInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, domainerrors.BadRequest(err.Error()))
			return
		}
	}

	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	if err := s.Wallet.SwitchNetwork(c.Request.Context(), input.ChainID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Network switched",
		"wallet":  s.Wallet.State(),
	})
}

// ListNotifications drains the session's pending toasts
// GET /api/v1/wallet/notifications
func (h *WalletHandler) ListNotifications(c *gin.Context) {
	s, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notifications": s.Notifications.Drain()})
}
