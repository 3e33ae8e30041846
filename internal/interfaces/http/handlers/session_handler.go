package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
	"nft-marketplace.backend/internal/interfaces/http/middleware"
	"nft-marketplace.backend/internal/interfaces/http/response"
	"nft-marketplace.backend/internal/usecases"
	"nft-marketplace.backend/pkg/jwt"
)

type sessionService interface {
	Create(ctx context.Context) (*jwt.SessionToken, error)
}

// sessionProvider resolves the authenticated session's in-memory state
type sessionProvider interface {
	Get(ctx context.Context, id uuid.UUID) *usecases.Session
}

// SessionHandler issues session tokens
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *usecases.SessionRegistry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSession starts a session
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	token, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":     token.Token,
		"sessionId": token.SessionID,
		"expiresAt": token.ExpiresAt,
	})
}

func currentSession(c *gin.Context, sessions sessionProvider) (*usecases.Session, bool) {
	id, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Session not authenticated"))
		return nil, false
	}
	return sessions.Get(c.Request.Context(), id), true
}
