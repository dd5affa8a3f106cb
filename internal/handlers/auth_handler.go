package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildacademy/backend/internal/models"
	"github.com/guildacademy/backend/internal/services"
	"go.uber.org/zap"
)

// SessionService is the interface that wraps session establishment
type SessionService interface {
	// Bootstrap validates the token, upserts the principal, and reconciles
	// membership under a hard deadline
	//
	// "ctx" is the context for the request.
	// "token" is the opaque session token.
	//
	// Returns the principal, the terminal ready state, and an error if any.
	Bootstrap(ctx context.Context, token string) (*models.User, services.ReadyState, error)
	// Invalidate drops a token from the session cache
	//
	// "token" is the opaque session token.
	Invalidate(token string)
}

// SessionAccessResolver resolves admin status for the session response
type SessionAccessResolver interface {
	// IsAdmin resolves administrator status for a principal
	IsAdmin(user *models.User) bool
}

// AuthHandler handles HTTP requests for session establishment
type AuthHandler struct {
	BaseHandler
	sessions SessionService
	access   SessionAccessResolver
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions SessionService, access SessionAccessResolver, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		access:      access,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/session", h.CreateSession)
		r.Delete("/session", h.DeleteSession)
	})
}

// createSessionRequest is the sign-in request body
type createSessionRequest struct {
	Token string `json:"token"`
}

// sessionResponse is the sign-in response body
type sessionResponse struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"isAdmin"`
}

// CreateSession handles POST /auth/session
// @Summary Establish a session from an external token
// @Description Validates the opaque session token against the identity provider, stores the principal, and reconciles group memberships
// @Tags auth
// @Accept json
// @Produce json
// @Param request body createSessionRequest true "Session token"
// @Success 200 {object} sessionResponse "Session established"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Token rejected"
// @Failure 502 {object} map[string]string "Identity provider unreachable"
// @Failure 504 {object} map[string]string "Identity provider timed out"
// @Router /auth/session [post]
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		h.RespondError(w, http.StatusBadRequest, "token is required")
		return
	}

	user, state, err := h.sessions.Bootstrap(r.Context(), req.Token)
	switch state {
	case services.StateTimedOut:
		h.RespondError(w, http.StatusGatewayTimeout, "sign-in timed out, please retry")
		return
	case services.StateFailed:
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, sessionResponse{
		User:    user,
		IsAdmin: h.access.IsAdmin(user),
	})
}

// DeleteSession handles DELETE /auth/session
// @Summary Drop a session
// @Description Removes the token from the session cache
// @Tags auth
// @Accept json
// @Produce json
// @Param request body createSessionRequest true "Session token"
// @Success 204 "Session dropped"
// @Router /auth/session [delete]
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.sessions.Invalidate(req.Token)
	w.WriteHeader(http.StatusNoContent)
}
