package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildacademy/backend/internal/middleware"
	"go.uber.org/zap"
)

// UserSettingsRepository defines the settings data access
type UserSettingsRepository interface {
	// UpdateSettings replaces the stored settings document for a user
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "settings" is the new settings document.
	//
	// Returns an error if any.
	UpdateSettings(ctx context.Context, userID int, settings map[string]any) error
}

// UserHandler handles HTTP requests for the caller's own profile
type UserHandler struct {
	BaseHandler
	userRepo UserSettingsRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo UserSettingsRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepo:    userRepo,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all user handler routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/users/me", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
	})
}

// GetSettings handles GET /users/me/settings
// @Summary Get the caller's settings
// @Description Get the caller's stored settings document
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]any "Settings"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /users/me/settings [get]
func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	settings := user.Settings
	if settings == nil {
		settings = map[string]any{}
	}

	h.RespondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /users/me/settings
// @Summary Replace the caller's settings
// @Description Replace the caller's stored settings document wholesale
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body map[string]any true "New settings document"
// @Success 200 {object} map[string]any "Stored settings"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/me/settings [put]
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var settings map[string]any
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if settings == nil {
		settings = map[string]any{}
	}

	if err := h.userRepo.UpdateSettings(r.Context(), user.ID, settings); err != nil {
		h.Logger.Error("failed to update settings", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, settings)
}
