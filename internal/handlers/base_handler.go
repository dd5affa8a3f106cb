package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/guildacademy/backend/internal/models"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondDomainError maps typed domain errors onto HTTP statuses. Each error
// class keeps its distinct user messaging: "sign in again" is never shown
// for a permission problem and rate limits carry the provider wait verbatim.
func (h *BaseHandler) RespondDomainError(w http.ResponseWriter, err error) {
	var rateErr *models.RateLimitedError
	var tokenErr *models.TokenValidationError

	switch {
	case errors.Is(err, models.ErrNotFound):
		h.RespondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrPermissionDenied):
		h.RespondError(w, http.StatusForbidden, "you don't have access")
	case errors.As(err, &rateErr):
		seconds := int(rateErr.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
		h.RespondJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      "rate limited, try again later",
			"retryAfter": seconds,
		})
	case errors.As(err, &tokenErr):
		switch tokenErr.Outcome {
		case models.TokenTimedOut:
			h.RespondError(w, http.StatusGatewayTimeout, "identity provider timed out, please retry")
		case models.TokenUnreachable:
			h.RespondError(w, http.StatusBadGateway, "identity provider unreachable, please retry")
		default:
			h.RespondError(w, http.StatusUnauthorized, "invalid session, please sign in again")
		}
	default:
		h.Logger.Error("unhandled error", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
