package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/guildacademy/backend/internal/models"
)

const userKey contextKey = "user"

// SessionAuthenticator exchanges a bearer session token for the principal it
// belongs to, validating remotely on cache miss
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AdminChecker resolves administrator status for a principal
type AdminChecker interface {
	IsAdmin(user *models.User) bool
}

// AuthMiddleware validates the session token and puts the principal into the
// request context
func AuthMiddleware(sessions SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header or cookie
			var token string

			// Try Authorization header first
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Expected format: "Bearer <token>"
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}

			// If not in header, try cookie
			if token == "" {
				cookie, err := r.Cookie("session_token")
				if err == nil {
					token = cookie.Value
				}
			}

			// If no token found, return 401
			if token == "" {
				respondAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				status, message := authFailureResponse(err)
				respondAuthError(w, status, message)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware rejects requests from principals that are not
// administrators. Must run after AuthMiddleware.
func AdminMiddleware(access AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !access.IsAdmin(user) {
				respondAuthError(w, http.StatusForbidden, "you don't have access")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUser retrieves the authenticated principal from context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// authFailureResponse maps a token validation outcome onto an HTTP status.
// Timeouts and connection failures are distinguished from rejections so the
// client can offer "try again" instead of "sign in again".
func authFailureResponse(err error) (int, string) {
	var tokenErr *models.TokenValidationError
	if errors.As(err, &tokenErr) {
		switch tokenErr.Outcome {
		case models.TokenTimedOut:
			return http.StatusGatewayTimeout, "identity provider timed out, please retry"
		case models.TokenUnreachable:
			return http.StatusBadGateway, "identity provider unreachable, please retry"
		}
	}
	return http.StatusUnauthorized, "invalid or expired session, please sign in again"
}

func respondAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
