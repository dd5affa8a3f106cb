package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guildacademy/backend/internal/models"
	"go.uber.org/zap"
)

// bootstrapTimeout bounds the aggregate sign-in step (validate + upsert +
// reconcile) so a slow identity provider collapses to a typed timeout
// instead of an indefinite loading state
const bootstrapTimeout = 15 * time.Second

// TokenValidator defines the remote token verification gateway
type TokenValidator interface {
	// ValidateToken exchanges an opaque session token for verified identity
	// attributes
	//
	// "ctx" is the context for the request.
	// "token" is the opaque bearer token.
	//
	// Returns the normalized identity and an error if any; non-validated
	// outcomes are models.TokenValidationError values.
	ValidateToken(ctx context.Context, token string) (*models.Identity, error)
}

// SessionUserRepository defines the user data access the session layer needs
type SessionUserRepository interface {
	// Upsert creates or refreshes the user from a validated identity
	//
	// "ctx" is the context for the request.
	// "identity" is the validated identity payload.
	//
	// Returns the stored user and an error if any.
	Upsert(ctx context.Context, identity *models.Identity) (*models.User, error)
	// GetByID retrieves a user by internal ID
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	//
	// Returns the user and an error if any.
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// MembershipReconciler writes a validated role set into storage
type MembershipReconciler interface {
	// Reconcile atomically replaces the stored role set with the live one
	//
	// "ctx" is the context for the request.
	// "user" is the user being reconciled.
	// "roleIDs" is the live role set.
	//
	// Returns the updated user and an error if any.
	Reconcile(ctx context.Context, user *models.User, roleIDs []string) (*models.User, error)
}

// sessionEntry maps a validated token to its principal until expiry
type sessionEntry struct {
	userID    int
	expiresAt time.Time
}

type sessionService struct {
	validator TokenValidator
	userRepo  SessionUserRepository
	sync      MembershipReconciler
	cacheTTL  time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]sessionEntry
}

// NewSessionService creates a new session service. Validated tokens are
// cached for cacheTTL so every request does not cost a remote validation
// round-trip; a cache miss triggers a fresh validation and upsert.
func NewSessionService(
	validator TokenValidator,
	userRepo SessionUserRepository,
	syncSvc MembershipReconciler,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *sessionService {
	return &sessionService{
		validator: validator,
		userRepo:  userRepo,
		sync:      syncSvc,
		cacheTTL:  cacheTTL,
		logger:    logger,
		cache:     make(map[string]sessionEntry),
	}
}

// Authenticate exchanges a session token for its principal. On cache miss
// the token is validated remotely, the principal is upserted, and the role
// set carried in the identity payload is reconciled into storage.
func (s *sessionService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if userID, ok := s.cachedUserID(token); ok {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err == nil {
			return user, nil
		}
		// Stale entry, fall through to a fresh validation
		s.Invalidate(token)
	}

	identity, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Upsert(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to store principal: %w", err)
	}

	user, err = s.sync.Reconcile(ctx, user, identity.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile membership: %w", err)
	}

	s.mu.Lock()
	s.cache[token] = sessionEntry{
		userID:    user.ID,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	s.logger.Info("session established",
		zap.Int("user_id", user.ID),
		zap.String("discord_id", user.DiscordID),
	)

	return user, nil
}

// Bootstrap runs the full sign-in step under a hard deadline, collapsing the
// outcome to a typed ready state so the client's loading gate always
// terminates
func (s *sessionService) Bootstrap(ctx context.Context, token string) (*models.User, ReadyState, error) {
	var user *models.User
	state, err := Await(ctx, bootstrapTimeout, func(ctx context.Context) error {
		var authErr error
		user, authErr = s.Authenticate(ctx, token)
		return authErr
	})
	if state != StateReady {
		return nil, state, err
	}

	return user, StateReady, nil
}

// Invalidate drops a token from the session cache
func (s *sessionService) Invalidate(token string) {
	s.mu.Lock()
	delete(s.cache, token)
	s.mu.Unlock()
}

// cachedUserID looks up a fresh cache entry for the token
func (s *sessionService) cachedUserID(token string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.cache, token)
		return 0, false
	}

	return entry.userID, true
}
