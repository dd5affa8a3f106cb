package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildacademy/backend/internal/models"
	"go.uber.org/zap"
)

// GuildMemberClient defines the live membership lookup against the identity
// provider
type GuildMemberClient interface {
	// GetGuildMember fetches the current guild membership for a Discord user
	//
	// "ctx" is the context for the request.
	// "discordID" is the provider id of the user.
	//
	// Returns the live membership and an error if any. A user unknown to the
	// guild is a success with zero roles; a provider rate limit is returned
	// as models.RateLimitedError.
	GetGuildMember(ctx context.Context, discordID string) (*models.LiveMembership, error)
}

// SyncUserRepository defines the user data access the sync needs
type SyncUserRepository interface {
	// GetByID retrieves a user by internal ID
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	//
	// Returns the user and an error if any.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// ReplaceRoles atomically writes the role set onto both the edge table
	// and the denormalized roles column
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "roleIDs" is the live role set.
	//
	// Returns an error if any.
	ReplaceRoles(ctx context.Context, userID int, roleIDs []string) error
}

type syncService struct {
	userRepo SyncUserRepository
	client   GuildMemberClient
	logger   *zap.Logger
}

// NewSyncService creates a new membership sync service. Sync runs on demand
// (admin action) or lazily on sign-in, never on a timer: the provider
// enforces a global rate limit shared across all principals.
func NewSyncService(userRepo SyncUserRepository, client GuildMemberClient, logger *zap.Logger) *syncService {
	return &syncService{
		userRepo: userRepo,
		client:   client,
		logger:   logger,
	}
}

// FetchLive fetches the current role set from the provider. Rate limit
// errors pass through untouched so the caller sees the provider wait
// duration; they are never retried here.
func (s *syncService) FetchLive(ctx context.Context, user *models.User) (*models.LiveMembership, error) {
	live, err := s.client.GetGuildMember(ctx, user.DiscordID)
	if err != nil {
		var rateErr *models.RateLimitedError
		if errors.As(err, &rateErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch live membership: %w", err)
	}

	return live, nil
}

// Reconcile writes the live role set onto storage and returns the updated
// user. Replace-set semantics make it idempotent: reconciling the same set
// twice leaves storage unchanged on the second call.
func (s *syncService) Reconcile(ctx context.Context, user *models.User, roleIDs []string) (*models.User, error) {
	if roleIDs == nil {
		roleIDs = []string{}
	}

	if err := s.userRepo.ReplaceRoles(ctx, user.ID, roleIDs); err != nil {
		return nil, fmt.Errorf("failed to reconcile roles: %w", err)
	}

	updated, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	s.logger.Info("membership reconciled",
		zap.Int("user_id", user.ID),
		zap.Int("role_count", len(roleIDs)),
	)

	return updated, nil
}

// SyncUser fetches the live membership for a user and reconciles it into
// storage in one pass
func (s *syncService) SyncUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	live, err := s.FetchLive(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.Reconcile(ctx, user, live.RoleIDs)
}
