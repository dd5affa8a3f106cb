package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/guildacademy/backend/internal/models"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, discord_id, username, avatar, is_admin, roles, settings, created_at, updated_at`

// Upsert creates the user on first successful token validation and refreshes
// the identity attributes on every re-validation. The admin flag is sticky:
// once a validation resolved it true it stays true, so admin status survives
// the provider later being unreachable or inconsistent. Role data is not
// written here; reconcile is the only writer of both role representations.
func (r *userRepository) Upsert(ctx context.Context, identity *models.Identity) (*models.User, error) {
	query := `
		INSERT INTO users (discord_id, username, avatar, is_admin, roles, settings)
		VALUES (?, ?, ?, ?, '[]', '{}')
		ON DUPLICATE KEY UPDATE
			username = VALUES(username),
			avatar = VALUES(avatar),
			is_admin = is_admin OR VALUES(is_admin)
	`

	_, err := r.db.ExecContext(ctx, query,
		identity.DiscordID,
		identity.Username,
		identity.Avatar,
		identity.IsAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return r.GetByDiscordID(ctx, identity.DiscordID)
}

// GetByID retrieves a user by internal ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByDiscordID retrieves a user by Discord ID
func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, discordID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", discordID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetAll retrieves all users ordered by username
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// ReplaceRoles writes the live role set onto both the user_roles edge table
// and the denormalized roles column on users, inside one transaction.
// Replace-set semantics make the operation idempotent: a second call with
// the same set leaves storage unchanged.
func (r *userRepository) ReplaceRoles(ctx context.Context, userID int, roleIDs []string) error {
	rolesJSON, err := json.Marshal(roleIDs)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear user roles: %w", err)
	}

	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`,
			userID, roleID,
		); err != nil {
			return fmt.Errorf("failed to insert user role: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET roles = ? WHERE id = ?`,
		string(rolesJSON), userID,
	); err != nil {
		return fmt.Errorf("failed to update denormalized roles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role replacement: %w", err)
	}

	return nil
}

// UpdateSettings replaces the user's settings blob
func (r *userRepository) UpdateSettings(ctx context.Context, userID int, settings map[string]any) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET settings = ? WHERE id = ?`,
		string(settingsJSON), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser scans a full user row, decoding the JSON columns
func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var rolesJSON, settingsJSON []byte

	err := row.Scan(
		&user.ID,
		&user.DiscordID,
		&user.Username,
		&user.Avatar,
		&user.IsAdmin,
		&rolesJSON,
		&settingsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &user.RoleIDs); err != nil {
			return nil, fmt.Errorf("failed to decode roles: %w", err)
		}
	}
	if user.RoleIDs == nil {
		user.RoleIDs = []string{}
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &user.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings: %w", err)
		}
	}

	return &user, nil
}
