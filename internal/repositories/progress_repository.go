package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guildacademy/backend/internal/models"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{
		db: db,
	}
}

// Upsert writes a progress record keyed on (user_id, lesson_id). The upsert
// runs on the natural key so rapid successive position events for the same
// lesson serialize in the database and can never create two rows. The
// timestamp is bumped on every write, including writes that carry the same
// position, so last-visited resolution stays accurate.
func (r *progressRepository) Upsert(ctx context.Context, record *models.ProgressRecord) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, completed, last_position, updated_at)
		VALUES (?, ?, ?, ?, NOW(3))
		ON DUPLICATE KEY UPDATE
			completed = VALUES(completed),
			last_position = VALUES(last_position),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.UserID,
		record.LessonID,
		record.Completed,
		record.LastPosition,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}

	return nil
}

// Get retrieves the progress record for a (user, lesson) pair
func (r *progressRepository) Get(ctx context.Context, userID, lessonID int) (*models.ProgressRecord, error) {
	query := `
		SELECT user_id, lesson_id, completed, last_position, updated_at
		FROM lesson_progress
		WHERE user_id = ? AND lesson_id = ?
	`

	var record models.ProgressRecord
	err := r.db.QueryRowContext(ctx, query, userID, lessonID).Scan(
		&record.UserID,
		&record.LessonID,
		&record.Completed,
		&record.LastPosition,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("progress for lesson %d: %w", lessonID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return &record, nil
}

// CountCompletedByCourse counts completed lessons for a user across all
// modules of a course
func (r *progressRepository) CountCompletedByCourse(ctx context.Context, userID, courseID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_progress p
		JOIN lessons l ON l.id = p.lesson_id
		JOIN modules m ON m.id = l.module_id
		WHERE p.user_id = ? AND m.course_id = ? AND p.completed = TRUE
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}

// CountCompletedByModule counts completed lessons for a user in a module
func (r *progressRepository) CountCompletedByModule(ctx context.Context, userID, moduleID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = ? AND l.module_id = ? AND p.completed = TRUE
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, moduleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}

// GetLastVisited resolves the progress record with the most recent
// updated_at back to its owning course, module, and lesson. Entitlement is
// deliberately not checked here; the caller re-checks access before
// rendering a link.
func (r *progressRepository) GetLastVisited(ctx context.Context, userID int) (*models.ContinuePointer, error) {
	query := `
		SELECT c.slug, c.title, m.slug, l.slug, l.title, p.updated_at
		FROM lesson_progress p
		JOIN lessons l ON l.id = p.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		WHERE p.user_id = ?
		ORDER BY p.updated_at DESC
		LIMIT 1
	`

	var pointer models.ContinuePointer
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&pointer.CourseSlug,
		&pointer.CourseTitle,
		&pointer.ModuleSlug,
		&pointer.LessonSlug,
		&pointer.LessonTitle,
		&pointer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("last visited for user %d: %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get last visited: %w", err)
	}

	return &pointer, nil
}
