package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guildacademy/backend/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

// GetBySlug retrieves a lesson by slug
func (r *lessonRepository) GetBySlug(ctx context.Context, slug string) (*models.Lesson, error) {
	query := `SELECT id, module_id, slug, title, media_kind, position FROM lessons WHERE slug = ?`

	var lesson models.Lesson
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&lesson.ID,
		&lesson.ModuleID,
		&lesson.Slug,
		&lesson.Title,
		&lesson.MediaKind,
		&lesson.Position,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lesson %q: %w", slug, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return &lesson, nil
}

// GetModulesByCourseID retrieves the modules of a course in sequence order
func (r *lessonRepository) GetModulesByCourseID(ctx context.Context, courseID int) ([]models.Module, error) {
	query := `SELECT id, course_id, slug, title, position FROM modules WHERE course_id = ? ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get modules: %w", err)
	}
	defer rows.Close()

	var modules []models.Module
	for rows.Next() {
		var module models.Module
		if err := rows.Scan(&module.ID, &module.CourseID, &module.Slug, &module.Title, &module.Position); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate modules: %w", err)
	}

	return modules, nil
}

// GetByModuleID retrieves the lessons of a module in sequence order
func (r *lessonRepository) GetByModuleID(ctx context.Context, moduleID int) ([]models.Lesson, error) {
	query := `SELECT id, module_id, slug, title, media_kind, position FROM lessons WHERE module_id = ? ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(&lesson.ID, &lesson.ModuleID, &lesson.Slug, &lesson.Title, &lesson.MediaKind, &lesson.Position); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lessons: %w", err)
	}

	return lessons, nil
}

// CountByCourseID counts the lessons of a course across all its modules
func (r *lessonRepository) CountByCourseID(ctx context.Context, courseID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count course lessons: %w", err)
	}

	return count, nil
}

// CountByModuleID counts the lessons of a module
func (r *lessonRepository) CountByModuleID(ctx context.Context, moduleID int) (int, error) {
	query := `SELECT COUNT(*) FROM lessons WHERE module_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, moduleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count module lessons: %w", err)
	}

	return count, nil
}
