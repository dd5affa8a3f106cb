package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guildacademy/backend/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// GetBySlug retrieves a course by slug
func (r *courseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	query := `SELECT id, slug, title, summary, position FROM courses WHERE slug = ?`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&course.ID,
		&course.Slug,
		&course.Title,
		&course.Summary,
		&course.Position,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %q: %w", slug, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return &course, nil
}

// GetAllWithRoles retrieves all courses together with their mapped role IDs,
// ordered by position. Courses without mappings are included with an empty
// role set.
func (r *courseRepository) GetAllWithRoles(ctx context.Context) ([]models.CourseWithRoles, error) {
	query := `
		SELECT c.id, c.slug, c.title, c.summary, c.position, cr.role_id
		FROM courses c
		LEFT JOIN course_roles cr ON cr.course_id = c.id
		ORDER BY c.position, c.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []models.CourseWithRoles
	index := make(map[int]int)
	for rows.Next() {
		var course models.Course
		var roleID sql.NullString
		if err := rows.Scan(&course.ID, &course.Slug, &course.Title, &course.Summary, &course.Position, &roleID); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		i, ok := index[course.ID]
		if !ok {
			courses = append(courses, models.CourseWithRoles{Course: course, RoleIDs: []string{}})
			i = len(courses) - 1
			index[course.ID] = i
		}
		if roleID.Valid {
			courses[i].RoleIDs = append(courses[i].RoleIDs, roleID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}

// GetRoleIDs retrieves the role IDs mapped to a course
func (r *courseRepository) GetRoleIDs(ctx context.Context, courseID int) ([]string, error) {
	query := `SELECT role_id FROM course_roles WHERE course_id = ?`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course roles: %w", err)
	}
	defer rows.Close()

	roleIDs := []string{}
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, fmt.Errorf("failed to scan role id: %w", err)
		}
		roleIDs = append(roleIDs, roleID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate course roles: %w", err)
	}

	return roleIDs, nil
}

// ReplaceRoles replaces the role mapping of a course (delete all, insert the
// given set) inside one transaction
func (r *courseRepository) ReplaceRoles(ctx context.Context, courseID int, roleIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_roles WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to clear course roles: %w", err)
	}

	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_roles (course_id, role_id) VALUES (?, ?)`,
			courseID, roleID,
		); err != nil {
			return fmt.Errorf("failed to insert course role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role mapping: %w", err)
	}

	return nil
}
