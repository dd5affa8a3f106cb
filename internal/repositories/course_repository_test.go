package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guildacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCourseTestRepository creates a course repository with a mock database
func setupCourseTestRepository(t *testing.T) (*courseRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewCourseRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestCourseRepository_GetBySlug(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		notFound      bool
	}{
		{
			name: "course exists",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "slug", "title", "summary", "position"}).
					AddRow(10, "go-basics", "Go Basics", "An introduction", 0)
				mock.ExpectQuery(`SELECT id, slug, title, summary, position FROM courses`).
					WithArgs("go-basics").
					WillReturnRows(rows)
			},
		},
		{
			name: "unknown slug is not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, slug, title, summary, position FROM courses`).
					WithArgs("go-basics").
					WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "summary", "position"}))
			},
			expectedError: true,
			notFound:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			course, err := repo.GetBySlug(context.Background(), "go-basics")

			if tt.expectedError {
				assert.Error(t, err)
				if tt.notFound {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 10, course.ID)
				assert.Equal(t, "Go Basics", course.Title)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCourseRepository_GetAllWithRoles(t *testing.T) {
	repo, mock, cleanup := setupCourseTestRepository(t)
	defer cleanup()

	// LEFT JOIN fans each course out over its role mappings; the unmapped
	// course carries a NULL role_id
	rows := sqlmock.NewRows([]string{"id", "slug", "title", "summary", "position", "role_id"}).
		AddRow(1, "go-basics", "Go Basics", "", 0, "r1").
		AddRow(1, "go-basics", "Go Basics", "", 0, "r2").
		AddRow(2, "staff-only", "Staff Only", "", 1, nil)
	mock.ExpectQuery(`LEFT JOIN course_roles`).
		WillReturnRows(rows)

	courses, err := repo.GetAllWithRoles(context.Background())

	assert.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "go-basics", courses[0].Slug)
	assert.Equal(t, []string{"r1", "r2"}, courses[0].RoleIDs)
	assert.Equal(t, "staff-only", courses[1].Slug)
	assert.Empty(t, courses[1].RoleIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_GetRoleIDs(t *testing.T) {
	repo, mock, cleanup := setupCourseTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"role_id"}).AddRow("r1").AddRow("r2")
	mock.ExpectQuery(`SELECT role_id FROM course_roles`).
		WithArgs(10).
		WillReturnRows(rows)

	roleIDs, err := repo.GetRoleIDs(context.Background(), 10)

	assert.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, roleIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_ReplaceRoles(t *testing.T) {
	tests := []struct {
		name          string
		roleIDs       []string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name:    "replaces mapping in one transaction",
			roleIDs: []string{"r1", "r2"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM course_roles`).
					WithArgs(10).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO course_roles`).
					WithArgs(10, "r1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO course_roles`).
					WithArgs(10, "r2").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:    "empty mapping makes the course admin-only",
			roleIDs: []string{},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM course_roles`).
					WithArgs(10).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
		},
		{
			name:    "delete failure rolls back",
			roleIDs: []string{"r1"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM course_roles`).
					WithArgs(10).
					WillReturnError(errors.New("database error"))
				mock.ExpectRollback()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.ReplaceRoles(context.Background(), 10, tt.roleIDs)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
