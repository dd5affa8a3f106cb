package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guildacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProgressTestRepository creates a progress repository with a mock database
func setupProgressTestRepository(t *testing.T) (*progressRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewProgressRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestProgressRepository_Upsert(t *testing.T) {
	tests := []struct {
		name          string
		record        *models.ProgressRecord
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name: "insert new record",
			record: &models.ProgressRecord{
				UserID:       1,
				LessonID:     5,
				Completed:    false,
				LastPosition: 0.4,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lesson_progress`).
					WithArgs(1, 5, false, 0.4).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedError: false,
		},
		{
			name: "update existing record via duplicate key",
			record: &models.ProgressRecord{
				UserID:       1,
				LessonID:     5,
				Completed:    true,
				LastPosition: 0.95,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				// MySQL reports 2 affected rows for an ON DUPLICATE KEY update
				mock.ExpectExec(`INSERT INTO lesson_progress`).
					WithArgs(1, 5, true, 0.95).
					WillReturnResult(sqlmock.NewResult(0, 2))
			},
			expectedError: false,
		},
		{
			name: "database error",
			record: &models.ProgressRecord{
				UserID:   1,
				LessonID: 5,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lesson_progress`).
					WithArgs(1, 5, false, 0.0).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Upsert(context.Background(), tt.record)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepository_Get(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		notFound      bool
	}{
		{
			name: "record exists",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"user_id", "lesson_id", "completed", "last_position", "updated_at"}).
					AddRow(1, 5, true, 0.95, now)
				mock.ExpectQuery(`SELECT user_id, lesson_id, completed, last_position, updated_at`).
					WithArgs(1, 5).
					WillReturnRows(rows)
			},
		},
		{
			name: "no record is not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT user_id, lesson_id, completed, last_position, updated_at`).
					WithArgs(1, 5).
					WillReturnRows(sqlmock.NewRows([]string{"user_id", "lesson_id", "completed", "last_position", "updated_at"}))
			},
			expectedError: true,
			notFound:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			record, err := repo.Get(context.Background(), 1, 5)

			if tt.expectedError {
				assert.Error(t, err)
				if tt.notFound {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
				assert.True(t, record.Completed)
				assert.Equal(t, 0.95, record.LastPosition)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepository_CountCompletedByCourse(t *testing.T) {
	repo, mock, cleanup := setupProgressTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(1, 10).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountCompletedByCourse(context.Background(), 1, 10)

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepository_GetLastVisited(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		notFound      bool
	}{
		{
			name: "resolves most recent lesson",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"c.slug", "c.title", "m.slug", "l.slug", "l.title", "p.updated_at"}).
					AddRow("go-basics", "Go Basics", "intro", "pointers", "Pointers", now)
				mock.ExpectQuery(`ORDER BY p.updated_at DESC`).
					WithArgs(1).
					WillReturnRows(rows)
			},
		},
		{
			name: "no progress at all is not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`ORDER BY p.updated_at DESC`).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"c.slug", "c.title", "m.slug", "l.slug", "l.title", "p.updated_at"}))
			},
			expectedError: true,
			notFound:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			pointer, err := repo.GetLastVisited(context.Background(), 1)

			if tt.expectedError {
				assert.Error(t, err)
				if tt.notFound {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "go-basics", pointer.CourseSlug)
				assert.Equal(t, "pointers", pointer.LessonSlug)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
