package services

import (
	"context"
	"errors"
	"testing"

	"github.com/guildacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

// mockProgressLessonRepository is a mock implementation of ProgressLessonRepository
type mockProgressLessonRepository struct {
	lesson       *models.Lesson
	modules      []models.Module
	courseCount  int
	moduleCounts map[int]int
	getBySlugErr error
	countErr     error
}

func (m *mockProgressLessonRepository) GetBySlug(ctx context.Context, slug string) (*models.Lesson, error) {
	if m.getBySlugErr != nil {
		return nil, m.getBySlugErr
	}
	return m.lesson, nil
}

func (m *mockProgressLessonRepository) GetModulesByCourseID(ctx context.Context, courseID int) ([]models.Module, error) {
	return m.modules, nil
}

func (m *mockProgressLessonRepository) CountByCourseID(ctx context.Context, courseID int) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.courseCount, nil
}

func (m *mockProgressLessonRepository) CountByModuleID(ctx context.Context, moduleID int) (int, error) {
	return m.moduleCounts[moduleID], nil
}

// mockProgressRepository is a mock implementation of ProgressRepository
type mockProgressRepository struct {
	record           *models.ProgressRecord
	pointer          *models.ContinuePointer
	completedCourse  int
	completedModules map[int]int
	getErr           error
	upsertErr        error
	lastVisitedErr   error
	upserted         *models.ProgressRecord
}

func (m *mockProgressRepository) Upsert(ctx context.Context, record *models.ProgressRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = record
	return nil
}

func (m *mockProgressRepository) Get(ctx context.Context, userID, lessonID int) (*models.ProgressRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.record, nil
}

func (m *mockProgressRepository) CountCompletedByCourse(ctx context.Context, userID, courseID int) (int, error) {
	return m.completedCourse, nil
}

func (m *mockProgressRepository) CountCompletedByModule(ctx context.Context, userID, moduleID int) (int, error) {
	return m.completedModules[moduleID], nil
}

func (m *mockProgressRepository) GetLastVisited(ctx context.Context, userID int) (*models.ContinuePointer, error) {
	if m.lastVisitedErr != nil {
		return nil, m.lastVisitedErr
	}
	return m.pointer, nil
}

func TestProgressService_CourseCompletion(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		completed  int
		expected   int
		countErr   error
		expectsErr bool
	}{
		{
			name:      "three of four is 75 percent",
			total:     4,
			completed: 3,
			expected:  75,
		},
		{
			name:      "zero lessons is zero percent",
			total:     0,
			completed: 0,
			expected:  0,
		},
		{
			name:      "all complete is 100 percent",
			total:     5,
			completed: 5,
			expected:  100,
		},
		{
			name:      "one of three rounds to 33",
			total:     3,
			completed: 1,
			expected:  33,
		},
		{
			name:      "two of three rounds to 67",
			total:     3,
			completed: 2,
			expected:  67,
		},
		{
			name:       "count failure surfaces",
			countErr:   errors.New("db gone"),
			expectsErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lessonRepo := &mockProgressLessonRepository{courseCount: tt.total, countErr: tt.countErr}
			progressRepo := &mockProgressRepository{completedCourse: tt.completed}
			svc := NewProgressService(lessonRepo, progressRepo, 0.9)

			pct, err := svc.CourseCompletion(context.Background(), 1, 10)

			if tt.expectsErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, pct)
		})
	}
}

func TestProgressService_ModulesProgress(t *testing.T) {
	lessonRepo := &mockProgressLessonRepository{
		modules: []models.Module{
			{ID: 1, Slug: "intro", Title: "Intro"},
			{ID: 2, Slug: "deep-dive", Title: "Deep Dive"},
			{ID: 3, Slug: "empty", Title: "Empty"},
		},
		moduleCounts: map[int]int{1: 2, 2: 4, 3: 0},
	}
	progressRepo := &mockProgressRepository{
		completedModules: map[int]int{1: 2, 2: 1},
	}
	svc := NewProgressService(lessonRepo, progressRepo, 0.9)

	result, err := svc.ModulesProgress(context.Background(), 1, 10)

	assert.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, 100, result[0].Percent)
	assert.Equal(t, 25, result[1].Percent)
	assert.Equal(t, 0, result[2].Percent)
}

func TestProgressService_LastVisited(t *testing.T) {
	tests := []struct {
		name          string
		repo          *mockProgressRepository
		expectedNil   bool
		expectedError bool
	}{
		{
			name: "returns most recent pointer",
			repo: &mockProgressRepository{
				pointer: &models.ContinuePointer{CourseSlug: "go-basics", LessonSlug: "pointers"},
			},
		},
		{
			name:        "no progress yet is nil, not an error",
			repo:        &mockProgressRepository{lastVisitedErr: models.ErrNotFound},
			expectedNil: true,
		},
		{
			name:          "storage failure surfaces",
			repo:          &mockProgressRepository{lastVisitedErr: errors.New("db gone")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProgressService(&mockProgressLessonRepository{}, tt.repo, 0.9)

			pointer, err := svc.LastVisited(context.Background(), 1)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.expectedNil {
				assert.Nil(t, pointer)
			} else {
				assert.NotNil(t, pointer)
			}
		})
	}
}

func TestProgressService_UpdatePosition(t *testing.T) {
	lesson := &models.Lesson{ID: 5, Slug: "pointers", MediaKind: models.MediaKindVideo}

	tests := []struct {
		name              string
		position          float64
		existing          *models.ProgressRecord
		getErr            error
		expectedCompleted bool
		expectedPosition  float64
	}{
		{
			name:              "first event below threshold",
			position:          0.4,
			getErr:            models.ErrNotFound,
			expectedCompleted: false,
			expectedPosition:  0.4,
		},
		{
			name:              "event at threshold auto-completes",
			position:          0.9,
			getErr:            models.ErrNotFound,
			expectedCompleted: true,
			expectedPosition:  0.9,
		},
		{
			name:              "rewind keeps completed lesson complete",
			position:          0.1,
			existing:          &models.ProgressRecord{UserID: 1, LessonID: 5, Completed: true, LastPosition: 0.95},
			expectedCompleted: true,
			expectedPosition:  0.1,
		},
		{
			name:              "position above one is clamped",
			position:          1.7,
			getErr:            models.ErrNotFound,
			expectedCompleted: true,
			expectedPosition:  1.0,
		},
		{
			name:              "negative position is clamped to zero",
			position:          -0.3,
			getErr:            models.ErrNotFound,
			expectedCompleted: false,
			expectedPosition:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lessonRepo := &mockProgressLessonRepository{lesson: lesson}
			progressRepo := &mockProgressRepository{record: tt.existing, getErr: tt.getErr}
			svc := NewProgressService(lessonRepo, progressRepo, 0.9)

			record, err := svc.UpdatePosition(context.Background(), 1, "pointers", tt.position)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCompleted, record.Completed)
			assert.Equal(t, tt.expectedPosition, record.LastPosition)
			assert.Equal(t, record, progressRepo.upserted)
		})
	}
}

func TestProgressService_UpdatePosition_LessonNotFound(t *testing.T) {
	lessonRepo := &mockProgressLessonRepository{getBySlugErr: models.ErrNotFound}
	svc := NewProgressService(lessonRepo, &mockProgressRepository{}, 0.9)

	_, err := svc.UpdatePosition(context.Background(), 1, "missing", 0.5)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProgressService_ToggleCompletion(t *testing.T) {
	lesson := &models.Lesson{ID: 5, Slug: "pointers", MediaKind: models.MediaKindText}

	tests := []struct {
		name              string
		existing          *models.ProgressRecord
		getErr            error
		expectedCompleted bool
		expectedPosition  float64
	}{
		{
			name:              "no record toggles to complete",
			getErr:            models.ErrNotFound,
			expectedCompleted: true,
			expectedPosition:  0,
		},
		{
			name:              "completed record toggles off, keeping position",
			existing:          &models.ProgressRecord{UserID: 1, LessonID: 5, Completed: true, LastPosition: 0.6},
			expectedCompleted: false,
			expectedPosition:  0.6,
		},
		{
			name:              "incomplete record toggles on",
			existing:          &models.ProgressRecord{UserID: 1, LessonID: 5, Completed: false, LastPosition: 0.3},
			expectedCompleted: true,
			expectedPosition:  0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lessonRepo := &mockProgressLessonRepository{lesson: lesson}
			progressRepo := &mockProgressRepository{record: tt.existing, getErr: tt.getErr}
			svc := NewProgressService(lessonRepo, progressRepo, 0.9)

			record, err := svc.ToggleCompletion(context.Background(), 1, "pointers")

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCompleted, record.Completed)
			assert.Equal(t, tt.expectedPosition, record.LastPosition)
		})
	}
}

func TestProgressService_AllCoursesProgress(t *testing.T) {
	lessonRepo := &mockProgressLessonRepository{courseCount: 4}
	progressRepo := &mockProgressRepository{completedCourse: 3}
	svc := NewProgressService(lessonRepo, progressRepo, 0.9)

	courses := []models.Course{
		{ID: 1, Slug: "go-basics", Title: "Go Basics"},
		{ID: 2, Slug: "advanced-go", Title: "Advanced Go"},
	}

	result, err := svc.AllCoursesProgress(context.Background(), 1, courses)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, "go-basics", result[0].Slug)
	assert.Equal(t, 75, result[0].Percent)
}
