package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/guildacademy/backend/internal/models"
)

// ProgressLessonRepository defines the content lookups the aggregator needs
type ProgressLessonRepository interface {
	// GetBySlug retrieves a lesson by slug
	//
	// "ctx" is the context for the request.
	// "slug" is the slug of the lesson.
	//
	// Returns the lesson and an error if any.
	GetBySlug(ctx context.Context, slug string) (*models.Lesson, error)
	// GetModulesByCourseID retrieves the modules of a course in order
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the modules and an error if any.
	GetModulesByCourseID(ctx context.Context, courseID int) ([]models.Module, error)
	// CountByCourseID counts the lessons of a course across all modules
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the count and an error if any.
	CountByCourseID(ctx context.Context, courseID int) (int, error)
	// CountByModuleID counts the lessons of a module
	//
	// "ctx" is the context for the request.
	// "moduleID" is the ID of the module.
	//
	// Returns the count and an error if any.
	CountByModuleID(ctx context.Context, moduleID int) (int, error)
}

// ProgressRepository defines the progress record data access
type ProgressRepository interface {
	// Upsert writes a progress record keyed on (user_id, lesson_id)
	//
	// "ctx" is the context for the request.
	// "record" is the record to write.
	//
	// Returns an error if any.
	Upsert(ctx context.Context, record *models.ProgressRecord) error
	// Get retrieves the record for a (user, lesson) pair
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "lessonID" is the ID of the lesson.
	//
	// Returns the record and an error if any; models.ErrNotFound when no
	// record exists yet.
	Get(ctx context.Context, userID, lessonID int) (*models.ProgressRecord, error)
	// CountCompletedByCourse counts completed lessons in a course
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns the count and an error if any.
	CountCompletedByCourse(ctx context.Context, userID, courseID int) (int, error)
	// CountCompletedByModule counts completed lessons in a module
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "moduleID" is the ID of the module.
	//
	// Returns the count and an error if any.
	CountCompletedByModule(ctx context.Context, userID, moduleID int) (int, error)
	// GetLastVisited resolves the most recently touched lesson
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	//
	// Returns the pointer and an error if any; models.ErrNotFound when the
	// user has no progress records at all.
	GetLastVisited(ctx context.Context, userID int) (*models.ContinuePointer, error)
}

type progressService struct {
	lessonRepo   ProgressLessonRepository
	progressRepo ProgressRepository
	threshold    float64
}

// NewProgressService creates a new progress service
func NewProgressService(lessonRepo ProgressLessonRepository, progressRepo ProgressRepository, threshold float64) *progressService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCompletionThreshold
	}
	return &progressService{
		lessonRepo:   lessonRepo,
		progressRepo: progressRepo,
		threshold:    threshold,
	}
}

// CourseCompletion computes the completion percentage over the course's full
// lesson set. A course with zero lessons is 0% complete: "no content" must
// never register as "fully complete".
func (s *progressService) CourseCompletion(ctx context.Context, userID, courseID int) (int, error) {
	total, err := s.lessonRepo.CountByCourseID(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	completed, err := s.progressRepo.CountCompletedByCourse(ctx, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return percent(completed, total), nil
}

// ModuleCompletion computes the completion percentage for one module
func (s *progressService) ModuleCompletion(ctx context.Context, userID, moduleID int) (int, error) {
	total, err := s.lessonRepo.CountByModuleID(ctx, moduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	completed, err := s.progressRepo.CountCompletedByModule(ctx, userID, moduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return percent(completed, total), nil
}

// AllCoursesProgress computes the completion percentage for each of the
// given courses. The caller passes the courses the user may see; this keeps
// the aggregator free of entitlement concerns.
func (s *progressService) AllCoursesProgress(ctx context.Context, userID int, courses []models.Course) ([]models.CourseProgress, error) {
	result := make([]models.CourseProgress, 0, len(courses))
	for _, course := range courses {
		pct, err := s.CourseCompletion(ctx, userID, course.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to compute completion for %q: %w", course.Slug, err)
		}
		result = append(result, models.CourseProgress{
			Slug:    course.Slug,
			Title:   course.Title,
			Percent: pct,
		})
	}

	return result, nil
}

// ModulesProgress computes the completion percentage for each module of a
// course, in sequence order
func (s *progressService) ModulesProgress(ctx context.Context, userID, courseID int) ([]models.ModuleProgress, error) {
	modules, err := s.lessonRepo.GetModulesByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get modules: %w", err)
	}

	result := make([]models.ModuleProgress, 0, len(modules))
	for _, module := range modules {
		pct, err := s.ModuleCompletion(ctx, userID, module.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to compute completion for %q: %w", module.Slug, err)
		}
		result = append(result, models.ModuleProgress{
			Slug:    module.Slug,
			Title:   module.Title,
			Percent: pct,
		})
	}

	return result, nil
}

// LastVisited resolves the user's most recently touched lesson. A user with
// no progress yet gets a nil pointer, not an error; the caller falls back to
// a generic browsing affordance. Entitlement is not checked here: a user who
// lost access to a course mid-way must not break this resolution.
func (s *progressService) LastVisited(ctx context.Context, userID int) (*models.ContinuePointer, error) {
	pointer, err := s.progressRepo.GetLastVisited(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve last visited: %w", err)
	}

	return pointer, nil
}

// UpdatePosition records a playback/scroll position event for a lesson and
// applies the auto-completion policy. The position is clamped into [0,1].
func (s *progressService) UpdatePosition(ctx context.Context, userID int, lessonSlug string, position float64) (*models.ProgressRecord, error) {
	lesson, err := s.lessonRepo.GetBySlug(ctx, lessonSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	position = clamp01(position)

	previouslyCompleted := false
	if existing, err := s.progressRepo.Get(ctx, userID, lesson.ID); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}
	} else {
		previouslyCompleted = existing.Completed
	}

	record := &models.ProgressRecord{
		UserID:       userID,
		LessonID:     lesson.ID,
		Completed:    DecideCompletion(lesson.MediaKind, position, previouslyCompleted, s.threshold),
		LastPosition: position,
	}

	if err := s.progressRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	return record, nil
}

// ToggleCompletion flips the explicit completion state of a lesson. This is
// the manual override; the monotonicity of auto-completion does not apply to
// a deliberate un-complete.
func (s *progressService) ToggleCompletion(ctx context.Context, userID int, lessonSlug string) (*models.ProgressRecord, error) {
	lesson, err := s.lessonRepo.GetBySlug(ctx, lessonSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	completed := false
	position := 0.0
	if existing, err := s.progressRepo.Get(ctx, userID, lesson.ID); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}
	} else {
		completed = existing.Completed
		position = existing.LastPosition
	}

	record := &models.ProgressRecord{
		UserID:       userID,
		LessonID:     lesson.ID,
		Completed:    !completed,
		LastPosition: position,
	}

	if err := s.progressRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	return record, nil
}

// percent rounds 100*completed/total to the nearest integer
func percent(completed, total int) int {
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
