package services

import (
	"context"
	"fmt"

	"github.com/guildacademy/backend/internal/models"
)

// AdminSignalSource reports whether a principal is an administrator
// according to one independent signal. Signals are evaluated in order and
// OR-folded; the first positive short-circuits. Order matters only for
// short-circuiting, not for correctness, so admin status survives partial
// data as long as at least one signal still resolves.
type AdminSignalSource interface {
	// Check reports whether this signal considers the user an administrator
	Check(user *models.User) bool
}

// flagSignal trusts the admin flag already resolved and cached on the user
type flagSignal struct{}

func (flagSignal) Check(user *models.User) bool {
	return user.IsAdmin
}

// discordAllowlistSignal matches the static allow-list of Discord IDs
type discordAllowlistSignal struct {
	ids map[string]struct{}
}

func (s discordAllowlistSignal) Check(user *models.User) bool {
	_, ok := s.ids[user.DiscordID]
	return ok
}

// internalAllowlistSignal matches the static allow-list of internal IDs,
// the escape hatch for accounts whose Discord lookup fails
type internalAllowlistSignal struct {
	ids map[int]struct{}
}

func (s internalAllowlistSignal) Check(user *models.User) bool {
	_, ok := s.ids[user.ID]
	return ok
}

// AccessCourseRepository defines the course data access the resolver needs
type AccessCourseRepository interface {
	// GetBySlug retrieves a course by slug
	//
	// "ctx" is the context for the request.
	// "slug" is the slug of the course.
	//
	// Returns the course and an error if any.
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// GetAllWithRoles retrieves all courses with their mapped role IDs
	//
	// "ctx" is the context for the request.
	//
	// Returns the courses and an error if any.
	GetAllWithRoles(ctx context.Context) ([]models.CourseWithRoles, error)
	// GetRoleIDs retrieves the role IDs mapped to a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the role IDs and an error if any.
	GetRoleIDs(ctx context.Context, courseID int) ([]string, error)
}

type accessService struct {
	courseRepo AccessCourseRepository
	signals    []AdminSignalSource
}

// NewAccessService creates a new access service. The allow-lists come from
// static configuration.
func NewAccessService(courseRepo AccessCourseRepository, adminDiscordIDs []string, adminUserIDs []int) *accessService {
	discordIDs := make(map[string]struct{}, len(adminDiscordIDs))
	for _, id := range adminDiscordIDs {
		discordIDs[id] = struct{}{}
	}
	userIDs := make(map[int]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		userIDs[id] = struct{}{}
	}

	return &accessService{
		courseRepo: courseRepo,
		signals: []AdminSignalSource{
			flagSignal{},
			discordAllowlistSignal{ids: discordIDs},
			internalAllowlistSignal{ids: userIDs},
		},
	}
}

// IsAdmin resolves administrator status as a disjunction over the configured
// signal sources
func (s *accessService) IsAdmin(user *models.User) bool {
	for _, signal := range s.signals {
		if signal.Check(user) {
			return true
		}
	}
	return false
}

// HasAccess reports course entitlement given the course's mapped role set.
// Admins always pass; otherwise the user's roles must intersect the mapped
// set. An empty mapped set fails closed for non-admins, as does a user whose
// membership data was never populated.
func (s *accessService) HasAccess(user *models.User, mappedRoleIDs []string) bool {
	if s.IsAdmin(user) {
		return true
	}
	for _, roleID := range mappedRoleIDs {
		if user.HasRole(roleID) {
			return true
		}
	}
	return false
}

// CanAccessCourse resolves entitlement for a course by slug. Returns
// models.ErrNotFound when the course does not exist; a false result is a
// correct answer, not an error.
func (s *accessService) CanAccessCourse(ctx context.Context, user *models.User, slug string) (*models.Course, bool, error) {
	course, err := s.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get course: %w", err)
	}

	if s.IsAdmin(user) {
		return course, true, nil
	}

	roleIDs, err := s.courseRepo.GetRoleIDs(ctx, course.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get course roles: %w", err)
	}

	return course, s.HasAccess(user, roleIDs), nil
}

// AccessibleCourses returns the courses the user is entitled to see: the
// full catalog for admins, the role-intersection subset otherwise
func (s *accessService) AccessibleCourses(ctx context.Context, user *models.User) ([]models.Course, error) {
	withRoles, err := s.courseRepo.GetAllWithRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	admin := s.IsAdmin(user)
	courses := make([]models.Course, 0, len(withRoles))
	for _, cwr := range withRoles {
		if admin || s.HasAccess(user, cwr.RoleIDs) {
			courses = append(courses, cwr.Course)
		}
	}

	return courses, nil
}
