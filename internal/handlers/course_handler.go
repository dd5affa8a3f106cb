package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildacademy/backend/internal/middleware"
	"github.com/guildacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CourseAccessService resolves course entitlement for a principal
type CourseAccessService interface {
	// AccessibleCourses returns the courses the user is entitled to see
	//
	// "ctx" is the context for the request.
	// "user" is the authenticated principal.
	//
	// Returns the courses and an error if any.
	AccessibleCourses(ctx context.Context, user *models.User) ([]models.Course, error)
	// CanAccessCourse resolves entitlement for one course by slug
	//
	// "ctx" is the context for the request.
	// "user" is the authenticated principal.
	// "slug" is the slug of the course.
	//
	// Returns the course, the entitlement, and an error if any.
	CanAccessCourse(ctx context.Context, user *models.User, slug string) (*models.Course, bool, error)
}

// CourseProgressService computes completion views for course responses
type CourseProgressService interface {
	// AllCoursesProgress computes completion for each given course
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "courses" is the course list to compute over.
	//
	// Returns per-course progress and an error if any.
	AllCoursesProgress(ctx context.Context, userID int, courses []models.Course) ([]models.CourseProgress, error)
	// CourseCompletion computes the completion percentage for a course
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns the percentage and an error if any.
	CourseCompletion(ctx context.Context, userID, courseID int) (int, error)
	// ModulesProgress computes per-module completion for a course
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns per-module progress and an error if any.
	ModulesProgress(ctx context.Context, userID, courseID int) ([]models.ModuleProgress, error)
}

// CourseHandler handles HTTP requests for the course catalog
type CourseHandler struct {
	BaseHandler
	access   CourseAccessService
	progress CourseProgressService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(access CourseAccessService, progress CourseProgressService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		access:      access,
		progress:    progress,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/courses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCourses)
		r.Get("/{slug}", h.GetCourse)
	})
}

// GetCourses handles GET /courses
// @Summary Get accessible courses
// @Description Get the courses the caller is entitled to see, each with its completion percentage
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.CourseProgress "Accessible courses with progress"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses [get]
func (h *CourseHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	courses, err := h.access.AccessibleCourses(r.Context(), user)
	if err != nil {
		h.Logger.Error("failed to resolve accessible courses", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	progress, err := h.progress.AllCoursesProgress(r.Context(), user.ID, courses)
	if err != nil {
		h.Logger.Error("failed to compute course progress", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// courseDetailResponse is the course detail response body
type courseDetailResponse struct {
	Slug    string                  `json:"slug"`
	Title   string                  `json:"title"`
	Summary string                  `json:"summary,omitempty"`
	Percent int                     `json:"percent"`
	Modules []models.ModuleProgress `json:"modules"`
}

// GetCourse handles GET /courses/{slug}
// @Summary Get course detail
// @Description Get a course with per-module completion. Requires entitlement; a course mapped to no roles is admin-only.
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 200 {object} courseDetailResponse "Course detail"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{slug} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	slug := chi.URLParam(r, "slug")

	course, allowed, err := h.access.CanAccessCourse(r.Context(), user, slug)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}
	if !allowed {
		// Entitlement denial, distinct from "please sign in again"
		h.RespondDomainError(w, models.ErrPermissionDenied)
		return
	}

	percent, err := h.progress.CourseCompletion(r.Context(), user.ID, course.ID)
	if err != nil {
		h.Logger.Error("failed to compute course completion", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	modules, err := h.progress.ModulesProgress(r.Context(), user.ID, course.ID)
	if err != nil {
		h.Logger.Error("failed to compute module progress", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, courseDetailResponse{
		Slug:    course.Slug,
		Title:   course.Title,
		Summary: course.Summary,
		Percent: percent,
		Modules: modules,
	})
}
