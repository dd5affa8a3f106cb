package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/guildacademy/backend/internal/models"
	"go.uber.org/zap"
)

// AdminSyncService runs on-demand membership syncs
type AdminSyncService interface {
	// SyncUser fetches live membership for a user and reconciles it into
	// storage
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	//
	// Returns the updated user and an error if any. Provider rate limits
	// surface as models.RateLimitedError.
	SyncUser(ctx context.Context, userID int) (*models.User, error)
}

// AdminUserRepository defines the user data access the admin surface needs
type AdminUserRepository interface {
	// GetAll retrieves all users
	//
	// "ctx" is the context for the request.
	//
	// Returns the users and an error if any.
	GetAll(ctx context.Context) ([]models.User, error)
}

// AdminCourseRepository defines the course-role mapping data access
type AdminCourseRepository interface {
	// GetBySlug retrieves a course by slug
	//
	// "ctx" is the context for the request.
	// "slug" is the slug of the course.
	//
	// Returns the course and an error if any.
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// GetRoleIDs retrieves the role IDs mapped to a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the role IDs and an error if any.
	GetRoleIDs(ctx context.Context, courseID int) ([]string, error)
	// ReplaceRoles atomically replaces the role mapping of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "roleIDs" is the new role mapping.
	//
	// Returns an error if any.
	ReplaceRoles(ctx context.Context, courseID int, roleIDs []string) error
}

// AdminHandler handles HTTP requests for the admin surface
type AdminHandler struct {
	BaseHandler
	sync       AdminSyncService
	userRepo   AdminUserRepository
	courseRepo AdminCourseRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sync AdminSyncService, userRepo AdminUserRepository, courseRepo AdminCourseRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		sync:        sync,
		userRepo:    userRepo,
		courseRepo:  courseRepo,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all admin handler routes. Both middlewares are
// applied: authentication first, then the admin gate.
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		r.Get("/users", h.GetUsers)
		r.Post("/users/{id}/sync", h.SyncUser)
		r.Get("/courses/{slug}/roles", h.GetCourseRoles)
		r.Put("/courses/{slug}/roles", h.UpdateCourseRoles)
	})
}

// GetUsers handles GET /admin/users
// @Summary List all users
// @Description List every registered user with stored roles and admin status
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.User "Users"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users [get]
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("failed to list users", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, users)
}

// SyncUser handles POST /admin/users/{id}/sync
// @Summary Force a membership sync
// @Description Fetch the user's live guild membership and replace the stored role set. A provider rate limit surfaces as 429 with the provider's wait in Retry-After; it is never retried server-side.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User "Updated user"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 429 {object} map[string]string "Provider rate limited"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id}/sync [post]
func (h *AdminHandler) SyncUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.sync.SyncUser(r.Context(), userID)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// courseRolesResponse is the course role mapping response body
type courseRolesResponse struct {
	Slug    string   `json:"slug"`
	RoleIDs []string `json:"roleIds"`
}

// updateCourseRolesRequest is the role mapping update request body
type updateCourseRolesRequest struct {
	RoleIDs []string `json:"roleIds"`
}

// GetCourseRoles handles GET /admin/courses/{slug}/roles
// @Summary Get a course's role mapping
// @Description Get the role IDs that grant access to a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 200 {object} courseRolesResponse "Role mapping"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/courses/{slug}/roles [get]
func (h *AdminHandler) GetCourseRoles(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	course, err := h.courseRepo.GetBySlug(r.Context(), slug)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	roleIDs, err := h.courseRepo.GetRoleIDs(r.Context(), course.ID)
	if err != nil {
		h.Logger.Error("failed to get course roles", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, courseRolesResponse{Slug: course.Slug, RoleIDs: roleIDs})
}

// UpdateCourseRoles handles PUT /admin/courses/{slug}/roles
// @Summary Replace a course's role mapping
// @Description Replace the role IDs that grant access to a course. An empty list makes the course admin-only.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Param request body updateCourseRolesRequest true "New role mapping"
// @Success 200 {object} courseRolesResponse "Updated role mapping"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/courses/{slug}/roles [put]
func (h *AdminHandler) UpdateCourseRoles(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req updateCourseRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoleIDs == nil {
		req.RoleIDs = []string{}
	}

	course, err := h.courseRepo.GetBySlug(r.Context(), slug)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	if err := h.courseRepo.ReplaceRoles(r.Context(), course.ID, req.RoleIDs); err != nil {
		h.Logger.Error("failed to replace course roles", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, courseRolesResponse{Slug: course.Slug, RoleIDs: req.RoleIDs})
}
