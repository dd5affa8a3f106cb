package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildacademy/backend/internal/middleware"
	"github.com/guildacademy/backend/internal/models"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps progress tracking operations
type ProgressService interface {
	// UpdatePosition records a position event and applies auto-completion
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "lessonSlug" is the slug of the lesson.
	// "position" is the normalized playback/scroll position.
	//
	// Returns the written record and an error if any.
	UpdatePosition(ctx context.Context, userID int, lessonSlug string, position float64) (*models.ProgressRecord, error)
	// ToggleCompletion flips the explicit completion state of a lesson
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	// "lessonSlug" is the slug of the lesson.
	//
	// Returns the written record and an error if any.
	ToggleCompletion(ctx context.Context, userID int, lessonSlug string) (*models.ProgressRecord, error)
	// LastVisited resolves the most recently touched lesson, or nil
	//
	// "ctx" is the context for the request.
	// "userID" is the internal ID of the user.
	//
	// Returns the pointer (nil when no progress exists) and an error if any.
	LastVisited(ctx context.Context, userID int) (*models.ContinuePointer, error)
}

// ProgressHandler handles HTTP requests for progress tracking
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/continue", h.GetContinue)
		r.Put("/{lessonSlug}", h.UpdatePosition)
		r.Post("/{lessonSlug}/toggle", h.ToggleCompletion)
	})
}

// continueResponse is the "continue learning" response body
type continueResponse struct {
	Pointer *models.ContinuePointer `json:"pointer"`
}

// GetContinue handles GET /progress/continue
// @Summary Get the continue-learning pointer
// @Description Resolve the caller's most recently touched lesson. A null pointer means no progress yet; the client falls back to course browsing.
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} continueResponse "Continue pointer (null when none)"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/continue [get]
func (h *ProgressHandler) GetContinue(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pointer, err := h.service.LastVisited(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("failed to resolve continue pointer", zap.Error(err))
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, continueResponse{Pointer: pointer})
}

// updatePositionRequest is the position event request body
type updatePositionRequest struct {
	Position float64 `json:"position"`
}

// UpdatePosition handles PUT /progress/{lessonSlug}
// @Summary Record a position event
// @Description Record a playback/scroll position for a lesson and apply the auto-completion policy
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param lessonSlug path string true "Lesson slug"
// @Param request body updatePositionRequest true "Normalized position in [0,1]"
// @Success 200 {object} models.ProgressRecord "Written record"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/{lessonSlug} [put]
func (h *ProgressHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req updatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.service.UpdatePosition(r.Context(), user.ID, chi.URLParam(r, "lessonSlug"), req.Position)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, record)
}

// ToggleCompletion handles POST /progress/{lessonSlug}/toggle
// @Summary Toggle lesson completion
// @Description Flip the explicit completion state of a lesson for the caller
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param lessonSlug path string true "Lesson slug"
// @Success 200 {object} models.ProgressRecord "Written record"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/{lessonSlug}/toggle [post]
func (h *ProgressHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	record, err := h.service.ToggleCompletion(r.Context(), user.ID, chi.URLParam(r, "lessonSlug"))
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, record)
}
