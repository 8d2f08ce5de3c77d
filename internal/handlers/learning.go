package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
)

type learningService interface {
	AddLearningTime(ctx context.Context, userID uuid.UUID, date string, seconds int) error
	GetWeeklyLearningData(ctx context.Context, userID uuid.UUID) (*models.WeeklyLearningData, error)
	SyncSession(ctx context.Context, sessionID uuid.UUID, intervals []models.SessionInterval) (int, error)
	StartSession(ctx context.Context, userID uuid.UUID) (*models.UserSession, error)
	EndSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.UserSession, error)
}

type LearningHandler struct {
	learning learningService
}

func NewLearningHandler(learning learningService) *LearningHandler {
	return &LearningHandler{learning: learning}
}

// AddTime handles POST /users/{userId}/learning/time.
func (h *LearningHandler) AddTime(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	var req models.AddLearningTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.learning.AddLearningTime(r.Context(), userID, req.Date, req.Seconds); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Weekly handles GET /users/{userId}/learning/weekly.
func (h *LearningHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	data, err := h.learning.GetWeeklyLearningData(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func (h *LearningHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.learning.StartSession(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
	})
}

func (h *LearningHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, err := h.learning.EndSession(r.Context(), sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
	})
}

// Sync handles POST /api/learning/sessions/{sessionId}/sync. Unknown
// sessions still answer success.
func (h *LearningHandler) Sync(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.SyncSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	count, err := h.learning.SyncSession(r.Context(), sessionID, req.Intervals)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"intervalCount": count,
	})
}
