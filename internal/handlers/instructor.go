package handlers

import (
	"net/http"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/services"
)

type InstructorHandler struct {
	instructors *services.InstructorService
}

func NewInstructorHandler(instructors *services.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors}
}

func (h *InstructorHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userId", "user ID")
	if !ok {
		return
	}

	profile, err := h.instructors.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *InstructorHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	profile, err := h.instructors.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *InstructorHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	var req models.InstructorProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.instructors.UpdateProfile(r.Context(), actorFrom(r), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
