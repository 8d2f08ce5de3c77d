package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/services"
)

type CourseHandler struct {
	courses *services.CourseService
}

func NewCourseHandler(courses *services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func actorFrom(r *http.Request) services.Actor {
	return services.Actor{
		UserID: middleware.GetUserID(r.Context()),
		Role:   middleware.GetUserRole(r.Context()),
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid "+label, r))
		return uuid.Nil, false
	}
	return id, true
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	courses, total, err := h.courses.ListCourses(r.Context(), actorFrom(r), page, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"total":   total,
		"page":    page,
	})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "courseId", "course ID")
	if !ok {
		return
	}

	course, err := h.courses.GetCourse(r.Context(), actorFrom(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courses.CreateCourse(r.Context(), actorFrom(r), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "courseId", "course ID")
	if !ok {
		return
	}

	var req models.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courses.UpdateCourse(r.Context(), actorFrom(r), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "courseId", "course ID")
	if !ok {
		return
	}

	if err := h.courses.DeleteCourse(r.Context(), actorFrom(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted"})
}

func (h *CourseHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathUUID(w, r, "courseId", "course ID")
	if !ok {
		return
	}

	lessons, err := h.courses.ListLessons(r.Context(), actorFrom(r), courseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}

func (h *CourseHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathUUID(w, r, "courseId", "course ID")
	if !ok {
		return
	}

	var req models.LessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lesson, err := h.courses.CreateLesson(r.Context(), actorFrom(r), courseID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, lesson)
}

func (h *CourseHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "lessonId", "lesson ID")
	if !ok {
		return
	}

	lesson, err := h.courses.GetLesson(r.Context(), actorFrom(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lesson)
}

func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "lessonId", "lesson ID")
	if !ok {
		return
	}

	var req models.LessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lesson, err := h.courses.UpdateLesson(r.Context(), actorFrom(r), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lesson)
}

func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "lessonId", "lesson ID")
	if !ok {
		return
	}

	if err := h.courses.DeleteLesson(r.Context(), actorFrom(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Lesson deleted"})
}
