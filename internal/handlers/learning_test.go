package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/services"
)

type stubLearningService struct {
	added      []models.AddLearningTimeRequest
	addErr     error
	weekly     *models.WeeklyLearningData
	synced     []models.SessionInterval
	syncedID   uuid.UUID
	syncErr    error
	endErr     error
	endedBy    uuid.UUID
	startedFor uuid.UUID
}

func (s *stubLearningService) AddLearningTime(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, models.AddLearningTimeRequest{Date: date, Seconds: seconds})
	return nil
}

func (s *stubLearningService) GetWeeklyLearningData(ctx context.Context, userID uuid.UUID) (*models.WeeklyLearningData, error) {
	if s.weekly == nil {
		return &models.WeeklyLearningData{}, nil
	}
	return s.weekly, nil
}

func (s *stubLearningService) SyncSession(ctx context.Context, sessionID uuid.UUID, intervals []models.SessionInterval) (int, error) {
	if s.syncErr != nil {
		return 0, s.syncErr
	}
	s.syncedID = sessionID
	s.synced = intervals
	return len(intervals), nil
}

func (s *stubLearningService) StartSession(ctx context.Context, userID uuid.UUID) (*models.UserSession, error) {
	s.startedFor = userID
	return &models.UserSession{ID: uuid.New(), UserID: userID}, nil
}

func (s *stubLearningService) EndSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.UserSession, error) {
	if s.endErr != nil {
		return nil, s.endErr
	}
	s.endedBy = userID
	return &models.UserSession{ID: sessionID, UserID: userID}, nil
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestLearningHandler_AddTime(t *testing.T) {
	svc := &stubLearningService{}
	h := NewLearningHandler(svc)
	userID := uuid.New()

	body := []byte(`{"date":"2025-06-30","seconds":300}`)
	req := httptest.NewRequest(http.MethodPost, "/users/"+userID.String()+"/learning/time", bytes.NewReader(body))
	req = withURLParam(req, "userId", userID.String())
	rr := httptest.NewRecorder()

	h.AddTime(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var payload map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload["success"] {
		t.Fatalf("expected success=true, got %v", payload)
	}
	if len(svc.added) != 1 || svc.added[0].Date != "2025-06-30" || svc.added[0].Seconds != 300 {
		t.Fatalf("unexpected service call: %+v", svc.added)
	}
}

func TestLearningHandler_AddTimeValidationError(t *testing.T) {
	svc := &stubLearningService{addErr: &services.ValidationError{Fields: map[string]string{"seconds": "seconds must not be negative"}}}
	h := NewLearningHandler(svc)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"date":"2025-06-30","seconds":-1}`)))
	req = withURLParam(req, "userId", userID.String())
	rr := httptest.NewRecorder()

	h.AddTime(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	var payload models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Error.Code != "VALIDATION_ERROR" || payload.Error.Fields["seconds"] == "" {
		t.Fatalf("unexpected error payload: %+v", payload.Error)
	}
}

func TestLearningHandler_WeeklyShape(t *testing.T) {
	svc := &stubLearningService{weekly: &models.WeeklyLearningData{ThisWeek: [7]float64{1.5}}}
	h := NewLearningHandler(svc)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withURLParam(req, "userId", userID.String())
	rr := httptest.NewRecorder()

	h.Weekly(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var payload struct {
		ThisWeek []float64 `json:"thisWeek"`
		LastWeek []float64 `json:"lastWeek"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.ThisWeek) != 7 || len(payload.LastWeek) != 7 {
		t.Fatalf("expected two 7-day arrays, got %d and %d", len(payload.ThisWeek), len(payload.LastWeek))
	}
	if payload.ThisWeek[0] != 1.5 {
		t.Fatalf("expected Monday hours 1.5, got %v", payload.ThisWeek[0])
	}
}

func TestLearningHandler_Sync(t *testing.T) {
	svc := &stubLearningService{}
	h := NewLearningHandler(svc)
	sessionID := uuid.New()

	body := []byte(`{"startedAt":"2025-06-30 23:50:00","intervals":[
		{"timestamp":"2025-06-30 23:59:00","durationSeconds":60,"isActive":true},
		{"timestamp":"2025-07-01 00:00:00","durationSeconds":30,"isActive":false}]}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req = withURLParam(req, "sessionId", sessionID.String())
	rr := httptest.NewRecorder()

	h.Sync(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var payload struct {
		Success       bool `json:"success"`
		IntervalCount int  `json:"intervalCount"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Success || payload.IntervalCount != 2 {
		t.Fatalf("unexpected response: %+v", payload)
	}
	if svc.syncedID != sessionID || svc.synced[1].IsActive {
		t.Fatalf("intervals not passed through: %+v", svc.synced)
	}
}

func TestLearningHandler_SyncRejectsBadInput(t *testing.T) {
	h := NewLearningHandler(&stubLearningService{})

	tests := []struct {
		name      string
		sessionID string
		body      string
	}{
		{"bad session id", "nope", `{"intervals":[]}`},
		{"bad body", uuid.New().String(), `{"intervals":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(tc.body)))
			req = withURLParam(req, "sessionId", tc.sessionID)
			rr := httptest.NewRecorder()

			h.Sync(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
			}
		})
	}
}

func TestLearningHandler_SyncInternalError(t *testing.T) {
	h := NewLearningHandler(&stubLearningService{syncErr: fmt.Errorf("failed to add learning time: %w", context.DeadlineExceeded)})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"intervals":[]}`)))
	req = withURLParam(req, "sessionId", uuid.New().String())
	rr := httptest.NewRecorder()

	h.Sync(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

func TestLearningHandler_EndSessionUsesCaller(t *testing.T) {
	svc := &stubLearningService{}
	h := NewLearningHandler(svc)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withURLParam(req, "sessionId", uuid.New().String())
	req = req.WithContext(middleware.WithUser(req.Context(), userID, models.RoleStudent))
	rr := httptest.NewRecorder()

	h.EndSession(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.endedBy != userID {
		t.Fatalf("expected session to be ended for %s, got %s", userID, svc.endedBy)
	}
}

func TestLearningHandler_EndSessionNotFound(t *testing.T) {
	h := NewLearningHandler(&stubLearningService{endErr: &services.NotFoundError{Message: "Session not found"}})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withURLParam(req, "sessionId", uuid.New().String())
	rr := httptest.NewRecorder()

	h.EndSession(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
