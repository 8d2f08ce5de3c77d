package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyLearningStat is one row per (user, calendar date).
type DailyLearningStat struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Date         time.Time `json:"date"`
	TotalSeconds int       `json:"total_seconds"`
	SessionCount int       `json:"session_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserSession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SessionInterval is a client-reported span of activity inside a session.
// Timestamp uses the "YYYY-MM-DD HH:mm:ss" layout in the server calendar.
type SessionInterval struct {
	Timestamp       string `json:"timestamp"`
	DurationSeconds int    `json:"durationSeconds"`
	IsActive        bool   `json:"isActive"`
}

type AddLearningTimeRequest struct {
	Date    string `json:"date"`
	Seconds int    `json:"seconds"`
}

type SyncSessionRequest struct {
	Intervals []SessionInterval `json:"intervals"`
	StartedAt string            `json:"startedAt"`
}

// WeeklyLearningData holds hours per day, index 0 = Monday.
type WeeklyLearningData struct {
	ThisWeek [7]float64 `json:"thisWeek"`
	LastWeek [7]float64 `json:"lastWeek"`
}
