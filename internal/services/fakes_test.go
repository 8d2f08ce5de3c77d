package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lms-backend/internal/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type statKey struct {
	user uuid.UUID
	date string
}

// memStats mimics the upsert-increment semantics of LearningStatRepo.
type memStats struct {
	mu    sync.Mutex
	rows  map[statKey]*models.DailyLearningStat
	calls int

	// failDate makes AddSeconds fail for that YYYY-MM-DD key.
	failDate string
}

func newMemStats() *memStats {
	return &memStats{rows: make(map[statKey]*models.DailyLearningStat)}
}

func (m *memStats) AddSeconds(_ context.Context, userID uuid.UUID, date time.Time, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	key := statKey{userID, date.Format(statDateLayout)}
	if key.date == m.failDate {
		return errors.New("connection reset")
	}
	row, ok := m.rows[key]
	if !ok {
		row = &models.DailyLearningStat{
			ID:     uuid.New(),
			UserID: userID,
			Date:   time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		}
		m.rows[key] = row
	}
	row.TotalSeconds += seconds
	row.SessionCount++
	return nil
}

func (m *memStats) ListRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyLearningStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo, hi := from.Format(statDateLayout), to.Format(statDateLayout)
	var out []models.DailyLearningStat
	for key, row := range m.rows {
		if key.user == userID && key.date >= lo && key.date <= hi {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStats) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := cutoff.Format(statDateLayout)
	var n int64
	for key := range m.rows {
		if key.date < limit {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

func (m *memStats) get(userID uuid.UUID, date string) *models.DailyLearningStat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[statKey{userID, date}]
}

type memSessions struct {
	sessions map[uuid.UUID]*models.UserSession
}

func newMemSessions(s ...*models.UserSession) *memSessions {
	m := &memSessions{sessions: make(map[uuid.UUID]*models.UserSession)}
	for _, sess := range s {
		m.sessions[sess.ID] = sess
	}
	return m
}

func (m *memSessions) Start(_ context.Context, s *models.UserSession) error {
	s.ID = uuid.New()
	s.StartedAt = time.Now()
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id uuid.UUID) (*models.UserSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memSessions) End(_ context.Context, sessionID, userID uuid.UUID) (*models.UserSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	s.EndedAt = &now
	return s, nil
}
