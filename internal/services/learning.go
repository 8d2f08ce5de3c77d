package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lms-backend/internal/models"
)

const statDateLayout = "2006-01-02"

// maxSecondsPerEntry bounds a single contribution to a day's total.
const maxSecondsPerEntry = math.MaxInt32

type learningStatStore interface {
	AddSeconds(ctx context.Context, userID uuid.UUID, date time.Time, seconds int) error
	ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyLearningStat, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type userSessionStore interface {
	Start(ctx context.Context, s *models.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserSession, error)
	End(ctx context.Context, sessionID, userID uuid.UUID) (*models.UserSession, error)
}

type LearningOptions struct {
	Location      *time.Location
	RetentionDays int
	// CountIdle includes intervals reported with isActive=false.
	CountIdle bool
	Clock     Clock
}

type LearningService struct {
	stats     learningStatStore
	sessions  userSessionStore
	loc       *time.Location
	retention int
	countIdle bool
	clock     Clock
}

func NewLearningService(stats learningStatStore, sessions userSessionStore, opts LearningOptions) *LearningService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 14
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	return &LearningService{
		stats:     stats,
		sessions:  sessions,
		loc:       opts.Location,
		retention: opts.RetentionDays,
		countIdle: opts.CountIdle,
		clock:     opts.Clock,
	}
}

// AddLearningTime adds seconds to the user's total for date (YYYY-MM-DD)
// and counts one more contributing session.
func (s *LearningService) AddLearningTime(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	fields := make(map[string]string)

	day, err := s.parseDate(date)
	if err != nil {
		fields["date"] = "date must be a calendar date in YYYY-MM-DD format"
	}
	switch {
	case seconds < 0:
		fields["seconds"] = "seconds must not be negative"
	case seconds > maxSecondsPerEntry:
		fields["seconds"] = fmt.Sprintf("seconds must not exceed %d", maxSecondsPerEntry)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	if err := s.stats.AddSeconds(ctx, userID, day, seconds); err != nil {
		return fmt.Errorf("failed to add learning time for %s on %s: %w", userID, date, err)
	}
	return nil
}

// GetWeeklyLearningData returns hours per day for this week and last week,
// both Monday-first.
func (s *LearningService) GetWeeklyLearningData(ctx context.Context, userID uuid.UUID) (*models.WeeklyLearningData, error) {
	today := startOfDay(s.clock.Now(), s.loc)

	// Sunday (0) maps to 6 days back so weeks always start on Monday.
	offset := (int(today.Weekday()) + 6) % 7
	thisMonday := today.AddDate(0, 0, -offset)
	lastMonday := thisMonday.AddDate(0, 0, -7)
	thisSunday := thisMonday.AddDate(0, 0, 6)

	rows, err := s.stats.ListRange(ctx, userID, lastMonday, thisSunday)
	if err != nil {
		return nil, fmt.Errorf("failed to load learning stats: %w", err)
	}

	data := &models.WeeklyLearningData{}
	for _, row := range rows {
		idx := daysBetween(lastMonday, row.Date)
		hours := float64(row.TotalSeconds) / 3600
		switch {
		case idx >= 0 && idx < 7:
			data.LastWeek[idx] += hours
		case idx >= 7 && idx < 14:
			data.ThisWeek[idx-7] += hours
		}
	}
	return data, nil
}

// SyncSession folds a batch of intervals into per-day totals. An unknown
// session is logged and ignored so heartbeat clients never see an error.
// The returned count is the number of intervals received.
func (s *LearningService) SyncSession(ctx context.Context, sessionID uuid.UUID, intervals []models.SessionInterval) (int, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("learning: sync for unknown session %s ignored (%d intervals)", sessionID, len(intervals))
			return len(intervals), nil
		}
		return 0, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	dates, totals := s.groupByDate(sessionID, intervals)
	for i, date := range dates {
		if err := s.AddLearningTime(ctx, session.UserID, date, totals[date]); err != nil {
			applied := dates[:i]
			log.Printf("learning: session %s: sync failed on %s after applying %v: %v", sessionID, date, applied, err)
			return 0, &PartialSyncError{Applied: applied, Failed: date, Err: err}
		}
	}
	return len(intervals), nil
}

// PartialSyncError reports a sync batch that stopped part way. Totals for
// the Applied dates are already committed, so resending the whole batch
// counts them twice.
type PartialSyncError struct {
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("sync stopped at %s after applying %d date(s): %v", e.Failed, len(e.Applied), e.Err)
}

func (e *PartialSyncError) Unwrap() error { return e.Err }

// groupByDate sums durations per date key (the part of the timestamp before
// the first space), keeping the order in which dates first appear.
func (s *LearningService) groupByDate(sessionID uuid.UUID, intervals []models.SessionInterval) ([]string, map[string]int) {
	totals := make(map[string]int)
	dates := make([]string, 0, 2)

	for _, iv := range intervals {
		if !iv.IsActive && !s.countIdle {
			continue
		}
		if iv.DurationSeconds < 0 {
			log.Printf("learning: session %s: skipping interval %q with negative duration %d", sessionID, iv.Timestamp, iv.DurationSeconds)
			continue
		}

		key, _, _ := strings.Cut(strings.TrimSpace(iv.Timestamp), " ")
		if _, err := s.parseDate(key); err != nil {
			log.Printf("learning: session %s: skipping interval with bad timestamp %q", sessionID, iv.Timestamp)
			continue
		}

		if _, seen := totals[key]; !seen {
			dates = append(dates, key)
		}
		totals[key] += iv.DurationSeconds
	}
	return dates, totals
}

// CleanupOldLearningData deletes rows dated before today minus the
// retention window. A row dated exactly on the boundary is kept.
func (s *LearningService) CleanupOldLearningData(ctx context.Context) (int64, error) {
	cutoff := startOfDay(s.clock.Now(), s.loc).AddDate(0, 0, -s.retention)
	deleted, err := s.stats.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete learning stats before %s: %w", cutoff.Format(statDateLayout), err)
	}
	return deleted, nil
}

func (s *LearningService) StartSession(ctx context.Context, userID uuid.UUID) (*models.UserSession, error) {
	session := &models.UserSession{UserID: userID}
	if err := s.sessions.Start(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return session, nil
}

func (s *LearningService) EndSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.UserSession, error) {
	session, err := s.sessions.End(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return session, nil
}

func (s *LearningService) parseDate(date string) (time.Time, error) {
	return time.ParseInLocation(statDateLayout, date, s.loc)
}
