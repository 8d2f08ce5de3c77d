package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

const dateLayout = "2006-01-02"

type LearningStatRepo struct {
	pool *pgxpool.Pool
}

func NewLearningStatRepo(pool *pgxpool.Pool) *LearningStatRepo {
	return &LearningStatRepo{pool: pool}
}

// AddSeconds creates the (user, date) row or increments it in a single
// statement, so concurrent contributions for the same key are never lost.
func (r *LearningStatRepo) AddSeconds(ctx context.Context, userID uuid.UUID, date time.Time, seconds int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_learning_stats (user_id, stat_date, total_seconds, session_count)
		VALUES ($1, $2::date, $3, 1)
		ON CONFLICT (user_id, stat_date) DO UPDATE
		SET total_seconds = daily_learning_stats.total_seconds + EXCLUDED.total_seconds,
			session_count = daily_learning_stats.session_count + 1
	`, userID, date.Format(dateLayout), seconds)
	return err
}

func (r *LearningStatRepo) Get(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyLearningStat, error) {
	s := &models.DailyLearningStat{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, stat_date, total_seconds, session_count, created_at
		FROM daily_learning_stats
		WHERE user_id = $1 AND stat_date = $2::date
	`, userID, date.Format(dateLayout)).Scan(
		&s.ID, &s.UserID, &s.Date, &s.TotalSeconds, &s.SessionCount, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListRange returns the user's rows with from <= stat_date <= to.
func (r *LearningStatRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyLearningStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, stat_date, total_seconds, session_count, created_at
		FROM daily_learning_stats
		WHERE user_id = $1
		  AND stat_date BETWEEN $2::date AND $3::date
		ORDER BY stat_date
	`, userID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.DailyLearningStat, 0, 14)
	for rows.Next() {
		var s models.DailyLearningStat
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.TotalSeconds, &s.SessionCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// DeleteBefore removes every row dated strictly before cutoff.
func (r *LearningStatRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM daily_learning_stats WHERE stat_date < $1::date`, cutoff.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
