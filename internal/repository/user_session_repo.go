package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

type UserSessionRepo struct {
	pool *pgxpool.Pool
}

func NewUserSessionRepo(pool *pgxpool.Pool) *UserSessionRepo {
	return &UserSessionRepo{pool: pool}
}

func (r *UserSessionRepo) Start(ctx context.Context, s *models.UserSession) error {
	// Close any session the same user left open (idempotent behavior)
	_, _ = r.pool.Exec(ctx, `
		UPDATE user_sessions
		SET ended_at = NOW(),
			duration_seconds = GREATEST(0, LEAST(43200, EXTRACT(EPOCH FROM (NOW() - started_at))::INT))
		WHERE user_id = $1
		  AND ended_at IS NULL
	`, s.UserID)

	return r.pool.QueryRow(ctx, `
		INSERT INTO user_sessions (user_id)
		VALUES ($1)
		RETURNING id, started_at, created_at
	`, s.UserID).Scan(&s.ID, &s.StartedAt, &s.CreatedAt)
}

func (r *UserSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	s := &models.UserSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, started_at, ended_at, duration_seconds, created_at
		FROM user_sessions
		WHERE id = $1
	`, id).Scan(&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.DurationSeconds, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// End closes the session once; ending an already-ended session keeps the
// original end time and duration.
func (r *UserSessionRepo) End(ctx context.Context, sessionID, userID uuid.UUID) (*models.UserSession, error) {
	s := &models.UserSession{}
	err := r.pool.QueryRow(ctx, `
		UPDATE user_sessions
		SET ended_at = COALESCE(ended_at, NOW()),
			duration_seconds = COALESCE(
				duration_seconds,
				GREATEST(0, LEAST(43200, EXTRACT(EPOCH FROM (NOW() - started_at))::INT))
			)
		WHERE id = $1
		  AND user_id = $2
		RETURNING id, user_id, started_at, ended_at, duration_seconds, created_at
	`, sessionID, userID).Scan(&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.DurationSeconds, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
