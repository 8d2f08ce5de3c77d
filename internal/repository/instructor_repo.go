package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

type InstructorRepo struct {
	pool *pgxpool.Pool
}

func NewInstructorRepo(pool *pgxpool.Pool) *InstructorRepo {
	return &InstructorRepo{pool: pool}
}

func (r *InstructorRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.InstructorProfile, error) {
	p := &models.InstructorProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, headline, introduction, updated_at
		FROM instructor_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Headline, &p.Introduction, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *InstructorRepo) UpsertProfile(ctx context.Context, p *models.InstructorProfile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO instructor_profiles (user_id, headline, introduction, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET headline = EXCLUDED.headline,
			introduction = EXCLUDED.introduction,
			updated_at = NOW()
		RETURNING updated_at
	`, p.UserID, p.Headline, p.Introduction).Scan(&p.UpdatedAt)
}
