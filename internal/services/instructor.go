package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lms-backend/internal/models"
)

type instructorStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.InstructorProfile, error)
	UpsertProfile(ctx context.Context, p *models.InstructorProfile) error
}

type InstructorService struct {
	profiles instructorStore
	files    FileRemover
}

func NewInstructorService(profiles instructorStore, files FileRemover) *InstructorService {
	return &InstructorService{profiles: profiles, files: files}
}

func (s *InstructorService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.InstructorProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Instructor profile not found"}
		}
		return nil, fmt.Errorf("failed to load instructor profile: %w", err)
	}
	return p, nil
}

// UpdateProfile writes the caller's profile, first deleting files the old
// introduction referenced and the new one drops.
func (s *InstructorService) UpdateProfile(ctx context.Context, actor Actor, req models.InstructorProfileRequest) (*models.InstructorProfile, error) {
	if actor.Role != models.RoleInstructor && !actor.IsStaff() {
		return nil, &ForbiddenError{Message: "Only instructors have a profile"}
	}
	if len(strings.TrimSpace(req.Headline)) > 200 {
		return nil, &ValidationError{Fields: map[string]string{"headline": "Headline must be at most 200 characters"}}
	}

	existing, err := s.profiles.GetProfile(ctx, actor.UserID)
	switch {
	case err == nil:
		ReconcileContentFiles(ctx, s.files, derefString(existing.Introduction), derefString(req.Introduction))
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to load instructor profile: %w", err)
	}

	profile := &models.InstructorProfile{
		UserID:       actor.UserID,
		Headline:     strings.TrimSpace(req.Headline),
		Introduction: req.Introduction,
	}
	if err := s.profiles.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save instructor profile: %w", err)
	}
	return profile, nil
}
