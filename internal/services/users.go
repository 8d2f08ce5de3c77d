package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lms-backend/internal/models"
)

type userAdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, role string, limit, offset int) ([]*models.User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}

// UserAdminService backs the staff-only user management endpoints.
type UserAdminService struct {
	users userAdminStore
}

func NewUserAdminService(users userAdminStore) *UserAdminService {
	return &UserAdminService{users: users}
}

func (s *UserAdminService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userLookupErr(err)
	}
	return user, nil
}

func (s *UserAdminService) ListUsers(ctx context.Context, role string, page, limit int) ([]*models.User, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, &ValidationError{Fields: map[string]string{"role": "Unknown role"}}
	}
	page, limit = normalizePage(page, limit)
	users, err := s.users.List(ctx, role, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ChangeRole lets admins assign any role. Sub-admins may only move users
// between student and instructor.
func (s *UserAdminService) ChangeRole(ctx context.Context, actor Actor, userID uuid.UUID, role string) error {
	if !models.IsValidRole(role) {
		return &ValidationError{Fields: map[string]string{"role": "Unknown role"}}
	}
	if actor.UserID == userID {
		return &ForbiddenError{Message: "You cannot change your own role"}
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userLookupErr(err)
	}

	if actor.Role != models.RoleAdmin {
		if isPrivileged(role) || isPrivileged(target.Role) {
			return &ForbiddenError{Message: "Only admins can manage staff roles"}
		}
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return userLookupErr(err)
	}
	return nil
}

func (s *UserAdminService) SetActive(ctx context.Context, actor Actor, userID uuid.UUID, active bool) error {
	if actor.UserID == userID {
		return &ForbiddenError{Message: "You cannot change your own status"}
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userLookupErr(err)
	}
	if actor.Role != models.RoleAdmin && isPrivileged(target.Role) {
		return &ForbiddenError{Message: "Only admins can manage staff accounts"}
	}

	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return userLookupErr(err)
	}
	return nil
}

func isPrivileged(role string) bool {
	return role == models.RoleAdmin || role == models.RoleSubAdmin
}

func userLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: "User not found"}
	}
	return fmt.Errorf("failed to load user: %w", err)
}
