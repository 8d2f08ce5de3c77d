package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-backend/internal/models"
)

type memUserAdmin struct {
	users map[uuid.UUID]*models.User
}

func newMemUserAdmin(users ...*models.User) *memUserAdmin {
	m := &memUserAdmin{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserAdmin) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memUserAdmin) List(_ context.Context, role string, limit, offset int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserAdmin) UpdateRole(_ context.Context, userID uuid.UUID, role string) error {
	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}

func (m *memUserAdmin) SetActive(_ context.Context, userID uuid.UUID, active bool) error {
	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsActive = active
	return nil
}

func TestUserAdminService_ChangeRole(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	subAdmin := &models.User{ID: uuid.New(), Role: models.RoleSubAdmin}
	student := &models.User{ID: uuid.New(), Role: models.RoleStudent}

	tests := []struct {
		name    string
		actor   *models.User
		target  *models.User
		role    string
		wantErr interface{}
	}{
		{"admin promotes to sub_admin", admin, student, models.RoleSubAdmin, nil},
		{"sub_admin promotes to instructor", subAdmin, student, models.RoleInstructor, nil},
		{"sub_admin cannot grant admin", subAdmin, student, models.RoleAdmin, &ForbiddenError{}},
		{"cannot change own role", admin, admin, models.RoleStudent, &ForbiddenError{}},
		{"unknown role", admin, student, "owner", &ValidationError{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := *tc.target
			store := newMemUserAdmin(&target)
			svc := NewUserAdminService(store)

			err := svc.ChangeRole(context.Background(), Actor{UserID: tc.actor.ID, Role: tc.actor.Role}, target.ID, tc.role)

			switch tc.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, tc.role, store.users[target.ID].Role)
			case *ForbiddenError:
				var fErr *ForbiddenError
				assert.True(t, errors.As(err, &fErr), "got %v", err)
			case *ValidationError:
				var vErr *ValidationError
				assert.True(t, errors.As(err, &vErr), "got %v", err)
			}
		})
	}
}

func TestUserAdminService_SetActive(t *testing.T) {
	subAdmin := Actor{UserID: uuid.New(), Role: models.RoleSubAdmin}
	student := &models.User{ID: uuid.New(), Role: models.RoleStudent, IsActive: true}
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, IsActive: true}
	store := newMemUserAdmin(student, admin)
	svc := NewUserAdminService(store)

	require.NoError(t, svc.SetActive(context.Background(), subAdmin, student.ID, false))
	assert.False(t, store.users[student.ID].IsActive)

	err := svc.SetActive(context.Background(), subAdmin, admin.ID, false)
	var fErr *ForbiddenError
	assert.True(t, errors.As(err, &fErr))

	err = svc.SetActive(context.Background(), subAdmin, uuid.New(), false)
	var nfErr *NotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestUserAdminService_ListRejectsUnknownRole(t *testing.T) {
	svc := NewUserAdminService(newMemUserAdmin())

	_, err := svc.ListUsers(context.Background(), "owner", 1, 20)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}
