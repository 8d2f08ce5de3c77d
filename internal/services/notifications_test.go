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

type memNotifications struct {
	items []*models.Notification
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	n.ID = uuid.New()
	m.items = append(m.items, n)
	return nil
}

func (m *memNotifications) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			now := n.CreatedAt
			n.ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

type memUsers map[uuid.UUID]*models.User

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type recordingPublisher struct {
	sent []uuid.UUID
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, userID uuid.UUID, msg models.WSMessage) error {
	p.sent = append(p.sent, userID)
	return p.err
}

type recordingMailer struct {
	to       []string
	subjects []string
}

func (m *recordingMailer) Enqueue(_ context.Context, to, subject, htmlBody string) error {
	m.to = append(m.to, to)
	m.subjects = append(m.subjects, subject)
	return nil
}

func TestNotificationService_CreatePublishesAndMails(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "student@example.com"}
	store := &memNotifications{}
	pub := &recordingPublisher{}
	mailer := &recordingMailer{}
	svc := NewNotificationService(store, memUsers{user.ID: user}, pub, NewEmailService("", "", "", "", "", "http://localhost:5173"), mailer)

	n, err := svc.Create(context.Background(), models.CreateNotificationRequest{
		UserID:    user.ID,
		Title:     "New lesson",
		Body:      "Lesson 3 is live",
		Link:      strPtr("/courses/1"),
		SendEmail: true,
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, n.UserID)
	assert.Equal(t, []uuid.UUID{user.ID}, pub.sent)
	assert.Equal(t, []string{"student@example.com"}, mailer.to)
	assert.Equal(t, []string{"New lesson"}, mailer.subjects)
}

func TestNotificationService_PublishFailureDoesNotFailCreate(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com"}
	svc := NewNotificationService(&memNotifications{}, memUsers{user.ID: user}, &recordingPublisher{err: errors.New("redis down")}, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateNotificationRequest{UserID: user.ID, Title: "Hi"})
	assert.NoError(t, err)
}

func TestNotificationService_CreateValidatesRecipient(t *testing.T) {
	svc := NewNotificationService(&memNotifications{}, memUsers{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateNotificationRequest{Title: ""})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "user_id")
	assert.Contains(t, vErr.Fields, "title")

	_, err = svc.Create(context.Background(), models.CreateNotificationRequest{UserID: uuid.New(), Title: "Hi"})
	var nfErr *NotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestNotificationService_MarkReadScopedToOwner(t *testing.T) {
	owner := &models.User{ID: uuid.New()}
	store := &memNotifications{}
	svc := NewNotificationService(store, memUsers{owner.ID: owner}, nil, nil, nil)

	n, err := svc.Create(context.Background(), models.CreateNotificationRequest{UserID: owner.ID, Title: "Hi"})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), n.ID)
	var nfErr *NotFoundError
	require.True(t, errors.As(err, &nfErr))

	require.NoError(t, svc.MarkRead(context.Background(), owner.ID, n.ID))
	unread, err := svc.UnreadCount(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationChannel(t *testing.T) {
	id := uuid.MustParse("6f1c9a59-0000-4000-8000-000000000001")
	assert.Equal(t, "notifications:6f1c9a59-0000-4000-8000-000000000001", NotificationChannel(id))
}
