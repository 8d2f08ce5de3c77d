package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"lms-backend/internal/models"
)

// NotificationChannel is the pub/sub channel the websocket hub listens on
// for a user.
func NotificationChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type recipientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Publisher fans a message out to a user's live connections.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

func (p *RedisPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, NotificationChannel(userID), data).Err()
}

type NotificationService struct {
	notifications notificationStore
	users         recipientLookup
	publisher     Publisher
	email         *EmailService
	mailer        Mailer
}

func NewNotificationService(notifications notificationStore, users recipientLookup, publisher Publisher, email *EmailService, mailer Mailer) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		email:         email,
		mailer:        mailer,
	}
}

// Create stores a notification, pushes it to live sessions and optionally
// queues an email copy. Delivery failures are logged only.
func (s *NotificationService) Create(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	fields := make(map[string]string)
	if req.UserID == uuid.Nil {
		fields["user_id"] = "Recipient is required"
	}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	recipient, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Recipient not found"}
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}

	n := &models.Notification{
		UserID: req.UserID,
		Title:  strings.TrimSpace(req.Title),
		Body:   req.Body,
		Link:   req.Link,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.publisher != nil {
		msg := models.WSMessage{Type: "notification", Payload: n}
		if err := s.publisher.Publish(ctx, n.UserID, msg); err != nil {
			log.Printf("notifications: failed to publish %s: %v", n.ID, err)
		}
	}

	if req.SendEmail && s.mailer != nil && s.email != nil {
		subject, body := s.email.NotificationMessage(n.Title, n.Body, n.Link)
		if err := s.mailer.Enqueue(ctx, recipient.Email, subject, body); err != nil {
			log.Printf("notifications: failed to queue email for %s: %v", n.ID, err)
		}
	}

	return n, nil
}

func (s *NotificationService) ListMine(ctx context.Context, userID uuid.UUID, page, limit int) ([]*models.Notification, int, error) {
	page, limit = normalizePage(page, limit)
	items, err := s.notifications.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return items, unread, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return &NotFoundError{Message: "Notification not found"}
	}
	return nil
}
