package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lms-backend/internal/models"
)

const (
	MailQueueName      = "queue:mail"
	defaultMailRetries = 3
)

// MailQueue pushes email jobs for the worker pool.
type MailQueue struct {
	redis      *redis.Client
	maxRetries int
}

func NewMailQueue(redisClient *redis.Client) *MailQueue {
	return &MailQueue{redis: redisClient, maxRetries: defaultMailRetries}
}

func (q *MailQueue) Enqueue(ctx context.Context, to, subject, htmlBody string) error {
	job := models.MailJob{
		ID:         uuid.New(),
		To:         to,
		Subject:    subject,
		HTMLBody:   htmlBody,
		MaxRetries: q.maxRetries,
		CreatedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode mail job: %w", err)
	}
	if err := q.redis.RPush(ctx, MailQueueName, payload).Err(); err != nil {
		return fmt.Errorf("failed to push mail job: %w", err)
	}
	return nil
}
