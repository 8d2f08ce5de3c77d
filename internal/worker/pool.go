package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"lms-backend/internal/models"
	"lms-backend/internal/services"
)

const (
	popTimeout = 30 * time.Second
	lockTTL    = 5 * time.Minute
	defaultMax = 3
	maxBackoff = time.Minute
)

type sender interface {
	Send(to, subject, htmlBody string) error
}

// Pool drains queue:mail and hands each job to the SMTP sender.
type Pool struct {
	redis       *redis.Client
	email       sender
	workerCount int
	stopChan    chan struct{}
	stopOnce    sync.Once

	// requeue pushes a failed job back after its backoff; swapped in tests.
	requeue func(job models.MailJob, after time.Duration)
}

func NewPool(redisClient *redis.Client, email sender, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		redis:       redisClient,
		email:       email,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
	p.requeue = p.requeueLater
	return p
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d mail worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Mail worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, services.MailQueueName).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("Mail worker %d: BLPOP failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.MailJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Mail worker %d: failed to parse job: %v", id, err)
			continue
		}

		lockKey := fmt.Sprintf("mail_lock:%s:%d", job.ID, job.RetryCount)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue
		}

		p.process(&job)
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(job *models.MailJob) {
	if err := p.email.Send(job.To, job.Subject, job.HTMLBody); err != nil {
		p.handleFailure(job, err)
		return
	}
	log.Printf("Mail job %s delivered to %s", job.ID, job.To)
}

func (p *Pool) handleFailure(job *models.MailJob, err error) {
	job.RetryCount++

	limit := job.MaxRetries
	if limit <= 0 {
		limit = defaultMax
	}

	if job.RetryCount >= limit {
		log.Printf("Mail job %s to %s failed permanently after %d attempts: %v", job.ID, job.To, job.RetryCount, err)
		return
	}

	log.Printf("Mail job %s failed (attempt %d): %v, retrying", job.ID, job.RetryCount, err)
	p.requeue(*job, backoff(job.RetryCount))
}

func (p *Pool) requeueLater(job models.MailJob, after time.Duration) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Printf("Mail job %s: failed to encode for retry: %v", job.ID, err)
		return
	}
	time.AfterFunc(after, func() {
		if err := p.redis.RPush(context.Background(), services.MailQueueName, data).Err(); err != nil {
			log.Printf("Mail job %s: failed to requeue: %v", job.ID, err)
		}
	})
}

func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
