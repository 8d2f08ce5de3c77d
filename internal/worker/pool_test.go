package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-backend/internal/models"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	f.sent = append(f.sent, to)
	return f.err
}

type requeued struct {
	job   models.MailJob
	after time.Duration
}

func newTestPool(s sender) (*Pool, *[]requeued) {
	var got []requeued
	p := NewPool(nil, s, 1)
	p.requeue = func(job models.MailJob, after time.Duration) {
		got = append(got, requeued{job, after})
	}
	return p, &got
}

func TestProcess_SuccessDoesNotRequeue(t *testing.T) {
	s := &fakeSender{}
	p, got := newTestPool(s)

	p.process(&models.MailJob{ID: uuid.New(), To: "a@example.com", MaxRetries: 3})

	assert.Equal(t, []string{"a@example.com"}, s.sent)
	assert.Empty(t, *got)
}

func TestProcess_FailureRequeuesWithBackoff(t *testing.T) {
	p, got := newTestPool(&fakeSender{err: errors.New("smtp down")})

	job := &models.MailJob{ID: uuid.New(), To: "a@example.com", MaxRetries: 3}
	p.process(job)

	require.Len(t, *got, 1)
	assert.Equal(t, 1, (*got)[0].job.RetryCount)
	assert.Equal(t, 2*time.Second, (*got)[0].after)

	p.process(&(*got)[0].job)
	require.Len(t, *got, 2)
	assert.Equal(t, 2, (*got)[1].job.RetryCount)
	assert.Equal(t, 4*time.Second, (*got)[1].after)
}

func TestProcess_GivesUpAtMaxRetries(t *testing.T) {
	p, got := newTestPool(&fakeSender{err: errors.New("smtp down")})

	p.process(&models.MailJob{ID: uuid.New(), To: "a@example.com", RetryCount: 2, MaxRetries: 3})
	assert.Empty(t, *got)
}

func TestProcess_DefaultsMaxRetries(t *testing.T) {
	p, got := newTestPool(&fakeSender{err: errors.New("smtp down")})

	p.process(&models.MailJob{ID: uuid.New(), To: "a@example.com", RetryCount: 1})
	assert.Len(t, *got, 1)

	p.process(&models.MailJob{ID: uuid.New(), To: "a@example.com", RetryCount: 2})
	assert.Len(t, *got, 1)
}

func TestBackoff_Capped(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, time.Minute, backoff(10))
}

func TestStop_Idempotent(t *testing.T) {
	p := NewPool(nil, &fakeSender{}, 0)
	assert.Equal(t, 1, p.workerCount)
	p.Stop()
	p.Stop()
}
