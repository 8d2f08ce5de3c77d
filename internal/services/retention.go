package services

import (
	"context"
	"log"
	"time"
)

type learningCleaner interface {
	CleanupOldLearningData(ctx context.Context) (int64, error)
}

// RetentionScheduler purges expired daily learning stats once a day at a
// fixed hour in the server calendar.
type RetentionScheduler struct {
	cleaner  learningCleaner
	hour     int
	loc      *time.Location
	clock    Clock
	stopChan chan struct{}
}

func NewRetentionScheduler(cleaner learningCleaner, hour int, loc *time.Location) *RetentionScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &RetentionScheduler{
		cleaner:  cleaner,
		hour:     hour,
		loc:      loc,
		clock:    RealClock{},
		stopChan: make(chan struct{}),
	}
}

func (s *RetentionScheduler) Start() {
	if s.cleaner == nil {
		return
	}

	go s.loop()

	log.Printf("Retention scheduler started (daily at %02d:00 %s)", s.hour, s.loc)
}

func (s *RetentionScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *RetentionScheduler) loop() {
	for {
		wait := nextRun(s.clock.Now(), s.hour, s.loc).Sub(s.clock.Now())
		timer := time.NewTimer(wait)

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(context.Background())
		}
	}
}

func (s *RetentionScheduler) runOnce(ctx context.Context) {
	deleted, err := s.cleaner.CleanupOldLearningData(ctx)
	if err != nil {
		log.Printf("retention: cleanup failed: %v", err)
		return
	}
	log.Printf("retention: removed %d expired learning stat rows", deleted)
}

// nextRun returns the first hour:00 in loc strictly after now.
func nextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}
