// Package scheduler runs periodic ensemble retraining on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RetrainFunc retrains the ensemble for a single symbol.
type RetrainFunc func(ctx context.Context, symbol string) error

// Scheduler manages cron-based retraining jobs
type Scheduler struct {
	cron       *cron.Cron
	logger     *logrus.Logger
	mu         sync.Mutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
}

// New creates a scheduler. All schedules are interpreted in UTC.
func New(logger *logrus.Logger, jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		logger:     logger,
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: jobTimeout,
	}
}

// ScheduleRetraining registers a retraining job for the given symbols.
// Each run walks the symbols in order; one symbol failing does not stop
// the rest.
func (s *Scheduler) ScheduleRetraining(cronExpression string, symbols []string, retrain RetrainFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	jobID, err := s.cron.AddFunc(cronExpression, func() {
		s.runRetraining(symbols, retrain)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpression, err)
	}

	s.jobIDs = append(s.jobIDs, jobID)
	s.logger.WithFields(logrus.Fields{
		"schedule": cronExpression,
		"symbols":  symbols,
		"job_id":   jobID,
	}).Info("Scheduled retraining job")
	return nil
}

func (s *Scheduler) runRetraining(symbols []string, retrain RetrainFunc) {
	start := time.Now()
	s.logger.WithField("symbols", len(symbols)).Info("Starting scheduled retraining")

	failures := 0
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		err := retrain(ctx, symbol)
		cancel()

		if err != nil {
			failures++
			s.logger.WithError(err).WithField("symbol", symbol).Error("Retraining failed")
			continue
		}
		s.logger.WithField("symbol", symbol).Debug("Retraining complete")
	}

	s.logger.WithFields(logrus.Fields{
		"duration": time.Since(start),
		"symbols":  len(symbols),
		"failures": failures,
	}).Info("Scheduled retraining finished")
}

// Start begins executing scheduled jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether the scheduler has been started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// GetNextRun returns the earliest next execution time across all jobs.
func (s *Scheduler) GetNextRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, fmt.Errorf("no jobs scheduled")
	}

	next := entries[0].Next
	for _, entry := range entries[1:] {
		if entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next, nil
}
