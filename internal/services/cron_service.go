package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultSweepBatch = 100

// StalePaymentSweeper settles payments whose gateway outcome never arrived
type StalePaymentSweeper interface {
	ExpireStale(ctx context.Context, ttl time.Duration, batchSize int) (int, error)
}

// CronConfig controls the background payment sweep
type CronConfig struct {
	SweepSchedule string
	PendingTTL    time.Duration
	BatchSize     int
}

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	sweeper StalePaymentSweeper
	cfg     CronConfig
	logger  *logrus.Logger

	// running guards against a slow sweep overlapping the next tick
	running sync.Mutex
}

// NewCronService creates a new CronService
func NewCronService(sweeper StalePaymentSweeper, cfg CronConfig, logger *logrus.Logger) *CronService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSweepBatch
	}
	return &CronService{
		// Cron format: second minute hour day month weekday
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepStalePaymentsJob); err != nil {
		return fmt.Errorf("failed to schedule stale payment sweep: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"schedule":    s.cfg.SweepSchedule,
		"pending_ttl": s.cfg.PendingTTL.String(),
	}).Info("Scheduled stale payment sweep")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunSweepNow runs the stale payment sweep immediately
func (s *CronService) RunSweepNow(ctx context.Context) (int, error) {
	s.running.Lock()
	defer s.running.Unlock()
	return s.sweeper.ExpireStale(ctx, s.cfg.PendingTTL, s.cfg.BatchSize)
}

func (s *CronService) sweepStalePaymentsJob() {
	if !s.running.TryLock() {
		s.logger.Warn("Previous stale payment sweep still running, skipping")
		return
	}
	defer s.running.Unlock()

	startTime := time.Now()
	settled, err := s.sweeper.ExpireStale(context.Background(), s.cfg.PendingTTL, s.cfg.BatchSize)
	if err != nil {
		s.logger.WithError(err).Error("Stale payment sweep failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"settled":  settled,
		"duration": time.Since(startTime).String(),
	}).Info("Stale payment sweep finished")
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
