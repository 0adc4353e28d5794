// Package scheduler periodically re-queues failed reports for another
// processing attempt. The sweep is disabled by default and bounded per
// run so a backlog of permanently broken reports cannot flood the queue.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// Service runs the failed-report retry sweep on a cron schedule
type Service struct {
	reports  interfaces.ReportStorage
	queue    interfaces.QueueManager
	config   *common.SchedulerConfig
	cron     *cron.Cron
	logger   arbor.ILogger
	mu       sync.Mutex
	sweeping bool
	running  bool
}

// NewService creates the retry sweep scheduler
func NewService(storage interfaces.StorageManager, queue interfaces.QueueManager, config *common.SchedulerConfig, logger arbor.ILogger) *Service {
	return &Service{
		reports: storage.ReportStorage(),
		queue:   queue,
		config:  config,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers and starts the sweep. A disabled scheduler is a no-op.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Retry scheduler disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to add retry sweep job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Int("max_batch", s.config.MaxBatch).
		Msg("Retry scheduler started")
	return nil
}

// Stop halts the scheduler
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Retry scheduler stopped")
	return nil
}

// runSweep re-queues up to MaxBatch failed reports. Overlapping sweeps
// are skipped rather than queued up.
func (s *Service) runSweep() {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Debug().Msg("Previous sweep still running, skipping")
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	ctx := context.Background()

	maxBatch := s.config.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 20
	}

	failed, err := s.reports.ListReportsByStatus(ctx, models.StatusFailed, maxBatch)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list failed reports for retry sweep")
		return
	}
	if len(failed) == 0 {
		s.logger.Debug().Msg("Retry sweep found no failed reports")
		return
	}

	requeued := 0
	for _, report := range failed {
		if err := s.queue.Enqueue(ctx, models.QueueMessage{
			ReportID: report.ID,
			Type:     models.MessageTypeProcessReport,
		}); err != nil {
			s.logger.Warn().
				Err(err).
				Str("report_id", report.ID).
				Msg("Failed to re-queue report")
			continue
		}
		requeued++
	}

	s.logger.Info().
		Int("failed_found", len(failed)).
		Int("requeued", requeued).
		Msg("Retry sweep complete")
}
