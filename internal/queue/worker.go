package queue

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// Handler is a function that handles a specific message type
type Handler func(ctx context.Context, msg *models.QueueMessage) error

// WorkerPool manages a pool of workers that process queue messages
type WorkerPool struct {
	queueMgr     interfaces.QueueManager
	handlers     map[string]Handler
	concurrency  int
	pollInterval time.Duration
	logger       arbor.ILogger
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queueMgr interfaces.QueueManager, concurrency int, pollInterval time.Duration, logger arbor.ILogger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &WorkerPool{
		queueMgr:     queueMgr,
		handlers:     make(map[string]Handler),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// RegisterHandler registers a message type handler
func (wp *WorkerPool) RegisterHandler(msgType string, handler Handler) {
	wp.handlers[msgType] = handler
	wp.logger.Debug().
		Str("message_type", msgType).
		Msg("Queue handler registered")
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.logger.Info().
		Int("concurrency", wp.concurrency).
		Msg("Starting worker pool")

	for i := 0; i < wp.concurrency; i++ {
		go wp.worker(i)
	}

	return nil
}

// Stop gracefully stops the worker pool
func (wp *WorkerPool) Stop() error {
	wp.logger.Info().Msg("Stopping worker pool")
	wp.cancel()
	return nil
}

// worker is the main worker loop that processes messages
func (wp *WorkerPool) worker(workerID int) {
	// Stagger worker starts to reduce database lock contention
	staggerDelay := (wp.pollInterval / time.Duration(wp.concurrency)) * time.Duration(workerID)
	if staggerDelay > 0 {
		time.Sleep(staggerDelay)
	}

	wp.logger.Debug().
		Int("worker_id", workerID).
		Dur("stagger_delay", staggerDelay).
		Msg("Worker started")

	ticker := time.NewTicker(wp.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopped")
			return

		case <-ticker.C:
			if err := wp.processMessage(workerID); err != nil && !errors.Is(err, ErrNoMessage) {
				wp.logger.Warn().
					Err(err).
					Int("worker_id", workerID).
					Msg("Error processing message")
			}
		}
	}
}

// processMessage receives and processes a single message
func (wp *WorkerPool) processMessage(workerID int) error {
	msg, deleteFn, err := wp.queueMgr.Receive(wp.ctx)
	if err != nil {
		return err
	}

	handler, exists := wp.handlers[msg.Type]
	if !exists {
		wp.logger.Error().
			Str("message_type", msg.Type).
			Str("report_id", msg.ReportID).
			Msg("No handler registered for message type")
		// Delete messages with unknown type so they don't loop
		if delErr := deleteFn(); delErr != nil {
			wp.logger.Warn().Err(delErr).Msg("Failed to delete unknown message")
		}
		return nil
	}

	wp.logger.Debug().
		Str("message_type", msg.Type).
		Str("report_id", msg.ReportID).
		Int("worker_id", workerID).
		Msg("Processing message")

	startTime := time.Now()
	handlerErr := handler(wp.ctx, msg)
	duration := time.Since(startTime)

	if handlerErr != nil {
		wp.logger.Error().
			Err(handlerErr).
			Str("report_id", msg.ReportID).
			Dur("duration", duration).
			Int("worker_id", workerID).
			Msg("Handler failed")
	} else {
		wp.logger.Info().
			Str("report_id", msg.ReportID).
			Dur("duration", duration).
			Int("worker_id", workerID).
			Msg("Message processed")
	}

	// Handler outcomes are recorded on the report itself; the message is
	// deleted either way so a failed report is not retried implicitly.
	if err := deleteFn(); err != nil {
		wp.logger.Warn().
			Err(err).
			Str("report_id", msg.ReportID).
			Msg("Failed to delete message after processing")
		return err
	}

	return handlerErr
}
