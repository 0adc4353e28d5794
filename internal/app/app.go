package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/queue"
	"github.com/ternarybob/specto/internal/queue/workers"
	"github.com/ternarybob/specto/internal/services/analyzer"
	"github.com/ternarybob/specto/internal/services/ingestion"
	"github.com/ternarybob/specto/internal/services/scheduler"
	badgerstorage "github.com/ternarybob/specto/internal/storage/badger"
	"github.com/ternarybob/specto/internal/storage/files"
	"github.com/timshannon/badgerhold/v4"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	FileStorage    interfaces.FileStorage
	QueueManager   interfaces.QueueManager
	WorkerPool     *queue.WorkerPool

	Analyzer  interfaces.DocumentAnalyzer
	Generator *analyzer.Generator

	IngestionService *ingestion.Service
	SchedulerService *scheduler.Service
}

// New wires the application: storage, queue, workers, analyzer, ingestion
// and the retry scheduler. Components start immediately; Close tears them
// down in reverse order.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	fileStorage, err := files.NewService(&config.Storage.Files, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	store, ok := storageManager.DB().(*badgerhold.Store)
	if !ok || store == nil {
		storageManager.Close()
		return nil, fmt.Errorf("storage manager did not expose a badgerhold store")
	}

	queueManager, err := queue.NewManager(
		store.Badger(),
		config.Queue.QueueName,
		common.MustDuration(config.Queue.VisibilityTimeout, 5*time.Minute),
		config.Queue.MaxReceive,
	)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	docAnalyzer, err := analyzer.NewAnalyzer(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	var cache *analyzer.Cache
	if config.Analysis.CacheEnabled {
		cache = analyzer.NewCache(
			config.Analysis.CacheCapacity,
			common.MustDuration(config.Analysis.CacheTTL, 24*time.Hour),
		)
	}
	generator := analyzer.NewGenerator(docAnalyzer, &config.Analysis, cache, logger)

	workerPool := queue.NewWorkerPool(
		queueManager,
		config.Queue.Concurrency,
		common.MustDuration(config.Queue.PollInterval, time.Second),
		logger,
	)
	processWorker := workers.NewProcessWorker(storageManager, generator, &config.Analysis, logger)
	workerPool.RegisterHandler(models.MessageTypeProcessReport, processWorker.Handle)

	ingestionService := ingestion.NewService(storageManager, fileStorage, queueManager, &config.Ingest, logger)
	schedulerService := scheduler.NewService(storageManager, queueManager, &config.Scheduler, logger)

	app := &App{
		Config:           config,
		Logger:           logger,
		StorageManager:   storageManager,
		FileStorage:      fileStorage,
		QueueManager:     queueManager,
		WorkerPool:       workerPool,
		Analyzer:         docAnalyzer,
		Generator:        generator,
		IngestionService: ingestionService,
		SchedulerService: schedulerService,
	}

	if err := workerPool.Start(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}
	if err := schedulerService.Start(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("provider", config.Analysis.Provider).
		Int("workers", config.Queue.Concurrency).
		Msg("Application initialized")

	return app, nil
}

// Close shuts components down in reverse initialization order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}
	if a.WorkerPool != nil {
		if err := a.WorkerPool.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Worker pool stop failed")
		}
	}
	if a.Analyzer != nil {
		if err := a.Analyzer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Analyzer close failed")
		}
	}
	if a.QueueManager != nil {
		if err := a.QueueManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Queue close failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
			return err
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
