package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// MetricStorage implements the MetricStorage interface for Badger
type MetricStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMetricStorage creates a new MetricStorage instance
func NewMetricStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MetricStorage {
	return &MetricStorage{
		db:     db,
		logger: logger,
	}
}

func (s *MetricStorage) SaveMetrics(ctx context.Context, metrics []*models.Metric) error {
	for _, metric := range metrics {
		if metric.ID == "" {
			return fmt.Errorf("metric ID is required")
		}
		if metric.ReportID == "" {
			return fmt.Errorf("metric report ID is required")
		}
		if metric.ExtractedAt.IsZero() {
			metric.ExtractedAt = time.Now()
		}

		if err := s.db.Store().Insert(metric.ID, metric); err != nil {
			return fmt.Errorf("failed to save metric %s: %w", metric.MetricType, err)
		}
	}
	return nil
}

func (s *MetricStorage) GetMetricsByReport(ctx context.Context, reportID string) ([]*models.Metric, error) {
	var metrics []models.Metric
	if err := s.db.Store().Find(&metrics, badgerhold.Where("ReportID").Eq(reportID).Index("ReportID")); err != nil {
		return nil, fmt.Errorf("failed to get metrics for report: %w", err)
	}

	result := make([]*models.Metric, len(metrics))
	for i := range metrics {
		result[i] = &metrics[i]
	}
	return result, nil
}

func (s *MetricStorage) DeleteMetricsByReport(ctx context.Context, reportID string) error {
	if err := s.db.Store().DeleteMatching(&models.Metric{}, badgerhold.Where("ReportID").Eq(reportID)); err != nil {
		return fmt.Errorf("failed to delete metrics for report: %w", err)
	}
	return nil
}

func (s *MetricStorage) CountMetrics(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Metric{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count metrics: %w", err)
	}
	return int(count), nil
}
