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

// AlertStorage implements the AlertStorage interface for Badger
type AlertStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAlertStorage creates a new AlertStorage instance
func NewAlertStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AlertStorage {
	return &AlertStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AlertStorage) SaveAlerts(ctx context.Context, alerts []*models.Alert) error {
	for _, alert := range alerts {
		if alert.ID == "" {
			return fmt.Errorf("alert ID is required")
		}
		if alert.ReportID == "" {
			return fmt.Errorf("alert report ID is required")
		}
		if alert.CreatedAt.IsZero() {
			alert.CreatedAt = time.Now()
		}

		if err := s.db.Store().Insert(alert.ID, alert); err != nil {
			return fmt.Errorf("failed to save alert %s: %w", alert.AlertType, err)
		}
	}
	return nil
}

func (s *AlertStorage) GetAlertsByReport(ctx context.Context, reportID string) ([]*models.Alert, error) {
	var alerts []models.Alert
	if err := s.db.Store().Find(&alerts, badgerhold.Where("ReportID").Eq(reportID).Index("ReportID")); err != nil {
		return nil, fmt.Errorf("failed to get alerts for report: %w", err)
	}

	result := make([]*models.Alert, len(alerts))
	for i := range alerts {
		result[i] = &alerts[i]
	}
	return result, nil
}

func (s *AlertStorage) DeleteAlertsByReport(ctx context.Context, reportID string) error {
	if err := s.db.Store().DeleteMatching(&models.Alert{}, badgerhold.Where("ReportID").Eq(reportID)); err != nil {
		return fmt.Errorf("failed to delete alerts for report: %w", err)
	}
	return nil
}

func (s *AlertStorage) CountAlerts(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Alert{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return int(count), nil
}
