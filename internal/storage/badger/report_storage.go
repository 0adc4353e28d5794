package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// Sentinel aliases so callers holding this package can still match
var (
	ErrReportNotFound     = models.ErrReportNotFound
	ErrDuplicateSourceURL = models.ErrDuplicateSourceURL
)

// ReportStorage implements the ReportStorage interface for Badger.
// Deleting a report cascades into its metrics, alerts and analysis.
type ReportStorage struct {
	db       *BadgerDB
	metric   interfaces.MetricStorage
	alert    interfaces.AlertStorage
	analysis interfaces.AnalysisStorage
	logger   arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, metric interfaces.MetricStorage, alert interfaces.AlertStorage, analysis interfaces.AnalysisStorage, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:       db,
		metric:   metric,
		alert:    alert,
		analysis: analysis,
		logger:   logger,
	}
}

func (s *ReportStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	if report.SourceURL == "" {
		return fmt.Errorf("report source URL is required")
	}

	now := time.Now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	// Insert, not Upsert: the unique SourceURL index only rejects
	// duplicates on insert, and new reports must never replace rows.
	if err := s.db.Store().Insert(report.ID, report); err != nil {
		if errors.Is(err, badgerhold.ErrUniqueExists) || errors.Is(err, badgerhold.ErrKeyExists) {
			return ErrDuplicateSourceURL
		}
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.db.Store().Get(id, &report); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (s *ReportStorage) GetReportBySourceURL(ctx context.Context, sourceURL string) (*models.Report, error) {
	var reports []models.Report
	// Case-sensitive exact match
	err := s.db.Store().Find(&reports, badgerhold.Where("SourceURL").Eq(sourceURL).Index("SourceURL"))
	if err != nil {
		return nil, fmt.Errorf("failed to find report by source URL: %w", err)
	}
	if len(reports) == 0 {
		return nil, ErrReportNotFound
	}
	return &reports[0], nil
}

func (s *ReportStorage) UpdateReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	report.UpdatedAt = time.Now()

	if err := s.db.Store().Update(report.ID, report); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("failed to update report: %w", err)
	}
	return nil
}

func (s *ReportStorage) UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, errorMessage string) error {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	report.Status = status
	report.ErrorMessage = errorMessage

	return s.UpdateReport(ctx, report)
}

func (s *ReportStorage) MarkProcessed(ctx context.Context, id string) error {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	report.Status = models.StatusComplete
	report.ErrorMessage = ""
	report.ProcessedAt = &now

	return s.UpdateReport(ctx, report)
}

func (s *ReportStorage) ListReportsByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]*models.Report, error) {
	query := badgerhold.Where("Status").Eq(status)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.Report
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports by status: %w", err)
	}

	result := make([]*models.Report, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

// DeleteReport removes a report and all entities owned by it.
func (s *ReportStorage) DeleteReport(ctx context.Context, id string) error {
	if err := s.metric.DeleteMetricsByReport(ctx, id); err != nil {
		return fmt.Errorf("failed to cascade delete metrics: %w", err)
	}
	if err := s.alert.DeleteAlertsByReport(ctx, id); err != nil {
		return fmt.Errorf("failed to cascade delete alerts: %w", err)
	}
	if err := s.analysis.DeleteAnalysisByReport(ctx, id); err != nil {
		return fmt.Errorf("failed to cascade delete analysis: %w", err)
	}

	if err := s.db.Store().Delete(id, &models.Report{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

func (s *ReportStorage) CountReports(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Report{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return int(count), nil
}

func (s *ReportStorage) GetStats(ctx context.Context) (*models.ReportStats, error) {
	total, err := s.CountReports(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[models.ProcessingStatus]int)
	for _, status := range []models.ProcessingStatus{
		models.StatusIngested,
		models.StatusProcessing,
		models.StatusComplete,
		models.StatusFailed,
	} {
		count, err := s.db.Store().Count(&models.Report{}, badgerhold.Where("Status").Eq(status))
		if err != nil {
			return nil, fmt.Errorf("failed to count reports by status: %w", err)
		}
		byStatus[status] = int(count)
	}

	return &models.ReportStats{
		TotalReports: total,
		ByStatus:     byStatus,
		LastUpdated:  time.Now(),
	}, nil
}
