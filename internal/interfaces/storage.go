package interfaces

import (
	"context"

	"github.com/ternarybob/specto/internal/models"
)

// ReportStorage - interface for report lifecycle persistence
type ReportStorage interface {
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetReportBySourceURL(ctx context.Context, sourceURL string) (*models.Report, error)
	UpdateReport(ctx context.Context, report *models.Report) error
	UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, errorMessage string) error
	MarkProcessed(ctx context.Context, id string) error
	ListReportsByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]*models.Report, error)
	DeleteReport(ctx context.Context, id string) error
	CountReports(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (*models.ReportStats, error)
}

// MetricStorage - interface for extracted metric persistence.
// Metrics are append-only; there is no update operation.
type MetricStorage interface {
	SaveMetrics(ctx context.Context, metrics []*models.Metric) error
	GetMetricsByReport(ctx context.Context, reportID string) ([]*models.Metric, error)
	DeleteMetricsByReport(ctx context.Context, reportID string) error
	CountMetrics(ctx context.Context) (int, error)
}

// AlertStorage - interface for alert persistence.
// Alerts are append-only; there is no update operation.
type AlertStorage interface {
	SaveAlerts(ctx context.Context, alerts []*models.Alert) error
	GetAlertsByReport(ctx context.Context, reportID string) ([]*models.Alert, error)
	DeleteAlertsByReport(ctx context.Context, reportID string) error
	CountAlerts(ctx context.Context) (int, error)
}

// AnalysisStorage - interface for analysis persistence.
// UpsertAnalysis is atomic and keyed by report ID, so concurrent
// regeneration for the same report converges on a single row.
type AnalysisStorage interface {
	UpsertAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetAnalysisByReport(ctx context.Context, reportID string) (*models.Analysis, error)
	DeleteAnalysisByReport(ctx context.Context, reportID string) error
	CountAnalyses(ctx context.Context) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ReportStorage() ReportStorage
	MetricStorage() MetricStorage
	AlertStorage() AlertStorage
	AnalysisStorage() AnalysisStorage
	DB() interface{}
	Close() error
}
