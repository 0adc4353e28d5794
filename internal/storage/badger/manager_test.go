package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	config := &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "specto-test.db"),
	}

	manager, err := NewManager(common.GetLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func testReport(id, sourceURL string) *models.Report {
	return &models.Report{
		ID:          id,
		CompanyName: "ACME Corp",
		ReportType:  "Financial Report",
		Title:       "Q3 2025",
		SourceURL:   sourceURL,
		Status:      models.StatusIngested,
	}
}

func TestReportStorage_SaveAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	report := testReport("rpt_1", "https://example.com/r1")
	require.NoError(t, m.ReportStorage().SaveReport(ctx, report))

	got, err := m.ReportStorage().GetReport(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Equal(t, "ACME Corp", got.CompanyName)
	assert.False(t, got.CreatedAt.IsZero())

	bySource, err := m.ReportStorage().GetReportBySourceURL(ctx, "https://example.com/r1")
	require.NoError(t, err)
	assert.Equal(t, "rpt_1", bySource.ID)
}

func TestReportStorage_DuplicateSourceURLRejected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.ReportStorage().SaveReport(ctx, testReport("rpt_1", "https://example.com/r1")))

	err := m.ReportStorage().SaveReport(ctx, testReport("rpt_2", "https://example.com/r1"))
	assert.ErrorIs(t, err, models.ErrDuplicateSourceURL)

	count, err := m.ReportStorage().CountReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReportStorage_GetMissing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.ReportStorage().GetReport(ctx, "rpt_missing")
	assert.ErrorIs(t, err, models.ErrReportNotFound)

	_, err = m.ReportStorage().GetReportBySourceURL(ctx, "https://example.com/missing")
	assert.ErrorIs(t, err, models.ErrReportNotFound)
}

func TestReportStorage_StatusTransitions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.ReportStorage().SaveReport(ctx, testReport("rpt_1", "https://example.com/r1")))

	require.NoError(t, m.ReportStorage().UpdateStatus(ctx, "rpt_1", models.StatusProcessing, ""))
	got, _ := m.ReportStorage().GetReport(ctx, "rpt_1")
	assert.Equal(t, models.StatusProcessing, got.Status)

	require.NoError(t, m.ReportStorage().UpdateStatus(ctx, "rpt_1", models.StatusFailed, "analyzer unavailable"))
	got, _ = m.ReportStorage().GetReport(ctx, "rpt_1")
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "analyzer unavailable", got.ErrorMessage)

	require.NoError(t, m.ReportStorage().MarkProcessed(ctx, "rpt_1"))
	got, _ = m.ReportStorage().GetReport(ctx, "rpt_1")
	assert.Equal(t, models.StatusComplete, got.Status)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.ProcessedAt)
}

func TestReportStorage_ListByStatusAndStats(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.ReportStorage().SaveReport(ctx, testReport("rpt_1", "https://example.com/r1")))
	require.NoError(t, m.ReportStorage().SaveReport(ctx, testReport("rpt_2", "https://example.com/r2")))
	require.NoError(t, m.ReportStorage().UpdateStatus(ctx, "rpt_2", models.StatusFailed, "boom"))

	failed, err := m.ReportStorage().ListReportsByStatus(ctx, models.StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "rpt_2", failed[0].ID)

	stats, err := m.ReportStorage().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReports)
	assert.Equal(t, 1, stats.ByStatus[models.StatusIngested])
	assert.Equal(t, 1, stats.ByStatus[models.StatusFailed])
}

func TestMetricStorage_SaveAndQueryByReport(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	metrics := []*models.Metric{
		{ID: "met_1", ReportID: "rpt_1", MetricType: models.MetricRevenue, Value: 2500, Unit: models.UnitMillion},
		{ID: "met_2", ReportID: "rpt_1", MetricType: models.MetricEBITDA, Value: 900, Unit: models.UnitMillion},
		{ID: "met_3", ReportID: "rpt_other", MetricType: models.MetricRevenue, Value: 100, Unit: models.UnitMillion},
	}
	require.NoError(t, m.MetricStorage().SaveMetrics(ctx, metrics))

	got, err := m.MetricStorage().GetMetricsByReport(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, m.MetricStorage().DeleteMetricsByReport(ctx, "rpt_1"))
	got, err = m.MetricStorage().GetMetricsByReport(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Empty(t, got)

	count, err := m.MetricStorage().CountMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnalysisStorage_UpsertIsIdempotentPerReport(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := &models.Analysis{
		ID:               "ana_1",
		ReportID:         "rpt_1",
		ExecutiveSummary: "first pass",
	}
	require.NoError(t, m.AnalysisStorage().UpsertAnalysis(ctx, first))

	second := &models.Analysis{
		ID:               "ana_2",
		ReportID:         "rpt_1",
		ExecutiveSummary: "second pass",
	}
	require.NoError(t, m.AnalysisStorage().UpsertAnalysis(ctx, second))

	got, err := m.AnalysisStorage().GetAnalysisByReport(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Equal(t, "second pass", got.ExecutiveSummary)
	// Row identity and creation time survive regeneration
	assert.Equal(t, "ana_1", got.ID)
	assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Second)

	count, err := m.AnalysisStorage().CountAnalyses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteReport_Cascades(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.ReportStorage().SaveReport(ctx, testReport("rpt_1", "https://example.com/r1")))
	require.NoError(t, m.MetricStorage().SaveMetrics(ctx, []*models.Metric{
		{ID: "met_1", ReportID: "rpt_1", MetricType: models.MetricRevenue, Value: 1},
	}))
	require.NoError(t, m.AlertStorage().SaveAlerts(ctx, []*models.Alert{
		{ID: "alt_1", ReportID: "rpt_1", AlertType: models.AlertStrongGrowth, Severity: models.SeverityInfo},
	}))
	require.NoError(t, m.AnalysisStorage().UpsertAnalysis(ctx, &models.Analysis{
		ID: "ana_1", ReportID: "rpt_1", ExecutiveSummary: "x",
	}))

	require.NoError(t, m.ReportStorage().DeleteReport(ctx, "rpt_1"))

	_, err := m.ReportStorage().GetReport(ctx, "rpt_1")
	assert.ErrorIs(t, err, models.ErrReportNotFound)

	metrics, _ := m.MetricStorage().GetMetricsByReport(ctx, "rpt_1")
	assert.Empty(t, metrics)

	alerts, _ := m.AlertStorage().GetAlertsByReport(ctx, "rpt_1")
	assert.Empty(t, alerts)

	_, err = m.AnalysisStorage().GetAnalysisByReport(ctx, "rpt_1")
	assert.ErrorIs(t, err, models.ErrAnalysisNotFound)
}

func TestDeleteReport_MissingIsNotAnError(t *testing.T) {
	m := newTestManager(t)

	assert.NoError(t, m.ReportStorage().DeleteReport(context.Background(), "rpt_missing"))
}
