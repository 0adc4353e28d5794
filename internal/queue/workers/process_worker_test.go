package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/analyzer"
)

// In-memory storage doubles

type memReportStorage struct {
	reports map[string]*models.Report
}

func (m *memReportStorage) SaveReport(ctx context.Context, r *models.Report) error {
	m.reports[r.ID] = r
	return nil
}

func (m *memReportStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, models.ErrReportNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memReportStorage) GetReportBySourceURL(ctx context.Context, u string) (*models.Report, error) {
	return nil, models.ErrReportNotFound
}

func (m *memReportStorage) UpdateReport(ctx context.Context, r *models.Report) error {
	m.reports[r.ID] = r
	return nil
}

func (m *memReportStorage) UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, errorMessage string) error {
	r, ok := m.reports[id]
	if !ok {
		return models.ErrReportNotFound
	}
	r.Status = status
	r.ErrorMessage = errorMessage
	return nil
}

func (m *memReportStorage) MarkProcessed(ctx context.Context, id string) error {
	return m.UpdateStatus(ctx, id, models.StatusComplete, "")
}

func (m *memReportStorage) ListReportsByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]*models.Report, error) {
	return nil, nil
}

func (m *memReportStorage) DeleteReport(ctx context.Context, id string) error {
	delete(m.reports, id)
	return nil
}

func (m *memReportStorage) CountReports(ctx context.Context) (int, error) {
	return len(m.reports), nil
}

func (m *memReportStorage) GetStats(ctx context.Context) (*models.ReportStats, error) {
	return &models.ReportStats{}, nil
}

type memMetricStorage struct {
	byReport map[string][]*models.Metric
}

func (m *memMetricStorage) SaveMetrics(ctx context.Context, metrics []*models.Metric) error {
	for _, metric := range metrics {
		m.byReport[metric.ReportID] = append(m.byReport[metric.ReportID], metric)
	}
	return nil
}

func (m *memMetricStorage) GetMetricsByReport(ctx context.Context, reportID string) ([]*models.Metric, error) {
	return m.byReport[reportID], nil
}

func (m *memMetricStorage) DeleteMetricsByReport(ctx context.Context, reportID string) error {
	delete(m.byReport, reportID)
	return nil
}

func (m *memMetricStorage) CountMetrics(ctx context.Context) (int, error) {
	total := 0
	for _, metrics := range m.byReport {
		total += len(metrics)
	}
	return total, nil
}

type memAlertStorage struct {
	byReport map[string][]*models.Alert
}

func (m *memAlertStorage) SaveAlerts(ctx context.Context, alerts []*models.Alert) error {
	for _, alert := range alerts {
		m.byReport[alert.ReportID] = append(m.byReport[alert.ReportID], alert)
	}
	return nil
}

func (m *memAlertStorage) GetAlertsByReport(ctx context.Context, reportID string) ([]*models.Alert, error) {
	return m.byReport[reportID], nil
}

func (m *memAlertStorage) DeleteAlertsByReport(ctx context.Context, reportID string) error {
	delete(m.byReport, reportID)
	return nil
}

func (m *memAlertStorage) CountAlerts(ctx context.Context) (int, error) {
	total := 0
	for _, alerts := range m.byReport {
		total += len(alerts)
	}
	return total, nil
}

type memAnalysisStorage struct {
	analyses    map[string]*models.Analysis
	upsertErr   error
	upsertCalls int
}

func (m *memAnalysisStorage) UpsertAnalysis(ctx context.Context, analysis *models.Analysis) error {
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if existing, ok := m.analyses[analysis.ReportID]; ok {
		analysis.ID = existing.ID
		analysis.CreatedAt = existing.CreatedAt
	}
	m.analyses[analysis.ReportID] = analysis
	return nil
}

func (m *memAnalysisStorage) GetAnalysisByReport(ctx context.Context, reportID string) (*models.Analysis, error) {
	a, ok := m.analyses[reportID]
	if !ok {
		return nil, models.ErrAnalysisNotFound
	}
	return a, nil
}

func (m *memAnalysisStorage) DeleteAnalysisByReport(ctx context.Context, reportID string) error {
	delete(m.analyses, reportID)
	return nil
}

func (m *memAnalysisStorage) CountAnalyses(ctx context.Context) (int, error) {
	return len(m.analyses), nil
}

type memStorageManager struct {
	reports  *memReportStorage
	metrics  *memMetricStorage
	alerts   *memAlertStorage
	analyses *memAnalysisStorage
}

func (m *memStorageManager) ReportStorage() interfaces.ReportStorage     { return m.reports }
func (m *memStorageManager) MetricStorage() interfaces.MetricStorage     { return m.metrics }
func (m *memStorageManager) AlertStorage() interfaces.AlertStorage       { return m.alerts }
func (m *memStorageManager) AnalysisStorage() interfaces.AnalysisStorage { return m.analyses }
func (m *memStorageManager) DB() interface{}                             { return nil }
func (m *memStorageManager) Close() error                                { return nil }

// stubAnalyzer returns a fixed result or error
type stubAnalyzer struct {
	calls  int
	result *models.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text, companyName, reportType string) (*models.AnalysisResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAnalyzer) IsAvailable() bool { return true }
func (s *stubAnalyzer) Close() error      { return nil }

type workerFixture struct {
	worker   *ProcessWorker
	storage  *memStorageManager
	analyzer *stubAnalyzer
}

func newWorkerFixture(stub *stubAnalyzer) *workerFixture {
	storage := &memStorageManager{
		reports:  &memReportStorage{reports: make(map[string]*models.Report)},
		metrics:  &memMetricStorage{byReport: make(map[string][]*models.Metric)},
		alerts:   &memAlertStorage{byReport: make(map[string][]*models.Alert)},
		analyses: &memAnalysisStorage{analyses: make(map[string]*models.Analysis)},
	}

	config := &common.AnalysisConfig{
		MaxInputChars:  32000,
		ChunkSize:      4000,
		MaxRetries:     2,
		RetryDelay:     "1ms",
		PersistRetries: 3,
		PersistDelay:   "1ms",
		RatePerSecond:  1000,
		RateBurst:      1000,
	}

	generator := analyzer.NewGenerator(stub, config, nil, common.GetLogger())
	worker := NewProcessWorker(storage, generator, config, common.GetLogger())

	return &workerFixture{worker: worker, storage: storage, analyzer: stub}
}

const pipelineText = "In Q3 2025 revenue was $2.5 billion. Operating margin declined " +
	"from 18.5% to 16.2%. The company faces a lawsuit over a data breach."

func seedReport(f *workerFixture, status models.ProcessingStatus) *models.Report {
	report := &models.Report{
		ID:            "rpt_pipeline",
		CompanyName:   "ACME Corp",
		ReportType:    "Financial Report",
		SourceURL:     "https://example.com/q3",
		ExtractedText: pipelineText,
		Status:        status,
	}
	f.storage.reports.reports[report.ID] = report
	return report
}

func processMsg() *models.QueueMessage {
	return &models.QueueMessage{ReportID: "rpt_pipeline", Type: models.MessageTypeProcessReport}
}

func TestHandle_FullPipelineSuccess(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{
		ExecutiveSummary: "Mixed quarter",
		SentimentScore:   0.4,
		SentimentLabel:   "Neutral",
	}}
	f := newWorkerFixture(stub)
	seedReport(f, models.StatusIngested)

	err := f.worker.Handle(context.Background(), processMsg())

	require.NoError(t, err)

	report := f.storage.reports.reports["rpt_pipeline"]
	assert.Equal(t, models.StatusComplete, report.Status)
	assert.Empty(t, report.ErrorMessage)

	metrics, _ := f.storage.metrics.GetMetricsByReport(context.Background(), "rpt_pipeline")
	assert.NotEmpty(t, metrics)
	for _, m := range metrics {
		assert.Equal(t, "rpt_pipeline", m.ReportID)
	}

	alerts, _ := f.storage.alerts.GetAlertsByReport(context.Background(), "rpt_pipeline")
	assert.NotEmpty(t, alerts)

	analysis, err := f.storage.analyses.GetAnalysisByReport(context.Background(), "rpt_pipeline")
	require.NoError(t, err)
	assert.Equal(t, "Mixed quarter", analysis.ExecutiveSummary)
}

func TestHandle_GenerationFailureMarksFailed(t *testing.T) {
	stub := &stubAnalyzer{err: errors.New("invalid api key")}
	f := newWorkerFixture(stub)
	seedReport(f, models.StatusIngested)

	err := f.worker.Handle(context.Background(), processMsg())

	assert.Error(t, err)

	report := f.storage.reports.reports["rpt_pipeline"]
	assert.Equal(t, models.StatusFailed, report.Status)
	assert.NotEmpty(t, report.ErrorMessage)

	// Metrics and alerts still persisted before the failure
	metrics, _ := f.storage.metrics.GetMetricsByReport(context.Background(), "rpt_pipeline")
	assert.NotEmpty(t, metrics)
}

func TestHandle_BypassSkipsGeneration(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{ExecutiveSummary: "generated"}}
	f := newWorkerFixture(stub)
	seedReport(f, models.StatusIngested)

	f.storage.analyses.analyses["rpt_pipeline"] = &models.Analysis{
		ID:               "ana_external",
		ReportID:         "rpt_pipeline",
		ExecutiveSummary: "Precomputed upstream",
		Model:            "external",
	}

	err := f.worker.Handle(context.Background(), processMsg())

	require.NoError(t, err)
	assert.Equal(t, 0, stub.calls)

	report := f.storage.reports.reports["rpt_pipeline"]
	assert.Equal(t, models.StatusComplete, report.Status)

	analysis, _ := f.storage.analyses.GetAnalysisByReport(context.Background(), "rpt_pipeline")
	assert.Equal(t, "Precomputed upstream", analysis.ExecutiveSummary)
}

func TestHandle_RerunRegeneratesExistingAnalysis(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{ExecutiveSummary: "regenerated"}}
	f := newWorkerFixture(stub)
	seedReport(f, models.StatusComplete)

	f.storage.analyses.analyses["rpt_pipeline"] = &models.Analysis{
		ID:               "ana_old",
		ReportID:         "rpt_pipeline",
		ExecutiveSummary: "stale",
	}

	err := f.worker.Handle(context.Background(), processMsg())

	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)

	analysis, _ := f.storage.analyses.GetAnalysisByReport(context.Background(), "rpt_pipeline")
	assert.Equal(t, "regenerated", analysis.ExecutiveSummary)
	// Upsert preserves the original row identity
	assert.Equal(t, "ana_old", analysis.ID)
}

func TestHandle_PersistenceFailureIsTerminal(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{ExecutiveSummary: "ok"}}
	f := newWorkerFixture(stub)
	f.storage.analyses.upsertErr = fmt.Errorf("disk full")
	seedReport(f, models.StatusIngested)

	err := f.worker.Handle(context.Background(), processMsg())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist")
	assert.Equal(t, 3, f.storage.analyses.upsertCalls)

	report := f.storage.reports.reports["rpt_pipeline"]
	assert.Equal(t, models.StatusFailed, report.Status)
}

func TestHandle_UnknownReport(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{ExecutiveSummary: "ok"}}
	f := newWorkerFixture(stub)

	err := f.worker.Handle(context.Background(), &models.QueueMessage{
		ReportID: "rpt_missing",
		Type:     models.MessageTypeProcessReport,
	})

	assert.ErrorIs(t, err, models.ErrReportNotFound)
}

func TestHandle_RerunDoesNotDuplicateMetrics(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{ExecutiveSummary: "ok"}}
	f := newWorkerFixture(stub)
	seedReport(f, models.StatusIngested)

	require.NoError(t, f.worker.Handle(context.Background(), processMsg()))

	firstMetrics, _ := f.storage.metrics.GetMetricsByReport(context.Background(), "rpt_pipeline")
	firstAlerts, _ := f.storage.alerts.GetAlertsByReport(context.Background(), "rpt_pipeline")

	require.NoError(t, f.worker.Handle(context.Background(), processMsg()))

	secondMetrics, _ := f.storage.metrics.GetMetricsByReport(context.Background(), "rpt_pipeline")
	secondAlerts, _ := f.storage.alerts.GetAlertsByReport(context.Background(), "rpt_pipeline")

	assert.Len(t, secondMetrics, len(firstMetrics))
	assert.Len(t, secondAlerts, len(firstAlerts))

	count, _ := f.storage.analyses.CountAnalyses(context.Background())
	assert.Equal(t, 1, count)
}

func TestHandle_TransientGenerationErrorRetriedWithinHandle(t *testing.T) {
	stub := &stubAnalyzer{err: errors.New("529 overloaded")}
	f := newWorkerFixture(stub)
	seedReport(f, models.StatusIngested)

	err := f.worker.Handle(context.Background(), processMsg())

	assert.Error(t, err)
	// MaxRetries is 2 in the fixture config
	assert.Equal(t, 2, stub.calls)
}
