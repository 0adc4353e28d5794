// Package workers holds the queue message handlers that run the report
// processing pipeline in the background.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/alerts"
	"github.com/ternarybob/specto/internal/services/analyzer"
	"github.com/ternarybob/specto/internal/services/extraction"
)

// ProcessWorker runs the full pipeline for one report: metric extraction,
// alert evaluation, analysis generation and persistence. The outcome is
// recorded on the report itself (Complete or Failed with a reason).
type ProcessWorker struct {
	reports   interfaces.ReportStorage
	metrics   interfaces.MetricStorage
	alertsDB  interfaces.AlertStorage
	analyses  interfaces.AnalysisStorage
	extractor *extraction.Engine
	rules     *alerts.Engine
	generator *analyzer.Generator
	logger    arbor.ILogger

	persistRetries int
	persistDelay   time.Duration
}

// NewProcessWorker creates the report processing handler
func NewProcessWorker(
	storage interfaces.StorageManager,
	generator *analyzer.Generator,
	config *common.AnalysisConfig,
	logger arbor.ILogger,
) *ProcessWorker {
	persistRetries := config.PersistRetries
	if persistRetries <= 0 {
		persistRetries = 3
	}

	return &ProcessWorker{
		reports:        storage.ReportStorage(),
		metrics:        storage.MetricStorage(),
		alertsDB:       storage.AlertStorage(),
		analyses:       storage.AnalysisStorage(),
		extractor:      extraction.NewEngine(),
		rules:          alerts.NewEngine(),
		generator:      generator,
		logger:         logger,
		persistRetries: persistRetries,
		persistDelay:   common.MustDuration(config.PersistDelay, 2*time.Second),
	}
}

// Handle processes one queue message. Pipeline failures are recorded on
// the report as status Failed with the error message; the returned error
// is for worker logging only.
func (w *ProcessWorker) Handle(ctx context.Context, msg *models.QueueMessage) error {
	report, err := w.reports.GetReport(ctx, msg.ReportID)
	if err != nil {
		return fmt.Errorf("report %s not found for processing: %w", msg.ReportID, err)
	}

	previousStatus := report.Status

	if err := w.reports.UpdateStatus(ctx, report.ID, models.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark report %s processing: %w", report.ID, err)
	}

	if err := w.run(ctx, report, previousStatus); err != nil {
		if statusErr := w.reports.UpdateStatus(ctx, report.ID, models.StatusFailed, err.Error()); statusErr != nil {
			w.logger.Error().
				Err(statusErr).
				Str("report_id", report.ID).
				Msg("Failed to record failure status")
		}
		return err
	}

	if err := w.reports.MarkProcessed(ctx, report.ID); err != nil {
		return fmt.Errorf("failed to mark report %s complete: %w", report.ID, err)
	}

	w.logger.Info().
		Str("report_id", report.ID).
		Msg("Report processing complete")
	return nil
}

// run executes the pipeline stages for a report already in Processing
func (w *ProcessWorker) run(ctx context.Context, report *models.Report, previousStatus models.ProcessingStatus) error {
	startTime := time.Now()

	if err := w.extractMetrics(ctx, report); err != nil {
		return err
	}
	if err := w.evaluateAlerts(ctx, report); err != nil {
		return err
	}

	// A pre-existing analysis on a first run came from the ingestion bypass
	// path and is kept as-is. An explicit re-run regenerates it.
	if previousStatus == models.StatusIngested {
		if _, err := w.analyses.GetAnalysisByReport(ctx, report.ID); err == nil {
			w.logger.Info().
				Str("report_id", report.ID).
				Msg("Analysis already provided, skipping generation")
			return nil
		}
	}

	result, err := w.generator.Generate(ctx, report)
	if err != nil {
		return err
	}

	analysis := &models.Analysis{
		ID:                 common.NewAnalysisID(),
		ReportID:           report.ID,
		ProcessingDuration: time.Since(startTime),
	}
	analysis.FromResult(result)

	return w.persistAnalysis(ctx, analysis)
}

// extractMetrics replaces the report's metrics with a fresh extraction.
// Clearing first keeps re-runs from accumulating duplicate rows.
func (w *ProcessWorker) extractMetrics(ctx context.Context, report *models.Report) error {
	if err := w.metrics.DeleteMetricsByReport(ctx, report.ID); err != nil {
		return fmt.Errorf("failed to clear previous metrics: %w", err)
	}

	extracted := w.extractor.Extract(report.ExtractedText)
	for _, metric := range extracted {
		metric.ReportID = report.ID
	}

	if len(extracted) == 0 {
		w.logger.Debug().
			Str("report_id", report.ID).
			Msg("No metrics extracted")
		return nil
	}

	if err := w.metrics.SaveMetrics(ctx, extracted); err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}

	w.logger.Info().
		Str("report_id", report.ID).
		Int("metric_count", len(extracted)).
		Msg("Metrics extracted")
	return nil
}

// evaluateAlerts replaces the report's alerts with a fresh evaluation
func (w *ProcessWorker) evaluateAlerts(ctx context.Context, report *models.Report) error {
	if err := w.alertsDB.DeleteAlertsByReport(ctx, report.ID); err != nil {
		return fmt.Errorf("failed to clear previous alerts: %w", err)
	}

	metrics, err := w.metrics.GetMetricsByReport(ctx, report.ID)
	if err != nil {
		return fmt.Errorf("failed to load metrics for alert evaluation: %w", err)
	}

	triggered := w.rules.Evaluate(report, metrics)
	if len(triggered) == 0 {
		w.logger.Debug().
			Str("report_id", report.ID).
			Msg("No alerts triggered")
		return nil
	}

	if err := w.alertsDB.SaveAlerts(ctx, triggered); err != nil {
		return fmt.Errorf("failed to save alerts: %w", err)
	}

	w.logger.Info().
		Str("report_id", report.ID).
		Int("alert_count", len(triggered)).
		Msg("Alerts triggered")
	return nil
}

// persistAnalysis upserts the generated analysis with its own retry
// budget. Persistence failures are a distinct terminal error from
// generation failures.
func (w *ProcessWorker) persistAnalysis(ctx context.Context, analysis *models.Analysis) error {
	var lastErr error
	for attempt := 1; attempt <= w.persistRetries; attempt++ {
		lastErr = w.analyses.UpsertAnalysis(ctx, analysis)
		if lastErr == nil {
			return nil
		}

		if attempt == w.persistRetries {
			break
		}

		w.logger.Warn().
			Err(lastErr).
			Str("report_id", analysis.ReportID).
			Int("attempt", attempt).
			Msg("Analysis persistence failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.persistDelay):
		}
	}

	return fmt.Errorf("failed to persist analysis after %d attempts: %w", w.persistRetries, lastErr)
}
