// Package ingestion accepts report submissions, resolves their document
// content, stores the file and the report row, and triggers background
// processing.
package ingestion

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/pdf"
)

// Service is the ingestion coordinator
type Service struct {
	reports    interfaces.ReportStorage
	analyses   interfaces.AnalysisStorage
	files      interfaces.FileStorage
	queue      interfaces.QueueManager
	inspector  *pdf.Inspector
	downloader *Downloader
	validate   *validator.Validate
	logger     arbor.ILogger

	maxFileNameLen int
}

// NewService creates an ingestion coordinator
func NewService(
	storage interfaces.StorageManager,
	files interfaces.FileStorage,
	queue interfaces.QueueManager,
	config *common.IngestConfig,
	logger arbor.ILogger,
) *Service {
	timeout := common.MustDuration(config.DownloadTimeout, 60*time.Second)

	return &Service{
		reports:        storage.ReportStorage(),
		analyses:       storage.AnalysisStorage(),
		files:          files,
		queue:          queue,
		inspector:      pdf.NewInspector(logger),
		downloader:     NewDownloader(timeout, logger),
		validate:       validator.New(),
		logger:         logger,
		maxFileNameLen: config.MaxFileNameLen,
	}
}

// Ingest accepts one report submission. It validates the request, rejects
// duplicate source URLs, resolves and stores the document, persists the
// report row, persists a caller-supplied analysis when present, and
// triggers background processing when extracted text is available.
// The returned report is in status Ingested.
func (s *Service) Ingest(ctx context.Context, req *models.IngestRequest) (*models.Report, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid ingest request: %w", err)
	}

	// Reject known source URLs before touching the file store. The unique
	// index on SourceURL closes the race window at insert time.
	if _, err := s.reports.GetReportBySourceURL(ctx, req.SourceURL); err == nil {
		return nil, models.ErrDuplicateSourceURL
	}

	content, err := s.resolveContent(ctx, req)
	if err != nil {
		return nil, err
	}

	filePath, fileSize, err := s.storeDocument(req, content)
	if err != nil {
		return nil, err
	}

	pageCount := req.PageCount
	if pageCount == 0 {
		pageCount = s.inspector.PageCount(content)
	}

	report := &models.Report{
		ID:            common.NewReportID(),
		CompanyName:   req.CompanyName,
		ReportType:    req.ReportType,
		Title:         req.Title,
		SourceURL:     req.SourceURL,
		DownloadURL:   req.DownloadURL,
		FilePath:      filePath,
		FileSize:      fileSize,
		FiscalQuarter: req.FiscalQuarter,
		FiscalYear:    req.FiscalYear,
		PublishedDate: req.PublishedDate,
		Region:        req.Region,
		Sector:        req.Sector,
		PageCount:     pageCount,
		Language:      req.Language,
		RequiredOCR:   req.RequiredOCR,
		ExtractedText: req.ExtractedText,
		Status:        models.StatusIngested,
	}

	if err := s.reports.SaveReport(ctx, report); err != nil {
		// A concurrent ingest won the insert; remove the orphaned file
		if delErr := s.files.Delete(filePath); delErr != nil {
			s.logger.Warn().Err(delErr).Str("file_path", filePath).Msg("Failed to remove orphaned document")
		}
		return nil, err
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("company", report.CompanyName).
		Str("file_path", filePath).
		Int64("file_size", fileSize).
		Msg("Report ingested")

	// Bypass path: a caller-supplied analysis is persisted directly and the
	// worker skips generation.
	if req.Analysis != nil {
		if err := s.persistProvidedAnalysis(ctx, report.ID, req.Analysis); err != nil {
			return nil, err
		}
	}

	s.triggerProcessing(ctx, report)

	return report, nil
}

// Update replaces the mutable fields of an existing report. Updates never
// re-trigger background processing.
func (s *Service) Update(ctx context.Context, reportID string, req *models.UpdateRequest) (*models.Report, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		report.Title = req.Title
	}
	if req.FiscalQuarter != "" {
		report.FiscalQuarter = req.FiscalQuarter
	}
	if req.FiscalYear != 0 {
		report.FiscalYear = req.FiscalYear
	}
	if req.PublishedDate != nil {
		report.PublishedDate = req.PublishedDate
	}
	if req.Region != "" {
		report.Region = req.Region
	}
	if req.Sector != "" {
		report.Sector = req.Sector
	}
	if req.ExtractedText != "" {
		report.ExtractedText = req.ExtractedText
	}
	if req.PageCount != 0 {
		report.PageCount = req.PageCount
	}
	if req.Language != "" {
		report.Language = req.Language
	}

	if err := s.reports.UpdateReport(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info().Str("report_id", report.ID).Msg("Report updated")
	return report, nil
}

// Reprocess re-queues an existing report for a fresh analysis run.
// Terminal reports re-enter the pipeline; the worker moves them back to
// Processing when it picks the message up.
func (s *Service) Reprocess(ctx context.Context, reportID string) error {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return err
	}

	if strings.TrimSpace(report.ExtractedText) == "" {
		return fmt.Errorf("report %s has no extracted text to process", reportID)
	}

	if err := s.queue.Enqueue(ctx, models.QueueMessage{
		ReportID: report.ID,
		Type:     models.MessageTypeProcessReport,
	}); err != nil {
		return fmt.Errorf("failed to enqueue reprocessing for report %s: %w", reportID, err)
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("status", string(report.Status)).
		Msg("Report queued for reprocessing")
	return nil
}

// Delete removes a report, its stored document, and all owned entities
func (s *Service) Delete(ctx context.Context, reportID string) error {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return err
	}

	if report.FilePath != "" {
		if err := s.files.Delete(report.FilePath); err != nil {
			s.logger.Warn().Err(err).Str("file_path", report.FilePath).Msg("Failed to delete stored document")
		}
	}

	if err := s.reports.DeleteReport(ctx, reportID); err != nil {
		return err
	}

	s.logger.Info().Str("report_id", reportID).Msg("Report deleted")
	return nil
}

// resolveContent obtains the document bytes. Inline base64 content takes
// precedence over a download URL; having neither is an error.
func (s *Service) resolveContent(ctx context.Context, req *models.IngestRequest) ([]byte, error) {
	if req.ContentBase64 != "" {
		content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 document content: %w", err)
		}
		if len(content) == 0 {
			return nil, fmt.Errorf("base64 document content is empty")
		}
		return content, nil
	}

	if req.DownloadURL != "" {
		content, err := s.downloader.Download(ctx, req.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}
		return content, nil
	}

	return nil, fmt.Errorf("ingest request must carry content_base64 or download_url")
}

// storeDocument writes the document under a safe name derived from the
// title, disambiguating with a timestamp when the name is taken.
func (s *Service) storeDocument(req *models.IngestRequest, content []byte) (string, int64, error) {
	subfolder := common.SafeFolderName(req.CompanyName)
	fileName := common.SafeFileName(req.Title, "pdf", s.maxFileNameLen)

	if s.files.Exists(subfolder + "/" + fileName) {
		fileName = common.DisambiguateFileName(fileName, time.Now())
	}

	path, size, err := s.files.Save(bytes.NewReader(content), fileName, subfolder)
	if err != nil {
		return "", 0, fmt.Errorf("failed to store document: %w", err)
	}
	return path, size, nil
}

// persistProvidedAnalysis upserts a caller-supplied analysis payload
func (s *Service) persistProvidedAnalysis(ctx context.Context, reportID string, result *models.AnalysisResult) error {
	analysis := &models.Analysis{
		ID:       common.NewAnalysisID(),
		ReportID: reportID,
	}
	analysis.FromResult(result)
	if analysis.Model == "" {
		analysis.Model = "external"
	}

	if err := s.analyses.UpsertAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to persist provided analysis: %w", err)
	}

	s.logger.Info().
		Str("report_id", reportID).
		Msg("Caller-supplied analysis persisted")
	return nil
}

// triggerProcessing enqueues a processing message when the report carries
// extracted text. The trigger is fire-and-forget: a queue failure is
// logged and the ingest still succeeds, since reprocessing can recover.
func (s *Service) triggerProcessing(ctx context.Context, report *models.Report) {
	if strings.TrimSpace(report.ExtractedText) == "" {
		s.logger.Debug().
			Str("report_id", report.ID).
			Msg("No extracted text, skipping processing trigger")
		return
	}

	if err := s.queue.Enqueue(ctx, models.QueueMessage{
		ReportID: report.ID,
		Type:     models.MessageTypeProcessReport,
	}); err != nil {
		s.logger.Error().
			Err(err).
			Str("report_id", report.ID).
			Msg("Failed to enqueue report processing")
		return
	}

	s.logger.Debug().
		Str("report_id", report.ID).
		Msg("Report queued for processing")
}
