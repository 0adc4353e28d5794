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

// ErrAnalysisNotFound is returned when a report has no analysis row
var ErrAnalysisNotFound = models.ErrAnalysisNotFound

// AnalysisStorage implements the AnalysisStorage interface for Badger.
// The analysis row is keyed by report ID, so the store-level Upsert is the
// atomic update-or-insert the pipeline relies on under concurrent
// regeneration.
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AnalysisStorage) UpsertAnalysis(ctx context.Context, analysis *models.Analysis) error {
	if analysis.ReportID == "" {
		return fmt.Errorf("analysis report ID is required")
	}
	if analysis.ID == "" {
		return fmt.Errorf("analysis ID is required")
	}

	now := time.Now()

	// Preserve identity and creation time of an existing row so repeated
	// generations replace content, not lineage.
	var existing models.Analysis
	if err := s.db.Store().Get(analysis.ReportID, &existing); err == nil {
		analysis.ID = existing.ID
		analysis.CreatedAt = existing.CreatedAt
	} else if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now

	if err := s.db.Store().Upsert(analysis.ReportID, analysis); err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}
	return nil
}

func (s *AnalysisStorage) GetAnalysisByReport(ctx context.Context, reportID string) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := s.db.Store().Get(reportID, &analysis); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

func (s *AnalysisStorage) DeleteAnalysisByReport(ctx context.Context, reportID string) error {
	if err := s.db.Store().Delete(reportID, &models.Analysis{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

func (s *AnalysisStorage) CountAnalyses(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Analysis{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return int(count), nil
}
