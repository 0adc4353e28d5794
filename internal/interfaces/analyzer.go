package interfaces

import (
	"context"

	"github.com/ternarybob/specto/internal/models"
)

// DocumentAnalyzer is the external document-analysis capability.
// Implementations call a hosted model API and return a structured result.
type DocumentAnalyzer interface {
	// Analyze produces a narrative analysis of the given report text.
	Analyze(ctx context.Context, text, companyName, reportType string) (*models.AnalysisResult, error)

	// IsAvailable reports whether the analyzer is configured and usable.
	IsAvailable() bool

	// Close releases provider resources.
	Close() error
}
