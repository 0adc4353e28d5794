// Package pdf provides lightweight PDF inspection for ingested documents.
// Uses pdfcpu for Go-native PDF processing.
package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// Inspector reads document metadata from raw PDF bytes
type Inspector struct {
	logger arbor.ILogger
	conf   *model.Configuration
}

// NewInspector creates a PDF inspector
func NewInspector(logger arbor.ILogger) *Inspector {
	return &Inspector{
		logger: logger,
		conf:   model.NewDefaultConfiguration(),
	}
}

// PageCount returns the number of pages in a PDF document. Inspection is
// best-effort: malformed or non-PDF content returns 0, never an error, so
// ingestion proceeds without the page count.
func (i *Inspector) PageCount(content []byte) int {
	if len(content) == 0 {
		return 0
	}

	count, err := api.PageCount(bytes.NewReader(content), i.conf)
	if err != nil {
		i.logger.Debug().
			Err(err).
			Int("content_size", len(content)).
			Msg("Failed to read PDF for page count")
		return 0
	}

	return count
}
