package models

import (
	"time"
)

// ProcessingStatus tracks a report through the background pipeline.
// Transitions are monotonic (Ingested -> Processing -> Complete/Failed)
// except an explicit analysis re-run, which moves a terminal report back
// into Processing.
type ProcessingStatus string

const (
	StatusIngested   ProcessingStatus = "ingested"
	StatusProcessing ProcessingStatus = "processing"
	StatusComplete   ProcessingStatus = "complete"
	StatusFailed     ProcessingStatus = "failed"
)

// IsTerminal reports whether the status is a terminal pipeline state.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Report represents one ingested source document and its metadata.
// SourceURL is globally unique across all reports.
type Report struct {
	ID          string `json:"id" badgerhold:"key"` // rpt_{uuid}
	CompanyName string `json:"company_name"`
	ReportType  string `json:"report_type"` // e.g. "Financial Report", "Technology Report"
	Title       string `json:"title"`

	// Source and stored file
	SourceURL   string `json:"source_url" badgerhold:"unique"`
	DownloadURL string `json:"download_url,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`

	// Document metadata
	FiscalQuarter string     `json:"fiscal_quarter,omitempty"` // Q1..Q4
	FiscalYear    int        `json:"fiscal_year,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Region        string     `json:"region,omitempty"`
	Sector        string     `json:"sector,omitempty"`
	PageCount     int        `json:"page_count,omitempty"`
	Language      string     `json:"language,omitempty"`
	RequiredOCR   bool       `json:"required_ocr,omitempty"`

	// Extracted content
	ExtractedText string `json:"extracted_text,omitempty"`

	// Pipeline state
	Status       ProcessingStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ReportStats represents counts of reports by pipeline state.
type ReportStats struct {
	TotalReports int                      `json:"total_reports"`
	ByStatus     map[ProcessingStatus]int `json:"by_status"`
	LastUpdated  time.Time                `json:"last_updated"`
}
