package models

import "time"

// IngestRequest is the payload accepted by the ingestion coordinator.
// Exactly one of ContentBase64 or DownloadURL must carry the document
// bytes. Analysis is an optional pre-computed payload from an external
// producer; when present the coordinator persists it directly instead of
// invoking the analysis generator (bypass path).
type IngestRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	ReportType  string `json:"report_type" validate:"required"`
	Title       string `json:"title" validate:"required"`
	SourceURL   string `json:"source_url" validate:"required,url"`
	DownloadURL string `json:"download_url,omitempty" validate:"omitempty,url"`

	// Inline document bytes, base64-encoded. Takes precedence over
	// DownloadURL when both are present.
	ContentBase64 string `json:"content_base64,omitempty"`

	FiscalQuarter string     `json:"fiscal_quarter,omitempty" validate:"omitempty,oneof=Q1 Q2 Q3 Q4"`
	FiscalYear    int        `json:"fiscal_year,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Region        string     `json:"region,omitempty"`
	Sector        string     `json:"sector,omitempty"`

	ExtractedText string `json:"extracted_text,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
	Language      string `json:"language,omitempty"`
	RequiredOCR   bool   `json:"required_ocr,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	Analysis *AnalysisResult `json:"analysis,omitempty"`
}

// UpdateRequest carries the mutable fields replaced on re-ingestion of an
// existing report. Updates never re-trigger background processing.
type UpdateRequest struct {
	Title         string     `json:"title,omitempty"`
	FiscalQuarter string     `json:"fiscal_quarter,omitempty"`
	FiscalYear    int        `json:"fiscal_year,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Region        string     `json:"region,omitempty"`
	Sector        string     `json:"sector,omitempty"`
	ExtractedText string     `json:"extracted_text,omitempty"`
	PageCount     int        `json:"page_count,omitempty"`
	Language      string     `json:"language,omitempty"`
}
