package models

import "time"

// Metric type names as stored. The extraction engine emits at most one
// metric per type per report.
const (
	MetricRevenue         = "Revenue"
	MetricOperatingMargin = "Operating Margin"
	MetricEBITDA          = "EBITDA"
	MetricRevenueGrowth   = "Revenue Growth (YoY)"
)

// Extraction method tags. Pattern-based extraction is the only method
// implemented today; the tag keeps room for an ML-based extractor.
const (
	ExtractionMethodPattern = "pattern"
)

// Units for metric values.
const (
	UnitMillion = "Million"
	UnitPercent = "Percent"
)

// Metric is a single extracted quantitative fact tied to a report.
// Metrics are created by the extraction engine and immutable afterwards.
type Metric struct {
	ID       string `json:"id" badgerhold:"key"` // met_{uuid}
	ReportID string `json:"report_id" badgerhold:"index"`

	MetricType string  `json:"metric_type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Period     string  `json:"period,omitempty"` // reporting period as stated in the text

	Confidence float64 `json:"confidence"` // 0..1, fixed per metric family
	Method     string  `json:"method"`     // extraction method tag
	SourceText string  `json:"source_text,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
}
