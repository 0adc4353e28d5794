package models

import "time"

// AnalysisResult is the structured output of a document analyzer call.
// It is the provider-agnostic shape shared by the generated path and the
// bypass path (a caller-supplied payload on the ingestion request).
type AnalysisResult struct {
	ExecutiveSummary     string   `json:"executive_summary"`
	KeyHighlights        []string `json:"key_highlights"`
	StrategicInitiatives []string `json:"strategic_initiatives"`
	MarketOutlook        string   `json:"market_outlook"`
	RiskFactors          []string `json:"risk_factors"`
	CompetitivePosition  string   `json:"competitive_position"`
	InvestmentThesis     string   `json:"investment_thesis"`
	SentimentScore       float64  `json:"sentiment_score"` // 0..1
	SentimentLabel       string   `json:"sentiment_label"` // Positive/Negative/Neutral
	Confidence           float64  `json:"confidence"`
	Model                string   `json:"model,omitempty"`
}

// Analysis is the persisted AI-generated narrative synthesis for a report.
// At most one Analysis exists per report; regeneration replaces it through
// an idempotent upsert keyed by ReportID.
type Analysis struct {
	ID       string `json:"id"` // ana_{uuid}
	ReportID string `json:"report_id" badgerhold:"key"`

	ExecutiveSummary     string   `json:"executive_summary"`
	KeyHighlights        []string `json:"key_highlights"`
	StrategicInitiatives []string `json:"strategic_initiatives"`
	MarketOutlook        string   `json:"market_outlook"`
	RiskFactors          []string `json:"risk_factors"`
	CompetitivePosition  string   `json:"competitive_position"`
	InvestmentThesis     string   `json:"investment_thesis"`

	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
	Confidence     float64 `json:"confidence"`

	Model              string        `json:"model"`
	ProcessingDuration time.Duration `json:"processing_duration"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromResult fills the narrative fields of an Analysis from an analyzer
// result, leaving identity and timestamps to the caller.
func (a *Analysis) FromResult(result *AnalysisResult) {
	a.ExecutiveSummary = result.ExecutiveSummary
	a.KeyHighlights = result.KeyHighlights
	a.StrategicInitiatives = result.StrategicInitiatives
	a.MarketOutlook = result.MarketOutlook
	a.RiskFactors = result.RiskFactors
	a.CompetitivePosition = result.CompetitivePosition
	a.InvestmentThesis = result.InvestmentThesis
	a.SentimentScore = result.SentimentScore
	a.SentimentLabel = result.SentimentLabel
	a.Confidence = result.Confidence
	if result.Model != "" {
		a.Model = result.Model
	}
}
