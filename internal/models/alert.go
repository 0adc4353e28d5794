package models

import "time"

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertMarginDrop          AlertType = "margin_drop"
	AlertRevenueDrop         AlertType = "revenue_drop"
	AlertCriticalRisk        AlertType = "critical_risk"
	AlertOperationalRisk     AlertType = "operational_risk"
	AlertMacroRisk           AlertType = "macro_risk"
	AlertOpportunityDetected AlertType = "opportunity_detected"
	AlertMergerAcquisition   AlertType = "merger_acquisition"
	AlertStrongGrowth        AlertType = "strong_growth"
)

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityInfo     AlertSeverity = "info"
)

// Alert is a rule-triggered notification about a risk, opportunity or
// anomaly found in a report. Alerts are created by the rules engine and
// never updated.
type Alert struct {
	ID       string `json:"id" badgerhold:"key"` // alt_{uuid}
	ReportID string `json:"report_id" badgerhold:"index"`

	AlertType AlertType     `json:"alert_type"`
	Severity  AlertSeverity `json:"severity"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`

	// Optional trigger context
	TriggerMetric   string   `json:"trigger_metric,omitempty"`
	TriggerKeywords []string `json:"trigger_keywords,omitempty"`
	Threshold       float64  `json:"threshold,omitempty"`
	ActualValue     float64  `json:"actual_value,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
