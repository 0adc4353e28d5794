// Package alerts evaluates extracted metrics and raw report text against
// a fixed rule set. Rules are independent and order-insensitive; a report
// may produce zero to many alerts.
package alerts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/models"
)

// Rule thresholds
const (
	marginDropThreshold     = 1.0  // percentage points
	marginDropCriticalAbove = 3.0  // percentage points
	revenueDropCritical     = 10.0 // percent
	strongGrowthAbove       = 20.0 // percent, strict
	opportunityMinHits      = 3
)

// previousValuePatterns locate a "previous value" mention for margin
// comparison. The "from X% to Y%" form captures the prior value first.
var previousValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)from\s+([\d]+(?:\.\d+)?)\s*%\s+to\s+[\d]+(?:\.\d+)?\s*%`),
	regexp.MustCompile(`(?i)compared\s+to\s+([\d]+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)versus\s+([\d]+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)prior\s+period\s+of\s+([\d]+(?:\.\d+)?)\s*%`),
}

// revenueDeclinePatterns locate explicit revenue decline phrasing
var revenueDeclinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)revenues?\s+(?:declined|decreased|fell|dropped)\s+(?:by\s+)?([\d]+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)([\d]+(?:\.\d+)?)\s*%\s+(?:decline|decrease|drop)\s+in\s+revenues?`),
}

// Risk keyword buckets. Any hit in a bucket emits one alert per bucket.
var riskBuckets = []struct {
	alertType models.AlertType
	severity  models.AlertSeverity
	title     string
	keywords  []string
}{
	{
		alertType: models.AlertCriticalRisk,
		severity:  models.SeverityCritical,
		title:     "Critical risk keywords detected",
		keywords:  []string{"lawsuit", "bankruptcy", "default", "breach", "hack"},
	},
	{
		alertType: models.AlertOperationalRisk,
		severity:  models.SeverityHigh,
		title:     "Operational risk keywords detected",
		keywords:  []string{"supply-chain", "supply chain", "disruption", "shortage", "delay"},
	},
	{
		alertType: models.AlertMacroRisk,
		severity:  models.SeverityMedium,
		title:     "Macro risk keywords detected",
		keywords:  []string{"inflation", "recession", "downturn", "headwind"},
	},
}

// opportunityKeywords feed the general opportunity rule; the M&A subset
// is disjoint and evaluated separately.
var opportunityKeywords = []string{
	"growth", "expansion", "innovation", "launch", "record", "milestone",
	"breakthrough", "momentum", "opportunity", "investment",
}

var mergerKeywords = []string{"acquisition", "merger", "deal", "partnership"}

// Engine evaluates alert rules against a report and its metrics
type Engine struct{}

// NewEngine creates an alert rules engine
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs every rule. Absence of text or metrics yields zero alerts
// without error. Report ID stamping is done here since every alert belongs
// to the evaluated report.
func (e *Engine) Evaluate(report *models.Report, metrics []*models.Metric) []*models.Alert {
	alerts := make([]*models.Alert, 0, 4)

	text := ""
	if report != nil {
		text = report.ExtractedText
	}
	lower := strings.ToLower(text)

	alerts = append(alerts, e.marginDropRule(text, metrics)...)
	alerts = append(alerts, e.revenueDropRule(text, metrics)...)
	alerts = append(alerts, e.riskKeywordRule(lower)...)
	alerts = append(alerts, e.opportunityRule(lower)...)
	alerts = append(alerts, e.growthRule(metrics)...)

	now := time.Now()
	reportID := ""
	if report != nil {
		reportID = report.ID
	}
	for _, alert := range alerts {
		alert.ID = common.NewAlertID()
		alert.ReportID = reportID
		alert.CreatedAt = now
	}

	return alerts
}

// marginDropRule compares each margin metric with a previous value
// mentioned in the text and alerts when the drop exceeds 1.0pp.
func (e *Engine) marginDropRule(text string, metrics []*models.Metric) []*models.Alert {
	var alerts []*models.Alert

	for _, metric := range metrics {
		if !strings.Contains(metric.MetricType, "Margin") {
			continue
		}

		previous, found := findPreviousValue(text)
		if !found {
			continue
		}

		drop := previous - metric.Value
		if drop <= marginDropThreshold {
			continue
		}

		severity := models.SeverityHigh
		if drop > marginDropCriticalAbove {
			severity = models.SeverityCritical
		}

		alerts = append(alerts, &models.Alert{
			AlertType:     models.AlertMarginDrop,
			Severity:      severity,
			Title:         fmt.Sprintf("%s dropped %.1f percentage points", metric.MetricType, drop),
			Message:       fmt.Sprintf("%s declined from %.1f%% to %.1f%%", metric.MetricType, previous, metric.Value),
			TriggerMetric: metric.MetricType,
			Threshold:     marginDropThreshold,
			ActualValue:   drop,
		})
	}

	return alerts
}

// revenueDropRule alerts on explicit decline-percentage phrasing when a
// revenue metric is present.
func (e *Engine) revenueDropRule(text string, metrics []*models.Metric) []*models.Alert {
	var revenue *models.Metric
	for _, metric := range metrics {
		if metric.MetricType == models.MetricRevenue {
			revenue = metric
			break
		}
	}
	if revenue == nil {
		return nil
	}

	for _, pattern := range revenueDeclinePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		decline, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}

		severity := models.SeverityHigh
		if decline > revenueDropCritical {
			severity = models.SeverityCritical
		}

		return []*models.Alert{{
			AlertType:     models.AlertRevenueDrop,
			Severity:      severity,
			Title:         fmt.Sprintf("Revenue declined %.1f%%", decline),
			Message:       fmt.Sprintf("The report states a revenue decline of %.1f%%", decline),
			TriggerMetric: revenue.MetricType,
			ActualValue:   decline,
		}}
	}

	return nil
}

// riskKeywordRule scans lowercase text for the three risk buckets
func (e *Engine) riskKeywordRule(lower string) []*models.Alert {
	var alerts []*models.Alert

	for _, bucket := range riskBuckets {
		matched := matchKeywords(lower, bucket.keywords)
		if len(matched) == 0 {
			continue
		}

		alerts = append(alerts, &models.Alert{
			AlertType:       bucket.alertType,
			Severity:        bucket.severity,
			Title:           bucket.title,
			Message:         fmt.Sprintf("Matched keywords: %s", strings.Join(matched, ", ")),
			TriggerKeywords: matched,
		})
	}

	return alerts
}

// opportunityRule emits an Info alert on three or more distinct
// opportunity hits, and a separate High M&A alert on any merger keyword.
func (e *Engine) opportunityRule(lower string) []*models.Alert {
	var alerts []*models.Alert

	matched := matchKeywords(lower, opportunityKeywords)
	if len(matched) >= opportunityMinHits {
		alerts = append(alerts, &models.Alert{
			AlertType:       models.AlertOpportunityDetected,
			Severity:        models.SeverityInfo,
			Title:           "Opportunities identified",
			Message:         fmt.Sprintf("Matched keywords: %s", strings.Join(matched, ", ")),
			TriggerKeywords: matched,
		})
	}

	mergers := matchKeywords(lower, mergerKeywords)
	if len(mergers) > 0 {
		alerts = append(alerts, &models.Alert{
			AlertType:       models.AlertMergerAcquisition,
			Severity:        models.SeverityHigh,
			Title:           "M&A activity signals detected",
			Message:         fmt.Sprintf("Matched keywords: %s", strings.Join(mergers, ", ")),
			TriggerKeywords: mergers,
		})
	}

	return alerts
}

// growthRule alerts on any growth metric strictly above 20 percent
func (e *Engine) growthRule(metrics []*models.Metric) []*models.Alert {
	var alerts []*models.Alert

	for _, metric := range metrics {
		if !strings.Contains(metric.MetricType, "Growth") {
			continue
		}
		if metric.Value <= strongGrowthAbove {
			continue
		}

		alerts = append(alerts, &models.Alert{
			AlertType:     models.AlertStrongGrowth,
			Severity:      models.SeverityInfo,
			Title:         fmt.Sprintf("Strong growth: %.1f%%", metric.Value),
			Message:       fmt.Sprintf("%s of %.1f%% exceeds the %.0f%% threshold", metric.MetricType, metric.Value, strongGrowthAbove),
			TriggerMetric: metric.MetricType,
			Threshold:     strongGrowthAbove,
			ActualValue:   metric.Value,
		})
	}

	return alerts
}

// findPreviousValue returns the first prior-value mention in the text
func findPreviousValue(text string) (float64, bool) {
	for _, pattern := range previousValuePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return value, true
	}
	return 0, false
}

// matchKeywords returns the distinct keywords present in lowercase text
func matchKeywords(lower string, keywords []string) []string {
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched = append(matched, keyword)
		}
	}
	return matched
}
