package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/specto/internal/models"
)

func report(text string) *models.Report {
	return &models.Report{ID: "rpt_test", ExtractedText: text}
}

func marginMetric(value float64) *models.Metric {
	return &models.Metric{
		MetricType: models.MetricOperatingMargin,
		Value:      value,
		Unit:       models.UnitPercent,
	}
}

func findAlert(alerts []*models.Alert, alertType models.AlertType) *models.Alert {
	for _, a := range alerts {
		if a.AlertType == alertType {
			return a
		}
	}
	return nil
}

func TestEvaluate_MarginDropHigh(t *testing.T) {
	engine := NewEngine()

	text := "Operating margin contracted from 18.5% to 16.2% in the quarter."
	alerts := engine.Evaluate(report(text), []*models.Metric{marginMetric(16.2)})

	alert := findAlert(alerts, models.AlertMarginDrop)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.InDelta(t, 2.3, alert.ActualValue, 0.001)
	assert.Equal(t, "rpt_test", alert.ReportID)
	assert.NotEmpty(t, alert.ID)
}

func TestEvaluate_MarginDropCriticalAboveThreePoints(t *testing.T) {
	engine := NewEngine()

	text := "Margin fell sharply compared to 22.0% in the prior year."
	alerts := engine.Evaluate(report(text), []*models.Metric{marginMetric(17.5)})

	alert := findAlert(alerts, models.AlertMarginDrop)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.InDelta(t, 4.5, alert.ActualValue, 0.001)
}

func TestEvaluate_MarginDropWithinTolerance(t *testing.T) {
	engine := NewEngine()

	// A 0.8pp drop stays below the 1.0pp threshold
	text := "Operating margin moved from 17.0% to 16.2% this quarter."
	alerts := engine.Evaluate(report(text), []*models.Metric{marginMetric(16.2)})

	assert.Nil(t, findAlert(alerts, models.AlertMarginDrop))
}

func TestEvaluate_MarginDropNeedsPreviousValue(t *testing.T) {
	engine := NewEngine()

	text := "Operating margin was 16.2% for the period."
	alerts := engine.Evaluate(report(text), []*models.Metric{marginMetric(16.2)})

	assert.Nil(t, findAlert(alerts, models.AlertMarginDrop))
}

func TestEvaluate_RevenueDropSeverities(t *testing.T) {
	engine := NewEngine()

	revenue := &models.Metric{MetricType: models.MetricRevenue, Value: 900, Unit: models.UnitMillion}

	alerts := engine.Evaluate(report("Revenue declined by 8.5% during the quarter."), []*models.Metric{revenue})
	alert := findAlert(alerts, models.AlertRevenueDrop)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityHigh, alert.Severity)

	alerts = engine.Evaluate(report("Revenue fell 14.2% on weaker demand."), []*models.Metric{revenue})
	alert = findAlert(alerts, models.AlertRevenueDrop)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.InDelta(t, 14.2, alert.ActualValue, 0.001)
}

func TestEvaluate_RevenueDropRequiresRevenueMetric(t *testing.T) {
	engine := NewEngine()

	alerts := engine.Evaluate(report("Revenue declined by 14.2%."), nil)

	assert.Nil(t, findAlert(alerts, models.AlertRevenueDrop))
}

func TestEvaluate_RiskKeywordBuckets(t *testing.T) {
	engine := NewEngine()

	text := "The company faces a lawsuit over a data breach. " +
		"Supply chain disruption continues, and inflation remains a headwind."
	alerts := engine.Evaluate(report(text), nil)

	critical := findAlert(alerts, models.AlertCriticalRisk)
	require.NotNil(t, critical)
	assert.Equal(t, models.SeverityCritical, critical.Severity)
	assert.ElementsMatch(t, []string{"lawsuit", "breach"}, critical.TriggerKeywords)

	operational := findAlert(alerts, models.AlertOperationalRisk)
	require.NotNil(t, operational)
	assert.Equal(t, models.SeverityHigh, operational.Severity)
	assert.Contains(t, operational.TriggerKeywords, "disruption")

	macro := findAlert(alerts, models.AlertMacroRisk)
	require.NotNil(t, macro)
	assert.Equal(t, models.SeverityMedium, macro.Severity)
	assert.ElementsMatch(t, []string{"inflation", "headwind"}, macro.TriggerKeywords)
}

func TestEvaluate_OneAlertPerRiskBucket(t *testing.T) {
	engine := NewEngine()

	text := "A lawsuit followed the bankruptcy filing after the hack."
	alerts := engine.Evaluate(report(text), nil)

	var criticalCount int
	for _, a := range alerts {
		if a.AlertType == models.AlertCriticalRisk {
			criticalCount++
		}
	}
	assert.Equal(t, 1, criticalCount)
}

func TestEvaluate_OpportunityRequiresThreeHits(t *testing.T) {
	engine := NewEngine()

	// Two hits only
	alerts := engine.Evaluate(report("Strong momentum and record results."), nil)
	assert.Nil(t, findAlert(alerts, models.AlertOpportunityDetected))

	// Three distinct hits
	alerts = engine.Evaluate(report("Strong momentum, record results, and product expansion."), nil)
	alert := findAlert(alerts, models.AlertOpportunityDetected)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityInfo, alert.Severity)
	assert.Len(t, alert.TriggerKeywords, 3)
}

func TestEvaluate_MergerAcquisitionIsHigh(t *testing.T) {
	engine := NewEngine()

	alerts := engine.Evaluate(report("The board approved the acquisition of a competitor."), nil)

	alert := findAlert(alerts, models.AlertMergerAcquisition)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, []string{"acquisition"}, alert.TriggerKeywords)
}

func TestEvaluate_StrongGrowthIsStrictlyAboveTwenty(t *testing.T) {
	engine := NewEngine()

	growthAt20 := &models.Metric{MetricType: models.MetricRevenueGrowth, Value: 20.0, Unit: models.UnitPercent}
	alerts := engine.Evaluate(report("steady quarter"), []*models.Metric{growthAt20})
	assert.Nil(t, findAlert(alerts, models.AlertStrongGrowth))

	growthAbove := &models.Metric{MetricType: models.MetricRevenueGrowth, Value: 20.1, Unit: models.UnitPercent}
	alerts = engine.Evaluate(report("steady quarter"), []*models.Metric{growthAbove})
	alert := findAlert(alerts, models.AlertStrongGrowth)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityInfo, alert.Severity)
	assert.Equal(t, 20.1, alert.ActualValue)
}

func TestEvaluate_EmptyInputsYieldNoAlerts(t *testing.T) {
	engine := NewEngine()

	assert.Empty(t, engine.Evaluate(report(""), nil))
	assert.Empty(t, engine.Evaluate(nil, nil))
}
