// Package extraction parses raw report text for financial metrics using
// ordered pattern sets. Extraction is best-effort: no match means no
// metric, never an error.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/models"
)

// family groups the ordered patterns for one metric type. Patterns are
// tried in priority order and the first match wins, so one invocation
// emits at most one metric per family.
type family struct {
	metricType string
	unit       string
	confidence float64
	monetary   bool // second capture group is a billion/million scale word
	patterns   []*regexp.Regexp
}

var families = []family{
	{
		metricType: models.MetricRevenue,
		unit:       models.UnitMillion,
		confidence: 0.80,
		monetary:   true,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)revenues?\s+(?:of|was|were|at|totaled|totalled|reached|came\s+in\s+at)\s+\$?([\d,]+(?:\.\d+)?)\s*(billion|million)`),
			regexp.MustCompile(`(?i)(?:total|net)\s+revenues?\s+(?:of\s+)?\$?([\d,]+(?:\.\d+)?)\s*(billion|million)`),
			regexp.MustCompile(`(?i)\$([\d,]+(?:\.\d+)?)\s*(billion|million)\s+(?:in|of)\s+revenues?`),
		},
	},
	{
		metricType: models.MetricOperatingMargin,
		unit:       models.UnitPercent,
		confidence: 0.75,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)operating\s+margin\s+(?:of|was|at|is)\s+([\d]+(?:\.\d+)?)\s*%`),
			regexp.MustCompile(`(?i)operating\s+margin\s+(?:declined|fell|dropped|decreased|improved|expanded)\s+(?:from\s+[\d.]+%\s+)?to\s+([\d]+(?:\.\d+)?)\s*%`),
			regexp.MustCompile(`(?i)margin\s+(?:of|was|at)\s+([\d]+(?:\.\d+)?)\s*%`),
		},
	},
	{
		metricType: models.MetricRevenueGrowth,
		unit:       models.UnitPercent,
		confidence: 0.70,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)revenue\s+growth\s+of\s+([\d]+(?:\.\d+)?)\s*%`),
			regexp.MustCompile(`(?i)revenues?\s+(?:grew|increased|rose)\s+(?:by\s+)?([\d]+(?:\.\d+)?)\s*%`),
			regexp.MustCompile(`(?i)([\d]+(?:\.\d+)?)\s*%\s+(?:yoy|year[\s-]over[\s-]year)\s+(?:revenue\s+)?growth`),
		},
	},
	{
		metricType: models.MetricEBITDA,
		unit:       models.UnitMillion,
		confidence: 0.75,
		monetary:   true,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ebitda\s+(?:of|was|at|reached)\s+\$?([\d,]+(?:\.\d+)?)\s*(billion|million)`),
			regexp.MustCompile(`(?i)\$([\d,]+(?:\.\d+)?)\s*(billion|million)\s+(?:in|of)\s+ebitda`),
		},
	},
}

// periodPattern captures the reporting period as stated in the text
var periodPattern = regexp.MustCompile(`(?i)(Q[1-4]\s+20\d{2}|FY\s?20\d{2}|fiscal\s+(?:year\s+)?20\d{2}|full\s+year\s+20\d{2})`)

const maxSnippetLen = 200

// Engine extracts metrics from raw report text
type Engine struct{}

// NewEngine creates a pattern extraction engine
func NewEngine() *Engine {
	return &Engine{}
}

// Extract parses text for known metric families. It is a pure function:
// missing or unmatchable text yields an empty slice, never an error.
// Report ID assignment is left to the caller.
func (e *Engine) Extract(text string) []*models.Metric {
	metrics := make([]*models.Metric, 0, len(families))

	if strings.TrimSpace(text) == "" {
		return metrics
	}

	period := ""
	if m := periodPattern.FindString(text); m != "" {
		period = strings.Join(strings.Fields(m), " ")
	}

	now := time.Now()

	for _, fam := range families {
		for _, pattern := range fam.patterns {
			match := pattern.FindStringSubmatch(text)
			if match == nil {
				continue
			}

			value, ok := parseValue(match[1])
			if !ok {
				continue
			}

			if fam.monetary && strings.EqualFold(match[2], "billion") {
				value *= 1000 // normalize to millions
			}

			metrics = append(metrics, &models.Metric{
				ID:          common.NewMetricID(),
				MetricType:  fam.metricType,
				Value:       value,
				Unit:        fam.unit,
				Period:      period,
				Confidence:  fam.confidence,
				Method:      models.ExtractionMethodPattern,
				SourceText:  snippet(match[0]),
				ExtractedAt: now,
			})
			break // first match wins per family
		}
	}

	return metrics
}

// parseValue parses a numeric string, stripping stray thousands separators
func parseValue(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func snippet(s string) string {
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen]
	}
	return s
}
