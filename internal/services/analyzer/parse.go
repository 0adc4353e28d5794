package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/specto/internal/models"
)

// parseResult extracts an AnalysisResult from raw model output. Models
// wrap JSON in markdown fences or prose despite instructions, so the
// parser strips fences first and then falls back to the outermost brace
// pair. Unparseable output is a hard error so a malformed analysis is
// never persisted.
func parseResult(raw string) (*models.AnalysisResult, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, fmt.Errorf("empty analyzer response")
	}

	if fenced := stripFences(candidate); fenced != "" {
		candidate = fenced
	} else if start := strings.Index(candidate, "{"); start >= 0 {
		end := strings.LastIndex(candidate, "}")
		if end > start {
			candidate = candidate[start : end+1]
		}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analyzer response as JSON: %w", err)
	}

	if result.ExecutiveSummary == "" {
		return nil, fmt.Errorf("analyzer response is missing executive_summary")
	}

	result.SentimentScore = clamp01(result.SentimentScore)
	result.Confidence = clamp01(result.Confidence)
	if result.SentimentLabel == "" {
		result.SentimentLabel = "Neutral"
	}

	return &result, nil
}

// stripFences returns the content of the first markdown code fence, or ""
func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}

	rest := s[start+3:]
	// Drop an optional language tag like "json"
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "json" || firstLine == "" {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
