package analyzer

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
)

// NewAnalyzer builds the configured provider's document analyzer
func NewAnalyzer(config *common.Config, logger arbor.ILogger) (interfaces.DocumentAnalyzer, error) {
	switch config.Analysis.Provider {
	case "claude":
		return NewClaudeAnalyzer(&config.Claude, logger)
	case "gemini":
		return NewGeminiAnalyzer(&config.Gemini, logger)
	default:
		return nil, fmt.Errorf("unknown analysis provider '%s': must be 'claude' or 'gemini'", config.Analysis.Provider)
	}
}
