package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// ClaudeAnalyzer implements DocumentAnalyzer using the Anthropic API
type ClaudeAnalyzer struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
}

var _ interfaces.DocumentAnalyzer = (*ClaudeAnalyzer)(nil)

// NewClaudeAnalyzer creates a Claude-backed document analyzer
func NewClaudeAnalyzer(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid claude timeout '%s': %w", config.Timeout, err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Msg("Claude analyzer initialized")

	return &ClaudeAnalyzer{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Analyze submits the report text and returns the structured result
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, text, companyName, reportType string) (*models.AnalysisResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	maxTokens := a.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(buildUserPrompt(text, companyName, reportType)),
			),
		},
		System: []anthropic.TextBlockParam{
			{Text: buildSystemPrompt(reportType)},
		},
	}
	if a.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(a.config.Temperature))
	}

	startTime := time.Now()
	resp, err := a.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Claude API")
	}

	result, err := parseResult(response.String())
	if err != nil {
		return nil, err
	}
	result.Model = a.config.Model

	a.logger.Debug().
		Str("model", a.config.Model).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude analysis completed")

	return result, nil
}

// IsAvailable reports whether the analyzer is configured for use
func (a *ClaudeAnalyzer) IsAvailable() bool {
	return a.config.APIKey != ""
}

// Close releases the client
func (a *ClaudeAnalyzer) Close() error {
	a.client = anthropic.Client{}
	return nil
}
