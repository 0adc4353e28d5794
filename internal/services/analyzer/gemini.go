package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"google.golang.org/genai"
)

// GeminiAnalyzer implements DocumentAnalyzer using the Google Gemini API
type GeminiAnalyzer struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

var _ interfaces.DocumentAnalyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates a Gemini-backed document analyzer
func NewGeminiAnalyzer(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or gemini.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini timeout '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Msg("Gemini analyzer initialized")

	return &GeminiAnalyzer{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Analyze submits the report text and returns the structured result
func (a *GeminiAnalyzer) Analyze(ctx context.Context, text, companyName, reportType string) (*models.AnalysisResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildSystemPrompt(reportType), genai.RoleUser),
	}
	if a.config.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(a.config.Temperature)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(buildUserPrompt(text, companyName, reportType))},
		},
	}

	startTime := time.Now()
	resp, err := a.client.Models.GenerateContent(timeoutCtx, a.config.Model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, fmt.Errorf("empty text in Gemini response")
	}

	result, err := parseResult(responseText)
	if err != nil {
		return nil, err
	}
	result.Model = a.config.Model

	a.logger.Debug().
		Str("model", a.config.Model).
		Int("response_length", len(responseText)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini analysis completed")

	return result, nil
}

// IsAvailable reports whether the analyzer is configured for use
func (a *GeminiAnalyzer) IsAvailable() bool {
	return a.client != nil
}

// Close releases the client
func (a *GeminiAnalyzer) Close() error {
	a.client = nil
	return nil
}
