package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"golang.org/x/time/rate"
)

// Generator orchestrates analysis generation for a report: input
// truncation, optional chunked submission, result caching, rate limiting
// and transient-error retries. The provider analyzer only sees prepared
// text.
type Generator struct {
	analyzer interfaces.DocumentAnalyzer
	cache    *Cache
	limiter  *rate.Limiter
	logger   arbor.ILogger

	maxInputChars int
	streaming     bool
	chunkSize     int
	maxRetries    int
	retryDelay    time.Duration
}

// NewGenerator creates a generator around a provider analyzer. The cache
// is injected so tests can control expiry; pass nil to disable caching.
func NewGenerator(analyzer interfaces.DocumentAnalyzer, config *common.AnalysisConfig, cache *Cache, logger arbor.ILogger) *Generator {
	maxInputChars := config.MaxInputChars
	if maxInputChars <= 0 {
		maxInputChars = 32000
	}
	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4000
	}

	ratePerSecond := config.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	burst := config.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Generator{
		analyzer:      analyzer,
		cache:         cache,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:        logger,
		maxInputChars: maxInputChars,
		streaming:     config.Streaming,
		chunkSize:     chunkSize,
		maxRetries:    config.MaxRetries,
		retryDelay:    common.MustDuration(config.RetryDelay, 5*time.Second),
	}
}

// Generate produces an analysis result for a report. Empty text is an
// error; callers gate on extracted text before reaching here.
func (g *Generator) Generate(ctx context.Context, report *models.Report) (*models.AnalysisResult, error) {
	text := strings.TrimSpace(report.ExtractedText)
	if text == "" {
		return nil, fmt.Errorf("report %s has no extracted text to analyze", report.ID)
	}

	if len(text) > g.maxInputChars {
		g.logger.Info().
			Str("report_id", report.ID).
			Int("original_length", len(text)).
			Int("truncated_length", g.maxInputChars).
			Msg("Truncating report text for analysis")
		text = text[:g.maxInputChars]
	}

	cacheKey := CacheKey(text, report.CompanyName, report.ReportType)
	if g.cache != nil {
		if cached := g.cache.Get(cacheKey); cached != nil {
			g.logger.Debug().
				Str("report_id", report.ID).
				Msg("Analysis served from cache")
			return cached, nil
		}
	}

	var result *models.AnalysisResult
	var err error
	if g.streaming {
		result, err = g.generateChunked(ctx, report, text)
	} else {
		result, err = g.generateOnce(ctx, report, text)
	}
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		g.cache.Put(cacheKey, result)
	}

	return result, nil
}

// generateOnce submits the full prepared text in a single call
func (g *Generator) generateOnce(ctx context.Context, report *models.Report, text string) (*models.AnalysisResult, error) {
	var result *models.AnalysisResult

	err := withRetry(ctx, g.maxRetries, g.retryDelay, g.logger, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		var callErr error
		result, callErr = g.analyzer.Analyze(ctx, text, report.CompanyName, report.ReportType)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("analysis generation failed for report %s: %w", report.ID, err)
	}

	return result, nil
}

// generateChunked submits the text in fixed-size chunks and keeps the
// last successful result. Later chunks carry the closing sections of a
// report, which dominate the narrative synthesis.
func (g *Generator) generateChunked(ctx context.Context, report *models.Report, text string) (*models.AnalysisResult, error) {
	chunks := splitChunks(text, g.chunkSize)

	g.logger.Debug().
		Str("report_id", report.ID).
		Int("chunks", len(chunks)).
		Int("chunk_size", g.chunkSize).
		Msg("Submitting analysis in chunks")

	var last *models.AnalysisResult
	for i, chunk := range chunks {
		result, err := g.generateOnce(ctx, report, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d failed: %w", i+1, len(chunks), err)
		}
		last = result
	}

	if last == nil {
		return nil, fmt.Errorf("no chunks produced a result for report %s", report.ID)
	}
	return last, nil
}

// splitChunks divides text into chunkSize-character pieces
func splitChunks(text string, chunkSize int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/chunkSize+1)
	for start := 0; start < len(text); start += chunkSize {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
