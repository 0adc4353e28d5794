package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Storage     StorageConfig   `toml:"storage"`
	Queue       QueueConfig     `toml:"queue"`
	Logging     LoggingConfig   `toml:"logging"`
	Ingest      IngestConfig    `toml:"ingest"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Files  FilesConfig  `toml:"files"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FilesConfig configures the document file store
type FilesConfig struct {
	Root string `toml:"root"` // Storage root; saved paths may not escape it
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`      // e.g. "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency"`        // Number of concurrent workers
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g. "5m" - message visibility timeout for redelivery
	MaxReceive        int    `toml:"max_receive"`        // Max times a message can be received before drop
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// IngestConfig controls document resolution during ingestion
type IngestConfig struct {
	DownloadTimeout string `toml:"download_timeout"` // e.g. "60s" - bound on download URL fetches
	MaxFileNameLen  int    `toml:"max_file_name_len"`
}

// AnalysisConfig controls the analysis generator
type AnalysisConfig struct {
	Provider       string  `toml:"provider"`        // "claude" or "gemini"
	MaxInputChars  int     `toml:"max_input_chars"` // truncation cap before submission
	Streaming      bool    `toml:"streaming"`       // chunked submission mode
	ChunkSize      int     `toml:"chunk_size"`      // chars per chunk in streaming mode
	MaxRetries     int     `toml:"max_retries"`     // attempts including the first
	RetryDelay     string  `toml:"retry_delay"`     // fixed inter-attempt delay
	PersistRetries int     `toml:"persist_retries"` // upsert attempts including the first
	PersistDelay   string  `toml:"persist_delay"`
	CacheEnabled   bool    `toml:"cache_enabled"`
	CacheTTL       string  `toml:"cache_ttl"`       // e.g. "24h"
	CacheCapacity  int     `toml:"cache_capacity"`  // max cached results
	RatePerSecond  float64 `toml:"rate_per_second"` // analyzer API call rate limit
	RateBurst      int     `toml:"rate_burst"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// SchedulerConfig controls the failed-report re-run sweep
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`  // cron format
	MaxBatch int    `toml:"max_batch"` // max reports re-enqueued per sweep
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/specto.db",
			},
			Files: FilesConfig{
				Root: "./data/files",
			},
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       4,
			VisibilityTimeout: "5m",
			MaxReceive:        3,
			QueueName:         "processing",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Ingest: IngestConfig{
			DownloadTimeout: "60s",
			MaxFileNameLen:  80,
		},
		Analysis: AnalysisConfig{
			Provider:       "claude",
			MaxInputChars:  32000,
			Streaming:      false,
			ChunkSize:      4000,
			MaxRetries:     3,
			RetryDelay:     "5s",
			PersistRetries: 3,
			PersistDelay:   "2s",
			CacheEnabled:   true,
			CacheTTL:       "24h",
			CacheCapacity:  256,
			RatePerSecond:  1,
			RateBurst:      2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "120s",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "120s",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 */6 * * *",
			MaxBatch: 20,
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variables on top of file config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SPECTO_ENVIRONMENT"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("SPECTO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SPECTO_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("SPECTO_FILES_ROOT"); v != "" {
		config.Storage.Files.Root = v
	}
	if v := os.Getenv("SPECTO_ANALYSIS_PROVIDER"); v != "" {
		config.Analysis.Provider = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("SPECTO_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("SPECTO_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("SPECTO_QUEUE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Queue.Concurrency = n
		}
	}
}

// Validate checks cross-field constraints that TOML parsing cannot express
func (c *Config) Validate() error {
	if c.Analysis.Provider != "claude" && c.Analysis.Provider != "gemini" {
		return fmt.Errorf("invalid analysis provider '%s': must be 'claude' or 'gemini'", c.Analysis.Provider)
	}
	if c.Queue.Concurrency <= 0 {
		return fmt.Errorf("queue concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	for _, d := range []struct {
		name  string
		value string
	}{
		{"queue.poll_interval", c.Queue.PollInterval},
		{"queue.visibility_timeout", c.Queue.VisibilityTimeout},
		{"ingest.download_timeout", c.Ingest.DownloadTimeout},
		{"analysis.retry_delay", c.Analysis.RetryDelay},
		{"analysis.persist_delay", c.Analysis.PersistDelay},
		{"analysis.cache_ttl", c.Analysis.CacheTTL},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %q", d.name, d.value)
		}
	}
	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler schedule: %w", err)
		}
	}
	return nil
}

// ValidateSchedule checks a cron expression using the standard 5-field parser
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("failed to parse cron schedule %q: %w", schedule, err)
	}
	return nil
}

// IsProduction reports whether the config targets a production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MustDuration parses a duration string that Validate has already checked.
// Falls back to the provided default on parse failure.
func MustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
