package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "specto.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()

	require.NoError(t, err)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "claude", config.Analysis.Provider)
	assert.Equal(t, 32000, config.Analysis.MaxInputChars)
	assert.Equal(t, "60s", config.Ingest.DownloadTimeout)
	assert.Equal(t, "24h", config.Analysis.CacheTTL)
	assert.False(t, config.Scheduler.Enabled)
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment = "production"

[analysis]
provider = "gemini"
max_retries = 5
`)

	config, err := LoadFromFiles(path)

	require.NoError(t, err)
	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "gemini", config.Analysis.Provider)
	assert.Equal(t, 5, config.Analysis.MaxRetries)
	// Untouched values keep their defaults
	assert.Equal(t, "5s", config.Analysis.RetryDelay)
	assert.True(t, config.IsProduction())
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	first := writeConfig(t, `environment = "staging"`)
	second := writeConfig(t, `environment = "production"`)

	config, err := LoadFromFiles(first, second)

	require.NoError(t, err)
	assert.Equal(t, "production", config.Environment)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	t.Setenv("SPECTO_ANALYSIS_PROVIDER", "gemini")

	path := writeConfig(t, `
[analysis]
provider = "claude"
`)

	config, err := LoadFromFiles(path)

	require.NoError(t, err)
	assert.Equal(t, "gemini", config.Analysis.Provider)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/specto.toml")
	assert.Error(t, err)
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	config := NewDefaultConfig()
	config.Analysis.Provider = "gpt"

	assert.Error(t, config.Validate())
}

func TestValidate_RejectsBadDuration(t *testing.T) {
	config := NewDefaultConfig()
	config.Analysis.CacheTTL = "one day"

	assert.Error(t, config.Validate())
}

func TestValidate_RejectsBadScheduleOnlyWhenEnabled(t *testing.T) {
	config := NewDefaultConfig()
	config.Scheduler.Schedule = "not a cron"

	assert.NoError(t, config.Validate())

	config.Scheduler.Enabled = true
	assert.Error(t, config.Validate())
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 */6 * * *"))
	assert.Error(t, ValidateSchedule(""))
	assert.Error(t, ValidateSchedule("every six hours"))
}

func TestMustDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, MustDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, MustDuration("bogus", time.Minute))
}
