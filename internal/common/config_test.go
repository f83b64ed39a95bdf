package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DOCEXTRACT_LLM_PROVIDER", "GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL",
		"QUEUE_MIN_INTERVAL", "QUEUE_MAX_IN_FLIGHT", "HTTP_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, time.Second, cfg.Queue.MinInterval)
	assert.Equal(t, 1, cfg.Queue.MaxInFlight)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "docextract.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: gemini
  api_key: from-file
  model: gemini-2.0-flash
queue:
  min_interval: 250ms
  max_in_flight: 2
`), 0o600))
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.MinInterval)
	assert.Equal(t, 2, cfg.Queue.MaxInFlight)
	require.NoError(t, cfg.Validate(true))
}

func TestLoadConfigBadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate(false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is required")

	cfg.LLM.APIKey = "k"
	cfg.Queue.MaxInFlight = 0
	cfg.Queue.MinInterval = -time.Second
	err = cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue.max_in_flight")
	assert.Contains(t, err.Error(), "queue.min_interval")

	cfg = DefaultConfig()
	cfg.LLM.Provider = ProviderVertex
	cfg.LLM.VertexProject = "proj"
	assert.NoError(t, cfg.Validate(false))

	cfg.LLM.Provider = "openai-direct"
	assert.Error(t, cfg.Validate(false))
}
