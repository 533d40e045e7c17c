package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

gemini:
  api_key: "test-api-key"
  model: "gemini-3-pro-preview"
  timeout_seconds: 45

bedrock:
  enabled: true
  model_id: "anthropic.claude-3-haiku-20240307-v1:0"

redis:
  addr: "localhost:6379"

tour:
  step_delay_ms: 250
  fallback_delay_ms: 2000
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "test-api-key", cfg.Gemini.APIKey)
	assert.Equal(t, 45, cfg.Gemini.TimeoutSeconds)
	assert.True(t, cfg.Bedrock.Enabled)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", cfg.Bedrock.ModelID)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 250, cfg.Tour.StepDelayMS)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "gemini-3-pro-preview", cfg.Gemini.Model)
	assert.Equal(t, "gemini-2.5-flash-preview-tts", cfg.Gemini.TTSModel)
	assert.Equal(t, "Kore", cfg.Gemini.Voice)
	assert.Equal(t, 60, cfg.Gemini.TimeoutSeconds)
	assert.Equal(t, 1500, cfg.Auth.LoginDelayMS)
	assert.Equal(t, 500, cfg.Tour.StepDelayMS)
	assert.Equal(t, 4000, cfg.Tour.FallbackDelayMS)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("gemini:\n  api_key: file-key\n"), 0644))

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}
