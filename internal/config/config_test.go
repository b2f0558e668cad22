package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"VALIDATOR_LOG_LEVEL":      "DEBUG",
		"VALIDATOR_LOG_PRETTY":     "false",
		"VALIDATOR_MAX_CONCURRENT": "3",
		"VALIDATOR_EXPORT_DSN":     "report.db",
	}

	cfg := FromEnv(func(k string) string { return env[k] })

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Equal(t, "report.db", cfg.ExportDSN)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "phi3-mini", cfg.Model)
}

func TestFromEnvDisablesModel(t *testing.T) {
	cfg := FromEnv(func(k string) string {
		if k == "VALIDATOR_MODEL" {
			return "none"
		}
		return ""
	})
	assert.Empty(t, cfg.Model)
	assert.Empty(t, cfg.EmbeddingModel)
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	env := map[string]string{
		"VALIDATOR_LOG_PRETTY":     "sometimes",
		"VALIDATOR_MAX_CONCURRENT": "-2",
	}

	cfg := FromEnv(func(k string) string { return env[k] })

	assert.Equal(t, Default(), cfg)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	assert.NoError(t, os.WriteFile(path, []byte("VALIDATOR_HTTP_ADDR=:9191\n"), 0o600))
	t.Setenv("VALIDATOR_HTTP_ADDR", "")
	os.Unsetenv("VALIDATOR_HTTP_ADDR")

	cfg, found := Load(path)

	assert.True(t, found)
	assert.Equal(t, ":9191", cfg.HTTPAddr)

	_, found = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.False(t, found)
}
