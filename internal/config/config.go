package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the validator commands. Command line flags
// override these values.
type Config struct {
	LogLevel  string
	LogPretty bool

	HTTPAddr string

	OllamaHost string

	// Model generates reference descriptions; empty disables validation
	Model string

	// EmbeddingModel enables semantic description matching; empty uses lexical matching
	EmbeddingModel string
	MaxConcurrent  int

	// ExportDSN is a postgres:// URL or a sqlite file path; empty disables export
	ExportDSN string
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		LogLevel:      "info",
		LogPretty:     true,
		HTTPAddr:      ":8080",
		Model:         "phi3-mini",
		MaxConcurrent: max(1, runtime.NumCPU()/2),
	}
}

// Load reads an optional .env file and then the VALIDATOR_* environment
// variables on top of the defaults. It reports whether a .env file was found.
func Load(files ...string) (Config, bool) {
	found := godotenv.Load(files...) == nil
	return FromEnv(os.Getenv), found
}

// FromEnv applies environment overrides using the given lookup
func FromEnv(getenv func(string) string) Config {
	cfg := Default()

	if v := getenv("VALIDATOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, err := strconv.ParseBool(getenv("VALIDATOR_LOG_PRETTY")); err == nil {
		cfg.LogPretty = v
	}
	if v := getenv("VALIDATOR_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	// OLLAMA_HOST is left to the ollama client when unset here
	if v := getenv("VALIDATOR_OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	if v := getenv("VALIDATOR_MODEL"); v != "" {
		cfg.Model = v
		if strings.EqualFold(v, "none") {
			cfg.Model = ""
		}
	}
	if v := getenv("VALIDATOR_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v, err := strconv.Atoi(getenv("VALIDATOR_MAX_CONCURRENT")); err == nil && v > 0 {
		cfg.MaxConcurrent = v
	}
	if v := getenv("VALIDATOR_EXPORT_DSN"); v != "" {
		cfg.ExportDSN = v
	}
	return cfg
}
