package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"metadata-validator/internal/config"
	"metadata-validator/internal/logger"
	"metadata-validator/internal/metrics"
	"metadata-validator/internal/server"
	"metadata-validator/internal/service"
)

var version = "dev"

func main() {
	cfg, foundEnv := config.Load()

	addr := flag.String("addr", cfg.HTTPAddr, "Listen address")
	ollamaHost := flag.String("ollama", cfg.OllamaHost, "Ollama host (default uses OLLAMA_HOST env var)")
	model := flag.String("model", cfg.Model, "Ollama model for reference descriptions (empty disables validation)")
	embeddingModel := flag.String("embedding-model", cfg.EmbeddingModel, "Ollama model for semantic description matching")
	exportDSN := flag.String("db", cfg.ExportDSN, "Export target: postgres:// URL or sqlite file path")
	maxUpload := flag.Int64("max-upload", server.DefaultMaxUploadBytes, "Maximum upload size in bytes")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	cfg.HTTPAddr = *addr
	cfg.OllamaHost = *ollamaHost
	cfg.Model = *model
	cfg.EmbeddingModel = *embeddingModel
	cfg.ExportDSN = *exportDSN
	cfg.LogLevel = *logLevel

	logger.InitGlobalLogger(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.GetGlobalLogger()
	if foundEnv {
		log.Debug().Msg("Loaded settings from .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.FromConfig(ctx, cfg, metrics.NewMetrics(prometheus.DefaultRegisterer), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start validator")
	}
	defer svc.Close()

	log.Info().
		Str("model", cfg.Model).
		Str("embedding_model", cfg.EmbeddingModel).
		Str("export", svc.ExportName).
		Msg("Validator configured")

	srv := server.New(svc, log)
	srv.MaxUploadBytes = *maxUpload
	srv.Version = version
	if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		stop()
		svc.Close()
		os.Exit(1)
	}
}
