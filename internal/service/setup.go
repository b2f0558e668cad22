package service

import (
	"context"
	"fmt"

	"metadata-validator/internal/config"
	"metadata-validator/internal/database"
	"metadata-validator/internal/embedding"
	"metadata-validator/internal/llm"
	"metadata-validator/internal/logger"
	"metadata-validator/internal/metrics"
	"metadata-validator/internal/validation"
)

// FromConfig builds a service the way the commands run it: an Ollama
// generator when cfg.Model is set, embedding-based matching when
// cfg.EmbeddingModel is set, and an export target when cfg.ExportDSN is set.
func FromConfig(ctx context.Context, cfg config.Config, m *metrics.Metrics, log *logger.Logger) (*Service, error) {
	var gen validation.Generator
	if cfg.Model != "" {
		client, err := llm.NewOllamaLLM(cfg.OllamaHost, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		gen = client
	}

	svc, err := New(m, log, gen)
	if err != nil {
		return nil, err
	}
	svc.Validator.MaxConcurrent = cfg.MaxConcurrent

	if cfg.EmbeddingModel != "" {
		embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		embedder.MaxConcurrent = cfg.MaxConcurrent
		svc.Validator.Matcher = embedder
	}

	if cfg.ExportDSN != "" {
		exp, err := database.Open(ctx, cfg.ExportDSN)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to open export target: %w", err)
		}
		if err := exp.Initialize(ctx); err != nil {
			exp.Close()
			svc.Close()
			return nil, fmt.Errorf("failed to initialize export schema: %w", err)
		}
		svc.Exporter = exp
		svc.ExportName = database.TargetName(cfg.ExportDSN)
	}

	return svc, nil
}
