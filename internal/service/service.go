// Package service wires extraction, the metadata store, search, validation
// and export together. The HTTP API, the MCP server and the CLI are thin
// adapters over it.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"metadata-validator/internal/database"
	"metadata-validator/internal/logger"
	"metadata-validator/internal/metrics"
	"metadata-validator/internal/models"
	"metadata-validator/internal/processor"
	"metadata-validator/internal/profile"
	"metadata-validator/internal/search"
	"metadata-validator/internal/store"
	"metadata-validator/internal/validation"
)

var (
	// ErrEmptySlot is returned when an operation needs a dataset that has not been uploaded
	ErrEmptySlot = errors.New("nothing loaded")
	// ErrNoGenerator is returned when validation is requested without a description generator
	ErrNoGenerator = errors.New("no description generator configured")
	// ErrNoExporter is returned when export is requested without an export target
	ErrNoExporter = errors.New("no export target configured")
)

// IngestResult describes what one upload produced
type IngestResult struct {
	Kind       processor.Kind `json:"kind"`
	FileName   string         `json:"file_name"`
	MatchCount int            `json:"match_count"`
	Warnings   []string       `json:"warnings,omitempty"`
	Duration   time.Duration  `json:"duration_ns"`
}

// Service holds the session state and the components operating on it
type Service struct {
	Store     *store.Store
	Search    *search.Searcher
	Policy    *processor.PolicyAnalyzer
	Profiler  *profile.Profiler
	Validator *validation.Validator

	// Exporter is optional; nil disables export
	Exporter   database.Exporter
	ExportName string

	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// New creates a service over an empty store with a search index attached.
// gen may be nil, in which case only static comparisons are available.
// A nil m registers metrics with a private registry.
func New(m *metrics.Metrics, log *logger.Logger, gen validation.Generator) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.NewMetrics(prometheus.NewRegistry())
	}

	searcher, err := search.NewSearcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	searcher.Metrics = m
	searcher.Log = log.Component("search")

	st := store.New()
	if err := searcher.Attach(st); err != nil {
		return nil, fmt.Errorf("failed to index store: %w", err)
	}

	v := validation.NewValidator(gen)
	v.Metrics = m
	v.Log = log.Component("validation")

	return &Service{
		Store:     st,
		Search:    searcher,
		Policy:    processor.NewPolicyAnalyzer(),
		Profiler:  profile.NewProfiler(),
		Validator: v,
		Metrics:   m,
		Log:       log,
	}, nil
}

// Ingest parses an uploaded file of the given kind and replaces the matching
// store slot. A rejected or undecodable file leaves the store untouched.
func (s *Service) Ingest(kind processor.Kind, fileName string, data []byte) (IngestResult, error) {
	if err := processor.CheckFileName(kind, fileName); err != nil {
		s.Metrics.RecordRejectedUpload(string(kind))
		s.Log.Warn().Err(err).Str("kind", string(kind)).Str("file", fileName).Msg("Upload rejected")
		return IngestResult{}, err
	}

	start := time.Now()
	res := IngestResult{Kind: kind, FileName: fileName}
	var err error

	switch kind {
	case processor.KindGlossary, processor.KindDictionary:
		var r models.Result[models.ParsedDataset]
		if r, err = processor.NewTabularExtractor(kind).Extract(data, fileName); err == nil {
			res.MatchCount, res.Warnings = r.MatchCount, r.Warnings
			if kind == processor.KindGlossary {
				s.Store.SetGlossary(r.Data)
			} else {
				s.Store.SetDictionary(r.Data)
			}
		}
	case processor.KindPolicy:
		var r models.Result[models.ParsedPolicyDocument]
		if r, err = s.Policy.AnalyzeBytes(data, fileName); err == nil {
			res.MatchCount, res.Warnings = r.MatchCount, r.Warnings
			s.Store.SetPolicy(r.Data)
		}
	case processor.KindSample:
		var r models.Result[models.DatasetProfile]
		if r, err = s.Profiler.Profile(data, fileName); err == nil {
			res.MatchCount, res.Warnings = r.MatchCount, r.Warnings
			s.Store.SetSample(r.Data)
		}
	default:
		err = fmt.Errorf("unknown upload kind %q", kind)
	}

	res.Duration = time.Since(start)
	s.Metrics.RecordExtraction(string(kind), res.MatchCount, res.Duration, err)
	s.Log.LogExtraction(string(kind), fileName, res.MatchCount, res.Warnings, res.Duration, err)
	if err != nil {
		return IngestResult{}, err
	}
	return res, nil
}

// Dataset returns the stored glossary or dictionary
func (s *Service) Dataset(kind processor.Kind) (*models.ParsedDataset, error) {
	d := s.Store.Dataset(store.Slot(kind))
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptySlot, kind)
	}
	return d, nil
}

// Validate grades the stored dataset of kind against generated descriptions
func (s *Service) Validate(ctx context.Context, kind processor.Kind) (models.ValidationReport, error) {
	if s.Validator.Generator == nil {
		return models.ValidationReport{}, ErrNoGenerator
	}
	d, err := s.Dataset(kind)
	if err != nil {
		return models.ValidationReport{}, err
	}
	return s.Validator.Validate(ctx, string(kind), *d)
}

// Compare grades the stored dataset of kind against a reference workbook
func (s *Service) Compare(ctx context.Context, kind processor.Kind, fileName string, data []byte) (models.ValidationReport, error) {
	d, err := s.Dataset(kind)
	if err != nil {
		return models.ValidationReport{}, err
	}
	if err := processor.CheckFileName(kind, fileName); err != nil {
		return models.ValidationReport{}, err
	}
	ref, err := processor.NewTabularExtractor(kind).Extract(data, fileName)
	if err != nil {
		return models.ValidationReport{}, err
	}
	return s.Validator.CompareDatasets(ctx, string(kind), *d, ref.Data)
}

// PolicySummary aggregates the stored policy document
func (s *Service) PolicySummary() (models.PolicySummary, error) {
	p := s.Store.Policy()
	if p == nil {
		return models.PolicySummary{}, fmt.Errorf("%w: %s", ErrEmptySlot, store.SlotPolicy)
	}
	return validation.SummarizePolicy(*p), nil
}

// Export writes the current store contents, and report when given, to the
// export target. It returns the number of rows written.
func (s *Service) Export(ctx context.Context, report *models.ValidationReport) (int, error) {
	if s.Exporter == nil {
		return 0, ErrNoExporter
	}

	start := time.Now()
	n, err := s.Exporter.ExportSnapshot(ctx, s.Store.Snapshot())
	if err == nil && report != nil {
		_, err = s.Exporter.ExportReport(ctx, *report)
		n += len(report.Comparisons) + 1
	}

	s.Metrics.RecordExport(s.ExportName, err)
	s.Log.LogExport(s.ExportName, n, time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the search index and the export connection
func (s *Service) Close() error {
	err := s.Search.Close()
	if s.Exporter != nil {
		err = errors.Join(err, s.Exporter.Close())
	}
	return err
}
