package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"metadata-validator/internal/config"
	"metadata-validator/internal/logger"
	"metadata-validator/internal/models"
	"metadata-validator/internal/processor"
	"metadata-validator/internal/service"
)

func main() {
	cfg, foundEnv := config.Load()

	// Inputs
	glossaryPath := flag.String("glossary", "", "Glossary workbook (csv, xlsx, xls)")
	dictionaryPath := flag.String("dictionary", "", "Data dictionary workbook (csv, xlsx, xls)")
	policyPath := flag.String("policy", "", "Policy document (pdf, docx, txt)")
	samplePath := flag.String("sample", "", "Sample dataset (csv, json, parquet)")

	// Actions
	referencePath := flag.String("reference", "", "Grade the -kind dataset against this reference workbook")
	validate := flag.Bool("validate", false, "Grade the -kind dataset against model-generated descriptions")
	kindFlag := flag.String("kind", "", "Dataset to grade: glossary or dictionary (default: whichever was loaded)")
	export := flag.Bool("export", false, "Write loaded datasets and reports to the export database")
	query := flag.String("q", "", "Search the loaded metadata")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	jsonOut := flag.Bool("json", false, "Print reports as JSON")

	// Settings
	ollamaHost := flag.String("ollama", cfg.OllamaHost, "Ollama host (default uses OLLAMA_HOST env var)")
	model := flag.String("model", cfg.Model, "Ollama model for reference descriptions (empty disables -validate)")
	embeddingModel := flag.String("embedding-model", cfg.EmbeddingModel, "Ollama model for semantic description matching (empty uses lexical matching)")
	maxConcurrent := flag.Int("max-concurrent", cfg.MaxConcurrent, "Maximum concurrent model requests")
	exportDSN := flag.String("db", cfg.ExportDSN, "Export target: postgres:// URL or sqlite file path")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	cfg.OllamaHost = *ollamaHost
	cfg.Model = *model
	cfg.EmbeddingModel = *embeddingModel
	cfg.MaxConcurrent = *maxConcurrent
	cfg.ExportDSN = *exportDSN
	cfg.LogLevel = *logLevel

	logger.InitGlobalLogger(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.GetGlobalLogger()
	if foundEnv {
		log.Debug().Msg("Loaded settings from .env")
	}

	if *export && cfg.ExportDSN == "" {
		log.Fatal().Msg("-export requires -db or VALIDATOR_EXPORT_DSN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.FromConfig(ctx, cfg, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start validator")
	}
	defer svc.Close()

	inputs := []struct {
		kind processor.Kind
		path string
	}{
		{processor.KindGlossary, *glossaryPath},
		{processor.KindDictionary, *dictionaryPath},
		{processor.KindPolicy, *policyPath},
		{processor.KindSample, *samplePath},
	}
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		if err := loadFile(svc, in.kind, in.path); err != nil {
			log.Fatal().Err(err).Str("kind", string(in.kind)).Str("path", in.path).Msg("Failed to load file")
		}
	}

	var reports []models.ValidationReport
	if *referencePath != "" || *validate {
		kind, err := gradeKind(svc, *kindFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Nothing to grade")
		}
		if *referencePath != "" {
			data, err := os.ReadFile(*referencePath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read reference workbook")
			}
			report, err := svc.Compare(ctx, kind, filepath.Base(*referencePath), data)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to compare datasets")
			}
			reports = append(reports, report)
		}
		if *validate {
			report, err := validateWithProgress(ctx, svc, kind)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to validate dataset")
			}
			reports = append(reports, report)
		}
	}

	for _, r := range reports {
		if *jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(r); err != nil {
				log.Error().Err(err).Msg("Failed to encode report")
			}
			continue
		}
		printReport(r)
	}

	if *export {
		if len(reports) == 0 {
			if _, err := svc.Export(ctx, nil); err != nil {
				log.Fatal().Err(err).Msg("Export failed")
			}
		}
		for i := range reports {
			if _, err := svc.Export(ctx, &reports[i]); err != nil {
				log.Fatal().Err(err).Msg("Export failed")
			}
		}
		printCounts(ctx, svc)
	}

	if *query != "" {
		if err := runSearch(svc, *query, nil); err != nil {
			log.Fatal().Err(err).Msg("Search failed")
		}
	}

	if *interactive {
		runInteractiveMode(ctx, svc, os.Stdin)
	}
}

// validateWithProgress runs a model-backed validation behind a progress bar
func validateWithProgress(ctx context.Context, svc *service.Service, kind processor.Kind) (models.ValidationReport, error) {
	p := mpb.New(mpb.WithWidth(80), mpb.WithOutput(os.Stderr))
	var (
		once sync.Once
		bar  *mpb.Bar
	)
	svc.Validator.Progress = func(done, total int) {
		once.Do(func() {
			bar = p.AddBar(int64(total),
				mpb.PrependDecorators(
					decor.Name("Validating fields: "),
					decor.Percentage(decor.WCSyncSpace),
				),
				mpb.AppendDecorators(
					decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done!"),
				),
			)
		})
		bar.Increment()
	}
	defer func() { svc.Validator.Progress = nil }()

	report, err := svc.Validate(ctx, kind)
	if err != nil && bar != nil {
		bar.Abort(false)
	}
	p.Wait()
	return report, err
}

// loadFile reads path and ingests it into the store
func loadFile(svc *service.Service, kind processor.Kind, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	res, err := svc.Ingest(kind, filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s from %s: %d matches in %v\n", kind, res.FileName, res.MatchCount, res.Duration.Round(time.Millisecond))
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

// gradeKind picks the dataset to grade, defaulting to the only one loaded
func gradeKind(svc *service.Service, flagValue string) (processor.Kind, error) {
	if flagValue != "" {
		kind, err := processor.ParseKind(flagValue)
		if err != nil {
			return "", err
		}
		if kind != processor.KindGlossary && kind != processor.KindDictionary {
			return "", fmt.Errorf("-kind must be glossary or dictionary, got %q", kind)
		}
		return kind, nil
	}
	switch {
	case svc.Store.Glossary() != nil:
		return processor.KindGlossary, nil
	case svc.Store.Dictionary() != nil:
		return processor.KindDictionary, nil
	}
	return "", fmt.Errorf("load a glossary or dictionary first")
}

func printReport(r models.ValidationReport) {
	s := r.Summary
	fmt.Printf("\nValidation report: %s (%s)\n", r.FileName, r.Kind)
	fmt.Printf("  Fields: %d across %d tables\n", s.TotalFields, s.TotalTables)
	fmt.Printf("  Average score: %.1f\n", s.AvgScore)
	fmt.Printf("  High: %d  Medium: %d  Low: %d  Unscored: %d\n", s.HighMatch, s.MediumMatch, s.LowMatch, s.Unscored)

	// Lowest scores first
	comparisons := append([]models.FieldComparison(nil), r.Comparisons...)
	sort.SliceStable(comparisons, func(i, j int) bool { return comparisons[i].Score < comparisons[j].Score })
	shown := min(len(comparisons), 10)
	if shown > 0 {
		fmt.Println("  Lowest scoring fields:")
	}
	for _, c := range comparisons[:shown] {
		fmt.Printf("    %-40s %3d  %s\n", c.Field.TableName+"."+c.Field.FieldName, c.Score, c.Band)
	}

	for _, a := range r.Alerts {
		fmt.Printf("  [%s] %s: %s\n", a.Level, a.Title, a.Message)
	}
}

func printCounts(ctx context.Context, svc *service.Service) {
	counts, err := svc.Exporter.Counts(ctx)
	if err != nil {
		fmt.Printf("Export complete (could not read counts: %v)\n", err)
		return
	}
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	fmt.Printf("Export complete (%s):\n", svc.ExportName)
	for _, t := range tables {
		fmt.Printf("  %s: %d rows\n", t, counts[t])
	}
}
