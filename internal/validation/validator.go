package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"metadata-validator/internal/logger"
	"metadata-validator/internal/metrics"
	"metadata-validator/internal/models"
	"metadata-validator/internal/scoring"
)

const glossaryKind = "glossary"

// ErrNoReference is returned by a Generator that has nothing for a field
var ErrNoReference = errors.New("no reference description for field")

// Generator produces the reference description a field is graded against
type Generator interface {
	Describe(ctx context.Context, field models.FieldRecord) (models.GeneratedDescription, error)
}

// Validator grades every field of a dataset against generated references
type Validator struct {
	Generator     Generator
	Matcher       scoring.Matcher
	MaxConcurrent int
	Metrics       *metrics.Metrics
	Log           *logger.Logger
	Now           func() time.Time

	// Progress, when set, is called after each field is graded. It may be
	// called from several goroutines at once.
	Progress func(done, total int)
}

// NewValidator creates a validator using lexical description matching
func NewValidator(gen Generator) *Validator {
	return &Validator{
		Generator:     gen,
		Matcher:       scoring.LexicalMatcher{},
		MaxConcurrent: 3,
		Log:           logger.Nop(),
		Now:           time.Now,
	}
}

type graded struct {
	cmp models.FieldComparison
	ok  bool
}

// Validate grades the dataset. Fields whose reference cannot be produced are
// counted as unscored; only context cancellation aborts the run.
func (v *Validator) Validate(ctx context.Context, kind string, dataset models.ParsedDataset) (models.ValidationReport, error) {
	results := make([]graded, len(dataset.Fields))

	var wg sync.WaitGroup
	var done atomic.Int64
	semaphore := make(chan struct{}, max(1, v.MaxConcurrent))

	for i := range dataset.Fields {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return models.ValidationReport{}, err
		}
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			cmp, err := v.grade(ctx, kind, dataset.Fields[i])
			if v.Progress != nil {
				v.Progress(int(done.Add(1)), len(dataset.Fields))
			}
			if err != nil {
				v.Log.Debug().Err(err).Str("field", dataset.Fields[i].FieldName).Msg("Field left unscored")
				return
			}
			results[i] = graded{cmp: cmp, ok: true}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return models.ValidationReport{}, err
	}

	report := models.ValidationReport{
		Kind:        kind,
		FileName:    dataset.FileName,
		GeneratedAt: v.Now().UTC(),
		Comparisons: []models.FieldComparison{},
	}
	for _, r := range results {
		if r.ok {
			report.Comparisons = append(report.Comparisons, r.cmp)
			if v.Metrics != nil {
				v.Metrics.RecordScore(r.cmp.Band)
			}
		}
	}
	report.Summary = Summarize(dataset, report.Comparisons)
	report.Alerts = BuildAlerts(dataset, report.Summary)
	return report, nil
}

func (v *Validator) grade(ctx context.Context, kind string, field models.FieldRecord) (models.FieldComparison, error) {
	gen, err := v.Generator.Describe(ctx, field)
	if err != nil {
		return models.FieldComparison{}, fmt.Errorf("failed to describe %s.%s: %w", field.TableName, field.FieldName, err)
	}

	ref := gen
	if kind == glossaryKind {
		// Glossary terms carry no type or sensitivity of their own, so a
		// generated value for either has nothing to disagree with.
		if strings.TrimSpace(field.DataType) == "" {
			ref.DataType = ""
		}
		if strings.TrimSpace(field.Sensitivity) == "" {
			ref.Sensitivity = ""
		}
	}

	cmp, err := scoring.CompareField(ctx, v.Matcher, field, ref)
	if err != nil {
		return models.FieldComparison{}, err
	}
	cmp.Generated = gen
	return cmp, nil
}

// Summarize computes the KPI figures of a validation run
func Summarize(dataset models.ParsedDataset, comparisons []models.FieldComparison) models.ValidationSummary {
	s := models.ValidationSummary{
		TotalFields: len(dataset.Fields),
		TotalTables: len(dataset.Tables()),
		Unscored:    len(dataset.Fields) - len(comparisons),
	}

	total := 0
	for _, c := range comparisons {
		total += c.Score
		switch c.Band {
		case scoring.BandHigh.Name:
			s.HighMatch++
		case scoring.BandMedium.Name:
			s.MediumMatch++
		default:
			s.LowMatch++
		}
	}
	if len(comparisons) > 0 {
		s.AvgScore = math.Round(float64(total)/float64(len(comparisons))*10) / 10
	}
	return s
}

// Alert levels, matching the score band statuses
const (
	AlertCritical = "critical"
	AlertWarning  = "warning"
	AlertInfo     = "info"
)

// BuildAlerts derives the notable findings of a validation run
func BuildAlerts(dataset models.ParsedDataset, s models.ValidationSummary) []models.Alert {
	alerts := []models.Alert{}

	if s.TotalFields == 0 {
		return append(alerts, models.Alert{
			Level:   AlertInfo,
			Title:   "Empty dataset",
			Message: "the dataset contains no fields to validate",
		})
	}
	if s.LowMatch > 0 {
		alerts = append(alerts, models.Alert{
			Level:   AlertCritical,
			Title:   "Low match scores",
			Message: fmt.Sprintf("%d field(s) scored below 60", s.LowMatch),
		})
	}
	if s.MediumMatch > 0 {
		alerts = append(alerts, models.Alert{
			Level:   AlertWarning,
			Title:   "Partial matches",
			Message: fmt.Sprintf("%d field(s) scored between 60 and 79", s.MediumMatch),
		})
	}

	blank := 0
	for _, f := range dataset.Fields {
		if strings.TrimSpace(f.Definition) == "" {
			blank++
		}
	}
	if blank > 0 {
		alerts = append(alerts, models.Alert{
			Level:   AlertWarning,
			Title:   "Missing definitions",
			Message: fmt.Sprintf("%d field(s) have no definition", blank),
		})
	}
	if s.Unscored > 0 {
		alerts = append(alerts, models.Alert{
			Level:   AlertInfo,
			Title:   "Unscored fields",
			Message: fmt.Sprintf("%d field(s) had no reference description", s.Unscored),
		})
	}
	return alerts
}
