package validation

import (
	"context"
	"strings"

	"metadata-validator/internal/models"
)

// StaticReference serves descriptions from an already extracted dataset,
// matched on (table, field) case-insensitively. The first record wins when a
// pair repeats.
type StaticReference struct {
	byKey map[string]models.FieldRecord
}

// NewStaticReference indexes a reference dataset
func NewStaticReference(ref models.ParsedDataset) *StaticReference {
	s := &StaticReference{byKey: make(map[string]models.FieldRecord, len(ref.Fields))}
	for _, f := range ref.Fields {
		k := fieldKey(f)
		if _, ok := s.byKey[k]; !ok {
			s.byKey[k] = f
		}
	}
	return s
}

// Describe returns the reference record for the field, or ErrNoReference
func (s *StaticReference) Describe(_ context.Context, field models.FieldRecord) (models.GeneratedDescription, error) {
	ref, ok := s.byKey[fieldKey(field)]
	if !ok {
		return models.GeneratedDescription{}, ErrNoReference
	}
	return models.GeneratedDescription{
		Definition:  ref.Definition,
		DataType:    ref.DataType,
		Sensitivity: ref.Sensitivity,
	}, nil
}

// Len returns the number of distinct reference fields
func (s *StaticReference) Len() int {
	return len(s.byKey)
}

func fieldKey(f models.FieldRecord) string {
	return strings.ToLower(strings.TrimSpace(f.TableName)) + "." + strings.ToLower(strings.TrimSpace(f.FieldName))
}

// CompareDatasets grades original against a static reference dataset
func (v *Validator) CompareDatasets(ctx context.Context, kind string, original, reference models.ParsedDataset) (models.ValidationReport, error) {
	static := *v
	static.Generator = NewStaticReference(reference)
	return static.Validate(ctx, kind, original)
}
