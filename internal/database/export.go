// Package database exports store contents and validation reports to
// PostgreSQL or a SQLite file. Export is one-way: nothing is read back into
// the store.
package database

import (
	"context"
	"strings"

	"metadata-validator/internal/models"
	"metadata-validator/internal/store"
)

// Exporter writes extracted metadata to a database
type Exporter interface {
	// Initialize creates the export tables if needed
	Initialize(ctx context.Context) error
	// ExportSnapshot replaces the exported rows of every non-empty slot and
	// returns how many rows were written
	ExportSnapshot(ctx context.Context, snap store.Snapshot) (int, error)
	// ExportReport appends a validation run and returns its id
	ExportReport(ctx context.Context, report models.ValidationReport) (int64, error)
	// Counts returns the number of rows in each export table
	Counts(ctx context.Context) (map[string]int64, error)
	Close() error
}

var exportTables = []string{"field_records", "policy_rules", "validation_runs", "validation_results"}

// Open connects to the export target named by dsn: postgres:// and
// postgresql:// URLs select PostgreSQL, anything else is a SQLite file path
func Open(ctx context.Context, dsn string) (Exporter, error) {
	if IsPostgresDSN(dsn) {
		return NewDB(ctx, dsn)
	}
	return NewSQLiteDB(dsn)
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server
func IsPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// TargetName names the export target for logs and metrics
func TargetName(dsn string) string {
	if IsPostgresDSN(dsn) {
		return "postgres"
	}
	return "sqlite"
}

// fieldRow is a flattened FieldRecord
type fieldRow struct {
	Source string
	File   string
	models.FieldRecord
}

func datasetRows(snap store.Snapshot) (sources []string, rows []fieldRow) {
	for _, ds := range []struct {
		slot store.Slot
		data *models.ParsedDataset
	}{
		{store.SlotGlossary, snap.Glossary},
		{store.SlotDictionary, snap.Dictionary},
	} {
		if ds.data == nil {
			continue
		}
		sources = append(sources, string(ds.slot))
		for _, f := range ds.data.Fields {
			rows = append(rows, fieldRow{Source: string(ds.slot), File: ds.data.FileName, FieldRecord: f})
		}
	}
	return sources, rows
}
