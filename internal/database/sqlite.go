package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"metadata-validator/internal/models"
	"metadata-validator/internal/store"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS field_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	file_name TEXT NOT NULL,
	sheet_name TEXT,
	table_name TEXT NOT NULL,
	field_name TEXT NOT NULL,
	definition TEXT,
	data_type TEXT,
	sensitivity TEXT
);
CREATE INDEX IF NOT EXISTS field_records_source_idx ON field_records (source);
CREATE INDEX IF NOT EXISTS field_records_table_idx ON field_records (table_name);

CREATE TABLE IF NOT EXISTS policy_rules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL,
	severity TEXT NOT NULL,
	applicable_domains TEXT
);

CREATE TABLE IF NOT EXISTS validation_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	file_name TEXT,
	generated_at TEXT NOT NULL,
	total_fields INTEGER NOT NULL,
	total_tables INTEGER NOT NULL,
	high_match INTEGER NOT NULL,
	medium_match INTEGER NOT NULL,
	low_match INTEGER NOT NULL,
	avg_score REAL NOT NULL,
	unscored INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS validation_results (
	run_id INTEGER NOT NULL REFERENCES validation_runs(id) ON DELETE CASCADE,
	table_name TEXT NOT NULL,
	field_name TEXT NOT NULL,
	description_match REAL NOT NULL,
	type_match INTEGER NOT NULL,
	sensitivity_match INTEGER NOT NULL,
	score INTEGER NOT NULL,
	band TEXT NOT NULL,
	generated_definition TEXT
);
CREATE INDEX IF NOT EXISTS validation_results_run_idx ON validation_results (run_id);
`

// SQLiteDB exports to a local SQLite file
type SQLiteDB struct {
	DB *sql.DB
}

// NewSQLiteDB opens (creating if needed) the SQLite file at path
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	return &SQLiteDB{DB: db}, nil
}

// Initialize creates the export tables
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create export tables: %w", err)
	}
	return nil
}

// ExportSnapshot replaces the exported fields and rules with the snapshot's
func (s *SQLiteDB) ExportSnapshot(ctx context.Context, snap store.Snapshot) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sources, rows := datasetRows(snap)
	written := 0

	for _, src := range sources {
		if _, err := tx.ExecContext(ctx, `DELETE FROM field_records WHERE source = ?`, src); err != nil {
			return 0, fmt.Errorf("failed to clear field records: %w", err)
		}
	}
	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO field_records (source, file_name, sheet_name, table_name, field_name, definition, data_type, sensitivity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare field insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.Source, r.File, r.SheetName, r.TableName, r.FieldName, r.Definition, r.DataType, r.Sensitivity); err != nil {
				return 0, fmt.Errorf("failed to insert field %s.%s: %w", r.TableName, r.FieldName, err)
			}
			written++
		}
	}

	if p := snap.Policy; p != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM policy_rules`); err != nil {
			return 0, fmt.Errorf("failed to clear policy rules: %w", err)
		}
		for i, r := range p.PolicyRules {
			domains, err := json.Marshal(r.ApplicableDomains)
			if err != nil {
				return 0, fmt.Errorf("failed to encode domains: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO policy_rules (file_name, position, name, description, category, severity, applicable_domains)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.FileName, i+1, r.Name, r.Description, r.Category, string(r.Severity), string(domains)); err != nil {
				return 0, fmt.Errorf("failed to insert policy rule %q: %w", r.Name, err)
			}
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}
	return written, nil
}

// ExportReport stores a validation run with its per-field results
func (s *SQLiteDB) ExportReport(ctx context.Context, report models.ValidationReport) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := report.Summary
	res, err := tx.ExecContext(ctx, `
		INSERT INTO validation_runs (
			kind, file_name, generated_at, total_fields, total_tables,
			high_match, medium_match, low_match, avg_score, unscored
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Kind, report.FileName, report.GeneratedAt.UTC().Format(time.RFC3339), sum.TotalFields, sum.TotalTables,
		sum.HighMatch, sum.MediumMatch, sum.LowMatch, sum.AvgScore, sum.Unscored)
	if err != nil {
		return 0, fmt.Errorf("failed to insert validation run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, c := range report.Comparisons {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO validation_results (
				run_id, table_name, field_name, description_match, type_match,
				sensitivity_match, score, band, generated_definition
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.Field.TableName, c.Field.FieldName, c.DescriptionMatch, c.TypeMatch,
			c.SensitivityMatch, c.Score, c.Band, c.Generated.Definition); err != nil {
			return 0, fmt.Errorf("failed to insert result for %s: %w", c.Field.FieldName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return runID, nil
}

// Counts returns the number of rows in each export table
func (s *SQLiteDB) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(exportTables))
	for _, table := range exportTables {
		var n int64
		if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// Close closes the database
func (s *SQLiteDB) Close() error {
	return s.DB.Close()
}
