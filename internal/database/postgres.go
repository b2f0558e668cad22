package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"metadata-validator/internal/models"
	"metadata-validator/internal/store"
)

// DB represents the PostgreSQL export connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the export tables and indices
func (db *DB) Initialize(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS field_records (
			id SERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			file_name TEXT NOT NULL,
			sheet_name TEXT,
			table_name TEXT NOT NULL,
			field_name TEXT NOT NULL,
			definition TEXT,
			data_type TEXT,
			sensitivity TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create field_records table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS policy_rules (
			id SERIAL PRIMARY KEY,
			file_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			severity TEXT NOT NULL,
			applicable_domains TEXT[]
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create policy_rules table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS validation_runs (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL,
			file_name TEXT,
			generated_at TIMESTAMPTZ NOT NULL,
			total_fields INTEGER NOT NULL,
			total_tables INTEGER NOT NULL,
			high_match INTEGER NOT NULL,
			medium_match INTEGER NOT NULL,
			low_match INTEGER NOT NULL,
			avg_score DOUBLE PRECISION NOT NULL,
			unscored INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create validation_runs table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS validation_results (
			run_id BIGINT NOT NULL REFERENCES validation_runs(id) ON DELETE CASCADE,
			table_name TEXT NOT NULL,
			field_name TEXT NOT NULL,
			description_match DOUBLE PRECISION NOT NULL,
			type_match BOOLEAN NOT NULL,
			sensitivity_match BOOLEAN NOT NULL,
			score INTEGER NOT NULL,
			band TEXT NOT NULL,
			generated_definition TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create validation_results table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS field_records_source_idx ON field_records (source);
		CREATE INDEX IF NOT EXISTS field_records_table_idx ON field_records (table_name);
		CREATE INDEX IF NOT EXISTS validation_results_run_idx ON validation_results (run_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create additional indices: %w", err)
	}

	return nil
}

// ExportSnapshot replaces the exported fields and rules with the snapshot's
func (db *DB) ExportSnapshot(ctx context.Context, snap store.Snapshot) (int, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sources, rows := datasetRows(snap)
	written := 0

	if len(sources) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM field_records WHERE source = ANY($1)`, sources); err != nil {
			return 0, fmt.Errorf("failed to clear field records: %w", err)
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"field_records"},
			[]string{"source", "file_name", "sheet_name", "table_name", "field_name", "definition", "data_type", "sensitivity"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				r := rows[i]
				return []any{r.Source, r.File, r.SheetName, r.TableName, r.FieldName, r.Definition, r.DataType, r.Sensitivity}, nil
			}),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to copy field records: %w", err)
		}
		written += int(n)
	}

	if p := snap.Policy; p != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM policy_rules`); err != nil {
			return 0, fmt.Errorf("failed to clear policy rules: %w", err)
		}

		batch := &pgx.Batch{}
		for i, r := range p.PolicyRules {
			batch.Queue(`
				INSERT INTO policy_rules (file_name, position, name, description, category, severity, applicable_domains)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, p.FileName, i+1, r.Name, r.Description, r.Category, string(r.Severity), r.ApplicableDomains)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to insert policy rules: %w", err)
		}
		written += len(p.PolicyRules)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}
	return written, nil
}

// ExportReport stores a validation run with its per-field results
func (db *DB) ExportReport(ctx context.Context, report models.ValidationReport) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	s := report.Summary
	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO validation_runs (
			kind, file_name, generated_at, total_fields, total_tables,
			high_match, medium_match, low_match, avg_score, unscored
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, report.Kind, report.FileName, report.GeneratedAt, s.TotalFields, s.TotalTables,
		s.HighMatch, s.MediumMatch, s.LowMatch, s.AvgScore, s.Unscored).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert validation run: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"validation_results"},
		[]string{"run_id", "table_name", "field_name", "description_match", "type_match", "sensitivity_match", "score", "band", "generated_definition"},
		pgx.CopyFromSlice(len(report.Comparisons), func(i int) ([]any, error) {
			c := report.Comparisons[i]
			return []any{runID, c.Field.TableName, c.Field.FieldName, c.DescriptionMatch,
				c.TypeMatch, c.SensitivityMatch, c.Score, c.Band, c.Generated.Definition}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy validation results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return runID, nil
}

// Counts returns the number of rows in each export table
func (db *DB) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(exportTables))
	for _, table := range exportTables {
		var n int64
		if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}
