// Package profile computes column-level quality figures for sample datasets
package profile

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"metadata-validator/internal/models"
	"metadata-validator/internal/processor"
)

// column accumulates the values of one column
type column struct {
	name     string
	rows     int
	nonEmpty int
	distinct map[string]struct{}
}

func newColumn(name string) *column {
	return &column{name: name, distinct: make(map[string]struct{})}
}

func (c *column) add(v string, present bool) {
	c.rows++
	if !present || strings.TrimSpace(v) == "" {
		return
	}
	c.nonEmpty++
	c.distinct[v] = struct{}{}
}

func (c *column) profile() models.ColumnProfile {
	p := models.ColumnProfile{
		Name:     c.name,
		RowCount: c.rows,
		NonEmpty: c.nonEmpty,
		Distinct: len(c.distinct),
	}
	if c.rows > 0 {
		p.Completeness = round3(float64(c.nonEmpty) / float64(c.rows))
	}
	if c.nonEmpty > 0 {
		p.Uniqueness = round3(float64(len(c.distinct)) / float64(c.nonEmpty))
	}
	return p
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// Profiler profiles csv, json and parquet sample datasets
type Profiler struct{}

// NewProfiler creates a profiler
func NewProfiler() *Profiler {
	return &Profiler{}
}

// ProfileFile reads and profiles a sample dataset from disk
func (p *Profiler) ProfileFile(filePath string) (models.Result[models.DatasetProfile], error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.Result[models.DatasetProfile]{}, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Profile(data, filepath.Base(filePath))
}

// Profile decodes a sample dataset chosen by file extension and profiles every column
func (p *Profiler) Profile(data []byte, fileName string) (models.Result[models.DatasetProfile], error) {
	var (
		cols []*column
		rows int
		err  error
	)
	format := processor.FileType(fileName)
	switch format {
	case "CSV":
		cols, rows, err = profileCSV(data)
	case "JSON":
		cols, rows, err = profileJSON(data)
	case "PARQUET":
		cols, rows, err = profileParquet(data)
	default:
		err = fmt.Errorf("%w: %q", processor.ErrUnsupportedExtension, fileName)
	}
	if err != nil {
		return models.Result[models.DatasetProfile]{}, err
	}

	profile := models.DatasetProfile{
		FileName: fileName,
		Format:   format,
		RowCount: rows,
		Columns:  make([]models.ColumnProfile, 0, len(cols)),
	}
	result := models.Result[models.DatasetProfile]{}
	for _, c := range cols {
		cp := c.profile()
		profile.Columns = append(profile.Columns, cp)
		if cp.RowCount > 0 && cp.NonEmpty == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("column %q is entirely empty", cp.Name))
		}
	}
	if rows == 0 {
		result.Warnings = append(result.Warnings, "dataset contains no rows")
	}
	result.Data = profile
	result.MatchCount = len(profile.Columns)
	return result, nil
}

// profileCSV reuses the workbook decoder, so header handling matches
// glossary and dictionary uploads
func profileCSV(data []byte) ([]*column, int, error) {
	wb, err := processor.DecodeWorkbook(data)
	if err != nil {
		return nil, 0, err
	}
	if len(wb.Sheets) == 0 {
		return nil, 0, nil
	}
	sheet := wb.Sheets[0]

	cols := make([]*column, len(sheet.Headers))
	for i, h := range sheet.Headers {
		cols[i] = newColumn(h)
	}
	for _, row := range sheet.Rows {
		values := make(map[string]string, len(row))
		for _, cell := range row {
			values[cell.Header] = cell.Value
		}
		for _, c := range cols {
			v, ok := values[c.name]
			c.add(v, ok)
		}
	}
	return cols, len(sheet.Rows), nil
}
