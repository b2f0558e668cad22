package processor

import (
	"fmt"
	"os"
	"path/filepath"

	"metadata-validator/internal/models"
)

// TabularExtractor turns glossary and dictionary workbooks into field records
type TabularExtractor struct {
	Kind   Kind
	Chains ColumnChains
}

// NewTabularExtractor creates an extractor for glossary or dictionary workbooks
func NewTabularExtractor(kind Kind) *TabularExtractor {
	return &TabularExtractor{
		Kind:   kind,
		Chains: ChainsFor(kind),
	}
}

// ExtractFile reads a workbook from disk and extracts its fields
func (t *TabularExtractor) ExtractFile(filePath string) (models.Result[models.ParsedDataset], error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.Result[models.ParsedDataset]{}, fmt.Errorf("failed to read file: %w", err)
	}
	return t.Extract(data, filepath.Base(filePath))
}

// Extract decodes workbook bytes and extracts field records from every sheet
func (t *TabularExtractor) Extract(data []byte, fileName string) (models.Result[models.ParsedDataset], error) {
	wb, err := DecodeWorkbook(data)
	if err != nil {
		return models.Result[models.ParsedDataset]{}, err
	}
	return t.ExtractWorkbook(wb, fileName), nil
}

// ExtractWorkbook extracts field records from an already decoded workbook
func (t *TabularExtractor) ExtractWorkbook(wb *Workbook, fileName string) models.Result[models.ParsedDataset] {
	dataset := models.ParsedDataset{
		Fields:          []models.FieldRecord{},
		FileName:        fileName,
		SheetCount:      len(wb.Sheets),
		SheetsProcessed: []string{},
	}

	var rowsSeen, dropped, fieldFallbacks, definitionFallbacks int
	for _, sheet := range wb.Sheets {
		if len(sheet.Rows) == 0 {
			continue
		}
		dataset.SheetsProcessed = append(dataset.SheetsProcessed, sheet.Name)

		for _, row := range sheet.Rows {
			rowsSeen++
			record, trace := t.buildRecord(RowContext{Row: row, Sheet: sheet.Name})
			if record.FieldName == "" {
				dropped++
				continue
			}
			if trace.fieldStrategy != "field-name header" {
				fieldFallbacks++
			}
			if trace.definitionStrategy != "definition header" {
				definitionFallbacks++
			}
			dataset.Fields = append(dataset.Fields, record)
		}
	}

	result := models.Result[models.ParsedDataset]{
		Data:       dataset,
		MatchCount: len(dataset.Fields),
	}
	switch {
	case dataset.SheetCount == 0:
		result.Warnings = append(result.Warnings, "workbook contains no sheets")
	case rowsSeen == 0:
		result.Warnings = append(result.Warnings, fmt.Sprintf("no data rows found in %d sheet(s)", dataset.SheetCount))
	}
	if dropped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d row(s) dropped: empty field name", dropped))
	}
	if kept := len(dataset.Fields); kept > 0 {
		if fieldFallbacks == kept {
			result.Warnings = append(result.Warnings, "no field-name column recognized; first column used")
		}
		if definitionFallbacks == kept {
			result.Warnings = append(result.Warnings, "no definition column recognized")
		}
	}
	return result
}

type resolution struct {
	fieldStrategy      string
	definitionStrategy string
}

func (t *TabularExtractor) buildRecord(ctx RowContext) (models.FieldRecord, resolution) {
	var trace resolution
	record := models.FieldRecord{SheetName: ctx.Sheet}

	record.FieldName, trace.fieldStrategy = t.Chains.FieldName.Resolve(ctx)
	record.TableName, _ = t.Chains.TableName.Resolve(ctx)
	record.Definition, trace.definitionStrategy = t.Chains.Definition.Resolve(ctx)
	if t.Chains.DataType != nil {
		record.DataType, _ = t.Chains.DataType.Resolve(ctx)
	}
	if t.Chains.Sensitivity != nil {
		record.Sensitivity, _ = t.Chains.Sensitivity.Resolve(ctx)
	}
	return record, trace
}
