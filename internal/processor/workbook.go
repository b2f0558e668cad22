package processor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const (
	// Sheet name used for single-sheet text workbooks
	csvSheetName = "Sheet1"
	// Header name given to columns without a header cell
	emptyHeader = "__EMPTY"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// DecodeError reports bytes that could not be read as a workbook or document
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not parse %s content: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Cell is a non-blank value together with the header of its column
type Cell struct {
	Header string
	Value  string
}

// Row holds the non-blank cells of a data row in column order
type Row []Cell

// Headers returns the header names present in the row
func (r Row) Headers() []string {
	headers := make([]string, len(r))
	for i, c := range r {
		headers[i] = c.Header
	}
	return headers
}

// Sheet is one worksheet with header-keyed data rows
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Workbook is a decoded spreadsheet
type Workbook struct {
	Format string
	Sheets []Sheet
}

// DecodeWorkbook reads xlsx, xls or csv bytes into header-keyed sheets.
// The format is sniffed from the content rather than taken from a file name.
func DecodeWorkbook(data []byte) (*Workbook, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return decodeXLSX(data)
	case bytes.HasPrefix(data, ole2Magic):
		return decodeXLS(data)
	default:
		return decodeCSV(data)
	}
}

func decodeXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	wb := &Workbook{Format: "xlsx"}
	for _, name := range f.GetSheetList() {
		records, err := f.GetRows(name)
		if err != nil {
			return nil, &DecodeError{Format: "xlsx", Err: fmt.Errorf("failed to read sheet %q: %w", name, err)}
		}
		wb.Sheets = append(wb.Sheets, buildSheet(name, records))
	}
	return wb, nil
}

// decodeXLS reads a legacy BIFF workbook. The reader panics on some corrupt
// inputs, so panics are reported as decode errors.
func decodeXLS(data []byte) (wb *Workbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb = nil
			err = &DecodeError{Format: "xls", Err: fmt.Errorf("corrupt workbook: %v", r)}
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &DecodeError{Format: "xls", Err: err}
	}

	wb = &Workbook{Format: "xls"}
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}
		var records [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			records = append(records, xlsRowValues(sheet, r))
		}
		wb.Sheets = append(wb.Sheets, buildSheet(sheet.Name, records))
	}
	return wb, nil
}

// xlsRowValues returns the cell values of row i, or nil when the row is not stored
func xlsRowValues(sheet *xls.WorkSheet, i int) (values []string) {
	defer func() {
		if recover() != nil {
			values = nil
		}
	}()
	row := sheet.Row(i)
	last := row.LastCol()
	values = make([]string, last+1)
	for c := row.FirstCol(); c <= last; c++ {
		values[c] = row.Col(c)
	}
	return values
}

func decodeCSV(data []byte) (*Workbook, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, &DecodeError{Format: "csv", Err: errors.New("content is neither a spreadsheet nor UTF-8 text")}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Format: "csv", Err: err}
		}
		records = append(records, rec)
	}
	return &Workbook{Format: "csv", Sheets: []Sheet{buildSheet(csvSheetName, records)}}, nil
}

// buildSheet turns raw records into header-keyed rows. The first non-blank
// record is the header row; blank rows and blank cells are dropped.
func buildSheet(name string, records [][]string) Sheet {
	sheet := Sheet{Name: name}

	start := 0
	for start < len(records) && isBlankRecord(records[start]) {
		start++
	}
	if start == len(records) {
		return sheet
	}

	width := 0
	for _, rec := range records[start:] {
		width = max(width, len(rec))
	}
	sheet.Headers = uniqueHeaders(records[start], width)

	for _, rec := range records[start+1:] {
		var row Row
		for i, v := range rec {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			row = append(row, Cell{Header: sheet.Headers[i], Value: v})
		}
		if len(row) > 0 {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet
}

// uniqueHeaders names every column, filling blanks and suffixing repeats
func uniqueHeaders(raw []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(raw) {
			base = strings.TrimSpace(raw[i])
		}
		if base == "" {
			base = emptyHeader
		}
		name := base
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
