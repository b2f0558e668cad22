package profile

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"

	"metadata-validator/internal/processor"
)

// profileParquet reads every leaf column of a parquet file using the schema
// stored in its footer
func profileParquet(data []byte) (cols []*column, rows int, err error) {
	// the reader panics on some truncated footers
	defer func() {
		if r := recover(); r != nil {
			cols, rows = nil, 0
			err = &processor.DecodeError{Format: "parquet", Err: fmt.Errorf("corrupt file: %v", r)}
		}
	}()

	pf := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(pf, nil, 1)
	if err != nil {
		return nil, 0, &processor.DecodeError{Format: "parquet", Err: err}
	}
	defer pr.ReadStop()

	num := pr.GetNumRows()
	for _, path := range pr.SchemaHandler.ValueColumns {
		c := newColumn(columnName(pr.SchemaHandler.InPathToExPath[path], path))

		if num > 0 {
			values, _, _, err := pr.ReadColumnByPath(path, num)
			if err != nil {
				return nil, 0, &processor.DecodeError{Format: "parquet", Err: fmt.Errorf("failed to read column %s: %w", c.name, err)}
			}
			for _, v := range values {
				c.add(fmt.Sprint(v), v != nil)
			}
		}
		cols = append(cols, c)
	}
	return cols, int(num), nil
}

// columnName drops the schema root from a column path and joins the rest with dots
func columnName(exPath, inPath string) string {
	p := exPath
	if p == "" {
		p = inPath
	}
	parts := common.StrToPath(p)
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
