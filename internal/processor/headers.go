package processor

import "strings"

// HeaderRule matches header names by case-insensitive substring
type HeaderRule struct {
	Include []string
	Exclude []string
}

// Matches reports whether the header contains an included term and no excluded term
func (h HeaderRule) Matches(header string) bool {
	lower := strings.ToLower(header)
	if !containsAny(lower, h.Include) {
		return false
	}
	return !containsAny(lower, h.Exclude)
}

var (
	fieldNameRule   = HeaderRule{Include: []string{"field", "column", "name", "attribute", "term"}, Exclude: []string{"table", "schema", "type", "def"}}
	tableNameRule   = HeaderRule{Include: []string{"table", "entity", "schema", "domain"}}
	definitionRule  = HeaderRule{Include: []string{"def", "desc", "meaning", "comment", "note", "business", "spec"}}
	dataTypeRule    = HeaderRule{Include: []string{"type", "dtype", "datatype", "format"}, Exclude: []string{"table"}}
	sensitivityRule = HeaderRule{Include: []string{"sensit", "class", "confid", "security", "pii"}}
)

// DefaultSensitivity is assigned to dictionary fields without a classification
const DefaultSensitivity = "Internal"

// RowContext is what a column strategy can see while resolving a value
type RowContext struct {
	Row   Row
	Sheet string
}

// ColumnStrategy resolves one value from a row. Resolve reports false when
// the strategy does not apply, letting the next strategy in the chain try.
type ColumnStrategy struct {
	Name    string
	Resolve func(RowContext) (string, bool)
}

// ColumnChain is an ordered list of strategies; the first that applies wins
type ColumnChain []ColumnStrategy

// Resolve evaluates the chain and returns the winning value along with the
// name of the strategy that produced it
func (c ColumnChain) Resolve(ctx RowContext) (string, string) {
	for _, s := range c {
		if v, ok := s.Resolve(ctx); ok {
			return v, s.Name
		}
	}
	return "", ""
}

// byHeader picks the value of the first header in the row matching rule
func byHeader(name string, rule HeaderRule) ColumnStrategy {
	return ColumnStrategy{
		Name: name,
		Resolve: func(ctx RowContext) (string, bool) {
			for _, cell := range ctx.Row {
				if rule.Matches(cell.Header) {
					return cell.Value, true
				}
			}
			return "", false
		},
	}
}

// byPosition picks the value of the n-th header present in the row
func byPosition(name string, n int) ColumnStrategy {
	return ColumnStrategy{
		Name: name,
		Resolve: func(ctx RowContext) (string, bool) {
			if n < len(ctx.Row) {
				return ctx.Row[n].Value, true
			}
			return "", false
		},
	}
}

func sheetName() ColumnStrategy {
	return ColumnStrategy{
		Name: "sheet name",
		Resolve: func(ctx RowContext) (string, bool) {
			return ctx.Sheet, true
		},
	}
}

func constant(name, value string) ColumnStrategy {
	return ColumnStrategy{
		Name: name,
		Resolve: func(RowContext) (string, bool) {
			return value, true
		},
	}
}

// ColumnChains groups the strategies used to build a field record
type ColumnChains struct {
	FieldName   ColumnChain
	TableName   ColumnChain
	Definition  ColumnChain
	DataType    ColumnChain
	Sensitivity ColumnChain
}

// ChainsFor returns the column strategies for a record kind
func ChainsFor(kind Kind) ColumnChains {
	chains := ColumnChains{
		FieldName: ColumnChain{byHeader("field-name header", fieldNameRule), byPosition("first header", 0)},
		TableName: ColumnChain{byHeader("table-name header", tableNameRule), sheetName()},
	}
	if kind == KindDictionary {
		chains.Definition = ColumnChain{byHeader("definition header", definitionRule), constant("blank definition", "")}
		chains.DataType = ColumnChain{byHeader("data-type header", dataTypeRule)}
		chains.Sensitivity = ColumnChain{byHeader("sensitivity header", sensitivityRule), constant("default sensitivity", DefaultSensitivity)}
		return chains
	}
	chains.Definition = ColumnChain{byHeader("definition header", definitionRule), byPosition("second header", 1)}
	return chains
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
