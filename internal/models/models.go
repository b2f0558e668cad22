package models

// FieldRecord represents one field extracted from a glossary or dictionary sheet
type FieldRecord struct {
	FieldName   string `json:"field_name"`
	TableName   string `json:"table_name"`
	Definition  string `json:"definition"`
	DataType    string `json:"data_type,omitempty"`
	Sensitivity string `json:"sensitivity,omitempty"`
	SheetName   string `json:"sheet_name,omitempty"`
}

// ParsedDataset contains every field extracted from one workbook
type ParsedDataset struct {
	Fields          []FieldRecord `json:"fields"`
	FileName        string        `json:"file_name"`
	SheetCount      int           `json:"sheet_count"`
	SheetsProcessed []string      `json:"sheets_processed"`
}

// Tables returns the distinct table names referenced by the dataset, in first-seen order
func (d *ParsedDataset) Tables() []string {
	seen := make(map[string]struct{})
	var tables []string
	for _, f := range d.Fields {
		if _, ok := seen[f.TableName]; ok {
			continue
		}
		seen[f.TableName] = struct{}{}
		tables = append(tables, f.TableName)
	}
	return tables
}

// DomainHierarchyEntry represents a business domain recognized in a policy document
type DomainHierarchyEntry struct {
	Name        string   `json:"name"`
	SubDomains  []string `json:"sub_domains"`
	Tables      []string `json:"tables"`
	Description string   `json:"description,omitempty"`
}

// Severity grades how strongly a policy rule is worded
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// PolicyRule represents a governance statement mined from a policy document
type PolicyRule struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	Severity          Severity `json:"severity"`
	ApplicableDomains []string `json:"applicable_domains"`
}

// PolicyMetadata holds the document header fields that could be located
type PolicyMetadata struct {
	Title         string `json:"title,omitempty"`
	Version       string `json:"version,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
	Owner         string `json:"owner,omitempty"`
	LastReviewed  string `json:"last_reviewed,omitempty"`
}

// Count returns how many metadata fields were found
func (m PolicyMetadata) Count() int {
	n := 0
	for _, v := range []string{m.Title, m.Version, m.EffectiveDate, m.Owner, m.LastReviewed} {
		if v != "" {
			n++
		}
	}
	return n
}

// DocumentSection is a named block of a policy document
type DocumentSection struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ParsedPolicyDocument aggregates everything extracted from one policy document
type ParsedPolicyDocument struct {
	FileName        string                 `json:"file_name"`
	FileType        string                 `json:"file_type"`
	DomainHierarchy []DomainHierarchyEntry `json:"domain_hierarchy"`
	PolicyRules     []PolicyRule           `json:"policy_rules"`
	Metadata        PolicyMetadata         `json:"metadata"`
	RawContent      string                 `json:"raw_content"`
	Sections        []DocumentSection      `json:"extracted_sections"`
}

// Result wraps extracted data with coverage information so that callers can
// distinguish "nothing found" from "extraction likely failed"
type Result[T any] struct {
	Data       T        `json:"data"`
	MatchCount int      `json:"match_count"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Empty reports whether nothing at all was extracted
func (r Result[T]) Empty() bool {
	return r.MatchCount == 0
}
