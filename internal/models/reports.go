package models

import "time"

// ColumnProfile describes the quality of one column of a sample dataset
type ColumnProfile struct {
	Name         string  `json:"name"`
	RowCount     int     `json:"row_count"`
	NonEmpty     int     `json:"non_empty"`
	Distinct     int     `json:"distinct"`
	Completeness float64 `json:"completeness"`
	Uniqueness   float64 `json:"uniqueness"`
}

// DatasetProfile is the column-level profile of an uploaded sample dataset
type DatasetProfile struct {
	FileName string          `json:"file_name"`
	Format   string          `json:"format"`
	RowCount int             `json:"row_count"`
	Columns  []ColumnProfile `json:"columns"`
}

// GeneratedDescription is a reference description produced for a field
type GeneratedDescription struct {
	Definition  string `json:"definition"`
	DataType    string `json:"data_type,omitempty"`
	Sensitivity string `json:"sensitivity,omitempty"`
}

// FieldComparison grades one field against its generated reference
type FieldComparison struct {
	Field            FieldRecord          `json:"field"`
	Generated        GeneratedDescription `json:"generated"`
	DescriptionMatch float64              `json:"description_match"`
	TypeMatch        bool                 `json:"type_match"`
	SensitivityMatch bool                 `json:"sensitivity_match"`
	Score            int                  `json:"score"`
	Band             string               `json:"band"`
}

// ValidationSummary holds the KPI figures of a validation run
type ValidationSummary struct {
	TotalFields int     `json:"total_fields"`
	TotalTables int     `json:"total_tables"`
	HighMatch   int     `json:"high_match"`
	MediumMatch int     `json:"medium_match"`
	LowMatch    int     `json:"low_match"`
	AvgScore    float64 `json:"avg_score"`
	Unscored    int     `json:"unscored"`
}

// Alert is a notable finding raised while validating
type Alert struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ValidationReport is the outcome of grading a dataset
type ValidationReport struct {
	Kind        string            `json:"kind"`
	FileName    string            `json:"file_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Comparisons []FieldComparison `json:"comparisons"`
	Summary     ValidationSummary `json:"summary"`
	Alerts      []Alert           `json:"alerts,omitempty"`
}

// PolicySummary aggregates the rules of a policy document
type PolicySummary struct {
	FileName       string         `json:"file_name"`
	DomainCount    int            `json:"domain_count"`
	RuleCount      int            `json:"rule_count"`
	SectionCount   int            `json:"section_count"`
	CategoryCounts map[string]int `json:"category_counts"`
	SeverityCounts map[string]int `json:"severity_counts"`
	RulesByDomain  map[string]int `json:"rules_by_domain"`
}
