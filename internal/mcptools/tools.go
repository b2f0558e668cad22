// Package mcptools exposes the validator as Model Context Protocol tools
package mcptools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"metadata-validator/internal/models"
	"metadata-validator/internal/processor"
	"metadata-validator/internal/scoring"
	"metadata-validator/internal/service"
	"metadata-validator/internal/store"
)

// FileInput names a file either by path or by inline content
type FileInput struct {
	Path          string `json:"path,omitempty" jsonschema:"Path of the file to read"`
	FileName      string `json:"file_name,omitempty" jsonschema:"File name used to pick the parser when content is given inline"`
	Content       string `json:"content,omitempty" jsonschema:"Inline text content (csv, txt, json)"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"Inline binary content, base64 encoded (xlsx, xls, pdf, docx, parquet)"`
}

// read resolves the input to a file name and its bytes
func (f FileInput) read() (string, []byte, error) {
	switch {
	case f.Path != "":
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read file: %w", err)
		}
		return filepath.Base(f.Path), data, nil
	case f.FileName == "":
		return "", nil, fmt.Errorf("file_name is required with inline content")
	case f.ContentBase64 != "":
		data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid base64 content: %w", err)
		}
		return f.FileName, data, nil
	case f.Content != "":
		return f.FileName, []byte(f.Content), nil
	}
	return "", nil, fmt.Errorf("one of path, content or content_base64 is required")
}

// LoadFileInput defines input for load_metadata_file
type LoadFileInput struct {
	Kind          string `json:"kind" jsonschema:"One of glossary, dictionary, policy or sample"`
	Path          string `json:"path,omitempty" jsonschema:"Path of the file to read"`
	FileName      string `json:"file_name,omitempty" jsonschema:"File name used to pick the parser when content is given inline"`
	Content       string `json:"content,omitempty" jsonschema:"Inline text content (csv, txt, json)"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"Inline binary content, base64 encoded (xlsx, xls, pdf, docx, parquet)"`
}

// KindInput selects a store slot
type KindInput struct {
	Kind string `json:"kind" jsonschema:"One of glossary, dictionary, policy or sample"`
}

// DatasetOutput holds whichever slot was requested
type DatasetOutput struct {
	Kind   string                       `json:"kind"`
	Fields []models.FieldRecord         `json:"fields,omitempty"`
	Policy *models.ParsedPolicyDocument `json:"policy,omitempty"`
	Sample *models.DatasetProfile       `json:"sample,omitempty"`
}

// ScoreInput defines input for score_match
type ScoreInput struct {
	DescriptionMatch float64 `json:"description_match" jsonschema:"Description similarity percentage between 0 and 100"`
	TypeMatch        bool    `json:"type_match" jsonschema:"Whether the data types agree"`
	SensitivityMatch bool    `json:"sensitivity_match" jsonschema:"Whether the sensitivity classifications agree"`
}

// ScoreOutput is the composite score and its band
type ScoreOutput struct {
	Score  int    `json:"score"`
	Band   string `json:"band"`
	Status string `json:"status"`
}

// CompareInput defines input for compare_datasets
type CompareInput struct {
	Kind      string    `json:"kind" jsonschema:"glossary or dictionary"`
	Reference FileInput `json:"reference" jsonschema:"Reference workbook the stored dataset is graded against"`
	Export    bool      `json:"export,omitempty" jsonschema:"Also write the report to the export database"`
}

// ValidateInput defines input for validate_dataset
type ValidateInput struct {
	Kind   string `json:"kind" jsonschema:"glossary or dictionary"`
	Export bool   `json:"export,omitempty" jsonschema:"Also write the report to the export database"`
}

// ReportOutput is a validation report
type ReportOutput struct {
	Kind        string                   `json:"kind"`
	FileName    string                   `json:"file_name"`
	GeneratedAt string                   `json:"generated_at"`
	Comparisons []models.FieldComparison `json:"comparisons"`
	Summary     models.ValidationSummary `json:"summary"`
	Alerts      []models.Alert           `json:"alerts,omitempty"`
}

// SearchInput defines input for search_metadata
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"Full-text query over fields, rules, sections, domains and columns"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
	Types      []string `json:"types,omitempty" jsonschema:"Restrict to document types: field, rule, section, domain, column"`
}

// SearchHit is one search match
type SearchHit struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Source   string  `json:"source"`
	Title    string  `json:"title"`
	Body     string  `json:"body,omitempty"`
	Table    string  `json:"table,omitempty"`
	Category string  `json:"category,omitempty"`
	Severity string  `json:"severity,omitempty"`
	Score    float64 `json:"score"`
}

// SearchOutput defines output for search_metadata
type SearchOutput struct {
	Query     string      `json:"query"`
	TotalHits int         `json:"total_hits"`
	Results   []SearchHit `json:"results"`
}

// NoInput is the input of tools that take no arguments
type NoInput struct{}

// StoreSummaryOutput describes what is loaded
type StoreSummaryOutput struct {
	Glossary   string `json:"glossary,omitempty"`
	Dictionary string `json:"dictionary,omitempty"`
	Policy     string `json:"policy,omitempty"`
	Sample     string `json:"sample,omitempty"`

	GlossaryFields   int    `json:"glossary_fields"`
	DictionaryFields int    `json:"dictionary_fields"`
	PolicyRules      int    `json:"policy_rules"`
	SampleColumns    int    `json:"sample_columns"`
	IndexedDocuments uint64 `json:"indexed_documents"`
}

// ExportOutput reports an export
type ExportOutput struct {
	Target      string `json:"target"`
	RowsWritten int    `json:"rows_written"`
}

// Tools implements the MCP tool handlers over a validator service
type Tools struct {
	svc *service.Service
}

// New creates the tool handlers
func New(svc *service.Service) *Tools {
	return &Tools{svc: svc}
}

// LoadFile parses a file into the store
func (t *Tools) LoadFile(ctx context.Context, req *mcp.CallToolRequest, input LoadFileInput) (*mcp.CallToolResult, service.IngestResult, error) {
	kind, err := processor.ParseKind(input.Kind)
	if err != nil {
		return nil, service.IngestResult{}, err
	}
	file := FileInput{Path: input.Path, FileName: input.FileName, Content: input.Content, ContentBase64: input.ContentBase64}
	name, data, err := file.read()
	if err != nil {
		return nil, service.IngestResult{}, err
	}
	res, err := t.svc.Ingest(kind, name, data)
	if err != nil {
		return nil, service.IngestResult{}, toolError(err)
	}
	return nil, res, nil
}

// GetDataset returns the stored contents of one slot
func (t *Tools) GetDataset(ctx context.Context, req *mcp.CallToolRequest, input KindInput) (*mcp.CallToolResult, DatasetOutput, error) {
	kind, err := processor.ParseKind(input.Kind)
	if err != nil {
		return nil, DatasetOutput{}, err
	}

	out := DatasetOutput{Kind: string(kind)}
	switch kind {
	case processor.KindGlossary, processor.KindDictionary:
		d, err := t.svc.Dataset(kind)
		if err != nil {
			return nil, DatasetOutput{}, err
		}
		out.Fields = d.Fields
		return nil, out, nil
	case processor.KindPolicy:
		out.Policy = t.svc.Store.Policy()
	case processor.KindSample:
		out.Sample = t.svc.Store.Sample()
	}
	if out.Policy == nil && out.Sample == nil {
		return nil, DatasetOutput{}, fmt.Errorf("%w: %s", service.ErrEmptySlot, kind)
	}
	return nil, out, nil
}

// PolicySummary aggregates the stored policy document
func (t *Tools) PolicySummary(ctx context.Context, req *mcp.CallToolRequest, input NoInput) (*mcp.CallToolResult, models.PolicySummary, error) {
	s, err := t.svc.PolicySummary()
	if err != nil {
		return nil, models.PolicySummary{}, err
	}
	return nil, s, nil
}

// ScoreMatch computes a composite match score
func (t *Tools) ScoreMatch(ctx context.Context, req *mcp.CallToolRequest, input ScoreInput) (*mcp.CallToolResult, ScoreOutput, error) {
	if input.DescriptionMatch < 0 || input.DescriptionMatch > 100 {
		return nil, ScoreOutput{}, fmt.Errorf("description_match must be between 0 and 100")
	}
	score := scoring.Score(input.DescriptionMatch, input.TypeMatch, input.SensitivityMatch)
	band := scoring.BandFor(score)
	return nil, ScoreOutput{Score: score, Band: band.Name, Status: band.Status}, nil
}

// CompareDatasets grades the stored dataset against a reference workbook
func (t *Tools) CompareDatasets(ctx context.Context, req *mcp.CallToolRequest, input CompareInput) (*mcp.CallToolResult, ReportOutput, error) {
	kind, err := datasetKind(input.Kind)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	name, data, err := input.Reference.read()
	if err != nil {
		return nil, ReportOutput{}, err
	}
	report, err := t.svc.Compare(ctx, kind, name, data)
	if err != nil {
		return nil, ReportOutput{}, toolError(err)
	}
	return t.finishReport(ctx, report, input.Export)
}

// ValidateDataset grades the stored dataset against generated descriptions
func (t *Tools) ValidateDataset(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, ReportOutput, error) {
	kind, err := datasetKind(input.Kind)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	report, err := t.svc.Validate(ctx, kind)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	return t.finishReport(ctx, report, input.Export)
}

func (t *Tools) finishReport(ctx context.Context, report models.ValidationReport, export bool) (*mcp.CallToolResult, ReportOutput, error) {
	if export {
		if _, err := t.svc.Export(ctx, &report); err != nil {
			return nil, ReportOutput{}, err
		}
	}
	return nil, ReportOutput{
		Kind:        report.Kind,
		FileName:    report.FileName,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Comparisons: report.Comparisons,
		Summary:     report.Summary,
		Alerts:      report.Alerts,
	}, nil
}

// SearchMetadata runs a full-text query over the store
func (t *Tools) SearchMetadata(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	res, err := t.svc.Search.Search(input.Query, input.MaxResults, input.Types...)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Query: res.Query, TotalHits: res.TotalHits, Results: make([]SearchHit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Results = append(out.Results, SearchHit{
			ID:       h.ID,
			Type:     h.Type,
			Source:   h.Source,
			Title:    h.Title,
			Body:     h.Body,
			Table:    h.Table,
			Category: h.Category,
			Severity: h.Severity,
			Score:    h.Score,
		})
	}
	return nil, out, nil
}

// StoreSummary describes what is currently loaded
func (t *Tools) StoreSummary(ctx context.Context, req *mcp.CallToolRequest, input NoInput) (*mcp.CallToolResult, StoreSummaryOutput, error) {
	snap := t.svc.Store.Snapshot()
	var out StoreSummaryOutput
	if snap.Glossary != nil {
		out.Glossary = snap.Glossary.FileName
		out.GlossaryFields = len(snap.Glossary.Fields)
	}
	if snap.Dictionary != nil {
		out.Dictionary = snap.Dictionary.FileName
		out.DictionaryFields = len(snap.Dictionary.Fields)
	}
	if snap.Policy != nil {
		out.Policy = snap.Policy.FileName
		out.PolicyRules = len(snap.Policy.PolicyRules)
	}
	if snap.Sample != nil {
		out.Sample = snap.Sample.FileName
		out.SampleColumns = len(snap.Sample.Columns)
	}
	out.IndexedDocuments, _ = t.svc.Search.DocCount()
	return nil, out, nil
}

// ClearDataset empties one store slot
func (t *Tools) ClearDataset(ctx context.Context, req *mcp.CallToolRequest, input KindInput) (*mcp.CallToolResult, StoreSummaryOutput, error) {
	kind, err := processor.ParseKind(input.Kind)
	if err != nil {
		return nil, StoreSummaryOutput{}, err
	}
	t.svc.Store.Clear(store.Slot(kind))
	return t.StoreSummary(ctx, req, NoInput{})
}

// ExportStore writes the store contents to the export database
func (t *Tools) ExportStore(ctx context.Context, req *mcp.CallToolRequest, input NoInput) (*mcp.CallToolResult, ExportOutput, error) {
	n, err := t.svc.Export(ctx, nil)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	return nil, ExportOutput{Target: t.svc.ExportName, RowsWritten: n}, nil
}

func datasetKind(s string) (processor.Kind, error) {
	kind, err := processor.ParseKind(s)
	if err != nil {
		return "", err
	}
	if kind != processor.KindGlossary && kind != processor.KindDictionary {
		return "", fmt.Errorf("kind must be glossary or dictionary, got %q", kind)
	}
	return kind, nil
}

// toolError prefixes decode failures the way the HTTP API reports them
func toolError(err error) error {
	var decodeErr *processor.DecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Errorf("could not parse file: %w", err)
	}
	return err
}
