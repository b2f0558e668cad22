package mcptools

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadata-validator/internal/metrics"
	"metadata-validator/internal/service"
)

const glossaryCSV = "Table,Field,Description\n" +
	"dim_customer,customer_id,Unique customer identifier\n" +
	"dim_customer,email,Customer email address\n"

const policyText = "Data Governance Handbook\n\nAll PII data must be encrypted at rest.\n"

func newTestTools(t *testing.T) *Tools {
	t.Helper()
	svc, err := service.New(metrics.NewMetrics(prometheus.NewRegistry()), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return New(svc)
}

func TestRegister(t *testing.T) {
	tools := newTestTools(t)
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0.0.0"}, nil)
	assert.NotPanics(t, func() {
		require.NoError(t, Register(server, tools))
	})
}

func TestFileInputRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.csv")
	require.NoError(t, os.WriteFile(path, []byte(glossaryCSV), 0o600))

	tests := []struct {
		name     string
		input    FileInput
		wantName string
		wantErr  bool
	}{
		{"path", FileInput{Path: path}, "terms.csv", false},
		{"inline", FileInput{FileName: "a.csv", Content: glossaryCSV}, "a.csv", false},
		{"base64", FileInput{FileName: "a.csv", ContentBase64: base64.StdEncoding.EncodeToString([]byte(glossaryCSV))}, "a.csv", false},
		{"missing file name", FileInput{Content: glossaryCSV}, "", true},
		{"bad base64", FileInput{FileName: "a.csv", ContentBase64: "!!!"}, "", true},
		{"nothing", FileInput{FileName: "a.csv"}, "", true},
		{"missing path", FileInput{Path: filepath.Join(t.TempDir(), "nope.csv")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, data, err := tt.input.read()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, glossaryCSV, string(data))
		})
	}
}

func TestLoadAndGetDataset(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	_, _, err := tools.GetDataset(ctx, nil, KindInput{Kind: "glossary"})
	assert.ErrorIs(t, err, service.ErrEmptySlot)

	_, res, err := tools.LoadFile(ctx, nil, LoadFileInput{Kind: "glossary", FileName: "terms.csv", Content: glossaryCSV})
	require.NoError(t, err)
	assert.Equal(t, 2, res.MatchCount)

	_, out, err := tools.GetDataset(ctx, nil, KindInput{Kind: "glossary"})
	require.NoError(t, err)
	assert.Len(t, out.Fields, 2)

	_, summary, err := tools.StoreSummary(ctx, nil, NoInput{})
	require.NoError(t, err)
	assert.Equal(t, "terms.csv", summary.Glossary)
	assert.Equal(t, 2, summary.GlossaryFields)
	assert.Equal(t, uint64(2), summary.IndexedDocuments)

	_, summary, err = tools.ClearDataset(ctx, nil, KindInput{Kind: "glossary"})
	require.NoError(t, err)
	assert.Empty(t, summary.Glossary)
	assert.Equal(t, uint64(0), summary.IndexedDocuments)
}

func TestLoadFileErrors(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	_, _, err := tools.LoadFile(ctx, nil, LoadFileInput{Kind: "invoices", FileName: "a.csv", Content: "x"})
	assert.Error(t, err)

	_, _, err = tools.LoadFile(ctx, nil, LoadFileInput{Kind: "glossary", FileName: "terms.pdf", Content: glossaryCSV})
	assert.Error(t, err)

	_, _, err = tools.LoadFile(ctx, nil, LoadFileInput{Kind: "dictionary", FileName: "dict.xlsx", Content: "PK\x03\x04broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse file")
}

func TestPolicyAndSearch(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	_, _, err := tools.PolicySummary(ctx, nil, NoInput{})
	assert.ErrorIs(t, err, service.ErrEmptySlot)

	_, _, err = tools.LoadFile(ctx, nil, LoadFileInput{Kind: "policy", FileName: "policy.txt", Content: policyText})
	require.NoError(t, err)

	_, summary, err := tools.PolicySummary(ctx, nil, NoInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RuleCount)

	_, out, err := tools.GetDataset(ctx, nil, KindInput{Kind: "policy"})
	require.NoError(t, err)
	require.NotNil(t, out.Policy)
	assert.Len(t, out.Policy.PolicyRules, 1)

	_, hits, err := tools.SearchMetadata(ctx, nil, SearchInput{Query: "encrypted", Types: []string{"rule"}})
	require.NoError(t, err)
	require.Equal(t, 1, hits.TotalHits)
	assert.Equal(t, "rule", hits.Results[0].Type)
	assert.Equal(t, "policy", hits.Results[0].Source)

	_, _, err = tools.SearchMetadata(ctx, nil, SearchInput{})
	assert.Error(t, err)
}

func TestScoreMatch(t *testing.T) {
	tools := newTestTools(t)

	tests := []struct {
		input     ScoreInput
		wantScore int
		wantBand  string
		wantErr   bool
	}{
		{ScoreInput{DescriptionMatch: 80, TypeMatch: true}, 68, "medium", false},
		{ScoreInput{DescriptionMatch: 100, TypeMatch: true, SensitivityMatch: true}, 100, "high", false},
		{ScoreInput{DescriptionMatch: 0}, 0, "low", false},
		{ScoreInput{DescriptionMatch: -1}, 0, "", true},
		{ScoreInput{DescriptionMatch: 101}, 0, "", true},
	}
	for _, tt := range tests {
		_, out, err := tools.ScoreMatch(context.Background(), nil, tt.input)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.wantScore, out.Score)
		assert.Equal(t, tt.wantBand, out.Band)
	}
}

func TestCompareAndValidate(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()
	ref := FileInput{FileName: "ref.csv", Content: glossaryCSV}

	_, _, err := tools.CompareDatasets(ctx, nil, CompareInput{Kind: "glossary", Reference: ref})
	assert.ErrorIs(t, err, service.ErrEmptySlot)

	_, _, err = tools.CompareDatasets(ctx, nil, CompareInput{Kind: "policy", Reference: ref})
	assert.Error(t, err)

	_, _, err = tools.LoadFile(ctx, nil, LoadFileInput{Kind: "glossary", FileName: "terms.csv", Content: glossaryCSV})
	require.NoError(t, err)

	_, report, err := tools.CompareDatasets(ctx, nil, CompareInput{Kind: "glossary", Reference: ref})
	require.NoError(t, err)
	assert.Len(t, report.Comparisons, 2)
	assert.Equal(t, "glossary", report.Kind)
	assert.NotEmpty(t, report.GeneratedAt)

	_, _, err = tools.CompareDatasets(ctx, nil, CompareInput{Kind: "glossary", Reference: ref, Export: true})
	assert.ErrorIs(t, err, service.ErrNoExporter)

	_, _, err = tools.ValidateDataset(ctx, nil, ValidateInput{Kind: "glossary"})
	assert.ErrorIs(t, err, service.ErrNoGenerator)
}

func TestExportStoreWithoutTarget(t *testing.T) {
	tools := newTestTools(t)
	_, _, err := tools.ExportStore(context.Background(), nil, NoInput{})
	assert.ErrorIs(t, err, service.ErrNoExporter)
}
