package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"metadata-validator/internal/models"
)

// PolicyAnalyzer mines structure out of free-text governance documents.
// All tables are exported so callers can tune the heuristics.
type PolicyAnalyzer struct {
	Domains      []KeywordGroup
	Categories   CategoryTable
	Severities   []SeverityLevel
	RulePatterns []*regexp.Regexp
	Probes       []MetadataProbe
	MaxRules     int
	MaxSections  int

	decoder *DocumentDecoder
}

// NewPolicyAnalyzer creates an analyzer with the default tables
func NewPolicyAnalyzer() *PolicyAnalyzer {
	return &PolicyAnalyzer{
		Domains:      DefaultDomains,
		Categories:   DefaultCategories,
		Severities:   DefaultSeverities,
		RulePatterns: DefaultRulePatterns,
		Probes:       DefaultMetadataProbes,
		MaxRules:     MaxPolicyRules,
		MaxSections:  MaxSections,
		decoder:      NewDocumentDecoder(),
	}
}

// policyStage fills one part of the document and reports how many items it found
type policyStage struct {
	name  string
	empty string
	run   func(a *PolicyAnalyzer, text string, doc *models.ParsedPolicyDocument) int
}

var policyStages = []policyStage{
	{
		name:  "domains",
		empty: "no domains recognized",
		run: func(a *PolicyAnalyzer, text string, doc *models.ParsedPolicyDocument) int {
			doc.DomainHierarchy = a.ExtractDomainHierarchy(text)
			return len(doc.DomainHierarchy)
		},
	},
	{
		name:  "rules",
		empty: "no policy rules matched",
		run: func(a *PolicyAnalyzer, text string, doc *models.ParsedPolicyDocument) int {
			doc.PolicyRules = a.ExtractRules(text)
			return len(doc.PolicyRules)
		},
	},
	{
		name:  "metadata",
		empty: "no document metadata found",
		run: func(a *PolicyAnalyzer, text string, doc *models.ParsedPolicyDocument) int {
			doc.Metadata = a.ExtractMetadata(text)
			return doc.Metadata.Count()
		},
	},
	{
		name:  "sections",
		empty: "no sections found",
		run: func(a *PolicyAnalyzer, text string, doc *models.ParsedPolicyDocument) int {
			doc.Sections = a.ExtractSections(text)
			return len(doc.Sections)
		},
	},
}

// Analyze runs every extraction stage over already decoded text. It never
// fails: stages that find nothing leave a warning on the result instead.
func (a *PolicyAnalyzer) Analyze(text, fileName string) models.Result[models.ParsedPolicyDocument] {
	doc := models.ParsedPolicyDocument{
		FileName:   fileName,
		FileType:   FileType(fileName),
		RawContent: text,
	}
	result := models.Result[models.ParsedPolicyDocument]{Warnings: []string{}}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(normalized) == "" {
		result.Warnings = append(result.Warnings, "document contains no text")
	}

	for _, stage := range policyStages {
		n := stage.run(a, normalized, &doc)
		result.MatchCount += n
		if n == 0 {
			result.Warnings = append(result.Warnings, stage.empty)
		}
	}

	result.Data = doc
	return result
}

// AnalyzeBytes decodes a document according to its file name and analyzes the text
func (a *PolicyAnalyzer) AnalyzeBytes(data []byte, fileName string) (models.Result[models.ParsedPolicyDocument], error) {
	text, err := a.decoder.Decode(data, fileName)
	if err != nil {
		return models.Result[models.ParsedPolicyDocument]{}, err
	}
	return a.Analyze(text, fileName), nil
}

// AnalyzeFile reads and analyzes a policy document from disk
func (a *PolicyAnalyzer) AnalyzeFile(filePath string) (models.Result[models.ParsedPolicyDocument], error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.Result[models.ParsedPolicyDocument]{}, fmt.Errorf("failed to read file: %w", err)
	}
	return a.AnalyzeBytes(data, filepath.Base(filePath))
}
