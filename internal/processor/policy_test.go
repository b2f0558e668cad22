package processor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadata-validator/internal/models"
)

func TestExtractRulesSingleStatement(t *testing.T) {
	rules := NewPolicyAnalyzer().ExtractRules("All PII data must be encrypted at rest.")

	require.Len(t, rules, 1)
	assert.Equal(t, "Policy Rule 1", rules[0].Name)
	assert.Equal(t, "All PII data must be encrypted at rest.", rules[0].Description)
	assert.Equal(t, "Data Classification", rules[0].Category)
	assert.Equal(t, models.SeverityCritical, rules[0].Severity)
	assert.Equal(t, []string{AllDomains}, rules[0].ApplicableDomains)
}

func TestExtractRulesDeduplicates(t *testing.T) {
	text := "All PII data must be encrypted at rest.\nAll PII data must be encrypted at rest."
	assert.Len(t, NewPolicyAnalyzer().ExtractRules(text), 1)
}

func TestExtractRulesCap(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&sb, "Users must rotate credential set %d every quarter. ", i)
	}

	rules := NewPolicyAnalyzer().ExtractRules(sb.String())

	require.Len(t, rules, MaxPolicyRules)
	for i, r := range rules {
		assert.Equal(t, fmt.Sprintf("Users must rotate credential set %d every quarter.", i+1), r.Description)
		assert.Equal(t, fmt.Sprintf("Policy Rule %d", i+1), r.Name)
	}
}

func TestExtractRulesClauseLength(t *testing.T) {
	a := NewPolicyAnalyzer()

	assert.Empty(t, a.ExtractRules("Staff must log in."))
	assert.Empty(t, a.ExtractRules("Staff must "+strings.Repeat("x", 300)+"."))
}

func TestClassifyRule(t *testing.T) {
	a := NewPolicyAnalyzer()

	tests := []struct {
		name      string
		statement string
		category  string
		severity  models.Severity
		domains   []string
	}{
		{
			name:      "last category wins",
			statement: "Policy: Restricted data access requires audit approval.",
			category:  "Compliance",
			severity:  models.SeverityMedium,
			domains:   []string{AllDomains},
		},
		{
			name:      "high severity",
			statement: "Lineage documentation is required for every bond feed.",
			category:  "Data Lineage",
			severity:  models.SeverityHigh,
			domains:   []string{"Fixed Income"},
		},
		{
			name:      "low severity",
			statement: "Teams may archive stale loan records.",
			category:  "Data Retention",
			severity:  models.SeverityLow,
			domains:   []string{"Private Credit"},
		},
		{
			name:      "general category",
			statement: "Weekly reports go out on Fridays.",
			category:  GeneralCategory,
			severity:  models.SeverityMedium,
			domains:   []string{AllDomains},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := a.classifyRule(tt.statement, 1)
			assert.Equal(t, tt.category, rule.Category)
			assert.Equal(t, tt.severity, rule.Severity)
			assert.Equal(t, tt.domains, rule.ApplicableDomains)
		})
	}
}

func TestCategoryTableOrderIsConfigurable(t *testing.T) {
	statement := "Audit access logs monthly."

	assert.Equal(t, "Compliance", DefaultCategories.Categorize(statement))

	reordered := CategoryTable{DefaultCategories[4], DefaultCategories[2]}
	assert.Equal(t, "Access Control", reordered.Categorize(statement))
}

func TestExtractDomainHierarchy(t *testing.T) {
	text := "Fixed Income - Corporate Bonds\n" +
		"The bond_holdings and issuer_master tables feed yield analytics.\n"

	entries := NewPolicyAnalyzer().ExtractDomainHierarchy(text)

	require.Len(t, entries, 1)
	assert.Equal(t, "Fixed Income", entries[0].Name)
	assert.Equal(t, []string{"Corporate Bonds"}, entries[0].SubDomains)
	assert.Equal(t, []string{"bond_holdings", "issuer_master"}, entries[0].Tables)
	assert.Equal(t, "Domain identified from 4 keyword matches", entries[0].Description)
}

func TestExtractDomainTablesCap(t *testing.T) {
	var tokens []string
	for i := 0; i < 15; i++ {
		tokens = append(tokens, fmt.Sprintf("loan_table_%c", 'a'+i))
	}
	tokens = append(tokens, "LOAN_TABLE_A")

	tables := extractDomainTables(tokens, []string{"loan"})
	assert.Len(t, tables, MaxDomainTables)
	assert.Equal(t, "loan_table_a", tables[0])
}

func TestExtractSubDomainsCapAndUnique(t *testing.T) {
	phrases := []string{"Alpha Curve", "Beta Curve", "Alpha Curve", "Gamma Curve", "Delta Curve", "Epsilon Curve", "Zeta Curve", "Eta Curve"}
	var sb strings.Builder
	for _, p := range phrases {
		sb.WriteString("Bond: " + p + "\n")
	}

	subs := extractSubDomains(sb.String(), []string{"bond"})
	assert.Len(t, subs, MaxSubDomains)
	assert.Equal(t, []string{"Alpha Curve", "Beta Curve", "Gamma Curve", "Delta Curve", "Epsilon Curve", "Zeta Curve"}, subs)

	entries := NewPolicyAnalyzer().ExtractDomainHierarchy(sb.String())
	for _, e := range entries {
		if e.Name == "Fixed Income" {
			assert.Equal(t, subs, e.SubDomains)
			return
		}
	}
	t.Fatal("Fixed Income domain not found")
}

func TestExtractSubDomainsSkipsLongPhrases(t *testing.T) {
	longest := "A" + strings.Repeat("b", maxSubDomainLength-2)
	tooLong := "A" + strings.Repeat("b", maxSubDomainLength-1)
	text := "Bond - " + tooLong + "\n" +
		"Bond - " + longest + "\n" +
		"Bond - Short Curve\n"

	subs := extractSubDomains(text, []string{"bond"})
	assert.Equal(t, []string{longest, "Short Curve"}, subs)
}

func TestExtractMetadata(t *testing.T) {
	text := "Data Governance Policy Handbook\n" +
		"Version: 2.1\n" +
		"Effective Date: 01/15/2024\n" +
		"Owner: Data Governance Office\n" +
		"Last Reviewed: March 3, 2024\n"

	meta := NewPolicyAnalyzer().ExtractMetadata(text)

	assert.Equal(t, models.PolicyMetadata{
		Title:         "Data Governance Policy Handbook",
		Version:       "2.1",
		EffectiveDate: "01/15/2024",
		Owner:         "Data Governance Office",
		LastReviewed:  "March 3, 2024",
	}, meta)
	assert.Equal(t, 5, meta.Count())
}

func TestExtractMetadataAbsent(t *testing.T) {
	meta := NewPolicyAnalyzer().ExtractMetadata("nothing to see here")
	assert.Equal(t, models.PolicyMetadata{}, meta)
}

func TestExtractSections(t *testing.T) {
	text := "1. Purpose\n" +
		"This policy defines how enterprise data is classified and protected.\n" +
		"2. Scope\n" +
		"Short.\n" +
		"3. Retention Rules\n" +
		"Records must be retained for seven years before purge."

	sections := NewPolicyAnalyzer().ExtractSections(text)

	require.Len(t, sections, 2)
	assert.Equal(t, "Purpose", sections[0].Name)
	assert.Equal(t, "This policy defines how enterprise data is classified and protected.", sections[0].Content)
	assert.Equal(t, "Retention Rules", sections[1].Name)
}

func TestExtractSectionsTruncates(t *testing.T) {
	text := "## Overview\n" + strings.Repeat("a", 600)

	sections := NewPolicyAnalyzer().ExtractSections(text)

	require.Len(t, sections, 1)
	assert.Equal(t, strings.Repeat("a", 500)+"...", sections[0].Content)
}

func TestExtractSectionsCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "Heading %c\nthis paragraph body is long enough to count.\n", 'A'+i)
	}

	sections := NewPolicyAnalyzer().ExtractSections(sb.String())

	require.Len(t, sections, MaxSections)
	assert.Equal(t, "Heading A", sections[0].Name)
	assert.Equal(t, "Heading J", sections[9].Name)
}

func TestAnalyze(t *testing.T) {
	text := "Enterprise Data Handbook\r\n" +
		"Version: 1.0\r\n" +
		"Access Control\r\n" +
		"All client data must be reviewed by the owning team every quarter.\r\n"

	result := NewPolicyAnalyzer().Analyze(text, "governance.txt")
	doc := result.Data

	assert.Equal(t, "governance.txt", doc.FileName)
	assert.Equal(t, "TXT", doc.FileType)
	assert.Equal(t, text, doc.RawContent)
	require.Len(t, doc.PolicyRules, 1)
	assert.Equal(t, "All client data must be reviewed by the owning team every quarter.", doc.PolicyRules[0].Description)
	assert.Equal(t, []string{"Client & Investor"}, doc.PolicyRules[0].ApplicableDomains)
	assert.Equal(t, "1.0", doc.Metadata.Version)
	assert.False(t, result.Empty())
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	result := NewPolicyAnalyzer().Analyze("", "empty.txt")

	assert.True(t, result.Empty())
	assert.NotNil(t, result.Data.PolicyRules)
	assert.NotNil(t, result.Data.DomainHierarchy)
	assert.NotNil(t, result.Data.Sections)
	assert.Equal(t, []string{
		"document contains no text",
		"no domains recognized",
		"no policy rules matched",
		"no document metadata found",
		"no sections found",
	}, result.Warnings)
}
