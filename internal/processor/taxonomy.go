package processor

import (
	"strings"

	"metadata-validator/internal/models"
)

// KeywordGroup maps a label to the keywords that identify it
type KeywordGroup struct {
	Name     string
	Keywords []string
}

// MatchedKeywords returns the keywords of the group contained in lower-cased text
func (g KeywordGroup) MatchedKeywords(lower string) []string {
	var found []string
	for _, kw := range g.Keywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// DefaultDomains lists the business domains recognized in policy documents
var DefaultDomains = []KeywordGroup{
	{Name: "Real Estate", Keywords: []string{"real estate", "property", "lease", "tenant", "capex", "valuation", "esg", "assets"}},
	{Name: "Fixed Income", Keywords: []string{"fixed income", "bond", "issuer", "duration", "yield", "credit", "fi_"}},
	{Name: "Jennison", Keywords: []string{"jennison", "equity research", "coverage", "alpha", "analyst"}},
	{Name: "PGIM Quant", Keywords: []string{"quant", "factor", "model", "backtest", "signal", "feature store"}},
	{Name: "Private Credit", Keywords: []string{"private credit", "borrower", "sponsor", "loan", "covenant", "capital call"}},
	{Name: "Client & Investor", Keywords: []string{"client", "investor", "mandate", "exposure", "commitment", "allocation"}},
	{Name: "Sales & CRM", Keywords: []string{"sales", "crm", "account", "contact", "opportunity", "meeting", "pipeline"}},
}

// AllDomains is the applicability tag of rules that name no domain
const AllDomains = "All Domains"

// GeneralCategory is assigned to rules matching no category
const GeneralCategory = "General"

// CategoryTable classifies rule statements. Every group is tested in order
// and a later match overrides an earlier one, so the last matching group
// decides the category. Reorder the groups to change precedence.
type CategoryTable []KeywordGroup

// DefaultCategories lists the policy categories in override order
var DefaultCategories = CategoryTable{
	{Name: "Data Classification", Keywords: []string{"classification", "sensitivity", "confidential", "pii", "restricted", "internal", "public"}},
	{Name: "Data Retention", Keywords: []string{"retention", "archive", "delete", "purge", "lifecycle", "expiration"}},
	{Name: "Access Control", Keywords: []string{"access", "permission", "role", "authorization", "rbac", "privilege"}},
	{Name: "Data Quality", Keywords: []string{"quality", "completeness", "accuracy", "consistency", "validation", "integrity"}},
	{Name: "Compliance", Keywords: []string{"compliance", "regulatory", "gdpr", "ccpa", "sox", "audit", "governance"}},
	{Name: "Data Lineage", Keywords: []string{"lineage", "provenance", "source", "transformation", "origin", "traceability"}},
}

// Categorize returns the last matching category, or GeneralCategory
func (t CategoryTable) Categorize(statement string) string {
	lower := strings.ToLower(statement)
	category := GeneralCategory
	for _, group := range t {
		if len(group.MatchedKeywords(lower)) > 0 {
			category = group.Name
		}
	}
	return category
}

// SeverityLevel pairs a severity with its trigger words
type SeverityLevel struct {
	Severity models.Severity
	Keywords []string
}

// DefaultSeverities is checked top-down; the first level with a hit wins
var DefaultSeverities = []SeverityLevel{
	{Severity: models.SeverityCritical, Keywords: []string{"critical", "mandatory", "must", "immediately"}},
	{Severity: models.SeverityHigh, Keywords: []string{"high", "priority", "important", "required"}},
	{Severity: models.SeverityLow, Keywords: []string{"low", "optional", "may", "consider"}},
}

// DefaultSeverity applies when no severity keyword occurs
const DefaultSeverity = models.SeverityMedium
