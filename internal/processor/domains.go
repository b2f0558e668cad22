package processor

import (
	"fmt"
	"regexp"
	"strings"

	"metadata-validator/internal/models"
)

const (
	// Maximum number of tables listed per domain
	MaxDomainTables = 10
	// Maximum number of sub-domains listed per domain
	MaxSubDomains = 6
	// Sub-domain phrases must be shorter than this
	maxSubDomainLength = 50
)

var snakeCaseRe = regexp.MustCompile(`(?i)\b([a-z]+_[a-z_]+)\b`)

// ExtractDomainHierarchy emits one entry per domain whose keywords occur in the text
func (a *PolicyAnalyzer) ExtractDomainHierarchy(text string) []models.DomainHierarchyEntry {
	lower := strings.ToLower(text)
	tokens := snakeCaseRe.FindAllString(text, -1)

	entries := []models.DomainHierarchyEntry{}
	for _, domain := range a.Domains {
		found := domain.MatchedKeywords(lower)
		if len(found) == 0 {
			continue
		}
		entries = append(entries, models.DomainHierarchyEntry{
			Name:        domain.Name,
			SubDomains:  extractSubDomains(text, domain.Keywords),
			Tables:      extractDomainTables(tokens, found),
			Description: fmt.Sprintf("Domain identified from %d keyword matches", len(found)),
		})
	}
	return entries
}

// extractDomainTables keeps snake_case tokens that contain the first word of a
// matched keyword, lower-cased and de-duplicated in first-seen order
func extractDomainTables(tokens []string, matched []string) []string {
	stems := make([]string, 0, len(matched))
	for _, kw := range matched {
		stems = append(stems, strings.Fields(kw)[0])
	}

	tables := []string{}
	seen := make(map[string]bool)
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if seen[lower] || !containsAny(lower, stems) {
			continue
		}
		seen[lower] = true
		tables = append(tables, lower)
		if len(tables) == MaxDomainTables {
			break
		}
	}
	return tables
}

// extractSubDomains finds capitalized phrases that follow a domain keyword on the same line
func extractSubDomains(text string, keywords []string) []string {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	re := regexp.MustCompile(`(?i:` + strings.Join(quoted, "|") + `)[ \t]*[-:]?[ \t]*([A-Z][a-zA-Z \t]+)`)

	subDomains := []string{}
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		phrase := strings.TrimSpace(m[1])
		if phrase == "" || len(phrase) >= maxSubDomainLength || seen[phrase] {
			continue
		}
		seen[phrase] = true
		subDomains = append(subDomains, phrase)
		if len(subDomains) == MaxSubDomains {
			break
		}
	}
	return subDomains
}
