package processor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"metadata-validator/internal/models"
)

const (
	// Maximum number of rules kept per document
	MaxPolicyRules = 20
	// A captured clause must be strictly longer than this
	minClauseLength = 20
	// and strictly shorter than this
	maxClauseLength = 300
)

// DefaultRulePatterns capture a clause ending in a period after a trigger phrase.
// They run in order over the whole text.
var DefaultRulePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:policy|rule|requirement|standard|guideline)[:\s]+([^.]+\.)`),
	regexp.MustCompile(`(?i)(?:must|shall|should|required to)[:\s]+([^.]+\.)`),
	regexp.MustCompile(`(?i)(?:all\s+\w+\s+data)[:\s]+([^.]+\.)`),
}

var spaceRunRe = regexp.MustCompile(`\s+`)

// ExtractRules mines policy rules from the text. Each qualifying clause is
// widened to the sentence that contains it, so a sentence matched by several
// patterns yields a single rule.
func (a *PolicyAnalyzer) ExtractRules(text string) []models.PolicyRule {
	rules := []models.PolicyRule{}
	seen := make(map[string]bool)

	for _, re := range a.RulePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			clause := strings.TrimSpace(text[m[2]:m[3]])
			n := utf8.RuneCountInString(clause)
			if n <= minClauseLength || n >= maxClauseLength {
				continue
			}

			statement := enclosingSentence(text, m[2], m[3])
			if seen[statement] {
				continue
			}
			seen[statement] = true

			rules = append(rules, a.classifyRule(statement, len(rules)+1))
			if len(rules) == a.MaxRules {
				return rules
			}
		}
	}
	return rules
}

// classifyRule builds a rule with category, severity and applicable domains
func (a *PolicyAnalyzer) classifyRule(statement string, n int) models.PolicyRule {
	lower := strings.ToLower(statement)

	severity := DefaultSeverity
	for _, level := range a.Severities {
		if containsAny(lower, level.Keywords) {
			severity = level.Severity
			break
		}
	}

	domains := []string{}
	for _, domain := range a.Domains {
		if len(domain.MatchedKeywords(lower)) > 0 {
			domains = append(domains, domain.Name)
		}
	}
	if len(domains) == 0 {
		domains = append(domains, AllDomains)
	}

	return models.PolicyRule{
		Name:              fmt.Sprintf("Policy Rule %d", n),
		Description:       statement,
		Category:          a.Categories.Categorize(statement),
		Severity:          severity,
		ApplicableDomains: domains,
	}
}

// enclosingSentence returns text from the sentence boundary preceding start up
// to end, with whitespace runs collapsed
func enclosingSentence(text string, start, end int) string {
	begin := strings.LastIndexAny(text[:start], ".!?\n") + 1
	return spaceRunRe.ReplaceAllString(strings.TrimSpace(text[begin:end]), " ")
}
