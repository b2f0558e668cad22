package validation

import "metadata-validator/internal/models"

// SummarizePolicy counts the rules of a policy document by category,
// severity and applicable domain
func SummarizePolicy(doc models.ParsedPolicyDocument) models.PolicySummary {
	s := models.PolicySummary{
		FileName:       doc.FileName,
		DomainCount:    len(doc.DomainHierarchy),
		RuleCount:      len(doc.PolicyRules),
		SectionCount:   len(doc.Sections),
		CategoryCounts: make(map[string]int),
		SeverityCounts: make(map[string]int),
		RulesByDomain:  make(map[string]int),
	}
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		s.SeverityCounts[string(sev)] = 0
	}

	for _, r := range doc.PolicyRules {
		s.CategoryCounts[r.Category]++
		s.SeverityCounts[string(r.Severity)]++
		for _, d := range r.ApplicableDomains {
			s.RulesByDomain[d]++
		}
	}
	return s
}
