package processor

import (
	"regexp"
	"strings"

	"metadata-validator/internal/models"
)

// MetadataProbe locates one metadata field with a single regex match
type MetadataProbe struct {
	Field   string
	Pattern *regexp.Regexp
	Set     func(m *models.PolicyMetadata, value string)
}

const datePattern = `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\w+\s+\d{1,2},?\s+\d{4})`

// DefaultMetadataProbes covers title, version, dates and owner
var DefaultMetadataProbes = []MetadataProbe{
	{
		Field:   "title",
		Pattern: regexp.MustCompile(`(?m)^#?\s*([A-Z][^\n]{10,100})`),
		Set:     func(m *models.PolicyMetadata, v string) { m.Title = v },
	},
	{
		Field:   "version",
		Pattern: regexp.MustCompile(`(?i)version[:\s]+([0-9.]+)`),
		Set:     func(m *models.PolicyMetadata, v string) { m.Version = v },
	},
	{
		Field:   "effective_date",
		Pattern: regexp.MustCompile(`(?i)(?:effective|date|updated|reviewed)[:\s]+` + datePattern),
		Set:     func(m *models.PolicyMetadata, v string) { m.EffectiveDate = v },
	},
	{
		Field:   "owner",
		Pattern: regexp.MustCompile(`(?i)(?:owner|author|maintained by|contact)[: \t]+([A-Za-z][A-Za-z \t]*)`),
		Set:     func(m *models.PolicyMetadata, v string) { m.Owner = v },
	},
	{
		Field:   "last_reviewed",
		Pattern: regexp.MustCompile(`(?i)last\s+reviewed[:\s]+` + datePattern),
		Set:     func(m *models.PolicyMetadata, v string) { m.LastReviewed = v },
	},
}

// ExtractMetadata runs every probe once against the text
func (a *PolicyAnalyzer) ExtractMetadata(text string) models.PolicyMetadata {
	var meta models.PolicyMetadata
	for _, probe := range a.Probes {
		m := probe.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[1]); v != "" {
			probe.Set(&meta, v)
		}
	}
	return meta
}
