package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"metadata-validator/internal/models"
)

const (
	// Maximum number of sections kept per document
	MaxSections = 10
	// Section content longer than this is truncated
	maxSectionContent = 500
	// Content must be longer than this for a section to count
	minSectionContent = 20
)

// Heading lines: optional markdown marker or numeric prefix, then a capitalized
// phrase ending the line or followed by a colon
var sectionHeadingRe = regexp.MustCompile(`(?m)^(?:#{1,3}[ \t]*|\d+\.?[ \t]+)?([A-Z][A-Za-z \t&]+)(?:\n|:)`)

// ExtractSections splits the text at heading lines. A section runs from the
// end of its heading to the start of the next heading match.
func (a *PolicyAnalyzer) ExtractSections(text string) []models.DocumentSection {
	matches := sectionHeadingRe.FindAllStringSubmatchIndex(text, -1)

	sections := []models.DocumentSection{}
	for i, m := range matches {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if n := utf8.RuneCountInString(name); n <= 3 || n >= 60 {
			continue
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[m[1]:end])
		if utf8.RuneCountInString(content) <= minSectionContent {
			continue
		}

		sections = append(sections, models.DocumentSection{
			Name:    name,
			Content: truncateRunes(content, maxSectionContent),
		})
		if len(sections) == a.MaxSections {
			break
		}
	}
	return sections
}

// truncateRunes cuts s to limit characters and marks the cut with an ellipsis
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
