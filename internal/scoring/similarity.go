package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"

	"metadata-validator/internal/models"
)

// Matcher grades how closely a generated description matches a reference one.
// Implementations return a percentage in [0, 100].
type Matcher interface {
	DescriptionMatch(ctx context.Context, reference, generated string) (float64, error)
}

// LexicalMatcher compares descriptions by edit distance and token overlap
type LexicalMatcher struct{}

// DescriptionMatch returns the larger of the normalized Levenshtein similarity
// and the token Jaccard index, as a percentage
func (LexicalMatcher) DescriptionMatch(_ context.Context, reference, generated string) (float64, error) {
	return TextSimilarity(reference, generated) * 100, nil
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// TextSimilarity scores two free-text descriptions in [0, 1]
func TextSimilarity(a, b string) float64 {
	at := tokens(a)
	bt := tokens(b)
	if len(at) == 0 && len(bt) == 0 {
		return 1
	}
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}

	seq := normalizedLevenshteinSimilarity(strings.Join(at, " "), strings.Join(bt, " "))

	aSet := make(map[string]struct{}, len(at))
	for _, t := range at {
		aSet[t] = struct{}{}
	}
	bSet := make(map[string]struct{}, len(bt))
	for _, t := range bt {
		bSet[t] = struct{}{}
	}
	inter := 0
	for t := range aSet {
		if _, ok := bSet[t]; ok {
			inter++
		}
	}
	jacc := float64(inter) / float64(len(aSet)+len(bSet)-inter)

	return math.Max(seq, jacc)
}

func tokens(s string) []string {
	return strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(s), " "))
}

func normalizedLevenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshteinDistance(a, b)
	denom := max(len([]rune(a)), len([]rune(b)))
	return math.Max(0, 1-(float64(dist)/float64(denom)))
}

func levenshteinDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}
	prev := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ar {
		curr := make([]int, len(br)+1)
		curr[0] = i + 1
		for j, cb := range br {
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min(curr[j]+1, prev[j+1]+1, sub)
		}
		prev = curr
	}
	return prev[len(br)]
}

// typeFamilies groups SQL and logical type names that are treated as equivalent
var typeFamilies = map[string]string{
	"string": "text", "str": "text", "text": "text", "varchar": "text", "nvarchar": "text",
	"char": "text", "nchar": "text", "character": "text", "clob": "text",
	"int": "integer", "integer": "integer", "bigint": "integer", "smallint": "integer",
	"tinyint": "integer", "long": "integer", "int64": "integer", "int32": "integer",
	"decimal": "decimal", "numeric": "decimal", "number": "decimal", "float": "decimal",
	"double": "decimal", "real": "decimal", "money": "decimal", "float64": "decimal",
	"date": "date",
	"datetime": "timestamp", "timestamp": "timestamp", "timestamptz": "timestamp", "time": "timestamp",
	"bool": "boolean", "boolean": "boolean", "bit": "boolean",
	"json": "json", "jsonb": "json", "variant": "json",
}

var typeArgsRe = regexp.MustCompile(`\(.*\)`)

// NormalizeType reduces a type declaration such as "VARCHAR(255)" to its family
func NormalizeType(t string) string {
	base := strings.ToLower(strings.TrimSpace(typeArgsRe.ReplaceAllString(t, "")))
	if f := strings.Fields(base); len(f) > 0 {
		base = f[0]
	}
	if family, ok := typeFamilies[base]; ok {
		return family
	}
	return base
}

// TypesMatch reports whether two type declarations belong to the same family.
// Two blank types agree; a type missing on one side only does not.
func TypesMatch(reference, generated string) bool {
	return NormalizeType(reference) == NormalizeType(generated)
}

// SensitivitiesMatch compares classification labels case-insensitively.
// Two blank labels agree.
func SensitivitiesMatch(reference, generated string) bool {
	return strings.EqualFold(strings.TrimSpace(reference), strings.TrimSpace(generated))
}

// CompareField grades one field record against its generated reference
func CompareField(ctx context.Context, m Matcher, field models.FieldRecord, gen models.GeneratedDescription) (models.FieldComparison, error) {
	pct, err := m.DescriptionMatch(ctx, field.Definition, gen.Definition)
	if err != nil {
		return models.FieldComparison{}, err
	}
	pct = math.Max(0, math.Min(100, pct))

	cmp := models.FieldComparison{
		Field:            field,
		Generated:        gen,
		DescriptionMatch: math.Round(pct*10) / 10,
		TypeMatch:        TypesMatch(field.DataType, gen.DataType),
		SensitivityMatch: SensitivitiesMatch(field.Sensitivity, gen.Sensitivity),
	}
	cmp.Score = Score(pct, cmp.TypeMatch, cmp.SensitivityMatch)
	cmp.Band = BandFor(cmp.Score).Name
	return cmp, nil
}
