package processor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies what an uploaded artifact is expected to contain
type Kind string

const (
	KindGlossary   Kind = "glossary"
	KindDictionary Kind = "dictionary"
	KindPolicy     Kind = "policy"
	KindSample     Kind = "sample"
)

// ErrUnsupportedExtension is returned when a file name is not on the allow-list of its kind
var ErrUnsupportedExtension = errors.New("unsupported file extension")

var allowedExtensions = map[Kind][]string{
	KindGlossary:   {".csv", ".xlsx", ".xls"},
	KindDictionary: {".csv", ".xlsx", ".xls"},
	KindPolicy:     {".pdf", ".docx", ".txt"},
	KindSample:     {".csv", ".parquet", ".json"},
}

// ParseKind converts a user supplied kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := allowedExtensions[k]; !ok {
		return "", fmt.Errorf("unknown upload kind %q", s)
	}
	return k, nil
}

// AllowedExtensions returns the accepted file extensions for a kind
func AllowedExtensions(kind Kind) []string {
	exts := allowedExtensions[kind]
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// CheckFileName validates a file name against the allow-list of its kind
func CheckFileName(kind Kind, fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range allowedExtensions[kind] {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not accepted for %s uploads (allowed: %s)",
		ErrUnsupportedExtension, fileName, kind, strings.Join(allowedExtensions[kind], ", "))
}

// FileType derives the display type of a file from its extension
func FileType(fileName string) string {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(ext)
}
