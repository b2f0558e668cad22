package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckFileName(t *testing.T) {
	tests := []struct {
		kind     Kind
		fileName string
		wantErr  bool
	}{
		{KindGlossary, "terms.XLSX", false},
		{KindGlossary, "terms.pdf", true},
		{KindDictionary, "dict.xls", false},
		{KindPolicy, "policy.docx", false},
		{KindPolicy, "policy.csv", true},
		{KindSample, "rows.parquet", false},
		{KindSample, "noext", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.fileName, func(t *testing.T) {
			err := CheckFileName(tt.kind, tt.fileName)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedExtension)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "PDF", FileType("a/b/Policy.pdf"))
	assert.Equal(t, "TXT", FileType("notes.txt"))
	assert.Equal(t, "UNKNOWN", FileType("README"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Dictionary ")
	assert.NoError(t, err)
	assert.Equal(t, KindDictionary, k)

	_, err = ParseKind("spreadsheet")
	assert.Error(t, err)
}
