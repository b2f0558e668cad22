package processor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const docxBody = "word/document.xml"

var (
	errNotUTF8     = errors.New("content is not valid UTF-8 text")
	errMissingBody = errors.New("missing " + docxBody)

	pageFooterRe = regexp.MustCompile(`(?im)^[ \t]*page[ \t]+\d+([ \t]+of[ \t]+\d+)?[ \t]*$`)
	hspaceRe     = regexp.MustCompile(`[ \t\f\v]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// DocumentDecoder turns policy document bytes into plain text
type DocumentDecoder struct {
	// StripPageFooters drops "Page N of M" lines left over from PDF pagination
	StripPageFooters bool
}

// NewDocumentDecoder creates a decoder with footer stripping enabled
func NewDocumentDecoder() *DocumentDecoder {
	return &DocumentDecoder{StripPageFooters: true}
}

// DecodeFile reads a document from disk and decodes it
func (d *DocumentDecoder) DecodeFile(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return d.Decode(data, filepath.Base(filePath))
}

// Decode extracts text according to the file extension. Anything other than
// .pdf and .docx is treated as UTF-8 text.
func (d *DocumentDecoder) Decode(data []byte, fileName string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		text, err = extractPDFText(data)
		if err != nil {
			return "", &DecodeError{Format: "PDF", Err: err}
		}
	case ".docx":
		text, err = extractDOCXText(data)
		if err != nil {
			return "", &DecodeError{Format: "DOCX", Err: err}
		}
	default:
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
			return "", &DecodeError{Format: "TXT", Err: errNotUTF8}
		}
		// plain text is returned untouched
		return string(data), nil
	}
	return d.normalize(text), nil
}

// normalize tidies extracted text while keeping line structure intact
func (d *DocumentDecoder) normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if d.StripPageFooters {
		text = pageFooterRe.ReplaceAllString(text, "")
	}
	text = hspaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// extractPDFText extracts the plain text layer of a PDF
func extractPDFText(data []byte) (text string, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return buf.String(), nil
}

// extractDOCXText walks the main document part of a DOCX archive and
// collects run text, one line per paragraph
func extractDOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", errMissingBody
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", docxBody, err)
	}
	defer rc.Close()

	var (
		sb     strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
