// Package document handles the uploaded artifact itself: text extraction and
// rendering of the generated summary to a downloadable file.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// Extractor pulls plain text out of an uploaded file. Extraction failure is
// non-fatal here; downstream steps fail their preconditions on empty text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text content of the file at path. PDF files go
// through the pdf reader; anything else is read as plain text. On failure
// the error is logged and an empty string returned.
func (e *Extractor) ExtractText(path string) string {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDF(path)
	default:
		text, err = extractPlain(path)
	}

	if err != nil {
		log.Err(err).Str("path", path).Msg("Failed to extract text from document")
		return ""
	}
	return text
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}
