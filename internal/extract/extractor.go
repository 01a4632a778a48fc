// Package extract provides per-page text extraction from document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// PageExtractor returns the text of each page of a document, in page order.
// Pages without extractable text are empty strings.
type PageExtractor interface {
	ExtractPages(path string) ([]string, error)
}

// Extractor extracts per-page text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the extensions with a dedicated extractor.
// Any other extension is read as plain text.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods", ".odt", ".rtf", ".md", ".markdown", ".html", ".htm", ".txt", ".rst"}
}

// ExtractPages reads the file at path and returns its pages.
// A missing or unreadable file is reported as models.ErrMissingInput.
func (e *Extractor) ExtractPages(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrMissingInput, filepath.Base(path), err)
	}
	pages, err := e.ExtractPagesBytes(content, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrMissingInput, filepath.Base(path), err)
	}
	return pages, nil
}

// ExtractPagesBytes extracts pages from content based on ext (with leading dot).
//
// Page boundaries per format: PDF physical pages; DOCX explicit page breaks;
// XLSX and ODS sheets; PPTX and ODP slides; plain text and Markdown form feeds.
// ODT, RTF and HTML have no page model and yield a single page.
func (e *Extractor) ExtractPagesBytes(content []byte, ext string) ([]string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt", ".rtf":
		return extractLegacy(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odp":
		return extractODP(content)
	case ".ods":
		return extractODS(content)
	case ".md", ".markdown":
		return extractMarkdown(content)
	case ".html", ".htm":
		return extractHTML(content)
	default:
		return extractPlain(content)
	}
}
