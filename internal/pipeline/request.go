package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/yomu/internal/models"
)

// collectionDocsDir is the conventional documents folder next to a request file.
const collectionDocsDir = "PDFs"

// LoadRequest reads and validates the request document at path. An unreadable
// file is models.ErrMissingInput; invalid content is models.ErrMalformedRequest.
func LoadRequest(path string) (*models.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read request: %v", models.ErrMissingInput, err)
	}
	return models.ParseRequest(data)
}

// ResolveDirs picks the documents and outlines directories for a request file.
// Explicit values win, then configured ones. Otherwise documents are looked up
// in a PDFs folder beside the request, falling back to the request's own folder,
// and outlines live with the documents.
func ResolveDirs(requestPath, docsDir, outlinesDir, configDocs, configOutlines string) (string, string) {
	docs := firstNonEmpty(docsDir, configDocs)
	if docs == "" {
		base := filepath.Dir(requestPath)
		docs = base
		candidate := filepath.Join(base, collectionDocsDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			docs = candidate
		}
	}
	outlines := firstNonEmpty(outlinesDir, configOutlines)
	if outlines == "" {
		outlines = docs
	}
	return docs, outlines
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
