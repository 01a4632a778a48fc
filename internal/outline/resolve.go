package outline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// DefaultSuffix is appended to a document's base name to form its outline name.
const DefaultSuffix = "_outline"

// DefaultExtensions are probed in order when resolving an outline file.
var DefaultExtensions = []string{".json", ".yaml", ".yml"}

// FileName returns the outline file name for a document: the document name with its
// extension replaced by suffix+ext. "guide.pdf" becomes "guide_outline.json".
func FileName(document, suffix, ext string) string {
	base := filepath.Base(document)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix + ext
}

// Resolve finds the outline file for document in dir, probing exts in order.
// Returns models.ErrMissingInput when none exists.
func Resolve(dir, document, suffix string, exts []string) (string, error) {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		p := filepath.Join(dir, FileName(document, suffix, ext))
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no outline for %s in %s", models.ErrMissingInput, document, dir)
}
