package extract

import (
	"fmt"
	"strings"

	"github.com/lu4p/cat"
)

// extractLegacy handles ODT and RTF, which carry no page model. The whole
// document is returned as a single page.
func extractLegacy(content []byte) ([]string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}
	return []string{strings.TrimSpace(text)}, nil
}
