package extract

import (
	"strings"
	"unicode/utf8"
)

// formFeed separates pages in plain text dumps such as pdftotext output.
const formFeed = "\f"

// extractPlain splits content at form feeds. Invalid UTF-8 sequences are
// replaced with the replacement character.
func extractPlain(content []byte) ([]string, error) {
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	return strings.Split(text, formFeed), nil
}
