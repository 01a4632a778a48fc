package segment

import (
	"strings"
	"unicode"
)

// CleanPage normalizes extracted page text: CRLF to LF, control characters dropped,
// runs of horizontal whitespace collapsed to one space, lines right-trimmed, and
// more than one blank line collapsed to one.
func CleanPage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	newlines := 0
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r' || r == '\f':
			if newlines < 2 && b.Len() > 0 {
				b.WriteByte('\n')
			}
			newlines++
			wasSpace = false
		case unicode.IsSpace(r):
			if !wasSpace && newlines == 0 && b.Len() > 0 {
				b.WriteByte(' ')
			}
			wasSpace = true
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
			wasSpace = false
			newlines = 0
		}
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CleanHeading collapses all whitespace in a heading to single spaces.
func CleanHeading(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
