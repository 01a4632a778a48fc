package extract

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// odfContentPath is the body part of every OpenDocument package.
const odfContentPath = "content.xml"

var (
	// odpPage matches one presentation slide.
	odpPage = regexp.MustCompile(`(?s)<draw:page\b[^>]*>(.*?)</draw:page>`)
	// odsTable matches one spreadsheet table.
	odsTable = regexp.MustCompile(`(?s)<table:table(?:\s[^>]*)?>(.*?)</table:table>`)
	// odfToken matches tags that end a line or a cell, or any other tag.
	odfToken = regexp.MustCompile(`</text:p>|</text:h>|</table:table-row>|</table:table-cell>|<text:tab/>|<text:line-break/>|<[^>]+>`)
)

func readODFContent(content []byte, format string) (string, error) {
	zr, err := openZip(content, format)
	if err != nil {
		return "", err
	}
	data, err := readZipEntry(zr, odfContentPath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	if data == nil {
		return "", fmt.Errorf("extract %s: %s not found", format, odfContentPath)
	}
	return string(data), nil
}

// extractODP returns one page per <draw:page>.
func extractODP(content []byte) ([]string, error) {
	xml, err := readODFContent(content, "ODP")
	if err != nil {
		return nil, err
	}
	return odfPages(xml, odpPage), nil
}

// extractODS returns one page per <table:table>.
func extractODS(content []byte) ([]string, error) {
	xml, err := readODFContent(content, "ODS")
	if err != nil {
		return nil, err
	}
	return odfPages(xml, odsTable), nil
}

func odfPages(xml string, page *regexp.Regexp) []string {
	matches := page.FindAllStringSubmatch(xml, -1)
	pages := make([]string, 0, len(matches))
	for _, m := range matches {
		pages = append(pages, odfText(m[1]))
	}
	return pages
}

// odfText strips markup, turning paragraphs and rows into newlines and cells into tabs.
// Paragraphs inside one table cell are joined with a space so a row stays on one line.
func odfText(xml string) string {
	inCell, cellParas := false, 0
	replaced := odfToken.ReplaceAllStringFunc(xml, func(tag string) string {
		switch tag {
		case "</text:p>", "</text:h>":
			if inCell {
				return ""
			}
			return "\n"
		case "</table:table-row>", "<text:line-break/>":
			return "\n"
		case "</table:table-cell>":
			inCell = false
			return "\t"
		case "<text:tab/>":
			return "\t"
		}
		switch {
		case strings.HasSuffix(tag, "/>"):
		case isOpenTag(tag, "table:table-cell"):
			inCell, cellParas = true, 0
		case inCell && (isOpenTag(tag, "text:p") || isOpenTag(tag, "text:h")):
			cellParas++
			if cellParas > 1 {
				return " "
			}
		}
		return ""
	})
	lines := strings.Split(html.UnescapeString(replaced), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\t ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isOpenTag(tag, name string) bool {
	rest, ok := strings.CutPrefix(tag, "<"+name)
	return ok && (rest[0] == '>' || rest[0] == ' ')
}
