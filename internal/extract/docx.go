package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var (
	// partNameRe extracts PartName from Override elements in [Content_Types].xml.
	partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	// partNameRe2 handles ContentType appearing before PartName.
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

	// docxPageBreak matches an explicit page break run.
	docxPageBreak = regexp.MustCompile(`<w:br\s[^>]*w:type="page"[^>]*/>`)
	// docxToken matches run text, tabs, line breaks and paragraph ends in document order.
	docxToken = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>|<w:tab/>|<w:br/>|</w:p>`)
)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipEntry(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if m := partNameRe.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(m[1], "/")
	}
	if m := partNameRe2.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(m[1], "/")
	}
	return ""
}

// extractDOCX splits the main document at explicit page breaks. Runs within a
// paragraph are concatenated and paragraphs end with a newline. lu4p/cat is not
// used here because its paragraph regex misses <w:p> elements carrying attributes.
func extractDOCX(content []byte) ([]string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return nil, err
	}
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipEntry(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return nil, fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	parts := docxPageBreak.Split(string(docXML), -1)
	pages := make([]string, len(parts))
	for i, part := range parts {
		pages[i] = docxText(part)
	}
	return pages, nil
}

func docxText(xml string) string {
	var b bytes.Buffer
	for _, m := range docxToken.FindAllStringSubmatch(xml, -1) {
		switch m[0] {
		case "<w:tab/>":
			b.WriteByte('\t')
		case "<w:br/>", "</w:p>":
			b.WriteByte('\n')
		default:
			b.WriteString(html.UnescapeString(m[1]))
		}
	}
	return strings.TrimSpace(b.String())
}
