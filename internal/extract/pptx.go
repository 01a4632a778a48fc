package extract

import (
	"archive/zip"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// pptxSlideRe matches slide parts and captures the slide number.
var pptxSlideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// pptxToken matches <a:t> text runs (any attributes) and paragraph ends.
var pptxToken = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>|</a:p>`)

type pptxSlide struct {
	num  int
	file *zip.File
}

// extractPPTX returns one page per slide ordered by slide number, so slide10
// follows slide9 regardless of zip entry order.
func extractPPTX(content []byte) ([]string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return nil, err
	}
	var slides []pptxSlide
	for _, f := range zr.File {
		m := pptxSlideRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, pptxSlide{num: n, file: f})
	}
	slices.SortFunc(slides, func(a, b pptxSlide) int { return a.num - b.num })

	pages := make([]string, 0, len(slides))
	for _, s := range slides {
		data, err := readZipFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		pages = append(pages, pptxText(string(data)))
	}
	return pages, nil
}

func pptxText(xml string) string {
	var b strings.Builder
	for _, m := range pptxToken.FindAllStringSubmatch(xml, -1) {
		if m[0] == "</a:p>" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(html.UnescapeString(m[1]))
	}
	return strings.TrimSpace(b.String())
}
