package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// htmlSkip lists elements whose text never belongs to the document body.
var htmlSkip = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true, "template": true,
}

// htmlBlock lists elements that end a line of text.
var htmlBlock = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "ul": true, "ol": true, "dt": true, "dd": true,
}

// extractHTML returns the visible text of an HTML document as a single page.
func extractHTML(content []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	var buf strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && htmlSkip[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && htmlBlock[n.Data] {
			buf.WriteByte('\n')
		}
	}
	walk(doc)
	return []string{strings.TrimSpace(buf.String())}, nil
}
