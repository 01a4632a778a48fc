package extract

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown renders Markdown to plain text, one page per form-feed
// separated part. Heading text is kept in the body so outline headings can be
// located and trimmed by the segmenter.
func extractMarkdown(content []byte) ([]string, error) {
	md := goldmark.New()
	parts := bytes.Split(content, []byte(formFeed))
	pages := make([]string, 0, len(parts))
	for _, src := range parts {
		doc := md.Parser().Parse(text.NewReader(src))
		var buf bytes.Buffer
		err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
					buf.WriteByte('\n')
				}
				return ast.WalkContinue, nil
			}
			switch node := n.(type) {
			case *ast.Text:
				buf.Write(node.Segment.Value(src))
				if node.HardLineBreak() || node.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(node.Value)
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					line := lines.At(i)
					buf.Write(line.Value(src))
				}
				buf.WriteByte('\n')
				return ast.WalkSkipChildren, nil
			case *ast.HTMLBlock, *ast.RawHTML:
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		})
		if err != nil {
			return nil, err
		}
		pages = append(pages, strings.TrimSpace(buf.String()))
	}
	return pages, nil
}
