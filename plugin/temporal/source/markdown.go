// Package source prepares input text for extraction.
package source

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Markdown masks markdown markup so only prose reaches the lexer. The masked
// text has the same byte length as the source: markup, code, link targets
// and raw HTML become spaces, newlines are kept, so every span found in the
// masked text is a valid span of the source.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a masker that understands GitHub-flavored markdown.
func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Mask returns the prose of src with everything else blanked out.
func (m *Markdown) Mask(src string) string {
	raw := []byte(src)
	out := make([]byte, len(raw))
	for i, b := range raw {
		if b == '\n' || b == '\r' {
			out[i] = b
		} else {
			out[i] = ' '
		}
	}

	doc := m.md.Parser().Parse(text.NewReader(raw))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.AutoLink:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			copy(out[v.Segment.Start:v.Segment.Stop], raw[v.Segment.Start:v.Segment.Stop])
		}
		return ast.WalkContinue, nil
	})
	return string(out)
}
