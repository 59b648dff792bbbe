// Package preview shows how TOC labels will read once a Markdown page is
// built and its navigation stripped.
package preview

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/haytac/tocstrip/internal/toc"
)

// Entry is one heading as it will appear in the table of contents.
type Entry struct {
	Level   int
	Raw     string
	Label   string
	Changed bool
}

// Headings returns the headings of src up to maxLevel (all levels when
// maxLevel <= 0) with their stripped labels.
func Headings(src []byte, maxLevel int, labeler toc.Labeler) []Entry {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var entries []Entry
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if maxLevel > 0 && h.Level > maxLevel {
			return ast.WalkSkipChildren, nil
		}
		raw := headingText(h, src)
		e := Entry{Level: h.Level, Raw: raw, Label: raw}
		if labeler != nil {
			e.Label, e.Changed = labeler.Strip(raw)
		}
		entries = append(entries, e)
		return ast.WalkSkipChildren, nil
	})
	return entries
}

// headingText flattens the inline children of a heading, dropping markup
// such as emphasis and code spans the way rendered TOC labels do.
func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var collect func(ast.Node)
	collect = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				collect(c)
			}
		}
	}
	collect(n)
	return strings.TrimSpace(buf.String())
}
