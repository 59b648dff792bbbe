// Package toc rewrites the labels of table-of-contents navigation links so
// they carry no emoji, leaving the rest of the page alone.
package toc

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/haytac/tocstrip/internal/emoji"
)

// DefaultSelector matches the links of the secondary (right hand) sidebar
// rendered by Material for MkDocs.
const DefaultSelector = ".md-sidebar--secondary .md-nav__link, .md-nav--secondary .md-nav__link"

// LinkSource supplies the link elements a pass rewrites.
type LinkSource interface {
	Links() []*html.Node
}

// Labeler cleans a single text value.
type Labeler interface {
	Strip(text string) (string, bool)
}

// Result counts what a single pass touched.
type Result struct {
	Links     int
	TextNodes int
	Rewritten int
}

// Add accumulates r2 into r.
func (r *Result) Add(r2 Result) {
	r.Links += r2.Links
	r.TextNodes += r2.TextNodes
	r.Rewritten += r2.Rewritten
}

// Sanitizer strips emoji from link labels.
type Sanitizer struct {
	labeler Labeler
}

// NewSanitizer creates a Sanitizer. A nil labeler uses the plain emoji table.
func NewSanitizer(labeler Labeler) *Sanitizer {
	if labeler == nil {
		labeler = emoji.NewStripper()
	}
	return &Sanitizer{labeler: labeler}
}

// Sanitize rewrites every text node below the links supplied by src.
// Element nodes are never touched, so icons and nested markup survive.
func (s *Sanitizer) Sanitize(src LinkSource) Result {
	var res Result
	if src == nil {
		return res
	}
	for _, link := range src.Links() {
		if link == nil {
			continue
		}
		res.Links++
		walkText(link, func(n *html.Node) {
			res.TextNodes++
			if out, changed := s.labeler.Strip(n.Data); changed {
				n.Data = out
				res.Rewritten++
			}
		})
	}
	return res
}

func walkText(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			fn(c)
		case html.ElementNode:
			walkText(c, fn)
		}
	}
}

// DocumentSource selects links from a parsed document with a CSS selector.
type DocumentSource struct {
	doc      *goquery.Document
	selector string
}

// NewDocumentSource creates a DocumentSource. An empty selector falls back
// to DefaultSelector.
func NewDocumentSource(doc *goquery.Document, selector string) *DocumentSource {
	if selector == "" {
		selector = DefaultSelector
	}
	return &DocumentSource{doc: doc, selector: selector}
}

// Links returns the matching nodes in document order. A document without a
// navigation region yields nothing.
func (d *DocumentSource) Links() []*html.Node {
	if d.doc == nil {
		return nil
	}
	return d.doc.Find(d.selector).Nodes
}

// NodeList is a LinkSource over an explicit set of nodes.
type NodeList []*html.Node

// Links implements LinkSource.
func (l NodeList) Links() []*html.Node { return l }
