package site

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/haytac/tocstrip/internal/emoji"
	"github.com/haytac/tocstrip/internal/toc"
)

// IsPage reports whether path names an HTML page.
func IsPage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// Rewrite sanitizes the TOC of one HTML page. When no label changes, the
// original bytes are returned as-is so untouched pages keep their formatting.
func (p *Processor) Rewrite(data []byte) ([]byte, toc.Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, toc.Result{}, fmt.Errorf("parse html: %w", err)
	}

	res := p.sanitizer.Sanitize(toc.NewDocumentSource(doc, p.opts.Selector))
	if res.Rewritten == 0 {
		return data, res, nil
	}
	if p.opts.Audit {
		p.audit(doc)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc.Nodes[0]); err != nil {
		return nil, res, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), res, nil
}

// RewritePage is the streaming form of Rewrite.
func (p *Processor) RewritePage(r io.Reader, w io.Writer) (toc.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return toc.Result{}, fmt.Errorf("read page: %w", err)
	}
	out, res, err := p.Rewrite(data)
	if err != nil {
		return res, err
	}
	if _, err := w.Write(out); err != nil {
		return res, fmt.Errorf("write page: %w", err)
	}
	return res, nil
}

func (p *Processor) audit(doc *goquery.Document) {
	selector := p.opts.Selector
	if selector == "" {
		selector = toc.DefaultSelector
	}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		if left := emoji.Leftovers(label); len(left) > 0 {
			log.Warn().Str("label", label).Strs("emoji", left).Msg("Label still carries emoji outside the strip table")
		}
	})
}
