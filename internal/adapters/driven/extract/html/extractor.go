// Package html extracts pages from policy documents saved as HTML.
//
// Pages start at elements styled with "page-break-before: always" or
// "break-before: page", the markers print-ready policy pages use. Block
// elements become paragraph breaks so each paragraph is its own clause.
package html

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// ignored elements never contribute text.
const ignored = "head, script, style, noscript, svg, template"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true,
	"ul": true,
}

// Extractor handles .html and .htm documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports returns true for .html and .htm files.
func (e *Extractor) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// Extract reads the file and returns the text of each page.
func (e *Extractor) Extract(_ context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()
	return Parse(f)
}

// PageCount returns the number of pages Extract would produce.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	pages, err := e.Extract(ctx, path)
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// Parse converts an HTML document into page texts.
func Parse(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing html: %v", domain.ErrInvalidInput, err)
	}
	doc.Find(ignored).Remove()

	var w pageWriter
	w.walk(doc.Selection)
	return w.result(), nil
}

// ToText returns the document text with pages joined by blank lines.
func ToText(doc string) string {
	pages, err := Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	return strings.Join(pages, "\n\n")
}

type pageWriter struct {
	pages      []string
	paragraphs []string
	current    strings.Builder
}

func (w *pageWriter) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			w.current.WriteString(strings.NewReplacer("\r", " ", "\n", " ").Replace(node.Text()))
		case strings.HasPrefix(name, "#"):
			// comments and doctype
		case name == "br":
			w.current.WriteByte('\n')
		case name == "td" || name == "th":
			w.walk(node)
			w.current.WriteByte(' ')
		default:
			if startsPage(node) {
				w.endPage()
			}
			block := blockElements[name]
			if block {
				w.endParagraph()
			}
			w.walk(node)
			if block {
				w.endParagraph()
			}
		}
	})
}

func startsPage(node *goquery.Selection) bool {
	style, ok := node.Attr("style")
	if !ok {
		return false
	}
	style = strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
}

func (w *pageWriter) endParagraph() {
	var lines []string
	for _, line := range strings.Split(w.current.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	w.current.Reset()
	if len(lines) > 0 {
		w.paragraphs = append(w.paragraphs, strings.Join(lines, "\n"))
	}
}

// endPage closes the current page. A break before any text is ignored.
func (w *pageWriter) endPage() {
	w.endParagraph()
	if len(w.pages) == 0 && len(w.paragraphs) == 0 {
		return
	}
	w.pages = append(w.pages, strings.Join(w.paragraphs, "\n\n"))
	w.paragraphs = nil
}

func (w *pageWriter) result() []string {
	w.endParagraph()
	return append(w.pages, strings.Join(w.paragraphs, "\n\n"))
}
