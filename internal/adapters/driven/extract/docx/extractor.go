// Package docx extracts pages from Word (.docx) policy documents.
//
// A .docx file has no fixed pagination, so pages are taken from explicit
// page breaks: <w:br w:type="page"/> runs and paragraphs marked
// <w:pageBreakBefore/>. Each non-empty paragraph is separated from the next
// by a blank line so it becomes its own clause.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// maxDocumentXML caps the uncompressed size of word/document.xml (64 MB).
const maxDocumentXML = 64 << 20

const documentPart = "word/document.xml"

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor handles .docx documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports returns true for .docx files.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

// Extract returns the text of each page.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, documentPart, err)
		}
		defer rc.Close()
		return parseDocument(ctx, io.LimitReader(rc, maxDocumentXML))
	}
	return nil, fmt.Errorf("%w: %s has no %s", domain.ErrInvalidInput, filepath.Base(path), documentPart)
}

// PageCount returns the number of pages Extract would produce.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	pages, err := e.Extract(ctx, path)
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// pageBuilder accumulates paragraphs into pages.
type pageBuilder struct {
	pages      []string
	paragraphs []string
	current    strings.Builder
}

func (b *pageBuilder) endParagraph() {
	text := strings.TrimSpace(b.current.String())
	b.current.Reset()
	if text != "" {
		b.paragraphs = append(b.paragraphs, text)
	}
}

func (b *pageBuilder) endPage() {
	b.pages = append(b.pages, strings.Join(b.paragraphs, "\n\n"))
	b.paragraphs = nil
}

func (b *pageBuilder) result() []string {
	b.endParagraph()
	b.endPage()
	if n := len(b.pages); n > 1 && b.pages[n-1] == "" {
		b.pages = b.pages[:n-1]
	}
	return b.pages
}

// parseDocument walks the WordprocessingML token stream.
func parseDocument(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var b pageBuilder
	inText := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidInput, documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				b.current.Reset()
			case "pageBreakBefore":
				if isOn(attr(t, "val")) && (len(b.paragraphs) > 0 || b.current.Len() > 0) {
					// Text collected so far in this paragraph belongs on the new page.
					pending := b.current.String()
					b.current.Reset()
					b.endPage()
					b.current.WriteString(pending)
				}
			case "br":
				if attr(t, "type") == "page" {
					b.endParagraph()
					b.endPage()
				} else {
					b.current.WriteByte('\n')
				}
			case "tab":
				b.current.WriteByte('\t')
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.endParagraph()
			}
		case xml.CharData:
			if inText {
				b.current.Write(t)
			}
		}
	}

	return b.result(), nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// isOn interprets an OOXML on/off value. An absent value means on.
func isOn(v string) bool {
	switch v {
	case "0", "false", "off":
		return false
	}
	return true
}
