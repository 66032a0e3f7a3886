package docx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func writeDocx(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(documentPart)
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestSupports(t *testing.T) {
	e := New()
	assert.True(t, e.Supports("home.docx"))
	assert.True(t, e.Supports("HOME.DOCX"))
	assert.False(t, e.Supports("home.doc"))
}

func TestExtract_SinglePage(t *testing.T) {
	path := writeDocx(t, para("Section 1. Cover.")+`<w:p/>`+
		`<w:p><w:r><w:t xml:space="preserve">Fire </w:t></w:r><w:r><w:t>and flood.</w:t></w:r></w:p>`)

	pages, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, []string{"Section 1. Cover.\n\nFire and flood."}, pages)
}

func TestExtract_PageBreaks(t *testing.T) {
	body := para("Cover.") +
		`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` +
		para("Exclusions.") +
		`<w:p><w:pPr><w:pageBreakBefore/></w:pPr><w:r><w:t>Claims.</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:pageBreakBefore w:val="0"/></w:pPr><w:r><w:t>Same page.</w:t></w:r></w:p>`
	path := writeDocx(t, body)
	e := New()

	pages, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cover.", "Exclusions.", "Claims.\n\nSame page."}, pages)

	n, err := e.PageCount(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExtract_TrailingBreakDropped(t *testing.T) {
	path := writeDocx(t, para("Only page.")+`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)

	pages, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, []string{"Only page."}, pages)
}

func TestExtract_Empty(t *testing.T) {
	pages, err := New().Extract(context.Background(), writeDocx(t, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{""}, pages)
}

func TestExtract_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := New().Extract(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("docProps/core.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = New().Extract(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseDocument_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parseDocument(ctx, strings.NewReader(`<w:document `+wordNS+`/>`))

	assert.ErrorIs(t, err, context.Canceled)
}
