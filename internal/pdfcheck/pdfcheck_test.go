package pdfcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/parser"
)

const source = `ORGANIZATION_NAME = 4th Engineer Battalion
OFFICE_SYMBOL = ABC-DEF-GH
DATE = 15 January 2025
SUBJECT = Range safety
---
- Short paragraph.
`

func rules(t *testing.T, pages []string, opts Options) []string {
	t.Helper()
	doc, err := parser.Parse(source)
	require.NoError(t, err)
	var ids []string
	for _, is := range Check(pages, doc, opts) {
		ids = append(ids, is.Rule)
	}
	return ids
}

func TestCheck_Clean(t *testing.T) {
	page := "DEPARTMENT OF THE ARMY\n4TH ENGINEER BATTALION\nABC-DEF-GH   15 January 2025\nSUBJECT: Range safety\n1. Short paragraph."
	assert.Empty(t, rules(t, []string{page}, Options{}))
}

func TestCheck_WhitespaceInsensitive(t *testing.T) {
	page := "DEPARTMENTOFTHEARMY ABC - DEF - GH 15January2025 SUBJECT:Rangesafety"
	assert.Empty(t, rules(t, []string{page}, Options{}))
}

func TestCheck_Missing(t *testing.T) {
	assert.Equal(t, []string{"PDF_001", "PDF_002", "PDF_003", "PDF_004"}, rules(t, []string{"blank"}, Options{}))
}

func TestCheck_DepartmentOnlyOnLaterPage(t *testing.T) {
	pages := []string{"ABC-DEF-GH 15 January 2025 Range safety", "DEPARTMENT OF THE ARMY"}
	assert.Equal(t, []string{"PDF_001"}, rules(t, pages, Options{}))
}

func TestCheck_PageCount(t *testing.T) {
	ok := "DEPARTMENT OF THE ARMY ABC-DEF-GH 15 January 2025 Range safety"
	ids := rules(t, nil, Options{})
	assert.Contains(t, ids, "PDF_005")

	ids = rules(t, []string{ok, "", "", "", ""}, Options{})
	assert.Equal(t, []string{"PDF_005"}, ids)

	ids = rules(t, []string{ok, ""}, Options{MaxPages: 1})
	assert.Equal(t, []string{"PDF_005"}, ids)

	ids = rules(t, []string{ok, ""}, Options{})
	assert.Empty(t, ids)
}

func TestCheck_SeverityFromCatalog(t *testing.T) {
	doc, err := parser.Parse(source)
	require.NoError(t, err)
	issues := Check([]string{""}, doc, Options{})
	require.NotEmpty(t, issues)
	for _, is := range issues {
		if is.Rule == "PDF_004" {
			assert.Equal(t, "WARNING", string(is.Severity))
		} else {
			assert.Equal(t, "ERROR", string(is.Severity))
		}
	}
}

func TestExpectedPages(t *testing.T) {
	doc := &memo.Document{Header: memo.NewHeader()}
	assert.Equal(t, 1, ExpectedPages(doc))

	doc.Body = []*memo.Paragraph{{Numbered: true, Text: []memo.Span{{Text: strings.Repeat("word ", 900)}}}}
	assert.Equal(t, 3, ExpectedPages(doc))
}

func TestCheckFile_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	doc, err := parser.Parse(source)
	require.NoError(t, err)
	_, err = CheckFile(path, doc, Options{})
	assert.Error(t, err)
}
