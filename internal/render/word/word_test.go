package word

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschless/armymarkdown/internal/parser"
)

const source = `ORGANIZATION_NAME = 4th Engineer Battalion
ORGANIZATION_STREET_ADDRESS = 588 Wetzel Road
ORGANIZATION_CITY_STATE_ZIP = Colorado Springs, CO 80904
OFFICE_SYMBOL = ABC-DEF-GH
AUTHOR = Joseph C. Schlessinger
RANK = 1LT
BRANCH = EN
DATE = 15 January 2025
SUBJECT = Range safety
ENCLOSURE1 = Range card
ENCLOSURE2 = Risk assessment
---
- First **bold** paragraph.
    - Sub a.
    - Sub b.
- Second paragraph.
`

func paragraphs(t *testing.T, b []byte) []string {
	t.Helper()
	doc, err := docx.Parse(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	var out []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var buf strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					buf.WriteString(t.Text)
				}
			}
		}
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func TestRender(t *testing.T) {
	doc, err := parser.Parse(source)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, doc))
	require.NotZero(t, buf.Len())

	got := paragraphs(t, buf.Bytes())
	assert.Contains(t, got, "DEPARTMENT OF THE ARMY")
	assert.Contains(t, got, "4TH ENGINEER BATTALION")
	assert.Contains(t, got, "MEMORANDUM FOR RECORD")
	assert.Contains(t, got, "SUBJECT: Range safety")
	assert.Contains(t, got, "1. First bold paragraph.")
	assert.Contains(t, got, "a. Sub a.")
	assert.Contains(t, got, "2. Second paragraph.")
	assert.Contains(t, got, "JOSEPH C. SCHLESSINGER")
	assert.Contains(t, got, "Encls")
	assert.Contains(t, got, "2. Risk assessment")

	joined := strings.Join(got, "\n")
	assert.Less(t, strings.Index(joined, "SUBJECT:"), strings.Index(joined, "1. First"))
}
