// Package amdtext writes a memo Document back out as canonical Army Markdown.
package amdtext

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
)

var markerFor = map[memo.Style]string{
	memo.Bold:      "**",
	memo.Italic:    "*",
	memo.Highlight: "`",
	memo.Underline: "__",
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
)

// Format renders doc as Army Markdown: scalar fields in canonical order,
// numbered fields with explicit suffixes, unknown fields last, then the body.
//
// Text blocks that begin with a single "-" or contain "|" on a continuation
// line are not protected and will re-parse as bullets or table rows. An
// underline span that directly follows a letter or digit re-parses as plain
// text.
func Format(doc *memo.Document) string {
	var b strings.Builder
	writeHeader(&b, doc.Header)
	b.WriteString("---\n")
	for _, p := range doc.Body {
		writeParagraph(&b, p)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, h memo.Header) {
	for _, k := range memo.ScalarKeys {
		if v, ok := h.Fields[k]; ok {
			fmt.Fprintf(b, "%s = %s\n", k, v)
		}
	}
	for _, k := range memo.RepeatableKeys {
		for _, e := range h.Lists[k] {
			fmt.Fprintf(b, "%s%d = %s\n", k, e.Index, e.Value)
		}
	}

	extra := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(b, "%s = %s\n", k, h.Extra[k])
	}
}

func writeParagraph(b *strings.Builder, p *memo.Paragraph) {
	indent := strings.Repeat(" ", 4*p.Level)
	blocks := strings.Split(Spans(p.Text), "\n\n")

	if p.Numbered {
		b.WriteString(indent)
		b.WriteString("-")
		if blocks[0] != "" {
			b.WriteString(" ")
			b.WriteString(blocks[0])
		}
		b.WriteString("\n")
		indent += "  "
	} else if blocks[0] != "" {
		b.WriteString(blocks[0])
		b.WriteString("\n")
	}
	for _, block := range blocks[1:] {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(block)
		b.WriteString("\n")
	}

	if p.Table != nil {
		writeTable(b, indent, p.Table)
	}
	for _, c := range p.Children {
		writeParagraph(b, c)
	}
}

func writeTable(b *strings.Builder, indent string, t *memo.Table) {
	row := func(cells []string) {
		b.WriteString(indent)
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
	row(t.Header)
	sep := make([]string, t.Columns())
	for i := range sep {
		sep[i] = "---"
	}
	row(sep)
	for _, r := range t.Rows {
		row(r)
	}
}

// Spans renders inline runs back to marker syntax, escaping marker
// characters inside the text.
func Spans(spans []memo.Span) string {
	var b strings.Builder
	for _, s := range spans {
		text := escaper.Replace(s.Text)
		m, ok := markerFor[s.Style]
		if !ok {
			b.WriteString(text)
			continue
		}
		b.WriteString(m)
		b.WriteString(text)
		b.WriteString(m)
	}
	return b.String()
}
