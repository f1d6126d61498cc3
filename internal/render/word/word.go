// Package word renders a memo as a Word (.docx) document.
package word

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
	"github.com/jschless/armymarkdown/internal/render/htmlpreview"
)

// indents per outline level, in spaces; Word has no notion of our labels so
// the hierarchy is carried by leading whitespace.
var indents = [...]string{"", "    ", "        ", "            "}

// Render writes doc as a .docx stream to w.
func Render(w io.Writer, doc *memo.Document) error {
	d := Build(doc)
	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// Build lays out the memo in a new document.
func Build(doc *memo.Document) *docx.Docx {
	h := doc.Header
	d := docx.New().WithDefaultTheme()

	if mark := strings.TrimSpace(h.Get(memo.DocumentMark)); mark != "" {
		d.AddParagraph().Justification("center").AddText(mark).Bold()
	}
	d.AddParagraph().Justification("center").AddText("DEPARTMENT OF THE ARMY").Bold()
	for _, k := range []memo.Key{memo.OrganizationName, memo.OrganizationStreetAddress, memo.OrganizationCityStateZip} {
		if v := h.Get(k); v != "" {
			d.AddParagraph().Justification("center").AddText(strings.ToUpper(v))
		}
	}
	d.AddParagraph()

	ref := d.AddParagraph()
	ref.AddText(h.Get(memo.OfficeSymbol)).AddTab()
	ref.AddText(h.Get(memo.Date))
	d.AddParagraph()

	for _, l := range htmlpreview.MemoLines(doc) {
		d.AddParagraph().AddText(l)
	}
	d.AddParagraph()

	if s := h.Get(memo.Suspense); s != "" {
		d.AddParagraph().AddText("SUSPENSE: " + s).Bold()
	}
	d.AddParagraph().AddText("SUBJECT: " + h.Get(memo.Subject))
	d.AddParagraph()

	for _, e := range outline.Flatten(doc) {
		p := d.AddParagraph()
		lead := indents[min(e.Level, len(indents)-1)]
		if e.Label != "" {
			lead += e.Label + " "
		}
		if lead != "" {
			p.AddText(lead)
		}
		for _, s := range e.Paragraph.Text {
			addSpan(p, s)
		}
		if t := e.Paragraph.Table; t != nil {
			addTable(d, t)
		}
		d.AddParagraph()
	}

	d.AddParagraph()
	if a := h.Get(memo.Authority); a != "" {
		d.AddParagraph().AddText(a)
	}
	d.AddParagraph().AddText(strings.ToUpper(h.Get(memo.Author)))
	d.AddParagraph().AddText(strings.TrimSpace(h.Get(memo.Rank) + ", " + h.Get(memo.Branch)))
	if title := h.Get(memo.Title); title != "" {
		d.AddParagraph().AddText(title)
	}

	if encl := h.List(memo.Enclosure); len(encl) > 0 {
		d.AddParagraph()
		heading := "Encl"
		if len(encl) > 1 {
			heading = "Encls"
		}
		d.AddParagraph().AddText(heading)
		for i, v := range encl {
			d.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, v))
		}
	}
	addListing(d, "DISTRIBUTION:", h.List(memo.Distro))
	addListing(d, "CF:", h.List(memo.CF))
	return d
}

func addSpan(p *docx.Paragraph, s memo.Span) {
	r := p.AddText(s.Text)
	switch s.Style {
	case memo.Bold:
		r.Bold()
	case memo.Italic:
		r.Italic()
	case memo.Highlight:
		r.Highlight("yellow")
	case memo.Underline:
		r.Underline("single")
	}
}

func addTable(d *docx.Docx, t *memo.Table) {
	cols := t.Columns()
	tbl := d.AddTable(len(t.Rows)+1, cols, 0, nil)
	for j, c := range t.Header {
		tbl.TableRows[0].TableCells[j].AddParagraph().AddText(c).Bold()
	}
	for i, row := range t.Rows {
		for j, c := range row {
			if j < cols {
				tbl.TableRows[i+1].TableCells[j].AddParagraph().AddText(c)
			}
		}
	}
}

func addListing(d *docx.Docx, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	d.AddParagraph()
	d.AddParagraph().AddText(heading)
	for _, v := range items {
		d.AddParagraph().AddText(v)
	}
}
