// Package htmlpreview renders a memo as an HTML fragment laid out like the
// printed memorandum, for browser previews.
package htmlpreview

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
)

// Render writes the preview fragment for doc to w.
func Render(w io.Writer, doc *memo.Document) error {
	root := Build(doc)
	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// String renders the preview to a string.
func String(doc *memo.Document) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Build returns the preview as an html.Node tree rooted at a
// <div class="memo"> element.
func Build(doc *memo.Document) *html.Node {
	h := doc.Header
	root := element(atom.Div, "memo")

	if mark := strings.TrimSpace(h.Get(memo.DocumentMark)); mark != "" {
		appendText(root, atom.Div, "document-mark", mark)
	}

	letterhead := element(atom.Div, "letterhead")
	appendText(letterhead, atom.Div, "department", "DEPARTMENT OF THE ARMY")
	for _, k := range []memo.Key{memo.OrganizationName, memo.OrganizationStreetAddress, memo.OrganizationCityStateZip} {
		appendText(letterhead, atom.Div, "address", strings.ToUpper(h.Get(k)))
	}
	root.AppendChild(letterhead)

	refLine := element(atom.Div, "reference-line")
	appendText(refLine, atom.Span, "office-symbol", h.Get(memo.OfficeSymbol))
	appendText(refLine, atom.Span, "date", h.Get(memo.Date))
	root.AppendChild(refLine)

	memoLines := element(atom.Div, "memo-lines")
	for _, l := range MemoLines(doc) {
		appendText(memoLines, atom.P, "memo-line", l)
	}
	root.AppendChild(memoLines)

	if s := h.Get(memo.Suspense); s != "" {
		appendText(root, atom.P, "suspense", "SUSPENSE: "+s)
	}
	appendText(root, atom.P, "subject", "SUBJECT: "+h.Get(memo.Subject))

	root.AppendChild(body(doc))
	root.AppendChild(signature(h))

	if encl := h.List(memo.Enclosure); len(encl) > 0 {
		root.AppendChild(listing("enclosures", "Encl", encl, true))
	}
	if distro := h.List(memo.Distro); len(distro) > 0 {
		root.AppendChild(listing("distribution", "DISTRIBUTION:", distro, false))
	}
	if cf := h.List(memo.CF); len(cf) > 0 {
		root.AppendChild(listing("copies-furnished", "CF:", cf, false))
	}
	return root
}

// MemoLines returns the addressee lines as they print, e.g.
// "MEMORANDUM FOR RECORD" or "MEMORANDUM THRU ...".
func MemoLines(doc *memo.Document) []string {
	h := doc.Header
	fors := h.Addresses("FOR")
	switch doc.Type {
	case memo.ForRecord:
		return []string{"MEMORANDUM FOR RECORD"}
	case memo.Other:
		return []string{strings.TrimSpace(h.Get(memo.MemoTypeKey))}
	case memo.Thru:
		var lines []string
		for i, a := range h.Addresses("THRU") {
			if i == 0 {
				lines = append(lines, "MEMORANDUM THRU "+a.String())
			} else {
				lines = append(lines, a.String())
			}
		}
		return append(lines, forLines("FOR", fors)...)
	default:
		return forLines("MEMORANDUM FOR", fors)
	}
}

func forLines(prefix string, fors []memo.Address) []string {
	if len(fors) == 1 {
		return []string{prefix + " " + fors[0].String()}
	}
	lines := []string{prefix + " SEE DISTRIBUTION"}
	if prefix == "FOR" {
		lines = []string{"FOR"}
	}
	for _, a := range fors {
		lines = append(lines, a.String())
	}
	return lines
}

func body(doc *memo.Document) *html.Node {
	div := element(atom.Div, "body")
	for _, e := range outline.Flatten(doc) {
		p := element(atom.P, fmt.Sprintf("paragraph level-%d", e.Level))
		if e.Label != "" {
			p.Attr = append(p.Attr, html.Attribute{Key: "data-ref", Val: e.Ref()})
			appendText(p, atom.Span, "label", e.Label)
			p.AppendChild(textNode(" "))
		}
		for _, s := range e.Paragraph.Text {
			p.AppendChild(span(s))
		}
		div.AppendChild(p)
		if e.Paragraph.Table != nil {
			div.AppendChild(table(e.Paragraph.Table))
		}
	}
	return div
}

var styleTags = map[memo.Style]atom.Atom{
	memo.Bold:      atom.Strong,
	memo.Italic:    atom.Em,
	memo.Highlight: atom.Mark,
	memo.Underline: atom.U,
}

func span(s memo.Span) *html.Node {
	a, ok := styleTags[s.Style]
	if !ok {
		return textNode(s.Text)
	}
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	n.AppendChild(textNode(s.Text))
	return n
}

func table(t *memo.Table) *html.Node {
	tbl := element(atom.Table, "memo-table")
	thead := element(atom.Thead, "")
	tr := element(atom.Tr, "")
	for _, c := range t.Header {
		appendText(tr, atom.Th, "", c)
	}
	thead.AppendChild(tr)
	tbl.AppendChild(thead)

	tbody := element(atom.Tbody, "")
	for _, row := range t.Rows {
		tr := element(atom.Tr, "")
		for _, c := range row {
			appendText(tr, atom.Td, "", c)
		}
		tbody.AppendChild(tr)
	}
	tbl.AppendChild(tbody)
	return tbl
}

func signature(h memo.Header) *html.Node {
	div := element(atom.Div, "signature")
	if a := h.Get(memo.Authority); a != "" {
		appendText(div, atom.Div, "authority", a)
	}
	appendText(div, atom.Div, "name", strings.ToUpper(h.Get(memo.Author)))
	appendText(div, atom.Div, "rank-branch", strings.TrimSpace(h.Get(memo.Rank)+", "+h.Get(memo.Branch)))
	if title := h.Get(memo.Title); title != "" {
		appendText(div, atom.Div, "title", title)
	}
	return div
}

func listing(class, heading string, items []string, numbered bool) *html.Node {
	div := element(atom.Div, class)
	if numbered {
		label := heading
		if len(items) > 1 {
			label += "s"
		}
		appendText(div, atom.Div, "heading", label)
		ol := element(atom.Ol, "")
		for _, it := range items {
			appendText(ol, atom.Li, "", it)
		}
		div.AppendChild(ol)
		return div
	}
	appendText(div, atom.Div, "heading", heading)
	for _, it := range items {
		appendText(div, atom.Div, "", it)
	}
	return div
}

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendText(parent *html.Node, a atom.Atom, class, text string) {
	n := element(a, class)
	n.AppendChild(textNode(text))
	parent.AppendChild(n)
}
