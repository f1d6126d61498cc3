package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jschless/armymarkdown/internal/memo"
)

func TestMarkdownParser_FrontMatterAndLists(t *testing.T) {
	input := `---
organization_name: 4th Engineer Battalion
subject: Range Safety Briefing
date: 3 March 2025
enclosure:
  - Range card
  - Risk assessment
for:
  - name: 1st Brigade
    street: 1 Main St
    city_state_zip: Fort Carson, CO 80913
favorite_color: green
---

- First with **bold** and *italic* text.
    - Sub a with ` + "`highlight`" + `.
    - Sub b.
- Second.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "memo.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := doc.Header
	if h.Get(memo.OrganizationName) != "4th Engineer Battalion" {
		t.Errorf("unexpected organization %q", h.Get(memo.OrganizationName))
	}
	if h.Get(memo.Subject) != "Range Safety Briefing" {
		t.Errorf("unexpected subject %q", h.Get(memo.Subject))
	}
	if got := h.List(memo.Enclosure); !reflect.DeepEqual(got, []string{"Range card", "Risk assessment"}) {
		t.Errorf("unexpected enclosures %v", got)
	}
	addrs := h.Addresses("FOR")
	if len(addrs) != 1 || addrs[0].CityStateZip != "Fort Carson, CO 80913" {
		t.Errorf("unexpected addresses %+v", addrs)
	}
	if doc.Type != memo.For {
		t.Errorf("expected type FOR, got %s", doc.Type)
	}
	if h.Extra["favorite_color"] != "green" {
		t.Errorf("expected unknown key kept, got %v", h.Extra)
	}

	if len(doc.Body) != 2 {
		t.Fatalf("expected 2 top-level paragraphs, got %d", len(doc.Body))
	}
	first := doc.Body[0]
	wantSpans := []memo.Span{
		{Style: memo.Plain, Text: "First with "},
		{Style: memo.Bold, Text: "bold"},
		{Style: memo.Plain, Text: " and "},
		{Style: memo.Italic, Text: "italic"},
		{Style: memo.Plain, Text: " text."},
	}
	if !reflect.DeepEqual(first.Text, wantSpans) {
		t.Errorf("expected %+v, got %+v", wantSpans, first.Text)
	}
	if len(first.Children) != 2 || first.Children[0].Level != 1 {
		t.Fatalf("expected 2 level-1 children, got %+v", first.Children)
	}
	if first.Children[0].Text[1].Style != memo.Highlight {
		t.Errorf("expected highlight span, got %+v", first.Children[0].Text)
	}
}

func TestMarkdownParser_HeadingBecomesSubject(t *testing.T) {
	input := "# Motor Pool Hours\n\nThe motor pool closes at 1700 daily.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "memo.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Header.Get(memo.Subject) != "Motor Pool Hours" {
		t.Errorf("unexpected subject %q", doc.Header.Get(memo.Subject))
	}
	if len(doc.Body) != 1 || doc.Body[0].Numbered {
		t.Fatalf("expected one un-numbered paragraph, got %+v", doc.Body)
	}
	if doc.Body[0].Line != 3 {
		t.Errorf("expected line 3, got %d", doc.Body[0].Line)
	}
}

func TestMarkdownParser_Table(t *testing.T) {
	input := `- Status:

    | Item | Qty |
    |------|-----|
    | Radio | 4 |
- Second.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "memo.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := doc.Body[0].Table
	if tbl == nil {
		t.Fatal("expected table on first paragraph")
	}
	if !reflect.DeepEqual(tbl.Header, []string{"Item", "Qty"}) {
		t.Errorf("unexpected header %v", tbl.Header)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "Radio" {
		t.Errorf("unexpected rows %v", tbl.Rows)
	}
}

func TestMarkdownParser_TooDeep(t *testing.T) {
	input := "- 1\n  - a\n    - (1)\n      - (a)\n        - too deep\n"
	p := &MarkdownParser{}
	if _, err := p.Parse(strings.NewReader(input), "memo.md"); err == nil {
		t.Fatal("expected error for five list levels")
	}
}
