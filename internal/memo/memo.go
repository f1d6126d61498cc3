// Package memo holds the in-memory model of an Army memorandum: the header
// fields, the body paragraph tree, inline spans and tables.
package memo

// MemoType selects the addressee layout of a memorandum.
type MemoType string

const (
	ForRecord MemoType = "FOR_RECORD"
	For       MemoType = "FOR"
	Thru      MemoType = "THRU"
	MultiFor  MemoType = "MULTI_FOR"
	Other     MemoType = "OTHER"
)

// MaxLevel is the deepest subdivision AR 25-50 allows: 1. → a. → (1) → (a).
const MaxLevel = 3

// Document is the root of a parsed memorandum.
type Document struct {
	Header Header
	Body   []*Paragraph
	Type   MemoType
}

// Paragraph is one body list item.
type Paragraph struct {
	Level    int          // 0-3
	Numbered bool         // false only for a leading un-bulleted paragraph
	Text     []Span       // Inline content
	Table    *Table       // Optional table owned by this paragraph
	Children []*Paragraph // Subparagraphs, exactly one level deeper
	Line     int          // 1-based source line where the paragraph starts
}

// Style is the inline style of a span.
type Style string

const (
	Plain     Style = "PLAIN"
	Bold      Style = "BOLD"
	Italic    Style = "ITALIC"
	Highlight Style = "HIGHLIGHT"
	Underline Style = "UNDERLINE"
)

// Span is an inline run of text with a single style.
type Span struct {
	Style Style
	Text  string
}

// Table is a row/column grid. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
	Line   int
}

// Columns returns the column count fixed by the header row.
func (t *Table) Columns() int {
	return len(t.Header)
}

// PlainText returns the paragraph's text with styling removed.
func (p *Paragraph) PlainText() string {
	n := 0
	for _, s := range p.Text {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range p.Text {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// Walk visits every paragraph depth-first in document order. path holds the
// 0-based sibling index at each level. Returning false skips the children.
func (d *Document) Walk(fn func(p *Paragraph, path []int) bool) {
	var walk func(ps []*Paragraph, path []int)
	walk = func(ps []*Paragraph, path []int) {
		for i, p := range ps {
			cur := append(path[:len(path):len(path)], i)
			if fn(p, cur) {
				walk(p.Children, cur)
			}
		}
	}
	walk(d.Body, nil)
}
