package parser

import (
	"fmt"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
)

// indentWidth is the number of spaces per subdivision level.
const indentWidth = 4

type stackEntry struct {
	para  *memo.Paragraph
	level int
}

type rawText struct {
	para *memo.Paragraph
	text strings.Builder
}

// bodyBuilder assembles the paragraph tree from classified body lines. stack
// holds the chain of open numbered paragraphs, strictly increasing in level.
type bodyBuilder struct {
	body      []*memo.Paragraph
	stack     []stackEntry
	last      *memo.Paragraph
	raws      []*rawText
	byPara    map[*memo.Paragraph]*rawText
	blank     bool
	tableRows []Line
}

func parseBody(lines []Line) ([]*memo.Paragraph, error) {
	b := &bodyBuilder{byPara: make(map[*memo.Paragraph]*rawText)}

	for _, l := range lines {
		if l.Kind != LineTableRow && len(b.tableRows) > 0 {
			if err := b.flushTable(); err != nil {
				return nil, err
			}
		}
		switch l.Kind {
		case LineBlank:
			b.blank = true
		case LineBullet:
			if err := b.openParagraph(l); err != nil {
				return nil, err
			}
		case LineContinuation:
			b.appendText(l)
		case LineTableRow:
			b.tableRows = append(b.tableRows, l)
			b.blank = false
		default:
			panic(fmt.Sprintf("parser: unexpected %s line in body", l.Kind))
		}
	}
	if len(b.tableRows) > 0 {
		if err := b.flushTable(); err != nil {
			return nil, err
		}
	}

	if err := b.parseSpans(); err != nil {
		return nil, err
	}
	return b.body, nil
}

func (b *bodyBuilder) openParagraph(l Line) error {
	level := l.Indent / indentWidth
	if level > memo.MaxLevel {
		return errorf(l.Num, "", "exceeds third-level subdivision, per AR 25-50")
	}

	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}

	p := &memo.Paragraph{Level: level, Numbered: true, Line: l.Num}
	if level == 0 {
		b.body = append(b.body, p)
	} else {
		if len(b.stack) == 0 || b.stack[len(b.stack)-1].level != level-1 {
			return errorf(l.Num, "", "subparagraph at level %d has no parent paragraph at level %d", level, level-1)
		}
		parent := b.stack[len(b.stack)-1].para
		parent.Children = append(parent.Children, p)
	}
	if len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		panic("parser: nesting stack out of order")
	}
	b.stack = append(b.stack, stackEntry{para: p, level: level})

	r := b.track(p)
	r.text.WriteString(l.Text)
	b.last = p
	b.blank = false
	return nil
}

func (b *bodyBuilder) appendText(l Line) {
	if b.last == nil {
		b.last = b.unnumbered(l.Num)
	}
	r := b.byPara[b.last]
	if r.text.Len() > 0 {
		if b.blank {
			r.text.WriteString("\n\n")
		} else {
			r.text.WriteByte(' ')
		}
	}
	r.text.WriteString(strings.TrimSpace(l.Text))
	b.blank = false
}

func (b *bodyBuilder) flushTable() error {
	rows := b.tableRows
	b.tableRows = nil

	t, err := parseTable(rows)
	if err != nil {
		return err
	}
	if b.last == nil {
		b.last = b.unnumbered(rows[0].Num)
	}
	if b.last.Table != nil {
		return errorf(rows[0].Num, "", "paragraph already has a table (started on line %d)", b.last.Table.Line)
	}
	b.last.Table = t
	return nil
}

// unnumbered appends a top-level paragraph without a label.
func (b *bodyBuilder) unnumbered(line int) *memo.Paragraph {
	p := &memo.Paragraph{Level: 0, Numbered: false, Line: line}
	b.body = append(b.body, p)
	b.track(p)
	return p
}

func (b *bodyBuilder) track(p *memo.Paragraph) *rawText {
	r := &rawText{para: p}
	b.raws = append(b.raws, r)
	b.byPara[p] = r
	return r
}

// parseSpans runs once the tree is complete so errors can name the
// paragraph by its outline reference.
func (b *bodyBuilder) parseSpans() error {
	var entries map[*memo.Paragraph]outline.Entry
	for _, r := range b.raws {
		spans, err := ParseSpans(r.text.String())
		if err != nil {
			if entries == nil {
				entries = make(map[*memo.Paragraph]outline.Entry)
				for _, e := range outline.Flatten(&memo.Document{Body: b.body}) {
					entries[e.Paragraph] = e
				}
			}
			return &ParseError{
				Line: r.para.Line,
				Msg:  fmt.Sprintf("%s: %v", entries[r.para].Location(), err),
			}
		}
		r.para.Text = spans
	}
	return nil
}
