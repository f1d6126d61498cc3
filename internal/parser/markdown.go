package parser

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser imports CommonMark memos. YAML front matter supplies the
// header; lists become the paragraph tree; GFM tables become tables.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*memo.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	var matter map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &matter)
	if err != nil {
		return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("front matter: %v", err), Err: ErrFormat}
	}
	lineOffset := bytes.Count(src[:len(src)-len(body)], []byte("\n"))

	h := memo.NewHeader()
	applyFrontMatter(h, matter)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(body))

	im := &mdImporter{src: body, lineOffset: lineOffset, header: h}
	if err := im.blocks(root); err != nil {
		return nil, err
	}

	// A memo written as one loose paragraph is a single-paragraph memo.
	if !im.sawList && len(im.body) == 1 && im.body[0].Table == nil {
		im.body[0].Numbered = false
	}

	return &memo.Document{Header: h, Body: im.body, Type: ResolveType(h)}, nil
}

// applyFrontMatter maps front matter keys onto header keys. Keys match
// case-insensitively; lists fill repeatable keys in order; "for" and "thru"
// accept lists of {name, street, city_state_zip} maps.
func applyFrontMatter(h memo.Header, matter map[string]any) {
	keys := make([]string, 0, len(matter))
	for k := range matter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		v := matter[raw]
		key := memo.Key(strings.ToUpper(strings.ReplaceAll(raw, "-", "_")))

		switch {
		case key == "FOR" || key == "THRU":
			items, ok := v.([]any)
			if !ok {
				items = []any{v}
			}
			for i, item := range items {
				addAddress(h, string(key), i+1, item)
			}
		case memo.IsScalar(key):
			h.Fields[key] = scalarString(v)
		case memo.IsRepeatable(key):
			items, ok := v.([]any)
			if !ok {
				items = []any{v}
			}
			for i, item := range items {
				h.Set(key, memo.Entry{Index: i + 1, Value: scalarString(item)})
			}
		default:
			h.Extra[raw] = scalarString(v)
		}
	}
}

func addAddress(h memo.Header, prefix string, idx int, item any) {
	m, ok := stringMap(item)
	if !ok {
		h.Set(memo.Key(prefix+"_ORGANIZATION_NAME"), memo.Entry{Index: idx, Value: scalarString(item)})
		return
	}
	fields := map[string]memo.Key{
		"name":           memo.Key(prefix + "_ORGANIZATION_NAME"),
		"street":         memo.Key(prefix + "_ORGANIZATION_STREET_ADDRESS"),
		"city_state_zip": memo.Key(prefix + "_ORGANIZATION_CITY_STATE_ZIP"),
	}
	for name, key := range fields {
		if v, ok := m[name]; ok {
			h.Set(key, memo.Entry{Index: idx, Value: scalarString(v)})
		}
	}
}

// stringMap accepts both map shapes YAML decoders produce.
func stringMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[strings.ToLower(fmt.Sprint(k))] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format("2 January 2006")
	default:
		return fmt.Sprint(t)
	}
}

type mdImporter struct {
	src        []byte
	lineOffset int
	header     memo.Header
	body       []*memo.Paragraph
	sawList    bool
}

func (im *mdImporter) blocks(root ast.Node) error {
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			// The first heading doubles as the subject when none is set.
			if !im.header.Has(memo.Subject) {
				im.header.Fields[memo.Subject] = plainText(node, im.src)
			}
		case *ast.List:
			im.sawList = true
			if err := im.list(node, 0, nil); err != nil {
				return err
			}
		case *ast.Paragraph:
			im.body = append(im.body, &memo.Paragraph{
				Numbered: true,
				Text:     im.inlines(node, memo.Plain, nil),
				Line:     im.lineOf(node),
			})
		case *extast.Table:
			t, err := im.table(node)
			if err != nil {
				return err
			}
			if n := len(im.body); n > 0 && im.body[n-1].Table == nil {
				im.body[n-1].Table = t
			} else {
				im.body = append(im.body, &memo.Paragraph{Numbered: true, Table: t, Line: t.Line})
			}
		}
	}
	return nil
}

func (im *mdImporter) list(list *ast.List, level int, parent *memo.Paragraph) error {
	if level > memo.MaxLevel {
		return errorf(im.lineOf(list), "", "exceeds third-level subdivision, per AR 25-50")
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		p := &memo.Paragraph{Level: level, Numbered: true, Line: im.lineOf(item)}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch block := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if len(p.Text) > 0 {
					p.Text = appendSpan(p.Text, memo.Span{Style: memo.Plain, Text: "\n\n"})
				}
				p.Text = im.inlines(block, memo.Plain, p.Text)
			case *ast.List:
				if err := im.list(block, level+1, p); err != nil {
					return err
				}
			case *extast.Table:
				t, err := im.table(block)
				if err != nil {
					return err
				}
				p.Table = t
			}
		}
		if parent == nil {
			im.body = append(im.body, p)
		} else {
			parent.Children = append(parent.Children, p)
		}
	}
	return nil
}

// inlines flattens inline children into spans. Nested emphasis takes the
// outermost style since spans do not nest.
func (im *mdImporter) inlines(n ast.Node, style memo.Style, spans []memo.Span) []memo.Span {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			spans = appendSpan(spans, memo.Span{Style: style, Text: string(node.Segment.Value(im.src))})
			if node.SoftLineBreak() || node.HardLineBreak() {
				spans = appendSpan(spans, memo.Span{Style: style, Text: " "})
			}
		case *ast.String:
			spans = appendSpan(spans, memo.Span{Style: style, Text: string(node.Value)})
		case *ast.Emphasis:
			s := style
			if s == memo.Plain {
				s = memo.Italic
				if node.Level >= 2 {
					s = memo.Bold
				}
			}
			spans = im.inlines(node, s, spans)
		case *ast.CodeSpan:
			s := style
			if s == memo.Plain {
				s = memo.Highlight
			}
			spans = im.inlines(node, s, spans)
		case *ast.AutoLink:
			spans = appendSpan(spans, memo.Span{Style: style, Text: string(node.URL(im.src))})
		default:
			spans = im.inlines(node, style, spans)
		}
	}
	return spans
}

func (im *mdImporter) table(t *extast.Table) (*memo.Table, error) {
	out := &memo.Table{Line: im.lineOf(t)}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(plainText(cell, im.src)))
		}
		if _, ok := row.(*extast.TableHeader); ok {
			out.Header = cells
			continue
		}
		if len(cells) != len(out.Header) {
			return nil, errorf(out.Line, "", "table row %d: expected %d, got %d", len(out.Rows)+1, len(out.Header), len(cells))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// lineOf returns the 1-based source line of the first text line under n.
func (im *mdImporter) lineOf(n ast.Node) int {
	for cur := n; cur != nil; cur = cur.FirstChild() {
		if cur.Type() == ast.TypeBlock && cur.Lines().Len() > 0 {
			start := cur.Lines().At(0).Start
			return bytes.Count(im.src[:start], []byte("\n")) + 1 + im.lineOffset
		}
	}
	return 0
}

func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// appendSpan merges s into the last span when the styles match.
func appendSpan(spans []memo.Span, s memo.Span) []memo.Span {
	if s.Text == "" {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].Style == s.Style {
		spans[n-1].Text += s.Text
		return spans
	}
	return append(spans, s)
}
