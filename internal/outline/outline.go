// Package outline flattens a memo body into labelled entries (1., a., (1), (a))
// with breadcrumb references such as "2.a.(1)".
package outline

import (
	"strconv"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
)

// Entry is one paragraph of the flattened outline.
type Entry struct {
	Paragraph  *memo.Paragraph
	Level      int
	Label      string   // own label, e.g. "(1)"; empty for un-numbered paragraphs
	Breadcrumb []string // labels from the top level down, e.g. ["2.", "a.", "(1)"]
	Path       []int    // 0-based sibling index at each level
}

// Ref returns the dotted reference used in diagnostics, e.g. "2.a.(1)".
func (e Entry) Ref() string {
	if e.Label == "" {
		return ""
	}
	return strings.TrimSuffix(strings.Join(e.Breadcrumb, ""), ".")
}

// Location names the entry for a human: "paragraph 2.a" or "un-numbered paragraph".
func (e Entry) Location() string {
	if e.Label == "" {
		return "un-numbered paragraph"
	}
	return "paragraph " + e.Ref()
}

// Flatten walks the body depth-first. Labels count numbered siblings only, so
// a leading un-numbered paragraph does not shift the numbering.
func Flatten(doc *memo.Document) []Entry {
	var entries []Entry
	walk(doc.Body, nil, nil, &entries)
	return entries
}

func walk(ps []*memo.Paragraph, breadcrumb []string, path []int, out *[]Entry) {
	n := 0
	for i, p := range ps {
		bc := copyBreadcrumb(breadcrumb)
		label := ""
		if p.Numbered {
			n++
			label = Label(p.Level, n)
			bc = append(bc, label)
		}
		cur := append(path[:len(path):len(path)], i)
		*out = append(*out, Entry{
			Paragraph:  p,
			Level:      p.Level,
			Label:      label,
			Breadcrumb: bc,
			Path:       cur,
		})
		walk(p.Children, bc, cur, out)
	}
}

// Refs maps every numbered paragraph to its reference.
func Refs(doc *memo.Document) map[*memo.Paragraph]string {
	m := make(map[*memo.Paragraph]string)
	for _, e := range Flatten(doc) {
		m[e.Paragraph] = e.Ref()
	}
	return m
}

// Label returns the label of the n-th (1-based) numbered paragraph at level.
func Label(level, n int) string {
	switch level {
	case 0:
		return strconv.Itoa(n) + "."
	case 1:
		return Letters(n) + "."
	case 2:
		return "(" + strconv.Itoa(n) + ")"
	default:
		return "(" + Letters(n) + ")"
	}
}

// Letters converts 1 → a, 26 → z, 27 → aa.
func Letters(n int) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func copyBreadcrumb(bc []string) []string {
	out := make([]string, len(bc), len(bc)+1)
	copy(out, bc)
	return out
}
