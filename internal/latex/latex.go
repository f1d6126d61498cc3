// Package latex renders a validated memo Document as LaTeX source for the
// armymemo document class.
package latex

import (
	"fmt"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/validate"
)

// DefaultClass is the document class used when Generator.Class is empty.
const DefaultClass = "armymemo-notikz"

// Generator emits LaTeX. The zero value is ready to use.
type Generator struct {
	Class string
}

// Generate validates doc and renders it with the default generator.
func Generate(doc *memo.Document) (string, error) {
	return Generator{}.Generate(doc)
}

// Generate validates doc and refuses with a *validate.ValidationError when
// any ERROR is present.
func (g Generator) Generate(doc *memo.Document) (string, error) {
	if err := validate.Validate(doc).Err(); err != nil {
		return "", err
	}
	return g.Render(doc), nil
}

// Render emits LaTeX without validating. Callers must have validated doc.
func (g Generator) Render(doc *memo.Document) string {
	class := g.Class
	if class == "" {
		class = DefaultClass
	}

	w := &writer{}
	w.line(`\documentclass{%s}`, class)
	w.admin(doc)
	w.line(`\begin{document}`)
	w.body(doc.Body)
	w.line(`\end{document}`)
	return w.String()
}

type writer struct {
	strings.Builder
}

func (w *writer) line(format string, args ...any) {
	fmt.Fprintf(w, format, args...)
	w.WriteByte('\n')
}

func (w *writer) admin(doc *memo.Document) {
	h := doc.Header
	w.line(`\address{%s}`, Escape(h.Get(memo.OrganizationName)))
	w.line(`\address{%s}`, Escape(h.Get(memo.OrganizationStreetAddress)))
	w.line(`\address{%s}`, Escape(h.Get(memo.OrganizationCityStateZip)))
	w.line(`\author{%s}\rank{%s}\branch{%s}`,
		Escape(h.Get(memo.Author)), Escape(h.Get(memo.Rank)), Escape(h.Get(memo.Branch)))
	w.line(`\officesymbol{%s}`, Escape(h.Get(memo.OfficeSymbol)))
	w.line(`\signaturedate{%s}`, Escape(h.Get(memo.Date)))
	w.line(`\subject{%s}`, Escape(h.Get(memo.Subject)))

	w.memoLines(doc)

	for _, l := range []struct {
		cmd string
		key memo.Key
	}{
		{"encl", memo.Enclosure},
		{"distro", memo.Distro},
		{"cf", memo.CF},
	} {
		for _, v := range h.List(l.key) {
			w.line(`\add%s{%s}`, l.cmd, Escape(v))
		}
	}

	for _, o := range []struct {
		cmd string
		key memo.Key
	}{
		{"authority", memo.Authority},
		{"title", memo.Title},
		{"suspensedate", memo.Suspense},
		{"documentmark", memo.DocumentMark},
	} {
		if h.Has(o.key) {
			w.line(`\%s{%s}`, o.cmd, Escape(h.Get(o.key)))
		}
	}
}

// memoLines writes the addressee block for the memo type.
func (w *writer) memoLines(doc *memo.Document) {
	fors := doc.Header.Addresses("FOR")
	switch doc.Type {
	case memo.ForRecord:
		w.line(`\memoline{MEMORANDUM FOR RECORD}`)
	case memo.Other:
		w.line(`\memoline{%s}`, Escape(strings.TrimSpace(doc.Header.Get(memo.MemoTypeKey))))
	case memo.Thru:
		thrus := doc.Header.Addresses("THRU")
		if len(thrus) == 1 {
			w.line(`\addmemoline{MEMORANDUM THRU %s}`, Escape(thrus[0].String()))
		} else {
			for _, a := range thrus {
				w.line(`\multimemothru{%s}`, Escape(a.String()))
			}
		}
		w.forLines("FOR", fors)
	default:
		w.forLines("MEMORANDUM FOR", fors)
	}
}

func (w *writer) forLines(prefix string, fors []memo.Address) {
	if len(fors) == 1 {
		w.line(`\memoline{%s %s}`, prefix, Escape(fors[0].String()))
		return
	}
	for _, a := range fors {
		w.line(`\multimemofor{%s}`, Escape(a.String()))
	}
}

// enumLabels are the enumitem labels per level: 1. a. (1) (a).
var enumLabels = [memo.MaxLevel + 1]string{
	`\arabic*.`,
	`\alph*.`,
	`(\arabic*)`,
	`(\alph*)`,
}

// body groups consecutive numbered top-level paragraphs into one list so
// numbering continues across them; un-numbered paragraphs stand alone.
func (w *writer) body(ps []*memo.Paragraph) {
	open := false
	for _, p := range ps {
		if !p.Numbered {
			if open {
				w.line(`\end{enumerate}`)
				open = false
			}
			w.plain(p)
			continue
		}
		if !open {
			w.line(`\begin{enumerate}[label=%s]`, enumLabels[0])
			open = true
		}
		w.item(p)
	}
	if open {
		w.line(`\end{enumerate}`)
	}
}

func (w *writer) item(p *memo.Paragraph) {
	text := Spans(p.Text)
	// \item reads a leading "[" as its optional label, replacing the number.
	if strings.HasPrefix(text, "[") {
		text = "{}" + text
	}
	w.line(`\item %s`, text)
	if p.Table != nil {
		w.table(p.Table)
	}
	if len(p.Children) == 0 {
		return
	}
	level := p.Level + 1
	if level > memo.MaxLevel {
		panic(fmt.Sprintf("latex: paragraph nested at level %d", level))
	}
	w.line(`\begin{enumerate}[label=%s]`, enumLabels[level])
	for _, c := range p.Children {
		w.item(c)
	}
	w.line(`\end{enumerate}`)
}

func (w *writer) plain(p *memo.Paragraph) {
	if len(p.Text) > 0 {
		w.line(`%s`, Spans(p.Text))
		w.line("")
	}
	if p.Table != nil {
		w.table(p.Table)
	}
}

func (w *writer) table(t *memo.Table) {
	cols := t.Columns()
	w.line(`\begin{center}`)
	w.line(`\begin{tabular}{%s|}`, strings.Repeat("|l", cols))
	w.line(`\hline`)
	head := make([]string, cols)
	for i, c := range t.Header {
		head[i] = `\textbf{` + Escape(c) + `}`
	}
	w.line(`%s \\`, strings.Join(head, " & "))
	w.line(`\hline`)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = Escape(c)
		}
		w.line(`%s \\`, strings.Join(cells, " & "))
		w.line(`\hline`)
	}
	w.line(`\end{tabular}`)
	w.line(`\end{center}`)
}

var styleCommands = map[memo.Style]string{
	memo.Bold:      `\textbf`,
	memo.Italic:    `\textit`,
	memo.Highlight: `\hl`,
	memo.Underline: `\underline`,
}

// Spans renders inline runs with their style commands.
func Spans(spans []memo.Span) string {
	var b strings.Builder
	for _, s := range spans {
		text := Escape(s.Text)
		cmd, ok := styleCommands[s.Style]
		if !ok {
			b.WriteString(text)
			continue
		}
		b.WriteString(cmd)
		b.WriteByte('{')
		b.WriteString(text)
		b.WriteByte('}')
	}
	return b.String()
}

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes user text safe inside LaTeX.
func Escape(s string) string {
	return escaper.Replace(s)
}
