package parser

import (
	"regexp"
	"strings"
)

// LineKind classifies one raw input line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineAssignment
	LineSeparator
	LineBullet
	LineContinuation
	LineTableRow
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineAssignment:
		return "assignment"
	case LineSeparator:
		return "separator"
	case LineBullet:
		return "bullet"
	case LineContinuation:
		return "continuation"
	case LineTableRow:
		return "table-row"
	default:
		return "unknown"
	}
}

// tabWidth is the number of spaces a leading tab counts for.
const tabWidth = 4

// Line is a classified input line.
type Line struct {
	Num    int // 1-based
	Raw    string
	Kind   LineKind
	Indent int    // leading whitespace in spaces, tabs expanded
	Text   string // bullet text, continuation text or table row, trimmed
	Key    string // assignments only
	Value  string // assignments only
}

const separator = "---"

var assignmentRe = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_]*)\s*=\s*(.*?)\s*$`)

// splitLines breaks text into lines, dropping a trailing \r from each.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	// A final newline does not start another line.
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Sections splits raw text into classified header and body lines.
func Sections(text string) (header, body []Line, err error) {
	raw := splitLines(text)

	sep := -1
	for i, l := range raw {
		if strings.TrimSpace(l) == separator {
			sep = i
			break
		}
	}

	if sep >= 0 {
		for i, l := range raw[:sep] {
			line, ok := classifyHeader(i+1, l)
			if !ok {
				return nil, nil, errorf(line.Num, l, "malformed header line")
			}
			header = append(header, line)
		}
		for i, l := range raw[sep+1:] {
			body = append(body, classifyBody(sep+2+i, l))
		}
		return header, body, nil
	}

	// No separator: accept a header-only file, or a legacy file whose body
	// begins at the first bullet.
	for i, l := range raw {
		line, ok := classifyHeader(i+1, l)
		if ok {
			header = append(header, line)
			continue
		}
		if first := classifyBody(i+1, l); first.Kind == LineBullet {
			for j, bl := range raw[i:] {
				body = append(body, classifyBody(i+1+j, bl))
			}
			return header, body, nil
		}
		return nil, nil, &ParseError{
			Line: i + 1,
			Text: l,
			Msg:  "missing --- separator between header and body",
			Err:  ErrFormat,
		}
	}
	return header, nil, nil
}

func classifyHeader(num int, raw string) (Line, bool) {
	line := Line{Num: num, Raw: raw}
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		line.Kind = LineBlank
		return line, true
	case strings.HasPrefix(trimmed, "#"):
		line.Kind = LineComment
		return line, true
	}
	m := assignmentRe.FindStringSubmatch(raw)
	if m == nil {
		return line, false
	}
	line.Kind = LineAssignment
	line.Key = m[1]
	line.Value = m[2]
	return line, true
}

func classifyBody(num int, raw string) Line {
	line := Line{Num: num, Raw: raw}
	indent, rest := measureIndent(raw)
	line.Indent = indent
	rest = strings.TrimRight(rest, " \t")

	switch {
	case rest == "":
		line.Kind = LineBlank
	case strings.HasPrefix(rest, "-") && !strings.HasPrefix(rest, "--"):
		// "-Text" with no space is still a bullet; dash runs are text.
		line.Kind = LineBullet
		line.Text = strings.TrimSpace(rest[1:])
	case strings.Contains(rest, "|"):
		line.Kind = LineTableRow
		line.Text = rest
	default:
		line.Kind = LineContinuation
		line.Text = rest
	}
	return line
}

// measureIndent returns the leading whitespace width and the remainder.
func measureIndent(s string) (int, string) {
	n := 0
	for i, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += tabWidth
		default:
			return n, s[i:]
		}
	}
	return n, ""
}
