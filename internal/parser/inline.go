package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jschless/armymarkdown/internal/memo"
)

type marker struct {
	delim string
	style memo.Style
	name  string
	// tight markers are literal when followed by whitespace
	tight bool
	// wordStart markers are literal inside a word, as in "john__doe"
	wordStart bool
}

// Longest delimiters first so "**" wins over "*".
var markers = []marker{
	{delim: "**", style: memo.Bold, name: "bold", tight: true},
	{delim: "__", style: memo.Underline, name: "underline", tight: true, wordStart: true},
	{delim: "*", style: memo.Italic, name: "italic", tight: true},
	{delim: "`", style: memo.Highlight, name: "highlight"},
}

// escapable are the characters a backslash makes literal.
const escapable = "*_`\\"

// unterminatedError is returned by ParseSpans; the caller adds the location.
type unterminatedError struct {
	m marker
}

func (e *unterminatedError) Error() string {
	return "unterminated " + e.m.name + " marker \"" + e.m.delim + "\""
}

// ParseSpans splits paragraph text into styled runs in a single left-to-right
// scan. Spans do not nest.
func ParseSpans(text string) ([]memo.Span, error) {
	var spans []memo.Span
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			spans = append(spans, memo.Span{Style: memo.Plain, Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) && strings.IndexByte(escapable, text[i+1]) >= 0 {
			plain.WriteByte(text[i+1])
			i += 2
			continue
		}

		m, ok := openingAt(text, i)
		if !ok {
			// A rejected underscore run stays literal as a whole so "a___b"
			// cannot open on its tail.
			n := 1
			for c == '_' && i+n < len(text) && text[i+n] == '_' {
				n++
			}
			plain.WriteString(text[i : i+n])
			i += n
			continue
		}

		start := i + len(m.delim)
		content, end, found := scanClose(text, start, m.delim)
		if !found {
			return nil, &unterminatedError{m: m}
		}
		if content == "" {
			// "****" or "``" carry no text; keep them literal.
			plain.WriteString(text[i:end])
			i = end
			continue
		}
		flush()
		spans = append(spans, memo.Span{Style: m.style, Text: content})
		i = end
	}
	flush()
	return spans, nil
}

func openingAt(text string, i int) (marker, bool) {
	for _, m := range markers {
		if !strings.HasPrefix(text[i:], m.delim) {
			continue
		}
		if m.tight {
			next, _ := utf8.DecodeRuneInString(text[i+len(m.delim):])
			if i+len(m.delim) >= len(text) || unicode.IsSpace(next) {
				return marker{}, false
			}
		}
		if m.wordStart && i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:i])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				return marker{}, false
			}
		}
		return m, true
	}
	return marker{}, false
}

// scanClose finds the closing delimiter starting at from, honoring escapes.
// It returns the unescaped content and the index just past the delimiter.
func scanClose(text string, from int, delim string) (string, int, bool) {
	var b strings.Builder
	j := from
	for j < len(text) {
		if text[j] == '\\' && j+1 < len(text) && strings.IndexByte(escapable, text[j+1]) >= 0 {
			b.WriteByte(text[j+1])
			j += 2
			continue
		}
		if strings.HasPrefix(text[j:], delim) {
			return b.String(), j + len(delim), true
		}
		b.WriteByte(text[j])
		j++
	}
	return "", 0, false
}
