package parser

import (
	"errors"
	"fmt"
)

// ErrFormat marks input that is not recognizable as Army Markdown at all,
// as opposed to a well-formed file with a bad line.
var ErrFormat = errors.New("not an army markdown document")

// ParseError reports a fatal problem at a 1-based source line.
type ParseError struct {
	Line int    // 1-based; 0 when the problem is not tied to a line
	Text string // offending raw line, if any
	Msg  string
	Err  error // optional wrapped sentinel
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Text != "":
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	default:
		return e.Msg
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

func errorf(line int, text, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Text: text, Msg: fmt.Sprintf(format, args...)}
}
