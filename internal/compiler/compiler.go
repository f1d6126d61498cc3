// Package compiler is the entry point for turning Army Markdown text into
// LaTeX: parse, validate, generate, or all three at once.
package compiler

import (
	"bytes"
	"errors"

	"github.com/jschless/armymarkdown/internal/latex"
	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/parser"
	"github.com/jschless/armymarkdown/internal/validate"
)

// Result is the output of a successful Compile.
type Result struct {
	Markup   string           `json:"markup"`
	Warnings []validate.Issue `json:"warnings"`
}

// Kind discriminates the errors Compile can return.
type Kind string

const (
	KindNone       Kind = ""
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
	KindOther      Kind = "other"
)

// KindOf reports which variant err is.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return KindParse
	}
	var ve *validate.ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return KindOther
}

// Parse builds a fresh Document. The error is a *parser.ParseError.
func Parse(text string) (*memo.Document, error) {
	return parser.Parse(text)
}

// Validate checks doc without modifying it.
func Validate(doc *memo.Document) validate.Report {
	return validate.Validate(doc)
}

// Generate renders doc as LaTeX. The error is a *validate.ValidationError.
func Generate(doc *memo.Document) (string, error) {
	return latex.Generate(doc)
}

// Options tweak Compile.
type Options struct {
	Class string // LaTeX document class; empty uses latex.DefaultClass
}

// Compile runs parse, validate and generate. The error is either a
// *parser.ParseError or a *validate.ValidationError.
func Compile(text string) (*Result, error) {
	return CompileWith(text, Options{})
}

// CompileWith is Compile with options.
func CompileWith(text string, opts Options) (*Result, error) {
	doc, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return CompileDocument(doc, opts)
}

// ParseFile parses src with the parser registered for name's extension, so
// .md and .markdown files go through the Markdown importer.
func ParseFile(name string, src []byte) (*memo.Document, error) {
	p, err := parser.ForFile(name)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(src), name)
}

// CompileDocument validates and generates an already-parsed document.
func CompileDocument(doc *memo.Document, opts Options) (*Result, error) {
	report := validate.Validate(doc)
	if err := report.Err(); err != nil {
		return nil, err
	}
	return &Result{
		Markup:   latex.Generator{Class: opts.Class}.Render(doc),
		Warnings: report.Warnings(),
	}, nil
}
