// Package parser turns Army Markdown text into a memo.Document. It also
// imports CommonMark files with YAML front matter.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
)

// Parser converts raw document bytes into a memo Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*memo.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".amd":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".amd", ".txt":
		return &AMDParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// AMDParser handles Army Markdown files.
type AMDParser struct{}

func (p *AMDParser) Parse(r io.Reader, filename string) (*memo.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return Parse(string(src))
}

// Parse builds a fresh Document from Army Markdown text. A returned error is
// always a *ParseError.
func Parse(text string) (*memo.Document, error) {
	headerLines, bodyLines, err := Sections(text)
	if err != nil {
		return nil, err
	}

	h := parseHeader(headerLines)
	body, err := parseBody(bodyLines)
	if err != nil {
		return nil, err
	}

	return &memo.Document{
		Header: h,
		Body:   body,
		Type:   ResolveType(h),
	}, nil
}
