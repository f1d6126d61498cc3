package amdtext

import (
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/jschless/armymarkdown/internal/memo"
)

// maxSlug bounds generated file names.
const maxSlug = 50

// Slug converts a string to a file-name-safe slug, or "" when nothing
// usable is left.
func Slug(s string) string {
	out, err := slug.Normalize(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	out = strings.Trim(out, "-_")
	if len(out) > maxSlug {
		out = strings.TrimRight(out[:maxSlug], "-_")
	}
	return out
}

// FileName suggests a file name for doc from its subject, falling back to
// fallback when the subject has no usable characters.
func FileName(doc *memo.Document, fallback string) string {
	if s := Slug(doc.Header.Get(memo.Subject)); s != "" {
		return s + ".amd"
	}
	return fallback
}
