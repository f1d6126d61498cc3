package amdtext

import (
	"regexp"
	"strings"
	"testing"

	"github.com/jschless/armymarkdown/internal/memo"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+([-_][a-z0-9]+)*$`)

func TestSlug(t *testing.T) {
	if got := Slug("Range Safety Brief"); got != "range-safety-brief" {
		t.Errorf("expected %q, got %q", "range-safety-brief", got)
	}
	if got := Slug("***"); got != "" {
		t.Errorf("expected empty slug for punctuation, got %q", got)
	}

	for _, in := range []string{
		"  FY25 -- Budget (Draft)  ",
		"Request for Leave: SPC Smith",
		strings.Repeat("ab ", 30),
	} {
		got := Slug(in)
		if !slugRe.MatchString(got) {
			t.Errorf("Slug(%q) = %q, not a clean slug", in, got)
		}
		if len(got) > maxSlug {
			t.Errorf("Slug(%q) is %d bytes, want at most %d", in, len(got), maxSlug)
		}
	}
}

func TestFileName(t *testing.T) {
	doc := &memo.Document{Header: memo.NewHeader()}
	if got := FileName(doc, "memo.amd"); got != "memo.amd" {
		t.Errorf("expected fallback, got %q", got)
	}
	doc.Header.Fields[memo.Subject] = "Range Safety"
	if got := FileName(doc, "memo.amd"); got != "range-safety.amd" {
		t.Errorf("expected %q, got %q", "range-safety.amd", got)
	}
}
