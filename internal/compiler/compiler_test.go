package compiler

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jschless/armymarkdown/internal/parser"
	"github.com/jschless/armymarkdown/internal/validate"
)

const scenario = `ORGANIZATION_NAME = 4th Engineer Battalion
ORGANIZATION_STREET_ADDRESS = 588 Wetzel Road
ORGANIZATION_CITY_STATE_ZIP = Colorado Springs, CO 80904
OFFICE_SYMBOL = ABC-DEF-GH
AUTHOR = Joseph C. Schlessinger
RANK = 1LT
BRANCH = EN
TITLE = Platoon Leader
DATE = 15 January 2025
MEMO_TYPE = MEMORANDUM FOR RECORD
SUBJECT = Template for Army markdown
---
- This memo is a demonstration.
- Point of contact is the undersigned.
`

func TestCompile_Scenario(t *testing.T) {
	doc, err := Parse(scenario)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Body) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Body))
	}

	report := Validate(doc)
	if len(report.Errors()) != 0 || len(report.Warnings()) != 0 {
		t.Fatalf("expected a clean report, got %v", report.Issues)
	}

	markup, err := Generate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if markup == "" {
		t.Fatal("expected markup")
	}
	subject := strings.Index(markup, "Template for Army markdown")
	first := strings.Index(markup, "This memo is a demonstration.")
	second := strings.Index(markup, "Point of contact is the undersigned.")
	if subject < 0 || first < 0 || second < 0 || !(subject < first && first < second) {
		t.Errorf("expected subject then both paragraphs in order:\n%s", markup)
	}

	res, err := Compile(scenario)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Markup != markup {
		t.Error("expected Compile to match Parse+Generate")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}
}

func TestCompile_SubjectAndAuthorPlacement(t *testing.T) {
	res, err := Compile(scenario)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Markup, `\subject{Template for Army markdown}`) {
		t.Error("subject not placed in \\subject")
	}
	if !strings.Contains(res.Markup, `\author{Joseph C. Schlessinger}`) {
		t.Error("author not placed in \\author")
	}
}

func TestCompile_ParseErrorKind(t *testing.T) {
	_, err := Compile("SUBJECT = x\n---\n- open **bold\n")
	if KindOf(err) != KindParse {
		t.Fatalf("expected parse kind, got %q (%v)", KindOf(err), err)
	}
	var pe *parser.ParseError
	if !errors.As(err, &pe) || pe.Line != 3 {
		t.Errorf("expected parse error on line 3, got %v", err)
	}
}

func TestCompile_ValidationErrorKind(t *testing.T) {
	_, err := Compile(strings.Replace(scenario, "DATE = 15 January 2025", "DATE = yesterday", 1))
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation kind, got %q (%v)", KindOf(err), err)
	}
	var ve *validate.ValidationError
	if !errors.As(err, &ve) || ve.Issues[0].Rule != "DATE_001" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestCompile_WarningsAttached(t *testing.T) {
	text := strings.Replace(scenario, "- This memo is a demonstration.\n", "- This memo is a demonstration.\n    - Lone child.\n", 1)
	res, err := Compile(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Rule != "BODY_002" {
		t.Errorf("expected one BODY_002 warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Markup, "Lone child.") {
		t.Error("expected markup despite warning")
	}
}

func TestCompileWith_Class(t *testing.T) {
	res, err := CompileWith(scenario, Options{Class: "armymemo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(res.Markup, `\documentclass{armymemo}`) {
		t.Errorf("unexpected class line %q", strings.SplitN(res.Markup, "\n", 2)[0])
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindNone {
		t.Error("expected none for nil")
	}
	if KindOf(errors.New("boom")) != KindOther {
		t.Error("expected other for plain error")
	}
}

func TestCompile_ConcurrentCallsAreIndependent(t *testing.T) {
	want, err := Compile(scenario)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Compile(scenario)
			if err != nil {
				errs <- err.Error()
				return
			}
			if got.Markup != want.Markup {
				errs <- "markup differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestParseFile_ByExtension(t *testing.T) {
	md := "---\nsubject: Imported\n---\n- First.\n- Second.\n"
	doc, err := ParseFile("memo.md", []byte(md))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Header.Get("SUBJECT"); got != "Imported" {
		t.Errorf("expected subject %q, got %q", "Imported", got)
	}
	if len(doc.Body) != 2 {
		t.Errorf("expected 2 paragraphs, got %d", len(doc.Body))
	}

	if _, err := ParseFile("memo.pdf", nil); KindOf(err) != KindOther {
		t.Errorf("expected other kind for unsupported extension, got %v", err)
	}
}

func TestCompileDocument_MatchesCompile(t *testing.T) {
	doc, err := ParseFile("memo.amd", []byte(scenario))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := CompileDocument(doc, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := Compile(scenario)
	if got.Markup != want.Markup {
		t.Error("expected identical markup")
	}
}
