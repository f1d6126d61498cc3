// Package pdfcheck inspects a memo PDF produced by the LaTeX engine and reports
// content the compiled output is missing.
package pdfcheck

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"unicode"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
	"github.com/jschless/armymarkdown/internal/validate"
)

// Options control extraction and the page-count check.
type Options struct {
	// FallbackPdftotext shells out to pdftotext when the Go reader fails.
	FallbackPdftotext bool
	// MaxPages overrides the page limit estimated from the source document.
	MaxPages int
}

// CheckFile extracts the PDF at path and checks it against doc.
func CheckFile(path string, doc *memo.Document, opts Options) ([]validate.Issue, error) {
	pages, err := Extract(path, opts.FallbackPdftotext)
	if err != nil {
		return nil, err
	}
	return Check(pages, doc, opts), nil
}

// CheckReader is CheckFile for a stream; the PDF is spooled to a temp file.
func CheckReader(r io.Reader, doc *memo.Document, opts Options) ([]validate.Issue, error) {
	tmp, err := os.CreateTemp("", "amd-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()
	return CheckFile(tmpPath, doc, opts)
}

// Check runs the content checks over already-extracted page text.
func Check(pages []string, doc *memo.Document, opts Options) []validate.Issue {
	var issues []validate.Issue
	h := doc.Header

	first := ""
	if len(pages) > 0 {
		first = pages[0]
	}
	all := normalize(strings.Join(pages, " "))

	if !strings.Contains(normalize(first), normalize("DEPARTMENT OF THE ARMY")) {
		issues = append(issues, validate.NewIssue("PDF_001", "page 1", "DEPARTMENT OF THE ARMY not found on the first page"))
	}
	if sym := h.Get(memo.OfficeSymbol); sym != "" && !strings.Contains(all, normalize(sym)) {
		issues = append(issues, validate.NewIssue("PDF_002", "document", "office symbol %q not found", sym))
	}
	if subj := h.Get(memo.Subject); subj != "" && !strings.Contains(all, normalize(subj)) {
		issues = append(issues, validate.NewIssue("PDF_003", "document", "subject %q not found", subj))
	}
	if date := h.Get(memo.Date); date != "" && !strings.Contains(all, normalize(date)) {
		issues = append(issues, validate.NewIssue("PDF_004", "document", "date %q not found", date))
	}

	limit := opts.MaxPages
	if limit <= 0 {
		limit = ExpectedPages(doc)
	}
	switch {
	case len(pages) == 0:
		issues = append(issues, validate.NewIssue("PDF_005", "document", "PDF has no pages"))
	case len(pages) > limit:
		issues = append(issues, validate.NewIssue("PDF_005", "document", "PDF has %d pages, expected at most %d", len(pages), limit))
	}
	return issues
}

// ExpectedPages estimates an upper bound on the page count from the word
// count, with one page of slack for the signature block and enclosures.
func ExpectedPages(doc *memo.Document) int {
	est := outline.Measure(doc).EstimatedPages
	return int(math.Ceil(est)) + 1
}

// Extract returns the plain text of each page.
func Extract(path string, fallback bool) ([]string, error) {
	pages, err := extractPDFText(path)
	if err != nil && fallback {
		pages, err = extractPdftotext(path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return pages, nil
}

func extractPDFText(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext terminates the last page with a form feed too.
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages, nil
}

// normalize drops whitespace and case; extracted PDF text often loses or
// inserts spaces between glyph runs.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
