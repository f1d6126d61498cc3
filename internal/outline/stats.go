package outline

import (
	"math"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
)

// wordsPerPage approximates a single-spaced memo page in 12pt Arial with
// letterhead and signature block.
const wordsPerPage = 450

// Stats summarizes a memo body.
type Stats struct {
	Paragraphs     int     `json:"paragraphs"`
	MaxDepth       int     `json:"max_depth"`
	Tables         int     `json:"tables"`
	Words          int     `json:"words"`
	EstimatedPages float64 `json:"estimated_pages"`
}

// Measure computes Stats for doc.
func Measure(doc *memo.Document) Stats {
	var s Stats
	doc.Walk(func(p *memo.Paragraph, path []int) bool {
		s.Paragraphs++
		if p.Level+1 > s.MaxDepth {
			s.MaxDepth = p.Level + 1
		}
		s.Words += CountWords(p.PlainText())
		if p.Table != nil {
			s.Tables++
			for _, cell := range p.Table.Header {
				s.Words += CountWords(cell)
			}
			for _, row := range p.Table.Rows {
				for _, cell := range row {
					s.Words += CountWords(cell)
				}
			}
		}
		return true
	})
	if s.Words > 0 {
		s.EstimatedPages = math.Ceil(float64(s.Words)/wordsPerPage*10) / 10
	}
	return s
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}
