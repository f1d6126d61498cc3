package parser

import (
	"regexp"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
)

var delimCellRe = regexp.MustCompile(`^:?-+:?$`)

// parseTable turns a run of pipe rows into a Table. The first row is the
// header; a delimiter row right after it is dropped.
func parseTable(rows []Line) (*memo.Table, error) {
	if len(rows) == 0 {
		panic("parser: parseTable called with no rows")
	}
	t := &memo.Table{Header: splitCells(rows[0].Text), Line: rows[0].Num}
	want := len(t.Header)

	rest := rows[1:]
	if len(rest) > 0 && isDelimiterRow(rest[0].Text) {
		if got := len(splitCells(rest[0].Text)); got != want {
			return nil, errorf(rest[0].Num, "", "table separator row: expected %d, got %d", want, got)
		}
		rest = rest[1:]
	}

	for i, r := range rest {
		cells := splitCells(r.Text)
		if len(cells) != want {
			return nil, errorf(r.Num, "", "table row %d: expected %d, got %d", i+1, want, len(cells))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// splitCells splits "| a | b |" or "a | b" into trimmed cells.
func splitCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	parts := strings.Split(row, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isDelimiterRow(row string) bool {
	for _, c := range splitCells(row) {
		if !delimCellRe.MatchString(c) {
			return false
		}
	}
	return true
}
