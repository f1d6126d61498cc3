package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jschless/armymarkdown/internal/memo"
)

var suffixRe = regexp.MustCompile(`^(.*?[^0-9])([0-9]+)$`)

// parseHeader folds assignment lines into a Header. It never fails: unknown
// keys and numbering gaps are left for the validator to report.
func parseHeader(lines []Line) memo.Header {
	h := memo.NewHeader()
	for _, l := range lines {
		if l.Kind != LineAssignment {
			continue
		}
		h.Lines[l.Key] = l.Num
		key := memo.Key(strings.ToUpper(l.Key))

		if memo.IsScalar(key) {
			h.Fields[key] = l.Value
			continue
		}
		if memo.IsRepeatable(key) {
			h.Set(key, memo.Entry{Index: h.NextIndex(key), Value: l.Value, Line: l.Num})
			continue
		}
		if m := suffixRe.FindStringSubmatch(string(key)); m != nil && memo.IsRepeatable(memo.Key(m[1])) {
			idx, err := strconv.Atoi(m[2])
			if err == nil {
				h.Set(memo.Key(m[1]), memo.Entry{Index: idx, Value: l.Value, Line: l.Num})
				continue
			}
		}
		h.Extra[l.Key] = l.Value
	}
	return h
}

// ResolveType picks the memo type from MEMO_TYPE, or infers it from the
// addressee fields when MEMO_TYPE is absent.
func ResolveType(h memo.Header) memo.MemoType {
	fors := len(h.Addresses("FOR"))
	thrus := len(h.Addresses("THRU"))

	explicit := strings.ToUpper(strings.Join(strings.Fields(h.Get(memo.MemoTypeKey)), " "))
	switch explicit {
	case "":
		switch {
		case thrus > 0:
			return memo.Thru
		case fors > 1:
			return memo.MultiFor
		case fors == 1:
			return memo.For
		default:
			return memo.ForRecord
		}
	case "MEMORANDUM FOR RECORD", string(memo.ForRecord):
		return memo.ForRecord
	case "MEMORANDUM FOR", string(memo.For), string(memo.MultiFor):
		if fors > 1 {
			return memo.MultiFor
		}
		return memo.For
	case "MEMORANDUM THRU", string(memo.Thru):
		return memo.Thru
	default:
		return memo.Other
	}
}
