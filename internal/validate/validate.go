package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
)

type check struct {
	id  string
	run func(d *doc) []Issue
}

// doc bundles a Document with its flattened outline so checks share one walk.
type doc struct {
	*memo.Document
	entries []outline.Entry
}

// checks lists every document check in report order.
var checks = []check{
	{"HDR_001", checkRequired},
	{"HDR_002", checkUnknownFields},
	{"HDR_003", checkNumberingGaps},
	{"HDR_004", checkAddressTriples},
	{"HDR_005", checkAddressee},
	{"HDR_006", checkMemoType},
	{"HDR_007", checkRank},
	{"HDR_008", checkBranch},
	{"HDR_009", checkOfficeSymbol},
	{"HDR_010", checkDocumentMark},
	{"DATE_001", checkDates},
	{"SUBJ_001", checkSubjectPeriod},
	{"SUBJ_002", checkSubjectCapital},
	{"SUBJ_003", checkSubjectLength},
	{"BODY_001", checkSingleNumbered},
	{"BODY_002", checkSubdivisionPairs},
	{"BODY_003", checkEmptyBody},
	{"BODY_004", checkMixedNumbering},
	{"BODY_005", checkEmptyParagraphs},
	{"ENCL_001", checkEnclosureOrder},
	{"ENCL_002", checkEnclosureListed},
	{"POC_001", checkPOCPlacement},
	{"POC_002", checkPOCDetails},
}

// Validate runs every check.
func Validate(d *memo.Document) Report {
	return Run(d)
}

// Run runs the named checks, or all of them when ids is empty.
func Run(d *memo.Document, ids ...string) Report {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	dd := &doc{Document: d, entries: outline.Flatten(d)}

	var r Report
	for _, c := range checks {
		if len(ids) > 0 && !want[c.id] {
			continue
		}
		r.Issues = append(r.Issues, c.run(dd)...)
	}
	return r
}

// CheckIDs returns the ids of the document checks in report order.
func CheckIDs() []string {
	ids := make([]string, len(checks))
	for i, c := range checks {
		ids[i] = c.id
	}
	return ids
}

// RequiredFields must be present and non-empty.
var RequiredFields = []memo.Key{
	memo.OrganizationName,
	memo.OrganizationStreetAddress,
	memo.OrganizationCityStateZip,
	memo.OfficeSymbol,
	memo.Date,
	memo.Subject,
	memo.Author,
	memo.Rank,
	memo.Branch,
}

// ValidRanks are accepted RANK abbreviations, including civilian titles.
var ValidRanks = toSet(
	"PVT", "PV2", "PFC", "SPC", "CPL", "SGT", "SSG", "SFC", "MSG", "1SG", "SGM", "CSM", "SMA",
	"WO1", "CW2", "CW3", "CW4", "CW5",
	"2LT", "1LT", "CPT", "MAJ", "LTC", "COL", "BG", "MG", "LTG", "GEN", "GA",
	"MR", "MRS", "MS", "DR",
)

// ValidBranches are accepted BRANCH abbreviations.
var ValidBranches = toSet(
	"AD", "AG", "AR", "AV", "CA", "CE", "CM", "CY", "EN", "FA", "FI", "IN",
	"JA", "MC", "MI", "MP", "MS", "OD", "QM", "SC", "SF", "TC", "USA",
)

// ValidMarks are accepted DOCUMENT_MARK values.
var ValidMarks = toSet(
	"UNCLASSIFIED", "CUI", "CONTROLLED UNCLASSIFIED INFORMATION",
	"FOR OFFICIAL USE ONLY", "FOUO", "CONFIDENTIAL", "SECRET", "TOP SECRET", "DRAFT",
)

func toSet(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

var (
	dateRe         = regexp.MustCompile(`(?i)^(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})$`)
	officeSymbolRe = regexp.MustCompile(`(?i)^[A-Z]{2,5}(-[A-Z0-9]{1,4})*$`)
	enclRefRe      = regexp.MustCompile(`(?i)\bencl(?:osure)?s?\.?\s+(\d+)`)
	pocCueRe       = regexp.MustCompile(`(?i)\b(point of contact|poc|undersigned)\b`)
	undersignedRe  = regexp.MustCompile(`(?i)\bundersigned\b`)
	phoneRe        = regexp.MustCompile(`\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}\b`)
	emailRe        = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// MaxSubjectLength is the advisory subject length.
const MaxSubjectLength = 150

func checkRequired(d *doc) []Issue {
	var out []Issue
	for _, k := range RequiredFields {
		if !d.Header.Has(k) {
			out = append(out, NewIssue("HDR_001", string(k), "required field %s is missing or empty", k))
		}
	}
	return out
}

func checkUnknownFields(d *doc) []Issue {
	keys := make([]string, 0, len(d.Header.Extra))
	for k := range d.Header.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Issue
	for _, k := range keys {
		out = append(out, NewIssue("HDR_002", k, "unrecognized field %s", k))
	}
	return out
}

func checkNumberingGaps(d *doc) []Issue {
	var out []Issue
	for _, k := range memo.RepeatableKeys {
		for i, e := range d.Header.Lists[k] {
			if e.Index != i+1 {
				out = append(out, NewIssue("HDR_003", fmt.Sprintf("%s%d", k, e.Index),
					"%s numbering has a gap: expected %s%d, found %s%d", k, k, i+1, k, e.Index))
				break
			}
		}
	}
	return out
}

func checkAddressTriples(d *doc) []Issue {
	var out []Issue
	for _, prefix := range []string{"FOR", "THRU"} {
		nameKey := memo.Key(prefix + "_ORGANIZATION_NAME")
		named := make(map[int]bool)
		for _, e := range d.Header.Lists[nameKey] {
			if strings.TrimSpace(e.Value) != "" {
				named[e.Index] = true
			}
		}
		seen := make(map[int]bool)
		for _, k := range []memo.Key{
			memo.Key(prefix + "_ORGANIZATION_STREET_ADDRESS"),
			memo.Key(prefix + "_ORGANIZATION_CITY_STATE_ZIP"),
		} {
			for _, e := range d.Header.Lists[k] {
				if !named[e.Index] && !seen[e.Index] {
					seen[e.Index] = true
					out = append(out, NewIssue("HDR_004", fmt.Sprintf("%s%d", nameKey, e.Index),
						"%s address %d has no organization name", prefix, e.Index))
				}
			}
		}
	}
	return out
}

func checkAddressee(d *doc) []Issue {
	fors := len(d.Header.Addresses("FOR"))
	thrus := len(d.Header.Addresses("THRU"))
	switch d.Type {
	case memo.For, memo.MultiFor:
		if fors == 0 {
			return []Issue{NewIssue("HDR_005", string(memo.MemoTypeKey), "MEMORANDUM FOR requires at least one FOR address")}
		}
	case memo.Thru:
		var out []Issue
		if thrus == 0 {
			out = append(out, NewIssue("HDR_005", string(memo.MemoTypeKey), "MEMORANDUM THRU requires at least one THRU address"))
		}
		if fors == 0 {
			out = append(out, NewIssue("HDR_005", string(memo.MemoTypeKey), "MEMORANDUM THRU requires a FOR address"))
		}
		return out
	}
	return nil
}

func checkMemoType(d *doc) []Issue {
	if d.Type != memo.Other {
		return nil
	}
	return []Issue{NewIssue("HDR_006", string(memo.MemoTypeKey),
		"unrecognized memo type %q is printed as written", d.Header.Get(memo.MemoTypeKey))}
}

func checkRank(d *doc) []Issue {
	rank := strings.ToUpper(strings.TrimSpace(d.Header.Get(memo.Rank)))
	if rank == "" || ValidRanks[rank] {
		return nil
	}
	return []Issue{NewIssue("HDR_007", string(memo.Rank), "unknown rank %q", d.Header.Get(memo.Rank))}
}

func checkBranch(d *doc) []Issue {
	branch := strings.ToUpper(strings.TrimSpace(d.Header.Get(memo.Branch)))
	if branch == "" || ValidBranches[branch] {
		return nil
	}
	return []Issue{NewIssue("HDR_008", string(memo.Branch), "unknown branch %q", d.Header.Get(memo.Branch))}
}

func checkOfficeSymbol(d *doc) []Issue {
	sym := strings.TrimSpace(d.Header.Get(memo.OfficeSymbol))
	if sym == "" || officeSymbolRe.MatchString(sym) {
		return nil
	}
	return []Issue{NewIssue("HDR_009", string(memo.OfficeSymbol), "office symbol %q does not look like ABCD-EF-G", sym)}
}

func checkDocumentMark(d *doc) []Issue {
	mark := strings.ToUpper(strings.Join(strings.Fields(d.Header.Get(memo.DocumentMark)), " "))
	if mark == "" || ValidMarks[mark] {
		return nil
	}
	return []Issue{NewIssue("HDR_010", string(memo.DocumentMark), "unrecognized document marking %q", d.Header.Get(memo.DocumentMark))}
}

func checkDates(d *doc) []Issue {
	var out []Issue
	for _, k := range []memo.Key{memo.Date, memo.Suspense} {
		v := strings.TrimSpace(d.Header.Get(k))
		if v == "" {
			continue
		}
		if _, err := ParseDate(v); err != nil {
			out = append(out, NewIssue("DATE_001", string(k), "%s %q %v", k, v, err))
		}
	}
	return out
}

// ParseDate parses a memo date such as "15 January 2025". Month names are
// case-insensitive and the day must exist in that month.
func ParseDate(s string) (time.Time, error) {
	m := dateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("must be in the form 15 January 2025")
	}
	t, err := time.Parse("2 January 2006", m[1]+" "+m[2]+" "+m[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("is not a calendar date")
	}
	return t, nil
}

func checkSubjectPeriod(d *doc) []Issue {
	s := strings.TrimSpace(d.Header.Get(memo.Subject))
	if !strings.HasSuffix(s, ".") {
		return nil
	}
	return []Issue{NewIssue("SUBJ_001", string(memo.Subject), "subject should not end with a period")}
}

func checkSubjectCapital(d *doc) []Issue {
	s := strings.TrimSpace(d.Header.Get(memo.Subject))
	r, _ := utf8.DecodeRuneInString(s)
	if s == "" || !unicode.IsLetter(r) || unicode.IsUpper(r) {
		return nil
	}
	return []Issue{NewIssue("SUBJ_002", string(memo.Subject), "subject should start with a capital letter")}
}

func checkSubjectLength(d *doc) []Issue {
	n := utf8.RuneCountInString(strings.TrimSpace(d.Header.Get(memo.Subject)))
	if n <= MaxSubjectLength {
		return nil
	}
	return []Issue{NewIssue("SUBJ_003", string(memo.Subject),
		"subject is %d characters; keep it under %d", n, MaxSubjectLength)}
}

func checkSingleNumbered(d *doc) []Issue {
	if len(d.Body) != 1 || !d.Body[0].Numbered {
		return nil
	}
	return []Issue{NewIssue("BODY_001", "paragraph 1", "single-paragraph memos should not be numbered")}
}

func checkSubdivisionPairs(d *doc) []Issue {
	var out []Issue
	for _, e := range d.entries {
		if len(e.Paragraph.Children) != 1 {
			continue
		}
		child := childEntry(d.entries, e.Paragraph.Children[0])
		parent := e.Location()
		out = append(out, NewIssue("BODY_002", child.Location(),
			"subdivision requires minimum two items: %s has only %s", parent, child.Ref()))
	}
	return out
}

func childEntry(entries []outline.Entry, p *memo.Paragraph) outline.Entry {
	for _, e := range entries {
		if e.Paragraph == p {
			return e
		}
	}
	panic("validate: paragraph missing from outline")
}

func checkEmptyBody(d *doc) []Issue {
	for _, p := range d.Body {
		if len(p.Text) > 0 || p.Table != nil || len(p.Children) > 0 {
			return nil
		}
	}
	return []Issue{NewIssue("BODY_003", "body", "memo body is empty")}
}

func checkMixedNumbering(d *doc) []Issue {
	numbered := 0
	for _, p := range d.Body {
		if p.Numbered {
			numbered++
		}
	}
	if numbered == 0 {
		return nil
	}
	var out []Issue
	for _, e := range d.entries {
		if e.Level == 0 && !e.Paragraph.Numbered {
			out = append(out, NewIssue("BODY_004", fmt.Sprintf("line %d", e.Paragraph.Line),
				"un-numbered paragraph mixed with numbered paragraphs"))
		}
	}
	return out
}

func checkEmptyParagraphs(d *doc) []Issue {
	var out []Issue
	for _, e := range d.entries {
		p := e.Paragraph
		if p.Numbered && len(p.Text) == 0 && p.Table == nil {
			out = append(out, NewIssue("BODY_005", fmt.Sprintf("line %d", p.Line),
				"paragraph %s has no text", e.Ref()))
		}
	}
	return out
}

type enclRef struct {
	n     int
	where outline.Entry
}

func enclosureRefs(d *doc) []enclRef {
	var refs []enclRef
	for _, e := range d.entries {
		for _, m := range enclRefRe.FindAllStringSubmatch(e.Paragraph.PlainText(), -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			refs = append(refs, enclRef{n: n, where: e})
		}
	}
	return refs
}

func checkEnclosureOrder(d *doc) []Issue {
	refs := enclosureRefs(d)
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[int]bool)
	highest := 0
	for _, r := range refs {
		seen[r.n] = true
		highest = max(highest, r.n)
	}
	var missing []string
	for n := 1; n <= highest; n++ {
		if !seen[n] {
			missing = append(missing, strconv.Itoa(n))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []Issue{NewIssue("ENCL_001", "body",
		"enclosure references skip %s (highest referenced is %d)", strings.Join(missing, ", "), highest)}
}

func checkEnclosureListed(d *doc) []Issue {
	listed := make(map[int]bool)
	for _, e := range d.Header.Lists[memo.Enclosure] {
		listed[e.Index] = true
	}
	reported := make(map[int]bool)
	var out []Issue
	for _, r := range enclosureRefs(d) {
		if listed[r.n] || reported[r.n] {
			continue
		}
		reported[r.n] = true
		out = append(out, NewIssue("ENCL_002", r.where.Location(),
			"enclosure %d is referenced but ENCLOSURE%d is not listed", r.n, r.n))
	}
	return out
}

// pocParagraphs returns the indexes of top-level paragraphs whose text, or
// any subparagraph's text, names a point of contact.
func pocParagraphs(d *doc) []int {
	var idx []int
	for i, p := range d.Body {
		if pocCueRe.MatchString(subtreeText(p)) {
			idx = append(idx, i)
		}
	}
	return idx
}

func subtreeText(p *memo.Paragraph) string {
	var b strings.Builder
	b.WriteString(p.PlainText())
	for _, c := range p.Children {
		b.WriteByte(' ')
		b.WriteString(subtreeText(c))
	}
	return b.String()
}

func topLocation(d *doc, i int) string {
	for _, e := range d.entries {
		if len(e.Path) == 1 && e.Path[0] == i {
			return e.Location()
		}
	}
	return "body"
}

func checkPOCPlacement(d *doc) []Issue {
	var out []Issue
	last := len(d.Body) - 1
	for _, i := range pocParagraphs(d) {
		if i != last {
			out = append(out, NewIssue("POC_001", topLocation(d, i),
				"point of contact paragraph should be the last paragraph"))
		}
	}
	return out
}

func checkPOCDetails(d *doc) []Issue {
	var out []Issue
	for _, i := range pocParagraphs(d) {
		text := subtreeText(d.Body[i])
		if undersignedRe.MatchString(text) || phoneRe.MatchString(text) || emailRe.MatchString(text) {
			continue
		}
		out = append(out, NewIssue("POC_002", topLocation(d, i),
			"point of contact paragraph should include a phone number or email address"))
	}
	return out
}
