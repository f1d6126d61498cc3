package memo

import (
	"sort"
	"strings"
)

// Key is a recognized header field name.
type Key string

const (
	OrganizationName          Key = "ORGANIZATION_NAME"
	OrganizationStreetAddress Key = "ORGANIZATION_STREET_ADDRESS"
	OrganizationCityStateZip  Key = "ORGANIZATION_CITY_STATE_ZIP"
	OfficeSymbol              Key = "OFFICE_SYMBOL"
	Author                    Key = "AUTHOR"
	Rank                      Key = "RANK"
	Branch                    Key = "BRANCH"
	Title                     Key = "TITLE"
	Date                      Key = "DATE"
	Subject                   Key = "SUBJECT"
	Suspense                  Key = "SUSPENSE"
	Authority                 Key = "AUTHORITY"
	MemoTypeKey               Key = "MEMO_TYPE"
	DocumentMark              Key = "DOCUMENT_MARK"

	ForOrganizationName           Key = "FOR_ORGANIZATION_NAME"
	ForOrganizationStreetAddress  Key = "FOR_ORGANIZATION_STREET_ADDRESS"
	ForOrganizationCityStateZip   Key = "FOR_ORGANIZATION_CITY_STATE_ZIP"
	ThruOrganizationName          Key = "THRU_ORGANIZATION_NAME"
	ThruOrganizationStreetAddress Key = "THRU_ORGANIZATION_STREET_ADDRESS"
	ThruOrganizationCityStateZip  Key = "THRU_ORGANIZATION_CITY_STATE_ZIP"
	Enclosure                     Key = "ENCLOSURE"
	Distro                        Key = "DISTRO"
	CF                            Key = "CF"
)

// ScalarKeys lists the single-valued keys in canonical output order.
var ScalarKeys = []Key{
	OrganizationName,
	OrganizationStreetAddress,
	OrganizationCityStateZip,
	OfficeSymbol,
	Author,
	Rank,
	Branch,
	Title,
	MemoTypeKey,
	Date,
	Suspense,
	Authority,
	DocumentMark,
	Subject,
}

// RepeatableKeys lists the numeric-suffix keys in canonical output order.
var RepeatableKeys = []Key{
	ForOrganizationName,
	ForOrganizationStreetAddress,
	ForOrganizationCityStateZip,
	ThruOrganizationName,
	ThruOrganizationStreetAddress,
	ThruOrganizationCityStateZip,
	Enclosure,
	Distro,
	CF,
}

var (
	scalarSet     = toSet(ScalarKeys)
	repeatableSet = toSet(RepeatableKeys)
)

func toSet(keys []Key) map[Key]bool {
	m := make(map[Key]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// IsScalar reports whether k is a known single-valued key.
func IsScalar(k Key) bool { return scalarSet[k] }

// IsRepeatable reports whether k is a known numeric-suffix key prefix.
func IsRepeatable(k Key) bool { return repeatableSet[k] }

// Entry is one value of a repeatable field.
type Entry struct {
	Index int // numeric suffix, 1-based
	Value string
	Line  int
}

// Address is one FOR or THRU addressee.
type Address struct {
	Name         string
	Street       string
	CityStateZip string
}

// String joins the address parts the way memo lines print them.
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Name, a.Street, a.CityStateZip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Header is the parsed KEY = value section of a memo.
type Header struct {
	Fields map[Key]string
	Lists  map[Key][]Entry
	Extra  map[string]string // unrecognized keys, verbatim
	Lines  map[string]int    // raw key -> line of its last assignment
}

// NewHeader returns an empty header with all maps allocated.
func NewHeader() Header {
	return Header{
		Fields: make(map[Key]string),
		Lists:  make(map[Key][]Entry),
		Extra:  make(map[string]string),
		Lines:  make(map[string]int),
	}
}

// Get returns the scalar value of k, or "".
func (h Header) Get(k Key) string {
	return h.Fields[k]
}

// Has reports whether k was assigned a non-blank value.
func (h Header) Has(k Key) bool {
	return strings.TrimSpace(h.Fields[k]) != ""
}

// List returns the values of a repeatable key ordered by suffix.
func (h Header) List(k Key) []string {
	entries := h.Lists[k]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

// Set assigns a repeatable entry, replacing any entry with the same index and
// keeping the list sorted.
func (h Header) Set(k Key, e Entry) {
	entries := h.Lists[k]
	for i := range entries {
		if entries[i].Index == e.Index {
			entries[i] = e
			return
		}
	}
	entries = append(entries, e)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	h.Lists[k] = entries
}

// NextIndex returns one past the highest index assigned to k.
func (h Header) NextIndex(k Key) int {
	max := 0
	for _, e := range h.Lists[k] {
		if e.Index > max {
			max = e.Index
		}
	}
	return max + 1
}

// Addresses groups the FOR or THRU name/street/city fields by numeric
// suffix, in suffix order. prefix is "FOR" or "THRU".
func (h Header) Addresses(prefix string) []Address {
	byIndex := make(map[int]*Address)
	var order []int
	set := func(k Key, assign func(a *Address, v string)) {
		for _, e := range h.Lists[Key(prefix+"_"+string(k))] {
			a, ok := byIndex[e.Index]
			if !ok {
				a = &Address{}
				byIndex[e.Index] = a
				order = append(order, e.Index)
			}
			assign(a, e.Value)
		}
	}
	set("ORGANIZATION_NAME", func(a *Address, v string) { a.Name = v })
	set("ORGANIZATION_STREET_ADDRESS", func(a *Address, v string) { a.Street = v })
	set("ORGANIZATION_CITY_STATE_ZIP", func(a *Address, v string) { a.CityStateZip = v })

	sort.Ints(order)
	out := make([]Address, 0, len(order))
	for _, i := range order {
		out = append(out, *byIndex[i])
	}
	return out
}
