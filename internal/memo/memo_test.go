package memo

import (
	"reflect"
	"testing"
)

func TestHeader_SetKeepsOrderAndReplaces(t *testing.T) {
	h := NewHeader()
	h.Set(Enclosure, Entry{Index: 3, Value: "third"})
	h.Set(Enclosure, Entry{Index: 1, Value: "first"})
	h.Set(Enclosure, Entry{Index: 2, Value: "second"})
	h.Set(Enclosure, Entry{Index: 1, Value: "first again"})

	got := h.List(Enclosure)
	want := []string{"first again", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if h.NextIndex(Enclosure) != 4 {
		t.Errorf("expected next index 4, got %d", h.NextIndex(Enclosure))
	}
	if h.NextIndex(Distro) != 1 {
		t.Errorf("expected next index 1 for empty list, got %d", h.NextIndex(Distro))
	}
}

func TestHeader_Addresses(t *testing.T) {
	h := NewHeader()
	h.Set(ForOrganizationName, Entry{Index: 1, Value: "1st Brigade"})
	h.Set(ForOrganizationStreetAddress, Entry{Index: 1, Value: "1 Main St"})
	h.Set(ForOrganizationCityStateZip, Entry{Index: 1, Value: "Fort Carson, CO 80913"})
	h.Set(ForOrganizationName, Entry{Index: 2, Value: "2nd Brigade"})

	addrs := h.Addresses("FOR")
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}
	if addrs[0].String() != "1st Brigade, 1 Main St, Fort Carson, CO 80913" {
		t.Errorf("unexpected first address %q", addrs[0].String())
	}
	if addrs[1].Street != "" || addrs[1].Name != "2nd Brigade" {
		t.Errorf("unexpected second address %+v", addrs[1])
	}
	if len(h.Addresses("THRU")) != 0 {
		t.Error("expected no THRU addresses")
	}
}

func TestKeyVocabulary(t *testing.T) {
	if !IsScalar(Subject) || IsScalar(Enclosure) {
		t.Error("scalar vocabulary mismatch")
	}
	if !IsRepeatable(CF) || IsRepeatable(Date) {
		t.Error("repeatable vocabulary mismatch")
	}
}

func TestDocument_WalkOrderAndPaths(t *testing.T) {
	doc := &Document{Body: []*Paragraph{
		{Text: text("one"), Children: []*Paragraph{{Text: text("one-a")}, {Text: text("one-b")}}},
		{Text: text("two")},
	}}

	var seen []string
	var paths [][]int
	doc.Walk(func(p *Paragraph, path []int) bool {
		seen = append(seen, p.PlainText())
		paths = append(paths, path)
		return true
	})

	want := []string{"one", "one-a", "one-b", "two"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	if !reflect.DeepEqual(paths[2], []int{0, 1}) {
		t.Errorf("expected path [0 1], got %v", paths[2])
	}
	if !reflect.DeepEqual(paths[3], []int{1}) {
		t.Errorf("expected path [1], got %v", paths[3])
	}
}

func TestParagraph_PlainText(t *testing.T) {
	p := &Paragraph{Text: []Span{{Style: Plain, Text: "See "}, {Style: Bold, Text: "Encl 1"}, {Style: Plain, Text: "."}}}
	if p.PlainText() != "See Encl 1." {
		t.Errorf("unexpected plain text %q", p.PlainText())
	}
}

func text(s string) []Span {
	return []Span{{Style: Plain, Text: s}}
}
