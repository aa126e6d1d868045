package model

import (
	"testing"
	"time"
)

// newPageTestDoc returns a Document holding only a Catalog at object 1 whose
// /Pages points at object 2; each test installs its own Pages/Page objects.
func newPageTestDoc() *Document {
	d := NewDocument()
	d.SetObject(1, DictFrom( // catalog
		DictEntry{"Type", Name("Catalog")},
		DictEntry{"Pages", Reference{Number: 2}},
	))
	return d
}

func TestGetPagesWellFormedTree(t *testing.T) {
	d := newPageTestDoc()
	d.SetObject(2, DictFrom( // root Pages, 2 kids: a leaf and a subtree
		DictEntry{"Type", Name("Pages")},
		DictEntry{"Count", Integer(3)},
		DictEntry{"Kids", Array{Reference{Number: 3}, Reference{Number: 4}}},
	))
	d.SetObject(3, DictFrom( // leaf page
		DictEntry{"Type", Name("Page")},
		DictEntry{"Parent", Reference{Number: 2}},
	))
	d.SetObject(4, DictFrom( // nested Pages subtree, 2 leaves
		DictEntry{"Type", Name("Pages")},
		DictEntry{"Parent", Reference{Number: 2}},
		DictEntry{"Count", Integer(2)},
		DictEntry{"Kids", Array{Reference{Number: 5}, Reference{Number: 6}}},
	))
	d.SetObject(5, DictFrom(
		DictEntry{"Type", Name("Page")},
		DictEntry{"Parent", Reference{Number: 4}},
	))
	d.SetObject(6, DictFrom(
		DictEntry{"Type", Name("Page")},
		DictEntry{"Parent", Reference{Number: 4}},
	))
	d.Trailer.Root = ObjectId{Number: 1}

	pages := d.GetPages()
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages (matching /Count), got %d: %v", len(pages), pages)
	}
	want := map[int]uint32{1: 3, 2: 5, 3: 6}
	for n, id := range want {
		if pages[n].Number != id {
			t.Errorf("page %d: got object %d, want %d", n, pages[n].Number, id)
		}
	}
}

func TestGetPagesDuplicateKid(t *testing.T) {
	d := newPageTestDoc()
	d.SetObject(2, DictFrom(
		DictEntry{"Type", Name("Pages")},
		DictEntry{"Count", Integer(2)},
		DictEntry{"Kids", Array{Reference{Number: 3}, Reference{Number: 3}}},
	))
	d.SetObject(3, DictFrom(
		DictEntry{"Type", Name("Page")},
		DictEntry{"Parent", Reference{Number: 2}},
	))
	d.Trailer.Root = ObjectId{Number: 1}

	pages := d.GetPages()
	if len(pages) != 2 {
		t.Fatalf("expected the duplicated Page to be reported twice, got %d entries: %v", len(pages), pages)
	}
	if pages[1].Number != 3 || pages[2].Number != 3 {
		t.Errorf("both page slots should point at object 3, got %v", pages)
	}
}

func TestGetPagesKidsCycle(t *testing.T) {
	d := newPageTestDoc()
	// object 2 is a Pages node whose single kid points back at itself.
	d.SetObject(2, DictFrom(
		DictEntry{"Type", Name("Pages")},
		DictEntry{"Kids", Array{Reference{Number: 2}}},
	))
	d.Trailer.Root = ObjectId{Number: 1}

	done := make(chan map[int]ObjectId, 1)
	go func() { done <- d.GetPages() }()
	select {
	case pages := <-done:
		if len(pages) != 0 {
			t.Errorf("a pure self-cycle should yield no leaves, got %v", pages)
		}
	case <-time.After(time.Second):
		t.Fatal("GetPages did not terminate on a /Kids cycle")
	}
}

func TestPageCount(t *testing.T) {
	d := newPageTestDoc()
	d.SetObject(2, DictFrom(
		DictEntry{"Type", Name("Pages")},
		DictEntry{"Kids", Array{Reference{Number: 3}}},
	))
	d.SetObject(3, DictFrom(DictEntry{"Type", Name("Page")}))
	d.Trailer.Root = ObjectId{Number: 1}

	if got := d.PageCount(); got != 1 {
		t.Errorf("PageCount() = %d, want 1", got)
	}
}
