package write

import (
	"bytes"
	"testing"

	"github.com/harrowgate/pdf/model"
	"github.com/harrowgate/pdf/reader"
)

// newSimpleDoc builds a minimal one-page document: Catalog -> Pages -> Page.
func newSimpleDoc() *model.Document {
	d := model.NewDocument()
	page := d.AddObject(model.DictFrom(model.DictEntry{Key: "Type", Value: model.Name("Page")}))
	pages := d.AddObject(model.DictFrom(
		model.DictEntry{Key: "Type", Value: model.Name("Pages")},
		model.DictEntry{Key: "Kids", Value: model.Array{model.Reference(page)}},
		model.DictEntry{Key: "Count", Value: model.Integer(1)},
	))
	catalog := d.AddObject(model.DictFrom(
		model.DictEntry{Key: "Type", Value: model.Name("Catalog")},
		model.DictEntry{Key: "Pages", Value: model.Reference(pages)},
	))
	d.Trailer.Root = catalog
	return d
}

func TestSaveClassicXrefRoundTrips(t *testing.T) {
	d := newSimpleDoc()

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("\nxref\n")) {
		t.Error("expected a classic xref table, got none")
	}
	if bytes.Contains(buf.Bytes(), []byte("/Type /XRef")) {
		t.Error("classic save must not emit an xref stream")
	}
	if !bytes.HasSuffix(bytes.TrimRight(buf.Bytes(), "\n"), []byte("%%EOF")) {
		t.Errorf("output must end with %%%%EOF, got tail %q", out[max(0, len(out)-20):])
	}

	reloaded, err := reader.Load(buf.Bytes(), reader.Options{})
	if err != nil {
		t.Fatalf("reloading saved output: %v", err)
	}
	pages := reloaded.GetPages()
	if len(pages) != 1 {
		t.Fatalf("reloaded document should have exactly 1 page, got %d", len(pages))
	}
}

func TestSaveXrefStreamRoundTrips(t *testing.T) {
	d := newSimpleDoc()

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{UseXrefStreams: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/Type/XRef")) && !bytes.Contains(buf.Bytes(), []byte("/Type /XRef")) {
		t.Error("expected a /Type /XRef cross-reference stream")
	}

	reloaded, err := reader.Load(buf.Bytes(), reader.Options{})
	if err != nil {
		t.Fatalf("reloading saved output: %v", err)
	}
	if len(reloaded.GetPages()) != 1 {
		t.Errorf("reloaded document should have exactly 1 page, got %d", len(reloaded.GetPages()))
	}
}

func TestSaveObjectStreamsForcesXrefStreams(t *testing.T) {
	d := newSimpleDoc()

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{UseObjectStreams: true, UseXrefStreams: false}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/XRef")) {
		t.Error("requesting object streams must force a binary xref stream even when UseXrefStreams is false")
	}
	if !bytes.Contains(buf.Bytes(), []byte("/ObjStm")) {
		t.Error("expected at least one packed object stream")
	}

	reloaded, err := reader.Load(buf.Bytes(), reader.Options{})
	if err != nil {
		t.Fatalf("reloading saved output: %v", err)
	}
	if len(reloaded.GetPages()) != 1 {
		t.Errorf("reloaded document should have exactly 1 page, got %d", len(reloaded.GetPages()))
	}
}

func TestSaveBumpsVersionForStreams(t *testing.T) {
	d := newSimpleDoc()
	d.Version = "1.3"

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{UseXrefStreams: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-1.5")) {
		t.Errorf("expected the version to be bumped to 1.5, got header %q", buf.Bytes()[:12])
	}
}

func TestSaveKeepsHigherVersion(t *testing.T) {
	d := newSimpleDoc()
	d.Version = "1.7"

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{UseXrefStreams: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-1.7")) {
		t.Errorf("expected version 1.7 to be preserved, got header %q", buf.Bytes()[:12])
	}
}

func TestSaveNoStreamsKeepsLowVersion(t *testing.T) {
	d := newSimpleDoc()
	d.Version = "1.3"

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-1.3")) {
		t.Errorf("a classic-only save must not bump the version, got header %q", buf.Bytes()[:12])
	}
}

func TestChainFreeListClosesCycle(t *testing.T) {
	entries := map[uint32]outEntry{
		0: {kind: model.EntryFree},
		1: {kind: model.EntryInUse},
		3: {kind: model.EntryFree},
		5: {kind: model.EntryFree},
	}
	chainFreeList(entries)

	if entries[0].offset != 3 {
		t.Errorf("object 0 should point at the next free slot 3, got %d", entries[0].offset)
	}
	if entries[3].offset != 5 {
		t.Errorf("object 3 should point at the next free slot 5, got %d", entries[3].offset)
	}
	if entries[5].offset != 0 {
		t.Errorf("the last free slot should close the chain back to 0, got %d", entries[5].offset)
	}
}

func TestByteWidth(t *testing.T) {
	tests := []struct {
		max  int64
		want int
	}{
		{0, 0},
		{1, 1},
		{255, 1},
		{256, 2},
		{1 << 16, 3},
	}
	for _, tt := range tests {
		if got := byteWidth(tt.max); got != tt.want {
			t.Errorf("byteWidth(%d) = %d, want %d", tt.max, got, tt.want)
		}
	}
}
