package write

import (
	"bytes"
	"testing"

	"github.com/harrowgate/pdf/model"
	"github.com/harrowgate/pdf/reader"
)

// newManyObjectsDoc builds a one-page document plus n small, otherwise
// unreferenced dict objects, so packing them doesn't disturb page lookup.
func newManyObjectsDoc(n int) *model.Document {
	d := newSimpleDoc()
	for i := 0; i < n; i++ {
		d.AddObject(model.DictFrom(
			model.DictEntry{Key: "Type", Value: model.Name("Filler")},
			model.DictEntry{Key: "Index", Value: model.Integer(i)},
		))
	}
	return d
}

func TestObjectStreamPackingShrinksOutput(t *testing.T) {
	classic := newManyObjectsDoc(500)
	var classicBuf bytes.Buffer
	if err := Save(classic, &classicBuf, Options{}); err != nil {
		t.Fatalf("Save (classic): %v", err)
	}

	packed := newManyObjectsDoc(500)
	var packedBuf bytes.Buffer
	if err := Save(packed, &packedBuf, Options{UseObjectStreams: true, MaxObjectsPerStream: 200, CompressionLevel: 9}); err != nil {
		t.Fatalf("Save (packed): %v", err)
	}

	if packedBuf.Len() >= classicBuf.Len() {
		t.Errorf("packing 500 small objects should shrink output: classic=%d packed=%d bytes", classicBuf.Len(), packedBuf.Len())
	}

	reloaded, err := reader.Load(packedBuf.Bytes(), reader.Options{})
	if err != nil {
		t.Fatalf("reloading packed output: %v", err)
	}
	if len(reloaded.GetPages()) != 1 {
		t.Errorf("packed reload should still have exactly 1 page, got %d", len(reloaded.GetPages()))
	}
	if got := len(reloaded.ObjectNumbers()); got < 500+3 {
		t.Errorf("packed reload should expose at least the 503 original objects (plus container streams), got %d", got)
	}

	seen := map[int64]bool{}
	for _, number := range reloaded.ObjectNumbers() {
		obj, ok := reloaded.Get(model.ObjectId{Number: number})
		if !ok {
			continue
		}
		dict, ok := obj.(model.Dict)
		if !ok {
			continue
		}
		if idx, ok := dict.Get("Index"); ok {
			if n, ok := idx.(model.Integer); ok {
				seen[int64(n)] = true
			}
		}
	}
	for _, i := range []int64{0, 1, 199, 200, 399, 499} {
		if !seen[i] {
			t.Errorf("filler object with Index=%d did not survive the pack/reload round trip", i)
		}
	}
	if len(seen) != 500 {
		t.Errorf("expected all 500 filler objects to survive, got %d distinct Index values", len(seen))
	}
}

func TestObjectStreamPackingRespectsGroupSize(t *testing.T) {
	d := newManyObjectsDoc(450)

	var buf bytes.Buffer
	if err := Save(d, &buf, Options{UseObjectStreams: true, MaxObjectsPerStream: 200}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := bytes.Count(buf.Bytes(), []byte("/ObjStm"))
	if got < 3 {
		t.Errorf("450 objects at 200/container should need at least 3 ObjStm containers, found %d", got)
	}
}
