package model

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	d := NewDocument()
	payload := []byte("repeated repeated repeated payload bytes for compression")
	id := d.AddObject(Stream{Dict: NewDict(), Raw: append([]byte(nil), payload...), AllowCompression: true})

	if err := d.Compress(6); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	obj, _ := d.Get(id)
	stream, ok := obj.(Stream)
	if !ok {
		t.Fatalf("expected a Stream after Compress, got %T", obj)
	}
	if _, has := stream.Dict.Get("Filter"); !has {
		t.Fatal("Compress should have set /Filter")
	}
	if bytes.Equal(stream.Raw, payload) {
		t.Error("Compress should have changed the raw bytes")
	}

	if err := d.Decompress(); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	obj, _ = d.Get(id)
	stream, ok = obj.(Stream)
	if !ok {
		t.Fatalf("expected a Stream after Decompress, got %T", obj)
	}
	if _, has := stream.Dict.Get("Filter"); has {
		t.Error("Decompress should have removed /Filter")
	}
	if !bytes.Equal(stream.Raw, payload) {
		t.Errorf("round trip mismatch: got %q, want %q", stream.Raw, payload)
	}
}

func TestCompressSkipsAlreadyFiltered(t *testing.T) {
	d := NewDocument()
	dict := NewDict()
	dict.Set("Filter", Name("ASCIIHexDecode"))
	raw := []byte("4E6F>")
	id := d.AddObject(Stream{Dict: dict, Raw: raw, AllowCompression: true})

	if err := d.Compress(6); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	obj, _ := d.Get(id)
	stream := obj.(Stream)
	if !bytes.Equal(stream.Raw, raw) {
		t.Error("Compress must not touch a stream that already carries a /Filter")
	}
}

func TestCompressRespectsAllowCompressionFlag(t *testing.T) {
	d := NewDocument()
	raw := []byte("leave me alone")
	id := d.AddObject(Stream{Dict: NewDict(), Raw: raw, AllowCompression: false})

	if err := d.Compress(6); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	obj, _ := d.Get(id)
	stream := obj.(Stream)
	if _, has := stream.Dict.Get("Filter"); has {
		t.Error("Compress must not touch a stream with AllowCompression=false")
	}
	if !bytes.Equal(stream.Raw, raw) {
		t.Error("raw bytes must be untouched")
	}
}

func TestDeleteZeroLengthStreams(t *testing.T) {
	d := NewDocument()
	empty := d.AddObject(Stream{Dict: NewDict(), Raw: nil})
	nonEmpty := d.AddObject(Stream{Dict: NewDict(), Raw: []byte("x")})

	d.DeleteZeroLengthStreams()

	if _, ok := d.Get(empty); ok {
		t.Error("the zero-length stream should have been deleted")
	}
	if _, ok := d.Get(nonEmpty); !ok {
		t.Error("the non-empty stream must survive")
	}
}

func TestRenumberObjectsWithIdempotence(t *testing.T) {
	d := NewDocument()
	a := d.AddObject(Integer(1))
	d.AddObject(Array{Reference(a)})
	d.Trailer.Root = a

	d.RenumberObjectsWith(1)
	firstOrder := append([]uint32(nil), d.ObjectNumbers()...)

	d.RenumberObjectsWith(1)
	secondOrder := d.ObjectNumbers()

	if len(firstOrder) != len(secondOrder) {
		t.Fatalf("object count changed across idempotent renumbering: %d vs %d", len(firstOrder), len(secondOrder))
	}
	for i := range firstOrder {
		if firstOrder[i] != secondOrder[i] {
			t.Errorf("renumbering is not idempotent at index %d: %d vs %d", i, firstOrder[i], secondOrder[i])
		}
	}

	// The trailer's Root must have followed object a's new number.
	rootObj, _ := d.Get(d.Trailer.Root)
	if _, ok := rootObj.(Integer); !ok {
		t.Fatalf("Root should still resolve to the Integer object, got %T", rootObj)
	}
}

func TestRenumberObjectsWithRewritesReferences(t *testing.T) {
	d := NewDocument()
	target := d.AddObject(Integer(42))
	holder := d.AddObject(DictFrom(DictEntry{"Next", Reference(target)}))
	d.Trailer.Root = holder

	d.RenumberObjectsWith(10)

	obj, ok := d.Get(d.Trailer.Root)
	if !ok {
		t.Fatal("renumbered Root should resolve")
	}
	dict := obj.(Dict)
	next, ok := dict.Get("Next")
	if !ok {
		t.Fatal("renumbered dict lost its Next entry")
	}
	ref, ok := next.(Reference)
	if !ok {
		t.Fatalf("Next should still be a Reference, got %T", next)
	}
	pointee, ok := d.Get(ObjectId(ref))
	if !ok {
		t.Fatal("renumbered reference should resolve")
	}
	if pointee.(Integer) != 42 {
		t.Errorf("renumbered reference resolves to %v, want 42", pointee)
	}
}

func TestPruneObjectsRemovesUnreachable(t *testing.T) {
	d := NewDocument()
	root := d.AddObject(Integer(1))
	orphan := d.AddObject(Integer(2))
	d.Trailer.Root = root

	d.PruneObjects()

	if _, ok := d.Get(root); !ok {
		t.Error("Root must survive pruning")
	}
	if _, ok := d.Get(orphan); ok {
		t.Error("an object unreachable from the trailer must be pruned")
	}
}

func TestPruneObjectsKeepsReachableChain(t *testing.T) {
	d := NewDocument()
	leaf := d.AddObject(Integer(7))
	mid := d.AddObject(Array{Reference(leaf)})
	root := d.AddObject(DictFrom(DictEntry{"Kid", Reference(mid)}))
	d.Trailer.Root = root

	d.PruneObjects()

	for _, id := range []ObjectId{leaf, mid, root} {
		if _, ok := d.Get(id); !ok {
			t.Errorf("object %d reachable from Root must survive pruning", id.Number)
		}
	}
}
