package model

import "testing"

func TestDereferenceFollowsChain(t *testing.T) {
	d := NewDocument()
	leaf := d.AddObject(Integer(42))
	mid := d.AddObject(Reference(leaf))
	top := d.AddObject(Reference(mid))

	obj, ok := d.Get(top)
	if !ok {
		t.Fatal("expected the top object to exist")
	}
	got := d.Dereference(obj)
	if _, isRef := got.(Reference); isRef {
		t.Fatalf("Dereference should fully resolve a chain of References, got %#v", got)
	}
	if got != Integer(42) {
		t.Errorf("Dereference(chain) = %v, want 42", got)
	}
}

func TestDereferenceDetectsSelfCycle(t *testing.T) {
	d := NewDocument()
	d.SetObject(10, Reference{Number: 10})

	got := d.Dereference(Reference{Number: 10})
	if _, ok := got.(Null); !ok {
		t.Errorf("a self-referential object should resolve to Null, got %#v", got)
	}
}

func TestDereferenceDetectsMutualCycle(t *testing.T) {
	d := NewDocument()
	d.SetObject(1, Reference{Number: 2})
	d.SetObject(2, Reference{Number: 1})

	got := d.Dereference(Reference{Number: 1})
	if _, ok := got.(Null); !ok {
		t.Errorf("a mutual reference cycle should resolve to Null, got %#v", got)
	}
}

func TestDereferenceDictResolvesIndirectValue(t *testing.T) {
	d := NewDocument()
	target := d.AddObject(Name("Catalog"))
	dict := DictFrom(DictEntry{"Type", Reference(target)})

	got, ok := d.DereferenceDict(dict, "Type")
	if !ok {
		t.Fatal("expected the key to be found")
	}
	if got != Name("Catalog") {
		t.Errorf("DereferenceDict = %v, want Name(\"Catalog\")", got)
	}

	if _, ok := d.DereferenceDict(dict, "Missing"); ok {
		t.Error("a missing key should report ok=false")
	}
}

func TestDereferenceUnresolvedReturnsNull(t *testing.T) {
	d := NewDocument()
	got := d.Dereference(Reference{Number: 999})
	if _, ok := got.(Null); !ok {
		t.Errorf("dereferencing an unknown object should yield Null, got %#v", got)
	}
}

func TestDereferenceIDReportsTerminalId(t *testing.T) {
	d := NewDocument()
	leaf := d.AddObject(Name("Pages"))
	mid := d.AddObject(Reference(leaf))
	top := d.AddObject(Reference(mid))

	obj, _ := d.Get(top)
	id, value, ok := d.DereferenceID(obj)
	if !ok {
		t.Fatal("expected a Reference chain to report ok=true")
	}
	if id != leaf {
		t.Errorf("DereferenceID id = %v, want the chain's final id %v", id, leaf)
	}
	if value != Name("Pages") {
		t.Errorf("DereferenceID value = %v, want Name(\"Pages\")", value)
	}
}

func TestDereferenceIDOnInlineValue(t *testing.T) {
	d := NewDocument()
	id, value, ok := d.DereferenceID(Integer(7))
	if ok {
		t.Error("a non-Reference input should report ok=false")
	}
	if id != (ObjectId{}) {
		t.Errorf("a non-Reference input should report the zero ObjectId, got %v", id)
	}
	if value != Integer(7) {
		t.Errorf("DereferenceID value = %v, want the input unchanged", value)
	}
}

func TestDereferenceDictIDFound(t *testing.T) {
	d := NewDocument()
	target := d.AddObject(Name("Catalog"))
	dict := DictFrom(DictEntry{"Type", Reference(target)})

	id, value, idOK, found := d.DereferenceDictID(dict, "Type")
	if !found || !idOK {
		t.Fatalf("found=%v idOK=%v, want both true", found, idOK)
	}
	if id != target {
		t.Errorf("id = %v, want %v", id, target)
	}
	if value != Name("Catalog") {
		t.Errorf("value = %v, want Name(\"Catalog\")", value)
	}

	if _, _, _, found := d.DereferenceDictID(dict, "Missing"); found {
		t.Error("a missing key should report found=false")
	}
}
