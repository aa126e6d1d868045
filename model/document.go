package model

import "github.com/pdfcpu/pdfcpu/pkg/log"

// EntryKind classifies a cross-reference entry.
type EntryKind uint8

const (
	EntryFree EntryKind = iota
	EntryInUse
	EntryCompressed
)

// XrefEntry records where one object lives: either a byte offset in the
// file (EntryInUse), a containing object stream (EntryCompressed), or
// nothing (EntryFree - the slot is on the free list).
type XrefEntry struct {
	Kind EntryKind

	// Offset is valid for EntryInUse: the byte offset of "N G obj".
	Offset int64

	// Generation is the object's generation number. Always 0 for
	// EntryCompressed (7.5.7 requires it), normally 0 for EntryInUse too;
	// non-zero only for a reused slot.
	Generation uint16

	// StreamNumber/StreamIndex are valid for EntryCompressed: the object
	// number of the containing ObjStm and this object's index within it.
	StreamNumber int
	StreamIndex  int

	// object is the resolved value, cached after first successful parse so
	// repeated Dereference calls don't re-parse or re-decrypt.
	object Object
}

// Trailer carries the handful of well-known trailer dictionary entries.
type Trailer struct {
	Size    int
	Root    ObjectId
	Info    ObjectId
	HasInfo bool
	ID      [2][]byte
	HasID   bool
	Encrypt ObjectId
	HasEnc  bool
}

// Document is the generic, mutable object graph a Document read produces
// and a Document write consumes: a trailer plus a table of indirect
// objects, addressed by ObjectId. It has no notion of pages, fonts, or any
// other higher-level PDF structure - see the pages.go helpers for that.
type Document struct {
	Version      string // e.g. "1.7"
	BinaryMark   [4]byte
	Trailer      Trailer
	entries      map[uint32]*XrefEntry
	order        []uint32 // object numbers in the order first seen, for stable iteration
	maxObjNumber uint32

	// Linearized is true when the first-page hint dictionary
	// (/Linearized) was found; read-only, never produced by Save.
	Linearized bool

	encryption *encryptionState // nil if the document is not encrypted
}

// NewDocument returns an empty Document with a default version and binary
// mark, ready to have objects added to it.
func NewDocument() *Document {
	return &Document{
		Version:    "1.7",
		BinaryMark: [4]byte{0xE2, 0xE3, 0xCF, 0xD3},
		entries:    map[uint32]*XrefEntry{},
	}
}

// SetEntry installs or replaces the cross-reference entry for number,
// extending the tracked object range as needed.
func (d *Document) SetEntry(number uint32, entry XrefEntry) {
	if _, exists := d.entries[number]; !exists {
		d.order = append(d.order, number)
	}
	e := entry
	d.entries[number] = &e
	if number > d.maxObjNumber {
		d.maxObjNumber = number
	}
}

// Entry returns the raw cross-reference entry for number, if any.
func (d *Document) Entry(number uint32) (*XrefEntry, bool) {
	e, ok := d.entries[number]
	return e, ok
}

// ObjectNumbers returns every tracked object number, in first-seen order.
func (d *Document) ObjectNumbers() []uint32 {
	return d.order
}

// Generation returns the tracked generation number for number, or 0 if
// number is unknown (generation 0 is also the default for a known object).
func (d *Document) Generation(number uint32) uint16 {
	if e, ok := d.entries[number]; ok {
		return e.Generation
	}
	return 0
}

// NextObjectNumber returns an object number not currently in use, suitable
// for AddObject.
func (d *Document) NextObjectNumber() uint32 {
	return d.maxObjNumber + 1
}

// AddObject installs obj as a new indirect object and returns its id with
// generation 0.
func (d *Document) AddObject(obj Object) ObjectId {
	number := d.NextObjectNumber()
	d.SetEntry(number, XrefEntry{Kind: EntryInUse, object: obj})
	return ObjectId{Number: number, Generation: 0}
}

// SetObject overwrites the resolved value for an existing entry (or creates
// an in-use entry if number was unknown), without touching its on-disk
// offset bookkeeping.
func (d *Document) SetObject(number uint32, obj Object) {
	if e, ok := d.entries[number]; ok {
		e.object = obj
		e.Kind = EntryInUse
		return
	}
	d.SetEntry(number, XrefEntry{Kind: EntryInUse, object: obj})
}

// Get returns the resolved object for id, or Null and false if id is not a
// known in-use entry (a dangling reference resolves to Null per 7.3.10,
// not an error).
func (d *Document) Get(id ObjectId) (Object, bool) {
	e, ok := d.entries[id.Number]
	if !ok || e.Kind == EntryFree || e.object == nil {
		return Null{}, false
	}
	return e.object, true
}

// DereferenceID follows o until it is no longer a Reference, returning the
// object id the walk terminated through alongside the resolved value. ok
// is false when o was never itself a Reference, in which case there is no
// id to report and value is simply o unchanged. The walk is bounded by the
// number of tracked objects, so a reference cycle (A -> B -> A) terminates
// instead of looping: each object number is recorded as visited the first
// time it is entered, and re-entering one resolves to (id, Null) rather
// than looping forever.
func (d *Document) DereferenceID(o Object) (id ObjectId, value Object, ok bool) {
	ref, isRef := o.(Reference)
	if !isRef {
		return ObjectId{}, o, false
	}

	id = ref.id()
	visited := map[uint32]bool{}
	for {
		if visited[id.Number] || len(visited) > len(d.entries)+1 {
			log.Read.Printf("Dereference: cycle detected at object %d, resolving to null\n", id.Number)
			return id, Null{}, true
		}
		visited[id.Number] = true

		obj, got := d.Get(id)
		if !got {
			return id, Null{}, true
		}
		next, isRef := obj.(Reference)
		if !isRef {
			return id, obj, true
		}
		id = next.id()
	}
}

// Dereference follows o until it is no longer a Reference, returning Null
// if it points at an unknown or free object. It's a convenience over
// DereferenceID for the common case where the id the walk terminated
// through doesn't matter; use DereferenceID when a caller needs to keep
// that id (for example, to record it rather than the value it names).
func (d *Document) Dereference(o Object) Object {
	_, value, _ := d.DereferenceID(o)
	return value
}

// DereferenceDict is a convenience for the common case of looking up a
// dictionary entry that might itself be an indirect reference.
func (d *Document) DereferenceDict(dict Dict, key Name) (Object, bool) {
	v, ok := dict.Get(key)
	if !ok {
		return nil, false
	}
	return d.Dereference(v), true
}

// DereferenceDictID is DereferenceDict's id-returning counterpart: it looks
// up key in dict and, if the stored value is itself a Reference, follows it
// and reports the id the walk terminated through. found reports whether
// key was present at all; idOK reports whether that value was a Reference
// (so id is meaningful) as opposed to an inline value.
func (d *Document) DereferenceDictID(dict Dict, key Name) (id ObjectId, value Object, idOK, found bool) {
	v, found := dict.Get(key)
	if !found {
		return ObjectId{}, nil, false, false
	}
	id, value, idOK = d.DereferenceID(v)
	return id, value, idOK, true
}
