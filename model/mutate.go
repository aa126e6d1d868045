package model

import "github.com/harrowgate/pdf/filters"

// Compress applies FlateDecode to every stream that has no /Filter yet and
// whose AllowCompression flag permits it, per 4.5's writer contract.
func (d *Document) Compress(level int) error {
	for _, number := range d.order {
		e := d.entries[number]
		if e.Kind != EntryInUse || e.object == nil {
			continue
		}
		stream, ok := e.object.(Stream)
		if !ok || !stream.AllowCompression {
			continue
		}
		if _, has := stream.Dict.Get("Filter"); has {
			continue
		}
		encoded, err := Encode(stream.Dict, stream.Raw, "FlateDecode", filters.Params{Level: level})
		if err != nil {
			return err
		}
		encoded.AllowCompression = true
		e.object = encoded
	}
	return nil
}

// Decompress strips every stream's filter pipeline, replacing its raw bytes
// with the fully decoded payload and removing /Filter and /DecodeParms.
func (d *Document) Decompress() error {
	for _, number := range d.order {
		e := d.entries[number]
		if e.Kind != EntryInUse || e.object == nil {
			continue
		}
		stream, ok := e.object.(Stream)
		if !ok {
			continue
		}
		if _, has := stream.Dict.Get("Filter"); !has {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			return err
		}
		dict := stream.Dict.Clone().(Dict)
		dict.Delete("Filter")
		dict.Delete("DecodeParms")
		dict.Delete("DP")
		dict.Set("Length", Integer(len(data)))
		e.object = Stream{Dict: dict, Raw: data, AllowCompression: stream.AllowCompression}
	}
	return nil
}

// DeleteZeroLengthStreams drops every tracked object whose value is a
// Stream with an empty payload, freeing its slot.
func (d *Document) DeleteZeroLengthStreams() {
	for _, number := range d.order {
		e := d.entries[number]
		if e.Kind != EntryInUse || e.object == nil {
			continue
		}
		if stream, ok := e.object.(Stream); ok && len(stream.Raw) == 0 {
			d.DeleteObject(number)
		}
	}
}

// DeleteObject frees number's slot: later Get/Dereference calls on it
// return Null, matching a free cross-reference entry rather than leaving a
// dangling pointer to stale content.
func (d *Document) DeleteObject(number uint32) {
	if e, ok := d.entries[number]; ok {
		e.Kind = EntryFree
		e.object = nil
	}
}

// RenumberObjectsWith assigns a dense new numbering starting at start,
// following current iteration order (d.order), and rewrites every Reference
// reachable from any tracked object's value and from the trailer. It is
// idempotent when iteration order is already dense from start: a second
// call produces the identical mapping.
func (d *Document) RenumberObjectsWith(start uint32) {
	mapping := map[uint32]uint32{}
	next := start
	for _, number := range d.order {
		e := d.entries[number]
		if e.Kind == EntryFree {
			continue
		}
		mapping[number] = next
		next++
	}

	newEntries := make(map[uint32]*XrefEntry, len(mapping))
	newOrder := make([]uint32, 0, len(mapping))
	var maxNumber uint32
	for _, number := range d.order {
		e := d.entries[number]
		if e.Kind == EntryFree {
			continue
		}
		newNumber := mapping[number]
		e.object = renumberObject(e.object, mapping)
		newEntries[newNumber] = e
		newOrder = append(newOrder, newNumber)
		if newNumber > maxNumber {
			maxNumber = newNumber
		}
	}

	d.entries = newEntries
	d.order = newOrder
	d.maxObjNumber = maxNumber

	d.Trailer.Root = renumberID(d.Trailer.Root, mapping)
	if d.Trailer.HasInfo {
		d.Trailer.Info = renumberID(d.Trailer.Info, mapping)
	}
	if d.Trailer.HasEnc {
		d.Trailer.Encrypt = renumberID(d.Trailer.Encrypt, mapping)
	}
}

func renumberID(id ObjectId, mapping map[uint32]uint32) ObjectId {
	if n, ok := mapping[id.Number]; ok {
		return ObjectId{Number: n, Generation: id.Generation}
	}
	return id
}

// renumberObject recursively rewrites every Reference found in obj (and, for
// Array/Dict/Stream, every value it contains) through mapping.
func renumberObject(obj Object, mapping map[uint32]uint32) Object {
	switch v := obj.(type) {
	case Reference:
		return Reference(renumberID(ObjectId(v), mapping))
	case Array:
		out := make(Array, len(v))
		for i, o := range v {
			out[i] = renumberObject(o, mapping)
		}
		return out
	case Dict:
		out := NewDict()
		for _, entry := range v.Entries() {
			out.Set(entry.Key, renumberObject(entry.Value, mapping))
		}
		return out
	case Stream:
		dict := renumberObject(v.Dict, mapping).(Dict)
		return Stream{Dict: dict, Raw: v.Raw, AllowCompression: v.AllowCompression}
	default:
		return obj
	}
}

// PruneObjects removes every object not reachable from the trailer's Root,
// Info or Encrypt entries, following References through Array, Dict and
// Stream dictionaries. A cycle or a shared subtree is visited once.
func (d *Document) PruneObjects() {
	reachable := map[uint32]bool{}
	var visit func(Object)
	visit = func(obj Object) {
		switch v := obj.(type) {
		case Reference:
			id := ObjectId(v)
			if reachable[id.Number] {
				return
			}
			reachable[id.Number] = true
			if target, ok := d.Get(id); ok {
				visit(target)
			}
		case Array:
			for _, o := range v {
				visit(o)
			}
		case Dict:
			for _, entry := range v.Entries() {
				visit(entry.Value)
			}
		case Stream:
			visit(v.Dict)
		}
	}

	visit(Reference(d.Trailer.Root))
	if d.Trailer.HasInfo {
		visit(Reference(d.Trailer.Info))
	}
	if d.Trailer.HasEnc {
		visit(Reference(d.Trailer.Encrypt))
	}

	for _, number := range d.order {
		if !reachable[number] {
			d.DeleteObject(number)
		}
	}
}
