package reader

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/harrowgate/pdf/model"
	"github.com/harrowgate/pdf/parse"
)

// objStreamCache remembers the unpacked contents of an object stream by its
// object number so a second compressed object pointing at the same stream
// doesn't re-decode and re-split it.
type objStreamCache map[int][]model.Object

// getFromObjectStream returns the parsed object at index idx inside the
// object stream numbered streamNumber, decoding and caching the whole
// stream on first access.
func (ctx *context) getFromObjectStream(streamNumber, idx int) (model.Object, error) {
	if ctx.objStreams == nil {
		ctx.objStreams = objStreamCache{}
	}
	objs, ok := ctx.objStreams[streamNumber]
	if !ok {
		var err error
		objs, err = ctx.decodeObjectStream(streamNumber)
		if err != nil {
			return nil, err
		}
		ctx.objStreams[streamNumber] = objs
	}
	if idx < 0 || idx >= len(objs) {
		return nil, fmt.Errorf("reader: object stream %d has no entry %d", streamNumber, idx)
	}
	return objs[idx], nil
}

// decodeObjectStream unpacks a /Type /ObjStm stream (7.5.7) into its
// individual objects, in the order the stream's header lists them.
func (ctx *context) decodeObjectStream(streamNumber int) ([]model.Object, error) {
	entry, ok := ctx.doc.Entry(uint32(streamNumber))
	if !ok || entry.Kind != model.EntryInUse {
		return nil, fmt.Errorf("reader: missing object stream %d", streamNumber)
	}

	_, _, obj, err := ctx.parseIndirectAt(entry.Offset)
	if err != nil {
		return nil, fmt.Errorf("reader: reading object stream %d: %w", streamNumber, err)
	}
	stream, ok := obj.(model.Stream)
	if !ok {
		return nil, fmt.Errorf("reader: object stream %d is not a stream (%T)", streamNumber, obj)
	}

	if ty, ok := stream.Dict.Get("Type"); ok {
		if n, ok := ty.(model.Name); ok && n != "ObjStm" {
			return nil, fmt.Errorf("reader: object %d has /Type /%s, expected /ObjStm", streamNumber, n)
		}
	}
	// Nested object streams (an ObjStm whose own entry is itself
	// compressed) are a malformed-file signal, not a valid construction -
	// 7.5.7 requires object streams to be regular, uncompressed objects.
	if entry.Kind == model.EntryCompressed {
		return nil, fmt.Errorf("reader: object stream %d cannot itself be compressed", streamNumber)
	}

	if ctx.doc.IsEncrypted() {
		plain, err := ctx.doc.DecryptObject(model.ObjectId{Number: uint32(streamNumber)}, stream)
		if err != nil {
			return nil, fmt.Errorf("reader: decrypting object stream %d: %w", streamNumber, err)
		}
		stream = plain.(model.Stream)
	}
	// Install the container itself as resolved now, same reason as the xref
	// stream case in parseXrefStream: otherwise resolveAllObjects re-parses
	// it as an ordinary object and the container is carried through to Save
	// as an orphaned extra /Type /ObjStm stream on every load/save round trip.
	ctx.doc.SetObject(uint32(streamNumber), stream)

	decoded, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("reader: decoding object stream %d: %w", streamNumber, err)
	}

	n, ok := stream.Dict.Get("N")
	count, isInt := n.(model.Integer)
	if !ok || !isInt {
		return nil, fmt.Errorf("reader: object stream %d missing /N", streamNumber)
	}

	firstObj, ok := stream.Dict.Get("First")
	first, isInt := firstObj.(model.Integer)
	if !ok || !isInt {
		return nil, fmt.Errorf("reader: object stream %d missing /First", streamNumber)
	}
	if int(first) > len(decoded) || first < 0 {
		return nil, fmt.Errorf("reader: object stream %d has out-of-range /First %d", streamNumber, first)
	}

	if _, has := stream.Dict.Get("Extents"); has {
		return nil, fmt.Errorf("reader: object stream %d: /Extents is unsupported", streamNumber)
	}

	// Some writers separate the prolog's object-number/offset pairs with
	// NUL instead of whitespace.
	prolog := bytes.ReplaceAll(decoded[:first], []byte{0x00}, []byte{0x20})
	fields := bytes.Fields(prolog)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("reader: object stream %d: odd field count in prolog", streamNumber)
	}

	pairCount := len(fields) / 2
	if pairCount != int(count) {
		// Tolerate a mismatch (some producers pad or truncate /N) by using
		// whichever is smaller, rather than rejecting the stream outright.
		if pairCount < int(count) {
			count = model.Integer(pairCount)
		}
	}

	offsets := make([]int, count)
	for i := range offsets {
		off, err := strconv.Atoi(string(fields[2*i+1]))
		if err != nil {
			return nil, fmt.Errorf("reader: object stream %d: bad offset in prolog: %w", streamNumber, err)
		}
		offsets[i] = int(first) + off
		if offsets[i] > len(decoded) || offsets[i] < int(first) {
			return nil, fmt.Errorf("reader: object stream %d: offset %d out of range", streamNumber, offsets[i])
		}
	}

	objects := make([]model.Object, count)
	for i := range objects {
		start, end := offsets[i], len(decoded)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		obj, err := parse.ParseObject(decoded[start:end])
		if err != nil {
			return nil, fmt.Errorf("reader: object stream %d: entry %d: %w", streamNumber, i, err)
		}
		objects[i] = obj
	}

	return objects, nil
}
