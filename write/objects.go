package write

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/harrowgate/pdf/filters"
	"github.com/harrowgate/pdf/model"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// packedEntry records where a packed object ended up: which container
// object number holds it, and at what index within that container.
type packedEntry struct {
	container uint32
	index     int
}

// containerStream is one ObjStm built by packObjectStreams, not yet
// assigned a file offset.
type containerStream struct {
	number uint32
	stream model.Stream
}

// eligibleForPacking applies 4.5's compressibility rule: not a Stream, not
// the encryption dictionary, generation 0, and - for a linearized source -
// not the Catalog (packing it would break the first-page hint a linearized
// reader relies on, even though this writer never produces linearized
// output itself).
func (w *writer) eligibleForPacking(number uint32) bool {
	if w.doc.Trailer.HasEnc && w.doc.Trailer.Encrypt.Number == number {
		return false
	}
	if w.doc.Generation(number) != 0 {
		return false
	}
	obj, ok := w.doc.Get(model.ObjectId{Number: number})
	if !ok {
		return false
	}
	if _, isStream := obj.(model.Stream); isStream {
		return false
	}
	if w.doc.Linearized && w.doc.Trailer.Root.Number == number {
		return false
	}
	return true
}

func (w *writer) isEncryptDictObject(number uint32) bool {
	return w.doc.Trailer.HasEnc && w.doc.Trailer.Encrypt.Number == number
}

// isStructuralObject reports whether number is a /Type /XRef or /Type
// /ObjStm stream carried over from the source document. Save always
// regenerates its own cross-reference section and object-stream
// containers from scratch, so a structural object read in from a prior
// save must never be copied through verbatim - doing so would accumulate
// an orphaned xref/ObjStm stream on every load/save round trip.
func (w *writer) isStructuralObject(number uint32) bool {
	obj, ok := w.doc.Get(model.ObjectId{Number: number})
	if !ok {
		return false
	}
	stream, ok := obj.(model.Stream)
	if !ok {
		return false
	}
	ty, ok := stream.Dict.Get("Type")
	if !ok {
		return false
	}
	name, ok := ty.(model.Name)
	return ok && (name == "XRef" || name == "ObjStm")
}

// packObjectStreams groups every eligible object into ObjStm containers of
// at most opts.MaxObjectsPerStream objects, in ascending object-number
// order, and returns the compressed-entry mapping plus the container
// streams themselves (not yet assigned an object number's final offset -
// writeObjects does that when it emits them like any other object).
func (w *writer) packObjectStreams() (map[uint32]packedEntry, []containerStream) {
	var candidates []uint32
	for _, number := range w.doc.ObjectNumbers() {
		entry, ok := w.doc.Entry(number)
		if !ok || entry.Kind == model.EntryFree {
			continue
		}
		if w.eligibleForPacking(number) {
			candidates = append(candidates, number)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	packed := map[uint32]packedEntry{}
	var containers []containerStream
	next := w.nextFreeNumber()

	for start := 0; start < len(candidates); start += w.opts.MaxObjectsPerStream {
		end := start + w.opts.MaxObjectsPerStream
		if end > len(candidates) {
			end = len(candidates)
		}
		group := candidates[start:end]

		containerNumber := next
		next++

		var prolog, body bytes.Buffer
		for i, number := range group {
			obj, _ := w.doc.Get(model.ObjectId{Number: number})
			fmt.Fprintf(&prolog, "%d %d ", number, body.Len())
			body.Write(obj.Write(nil))
			body.WriteByte(' ')
			packed[number] = packedEntry{container: containerNumber, index: i}
		}

		dict := model.NewDict()
		dict.Set("Type", model.Name("ObjStm"))
		dict.Set("N", model.Integer(len(group)))
		dict.Set("First", model.Integer(prolog.Len()))

		content := append(append([]byte{}, prolog.Bytes()...), body.Bytes()...)
		stream, err := model.Encode(dict, content, filters.Flate, filters.Params{Level: w.opts.CompressionLevel})
		if err != nil {
			w.fail(fmt.Errorf("write: packing object stream: %w", err))
			return packed, containers
		}
		containers = append(containers, containerStream{number: containerNumber, stream: stream})
	}

	log.Write.Printf("packObjectStreams: packed %d objects into %d container(s)\n", len(packed), len(containers))
	return packed, containers
}

func (w *writer) nextFreeNumber() uint32 {
	var max uint32
	for _, number := range w.doc.ObjectNumbers() {
		if number > max {
			max = number
		}
	}
	return max + 1
}

// writeObjects emits every non-packed tracked object plus every container
// stream, in ascending object-number order, encrypting each one (except the
// encryption dictionary itself) when the document carries a session.
func (w *writer) writeObjects(packed map[uint32]packedEntry, containers []containerStream) {
	type pending struct {
		number uint32
		obj    model.Object
	}
	var items []pending

	for _, number := range w.doc.ObjectNumbers() {
		if _, isPacked := packed[number]; isPacked {
			continue
		}
		entry, ok := w.doc.Entry(number)
		if !ok || entry.Kind == model.EntryFree {
			continue
		}
		if w.isStructuralObject(number) {
			continue
		}
		obj, ok := w.doc.Get(model.ObjectId{Number: number})
		if !ok {
			continue
		}
		items = append(items, pending{number: number, obj: obj})
	}
	for _, c := range containers {
		items = append(items, pending{number: c.number, obj: c.stream})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].number < items[j].number })

	for _, it := range items {
		obj := it.obj
		if w.doc.IsEncrypted() && !w.isEncryptDictObject(it.number) {
			encrypted, err := w.doc.EncryptObject(model.ObjectId{Number: it.number}, obj)
			if err != nil {
				w.fail(fmt.Errorf("write: encrypting object %d: %w", it.number, err))
				return
			}
			obj = encrypted
		}

		w.offsets[it.number] = int64(w.buf.Len())
		w.printf("%d %d obj\n", it.number, w.doc.Generation(it.number))
		w.bytes(obj.Write(nil))
		w.bytes([]byte("\nendobj\n"))
	}
}
