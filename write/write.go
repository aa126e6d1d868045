// Package write serializes a model.Document back to PDF bytes: header,
// every indirect object (optionally packed into object streams), and a
// cross-reference section (classic table or binary xref stream), mirroring
// the structure the reader package consumes.
package write

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/harrowgate/pdf/model"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// Options configures Save. The zero value is valid: a classic xref table,
// no object-stream packing, default compression level.
type Options struct {
	// UseObjectStreams packs eligible objects (4.5's rule) into ObjStm
	// containers instead of writing them as top-level objects.
	UseObjectStreams bool

	// UseXrefStreams emits a binary /Type /XRef cross-reference stream
	// instead of the classic ASCII xref table.
	UseXrefStreams bool

	// MaxObjectsPerStream bounds how many objects one ObjStm container
	// holds. 0 or a negative value means the default of 100; values above
	// 65535 are capped at 65535.
	MaxObjectsPerStream int

	// CompressionLevel is the zlib level used for both FlateDecode
	// recompression and object-stream bodies. 0 or a negative value means
	// the default of 6; values above 9 are capped at 9.
	CompressionLevel int
}

func (o Options) normalize() Options {
	out := o
	switch {
	case out.MaxObjectsPerStream <= 0:
		out.MaxObjectsPerStream = 100
	case out.MaxObjectsPerStream > 65535:
		out.MaxObjectsPerStream = 65535
	}
	if out.CompressionLevel <= 0 {
		out.CompressionLevel = 6
	} else if out.CompressionLevel > 9 {
		out.CompressionLevel = 9
	}
	return out
}

// writer accumulates output in memory (so a failure midway never leaves a
// truncated file visible to the caller) and records each object's offset as
// it is emitted, the way the teacher's own writer tracks objOffsets.
type writer struct {
	buf     bytes.Buffer
	err     error
	opts    Options
	doc     *model.Document
	offsets map[uint32]int64
}

func (w *writer) bytes(b []byte) {
	if w.err != nil {
		return
	}
	w.buf.Write(b)
}

func (w *writer) printf(format string, args ...interface{}) {
	w.bytes([]byte(fmt.Sprintf(format, args...)))
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Save writes doc to dst. On any failure no partial output reaches dst: the
// whole document is assembled in memory first and only flushed on success.
func Save(doc *model.Document, dst io.Writer, opts Options) error {
	opts = opts.normalize()
	if opts.UseObjectStreams {
		// A classical xref table has no way to encode a compressed entry
		// (7.5.7): object streams require the binary xref stream form.
		opts.UseXrefStreams = true
	}
	w := &writer{opts: opts, doc: doc, offsets: map[uint32]int64{}}

	if opts.UseObjectStreams || opts.UseXrefStreams {
		bumped := bumpVersion(doc.Version, "1.5")
		if bumped != doc.Version {
			log.Write.Printf("Save: raising version %s -> %s for object/xref streams\n", doc.Version, bumped)
		}
		doc.Version = bumped
	}

	w.writeHeader()

	var packed map[uint32]packedEntry
	var containers []containerStream
	if opts.UseObjectStreams {
		packed, containers = w.packObjectStreams()
	}

	w.writeObjects(packed, containers)

	entries, maxNumber := w.buildEntries(packed)

	if opts.UseXrefStreams {
		w.writeXrefStream(entries, maxNumber)
	} else {
		w.writeXrefTable(entries, maxNumber)
	}

	if w.err != nil {
		return w.err
	}
	_, err := dst.Write(w.buf.Bytes())
	return err
}

// writeHeader emits the PDF header line and the spec-recommended binary-mark
// comment (6: "a binary-mark comment (four bytes >= 0x80 after a %)"),
// always, for PDF/A readiness regardless of what the source carried.
func (w *writer) writeHeader() {
	w.printf("%%PDF-%s\n", doc1OrDefault(w.doc.Version))
	mark := w.doc.BinaryMark
	w.bytes([]byte{'%', mark[0], mark[1], mark[2], mark[3], '\n'})
}

func doc1OrDefault(version string) string {
	if version == "" {
		return "1.7"
	}
	return version
}

// bumpVersion returns the larger of v and min as a PDF version string,
// comparing major.minor numerically rather than lexically ("1.10" > "1.9").
func bumpVersion(v, min string) string {
	if versionLess(v, min) {
		return min
	}
	return v
}

func versionLess(a, b string) bool {
	aMajor, aMinor, aok := parseVersion(a)
	bMajor, bMinor, bok := parseVersion(b)
	if !aok {
		return true
	}
	if !bok {
		return false
	}
	if aMajor != bMajor {
		return aMajor < bMajor
	}
	return aMinor < bMinor
}

func parseVersion(v string) (major, minor int, ok bool) {
	majorStr, minorStr, _ := strings.Cut(v, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return 0, 0, false
	}
	if minorStr == "" {
		return major, 0, true
	}
	if minor, err = strconv.Atoi(minorStr); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// outEntry is the writer's own view of one object's final disposition,
// built after every object has been emitted (so offsets are known) and
// consumed by both xref writers.
type outEntry struct {
	kind      model.EntryKind
	offset    int64
	gen       uint16
	container uint32
	index     int
}

// buildEntries folds the document's tracked objects, any newly-allocated
// object-stream containers, and a synthetic free object 0 (required even
// for a document that never saw one) into the final xref view.
func (w *writer) buildEntries(packed map[uint32]packedEntry) (map[uint32]outEntry, uint32) {
	entries := map[uint32]outEntry{}
	var maxNumber uint32

	for _, number := range w.doc.ObjectNumbers() {
		if number > maxNumber {
			maxNumber = number
		}
		entry, _ := w.doc.Entry(number)
		if entry.Kind == model.EntryFree {
			entries[number] = outEntry{kind: model.EntryFree, gen: entry.Generation}
			continue
		}
		if p, ok := packed[number]; ok {
			entries[number] = outEntry{kind: model.EntryCompressed, container: p.container, index: p.index}
			continue
		}
		entries[number] = outEntry{kind: model.EntryInUse, offset: w.offsets[number], gen: w.doc.Generation(number)}
	}

	for number, offset := range w.offsets {
		if _, ok := entries[number]; ok {
			continue
		}
		// A number with a recorded offset but no document entry is a
		// freshly-allocated object-stream container.
		entries[number] = outEntry{kind: model.EntryInUse, offset: offset}
		if number > maxNumber {
			maxNumber = number
		}
	}

	if _, ok := entries[0]; !ok {
		entries[0] = outEntry{kind: model.EntryFree, gen: 65535}
	}

	return entries, maxNumber
}

// sortedKeys returns the keys of entries in ascending order.
func sortedKeys(entries map[uint32]outEntry) []uint32 {
	keys := make([]uint32, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// chainFreeList assigns each free entry's "next free" pointer, threading
// object 0 and every other free slot into a single ascending chain that
// closes back on 0, per 7.5.4's linked free list.
func chainFreeList(entries map[uint32]outEntry) {
	var free []uint32
	for _, k := range sortedKeys(entries) {
		if entries[k].kind == model.EntryFree {
			free = append(free, k)
		}
	}
	for i, number := range free {
		next := free[0]
		if i+1 < len(free) {
			next = free[i+1]
		}
		e := entries[number]
		e.offset = int64(next)
		entries[number] = e
	}
}
