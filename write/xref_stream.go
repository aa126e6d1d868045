package write

import (
	"bytes"

	"github.com/harrowgate/pdf/filters"
	"github.com/harrowgate/pdf/model"
)

// writeXrefStream emits a binary /Type /XRef cross-reference stream (7.5.8)
// in place of the classical table: the only form that can carry a
// compressed (type 2) entry for an object packed into an ObjStm.
func (w *writer) writeXrefStream(entries map[uint32]outEntry, maxNumber uint32) {
	chainFreeList(entries)

	number := maxNumber + 1
	// The stream is itself an in-use object at generation 0; record its own
	// entry (including its offset, known now since nothing else is written
	// to the buffer between here and the actual emission below) so the
	// table it describes is self-consistent and wide enough to hold it.
	entries[number] = outEntry{kind: model.EntryInUse, offset: int64(w.buf.Len())}
	if number > maxNumber {
		maxNumber = number
	}

	w1 := byteWidth(maxField2Value(entries))
	if w1 == 0 {
		w1 = 1
	}
	w2 := byteWidth(maxField3Value(entries))
	if w2 == 0 {
		w2 = 1
	}

	keys := sortedKeys(entries)
	var index model.Array
	var rows bytes.Buffer

	for i := 0; i < len(keys); {
		start := keys[i]
		j := i + 1
		for j < len(keys) && keys[j] == keys[j-1]+1 {
			j++
		}
		index = append(index, model.Integer(start), model.Integer(j-i))
		for _, n := range keys[i:j] {
			e := entries[n]
			switch e.kind {
			case model.EntryFree:
				writeField(&rows, 0, 1)
				writeField(&rows, e.offset, w1)
				writeField(&rows, int64(e.gen), w2)
			case model.EntryCompressed:
				writeField(&rows, 2, 1)
				writeField(&rows, int64(e.container), w1)
				writeField(&rows, int64(e.index), w2)
			default:
				writeField(&rows, 1, 1)
				writeField(&rows, e.offset, w1)
				writeField(&rows, int64(e.gen), w2)
			}
		}
		i = j
	}

	dict := model.NewDict()
	dict.Set("Type", model.Name("XRef"))
	dict.Set("Size", model.Integer(maxNumber+1))
	dict.Set("Index", index)
	dict.Set("W", model.Array{model.Integer(1), model.Integer(w1), model.Integer(w2)})
	dict.Set("Root", model.Reference(w.doc.Trailer.Root))
	if w.doc.Trailer.HasInfo {
		dict.Set("Info", model.Reference(w.doc.Trailer.Info))
	}
	if w.doc.Trailer.HasEnc {
		dict.Set("Encrypt", model.Reference(w.doc.Trailer.Encrypt))
	}
	if w.doc.Trailer.HasID {
		dict.Set("ID", model.Array{
			model.String{Value: w.doc.Trailer.ID[0], Format: model.Hex},
			model.String{Value: w.doc.Trailer.ID[1], Format: model.Hex},
		})
	}

	stream, err := model.Encode(dict, rows.Bytes(), filters.Flate, filters.Params{Level: w.opts.CompressionLevel})
	if err != nil {
		w.fail(err)
		return
	}

	offset := w.buf.Len()
	w.printf("%d 0 obj\n", number)
	w.bytes(stream.Write(nil))
	w.bytes([]byte("\nendobj\n"))

	w.printf("startxref\n%d\n%%%%EOF", offset)
}

func writeField(dst *bytes.Buffer, v int64, width int) {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(v & 0xff)
		v >>= 8
	}
	dst.Write(buf)
}

func byteWidth(max int64) int {
	n := 0
	for max > 0 {
		max >>= 8
		n++
	}
	return n
}

func maxField2Value(entries map[uint32]outEntry) int64 {
	var max int64
	for _, e := range entries {
		var v int64
		switch e.kind {
		case model.EntryCompressed:
			v = int64(e.container)
		default:
			v = e.offset
		}
		if v > max {
			max = v
		}
	}
	return max
}

func maxField3Value(entries map[uint32]outEntry) int64 {
	var max int64
	for _, e := range entries {
		var v int64
		if e.kind == model.EntryCompressed {
			v = int64(e.index)
		} else {
			v = int64(e.gen)
		}
		if v > max {
			max = v
		}
	}
	return max
}
