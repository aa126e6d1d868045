package write

import "github.com/harrowgate/pdf/model"

// writeXrefTable emits the classical ASCII cross-reference table: a
// "xref" keyword, one or more contiguous-range subsections, the trailer
// dictionary, and "startxref"/"%%EOF". 4.5: "objects are written in
// ascending object_number... free slots are recorded as xref entries of
// the free kind, chained by next-free-id."
func (w *writer) writeXrefTable(entries map[uint32]outEntry, maxNumber uint32) {
	chainFreeList(entries)

	offset := w.buf.Len()
	w.bytes([]byte("xref\n"))

	keys := sortedKeys(entries)
	for i := 0; i < len(keys); {
		start := keys[i]
		j := i + 1
		for j < len(keys) && keys[j] == keys[j-1]+1 {
			j++
		}
		w.printf("%d %d\n", start, j-i)
		for _, number := range keys[i:j] {
			e := entries[number]
			if e.kind == model.EntryFree {
				w.printf("%010d %05d f \n", e.offset, e.gen)
			} else {
				w.printf("%010d %05d n \n", e.offset, e.gen)
			}
		}
		i = j
	}

	w.writeTrailerDict(maxNumber)
	w.printf("startxref\n%d\n%%%%EOF", offset)
}

func (w *writer) writeTrailerDict(maxNumber uint32) {
	dict := model.NewDict()
	dict.Set("Size", model.Integer(maxNumber+1))
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
	// No /Prev: a flattening save always writes a single xref section.
	w.bytes([]byte("trailer\n"))
	w.bytes(dict.Write(nil))
	w.bytes([]byte("\n"))
}
