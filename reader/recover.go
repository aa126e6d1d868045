package reader

import (
	"bytes"
	"fmt"

	"github.com/harrowgate/pdf/model"
	"github.com/harrowgate/pdf/parse"
	tok "github.com/harrowgate/pdf/tokenizer"
)

// recover rebuilds the cross-reference table by scanning the whole buffer
// line by line for "N G obj" markers, used when startxref is missing or the
// xref chain it points to is unusable. It clears whatever partial xref the
// normal path may have already installed, since a half-built table mixed
// with scan results could shadow newer objects with stale ones.
func (ctx *context) recover() error {
	ctx.doc.Trailer = model.Trailer{}
	fresh := model.NewDocument()
	fresh.Version = ctx.doc.Version
	ctx.doc = fresh

	offset := 0
	for offset < len(ctx.buf) {
		line, lineLen := nextLine(ctx.buf[offset:])
		if lineLen == 0 {
			break
		}

		if num, gen, ok := scanObjectDeclaration(line); ok {
			// A later definition in the file (higher offset) wins, matching how
			// an incremental update shadows the original object.
			ctx.doc.SetEntry(uint32(num), model.XrefEntry{Kind: model.EntryInUse, Offset: int64(offset), Generation: uint16(gen)})
		} else if bytes.HasPrefix(bytes.TrimSpace(line), []byte("trailer")) {
			if dict, err := ctx.scanTrailerAt(offset); err == nil {
				ctx.mergeRecoveredTrailer(dict)
			}
		}

		offset += lineLen
	}

	if ctx.doc.Trailer.Root == (model.ObjectId{}) {
		if ref, ok := ctx.findCatalogByScan(); ok {
			ctx.doc.Trailer.Root = ref
		} else {
			return fmt.Errorf("reader: recovery failed, no /Type /Catalog object found")
		}
	}
	if ctx.doc.Trailer.Size == 0 {
		max := 0
		for _, n := range ctx.doc.ObjectNumbers() {
			if int(n) > max {
				max = int(n)
			}
		}
		ctx.doc.Trailer.Size = max + 1
	}

	return nil
}

// nextLine returns the next line (without its terminator) and the number of
// bytes (including the terminator) to advance past it.
func nextLine(buf []byte) ([]byte, int) {
	if len(buf) == 0 {
		return nil, 0
	}
	idx := bytes.IndexAny(buf, "\r\n")
	if idx < 0 {
		return buf, len(buf)
	}
	end := idx + 1
	if buf[idx] == '\r' && end < len(buf) && buf[end] == '\n' {
		end++
	}
	return buf[:idx], end
}

// scanObjectDeclaration recognizes a line starting with "N G obj".
func scanObjectDeclaration(line []byte) (num, gen int, ok bool) {
	tk := tok.NewTokenizer(line)
	t1, err := tk.NextToken()
	if err != nil || t1.Kind != tok.Integer {
		return 0, 0, false
	}
	num, err = t1.Int()
	if err != nil {
		return 0, 0, false
	}
	t2, err := tk.NextToken()
	if err != nil || t2.Kind != tok.Integer {
		return 0, 0, false
	}
	gen, err = t2.Int()
	if err != nil {
		return 0, 0, false
	}
	t3, err := tk.NextToken()
	if err != nil || t3 != (tok.Token{Kind: tok.Other, Value: "obj"}) {
		return 0, 0, false
	}
	return num, gen, true
}

func (ctx *context) scanTrailerAt(offset int) (model.Dict, error) {
	_, rest, _ := bytes.Cut(ctx.buf[offset:], []byte("trailer"))
	obj, err := parse.ParseObject(rest)
	if err != nil {
		return model.Dict{}, err
	}
	dict, ok := obj.(model.Dict)
	if !ok {
		return model.Dict{}, fmt.Errorf("reader: recovered trailer is not a dictionary")
	}
	return dict, nil
}

func (ctx *context) mergeRecoveredTrailer(dict model.Dict) {
	t := &ctx.doc.Trailer
	if size, ok := dict.Get("Size"); ok {
		if i, ok := size.(model.Integer); ok && t.Size == 0 {
			t.Size = int(i)
		}
	}
	if root, ok := dict.Get("Root"); ok {
		if ref, ok := root.(model.Reference); ok && t.Root == (model.ObjectId{}) {
			t.Root = model.ObjectId(ref)
		}
	}
	if info, ok := dict.Get("Info"); ok {
		if ref, ok := info.(model.Reference); ok && !t.HasInfo {
			t.Info, t.HasInfo = model.ObjectId(ref), true
		}
	}
	if enc, ok := dict.Get("Encrypt"); ok {
		if ref, ok := enc.(model.Reference); ok && !t.HasEnc {
			t.Encrypt, t.HasEnc = model.ObjectId(ref), true
		}
	}
	if id, ok := dict.Get("ID"); ok {
		if arr, ok := id.(model.Array); ok && len(arr) == 2 && !t.HasID {
			var ids [2][]byte
			allStrings := true
			for i, v := range arr {
				s, ok := v.(model.String)
				if !ok {
					allStrings = false
					break
				}
				ids[i] = s.Value
			}
			if allStrings {
				t.ID, t.HasID = ids, true
			}
		}
	}
}

// findCatalogByScan is the last resort when no trailer (recovered or
// otherwise) names a Root: find the object whose dictionary carries
// /Type /Catalog by actually parsing every tracked in-use object, since a
// brute-force byte search for "/Type /Catalog" cannot distinguish a real
// catalog from the same bytes inside a string or stream body.
func (ctx *context) findCatalogByScan() (model.ObjectId, bool) {
	for _, number := range ctx.doc.ObjectNumbers() {
		entry, ok := ctx.doc.Entry(number)
		if !ok || entry.Kind != model.EntryInUse {
			continue
		}
		_, gen, obj, err := ctx.parseIndirectAt(entry.Offset)
		if err != nil {
			continue
		}
		dict, ok := obj.(model.Dict)
		if !ok {
			continue
		}
		if ty, ok := dict.Get("Type"); ok {
			if n, ok := ty.(model.Name); ok && n == "Catalog" {
				return model.ObjectId{Number: number, Generation: uint16(gen)}, true
			}
		}
	}
	return model.ObjectId{}, false
}
