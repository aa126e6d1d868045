package reader

import (
	"bytes"
	"fmt"

	"github.com/harrowgate/pdf/model"
	"github.com/harrowgate/pdf/parse"
	tok "github.com/harrowgate/pdf/tokenizer"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// readXrefChain walks the chain of xref sections (classic or stream form)
// starting at offset, following /Prev until it reaches zero. A /Prev that
// loops back on an already-visited offset is reported as an error.
func (ctx *context) readXrefChain(offset int64) error {
	visited := map[int64]bool{}
	ssCount := 0

	for offset != 0 {
		if visited[offset] {
			return fmt.Errorf("reader: xref chain loops at offset %d", offset)
		}
		visited[offset] = true

		if len(visited) > ctx.opts.maxObjects() {
			return fmt.Errorf("reader: xref chain too long")
		}

		if offset < 0 || offset >= int64(len(ctx.buf)) {
			return fmt.Errorf("reader: xref offset %d out of range", offset)
		}

		tk := tok.NewTokenizer(ctx.buf[offset:])
		start, err := tk.PeekToken()
		if err != nil {
			return fmt.Errorf("reader: invalid xref section at %d: %w", offset, err)
		}

		if start == (tok.Token{Kind: tok.Other, Value: "xref"}) {
			_, _ = tk.NextToken()
			offset, ssCount, err = ctx.parseXrefSection(tk, offset, ssCount)
		} else {
			offset, err = ctx.parseXrefStream(offset)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseXrefSection parses one classic "xref ... trailer <<...>>" section and
// returns the /Prev offset, if any.
func (ctx *context) parseXrefSection(tk *tok.Tokenizer, sectionOffset int64, ssCount int) (int64, int, error) {
	for {
		if err := ctx.parseXrefSubsection(tk); err != nil {
			return 0, ssCount, err
		}
		ssCount++

		next, err := tk.PeekToken()
		if err != nil {
			return 0, ssCount, err
		}
		if next == (tok.Token{Kind: tok.Other, Value: "trailer"}) {
			break
		}
	}
	_, _ = tk.NextToken() // consume "trailer"

	pos := sectionOffset + int64(tk.CurrentPosition())
	rest := ctx.buf[pos:]
	obj, err := parse.ParseObject(rest)
	if err != nil {
		return 0, ssCount, err
	}
	dict, ok := obj.(model.Dict)
	if !ok {
		return 0, ssCount, fmt.Errorf("reader: trailer is not a dictionary, got %T", obj)
	}

	return ctx.mergeTrailer(dict)
}

func (ctx *context) parseXrefSubsection(tk *tok.Tokenizer) error {
	startTok, err := tk.NextToken()
	if err != nil {
		return err
	}
	start, err := startTok.Int()
	if err != nil {
		return fmt.Errorf("reader: invalid xref subsection start: %w", err)
	}

	countTok, err := tk.NextToken()
	if err != nil {
		return err
	}
	count, err := countTok.Int()
	if err != nil {
		return fmt.Errorf("reader: invalid xref subsection count: %w", err)
	}

	for i := 0; i < count; i++ {
		offsetTok, err := tk.NextToken()
		if err != nil {
			return err
		}
		offset, err := offsetTok.Int()
		if err != nil {
			return fmt.Errorf("reader: invalid xref entry offset: %w", err)
		}

		genTok, err := tk.NextToken()
		if err != nil {
			return err
		}
		gen, err := genTok.Int()
		if err != nil {
			return fmt.Errorf("reader: invalid xref entry generation: %w", err)
		}

		kindTok, err := tk.NextToken()
		if err != nil {
			return err
		}
		if kindTok.Kind != tok.Other || (kindTok.Value != "n" && kindTok.Value != "f") {
			return fmt.Errorf("reader: corrupt xref entry, expected 'n' or 'f'")
		}

		objNumber := uint32(start + i)

		// Since we walk the chain most-recent-first, an already-populated
		// entry for this object number wins; older definitions are shadowed.
		if _, has := ctx.doc.Entry(objNumber); has {
			continue
		}
		if kindTok.Value == "f" {
			ctx.doc.SetEntry(objNumber, model.XrefEntry{Kind: model.EntryFree})
			continue
		}
		if offset == 0 {
			continue
		}
		ctx.doc.SetEntry(objNumber, model.XrefEntry{Kind: model.EntryInUse, Offset: offset, Generation: uint16(gen)})
	}
	return nil
}

// mergeTrailer folds a trailer dictionary's fields into the document's
// Trailer, without overwriting fields an earlier (more recent) trailer in
// the chain already set - 7.5.6 incremental updates only add entries.
func (ctx *context) mergeTrailer(dict model.Dict) (int64, int, error) {
	t := &ctx.doc.Trailer

	if t.Size == 0 {
		if size, ok := dict.Get("Size"); ok {
			if i, ok := size.(model.Integer); ok {
				t.Size = int(i)
			}
		}
	}

	if t.Root == (model.ObjectId{}) {
		if root, ok := dict.Get("Root"); ok {
			if ref, ok := root.(model.Reference); ok {
				t.Root = model.ObjectId(ref)
			}
		}
	}

	if !t.HasInfo {
		if info, ok := dict.Get("Info"); ok {
			if ref, ok := info.(model.Reference); ok {
				t.Info, t.HasInfo = model.ObjectId(ref), true
			}
		}
	}

	if !t.HasEnc {
		if enc, ok := dict.Get("Encrypt"); ok {
			if ref, ok := enc.(model.Reference); ok {
				t.Encrypt, t.HasEnc = model.ObjectId(ref), true
			}
		}
	}

	if !t.HasID {
		if id, ok := dict.Get("ID"); ok {
			if arr, ok := id.(model.Array); ok && len(arr) == 2 {
				var ids [2][]byte
				ok := true
				for i, v := range arr {
					s, isStr := v.(model.String)
					if !isStr {
						ok = false
						break
					}
					ids[i] = s.Value
				}
				if ok {
					t.ID, t.HasID = ids, true
				}
			}
		}
	}

	var prev int64
	if p, ok := dict.Get("Prev"); ok {
		if i, ok := p.(model.Integer); ok {
			prev = int64(i)
		}
	}

	// Hybrid-reference files (7.5.8.4): a classic trailer may point at an
	// xref stream via /XRefStm carrying entries for objects hidden from
	// readers that don't understand compressed xref streams. Those entries
	// take priority over the classic section's own (older) view.
	if xrs, ok := dict.Get("XRefStm"); ok {
		if i, ok := xrs.(model.Integer); ok {
			if _, err := ctx.parseXrefStream(int64(i)); err != nil {
				return 0, 0, err
			}
		}
	}

	return prev, 0, nil
}

// parseXrefStream parses a cross-reference stream object (/Type /XRef) at
// offset and returns the /Prev offset, if any. Unlike classic sections, the
// stream itself is also registered as a regular in-use object and installed
// as already resolved (xref streams are self-describing and never encrypted).
func (ctx *context) parseXrefStream(offset int64) (int64, error) {
	num, gen, obj, err := ctx.parseIndirectAt(offset)
	if err != nil {
		return 0, fmt.Errorf("reader: invalid xref stream at %d: %w", offset, err)
	}
	stream, ok := obj.(model.Stream)
	if !ok {
		return 0, fmt.Errorf("reader: expected a stream for xref at %d, got %T", offset, obj)
	}

	xd, err := parseXrefStreamDict(stream.Dict)
	if err != nil {
		return 0, err
	}

	decoded, err := stream.Decode()
	if err != nil {
		return 0, fmt.Errorf("reader: decoding xref stream: %w", err)
	}

	if err := ctx.extractXrefStreamEntries(decoded, xd); err != nil {
		return 0, err
	}

	if _, has := ctx.doc.Entry(uint32(num)); !has {
		ctx.doc.SetEntry(uint32(num), model.XrefEntry{Kind: model.EntryInUse, Offset: offset, Generation: uint16(gen)})
	}
	// The stream is already fully parsed and decoded here; installing it now
	// marks the entry resolved so resolveAllObjects doesn't re-parse it as an
	// ordinary object and carry a duplicate /Type /XRef stream through Save.
	ctx.doc.SetObject(uint32(num), stream)

	prev, _, err := ctx.mergeTrailer(stream.Dict)
	if err != nil {
		return 0, err
	}
	if xd.prev != 0 {
		prev = xd.prev
	}
	return prev, nil
}

type xrefStreamDict struct {
	index [][2]int
	w     [3]int
	size  int
	prev  int64
}

func (x xrefStreamDict) count() int {
	total := 0
	for _, sub := range x.index {
		total += sub[1]
	}
	return total
}

func (x xrefStreamDict) entrySize() int {
	return x.w[0] + x.w[1] + x.w[2]
}

func parseXrefStreamDict(dict model.Dict) (xrefStreamDict, error) {
	var out xrefStreamDict

	if p, ok := dict.Get("Prev"); ok {
		if i, ok := p.(model.Integer); ok {
			out.prev = int64(i)
		}
	}

	size, ok := dict.Get("Size")
	sizeInt, isInt := size.(model.Integer)
	if !ok || !isInt {
		return out, fmt.Errorf("reader: xref stream missing /Size")
	}
	out.size = int(sizeInt)

	if idx, ok := dict.Get("Index"); ok {
		arr, ok := idx.(model.Array)
		if !ok || len(arr)%2 != 0 {
			return out, fmt.Errorf("reader: corrupt /Index in xref stream")
		}
		for i := 0; i < len(arr); i += 2 {
			start, ok1 := arr[i].(model.Integer)
			count, ok2 := arr[i+1].(model.Integer)
			if !ok1 || !ok2 {
				return out, fmt.Errorf("reader: corrupt /Index in xref stream")
			}
			out.index = append(out.index, [2]int{int(start), int(count)})
		}
	} else {
		out.index = [][2]int{{0, out.size}}
	}

	w, ok := dict.Get("W")
	arr, isArr := w.(model.Array)
	if !ok || !isArr || len(arr) < 3 {
		return out, fmt.Errorf("reader: xref stream missing /W")
	}
	for i := 0; i < 3; i++ {
		n, ok := arr[i].(model.Integer)
		if !ok || n < 0 {
			return out, fmt.Errorf("reader: corrupt /W in xref stream")
		}
		out.w[i] = int(n)
	}

	return out, nil
}

func bufToInt64(buf []byte) (i int64) {
	for _, b := range buf {
		i = i<<8 | int64(b)
	}
	return i
}

func (ctx *context) extractXrefStreamEntries(buf []byte, xd xrefStreamDict) error {
	entrySize, count := xd.entrySize(), xd.count()
	if entrySize == 0 {
		return fmt.Errorf("reader: xref stream entry width is zero")
	}
	need := count * entrySize
	if len(buf) < need {
		return fmt.Errorf("reader: xref stream too short (%d < %d)", len(buf), need)
	}
	buf = buf[:need]

	w0, w1, w2 := xd.w[0], xd.w[1], xd.w[2]

	j := 0
	for _, sub := range xd.index {
		first, n := sub[0], sub[1]
		for i := 0; i < n; i++ {
			objNumber := uint32(first + i)
			base := j * entrySize
			j++

			kind := int64(1)
			if w0 > 0 {
				kind = bufToInt64(buf[base : base+w0])
			}
			f2 := bufToInt64(buf[base+w0 : base+w0+w1])
			f3 := bufToInt64(buf[base+w0+w1 : base+w0+w1+w2])

			if _, has := ctx.doc.Entry(objNumber); has {
				continue
			}

			switch kind {
			case 0:
				ctx.doc.SetEntry(objNumber, model.XrefEntry{Kind: model.EntryFree, Offset: f2, Generation: uint16(f3)})
			case 1:
				ctx.doc.SetEntry(objNumber, model.XrefEntry{Kind: model.EntryInUse, Offset: f2, Generation: uint16(f3)})
			case 2:
				ctx.doc.SetEntry(objNumber, model.XrefEntry{Kind: model.EntryCompressed, StreamNumber: int(f2), StreamIndex: int(f3)})
			}
		}
	}
	return nil
}

// parseIndirectAt parses a full "N G obj ... endobj" (or "... stream
// ... endstream endobj") definition starting at offset.
func (ctx *context) parseIndirectAt(offset int64) (num, gen int, obj model.Object, err error) {
	if offset < 0 || offset >= int64(len(ctx.buf)) {
		return 0, 0, nil, fmt.Errorf("reader: offset %d out of range", offset)
	}
	rest := ctx.buf[offset:]

	tk := tok.NewTokenizer(rest)
	numTok, err := tk.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	num, err = numTok.Int()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("reader: expected object number: %w", err)
	}
	genTok, err := tk.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	gen, err = genTok.Int()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("reader: expected generation number: %w", err)
	}
	objTok, err := tk.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if objTok != (tok.Token{Kind: tok.Other, Value: "obj"}) {
		return 0, 0, nil, fmt.Errorf(`reader: expected "obj" keyword`)
	}

	bodyPos := tk.CurrentPosition()
	p := parse.NewParser(rest[bodyPos:])
	body, err := p.ParseObject()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("reader: parsing object %d %d: %w", num, gen, err)
	}

	dict, isDict := body.(model.Dict)
	if !isDict {
		return num, gen, body, nil
	}

	// Peek for a "stream" keyword right after the dictionary; otherwise
	// this was a plain dictionary object.
	streamTk := tok.NewTokenizer(rest[bodyPos:])
	for depth := 0; ; {
		t, terr := streamTk.NextToken()
		if terr != nil || t.Kind == tok.EOF {
			return num, gen, dict, nil
		}
		if t.Kind == tok.StartDic {
			depth++
		} else if t.Kind == tok.EndDic {
			if depth--; depth == 0 {
				break
			}
		}
	}
	next, perr := streamTk.PeekToken()
	if perr != nil || next != (tok.Token{Kind: tok.Other, Value: "stream"}) {
		return num, gen, dict, nil
	}
	_, _ = streamTk.NextToken()
	contentOffset := offset + int64(bodyPos) + int64(streamTk.CurrentPosition())
	if bytes.HasPrefix(ctx.buf[contentOffset:], []byte("\r\n")) {
		contentOffset += 2
	} else if bytes.HasPrefix(ctx.buf[contentOffset:], []byte("\n")) {
		contentOffset++
	}

	raw, err := ctx.readStreamContent(dict, contentOffset)
	if err != nil {
		return 0, 0, nil, err
	}

	return num, gen, model.Stream{Dict: dict, Raw: raw, AllowCompression: true}, nil
}

// readStreamContent extracts the raw (still filter-encoded) bytes of a
// stream whose dictionary has already been parsed, starting at
// contentOffset. The /Length entry is trusted first; when it's missing,
// wrong, or points past EOF, it falls back to scanning for "endstream"
// (logging the disagreement when a /Length was present), matching how
// real-world malformed producers are tolerated.
func (ctx *context) readStreamContent(dict model.Dict, contentOffset int64) ([]byte, error) {
	length, hasLength := ctx.resolveLength(dict)

	if hasLength && contentOffset+int64(length) <= int64(len(ctx.buf)) {
		candidate := ctx.buf[contentOffset : contentOffset+int64(length)]
		if looksLikeStreamEnd(ctx.buf, contentOffset+int64(length)) {
			return candidate, nil
		}
	}
	if hasLength {
		log.Read.Printf("readStreamContent: /Length %d at offset %d does not end at endstream, trusting the marker\n", length, contentOffset)
	}

	idx := bytes.Index(ctx.buf[contentOffset:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("reader: stream at %d has no endstream marker", contentOffset)
	}
	raw := ctx.buf[contentOffset : contentOffset+int64(idx)]
	raw = bytes.TrimRight(raw, "\r\n")
	return raw, nil
}

func looksLikeStreamEnd(buf []byte, pos int64) bool {
	rest := bytes.TrimLeft(buf[pos:], " \t\r\n")
	return bytes.HasPrefix(rest, []byte("endstream"))
}

// resolveLength reads /Length, following a single level of indirection if
// it is a reference into an already-known in-use object (never a
// compressed one, since that would require the object stream it lives in
// to already be decoded).
func (ctx *context) resolveLength(dict model.Dict) (int, bool) {
	v, ok := dict.Get("Length")
	if !ok {
		return 0, false
	}
	if i, ok := v.(model.Integer); ok {
		return int(i), true
	}
	ref, ok := v.(model.Reference)
	if !ok {
		return 0, false
	}
	entry, ok := ctx.doc.Entry(ref.Number)
	if !ok || entry.Kind != model.EntryInUse {
		return 0, false
	}
	_, _, obj, err := ctx.parseIndirectAt(entry.Offset)
	if err != nil {
		return 0, false
	}
	if i, ok := obj.(model.Integer); ok {
		return int(i), true
	}
	return 0, false
}
