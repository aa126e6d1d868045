// Package reader assembles a model.Document from the bytes of a PDF file:
// locating the cross-reference table (classic or stream form), resolving
// indirect objects (plain or packed in an object stream), and
// authenticating+installing the encryption session when the file is
// encrypted.
package reader

import (
	"bytes"
	"fmt"

	"github.com/harrowgate/pdf/model"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// Options configures Load.
type Options struct {
	// Password tries to authenticate an encrypted document. Ignored for
	// unencrypted documents.
	Password string

	// MaxObjects bounds how many cross-reference sections Load follows
	// along the /Prev chain before giving up. 0 means the default of
	// 10,000,000. It does not limit the number of objects, the trailer's
	// /Size, or the recovery scan.
	MaxObjects int
}

func (o Options) maxObjects() int {
	if o.MaxObjects > 0 {
		return o.MaxObjects
	}
	return 10_000_000
}

// context carries the full file buffer and the document being assembled
// through the read pipeline.
type context struct {
	buf        []byte
	opts       Options
	doc        *model.Document
	objStreams objStreamCache
}

// Load parses buf into a Document. It tolerates a prefix before "%PDF-",
// a missing or corrupt startxref by falling back to recover, and malformed
// xref subsections within the tolerance 7.5.4 allows. Every tracked object
// is parsed (and decrypted, if applicable) up front rather than lazily on
// first Dereference; an individual object that fails to parse is logged
// and treated as free rather than aborting the whole Load.
func Load(buf []byte, opts Options) (*model.Document, error) {
	ctx := &context{buf: buf, opts: opts, doc: model.NewDocument()}

	if err := ctx.readHeader(); err != nil {
		return nil, err
	}

	start, err := ctx.findStartXref()
	if err != nil {
		log.Read.Printf("Load: startxref not found or invalid (%v), falling back to Recover\n", err)
		if rerr := ctx.recover(); rerr != nil {
			return nil, rerr
		}
	} else if err := ctx.readXrefChain(start); err != nil || len(ctx.doc.ObjectNumbers()) == 0 {
		log.Read.Printf("Load: xref chain unusable (%v), falling back to Recover\n", err)
		if rerr := ctx.recover(); rerr != nil {
			return nil, rerr
		}
	}

	if err := ctx.installEncryption(); err != nil {
		return nil, err
	}

	ctx.resolveAllObjects()

	ctx.detectLinearized()

	return ctx.doc, nil
}

// readHeader tolerates a prefix before "%PDF-" (7.5.2 requires the header
// at byte 0, but real files sometimes carry a leading comment or BOM) by
// searching for the marker instead of assuming it is there.
func (ctx *context) readHeader() error {
	idx := bytes.Index(ctx.buf, []byte("%PDF-"))
	if idx < 0 {
		return &model.Error{Kind: model.KindParse, Offset: 0, Reason: "missing %PDF- header"}
	}
	end := idx + len("%PDF-")
	verEnd := end
	for verEnd < len(ctx.buf) && ctx.buf[verEnd] != '\r' && ctx.buf[verEnd] != '\n' {
		verEnd++
	}
	ctx.doc.Version = string(bytes.TrimSpace(ctx.buf[end:verEnd]))
	return nil
}

// findStartXref locates the last "startxref" keyword and parses the offset
// that follows it, validating that it falls within the buffer.
func (ctx *context) findStartXref() (int64, error) {
	idx := bytes.LastIndex(ctx.buf, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("reader: no startxref keyword")
	}
	rest := ctx.buf[idx+len("startxref"):]
	rest = bytes.TrimLeft(rest, " \t\r\n")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("reader: malformed startxref")
	}
	var off int64
	for _, c := range rest[:end] {
		off = off*10 + int64(c-'0')
	}
	if off < 0 || off >= int64(len(ctx.buf)) {
		return 0, fmt.Errorf("reader: startxref %d past EOF (size %d)", off, len(ctx.buf))
	}
	return off, nil
}

// ParseBytes is the package entry point mirroring the teacher's
// reader.ParsePDFFile, taking the already-read file content directly.
func ParseBytes(buf []byte, opts Options) (*model.Document, error) {
	return Load(buf, opts)
}
