package reader

import (
	"github.com/harrowgate/pdf/model"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// resolveAllObjects parses every tracked entry's object body (from its file
// offset, or by unpacking its containing object stream) and installs it on
// the Document, decrypting it along the way if the document is encrypted.
// Doing this eagerly, rather than only on first Dereference, matches how
// the cross-reference table is actually used in practice: nearly every
// object in a typical PDF is reachable from the page tree or resources and
// gets visited anyway, and eager resolution lets Load surface most corrupt
// objects up front instead of at an arbitrary later call. A single object
// that fails to resolve (a malformed body, a nested /Type /ObjStm, a
// reference to an object stream that itself doesn't decode) doesn't abort
// the whole Load per 7.5.4's tolerance for a corrupt xref entry: it's
// logged and the entry is treated as free instead.
func (ctx *context) resolveAllObjects() {
	for _, number := range ctx.doc.ObjectNumbers() {
		entry, ok := ctx.doc.Entry(number)
		if !ok || entry.Kind == model.EntryFree {
			continue
		}
		if _, ok := ctx.doc.Get(model.ObjectId{Number: number}); ok {
			continue // already resolved: an xref stream or object-stream container installed by the xref walk
		}

		obj, isCompressed, err := ctx.resolveEntry(number, entry)
		if err != nil {
			log.Read.Printf("resolveAllObjects: object %d failed to resolve (%v), treating as free\n", number, err)
			ctx.doc.SetEntry(number, model.XrefEntry{Kind: model.EntryFree})
			continue
		}

		if ctx.doc.IsEncrypted() && !isCompressed && !ctx.isEncryptDictObject(number) {
			obj, err = ctx.doc.DecryptObject(model.ObjectId{Number: number}, obj)
			if err != nil {
				log.Read.Printf("resolveAllObjects: object %d failed to decrypt (%v), treating as free\n", number, err)
				ctx.doc.SetEntry(number, model.XrefEntry{Kind: model.EntryFree})
				continue
			}
		}

		ctx.doc.SetObject(number, obj)
	}
}

func (ctx *context) resolveEntry(number uint32, entry *model.XrefEntry) (model.Object, bool, error) {
	switch entry.Kind {
	case model.EntryInUse:
		_, _, obj, err := ctx.parseIndirectAt(entry.Offset)
		return obj, false, err
	case model.EntryCompressed:
		obj, err := ctx.getFromObjectStream(entry.StreamNumber, entry.StreamIndex)
		return obj, true, err
	default:
		return model.Null{}, false, nil
	}
}

func (ctx *context) isEncryptDictObject(number uint32) bool {
	return ctx.doc.Trailer.HasEnc && ctx.doc.Trailer.Encrypt.Number == number
}
