package reader

import (
	"fmt"

	"github.com/harrowgate/pdf/model"
)

// installEncryption reads the trailer's /Encrypt entry (if any), builds the
// corresponding encryption session and authenticates it against
// ctx.opts.Password, then installs it on the document. An unencrypted
// document is left untouched. A present-but-failing authentication is not
// fatal here - Document.IsEncrypted/Authenticate let a caller retry with a
// different password, matching how a real viewer prompts interactively.
func (ctx *context) installEncryption() error {
	if !ctx.doc.Trailer.HasEnc {
		return nil
	}

	entry, ok := ctx.doc.Entry(ctx.doc.Trailer.Encrypt.Number)
	if !ok || entry.Kind != model.EntryInUse {
		return fmt.Errorf("reader: /Encrypt points at an unknown object")
	}
	_, _, obj, err := ctx.parseIndirectAt(entry.Offset)
	if err != nil {
		return fmt.Errorf("reader: reading /Encrypt dictionary: %w", err)
	}
	dict, ok := obj.(model.Dict)
	if !ok {
		return fmt.Errorf("reader: /Encrypt is not a dictionary (%T)", obj)
	}

	encDict, err := model.EncryptDictFromDict(dict)
	if err != nil {
		return fmt.Errorf("reader: parsing /Encrypt dictionary: %w", err)
	}

	var id0 []byte
	if ctx.doc.Trailer.HasID {
		id0 = ctx.doc.Trailer.ID[0]
	}

	state := model.NewEncryptionStateFromDict(encDict, id0)
	ctx.doc.SetEncryption(state)
	ctx.doc.Authenticate(ctx.opts.Password)

	// The /Encrypt dictionary object itself is cached already-resolved so
	// resolveAllObjects doesn't try to decrypt its own O/U/OE/UE strings a
	// second time (they are never encrypted, 7.6.1).
	ctx.doc.SetObject(ctx.doc.Trailer.Encrypt.Number, dict)

	return nil
}
