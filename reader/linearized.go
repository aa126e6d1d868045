package reader

import "github.com/harrowgate/pdf/model"

// detectLinearized sets Document.Linearized when any loaded object is a
// linearization parameter dictionary (7.8.2): a dict carrying a
// /Linearized entry, conventionally object 1. Every object is scanned, in
// ObjectNumbers order; the entry's value and the object's position are not
// checked.
func (ctx *context) detectLinearized() {
	for _, number := range ctx.doc.ObjectNumbers() {
		obj, ok := ctx.doc.Get(model.ObjectId{Number: number})
		if !ok {
			continue
		}
		dict, ok := obj.(model.Dict)
		if !ok {
			continue
		}
		if _, has := dict.Get("Linearized"); has {
			ctx.doc.Linearized = true
			return
		}
	}
}
