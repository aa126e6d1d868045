package model

import "github.com/pdfcpu/pdfcpu/pkg/log"

// GetPages walks the Catalog's /Pages tree in declaration order and returns
// each leaf Page's id keyed by its 1-based page number. A /Kids entry that
// itself carries /Type /Pages is a subtree and is walked recursively; any
// other dictionary reached through a Reference is treated as a leaf, and a
// /Kids entry that is not a Reference to a dictionary is skipped. The walk tolerates the same Page
// object appearing twice under /Kids (it is reported at both page numbers)
// and a /Kids cycle (a node revisited during its own walk is skipped rather
// than recursed into again, so the walk always terminates).
func (d *Document) GetPages() map[int]ObjectId {
	pages := map[int]ObjectId{}
	id, _, idOK, found := d.DereferenceDictID(d.catalog(), "Pages")
	if !found || !idOK {
		return pages
	}

	n := 0
	visiting := map[uint32]bool{}
	d.walkPages(id, visiting, &n, pages)
	return pages
}

func (d *Document) catalog() Dict {
	obj, ok := d.Get(d.Trailer.Root)
	if !ok {
		return NewDict()
	}
	dict, ok := obj.(Dict)
	if !ok {
		return NewDict()
	}
	return dict
}

// walkPages recurses into id, which is expected to be a /Type /Pages node
// (or, tolerantly, a bare leaf reached directly from /Kids). n is the
// running 1-based page counter, incremented for every leaf found.
func (d *Document) walkPages(id ObjectId, visiting map[uint32]bool, n *int, pages map[int]ObjectId) {
	if visiting[id.Number] || len(visiting) > int(d.maxObjNumber)+1 {
		log.Read.Printf("GetPages: /Kids cycle detected at object %d, stopping\n", id.Number)
		return
	}
	visiting[id.Number] = true
	defer delete(visiting, id.Number)

	obj, ok := d.Get(id)
	if !ok {
		return
	}
	dict, ok := obj.(Dict)
	if !ok {
		return
	}

	kidsObj, ok := d.DereferenceDict(dict, "Kids")
	if !ok {
		// No /Kids: this is a leaf Page.
		*n++
		pages[*n] = id
		return
	}
	kids, ok := kidsObj.(Array)
	if !ok {
		*n++
		pages[*n] = id
		return
	}

	for _, kid := range kids {
		kidID, kidObj, idOK := d.DereferenceID(kid)
		if !idOK {
			continue
		}
		kidDict, ok := kidObj.(Dict)
		if !ok {
			continue
		}
		if t, ok := kidDict.Get("Type"); ok {
			if name, ok := t.(Name); ok && name == "Pages" {
				d.walkPages(kidID, visiting, n, pages)
				continue
			}
		}
		*n++
		pages[*n] = kidID
	}
}

// PageCount returns len(GetPages()), a convenience for callers that only
// need the total rather than the id for each page number.
func (d *Document) PageCount() int {
	return len(d.GetPages())
}
