package compact

import (
	"fmt"

	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/tracer"
)

// Relocator slides every live object to the forwarding address
// computed during encoding/updating. Inter-space order matters: map
// space first, because every other space's relocated objects need to
// look up their (already-updated) map pointer by its new location,
// then old, then code, then new.
type Relocator struct {
	Heap    *heap.Heap
	Tracer  tracer.Tracer
	Verbose bool
}

// RelocateAll runs every space in the required order and finishes the
// cross-space bookkeeping: flipping large-object IC targets back to
// address form and flipping new space's semi-spaces.
func (r *Relocator) RelocateAll() {
	r.relocatePaged(r.Heap.Map)
	r.relocatePaged(r.Heap.Old)
	r.relocatePaged(r.Heap.Code)
	r.relocateNewSpace()
	r.restoreLargeObjectICTargets()
}

func (r *Relocator) relocatePaged(sp *heap.PagedSpace) {
	for _, page := range sp.Pages {
		for _, id := range page.Objects {
			obj := r.Heap.Objects[id]
			if !isLive(obj) {
				continue
			}
			r.relocateOne(sp, obj)
		}
	}
	sp.MCCommitRelocationInfo()
}

// relocateOne restores obj's original map pointer in place -- the
// forwarding encoding is destroyed now that it has served its
// purpose -- recomputes its forwarding address, and records its new
// location both on the object and in the heap's address index so that
// objects relocated after it can resolve references into it.
func (r *Relocator) relocateOne(sp *heap.PagedSpace, obj *heap.Object) {
	oldAddr := obj.Addr
	newAddr := oldAddr

	if obj.Compacted {
		// An object relocated earlier in this pass may already have
		// been indexed at oldAddr; point the entry back at obj while
		// resolving, then restore the earlier object's entry.
		prev := r.Heap.ObjectAt(oldAddr)
		r.Heap.IndexAddress(oldAddr, obj.ID)
		newAddr = ResolveForwardingAddress(r.Heap, oldAddr)
		if prev != nil && prev != obj {
			r.Heap.IndexAddress(oldAddr, prev.ID)
		}

		mapPage, mapByteOffset, _ := obj.Word.DecodeForwarding()
		mapObj := r.Heap.ObjectAt(heap.Address{Space: heap.MapSpace, Page: mapPage, Offset: mapByteOffset})
		if mapObj == nil {
			panic("mcgc: relocator could not resolve a live object's map pointer")
		}
		obj.ClearMark(mapObj.ID)
		obj.Compacted = false
		r.Tracer.DecrementMarkedCount()
	}

	obj.Addr = newAddr
	r.Heap.IndexAddress(newAddr, obj.ID)

	destPage := sp.DestPageAt(newAddr.Page)
	if destPage == nil {
		panic("mcgc: relocator found no destination page for a live object")
	}
	destPage.Objects = append(destPage.Objects, obj.ID)

	if newAddr != oldAddr && (obj.Kind == heap.KindCode || r.Verbose) {
		r.Tracer.CodeMoveEvent(fmtAddr(oldAddr), fmtAddr(newAddr))
	}
}

// relocateNewSpace slides every surviving new-space object: promoted
// objects land in old/code space's destination chain (already
// committed by relocatePaged for their own live sets, so appending
// here continues the same page list), survivors that stayed young
// land in what was the inactive semi-space.
func (r *Relocator) relocateNewSpace() {
	var survivors []heap.ObjectID
	bytesUsed := 0

	for _, id := range r.Heap.New.FromObjects {
		obj := r.Heap.Objects[id]
		if !isLive(obj) || !obj.Forward.Set {
			continue
		}
		newAddr := obj.Forward.Plain
		obj.Addr = newAddr
		r.Heap.IndexAddress(newAddr, obj.ID)
		obj.ClearMark(obj.MapID())
		r.Tracer.DecrementMarkedCount()

		if obj.Forward.Promote {
			// Old/code space have already been relocated and committed
			// by this point, so their destination pages now live at
			// Pages[index] rather than in the (cleared) dest chain.
			destSp := r.Heap.PagedSpaceByID(newAddr.Space)
			destPage := destSp.Pages[newAddr.Page]
			destPage.Objects = append(destPage.Objects, obj.ID)
		} else {
			survivors = append(survivors, obj.ID)
			if end := newAddr.Offset + obj.Size; end > bytesUsed {
				bytesUsed = end
			}
		}
		obj.Forward = heap.ForwardRef{}
	}

	r.Heap.New.Flip(survivors, bytesUsed)
}

func (r *Relocator) restoreLargeObjectICTargets() {
	for _, id := range r.Heap.Large.Objects {
		obj := r.Heap.Objects[id]
		for _, t := range obj.ICTargets {
			t.IsAddress = true
		}
	}
}

func fmtAddr(a heap.Address) string {
	return fmt.Sprintf("%s:%d:%d", a.Space, a.Page, a.Offset)
}
