package compact

import (
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/visitor"
)

// RememberedSetRebuilder recomputes every old/code/map page's
// remembered set from scratch, per 4.9. It runs after relocation has
// committed, so every pointer it sees already names an object's final
// address.
type RememberedSetRebuilder struct {
	Heap *heap.Heap

	page   *heap.Page // page currently being scanned
	offset int        // byte offset of the object currently being scanned
}

// RebuildAll walks old, code and map space -- in no particular order,
// unlike encoding and relocation, since rebuilding touches no shared
// allocation state -- and records every pointer into new space on its
// owning page.
func (r *RememberedSetRebuilder) RebuildAll() {
	for _, sp := range []*heap.PagedSpace{r.Heap.Old, r.Heap.Code, r.Heap.Map} {
		for _, page := range sp.Pages {
			page.RememberedSet = nil
			r.page = page
			for _, id := range page.Objects {
				obj := r.Heap.Objects[id]
				r.offset = obj.Addr.Offset
				visitor.IterateBody(r, obj)
			}
		}
	}
}

func (r *RememberedSetRebuilder) remember(slot *heap.Slot) {
	if slot == nil || slot.Ref == (heap.Address{}) {
		return
	}
	if slot.Ref.Space == heap.NewSpace {
		r.page.Remember(r.offset)
	}
}

func (r *RememberedSetRebuilder) VisitPointer(owner *heap.Object, slot *heap.Slot) {
	r.remember(slot)
}

func (r *RememberedSetRebuilder) VisitPointerRange(owner *heap.Object, slots []*heap.Slot) {
	for _, s := range slots {
		r.remember(s)
	}
}

func (r *RememberedSetRebuilder) VisitCodeTarget(owner *heap.Object, target *heap.ICTarget) {
	if target.IsAddress || target.Slot == nil {
		return
	}
	r.remember(target.Slot)
}

func (r *RememberedSetRebuilder) VisitDebugTarget(owner *heap.Object, slot *heap.Slot) {
	r.remember(slot)
}

func (r *RememberedSetRebuilder) BeginCode(owner *heap.Object) {}
func (r *RememberedSetRebuilder) EndCode(owner *heap.Object)   {}
