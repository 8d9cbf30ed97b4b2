package compact

import (
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/mapword"
	"github.com/markcompact/mcgc/roots"
	"github.com/markcompact/mcgc/visitor"
)

// Updater is the pointer updater (4.6): with every live paged-space
// object already carrying an encoded forwarding reference, it walks
// every stored pointer -- roots and live-heap bodies alike -- and
// rewrites it to the forwarded location of its target.
type Updater struct {
	Heap *heap.Heap
}

// UpdateRoots rewrites every strong root slot and every (now-strong)
// weak handle slot.
func (u *Updater) UpdateRoots(strong *roots.Strong, handles []*roots.WeakHandle) {
	for _, s := range strong.Slots {
		u.VisitPointer(nil, s)
	}
	for _, w := range handles {
		if w.Slot != nil && w.Slot.Ref != (heap.Address{}) {
			u.VisitPointer(nil, w.Slot)
		}
	}
}

// UpdateLiveHeap walks every live object in every space and updates
// its own map reference plus every pointer in its body.
func (u *Updater) UpdateLiveHeap() {
	for _, sp := range []*heap.PagedSpace{u.Heap.Old, u.Heap.Code, u.Heap.Map} {
		for _, page := range sp.Pages {
			for _, id := range page.Objects {
				obj := u.Heap.Objects[id]
				if !isLive(obj) {
					continue
				}
				u.UpdateObject(obj)
			}
		}
	}
	for _, id := range u.Heap.New.FromObjects {
		obj := u.Heap.Objects[id]
		if !isLive(obj) {
			continue
		}
		u.UpdateObject(obj)
	}
	for _, id := range u.Heap.Large.Objects {
		obj := u.Heap.Objects[id]
		if obj == nil {
			continue
		}
		u.UpdateObject(obj)
	}
}

// isLive reports whether obj survived marking. Compacted objects
// no longer carry a usable mark bit, so Compacted itself is proof of
// liveness (the encoder only ever touches marked objects); everything
// else is checked the ordinary way.
func isLive(obj *heap.Object) bool {
	if obj == nil {
		return false
	}
	if obj.Compacted {
		return true
	}
	return obj.IsMarked()
}

// UpdateObject rewrites obj's own map reference (for paged-space
// objects, whose forwarding encoding may now point at a map that has
// itself moved) and every pointer in its body.
func (u *Updater) UpdateObject(obj *heap.Object) {
	if obj.Compacted {
		mapPage, mapByteOffset, liveOffset := obj.Word.DecodeForwarding()
		newMapAddr := ResolveForwardingAddress(u.Heap, heap.Address{
			Space: heap.MapSpace, Page: mapPage, Offset: mapByteOffset,
		})
		obj.Word = mapword.EncodeForwarding(newMapAddr.Page, newMapAddr.Offset, liveOffset)
	}
	visitor.IterateBody(u, obj)
}

func (u *Updater) VisitPointer(owner *heap.Object, slot *heap.Slot) {
	if slot == nil || slot.Ref == (heap.Address{}) {
		return
	}
	slot.Ref = ResolveForwardingAddress(u.Heap, slot.Ref)
}

func (u *Updater) VisitPointerRange(owner *heap.Object, slots []*heap.Slot) {
	for _, s := range slots {
		u.VisitPointer(owner, s)
	}
}

// VisitCodeTarget rewrites an IC target only when it is in object
// form; address-form (raw PC) targets are skipped, and the relocator
// does not rewrite them either. In a compacting collection the marker
// has already switched every marked code object's targets to object
// form.
func (u *Updater) VisitCodeTarget(owner *heap.Object, target *heap.ICTarget) {
	if target.IsAddress || target.Slot == nil || target.Slot.Ref == (heap.Address{}) {
		return
	}
	target.Slot.Ref = ResolveForwardingAddress(u.Heap, target.Slot.Ref)
}

// VisitDebugTarget rewrites a debug target exactly like an ordinary
// body pointer; it is always in object form.
func (u *Updater) VisitDebugTarget(owner *heap.Object, slot *heap.Slot) {
	u.VisitPointer(owner, slot)
}

func (u *Updater) BeginCode(owner *heap.Object) {}
func (u *Updater) EndCode(owner *heap.Object)   {}
