// Package compact implements the four phases that only run when the
// orchestrator decides to compact: encoding forwarding addresses,
// updating every pointer to its forwarded target, sliding objects to
// their new homes, and rebuilding remembered sets.
package compact

import (
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/mapword"
	"github.com/markcompact/mcgc/tracer"
)

// Encoder computes where every live object would land if its space
// were compacted and writes that destination into the object: the
// three-field bit-packed encoding for paged-space objects, the Forward
// side record for new-space ones.
type Encoder struct {
	Heap         *heap.Heap
	PageCapacity int
	Verbose      bool
	Tracer       tracer.Tracer
}

// EncodeAll runs the full forwarding-address encoder in the one order
// the design permits: old space, then code space, then new space,
// then map space. New-space promotion continues bumping into
// old/code's destination chain, so their mc_relocation_top can only
// be finalized once promotion has finished; map space is encoded
// dead last because every other space needs its objects' maps --
// still living at their original address -- to read their own size
// and location.
func (e *Encoder) EncodeAll() {
	e.encodeSelf(e.Heap.Old)
	e.encodeSelf(e.Heap.Code)
	e.EncodeNewSpace()
	e.Heap.Old.MCAdjustRelocationEnd()
	e.Heap.Code.MCAdjustRelocationEnd()
	e.encodeSelf(e.Heap.Map)
	e.Heap.Map.MCAdjustRelocationEnd()
}

func (e *Encoder) encodeSelf(sp *heap.PagedSpace) {
	for _, page := range sp.Pages {
		e.encodePage(sp, page)
	}
}

func (e *Encoder) encodePage(sp *heap.PagedSpace, page *heap.Page) {
	liveOffset := 0
	prevEnd := 0
	gapStart := -1

	flushGap := func(end int) {
		if gapStart < 0 || end <= gapStart {
			gapStart = -1
			return
		}
		size := end - gapStart
		page.FreeRuns = append(page.FreeRuns, heap.NewFreeRun(gapStart, size, size > heap.WordSize))
		gapStart = -1
	}

	for _, id := range page.Objects {
		obj := e.Heap.Objects[id]
		if gapStart < 0 && obj.Addr.Offset > prevEnd {
			gapStart = prevEnd
		}

		if !obj.IsMarked() {
			if gapStart < 0 {
				gapStart = obj.Addr.Offset
			}
			prevEnd = obj.Addr.Offset + obj.Size
			continue
		}

		flushGap(obj.Addr.Offset)

		mapObj := e.Heap.Get(obj.MapID())
		destPage, destOff := sp.MCAllocateRaw(obj.Size, e.PageCapacity)
		if !page.HasFirstForwarded {
			sp.MCWriteRelocationInfoToPage(page, heap.Address{
				Space: sp.ID, Page: destPage.Index, Offset: destOff,
			})
		}

		obj.Word = mapword.EncodeForwarding(mapObj.Addr.Page, mapObj.Addr.Offset, liveOffset)
		obj.Compacted = true

		liveOffset += obj.Size
		prevEnd = obj.Addr.Offset + obj.Size
	}

	flushGap(page.Capacity)
}

// EncodeNewSpace assigns every live new-space object a destination:
// promoted objects continue bumping into old/code space's destination
// page chain (already primed by encodeSelf for old and code space),
// objects that stay young bump into the inactive semi-space's arena.
//
// A promoted object is only meant to fall back to the inactive
// semi-space when its target paged space has no room left, but this
// model's PagedSpace.MCAllocateRaw always grows a fresh destination
// page on demand rather than failing, so that fallback path never
// triggers here -- the default case below is only reached when
// TargetSpace itself names heap.NewSpace, a policy decision rather
// than a capacity failure. A capacity-bounded PagedSpace would make
// the true fallback reachable, but would also have to cap every other
// MCAllocateRaw caller in this package, which is out of scope for a
// stand-in allocator.
func (e *Encoder) EncodeNewSpace() {
	for _, id := range e.Heap.New.FromObjects {
		obj := e.Heap.Objects[id]
		if !obj.IsMarked() {
			continue
		}

		target := heap.NewSpace
		if e.Heap.TargetSpace != nil {
			target = e.Heap.TargetSpace(obj)
		}

		switch target {
		case heap.OldSpace, heap.CodeSpace:
			sp := e.Heap.Old
			if target == heap.CodeSpace {
				sp = e.Heap.Code
			}
			destPage, destOff := sp.MCAllocateRaw(obj.Size, e.PageCapacity)
			obj.Forward = heap.ForwardRef{
				Set:     true,
				Promote: true,
				Plain:   heap.Address{Space: target, Page: destPage.Index, Offset: destOff},
			}
		default:
			off := e.Heap.New.AllocateInTo(obj.Size)
			obj.Forward = heap.ForwardRef{
				Set:   true,
				Plain: heap.Address{Space: heap.NewSpace, Page: -1, Offset: off},
			}
		}
	}
}
