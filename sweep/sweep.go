// Package sweep implements the branch of the collector that runs
// instead of compaction: freeing dead regions of each paged space in
// place, and the large-object sweep that runs ahead of either branch.
package sweep

import (
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/tracer"
)

// Sweeper is the non-compacting sweeper (4.8). Unlike the encoder it
// never moves an object or touches its map word beyond clearing the
// mark bit; dead runs are recorded as free regions exactly as the
// encoder records them, but nothing downstream ever decodes a
// forwarding address for this branch.
type Sweeper struct {
	Heap   *heap.Heap
	Tracer tracer.Tracer
}

// SweepSpaces sweeps old, code and map space in place, then installs
// filler maps over new space's dead regions. Order does not matter
// here: unlike compaction, no space's sweep depends on another's
// allocation state.
func (s *Sweeper) SweepSpaces(fillerMap, fillerArrayMap *heap.Object) {
	s.sweepPaged(s.Heap.Old, heap.OldSpace)
	s.sweepPaged(s.Heap.Code, heap.CodeSpace)
	s.sweepPaged(s.Heap.Map, heap.MapSpace)
	s.sweepNewSpace(fillerMap, fillerArrayMap)
}

// sweepPaged walks page's resident objects in offset order, clearing
// the mark of every survivor and collapsing every maximal dead run
// into a free-region record. Old space additionally has its
// remembered-set bits cleared across the freed range, since a freed
// region can hold no live pointer into new space.
func (s *Sweeper) sweepPaged(sp *heap.PagedSpace, id heap.SpaceID) {
	for _, page := range sp.Pages {
		page.FreeRuns = nil
		kept := page.Objects[:0:0]

		runStart := -1
		flush := func(end int) {
			if runStart < 0 || end <= runStart {
				runStart = -1
				return
			}
			size := end - runStart
			page.FreeRuns = append(page.FreeRuns, heap.NewFreeRun(runStart, size, size > heap.WordSize))
			if id == heap.OldSpace {
				clearRSetRange(page, runStart, end)
			}
			runStart = -1
		}

		for _, objID := range page.Objects {
			obj := s.Heap.Objects[objID]
			if !obj.IsMarked() {
				if runStart < 0 {
					runStart = obj.Addr.Offset
				}
				continue
			}
			flush(obj.Addr.Offset)
			obj.ClearMark(obj.MapID())
			s.Tracer.DecrementMarkedCount()
			kept = append(kept, objID)
		}
		flush(page.Capacity)
		page.Objects = kept
	}
}

// clearRSetRange drops remembered-set entries for objects that
// started within [start, end) -- the freed range can hold no survivor,
// so any entry in it is stale.
func clearRSetRange(page *heap.Page, start, end int) {
	for off := range page.RememberedSet {
		if off >= start && off < end {
			delete(page.RememberedSet, off)
		}
	}
}

// sweepNewSpace installs a filler map into every dead region of the
// active semi-space so that a later linear walk can still compute the
// region's size. fillerArrayMap is used for regions large enough to
// carry an explicit length field; fillerMap (a one-word filler) covers
// everything smaller.
func (s *Sweeper) sweepNewSpace(fillerMap, fillerArrayMap *heap.Object) {
	const headerSize = 2 * heap.WordSize

	survivors := s.Heap.New.FromObjects[:0:0]
	cursor := 0
	runStart := -1

	flush := func(end int) {
		if runStart < 0 || end <= runStart {
			runStart = -1
			return
		}
		fm := fillerMap
		if size := end - runStart; size >= headerSize {
			fm = fillerArrayMap
		}
		if fm != nil {
			s.Heap.IndexAddress(heap.Address{Space: heap.NewSpace, Page: -1, Offset: runStart}, fm.ID)
		}
		runStart = -1
	}

	for _, id := range s.Heap.New.FromObjects {
		obj := s.Heap.Objects[id]
		if end := obj.Addr.Offset + obj.Size; end > cursor {
			cursor = end
		}
		if !obj.IsMarked() {
			if runStart < 0 {
				runStart = obj.Addr.Offset
			}
			continue
		}
		flush(obj.Addr.Offset)
		obj.ClearMark(obj.MapID())
		s.Tracer.DecrementMarkedCount()
		survivors = append(survivors, id)
	}
	flush(cursor)
	s.Heap.New.FromObjects = survivors
}
