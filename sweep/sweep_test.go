package sweep

import (
	"testing"

	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/tracer"
)

func TestSweepPagedReclaimsDeadRunsAndClearsMarks(t *testing.T) {
	h := heap.New()
	page := h.Old.AddPage(1024)

	live1 := h.NewObject(heap.KindHeapObject, 16, 0)
	h.Old.Place(page, live1)
	live1.SetMark()

	dead := h.NewObject(heap.KindHeapObject, 16, 0)
	h.Old.Place(page, dead)

	live2 := h.NewObject(heap.KindHeapObject, 16, 0)
	h.Old.Place(page, live2)
	live2.SetMark()

	sw := &Sweeper{Heap: h, Tracer: tracer.New()}
	sw.sweepPaged(h.Old, heap.OldSpace)

	if len(page.Objects) != 2 {
		t.Fatalf("expected 2 survivors in page.Objects, got %d", len(page.Objects))
	}
	if live1.IsMarked() || live2.IsMarked() {
		t.Fatalf("survivors should have their mark bit cleared")
	}
	if len(page.FreeRuns) != 1 || page.FreeRuns[0].Size != dead.Size {
		t.Fatalf("expected exactly one free run of size %d, got %+v", dead.Size, page.FreeRuns)
	}
}

func TestSweepOldSpaceClearsRememberedSetOverFreedRange(t *testing.T) {
	h := heap.New()
	page := h.Old.AddPage(1024)

	dead := h.NewObject(heap.KindHeapObject, 16, 0)
	h.Old.Place(page, dead)
	page.Remember(dead.Addr.Offset)

	survivor := h.NewObject(heap.KindHeapObject, 16, 0)
	h.Old.Place(page, survivor)
	survivor.SetMark()
	page.Remember(survivor.Addr.Offset)

	sw := &Sweeper{Heap: h, Tracer: tracer.New()}
	sw.sweepPaged(h.Old, heap.OldSpace)

	if page.RememberedSet[dead.Addr.Offset] {
		t.Fatalf("remembered-set entry for a freed region should be cleared")
	}
	if !page.RememberedSet[survivor.Addr.Offset] {
		t.Fatalf("remembered-set entry for a surviving object should remain")
	}
}

func TestLargeObjectSweepDelinksUnmarkedEntries(t *testing.T) {
	h := heap.New()
	live := h.NewObject(heap.KindHeapObject, 4096, 0)
	h.Large.Place(live)
	live.SetMark()
	dead := h.NewObject(heap.KindHeapObject, 4096, 0)
	h.Large.Place(dead)

	los := &LargeObjectSweeper{Heap: h, Tracer: tracer.New()}
	los.Sweep()

	if len(h.Large.Objects) != 1 || h.Large.Objects[0] != live.ID {
		t.Fatalf("expected only the live object to survive, got %v", h.Large.Objects)
	}
	if live.IsMarked() {
		t.Fatalf("survivor's mark bit should be cleared")
	}
	if _, ok := h.Objects[dead.ID]; ok {
		t.Fatalf("dead large object should be removed from the registry")
	}
}
