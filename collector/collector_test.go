package collector

import (
	"testing"

	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/roots"
	"github.com/markcompact/mcgc/tracer"
)

// buildHeap lays out a small old-space-only graph: a root, a reachable
// child, and a two-object garbage cycle, each backed by a real map
// object so the collector's map-marking step has something to do.
func buildHeap(pageCapacity int) (h *heap.Heap, root, child, cycleA *heap.Object) {
	h = heap.New()
	mapPage := h.Map.AddPage(pageCapacity)
	rootMap := h.NewObject(heap.KindMap, 16, 0)
	rootMap.ClearMark(rootMap.ID) // self-described: its own map is itself
	h.Map.Place(mapPage, rootMap)
	objMap := h.NewObject(heap.KindMap, 16, rootMap.ID)
	h.Map.Place(mapPage, objMap)

	oldPage := h.Old.AddPage(pageCapacity)
	root = h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, root)
	child = h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, child)
	root.Body = []*heap.Slot{heap.SlotTo(child)}

	cycleA = h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, cycleA)
	cycleB := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, cycleB)
	cycleA.Body = []*heap.Slot{heap.SlotTo(cycleB)}
	cycleB.Body = []*heap.Slot{heap.SlotTo(cycleA)}

	return h, root, child, cycleA
}

func TestCollectNonCompactingSweepsUnreachableAndKeepsLive(t *testing.T) {
	h, root, child, _ := buildHeap(4096)

	c := New(h)
	c.Flags.NeverCompact = true
	c.Roots = &roots.Strong{Slots: []*heap.Slot{heap.SlotTo(root)}}

	tr := tracer.New()
	c.Collect(tr)

	if tr.IsCompacting {
		t.Fatalf("NeverCompact must force the sweeping branch")
	}
	if tr.MarkedCount() != 0 {
		t.Fatalf("every mark bit should be cleared by the end of a collection, got %d still marked", tr.MarkedCount())
	}
	if root.IsMarked() || child.IsMarked() {
		t.Fatalf("survivors should have their mark bit cleared")
	}

	foundChild := false
	for _, objID := range h.Old.Pages[0].Objects {
		if objID == child.ID {
			foundChild = true
		}
	}
	if !foundChild {
		t.Fatalf("reachable child must still be resident after sweeping")
	}
}

func TestCollectNonCompactingReclaimsUnreachableCycle(t *testing.T) {
	h, root, _, cycleA := buildHeap(4096)

	c := New(h)
	c.Flags.NeverCompact = true
	c.Roots = &roots.Strong{Slots: []*heap.Slot{heap.SlotTo(root)}}

	tr := tracer.New()
	c.Collect(tr)

	for _, objID := range h.Old.Pages[0].Objects {
		if objID == cycleA.ID {
			t.Fatalf("an unreachable reference cycle must not survive collection")
		}
	}
}

func TestCollectCompactingSlidesSurvivorsAndUpdatesPointers(t *testing.T) {
	h, root, child, _ := buildHeap(4096)

	c := New(h)
	c.Flags.AlwaysCompact = true
	c.PageCapacity = 4096
	c.Roots = &roots.Strong{Slots: []*heap.Slot{heap.SlotTo(root)}}

	tr := tracer.New()
	c.Collect(tr)

	if !tr.IsCompacting {
		t.Fatalf("AlwaysCompact must force the compacting branch")
	}
	if root.Compacted || child.Compacted {
		t.Fatalf("relocation should have restored plain map pointers on every survivor")
	}
	if root.Addr.Offset != 0 {
		t.Fatalf("root should have slid to the front of old space, got offset %d", root.Addr.Offset)
	}
	if child.Addr.Offset != root.Size {
		t.Fatalf("child should immediately follow root, got offset %d want %d", child.Addr.Offset, root.Size)
	}
	if root.Body[0].Ref != child.Addr {
		t.Fatalf("root's pointer to child should resolve to child's new address")
	}
}

func TestCollectPanicsOnReentrantCall(t *testing.T) {
	h, root, _, _ := buildHeap(4096)
	c := New(h)
	c.Flags.NeverCompact = true
	c.Roots = &roots.Strong{Slots: []*heap.Slot{heap.SlotTo(root)}}
	c.state = marking

	defer func() {
		if recover() == nil {
			t.Fatalf("Collect while a collection is already running should panic")
		}
	}()
	c.Collect(tracer.New())
}

func TestGlobalObjectsCountedAcrossCollection(t *testing.T) {
	h, root, _, _ := buildHeap(4096)
	global := h.NewObject(heap.KindJSGlobalObject, 16, root.MapID())
	h.Old.Place(h.Old.Pages[0], global)
	root.Body = append(root.Body, heap.SlotTo(global))

	c := New(h)
	c.Flags.NeverCompact = true
	c.Roots = &roots.Strong{Slots: []*heap.Slot{heap.SlotTo(root)}}

	tr := tracer.New()
	c.Collect(tr)

	if tr.GlobalObjects != 1 {
		t.Fatalf("expected exactly 1 global object counted, got %d", tr.GlobalObjects)
	}
}
