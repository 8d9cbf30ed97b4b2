package main

import (
	"github.com/markcompact/mcgc/collector"
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/roots"
	"github.com/markcompact/mcgc/symtab"
)

// demoHeap is a small synthetic object graph exercising every data
// shape the collector cares about: a root map, a handful of old-space
// objects with a garbage cycle, a promotable new-space object, a
// cons-string with an empty right component, a code object carrying
// an inline-cache target, an object group, a weak handle and a large
// object. It plays the role a real embedder's heap snapshot would.
type demoHeap struct {
	h           *heap.Heap
	c           *collector.Collector
	emptyString *heap.Object
}

func buildDemoHeap(pageCapacity int) *demoHeap {
	h := heap.New()

	metaMap := h.NewObject(heap.KindMap, 16, 0)
	metaMap.ClearMark(metaMap.ID)
	mapPage := h.Map.AddPage(pageCapacity)
	h.Map.Place(mapPage, metaMap)

	stringMap := h.NewObject(heap.KindMap, 16, metaMap.ID)
	h.Map.Place(mapPage, stringMap)
	consMap := h.NewObject(heap.KindMap, 16, metaMap.ID)
	h.Map.Place(mapPage, consMap)
	objMap := h.NewObject(heap.KindMap, 16, metaMap.ID)
	h.Map.Place(mapPage, objMap)
	codeMap := h.NewObject(heap.KindMap, 16, metaMap.ID)
	h.Map.Place(mapPage, codeMap)

	oldPage := h.Old.AddPage(pageCapacity)

	root := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, root)

	child := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, child)
	root.Body = []*heap.Slot{heap.SlotTo(child)}

	// A garbage cycle: these two reference each other but nothing
	// reachable from any root references either of them.
	cycleA := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, cycleA)
	cycleB := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, cycleB)
	cycleA.Body = []*heap.Slot{heap.SlotTo(cycleB)}
	cycleB.Body = []*heap.Slot{heap.SlotTo(cycleA)}

	emptyString := h.NewObject(heap.KindString, 8, stringMap.ID)
	emptyString.IsEmptyString = true
	h.Old.Place(oldPage, emptyString)

	left := h.NewObject(heap.KindString, 8, stringMap.ID)
	h.Old.Place(oldPage, left)

	cons := h.NewObject(heap.KindConsString, 16, consMap.ID)
	h.Old.Place(oldPage, cons)
	cons.ConsLeft = heap.SlotTo(left)
	cons.ConsRight = heap.SlotTo(emptyString)
	child.Body = append(child.Body, heap.SlotTo(cons))

	codePage := h.Code.AddPage(pageCapacity)
	codeObj := h.NewObject(heap.KindCode, 32, codeMap.ID)
	h.Code.Place(codePage, codeObj)
	stub := h.NewObject(heap.KindCode, 16, codeMap.ID)
	h.Code.Place(codePage, stub)
	codeObj.ICTargets = []*heap.ICTarget{{Slot: heap.SlotTo(stub), IsAddress: true}}
	debugTarget := h.NewObject(heap.KindCode, 16, codeMap.ID)
	h.Code.Place(codePage, debugTarget)
	codeObj.DebugTargets = []*heap.Slot{heap.SlotTo(debugTarget)}
	root.Body = append(root.Body, heap.SlotTo(codeObj))

	h.New = heap.NewSemiSpace(pageCapacity)
	young := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.New.Place(young)
	root.Body = append(root.Body, heap.SlotTo(young))
	garbageYoung := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.New.Place(garbageYoung)

	largeMap := h.NewObject(heap.KindMap, 16, metaMap.ID)
	h.Map.Place(mapPage, largeMap)
	large := h.NewObject(heap.KindHeapObject, 4096, largeMap.ID)
	h.Large.Place(large)
	root.Body = append(root.Body, heap.SlotTo(large))

	symbolMap := h.NewObject(heap.KindMap, 16, metaMap.ID)
	h.Map.Place(mapPage, symbolMap)
	symTableObj := h.NewObject(heap.KindSymbolTable, 8, symbolMap.ID)
	h.Old.Place(oldPage, symTableObj)

	liveSymbol := h.NewObject(heap.KindString, 8, stringMap.ID)
	h.Old.Place(oldPage, liveSymbol)
	deadSymbol := h.NewObject(heap.KindString, 8, stringMap.ID)
	h.Old.Place(oldPage, deadSymbol)
	root.Body = append(root.Body, heap.SlotTo(liveSymbol))

	symTable := &symtab.Table{
		Object:   symTableObj,
		Elements: []*heap.Slot{heap.SlotTo(liveSymbol), heap.SlotTo(deadSymbol)},
	}

	weakTarget := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, weakTarget)
	weakOrphan := h.NewObject(heap.KindHeapObject, 16, objMap.ID)
	h.Old.Place(oldPage, weakOrphan)
	root.Body = append(root.Body, heap.SlotTo(weakTarget))

	h.TargetSpace = func(obj *heap.Object) heap.SpaceID { return heap.OldSpace }

	c := collector.New(h)
	c.Roots = &roots.Strong{Slots: []*heap.Slot{heap.SlotTo(root)}}
	c.SymbolTable = symTable
	c.Groups = roots.NewGroups(&roots.ObjectGroup{
		Members: []*heap.Slot{heap.SlotTo(cycleA), heap.SlotTo(cycleB)},
	})
	c.Handles = []*roots.WeakHandle{
		{Slot: heap.SlotTo(weakTarget)},
		{Slot: heap.SlotTo(weakOrphan)},
	}
	c.PageCapacity = pageCapacity

	fillerMap := h.NewObject(heap.KindFiller, 8, metaMap.ID)
	h.Map.Place(mapPage, fillerMap)
	fillerArrayMap := h.NewObject(heap.KindFiller, 8, metaMap.ID)
	h.Map.Place(mapPage, fillerArrayMap)
	c.FillerMap = fillerMap
	c.FillerArrayMap = fillerArrayMap

	return &demoHeap{h: h, c: c, emptyString: emptyString}
}
