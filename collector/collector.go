// Package collector is the orchestrator (4.1): the single entry point
// that decides compact-vs-sweep, drives every phase in order, and
// enforces the state machine the design calls out as a debug
// assertion surface.
package collector

import (
	"fmt"

	"github.com/markcompact/mcgc/compact"
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/mark"
	"github.com/markcompact/mcgc/roots"
	"github.com/markcompact/mcgc/sweep"
	"github.com/markcompact/mcgc/symtab"
	"github.com/markcompact/mcgc/tracer"
)

// Flags mirrors the configuration table in the external-interfaces
// section verbatim.
type Flags struct {
	AlwaysCompact           bool
	NeverCompact            bool
	CleanupICsAtGC          bool
	CleanupCachesInMapsAtGC bool
	GCGlobal                bool
	GCVerbose               bool
}

// state is the debug state machine: IDLE -> PREPARE -> MARK ->
// (ENCODE -> UPDATE -> RELOCATE -> REBUILD | SWEEP) -> IDLE.
type state int

const (
	idle state = iota
	preparing
	marking
	encoding
	updating
	relocating
	rebuilding
	sweeping
)

func (s state) String() string {
	switch s {
	case idle:
		return "idle"
	case preparing:
		return "prepare"
	case marking:
		return "mark"
	case encoding:
		return "encode"
	case updating:
		return "update"
	case relocating:
		return "relocate"
	case rebuilding:
		return "rebuild"
	case sweeping:
		return "sweep"
	default:
		return "unknown"
	}
}

// Collector holds every external collaborator the design lists as
// "consumed from" some other subsystem. A real embedder would thread
// these through differently; the design notes explicitly recommend
// against module globals, so they all live here rather than in
// package-level state.
type Collector struct {
	Heap        *heap.Heap
	Roots       *roots.Strong
	SymbolTable *symtab.Table
	Groups      *roots.Groups
	Handles     []*roots.WeakHandle

	Flags Flags

	PageCapacity  int
	StackCapacity int

	// FillerMap / FillerArrayMap are installed over new space's dead
	// regions by the non-compacting sweeper.
	FillerMap      *heap.Object
	FillerArrayMap *heap.Object

	// InvalidateIdentityCaches runs during Finish: any cache keyed by
	// object identity whose entries are not themselves traced roots
	// (an IC/stub lookup cache, say) must be dropped here.
	InvalidateIdentityCaches func()

	state state
}

func New(h *heap.Heap) *Collector {
	return &Collector{
		Heap:          h,
		Groups:        roots.NewGroups(),
		PageCapacity:  heap.DefaultPageSize,
		StackCapacity: 4096,
	}
}

func (c *Collector) transition(to state, from ...state) {
	for _, f := range from {
		if c.state == f {
			c.state = to
			return
		}
	}
	panic(fmt.Sprintf("mcgc: illegal collector transition %s -> %s", c.state, to))
}

// Collect runs one full collection: Prepare, Mark, SweepLargeObjects,
// then either the compacting or non-compacting branch, then Finish.
// Preconditions: the heap is quiescent and no collection is already
// in progress -- calling Collect while c.state != idle is a contract
// violation and panics, same as every other illegal transition.
func (c *Collector) Collect(tr tracer.Tracer) {
	if c.state != idle {
		panic("mcgc: Collect called while a collection is already in progress")
	}

	compacting := c.shouldCompact()
	tr.SetIsCompacting(compacting)

	c.transition(preparing, idle)
	c.prepare(compacting)

	c.transition(marking, preparing)
	m := c.mark(tr, compacting)

	c.sweepLargeObjects(tr)

	if compacting {
		c.transition(encoding, marking)
		enc := &compact.Encoder{Heap: c.Heap, PageCapacity: c.PageCapacity, Verbose: c.Flags.GCVerbose, Tracer: tr}
		enc.EncodeAll()

		c.transition(updating, encoding)
		upd := &compact.Updater{Heap: c.Heap}
		upd.UpdateRoots(c.Roots, c.Handles)
		upd.UpdateLiveHeap()

		c.transition(relocating, updating)
		rel := &compact.Relocator{Heap: c.Heap, Tracer: tr, Verbose: c.Flags.GCVerbose}
		rel.RelocateAll()

		c.transition(rebuilding, relocating)
		rsb := &compact.RememberedSetRebuilder{Heap: c.Heap}
		rsb.RebuildAll()

		c.transition(idle, rebuilding)
	} else {
		c.transition(sweeping, marking)
		sw := &sweep.Sweeper{Heap: c.Heap, Tracer: tr}
		sw.SweepSpaces(c.FillerMap, c.FillerArrayMap)

		c.transition(idle, sweeping)
	}

	c.finish(tr, m)
}

// shouldCompact implements the compaction decision: recoverable bytes
// as a share of recoverable plus resident bytes in old and code
// space, overridden by the always/never flags and by a global GC
// demand (young-gen promotion in this design only happens during a
// compacting collection).
func (c *Collector) shouldCompact() bool {
	if c.Flags.NeverCompact {
		return false
	}
	if c.Flags.AlwaysCompact || c.Flags.GCGlobal {
		return true
	}

	oldWaste, oldFree := c.Heap.Old.Waste(c.Heap.Objects)
	codeWaste, codeFree := c.Heap.Code.Waste(c.Heap.Objects)
	recoverable := oldWaste + oldFree + codeWaste + codeFree
	used := recoverable + c.Heap.Old.Size(c.Heap.Objects) + c.Heap.Code.Size(c.Heap.Objects)
	if used == 0 {
		return false
	}
	return recoverable*100/used > 50
}

// prepare resets every space's collector-owned bookkeeping ahead of a
// fresh collection and rebuilds the address index Update/relocate rely
// on to resolve old addresses.
func (c *Collector) prepare(compacting bool) {
	c.Heap.Old.ResetRelocationInfo()
	c.Heap.Code.ResetRelocationInfo()
	c.Heap.Map.ResetRelocationInfo()
	if compacting {
		c.Heap.New.ResetRelocationInfo()
	}
	c.Heap.RebuildAddressIndex()
}

// mark runs the full marking fixpoint: strong roots, the symbol
// table's prefix, object groups, then weak roots, draining the stack
// between each root source exactly as the design's root-sources list
// orders them.
func (c *Collector) mark(tr tracer.Tracer, compacting bool) *mark.Marker {
	stack := mark.NewStack(c.StackCapacity)
	m := mark.New(c.Heap, stack, tr, mark.Flags{
		CleanupICsAtGC:          c.Flags.CleanupICsAtGC,
		CleanupCachesInMapsAtGC: c.Flags.CleanupCachesInMapsAtGC,
	}, compacting)

	spaces := c.Heap.AllObjects

	if c.Roots != nil {
		m.MarkStrongRoots(c.Roots)
	}
	if c.SymbolTable != nil {
		m.MarkStrongRoots(&roots.Strong{Slots: c.SymbolTable.Prefix})
		if c.SymbolTable.Object != nil {
			m.Mark(c.SymbolTable.Object)
		}
	}
	m.ProcessStack(spaces)

	if c.Groups != nil {
		m.MarkObjectGroups(c.Groups, spaces)
	}

	m.MarkWeakRoots(c.Handles, c.Groups, spaces)

	if c.SymbolTable != nil {
		symtab.Clean(c.Heap, c.SymbolTable)
	}
	if c.Groups != nil {
		c.Groups.RemoveObjectGroups()
	}

	return m
}

func (c *Collector) sweepLargeObjects(tr tracer.Tracer) {
	los := &sweep.LargeObjectSweeper{Heap: c.Heap, Tracer: tr}
	los.Sweep()
}

// finish clears ancillary identity-keyed caches and reports the final
// live-global-object count; the tracer's marked count is expected to
// read zero once every survivor's mark bit has been cleared by the
// relocator or sweeper.
func (c *Collector) finish(tr tracer.Tracer, m *mark.Marker) {
	if c.InvalidateIdentityCaches != nil {
		c.InvalidateIdentityCaches()
	}
	tr.SetGlobalObjects(m.GlobalObjectCount())
}
