// Package mark implements the tri-color marker: an external work
// list (the marking stack) plus overflow recovery, driven across the
// root sources in the order the design specifies.
package mark

import (
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/roots"
	"github.com/markcompact/mcgc/tracer"
	"github.com/markcompact/mcgc/visitor"
)

// StackOverflowProbe is a non-blocking check against a thread-local
// high-water mark, consumed by the depth-first optimization to decide
// whether direct recursion is still safe. The real probe lives outside
// the collector; DepthLimitProbe below is a simple stand-in.
type StackOverflowProbe interface {
	WouldOverflow(depth int) bool
}

// DepthLimitProbe trips once recursion would exceed Limit levels. It
// is the obvious portable substitute for a real stack-pointer check.
type DepthLimitProbe struct{ Limit int }

func (p DepthLimitProbe) WouldOverflow(depth int) bool { return depth >= p.Limit }

// Flags mirrors the subset of the collector's configuration flags the
// marker itself consults.
type Flags struct {
	CleanupICsAtGC          bool
	CleanupCachesInMapsAtGC bool
}

// Marker carries all the state a single collection's marking phase
// needs. Compacting is set by the orchestrator before marking starts
// so the IC bookkeeping can decide whether to flip inline-cache
// targets to object form on leaving a code object.
type Marker struct {
	Heap       *heap.Heap
	Stack      *Stack
	Tracer     tracer.Tracer
	Flags      Flags
	Compacting bool
	Probe      StackOverflowProbe

	recursionDepth int
	globalObjects  int
}

// GlobalObjectCount returns the number of JSGlobalObject-kind objects
// marked during this collection, counted incrementally as each one
// transitions from white to gray -- counting them here rather than by
// rescanning the heap at Finish matters because by Finish every mark
// bit has already been cleared by the encoder/relocator or sweeper.
func (m *Marker) GlobalObjectCount() int { return m.globalObjects }

func New(h *heap.Heap, stack *Stack, tr tracer.Tracer, flags Flags, compacting bool) *Marker {
	return &Marker{
		Heap:       h,
		Stack:      stack,
		Tracer:     tr,
		Flags:      flags,
		Compacting: compacting,
		Probe:      DepthLimitProbe{Limit: 256},
	}
}

// Mark is the core operation: a no-op if obj is already marked,
// otherwise it sets the mark bit, tells the tracer, and turns obj
// gray -- on the stack if there is room, overflowed otherwise.
func (m *Marker) Mark(obj *heap.Object) {
	if obj == nil || obj.IsMarked() {
		return
	}
	if obj.Kind == heap.KindJSGlobalObject {
		m.globalObjects++
	}
	if obj.Kind == heap.KindMap && m.Flags.CleanupCachesInMapsAtGC {
		obj.CodeCache = nil
	}
	obj.SetMark()
	m.Tracer.IncrementMarkedCount()
	if !m.Stack.Overflowed() && m.Stack.Push(obj.ID) {
		return
	}
	m.Stack.SetOverflowed(true)
	obj.SetOverflow()
}

// markRef resolves slot through the address index and marks whatever
// it points at, applying the cons-string shortcut first. Map
// code-cache eviction happens in Mark, on the object being marked.
func (m *Marker) markRef(owner *heap.Object, slot *heap.Slot) {
	if slot == nil || slot.Ref == (heap.Address{}) {
		return
	}
	target := m.Heap.Deref(slot)
	if target == nil {
		return
	}

	if target.Kind == heap.KindConsString {
		m.applyConsStringShortcut(owner, slot, target)
		target = m.Heap.Deref(slot)
		if target == nil {
			return
		}
	}

	m.Mark(target)
}

// applyConsStringShortcut replaces a reference to a cons-string whose
// right component is the canonical empty string with a direct
// reference to its left component, unless doing so would plant a
// new-space reference into a non-new-space slot without the
// remembered-set update the shortcut has no way to perform.
func (m *Marker) applyConsStringShortcut(owner *heap.Object, slot *heap.Slot, cons *heap.Object) {
	if cons.ConsRight == nil || cons.ConsLeft == nil {
		return
	}
	right := m.Heap.Deref(cons.ConsRight)
	if right == nil || !right.IsEmptyString {
		return
	}
	left := m.Heap.Deref(cons.ConsLeft)
	if left == nil {
		return
	}
	if owner.Addr.Space != heap.NewSpace && left.Addr.Space == heap.NewSpace {
		return
	}
	slot.Ref = cons.ConsLeft.Ref
}

// VisitPointer implements visitor.Visitor.
func (m *Marker) VisitPointer(owner *heap.Object, slot *heap.Slot) {
	m.markRef(owner, slot)
}

// VisitPointerRange implements the depth-first optimization: for long
// runs it tries direct recursive marking, stack-limited by Probe, and
// falls back to ordinary stack-based marking the moment the probe
// trips. The optimization is a heuristic; correctness does not depend
// on which path any given slot takes.
func (m *Marker) VisitPointerRange(owner *heap.Object, slots []*heap.Slot) {
	for _, s := range slots {
		if m.Probe.WouldOverflow(m.recursionDepth) {
			m.markRef(owner, s)
			continue
		}
		target := m.Heap.Deref(s)
		if target == nil || target.IsMarked() {
			continue
		}
		m.recursionDepth++
		m.markRef(owner, s)
		if id, ok := m.Stack.popIfTop(target.ID); ok {
			obj := m.Heap.Get(id)
			m.processObject(obj)
		}
		m.recursionDepth--
	}
}

// processObject marks obj's own map pointer -- a popped object is
// marked and off the stack, so its map word still holds a plain,
// readable map reference -- and then iterates its body. Every site
// that visits a previously-unmarked object's body must go through
// this, not visitor.IterateBody directly, or that object's map would
// never itself be kept alive.
func (m *Marker) processObject(obj *heap.Object) {
	m.Mark(m.Heap.Get(obj.MapID()))
	visitor.IterateBody(m, obj)
}

// popIfTop pops id off the stack iff it is the current top, letting
// the depth-first path consume the entry it just pushed instead of
// leaving it for ProcessStack.
func (s *Stack) popIfTop(id heap.ObjectID) (heap.ObjectID, bool) {
	if len(s.buf) == 0 || s.buf[len(s.buf)-1] != id {
		return 0, false
	}
	return s.Pop()
}

// VisitCodeTarget implements visitor.Visitor for inline-cache
// references carried by code objects.
func (m *Marker) VisitCodeTarget(owner *heap.Object, target *heap.ICTarget) {
	ref := m.Heap.Deref(target.Slot)
	if ref == nil {
		return
	}
	if target.IsStub && m.Flags.CleanupICsAtGC {
		target.Slot.Ref = heap.Address{}
		return
	}
	m.Mark(ref)
	if m.Compacting {
		target.IsAddress = false
	}
}

// VisitDebugTarget marks the code object a debug (JS-return call site)
// target points at. Unlike an ordinary inline-cache target it carries
// no address/object-form bookkeeping in this model.
func (m *Marker) VisitDebugTarget(owner *heap.Object, slot *heap.Slot) {
	if ref := m.Heap.Deref(slot); ref != nil {
		m.Mark(ref)
	}
}

// BeginCode / EndCode implement the code/IC bookkeeping: a code
// object's IC targets are in address form while its body is being
// scanned, and are flipped to object form on the way out of a
// compacting collection so the pointer updater can relocate them.
func (m *Marker) BeginCode(owner *heap.Object) {
	for _, t := range owner.ICTargets {
		t.IsAddress = true
	}
}

func (m *Marker) EndCode(owner *heap.Object) {
	if !m.Compacting {
		return
	}
	for _, t := range owner.ICTargets {
		t.IsAddress = false
	}
}

// ProcessStack drains the marking stack, scanning each popped object's
// body, and recovers from overflow by repeatedly rescanning every
// space for overflowed objects until a full pass finds the stack
// still empty and the overflow flag still clear.
func (m *Marker) ProcessStack(spaces func(yield func(*heap.Object) bool)) {
	for {
		for {
			id, ok := m.Stack.Pop()
			if !ok {
				break
			}
			obj := m.Heap.Get(id)
			if obj == nil {
				continue
			}
			m.processObject(obj)
		}
		if !m.Stack.Overflowed() {
			return
		}
		m.Stack.SetOverflowed(false)
		requeued := false
		spaces(func(obj *heap.Object) bool {
			if obj.IsOverflowed() {
				obj.ClearOverflow()
				if m.Stack.Push(obj.ID) {
					requeued = true
				} else {
					m.Stack.SetOverflowed(true)
					obj.SetOverflow()
				}
			}
			return true
		})
		if !requeued && m.Stack.Empty() && !m.Stack.Overflowed() {
			return
		}
	}
}

// MarkStrongRoots marks every slot in s, the first root source.
func (m *Marker) MarkStrongRoots(s *roots.Strong) {
	for _, slot := range s.Slots {
		m.markRef(nil, slot)
	}
}

// MarkObjectGroups repeatedly marks every member of any group with at
// least one reachable member, removing each consumed group, until a
// full pass finds nothing newly reachable. The stack is drained
// between passes so a group's own members get scanned before the next
// pass re-checks reachability.
func (m *Marker) MarkObjectGroups(groups *roots.Groups, spaces func(yield func(*heap.Object) bool)) {
	for {
		progressed := false
		for _, g := range groups.All() {
			if !g.AnyMarked(m.Heap) {
				continue
			}
			for _, slot := range g.Members {
				m.markRef(nil, slot)
			}
			groups.Remove(g)
			progressed = true
		}
		if !progressed {
			return
		}
		m.ProcessStack(spaces)
	}
}

// MarkWeakRoots runs the two-pass weak-root protocol: first a
// must-be-marked predicate identifies weak handles whose referents are
// already live, then those become strong roots and the stack is
// drained, then object groups are rerun against the augmented
// liveness (a handle's referent can become live only via a group on
// this second pass).
func (m *Marker) MarkWeakRoots(handles []*roots.WeakHandle, groups *roots.Groups, spaces func(yield func(*heap.Object) bool)) {
	for _, w := range handles {
		obj := m.Heap.Deref(w.Slot)
		if obj != nil && obj.IsMarked() {
			m.markRef(nil, w.Slot)
		}
	}
	m.ProcessStack(spaces)
	m.MarkObjectGroups(groups, spaces)

	for _, w := range handles {
		obj := m.Heap.Deref(w.Slot)
		if obj == nil || !obj.IsMarked() {
			if w.OnReclaim != nil {
				w.OnReclaim()
			}
			w.Clear()
		}
	}
}
