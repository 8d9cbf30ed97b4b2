// Package visitor defines the capability interface that pointer
// traversal is expressed against. The design calls out that traversal
// is polymorphic across three roles -- mark, update and verify -- and
// asks for a single interface covering all of them so that dispatch
// can stay static instead of growing a visitor type per phase.
package visitor

import "github.com/markcompact/mcgc/heap"

// Visitor is implemented once per collector phase (marking, pointer
// updating, debug verification) and driven by IterateBody over an
// object's outgoing references.
type Visitor interface {
	// VisitPointer is called once per body reference, including the
	// two cons-string component slots and a map's code-cache slots.
	VisitPointer(owner *heap.Object, slot *heap.Slot)

	// VisitPointerRange is called instead of a sequence of
	// VisitPointer calls when the body layout exposes a contiguous run
	// of slots at once, letting the marker's depth-first optimization
	// recognize long runs cheaply.
	VisitPointerRange(owner *heap.Object, slots []*heap.Slot)

	// VisitCodeTarget is called once per inline-cache reference
	// carried by a code object.
	VisitCodeTarget(owner *heap.Object, target *heap.ICTarget)

	// VisitDebugTarget is called once per JS-return call-site reference
	// a code object carries (heap.Object.DebugTargets), the category of
	// reference a debugger resolves independently of ordinary inline
	// caches.
	VisitDebugTarget(owner *heap.Object, slot *heap.Slot)

	// BeginCode / EndCode bracket traversal of a code object's body so
	// IC-target bookkeeping (address form vs. object form) can react
	// to entering and leaving it.
	BeginCode(owner *heap.Object)
	EndCode(owner *heap.Object)
}

// IterateBody drives v over every reference obj holds: its ordinary
// body slots, cons-string components, map code-cache entries and, for
// code objects, its IC targets and debug targets -- the generic
// substitute for the object model's per-type IterateBody(type, size,
// visitor).
func IterateBody(v Visitor, obj *heap.Object) {
	isCode := obj.Kind == heap.KindCode
	if isCode {
		v.BeginCode(obj)
	}

	if len(obj.Body) >= 64 {
		v.VisitPointerRange(obj, obj.Body)
	} else {
		for _, s := range obj.Body {
			v.VisitPointer(obj, s)
		}
	}

	if obj.ConsLeft != nil {
		v.VisitPointer(obj, obj.ConsLeft)
	}
	if obj.ConsRight != nil {
		v.VisitPointer(obj, obj.ConsRight)
	}
	for _, s := range obj.CodeCache {
		v.VisitPointer(obj, s)
	}
	for _, t := range obj.ICTargets {
		v.VisitCodeTarget(obj, t)
	}
	for _, s := range obj.DebugTargets {
		v.VisitDebugTarget(obj, s)
	}

	if isCode {
		v.EndCode(obj)
	}
}
