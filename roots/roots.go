// Package roots models the root sources the marker consumes, in the
// order the design specifies: strong roots, the symbol table, object
// groups and weak roots.
package roots

import "github.com/markcompact/mcgc/heap"

// Strong is the flat root set iterated first: stacks, registers,
// globals and built-in tables, all folded into one slice since the
// collector treats every strong root identically.
type Strong struct {
	Slots []*heap.Slot
}

// ObjectGroup is a set of references registered by the global-handle
// subsystem with all-or-none reachability: if any member is
// reachable, every member is. Groups are consumed during marking and
// invalidated thereafter.
type ObjectGroup struct {
	Members []*heap.Slot
	removed bool
}

// AnyMarked reports whether at least one member currently resolves to
// a marked object.
func (g *ObjectGroup) AnyMarked(h *heap.Heap) bool {
	for _, s := range g.Members {
		if obj := h.Deref(s); obj != nil && obj.IsMarked() {
			return true
		}
	}
	return false
}

// WeakHandle is a single weak reference together with the callback the
// host wants invoked if its referent turns out to be dead.
type WeakHandle struct {
	Slot     *heap.Slot
	OnReclaim func()
	cleared  bool
}

func (w *WeakHandle) Clear() {
	w.Slot.Ref = heap.Address{}
	w.cleared = true
}

// Groups is the mutable list of live object groups. Remove drops a
// group the marker has consumed; RemoveObjectGroups discards every
// group that is left once marking is done.
type Groups struct {
	list []*ObjectGroup
}

func NewGroups(groups ...*ObjectGroup) *Groups { return &Groups{list: groups} }

func (g *Groups) All() []*ObjectGroup { return g.list }

// RemoveObjectGroups clears the group list entirely, matching
// GlobalHandles::RemoveObjectGroups: once marking has finished
// consulting them they carry no further meaning for this collection.
func (g *Groups) RemoveObjectGroups() { g.list = nil }

// Remove drops target from the group list; called once a group has
// been consumed by marking.
func (g *Groups) Remove(target *ObjectGroup) {
	out := g.list[:0]
	for _, grp := range g.list {
		if grp != target {
			out = append(out, grp)
		}
	}
	g.list = out
}
