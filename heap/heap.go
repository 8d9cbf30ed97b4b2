// Package heap models the managed-object heap consumed by the
// collector: semi-spaces, paged spaces and the large-object space,
// plus the object graph living inside them.
//
// This is a deliberately simplified stand-in for the real allocators
// (semi-space, paged spaces for normal/code/map objects, large-object
// space) that the collector treats as fixed external interfaces. It
// keeps exactly the bookkeeping the collector's core algorithms
// depend on: per-page live-byte accounting, the mc_* relocation
// fields, and address-addressable object slots so that pointer
// updating and relocation have real work to do.
package heap

// WordSize is the granularity every object size is a multiple of; it
// is also the size of a single-word free-region encoding.
const WordSize = 4

// SpaceID names one of the heap's five spaces.
type SpaceID uint8

const (
	NewSpace SpaceID = iota
	OldSpace
	CodeSpace
	MapSpace
	LargeObjectSpace
)

func (s SpaceID) String() string {
	switch s {
	case NewSpace:
		return "new"
	case OldSpace:
		return "old"
	case CodeSpace:
		return "code"
	case MapSpace:
		return "map"
	case LargeObjectSpace:
		return "large"
	default:
		return "unknown"
	}
}

// IsPaged reports whether s is one of the three paged spaces that the
// forwarding-address encoder and pointer updater treat uniformly.
func (s SpaceID) IsPaged() bool {
	return s == OldSpace || s == CodeSpace || s == MapSpace
}

// Address names a live object's location. Page is meaningless (-1)
// for New and LargeObjectSpace; Offset is a byte offset within the
// page for paged spaces, within the active semi-space for New, and an
// opaque slot index for LargeObjectSpace.
type Address struct {
	Space  SpaceID
	Page   int
	Offset int
}

// Slot is a mutable reference cell. Roots and object bodies hold
// *Slot rather than bare Address values so the marker's cons-string
// shortcut and the pointer updater can rewrite a reference in place
// without the caller re-fetching it.
type Slot struct {
	Ref Address
}

// Valid reports whether the slot refers to an actual object, as
// opposed to a nil/uninitialized reference.
func (s *Slot) Valid() bool { return s != nil && s.Ref != (Address{}) }
