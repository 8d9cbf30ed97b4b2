package heap

// TargetSpacePolicy decides, for a young object being promoted during
// a compacting collection, which paged space it should move into.
// This stands in for the host's generational-promotion policy, which
// the design treats as an external decision the collector merely
// executes.
type TargetSpacePolicy func(obj *Object) SpaceID

// Heap is the aggregate of every space plus the object registry. It
// plays the role the design assigns to the heap subsystem: per-space
// iteration, allocation and the handful of MC* operations the
// collector drives compaction with.
type Heap struct {
	New   *SemiSpace
	Old   *PagedSpace
	Code  *PagedSpace
	Map   *PagedSpace
	Large *LargeSpace

	Objects map[ObjectID]*Object

	TargetSpace TargetSpacePolicy

	nextID ObjectID

	// byAddress indexes every live object by its address as of the
	// most recent Prepare. It stays valid through marking and encoding
	// -- addresses do not change until the relocator runs -- and is
	// what lets the pointer updater resolve an old address back to the
	// object that used to live there.
	byAddress map[Address]ObjectID
}

func New() *Heap {
	return &Heap{
		New:     NewSemiSpace(0),
		Old:     NewPagedSpace(OldSpace),
		Code:    NewPagedSpace(CodeSpace),
		Map:     NewPagedSpace(MapSpace),
		Large:   NewLargeSpace(),
		Objects: make(map[ObjectID]*Object),
	}
}

// NewObjectID allocates a fresh, 4-byte aligned object identifier.
// Alignment matters: identifiers double as map addresses, and
// mapword.Word reserves the low two bits of a map pointer for the
// mark/overflow flags.
func (h *Heap) NewObjectID() ObjectID {
	h.nextID += 4
	return h.nextID
}

// NewObject allocates and registers a fresh object of the given kind
// and size, with mapID as its descriptor.
func (h *Heap) NewObject(kind Kind, size int, mapID ObjectID) *Object {
	obj := &Object{ID: h.NewObjectID(), Kind: kind, Size: size}
	obj.ClearMark(mapID)
	h.Objects[obj.ID] = obj
	return obj
}

// Get resolves an object by id, or nil if it is unknown or the
// reference is nil (id 0).
func (h *Heap) Get(id ObjectID) *Object {
	if id == 0 {
		return nil
	}
	return h.Objects[id]
}

// Deref resolves a slot to the object it currently points at, via the
// address index. Returns nil for a nil slot or a dangling reference.
func (h *Heap) Deref(slot *Slot) *Object {
	if slot == nil {
		return nil
	}
	return h.ObjectAt(slot.Ref)
}

// ObjectAt resolves an address through the index built at the most
// recent Prepare. Valid for any address a live object held as of that
// Prepare; meaningless once the relocator starts moving objects.
func (h *Heap) ObjectAt(addr Address) *Object {
	id, ok := h.byAddress[addr]
	if !ok {
		return nil
	}
	return h.Objects[id]
}

// PagedSpaceByID returns the paged space with the given id, or nil for
// New/Large space.
func (h *Heap) PagedSpaceByID(id SpaceID) *PagedSpace {
	switch id {
	case OldSpace:
		return h.Old
	case CodeSpace:
		return h.Code
	case MapSpace:
		return h.Map
	default:
		return nil
	}
}

// RebuildAddressIndex recomputes byAddress from every space's current
// object placement. Called by Prepare; remains valid until the
// relocator starts moving objects.
func (h *Heap) RebuildAddressIndex() {
	h.byAddress = make(map[Address]ObjectID, len(h.Objects))
	for _, id := range h.New.FromObjects {
		obj := h.Objects[id]
		h.byAddress[obj.Addr] = id
	}
	for _, sp := range []*PagedSpace{h.Old, h.Code, h.Map} {
		for _, p := range sp.Pages {
			for _, id := range p.Objects {
				obj := h.Objects[id]
				h.byAddress[obj.Addr] = id
			}
		}
	}
	for _, id := range h.Large.Objects {
		obj := h.Objects[id]
		h.byAddress[obj.Addr] = id
	}
}

// IndexAddress records that id now lives at addr. The relocator calls
// this as it slides each object so that later objects in the
// relocation order -- whose forwarding encodings name this object's
// new location -- can resolve it.
func (h *Heap) IndexAddress(addr Address, id ObjectID) {
	h.byAddress[addr] = id
}

// AllObjects iterates every registered object, used by the marker's
// overflow-recovery rescan ("scan each space for overflowed objects").
// yield returning false stops the iteration early.
func (h *Heap) AllObjects(yield func(*Object) bool) {
	for _, obj := range h.Objects {
		if !yield(obj) {
			return
		}
	}
}

// SlotTo builds a slot referencing target's current address. Helper
// for tests and for the driver command that wires up a synthetic
// object graph.
func SlotTo(target *Object) *Slot {
	if target == nil {
		return &Slot{}
	}
	return &Slot{Ref: target.Addr}
}
