package heap

// LargeSpace holds individually allocated oversized objects that never
// move, modeled as the logical equivalent of the source's linked
// list: an ordered slice the sweep phase walks, delinking dead
// entries.
type LargeSpace struct {
	Objects []ObjectID
}

func NewLargeSpace() *LargeSpace { return &LargeSpace{} }

// Place appends obj to the list, assigning it a stable slot index as
// its address offset (large objects never move, so this index is
// permanent).
func (s *LargeSpace) Place(obj *Object) {
	obj.Addr = Address{Space: LargeObjectSpace, Page: -1, Offset: len(s.Objects)}
	s.Objects = append(s.Objects, obj.ID)
}
