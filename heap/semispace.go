package heap

// SemiSpace is new space: two equal-size halves, one active (From)
// holding young objects, one inactive (To) that sits empty between
// collections and receives the survivors that stay young. In this
// model the marking stack is a separate mark.Stack, and the forwarding
// record built during encoding is kept per object in Object.Forward.
type SemiSpace struct {
	Size int // capacity of each half, in bytes

	// FromObjects lists the objects presently in the active half, in
	// allocation order; their Addr.Offset values are byte offsets into
	// that half.
	FromObjects []ObjectID

	used   int
	toUsed int // bump pointer into the inactive half, used when a live object stays in new space
}

// AllocateInTo reserves size bytes in the inactive half's linear
// arena. The encoder uses it for survivors that are not promoted; a
// promoted object always gets room in its paged space, so it never
// falls back here.
func (s *SemiSpace) AllocateInTo(size int) int {
	off := s.toUsed
	s.toUsed += size
	return off
}

func NewSemiSpace(size int) *SemiSpace {
	return &SemiSpace{Size: size}
}

// Place records a fresh object's offset in the active half. Used only
// to build a heap before a collection ever runs.
func (s *SemiSpace) Place(obj *Object) {
	obj.Addr = Address{Space: NewSpace, Page: -1, Offset: s.used}
	s.FromObjects = append(s.FromObjects, obj.ID)
	s.used += obj.Size
}

// ResetRelocationInfo clears the inactive half's bump pointer before a
// fresh compacting collection starts encoding into it.
func (s *SemiSpace) ResetRelocationInfo() { s.toUsed = 0 }

// Flip exchanges the roles of the two halves once a collection
// finishes: survivors that stayed in new space now occupy what was the
// inactive half, which becomes the new active half.
func (s *SemiSpace) Flip(survivors []ObjectID, bytesUsed int) {
	s.FromObjects = survivors
	s.used = bytesUsed
}
