package heap

// PagedSpace is a linked-list-of-pages space: old space, code space or
// map space. It plays the role of the external per-space allocator
// the collector consumes (MCAllocateRaw, Free, MCCommitRelocationInfo
// and friends in the design's external-interfaces list).
type PagedSpace struct {
	ID    SpaceID
	Pages []*Page

	// dest is the page chain under construction by the forwarding
	// encoder. It starts empty and grows by MCAllocateRaw; once the
	// relocator has placed this space's survivors,
	// MCCommitRelocationInfo swaps it in for Pages.
	dest      []*Page
	destIndex int // index of the current destination page within dest
}

func NewPagedSpace(id SpaceID) *PagedSpace {
	return &PagedSpace{ID: id}
}

// AddPage appends a freshly allocated, empty page with the given
// object-area capacity and returns it. Used when building a synthetic
// heap for tests or the driver command.
func (s *PagedSpace) AddPage(capacity int) *Page {
	p := &Page{Capacity: capacity, Index: len(s.Pages)}
	s.Pages = append(s.Pages, p)
	return p
}

// Place records a fresh object's resident page and byte offset,
// bumping that page's allocation accordingly. Used only to build a
// heap before a collection ever runs.
func (s *PagedSpace) Place(p *Page, obj *Object) {
	obj.Addr = Address{Space: s.ID, Page: p.Index, Offset: p.used}
	p.Objects = append(p.Objects, obj.ID)
	p.used += obj.Size
}

// ResetRelocationInfo clears every page's collector-owned bookkeeping
// and assigns fresh mc_page_index values, mirroring MCResetRelocationInfo.
// Called by Prepare at the start of every collection.
func (s *PagedSpace) ResetRelocationInfo() {
	for i, p := range s.Pages {
		p.Index = i
		p.HasFirstForwarded = false
		p.FirstForwarded = Address{}
		p.RelocationTop = 0
		p.FreeRuns = nil
	}
	s.dest = nil
	s.destIndex = 0
}

// MCAllocateRaw allocates size bytes in this space's destination page
// chain, growing it with a fresh page if none has room. Allocation
// during compaction is specified to never fail -- destinations sum to
// at most the source live set -- so this never returns an error; a
// nil capacity page would be a contract violation by the caller.
func (s *PagedSpace) MCAllocateRaw(size, pageCapacity int) (page *Page, offset int) {
	if len(s.dest) == 0 {
		s.dest = append(s.dest, &Page{Capacity: pageCapacity, Index: 0})
	}
	cur := s.dest[s.destIndex]
	if cur.Room() < size {
		next := &Page{Capacity: pageCapacity, Index: len(s.dest)}
		s.dest = append(s.dest, next)
		s.destIndex++
		cur = next
	}
	off := cur.bumpAllocate(size)
	return cur, off
}

// MCWriteRelocationInfoToPage records dest as the page on which obj's
// forwarded copy -- the first live object originally on srcPage --
// landed, i.e. mc_first_forwarded.
func (s *PagedSpace) MCWriteRelocationInfoToPage(srcPage *Page, dest Address) {
	srcPage.FirstForwarded = dest
	srcPage.HasFirstForwarded = true
}

// MCAdjustRelocationEnd records the final allocation top of every
// destination page once this space (and anything promoting into it)
// has finished encoding.
func (s *PagedSpace) MCAdjustRelocationEnd() {
	for _, p := range s.dest {
		p.RelocationTop = p.used
	}
}

// MCCommitRelocationInfo swaps the destination page chain in as the
// space's live page list, discarding every source page. Called by the
// relocator once every live object has
// actually been slid to its forwarding address.
func (s *PagedSpace) MCCommitRelocationInfo() {
	// Objects was already populated per destination page as the
	// relocator placed each survivor; nothing left to do but adopt the
	// destination chain as the space's live page list.
	s.Pages = s.dest
	s.dest = nil
	s.destIndex = 0
}

// DestPageAt returns the i'th destination page, used by the relocator
// and pointer updater to read mc_relocation_top / mc_first_forwarded
// of pages that only exist mid-compaction.
func (s *PagedSpace) DestPageAt(i int) *Page {
	if i < 0 || i >= len(s.dest) {
		return nil
	}
	return s.dest[i]
}

// MCSpaceOffsetForAddress returns the byte offset addr would have if
// this space's pages were laid out back to back in page index order.
// Used only for diagnostics; the collector's own decoding never needs
// a flattened offset because it works in (page, offset) pairs.
func (s *PagedSpace) MCSpaceOffsetForAddress(addr Address, pageCapacity int) int {
	return addr.Page*pageCapacity + addr.Offset
}

// Waste reports this space's fragmentation, split the way the
// compaction decision wants it: availableFree is the sum of each
// page's unused capacity (there is no standing free list in this
// model, so every unused byte is, in effect, available); waste is
// always zero here, since nothing in this model loses bytes to
// page-internal accounting the way a real free-list allocator would.
func (s *PagedSpace) Waste(objects map[ObjectID]*Object) (waste, availableFree int) {
	for _, p := range s.Pages {
		used := 0
		for _, id := range p.Objects {
			used += objects[id].Size
		}
		availableFree += p.Capacity - used
	}
	return 0, availableFree
}

// Size sums the byte size of every object currently resident in the
// space, live or dead -- the "Size(old)"/"Size(code)" term in the
// compaction decision's used-bytes formula.
func (s *PagedSpace) Size(objects map[ObjectID]*Object) int {
	total := 0
	for _, p := range s.Pages {
		for _, id := range p.Objects {
			total += objects[id].Size
		}
	}
	return total
}
