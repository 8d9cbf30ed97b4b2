package heap

import "github.com/markcompact/mcgc/mapword"

// DefaultPageSize bounds how many live bytes a single page of a paged
// space may hold. It is kept well under mapword.MaxPageByteOffset and
// mapword.MaxLiveOffset so that every legal page layout is encodable.
const DefaultPageSize = 1024

// FreeRun records one maximal dead region found while encoding a
// page. Offset and Size are byte offsets/lengths within the page,
// exactly as a single-word or multi-word free-region encoding would
// describe them.
type FreeRun struct {
	Offset    int
	Size      int
	MultiWord bool // false => a one-word dead region

	// Sentinel is the literal word a byte-addressed heap would carry at
	// Offset: SingleWordFree or MultiWordFree. Objects here are tracked
	// by identity rather than by a raw byte walk, so nothing decodes
	// this back, but it is what a true implementation's free list
	// would find there, and it is what the round-trip law (you can
	// always tell a free region apart from a live forwarding encoding)
	// is checking against.
	Sentinel mapword.Word
}

// NewFreeRun builds a FreeRun with its sentinel word set to match
// MultiWord.
func NewFreeRun(offset, size int, multiWord bool) FreeRun {
	fr := FreeRun{Offset: offset, Size: size, MultiWord: multiWord}
	if multiWord {
		fr.Sentinel = mapword.MultiWordFree()
	} else {
		fr.Sentinel = mapword.SingleWordFree()
	}
	return fr
}

// Page is one fixed-capacity page of a paged space (old, code or map
// space). The first group of fields is persistent heap state; the
// second is collector-owned and only meaningful between Prepare and
// Finish.
type Page struct {
	Capacity int
	Objects  []ObjectID // resident objects, in ascending original-offset order

	// mc_page_index: this page's ordinal in the space's per-page chain,
	// assigned fresh by Prepare for every compaction.
	Index int

	// mc_first_forwarded: address of the forwarded copy of the first
	// live object that originally lived on this page.
	FirstForwarded    Address
	HasFirstForwarded bool

	// mc_relocation_top: end of this page's contribution to the
	// destination space, in bytes from the page's object-area start.
	RelocationTop int

	// used tracks the bump pointer while this page is serving as an
	// encoding destination.
	used int

	FreeRuns []FreeRun

	// RememberedSet records the start offset of every object on this
	// page that holds at least one pointer into new space. Rebuilt
	// wholesale after each compaction rather than maintained
	// incrementally.
	RememberedSet map[int]bool
}

// Remember marks the object starting at the given byte offset as
// holding a pointer into new space.
func (p *Page) Remember(offset int) {
	if p.RememberedSet == nil {
		p.RememberedSet = make(map[int]bool)
	}
	p.RememberedSet[offset] = true
}

// Room reports how many bytes are still free in the page's object area.
func (p *Page) Room() int { return p.Capacity - p.used }

// bumpAllocate reserves size bytes at the page's current destination
// offset and returns that offset. The caller must have checked Room.
func (p *Page) bumpAllocate(size int) int {
	off := p.used
	p.used += size
	return off
}
