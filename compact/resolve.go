package compact

import "github.com/markcompact/mcgc/heap"

// ResolveForwardingAddress computes the address a live object will
// occupy after relocation, given its address as of the most recent
// Prepare. It implements the three cases the design distinguishes:
// new-space objects carry their destination directly, large objects
// never move, and paged-space objects decode it from their encoded
// map word plus their source page's mc_first_forwarded and the
// destination page's mc_relocation_top -- cascading into the next
// destination page when a source page's live run spans the seam.
func ResolveForwardingAddress(h *heap.Heap, old heap.Address) heap.Address {
	switch old.Space {
	case heap.LargeObjectSpace:
		return old

	case heap.NewSpace:
		obj := h.ObjectAt(old)
		if obj == nil || !obj.Forward.Set {
			return old
		}
		return obj.Forward.Plain

	default:
		sp := h.PagedSpaceByID(old.Space)
		obj := h.ObjectAt(old)
		if sp == nil || obj == nil || !obj.Compacted {
			return old
		}

		_, _, liveOffset := obj.Word.DecodeForwarding()
		page := sp.Pages[old.Page]
		ff := page.FirstForwarded
		fp := sp.DestPageAt(ff.Page)

		for {
			candidate := ff.Offset + liveOffset
			if fp == nil {
				return heap.Address{Space: sp.ID, Page: ff.Page, Offset: candidate}
			}
			if candidate < fp.RelocationTop {
				return heap.Address{Space: sp.ID, Page: fp.Index, Offset: candidate}
			}
			consumed := fp.RelocationTop - ff.Offset
			liveOffset -= consumed
			next := sp.DestPageAt(fp.Index + 1)
			if next == nil {
				return heap.Address{Space: sp.ID, Page: fp.Index, Offset: fp.RelocationTop}
			}
			ff = heap.Address{Space: sp.ID, Page: next.Index, Offset: 0}
			fp = next
		}
	}
}
