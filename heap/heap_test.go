package heap

import "testing"

func TestPagedSpacePlaceBumpsPageOffset(t *testing.T) {
	s := NewPagedSpace(OldSpace)
	p := s.AddPage(1024)

	h := New()
	a := h.NewObject(KindHeapObject, 16, 0)
	s.Place(p, a)
	b := h.NewObject(KindHeapObject, 24, 0)
	s.Place(p, b)

	if a.Addr != (Address{Space: OldSpace, Page: 0, Offset: 0}) {
		t.Fatalf("first object should land at offset 0, got %+v", a.Addr)
	}
	if b.Addr != (Address{Space: OldSpace, Page: 0, Offset: 16}) {
		t.Fatalf("second object should land after the first's size, got %+v", b.Addr)
	}
	if len(p.Objects) != 2 || p.Objects[0] != a.ID || p.Objects[1] != b.ID {
		t.Fatalf("page should record both objects in placement order, got %v", p.Objects)
	}
	if p.used != 40 {
		t.Fatalf("page bump pointer should be at 40, got %d", p.used)
	}
}

func TestPagedSpaceMCAllocateRawGrowsDestChain(t *testing.T) {
	s := NewPagedSpace(OldSpace)
	s.ResetRelocationInfo()

	page1, off1 := s.MCAllocateRaw(900, 1024)
	if off1 != 0 {
		t.Fatalf("first allocation should start at offset 0, got %d", off1)
	}
	page2, off2 := s.MCAllocateRaw(200, 1024)
	if page2 == page1 {
		t.Fatalf("an allocation that doesn't fit the current dest page must grow a new one")
	}
	if off2 != 0 {
		t.Fatalf("allocation on the fresh dest page should start at offset 0, got %d", off2)
	}
	if s.DestPageAt(0) != page1 || s.DestPageAt(1) != page2 {
		t.Fatalf("DestPageAt should expose the dest chain by index")
	}
	if s.DestPageAt(2) != nil {
		t.Fatalf("DestPageAt should return nil past the end of the dest chain")
	}

	page3, off3 := s.MCAllocateRaw(50, 1024)
	if page3 != page2 {
		t.Fatalf("an allocation that fits the current dest page must not grow a new one")
	}
	if off3 != 200 {
		t.Fatalf("allocation should continue from the dest page's bump pointer, got %d", off3)
	}
}

func TestPagedSpaceCommitRelocationInfoSwapsInDestChain(t *testing.T) {
	s := NewPagedSpace(OldSpace)
	s.AddPage(1024) // a source page that will not survive into the dest chain
	s.ResetRelocationInfo()

	dest, _ := s.MCAllocateRaw(16, 1024)
	dest.Objects = []ObjectID{1}
	s.MCAdjustRelocationEnd()
	if dest.RelocationTop != 16 {
		t.Fatalf("MCAdjustRelocationEnd should record the dest page's bump pointer, got %d", dest.RelocationTop)
	}

	s.MCCommitRelocationInfo()
	if len(s.Pages) != 1 || s.Pages[0] != dest {
		t.Fatalf("commit should replace Pages with the dest chain, got %d pages", len(s.Pages))
	}
	if s.DestPageAt(0) != nil {
		t.Fatalf("commit should clear the dest chain once adopted")
	}
}

func TestSemiSpaceFlipExchangesActiveHalf(t *testing.T) {
	s := NewSemiSpace(256)
	h := New()
	survivor := h.NewObject(KindHeapObject, 16, 0)
	s.Place(survivor)
	garbage := h.NewObject(KindHeapObject, 16, 0)
	s.Place(garbage)

	if s.used != 32 {
		t.Fatalf("both objects should have bumped the active half, got used=%d", s.used)
	}

	s.AllocateInTo(16) // survivor's relocated copy landing in the inactive half
	s.Flip([]ObjectID{survivor.ID}, 16)

	if len(s.FromObjects) != 1 || s.FromObjects[0] != survivor.ID {
		t.Fatalf("flip should install the survivor list as the new active half, got %v", s.FromObjects)
	}
	if s.used != 16 {
		t.Fatalf("flip should set used to the byte count the caller reports, got %d", s.used)
	}
}

func TestRebuildAddressIndexCoversEverySpace(t *testing.T) {
	h := New()
	oldPage := h.Old.AddPage(1024)
	old := h.NewObject(KindHeapObject, 16, 0)
	h.Old.Place(oldPage, old)

	h.New = NewSemiSpace(256)
	young := h.NewObject(KindHeapObject, 16, 0)
	h.New.Place(young)

	large := h.NewObject(KindHeapObject, 4096, 0)
	h.Large.Place(large)

	h.RebuildAddressIndex()

	if h.ObjectAt(old.Addr) != old {
		t.Fatalf("address index should resolve the old-space object")
	}
	if h.ObjectAt(young.Addr) != young {
		t.Fatalf("address index should resolve the new-space object")
	}
	if h.ObjectAt(large.Addr) != large {
		t.Fatalf("address index should resolve the large object")
	}
	if h.ObjectAt(Address{Space: OldSpace, Page: 99, Offset: 0}) != nil {
		t.Fatalf("an address nothing occupies should resolve to nil")
	}
}

func TestIndexAddressExtendsTheIndexDuringRelocation(t *testing.T) {
	h := New()
	oldPage := h.Old.AddPage(1024)
	obj := h.NewObject(KindHeapObject, 16, 0)
	h.Old.Place(oldPage, obj)
	h.RebuildAddressIndex()

	moved := Address{Space: OldSpace, Page: 0, Offset: 512}
	h.IndexAddress(moved, obj.ID)

	if h.ObjectAt(moved) != obj {
		t.Fatalf("IndexAddress should make the new address resolve to the object immediately")
	}
	if h.ObjectAt(obj.Addr) != obj {
		t.Fatalf("IndexAddress should not evict the object's prior address entry")
	}
}
