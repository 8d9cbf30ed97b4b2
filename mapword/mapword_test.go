package mapword

import "testing"

func TestMapPointerRoundTrip(t *testing.T) {
	w := NewMapPointer(4)
	if w.MapAddress() != 4 {
		t.Fatalf("MapAddress() = %d, want 4", w.MapAddress())
	}
	if w.IsMarked() || w.IsOverflowed() {
		t.Fatalf("fresh map pointer should carry neither flag")
	}
}

func TestMarkAndOverflowBitsDontDisturbMapAddress(t *testing.T) {
	w := NewMapPointer(128)
	w = w.SetMark()
	w = w.SetOverflow()
	if !w.IsMarked() || !w.IsOverflowed() {
		t.Fatalf("expected both flags set")
	}
	if w.MapAddress() != 128 {
		t.Fatalf("MapAddress() = %d, want 128 after setting flags", w.MapAddress())
	}
	w = w.ClearOverflow()
	if w.IsOverflowed() {
		t.Fatalf("ClearOverflow should clear the bit")
	}
	if !w.IsMarked() {
		t.Fatalf("ClearOverflow should not disturb the mark bit")
	}
}

func TestForwardingRoundTrip(t *testing.T) {
	cases := []struct{ mapPage, mapOff, live int }{
		{0, 0, 0},
		{5, 100, 200},
		{MaxMapPages - 2, MaxPageByteOffset - 1, MaxLiveOffset - 1},
	}
	for _, c := range cases {
		w := EncodeForwarding(c.mapPage, c.mapOff, c.live)
		gotPage, gotOff, gotLive := w.DecodeForwarding()
		if gotPage != c.mapPage || gotOff != c.mapOff || gotLive != c.live {
			t.Errorf("EncodeForwarding(%d,%d,%d) round-tripped to (%d,%d,%d)",
				c.mapPage, c.mapOff, c.live, gotPage, gotOff, gotLive)
		}
	}
}

func TestEncodeForwardingRejectsOutOfRangeFields(t *testing.T) {
	mustPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		f()
	}
	mustPanic("page too big", func() { EncodeForwarding(MaxMapPages-1, 0, 0) })
	mustPanic("offset too big", func() { EncodeForwarding(0, MaxPageByteOffset, 0) })
	mustPanic("live too big", func() { EncodeForwarding(0, 0, MaxLiveOffset) })
	mustPanic("negative page", func() { EncodeForwarding(-1, 0, 0) })
}

func TestFreeRegionSentinelsAreDistinguishableFromForwarding(t *testing.T) {
	single := SingleWordFree()
	multi := MultiWordFree()
	if !single.IsSingleWordFree() || single.IsMultiWordFree() {
		t.Fatalf("SingleWordFree misclassified")
	}
	if !multi.IsMultiWordFree() || multi.IsSingleWordFree() {
		t.Fatalf("MultiWordFree misclassified")
	}
	if !single.IsFreeEncoding() || !multi.IsFreeEncoding() {
		t.Fatalf("sentinels should report IsFreeEncoding")
	}

	// No legal forwarding encoding can collide with either sentinel:
	// EncodeForwarding refuses the reserved top page index outright.
	for _, mapPage := range []int{0, 1, MaxMapPages - 2} {
		w := EncodeForwarding(mapPage, 0, 0)
		if w.IsFreeEncoding() {
			t.Errorf("legal forwarding encoding (page %d) collided with a free sentinel", mapPage)
		}
	}
}
