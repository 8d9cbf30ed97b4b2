package mark

import (
	"testing"

	"github.com/markcompact/mcgc/heap"
)

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack(4)
	for _, id := range []heap.ObjectID{4, 8, 12} {
		if !s.Push(id) {
			t.Fatalf("Push(%d) unexpectedly reported no room", id)
		}
	}
	for _, want := range []heap.ObjectID{12, 8, 4} {
		got, ok := s.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if !s.Empty() {
		t.Fatalf("stack should be empty after draining every push")
	}
}

func TestStackSignalsOverflowInsteadOfErroring(t *testing.T) {
	s := NewStack(2)
	if !s.Push(4) || !s.Push(8) {
		t.Fatalf("first two pushes should have room")
	}
	if s.Push(12) {
		t.Fatalf("third push should report no room, not succeed")
	}
	s.SetOverflowed(true)
	if !s.Overflowed() {
		t.Fatalf("Overflowed() should reflect SetOverflowed(true)")
	}
	s.Clear()
	if !s.Empty() || s.Len() != 0 {
		t.Fatalf("Clear() should empty the stack")
	}
}
