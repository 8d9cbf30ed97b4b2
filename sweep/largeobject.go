package sweep

import (
	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/tracer"
)

// LargeObjectSweeper implements 4.4: it runs ahead of either branch,
// delinking and deallocating every unmarked large object and clearing
// the mark of every survivor. Large objects never move, so this is
// the only sweep step both branches share unmodified.
type LargeObjectSweeper struct {
	Heap   *heap.Heap
	Tracer tracer.Tracer
}

// Sweep removes every unmarked entry from the large-object list and
// deletes it from the registry, then clears the mark bit of every
// entry that survived.
func (s *LargeObjectSweeper) Sweep() {
	survivors := s.Heap.Large.Objects[:0:0]
	for _, id := range s.Heap.Large.Objects {
		obj := s.Heap.Objects[id]
		if !obj.IsMarked() {
			delete(s.Heap.Objects, id)
			continue
		}
		obj.ClearMark(obj.MapID())
		s.Tracer.DecrementMarkedCount()
		survivors = append(survivors, id)
	}
	s.Heap.Large.Objects = survivors
}
