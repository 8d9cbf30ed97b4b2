// Package symtab implements the symbol-table cleaner: the one root
// source whose entries act as weak references even though the table
// itself is marked as a strong, black root.
package symtab

import "github.com/markcompact/mcgc/heap"

// Table is the symbol table. Prefix is its always-live head, iterated
// as an ordinary strong root; Elements is the bulk array the cleaner
// alone gets to prune.
type Table struct {
	Object    *heap.Object
	Prefix    []*heap.Slot
	Elements  []*heap.Slot
	LiveCount int
}

// Clean walks Elements once the marking fixpoint has been reached and
// overwrites any slot whose referent is unmarked with the canonical
// null sentinel. It subtracts the number of entries removed from the
// table's LiveCount and also returns that number.
func Clean(h *heap.Heap, t *Table) (removed int) {
	for _, slot := range t.Elements {
		if slot == nil || slot.Ref == (heap.Address{}) {
			continue
		}
		obj := h.Deref(slot)
		if obj == nil || !obj.IsMarked() {
			slot.Ref = heap.Address{}
			removed++
		}
	}
	t.LiveCount -= removed
	return removed
}
