package heap

import "github.com/markcompact/mcgc/mapword"

// ObjectID is a stable handle to an object, independent of its
// current address. Body pointers never use it directly -- they store
// Address values, exactly like real pointers -- but the registry and
// the marking stack need a stable key, and ids double as 4-byte
// aligned "map addresses" so mapword.Word's low two bits stay free for
// the mark/overflow flags.
type ObjectID uint32

// Kind distinguishes the handful of object categories the collector
// treats specially; it stands in for the object model's IsMap, IsCode,
// IsJSGlobalObject and string-type predicates.
type Kind uint8

const (
	KindHeapObject Kind = iota
	KindMap
	KindCode
	KindString
	KindConsString
	KindJSGlobalObject
	KindSymbolTable
	KindFiller
)

// ForwardRef is the destination a new-space object has been assigned
// by the forwarding-address encoder. Paged-space objects need no
// separate record: their destination is fully captured by the
// three-field encoding written into Object.Word (see Compacted),
// exactly as the design stores it. New space never overwrites its
// objects' map words, so it needs this side record instead, mirroring
// the source's "store a full address in from-space" alternative.
type ForwardRef struct {
	Set     bool
	Plain   Address
	Promote bool // true if the object left new space entirely
}

// ICTarget is a single inline-cache reference carried by a code
// object. IsAddress records whether the reference is presently in address
// form (a raw PC) or object form (a pointer into the target code
// object's header); the marker flips this when compacting so the
// pointer updater can relocate it like any other body pointer.
type ICTarget struct {
	Slot      *Slot
	IsAddress bool
	IsStub    bool
}

// Object is one heap-resident object: either a user-visible heap
// object or one of the collector's infrastructure objects (maps,
// code, the symbol table).
type Object struct {
	ID   ObjectID
	Kind Kind
	Size int // bytes; always a positive multiple of WordSize

	// Word is the object's literal header field. Outside of a
	// collection it is a tagged map pointer; compact.Encoder
	// temporarily overwrites it with a forwarding encoding for
	// objects in paged spaces. Compacted distinguishes the two
	// regimes explicitly rather than relying on bit-pattern
	// disambiguation, trading the one-word overhead the design notes
	// call out for a safer implementation.
	Word      mapword.Word
	Compacted bool

	Addr    Address
	Forward ForwardRef // new-space forwarding target; written by the encoder
	Body    []*Slot    // outgoing references; mutated in place by the updater

	// Cons-string shortcut bookkeeping. ConsRight holds the slot for the
	// right-hand component; the marker inspects the referent's
	// IsEmptyString flag, it does not special-case this field.
	ConsLeft, ConsRight *Slot

	IsEmptyString bool

	ICTargets []*ICTarget

	// DebugTargets holds a code object's JS-return call-site
	// references: the relocation-info entries a debugger uses to find
	// the code object a call instruction returns into. Unlike an
	// ICTarget these are always in object form, never flipped to a raw
	// address, so they relocate exactly like an ordinary body pointer.
	DebugTargets []*Slot

	// CodeCache is non-nil on KindMap objects; cleanup_caches_in_maps_at_gc
	// asks the marker to clear it before recursing into it.
	CodeCache []*Slot
}

// IsMarked, IsOverflowed mirror the object model's predicates of the
// same name; they are meaningless once Compacted is true.
func (o *Object) IsMarked() bool     { return o.Word.IsMarked() }
func (o *Object) IsOverflowed() bool { return o.Word.IsOverflowed() }

func (o *Object) SetMark()      { o.Word = o.Word.SetMark() }
func (o *Object) SetOverflow()  { o.Word = o.Word.SetOverflow() }
func (o *Object) ClearOverflow() { o.Word = o.Word.ClearOverflow() }

// ClearMark resets the header word to a plain map pointer with both
// flags clear. Valid any time; used both to initialize a fresh object
// and to restore one after a collection.
func (o *Object) ClearMark(mapID ObjectID) {
	o.Word = mapword.NewMapPointer(uint32(mapID))
}

// MapID returns the object's current map pointer. Only valid when
// Compacted is false.
func (o *Object) MapID() ObjectID { return ObjectID(o.Word.MapAddress()) }
