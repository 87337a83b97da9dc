package qheap

import "github.com/sorenby/quarkvm/internal/qval"

// HeapKind is the heap-allocated type tag carried in a Header's low bits.
type HeapKind uint8

const (
	KindString HeapKind = 1
	KindObject HeapKind = 2
	KindBuffer HeapKind = 3
)

// flagBits are the reachability/lifecycle bits that would live in the upper
// bits of the C header's "flags" word alongside the type tag. Kept as a
// separate field here since Go has no bitfield-over-tag aliasing need.
type flagBits uint32

const (
	flagReachable flagBits = 1 << iota
	flagTemproot
	flagFinalizable
	flagFinalized
	flagHasFinalizer
	flagUser
)

// HeapObject is implemented by every concrete heap-allocated type (interned
// strings, objects, buffers). The heap and collector operate on this
// interface rather than on concrete types.
type HeapObject interface {
	qval.RefCounted
	HeapHeader() *Header
	// VisitOutbound calls fn once for every Value this object owns a
	// strong reference to. Used by refcount-finalize (phase 4 of mark-
	// and-sweep) and by the refzero driver's free step.
	VisitOutbound(fn func(qval.Value))
	// Mark calls fn for every HeapObject this object references directly
	// (its GC children), used by the collector's recursive marker.
	Mark(fn func(HeapObject))
	// Finalize runs the script-visible finalizer, if any. Only invoked
	// when flagHasFinalizer is set; otherwise a no-op.
	Finalize()
}

// Header is the common prefix of every heap-allocated cell: flags,
// refcount, and allocated-list links.
type Header struct {
	kind     HeapKind
	flags    flagBits
	refcount uint32
	next     *Header
	prev     *Header
	heap     *Heap
	self     HeapObject
}

// Init wires the header to its owning heap and concrete object. Concrete
// constructors (qstrtab.String, qobject.Object, buffer types) must call
// this once before the header is used.
func (h *Header) Init(kind HeapKind, heap *Heap, self HeapObject) {
	h.kind = kind
	h.heap = heap
	h.self = self
	h.refcount = 0
}

// IncRef implements qval.RefCounted.
func (h *Header) IncRef() { h.refcount++ }

// DecRef implements qval.RefCounted. Reaching zero enqueues the object onto
// the heap's refzero list rather than freeing synchronously, matching
// spec's refzero-list-then-driver-loop design.
func (h *Header) DecRef() {
	if h.refcount == 0 {
		return
	}
	h.refcount--
	if h.refcount == 0 && h.heap != nil {
		h.heap.enqueueRefzero(h.self)
	}
}

// HeapKind implements qval.RefCounted.
func (h *Header) HeapKind() uint8 { return uint8(h.kind) }

// Kind returns the heap type tag as a HeapKind.
func (h *Header) Kind() HeapKind { return h.kind }

// Refcount returns the current refcount, mainly for tests/introspection.
func (h *Header) Refcount() uint32 { return h.refcount }

// SetFinalizer marks the object as having a script-visible finalizer. The
// collector and the refzero driver consult this flag before invoking
// Finalize.
func (h *Header) SetFinalizer(has bool) {
	if has {
		h.flags |= flagHasFinalizer
	} else {
		h.flags &^= flagHasFinalizer
	}
}

func (h *Header) hasFlag(f flagBits) bool  { return h.flags&f != 0 }
func (h *Header) setFlag(f flagBits)       { h.flags |= f }
func (h *Header) clearFlag(f flagBits)     { h.flags &^= f }
func (h *Header) clearReachability()       { h.flags &^= flagReachable | flagTemproot | flagFinalizable }
