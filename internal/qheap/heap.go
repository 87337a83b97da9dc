// Package qheap implements the allocation lifecycle and the
// mark-and-sweep/refcount garbage collector shared by every heap-allocated
// value: interned strings, objects, and buffers.
package qheap

import (
	"github.com/google/uuid"
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qlog"
)

// AllocFailGCLimit is the number of alloc_checked/realloc_checked attempts
// (each failed one followed by a GC cycle) before the call gives up with an
// AllocError, matching spec's ALLOC_FAIL_GC_LIMIT. No fatal handler is
// invoked here; the error is returned to the caller.
const AllocFailGCLimit = 3

// allocFailGCLimitNormal is how many of those retries run a normal GC
// cycle before later retries escalate to emergency (compacting) cycles.
const allocFailGCLimitNormal = 1

// RootProvider is implemented by subsystems that own GC roots: the object
// model's global object, a thread's value/call/catch stacks, and the
// interned built-in string set. The collector asks every registered
// provider for its roots at the start of a mark-and-sweep cycle.
type RootProvider interface {
	GCRoots() []HeapObject
}

// AllocBudget lets a host simulate constrained-memory embeds: TryAlloc
// returns false to simulate allocation failure, driving the
// alloc_checked retry-with-GC loop. The zero value never fails.
type AllocBudget struct {
	LimitBytes int64 // 0 means unlimited
	used       int64
}

func (b *AllocBudget) tryAlloc(size int) bool {
	if b == nil || b.LimitBytes == 0 {
		return true
	}
	if b.used+int64(size) > b.LimitBytes {
		return false
	}
	b.used += int64(size)
	return true
}

func (b *AllocBudget) release(size int) {
	if b == nil || b.LimitBytes == 0 {
		return
	}
	b.used -= int64(size)
	if b.used < 0 {
		b.used = 0
	}
}

// Heap is the global collaborator shared by every thread: allocated list,
// refzero list, finalize list, and collector state.
type Heap struct {
	ID uuid.UUID

	budget *AllocBudget

	// allocated is the doubly-linked list of all live heap headers.
	allocatedHead *Header
	allocatedTail *Header
	allocatedLen  int

	refzero        []HeapObject
	refzeroRunning bool

	finalizeQueue []HeapObject

	roots []RootProvider

	// GC trigger budget: decremented on every refzero-driven free; a
	// voluntary GC is scheduled when it reaches zero.
	gcTriggerBudget      int
	gcTriggerBudgetReset int

	markAndSweepRunning bool
	noStringTableResize bool
	noFinalizers        bool
	emergency           bool

	stringTableSweeper func() // called during sweep to drop dead weak refs

	log   *qlog.Logger
	stats Stats
}

// Stats is a snapshot of heap counters, used by internal/qdebug.
type Stats struct {
	Allocated      int
	GCCycles       int
	Freed          int
	Finalized      int
	RefzeroFreed   int
	LastGCEmergency bool
}

// Option configures a new Heap.
type Option func(*Heap)

// WithAllocBudget bounds simulated allocation, for testing the
// alloc-retry-then-fatal path.
func WithAllocBudget(b *AllocBudget) Option { return func(h *Heap) { h.budget = b } }

// WithGCTriggerBudget sets how many refzero-driven frees occur between
// voluntary GC cycles.
func WithGCTriggerBudget(n int) Option {
	return func(h *Heap) { h.gcTriggerBudgetReset = n; h.gcTriggerBudget = n }
}

// WithLogger attaches a structured logger.
func WithLogger(l *qlog.Logger) Option { return func(h *Heap) { h.log = l } }

// New creates a heap with default limits.
func New(opts ...Option) *Heap {
	h := &Heap{
		ID:                   uuid.New(),
		gcTriggerBudgetReset: 1000,
		gcTriggerBudget:      1000,
		log:                  qlog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRootProvider adds a GC-root source. Called once by each of the
// object model, the call handler, and the string table during
// initialization.
func (h *Heap) RegisterRootProvider(p RootProvider) {
	h.roots = append(h.roots, p)
}

// SetStringTableSweeper installs the callback the collector invokes during
// sweep (phase 5) to drop string-cache weak references for strings that
// did not survive.
func (h *Heap) SetStringTableSweeper(fn func()) {
	h.stringTableSweeper = fn
}

// Stats returns a snapshot of heap counters.
func (h *Heap) Stats() Stats { return h.stats }

// link appends a header to the allocated list's tail.
func (h *Heap) link(hdr *Header) {
	hdr.prev = h.allocatedTail
	hdr.next = nil
	if h.allocatedTail != nil {
		h.allocatedTail.next = hdr
	} else {
		h.allocatedHead = hdr
	}
	h.allocatedTail = hdr
	h.allocatedLen++
}

// unlink removes a header from the allocated list in O(1) using the
// double link, matching spec's stated reason for keeping prev pointers.
func (h *Heap) unlink(hdr *Header) {
	if hdr.prev != nil {
		hdr.prev.next = hdr.next
	} else if h.allocatedHead == hdr {
		h.allocatedHead = hdr.next
	}
	if hdr.next != nil {
		hdr.next.prev = hdr.prev
	} else if h.allocatedTail == hdr {
		h.allocatedTail = hdr.prev
	}
	hdr.next, hdr.prev = nil, nil
	h.allocatedLen--
}

// Track registers a freshly constructed heap object on the allocated list.
// Every concrete constructor (qstrtab string interning, qobject.NewObject,
// buffer allocation) must call this exactly once.
func (h *Heap) Track(obj HeapObject) {
	hdr := obj.HeapHeader()
	h.link(hdr)
	h.stats.Allocated++
}

// AllocChecked simulates the alloc_checked primitive: on simulated
// allocation failure it runs GC cycles (escalating to emergency/compacting
// cycles on later retries) and retries up to AllocFailGCLimit times before
// returning an AllocError.
func (h *Heap) AllocChecked(size int) ([]byte, error) {
	for attempt := 0; attempt < AllocFailGCLimit; attempt++ {
		if h.budget.tryAlloc(size) {
			return make([]byte, size), nil
		}
		h.RunGC(attempt >= allocFailGCLimitNormal)
	}
	return nil, qerr.New(qerr.KindAlloc, "allocation of %d bytes failed after %d GC retries", size, AllocFailGCLimit)
}

// ReallocIndirect re-reads *slot after each GC retry, matching spec's
// realloc_indirect contract (the caller hands in the address of the
// pointer, not the pointer itself, since a GC cycle may run arbitrary
// finalizer script code that reallocates the same slot).
func (h *Heap) ReallocIndirect(slot *[]byte, newSize int) error {
	for attempt := 0; attempt < AllocFailGCLimit; attempt++ {
		cur := *slot
		if h.budget.tryAlloc(newSize) {
			h.budget.release(len(cur))
			grown := make([]byte, newSize)
			copy(grown, cur)
			*slot = grown
			return nil
		}
		h.RunGC(attempt >= allocFailGCLimitNormal)
	}
	return qerr.New(qerr.KindAlloc, "reallocation to %d bytes failed after %d GC retries", newSize, AllocFailGCLimit)
}

// ReleaseBytes credits size back to the allocation budget, for buffer
// shrink/free paths that don't go through ReallocIndirect.
func (h *Heap) ReleaseBytes(size int) { h.budget.release(size) }

// free unlinks and discards a header. Neither the refzero driver nor the
// sweep phase calls it (both unlink and count frees themselves), and
// higher layers never call it directly.
func (h *Heap) free(hdr *Header) {
	h.unlink(hdr)
	h.stats.Freed++
}
