package qstrtab

import "github.com/sorenby/quarkvm/internal/qheap"

type slotState uint8

const (
	slotEmpty slotState = iota
	slotDeleted
	slotLive
)

type slot struct {
	state slotState
	str   *String
}

// Table is the open-addressed interned-string table. It is the sole owner
// of every String it produces; interning the same byte sequence twice
// returns the same pointer.
type Table struct {
	slots []slot
	live  int // live entries
	used  int // live + deleted, the quantity load factor is measured against
	heap  *qheap.Heap

	builtins []*String
}

// New creates an interned-string table and wires its sweep hook into heap
// (phase 5 of mark-and-sweep calls the table's sweep, a no-op because
// DecRef already removes zero-refcount entries) if heap is non-nil.
func New(heap *qheap.Heap) *Table {
	t := &Table{heap: heap}
	t.resize(primes[0])
	if heap != nil {
		heap.SetStringTableSweeper(t.sweep)
		heap.RegisterRootProvider(builtinRootAdapter{t})
	}
	return t
}

// builtinRootAdapter satisfies qheap.RootProvider without requiring String
// to implement qheap.HeapObject (it doesn't: strings never join the
// general allocated list). Built-in strings are immune to refcount-zero
// removal, so there is nothing for the collector to actually mark; this
// exists so future object-model roots that reference built-ins by pointer
// have a single place to look them up, and to document the invariant.
type builtinRootAdapter struct{ t *Table }

func (b builtinRootAdapter) GCRoots() []qheap.HeapObject { return nil }

func (t *Table) resize(newSize uint32) {
	old := t.slots
	t.slots = make([]slot, newSize)
	t.live, t.used = 0, 0
	for _, s := range old {
		if s.state == slotLive {
			t.insertLive(s.str)
		}
	}
}

func (t *Table) insertLive(s *String) {
	idx := t.findSlot(s.hash, s.data)
	t.slots[idx] = slot{state: slotLive, str: s}
	t.live++
	t.used++
}

// findSlot probes for data/hash, returning the index of either a matching
// live slot or the first empty-or-deleted slot in the probe sequence.
func (t *Table) findSlot(hash uint32, data []byte) uint32 {
	n := uint32(len(t.slots))
	step := probeStep(hash)
	idx := hash % n
	firstFree := int64(-1)
	for {
		s := t.slots[idx]
		switch s.state {
		case slotEmpty:
			if firstFree >= 0 {
				return uint32(firstFree)
			}
			return idx
		case slotDeleted:
			if firstFree < 0 {
				firstFree = int64(idx)
			}
		case slotLive:
			if s.str.hash == hash && string(s.str.data) == string(data) {
				return idx
			}
		}
		idx = (idx + step) % n
	}
}

// Intern returns the canonical String for data, allocating and inserting
// it on first occurrence.
func (t *Table) Intern(data []byte) *String {
	hash := murmur2(data, 0)
	idx := t.findSlot(hash, data)
	if t.slots[idx].state == slotLive {
		return t.slots[idx].str
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	s := newString(owned, hash, t)
	s.flags = classifyFlags(owned)
	t.slots[idx] = slot{state: slotLive, str: s}
	t.live++
	t.used++

	t.maybeGrow()
	return s
}

// InternBuiltin interns a permanent engine string (property keys like
// "length", reserved words used as identifiers) that is never removed even
// at refcount zero, matching the design's built-in-strings-are-roots rule.
func (t *Table) InternBuiltin(data []byte) *String {
	s := t.Intern(data)
	s.setFlag(flagBuiltin)
	t.builtins = append(t.builtins, s)
	return s
}

// remove deletes s from the table. Called by String.DecRef when a
// non-built-in string's refcount reaches zero.
func (t *Table) remove(s *String) {
	idx := t.findSlot(s.hash, s.data)
	if t.slots[idx].state != slotLive {
		return
	}
	t.slots[idx] = slot{state: slotDeleted}
	t.live--
	t.maybeShrink()
}

// sweep is the hook mark-and-sweep's phase 5 calls; with refcounting as
// the only lifetime mechanism for strings, routine sweeps are no-ops
// (removal already happened synchronously in DecRef). It exists so a
// future weak string cache can be purged here without touching Heap.
func (t *Table) sweep() {}

const (
	growLoadNum, growLoadDen     = 3, 4 // 75%
	shrinkLoadNum, shrinkLoadDen = 1, 4 // 25%
)

func (t *Table) maybeGrow() {
	if t.heap != nil && t.heap.NoStringTableResize() {
		return
	}
	if uint64(t.used)*growLoadDen > uint64(len(t.slots))*growLoadNum {
		t.resize(nextPrime(uint32(2 * t.live)))
	}
}

func (t *Table) maybeShrink() {
	if t.heap != nil && t.heap.NoStringTableResize() {
		return
	}
	if len(t.slots) <= int(primes[0]) {
		return
	}
	if uint64(t.used)*shrinkLoadDen < uint64(len(t.slots))*shrinkLoadNum {
		t.resize(nextPrime(uint32(2 * t.live)))
	}
}

// Len returns the number of live interned strings.
func (t *Table) Len() int { return t.live }
