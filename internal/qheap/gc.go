package qheap

import "github.com/sorenby/quarkvm/internal/qval"

// markRecursionLimit bounds native call-stack depth spent marking a single
// chain of references; objects past this depth are flagged TEMPROOT and
// reprocessed by rescanTemproots instead.
const markRecursionLimit = 256

// RunGC performs one stop-the-world mark-and-sweep cycle. It is a no-op if
// a cycle is already in progress (the collector is not reentrant).
// emergency enables object compaction (internal/qobject's Object
// implements CompactHook for this).
func (h *Heap) RunGC(emergency bool) {
	if h.markAndSweepRunning {
		return
	}
	h.markAndSweepRunning = true
	h.emergency = emergency
	defer func() {
		h.markAndSweepRunning = false
		h.emergency = false
	}()

	h.stats.GCCycles++
	h.stats.LastGCEmergency = emergency

	h.markRoots()
	h.rescanTemproots()

	h.markFinalizable()
	h.rescanTemproots()

	h.refcountFinalize()

	h.sweep()

	h.runFinalizeQueue()

	if h.emergency {
		h.compact()
	}
}

// IsRunning reports whether a mark-and-sweep cycle is currently active.
func (h *Heap) IsRunning() bool { return h.markAndSweepRunning }

// Phase 1: mark every GC root and, recursively, everything reachable from
// it. Objects still waiting in the refzero list are roots too: they are
// unreachable from normal roots by construction, but must survive this
// cycle since the refzero driver (not the collector) owns their fate.
func (h *Heap) markRoots() {
	for _, p := range h.roots {
		for _, r := range p.GCRoots() {
			h.markRecursive(r, 0)
		}
	}
	for _, r := range h.refzero {
		h.markRecursive(r, 0)
	}
}

// Phase 2: any still-unreachable object carrying a live finalizer is
// tagged FINALIZABLE and its own transitive closure is marked, so the
// finalizer sees a fully intact object graph when it runs after sweep.
func (h *Heap) markFinalizable() {
	for hdr := h.allocatedHead; hdr != nil; hdr = hdr.next {
		if !hdr.hasFlag(flagReachable) && hdr.hasFlag(flagHasFinalizer) && !hdr.hasFlag(flagFinalized) {
			hdr.setFlag(flagFinalizable)
			h.markRecursive(hdr.self, 0)
		}
	}
}

// markRecursive marks obj reachable and recurses into its children,
// bounded by markRecursionLimit.
func (h *Heap) markRecursive(obj HeapObject, depth int) {
	if obj == nil {
		return
	}
	hdr := obj.HeapHeader()
	if hdr.hasFlag(flagReachable) {
		return
	}
	hdr.setFlag(flagReachable)
	if depth >= markRecursionLimit {
		hdr.setFlag(flagTemproot)
		return
	}
	obj.Mark(func(child HeapObject) { h.markRecursive(child, depth+1) })
}

// rescanTemproots repeatedly re-marks every TEMPROOT object (with a fresh
// recursion budget) until none remain, bounding native stack usage while
// preserving mark completeness.
func (h *Heap) rescanTemproots() {
	for {
		var found []HeapObject
		for hdr := h.allocatedHead; hdr != nil; hdr = hdr.next {
			if hdr.hasFlag(flagTemproot) {
				found = append(found, hdr.self)
			}
		}
		if len(found) == 0 {
			return
		}
		for _, obj := range found {
			obj.HeapHeader().clearFlag(flagTemproot)
			obj.Mark(func(child HeapObject) { h.markRecursive(child, 0) })
		}
	}
}

// Phase 4: for every unreachable header, decref its outbound references so
// a freed object never leaves a dangling refcount on a survivor it shared
// via a cycle. This is pure bookkeeping (no enqueue, no finalizer trigger).
func (h *Heap) refcountFinalize() {
	for hdr := h.allocatedHead; hdr != nil; hdr = hdr.next {
		if hdr.hasFlag(flagReachable) {
			continue
		}
		hdr.self.VisitOutbound(func(v qval.Value) {
			ref := v.AsRef()
			if ref == nil {
				return
			}
			ho, ok := ref.(HeapObject)
			if !ok {
				return
			}
			childHdr := ho.HeapHeader()
			if childHdr.refcount > 0 {
				childHdr.refcount--
			}
		})
	}
}

// Phase 5: sweep. Survivors are re-linked onto the allocated list,
// finalizable survivors move to the finalize queue, and everything else is
// dropped. Reachability flags are cleared on anything kept; finalize-queue
// entries keep FINALIZABLE until runFinalizeQueue clears it.
func (h *Heap) sweep() {
	hdr := h.allocatedHead
	var survivors, toFinalize []*Header
	var freedCount int

	for hdr != nil {
		next := hdr.next
		switch {
		case hdr.hasFlag(flagFinalizable):
			toFinalize = append(toFinalize, hdr)
		case hdr.hasFlag(flagReachable):
			survivors = append(survivors, hdr)
		default:
			freedCount++
		}
		hdr = next
	}

	h.allocatedHead, h.allocatedTail, h.allocatedLen = nil, nil, 0
	for _, s := range survivors {
		s.clearReachability()
		h.link(s)
	}
	for _, f := range toFinalize {
		f.clearFlag(flagReachable)
		// flagFinalizable stays set; runFinalizeQueue clears it once the
		// finalizer has actually run.
		h.link(f)
		h.finalizeQueue = append(h.finalizeQueue, f.self)
	}

	h.stats.Freed += freedCount

	if h.stringTableSweeper != nil {
		h.stringTableSweeper()
	}
}

// runFinalizeQueue invokes finalizers for objects sweep moved to the
// finalize queue, with NO_FINALIZERS and NO_STRINGTABLE_RESIZE set to
// suppress reentrancy hazards while inside this sensitive section.
func (h *Heap) runFinalizeQueue() {
	if len(h.finalizeQueue) == 0 {
		return
	}
	h.noFinalizers = true
	h.noStringTableResize = true
	defer func() {
		h.noFinalizers = false
		h.noStringTableResize = false
	}()

	queue := h.finalizeQueue
	h.finalizeQueue = nil
	for _, obj := range queue {
		hdr := obj.HeapHeader()
		if hdr.hasFlag(flagFinalized) {
			hdr.clearFlag(flagFinalizable)
			continue
		}
		obj.Finalize()
		hdr.setFlag(flagFinalized)
		hdr.clearFlag(flagFinalizable)
		h.stats.Finalized++
	}
}

// CompactHook is implemented by internal/qobject to rebuild an object's
// three-part storage at tight sizes. Invoked only during emergency
// (compacting) GC cycles, on every surviving allocated-list object that
// implements it — no separate registration needed.
type CompactHook interface {
	Compact()
}

func (h *Heap) compact() {
	for hdr := h.allocatedHead; hdr != nil; hdr = hdr.next {
		if c, ok := hdr.self.(CompactHook); ok {
			c.Compact()
		}
	}
}

// NoFinalizers reports whether finalizer execution is currently suppressed.
func (h *Heap) NoFinalizers() bool { return h.noFinalizers }

// NoStringTableResize reports whether string-table resizing is currently
// suppressed (true during both mark-and-sweep and finalizer execution).
func (h *Heap) NoStringTableResize() bool {
	return h.markAndSweepRunning || h.noStringTableResize
}
