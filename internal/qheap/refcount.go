package qheap

import "github.com/sorenby/quarkvm/internal/qval"

// enqueueRefzero appends obj to the tail of the refzero list. If the
// driver loop is not already running, it starts it; if it is (we are
// inside a finalizer that just dropped its own last reference to
// something, or a sibling object), the object simply waits its turn —
// this is the REFZERO_FREE_RUNNING interlock from spec §4.2/§5.
func (h *Heap) enqueueRefzero(obj HeapObject) {
	hdr := obj.HeapHeader()
	h.unlink(hdr) // maintain "exactly one of allocated/refzero/finalize" invariant
	h.refzero = append(h.refzero, obj)
	if !h.refzeroRunning && !h.markAndSweepRunning {
		h.runRefzero()
	}
}

// runRefzero is the single non-reentrant driver loop. It must not be
// called recursively; enqueueRefzero enforces that by checking
// refzeroRunning before calling it.
func (h *Heap) runRefzero() {
	h.refzeroRunning = true
	defer func() { h.refzeroRunning = false }()

	for i := 0; i < len(h.refzero); i++ {
		obj := h.refzero[i]
		hdr := obj.HeapHeader()

		// A later entry may have been rescued (refcount bumped back up)
		// by the time we reach it in FIFO order; skip re-processing.
		if hdr.refcount > 0 {
			continue
		}

		if hdr.hasFlag(flagHasFinalizer) && !hdr.hasFlag(flagFinalized) {
			hdr.refcount++ // temporarily bump so Finalize sees a live object
			obj.Finalize()
			hdr.refcount-- // restore; raw decrement, does not re-enqueue
			hdr.setFlag(flagFinalized)
			if hdr.refcount > 0 {
				// Rescued: the finalizer retained a reference. Put it
				// back on the allocated list instead of freeing.
				h.link(hdr)
				continue
			}
		}

		obj.VisitOutbound(func(v qval.Value) { v.Release() })
		h.stats.Freed++
		h.stats.RefzeroFreed++

		h.debitGCTriggerBudget()
	}
	h.refzero = h.refzero[:0]
}

// debitGCTriggerBudget schedules a voluntary GC cycle once the per-cycle
// counter reaches zero, matching spec's trigger-budget design.
func (h *Heap) debitGCTriggerBudget() {
	if h.gcTriggerBudgetReset <= 0 {
		return
	}
	h.gcTriggerBudget--
	if h.gcTriggerBudget <= 0 {
		h.gcTriggerBudget = h.gcTriggerBudgetReset
		h.RunGC(false)
	}
}
