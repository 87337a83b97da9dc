package qobject

// Compact implements qheap.CompactHook: rebuilds the three-part storage at
// minimum viable sizes. Invoked only during emergency (compacting) GC
// cycles, per the design's "on demand" compaction description.
func (o *Object) Compact() {
	o.compactEntries()
	o.compactArray()
}

// compactEntries drops tombstoned slots and, if the live count has fallen
// back below the linear-scan threshold, drops the hash part entirely.
func (o *Object) compactEntries() {
	live := 0
	for _, e := range o.entries {
		if !e.deleted {
			live++
		}
	}
	if live == len(o.entries) && (o.hashIdx == nil || live > entriesLinearThreshold) {
		return
	}
	fresh := make([]entry, 0, live)
	for _, e := range o.entries {
		if !e.deleted {
			fresh = append(fresh, e)
		}
	}
	o.entries = fresh
	o.eUsed = len(fresh)
	if o.eUsed <= entriesLinearThreshold {
		o.hashIdx = nil
	} else {
		o.rebuildHash()
	}
}

// compactArray shrinks the array part to the highest used index + 1.
func (o *Object) compactArray() {
	if !o.HasFlag(FlagArrayPart) {
		return
	}
	last := -1
	for i, has := range o.arrayHas {
		if has {
			last = i
		}
	}
	n := last + 1
	if n < len(o.arrayPart) {
		o.arrayPart = o.arrayPart[:n]
		o.arrayHas = o.arrayHas[:n]
	}
}
