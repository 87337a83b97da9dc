package qobject

import (
	"math"

	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// arrayIndex reports whether key encodes a valid array index (a canonical
// decimal representation of a uint32 other than the all-ones sentinel),
// returning the index and true if so.
func arrayIndex(key *qstrtab.String) (uint32, bool) {
	b := key.Bytes()
	if len(b) == 0 || len(b) > 10 {
		return 0, false
	}
	if b[0] == '0' && len(b) > 1 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > math.MaxUint32 {
			return 0, false
		}
	}
	if n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// findEntry returns the index of key within o.entries, or -1 if absent.
// It consults the hash part when present, otherwise performs a linear
// scan, matching the design's two-mode find_entry.
func (o *Object) findEntry(key *qstrtab.String) int {
	if o.hashIdx != nil {
		return o.findEntryHashed(key)
	}
	for i := range o.entries {
		if !o.entries[i].deleted && o.entries[i].key == key {
			return i
		}
	}
	return -1
}

func (o *Object) findEntryHashed(key *qstrtab.String) int {
	n := uint32(len(o.hashIdx))
	hash := key.Hash()
	step := probeStep(hash)
	idx := hash % n
	for {
		h := o.hashIdx[idx]
		switch h {
		case hashEmpty:
			return -1
		case hashDeleted:
			// keep probing
		default:
			if !o.entries[h].deleted && o.entries[h].key == key {
				return int(h)
			}
		}
		idx = (idx + step) % n
	}
}

// GetOwn returns the own value at key on o, without walking the prototype
// chain and without invoking accessors. ok is false if the own property
// does not exist.
func (o *Object) GetOwn(key *qstrtab.String) (qval.Value, bool) {
	if idx, ok := arrayIndex(key); ok && o.HasFlag(FlagArrayPart) {
		if int(idx) < len(o.arrayHas) && o.arrayHas[idx] {
			return o.arrayPart[idx], true
		}
		return qval.Undefined(), false
	}
	i := o.findEntry(key)
	if i < 0 {
		return qval.Undefined(), false
	}
	e := &o.entries[i]
	if e.attrs&AttrAccessor != 0 {
		return e.getter, true // caller (Get) is responsible for invoking it
	}
	return e.value, true
}

// OwnAttr returns the attribute bits of an own property, or 0, false if
// absent.
func (o *Object) OwnAttr(key *qstrtab.String) (Attr, bool) {
	if idx, ok := arrayIndex(key); ok && o.HasFlag(FlagArrayPart) {
		if int(idx) < len(o.arrayHas) && o.arrayHas[idx] {
			return DefaultDataAttrs, true
		}
		return 0, false
	}
	i := o.findEntry(key)
	if i < 0 {
		return 0, false
	}
	return o.entries[i].attrs, true
}

// CallGetter is implemented by the call layer (internal/qcall) and passed
// in to Get so the object model never imports the call handler.
type CallGetter func(getter qval.Value, this qval.Value) (qval.Value, error)

// Get implements the full prototype-chain lookup, invoking accessor
// getters with receiver as `this`.
func (o *Object) Get(receiver qval.Value, key *qstrtab.String, call CallGetter) (qval.Value, error) {
	cur := o
	for depth := 0; cur != nil; depth++ {
		if depth > prototypeChainLimit {
			return qval.Undefined(), qerr.New(qerr.KindInternal, "prototype chain too long")
		}
		if idx, ok := arrayIndex(key); ok && cur.HasFlag(FlagArrayPart) {
			if int(idx) < len(cur.arrayHas) && cur.arrayHas[idx] {
				return cur.arrayPart[idx], nil
			}
			cur = cur.proto
			continue
		}
		i := cur.findEntry(key)
		if i >= 0 {
			e := &cur.entries[i]
			if e.attrs&AttrAccessor != 0 {
				if e.getter.IsUndefined() || call == nil {
					return qval.Undefined(), nil
				}
				return call(e.getter, receiver)
			}
			return e.value, nil
		}
		cur = cur.proto
	}
	return qval.Undefined(), nil
}

// Has reports whether key is present anywhere in the prototype chain.
func (o *Object) Has(key *qstrtab.String) bool {
	cur := o
	for depth := 0; cur != nil; depth++ {
		if depth > prototypeChainLimit {
			return false
		}
		if idx, ok := arrayIndex(key); ok && cur.HasFlag(FlagArrayPart) {
			if int(idx) < len(cur.arrayHas) && cur.arrayHas[idx] {
				return true
			}
			cur = cur.proto
			continue
		}
		if cur.findEntry(key) >= 0 {
			return true
		}
		cur = cur.proto
	}
	return false
}

// CallSetter mirrors CallGetter for accessor setters.
type CallSetter func(setter qval.Value, this qval.Value, v qval.Value) error

// Put implements [[Put]]: own-property shadowing, extensibility and
// writability checks along the prototype chain, and the strict-mode
// failure policy. receiver is the original receiver value; o is the object
// the chain walk starts from.
func (o *Object) Put(receiver qval.Value, key *qstrtab.String, v qval.Value, strict bool, call CallSetter) error {
	if idx, ok := arrayIndex(key); ok && o.HasFlag(FlagArrayPart) {
		o.arraySet(idx, v)
		if o.HasFlag(FlagSpecialArray) {
			o.maybeGrowLength(idx)
		}
		return nil
	}

	// Walk the chain looking for an existing own property, or a setter.
	cur := o
	for depth := 0; cur != nil; depth++ {
		if depth > prototypeChainLimit {
			return qerr.New(qerr.KindInternal, "prototype chain too long")
		}
		i := cur.findEntry(key)
		if i >= 0 {
			e := &cur.entries[i]
			if e.attrs&AttrAccessor != 0 {
				if e.setter.IsUndefined() || call == nil {
					if strict {
						return qerr.New(qerr.KindTypeError, "setter undefined for property")
					}
					return nil
				}
				return call(e.setter, receiver, v)
			}
			if cur == o {
				if e.attrs&AttrWritable == 0 {
					if strict {
						return qerr.New(qerr.KindTypeError, "property is not writable")
					}
					return nil
				}
				e.value = v
				return nil
			}
			if e.attrs&AttrWritable == 0 {
				if strict {
					return qerr.New(qerr.KindTypeError, "property is not writable")
				}
				return nil
			}
			break // found a writable inherited data property; fall through to own-create
		}
		cur = cur.proto
	}

	if !o.HasFlag(FlagExtensible) {
		if strict {
			return qerr.New(qerr.KindTypeError, "object is not extensible")
		}
		return nil
	}
	o.putNewOwn(key, v, DefaultDataAttrs)
	return nil
}

// putNewOwn inserts a brand-new own data property, growing the entries
// part (and the hash part, once past the linear-scan threshold) as
// needed.
func (o *Object) putNewOwn(key *qstrtab.String, v qval.Value, attrs Attr) {
	key.IncRef()
	v.Retain()
	o.entries = append(o.entries, entry{key: key, value: v, attrs: attrs})
	o.eUsed++
	if o.hashIdx != nil || o.eUsed > entriesLinearThreshold {
		o.rebuildHash()
	}
}

func (o *Object) rebuildHash() {
	n := nextHashPrime(uint32(o.eUsed) * 2)
	idxTable := make([]int32, n)
	for i := range idxTable {
		idxTable[i] = hashEmpty
	}
	o.hashIdx = idxTable
	for i := range o.entries {
		if o.entries[i].deleted {
			continue
		}
		o.insertHash(int32(i), o.entries[i].key.Hash())
	}
}

func (o *Object) insertHash(entryIdx int32, hash uint32) {
	n := uint32(len(o.hashIdx))
	step := probeStep(hash)
	idx := hash % n
	for o.hashIdx[idx] != hashEmpty && o.hashIdx[idx] != hashDeleted {
		idx = (idx + step) % n
	}
	o.hashIdx[idx] = entryIdx
}

// Delete implements [[Delete]]. Honors configurability; strict-mode
// deletion of a non-configurable own property throws.
func (o *Object) Delete(key *qstrtab.String, strict bool) (bool, error) {
	if idx, ok := arrayIndex(key); ok && o.HasFlag(FlagArrayPart) {
		if int(idx) < len(o.arrayHas) && o.arrayHas[idx] {
			o.arrayPart[idx].Release()
			o.arrayHas[idx] = false
			o.arrayPart[idx] = qval.Undefined()
		}
		return true, nil
	}
	i := o.findEntry(key)
	if i < 0 {
		return true, nil
	}
	e := &o.entries[i]
	if e.attrs&AttrConfigurable == 0 {
		if strict {
			return false, qerr.New(qerr.KindTypeError, "property is not configurable")
		}
		return false, nil
	}
	if e.attrs&AttrAccessor != 0 {
		e.getter.Release()
		e.setter.Release()
	} else {
		e.value.Release()
	}
	e.key.DecRef()
	e.deleted = true
	e.key = nil
	if o.hashIdx != nil {
		o.markHashDeleted(key)
	}
	return true, nil
}

func (o *Object) markHashDeleted(key *qstrtab.String) {
	n := uint32(len(o.hashIdx))
	hash := key.Hash()
	step := probeStep(hash)
	idx := hash % n
	for {
		h := o.hashIdx[idx]
		if h == hashEmpty {
			return
		}
		if h >= 0 && o.entries[h].deleted {
			o.hashIdx[idx] = hashDeleted
			return
		}
		idx = (idx + step) % n
	}
}

// Define implements a pragmatic subset of [[DefineOwnProperty]]: full
// descriptor replacement (value/attrs or accessor pair), including the
// array-part abandonment required when an index property needs non-default
// attributes.
func (o *Object) Define(key *qstrtab.String, v qval.Value, attrs Attr, accessor bool, getter, setter qval.Value) {
	if idx, ok := arrayIndex(key); ok && o.HasFlag(FlagArrayPart) {
		if !accessor && attrs == DefaultDataAttrs {
			o.arraySet(idx, v)
			return
		}
		o.abandonArrayPart()
	}
	if i := o.findEntry(key); i >= 0 {
		e := &o.entries[i]
		if e.attrs&AttrAccessor != 0 {
			e.getter.Release()
			e.setter.Release()
		} else {
			e.value.Release()
		}
		e.attrs = attrs
		if accessor {
			e.attrs |= AttrAccessor
			getter.Retain()
			setter.Retain()
			e.getter, e.setter = getter, setter
		} else {
			e.attrs &^= AttrAccessor
			v.Retain()
			e.value = v
		}
		return
	}
	key.IncRef()
	e := entry{key: key, attrs: attrs}
	if accessor {
		e.attrs |= AttrAccessor
		getter.Retain()
		setter.Retain()
		e.getter, e.setter = getter, setter
	} else {
		v.Retain()
		e.value = v
	}
	o.entries = append(o.entries, e)
	o.eUsed++
	if o.hashIdx != nil || o.eUsed > entriesLinearThreshold {
		o.rebuildHash()
	}
}
