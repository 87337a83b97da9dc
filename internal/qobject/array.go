package qobject

import "github.com/sorenby/quarkvm/internal/qval"

// EnableArrayPart activates the array part for a fresh Array object.
func (o *Object) EnableArrayPart() {
	o.SetFlag(FlagArrayPart)
}

func (o *Object) arraySet(idx uint32, v qval.Value) {
	if int(idx) >= len(o.arrayPart) {
		o.growArrayTo(int(idx) + 1)
	}
	if o.arrayHas[idx] {
		o.arrayPart[idx].Release()
	}
	v.Retain()
	o.arrayPart[idx] = v
	o.arrayHas[idx] = true
}

func (o *Object) growArrayTo(n int) {
	if n <= len(o.arrayPart) {
		return
	}
	newPart := make([]qval.Value, n)
	newHas := make([]bool, n)
	copy(newPart, o.arrayPart)
	copy(newHas, o.arrayHas)
	for i := len(o.arrayPart); i < n; i++ {
		newPart[i] = qval.Undefined()
	}
	o.arrayPart = newPart
	o.arrayHas = newHas
}

// maybeGrowLength enforces the special-array length contract: assigning
// past the current length auto-grows it.
func (o *Object) maybeGrowLength(idx uint32) {
	lenKey := o.internedLengthKey
	if lenKey == nil {
		return
	}
	i := o.findEntry(lenKey)
	if i < 0 {
		return
	}
	cur := uint32(o.entries[i].value.AsNumber())
	if idx+1 > cur {
		o.entries[i].value = qval.Number(float64(idx + 1))
	}
}

// TruncateArrayLength implements the Array "length" setter's truncation
// side effect: shrinking length releases every slot at or above the new
// length.
func (o *Object) TruncateArrayLength(newLen uint32) {
	for i := int(newLen); i < len(o.arrayHas); i++ {
		if o.arrayHas[i] {
			o.arrayPart[i].Release()
			o.arrayHas[i] = false
			o.arrayPart[i] = qval.Undefined()
		}
	}
	if int(newLen) < len(o.arrayPart) {
		o.arrayPart = o.arrayPart[:newLen]
		o.arrayHas = o.arrayHas[:newLen]
	}
}

// density returns the fraction of array-part slots that are populated.
func (o *Object) density() float64 {
	if len(o.arrayHas) == 0 {
		return 1
	}
	n := 0
	for _, has := range o.arrayHas {
		if has {
			n++
		}
	}
	return float64(n) / float64(len(o.arrayHas))
}

// abandonArrayPart moves every populated array slot into the entries part
// as a fully-attributed own property, then disables the array part. Called
// when density drops below the abandonment threshold or when Define needs
// non-default attributes on an index.
func (o *Object) abandonArrayPart() {
	if !o.HasFlag(FlagArrayPart) {
		return
	}
	o.ClearFlag(FlagArrayPart)
	strtab := o.stringTable
	if strtab == nil {
		o.arrayPart, o.arrayHas = nil, nil
		return
	}
	for i, has := range o.arrayHas {
		if !has {
			continue
		}
		key := strtab.Intern(itoa(i))
		o.putNewOwn(key, o.arrayPart[i], DefaultDataAttrs)
		o.arrayPart[i].Release()
	}
	o.arrayPart, o.arrayHas = nil, nil
}

// maybeAbandonOnShrink checks density after a shrink and abandons the
// array part if it has fallen below threshold.
func (o *Object) maybeAbandonOnShrink() {
	if o.HasFlag(FlagArrayPart) && o.density() < arrayAbandonDensity {
		o.abandonArrayPart()
	}
}

func itoa(n int) []byte {
	if n == 0 {
		return []byte("0")
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}
