// Package qval implements the tagged value cell shared by every other
// runtime package: a single type capable of holding any script value.
package qval

import (
	"math"
	"unsafe"
)

// Kind is the tag of a tagged value cell.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
	KindBuffer
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindBuffer:
		return "buffer"
	case KindPointer:
		return "pointer"
	default:
		return "invalid"
	}
}

// RefCounted is implemented by every heap-allocated referent a Value can
// carry (interned strings, objects, buffers). It lets qval dispatch
// incref/decref without importing the heap package, which owns the
// concrete header type and would otherwise create an import cycle (the
// heap in turn needs Value to know how to decref outbound references).
type RefCounted interface {
	IncRef()
	DecRef()
	// HeapKind returns the heap header's own type tag (STRING=1, OBJECT=2,
	// BUFFER=3) so callers can cross-check against the Value's Kind.
	HeapKind() uint8
}

// canonicalNaNBits is the one bit pattern every NaN produced by this
// package is normalized to, so that NaN payloads never collide with a
// tagged pointer's bit pattern in a packed representation built on top of
// this cell. No packed representation or handle table exists in this
// module; Value keeps its referent in a separate field.
const canonicalNaNBits = uint64(0x7ff8000000000000)

var canonicalNaN = math.Float64frombits(canonicalNaNBits)

// Value is the uniform carrier for any script value. Assignment is a plain
// struct copy; reference-count adjustment of the referent is the caller's
// responsibility via Retain/Release, mirroring spec's "caller owns
// incref/decref" contract for engine-internal slots.
type Value struct {
	kind Kind
	num  float64        // Number payload; also doubles as the Boolean 0/1 storage
	ref  RefCounted      // non-nil only for String/Object/Buffer
	ptr  unsafe.Pointer // non-nil only for Pointer
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{kind: KindUndefined} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBoolean, num: 1}
	}
	return Value{kind: KindBoolean, num: 0}
}

// Number returns a number value, normalizing any NaN payload to the single
// canonical bit pattern mandated by spec's data model.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{kind: KindNumber, num: canonicalNaN}
	}
	return Value{kind: KindNumber, num: f}
}

// Int returns a number value for an integral payload.
func Int(i int64) Value { return Number(float64(i)) }

// NewString wraps an interned string heap referent.
func NewString(r RefCounted) Value { return Value{kind: KindString, ref: r} }

// NewObject wraps an object heap referent.
func NewObject(r RefCounted) Value { return Value{kind: KindObject, ref: r} }

// NewBuffer wraps a buffer heap referent.
func NewBuffer(r RefCounted) Value { return Value{kind: KindBuffer, ref: r} }

// NewPointer wraps an opaque host pointer, never refcounted or GC-traced.
func NewPointer(p unsafe.Pointer) Value { return Value{kind: KindPointer, ptr: p} }

// Kind reports the value's type tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullOrUndefined() bool {
	return v.kind == KindNull || v.kind == KindUndefined
}
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }
func (v Value) IsNumber() bool  { return v.kind == KindNumber }
func (v Value) IsString() bool  { return v.kind == KindString }
func (v Value) IsObject() bool  { return v.kind == KindObject }
func (v Value) IsBuffer() bool  { return v.kind == KindBuffer }
func (v Value) IsPointer() bool { return v.kind == KindPointer }

func (v Value) IsNaN() bool {
	return v.kind == KindNumber && math.IsNaN(v.num)
}

// AsBool returns the boolean payload; false for any other kind (lenient,
// matching the value-stack API's "get_*" family in spec §4.7).
func (v Value) AsBool() bool {
	return v.kind == KindBoolean && v.num != 0
}

// AsNumber returns the number payload; 0 for any other kind.
func (v Value) AsNumber() float64 {
	if v.kind == KindNumber {
		return v.num
	}
	return 0
}

// AsRef returns the heap referent for String/Object/Buffer kinds, or nil.
func (v Value) AsRef() RefCounted {
	return v.ref
}

// AsPointer returns the opaque pointer payload, or nil.
func (v Value) AsPointer() unsafe.Pointer {
	return v.ptr
}

// Retain increments the referent's refcount, if any.
func (v Value) Retain() {
	if v.ref != nil {
		v.ref.IncRef()
	}
}

// Release decrements the referent's refcount, if any.
func (v Value) Release() {
	if v.ref != nil {
		v.ref.DecRef()
	}
}

// SameAs implements the value-stack API's "equals"/pointer-equality rule
// for heap referents (strings compare by pointer because they are
// interned; objects and buffers compare by identity too).
func (v Value) SameAs(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return v.num == o.num
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindString, KindObject, KindBuffer:
		return v.ref == o.ref
	case KindPointer:
		return v.ptr == o.ptr
	}
	return false
}
