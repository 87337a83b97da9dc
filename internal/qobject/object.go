// Package qobject implements the hybrid entries/array/hash property
// storage shared by every script-visible object, including the
// declarative/object environment records built on top of it by
// internal/qenv.
package qobject

import (
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// ClassTag distinguishes the ECMAScript object subtypes sharing this
// layout, plus the engine's synthetic internal uses of the same storage.
type ClassTag uint8

const (
	ClassObject ClassTag = iota
	ClassArray
	ClassFunction
	ClassString
	ClassArguments
	ClassError
	ClassDate
	ClassRegExp
	ClassDecEnv
	ClassObjEnv
	ClassThread
	ClassBuffer
	ClassPointer
)

var classTagNames = [...]string{
	"Object", "Array", "Function", "String", "Arguments", "Error",
	"Date", "RegExp", "DecEnv", "ObjEnv", "Thread", "Buffer", "Pointer",
}

func (c ClassTag) String() string {
	if int(c) < len(classTagNames) {
		return classTagNames[c]
	}
	return "Unknown"
}

// Flags are the object-level behavior bits from the data model.
type Flags uint32

const (
	FlagExtensible Flags = 1 << iota
	FlagConstructable
	FlagBound
	FlagCompiledFunction
	FlagNativeFunction
	FlagThread
	FlagArrayPart
	FlagStrict
	FlagNewEnv
	FlagNameBinding
	FlagCreateArgs
	FlagEnvClosed
	FlagSpecialArray
	FlagSpecialStringObj
	FlagSpecialArguments
)

// prototypeChainLimit bounds walks of [[Prototype]] to guard against
// accidental or malicious cycles, per the design's ~10000 sanity limit.
const prototypeChainLimit = 10000

// entriesLinearThreshold is the point above which the hash part is built
// and maintained alongside the entries part.
const entriesLinearThreshold = 32

// arrayAbandonDensity below which the array part is abandoned in favor of
// moving its slots into entries.
const arrayAbandonDensity = 0.25

type entry struct {
	key      *qstrtab.String
	value    qval.Value
	getter   qval.Value
	setter   qval.Value
	attrs    Attr
	deleted  bool
}

// Attr holds ECMA-262 property attribute bits.
type Attr uint8

const (
	AttrWritable Attr = 1 << iota
	AttrEnumerable
	AttrConfigurable
	AttrAccessor
)

// DefaultDataAttrs matches what array-part slots carry implicitly.
const DefaultDataAttrs = AttrWritable | AttrEnumerable | AttrConfigurable

// Object is the common storage shared by every script-visible value kind
// and by environment records.
type Object struct {
	qheap.Header

	proto *Object
	class ClassTag
	flags Flags

	entries  []entry
	eUsed    int
	hashIdx  []int32 // -1 empty, -2 deleted, else index into entries

	arrayPart []qval.Value // present flag tracked by arrayHas
	arrayHas  []bool

	heap              *qheap.Heap
	stringTable       *qstrtab.Table
	internedLengthKey *qstrtab.String

	// ext holds the subtype-specific state layered on top of the shared
	// entries/array/hash storage (environment-record register maps,
	// compiled/native-function bodies, thread stacks, Arguments parameter
	// maps). Matches the data model's "subtypes share the object layout
	// and extend it" description without qobject importing any of those
	// packages.
	ext any
}

// Ext returns the subtype-specific extension data previously attached with
// SetExt, or nil.
func (o *Object) Ext() any { return o.ext }

// SetExt attaches subtype-specific extension data (an environment record's
// register map, a compiled function's bytecode reference, a thread's
// stacks, ...).
func (o *Object) SetExt(v any) { o.ext = v }

const (
	hashEmpty   int32 = -1
	hashDeleted int32 = -2
)

// New constructs an empty, extensible object of the given class with the
// given prototype (nil for none), tracked on heap.
func New(heap *qheap.Heap, class ClassTag, proto *Object) *Object {
	o := &Object{class: class, proto: proto, flags: FlagExtensible, heap: heap}
	o.Header.Init(qheap.KindObject, heap, o)
	if heap != nil {
		heap.Track(o)
	}
	return o
}

// NewArray constructs an extensible Array object with an active array part
// and a "length" own property, interned against strtab so abandonment and
// auto-grow can maintain it.
func NewArray(heap *qheap.Heap, strtab *qstrtab.Table, proto *Object) *Object {
	o := New(heap, ClassArray, proto)
	o.SetFlag(FlagSpecialArray)
	o.EnableArrayPart()
	o.stringTable = strtab
	if strtab != nil {
		o.internedLengthKey = strtab.InternBuiltin([]byte("length"))
		o.internedLengthKey.IncRef()
		o.putNewOwn(o.internedLengthKey, qval.Number(0), AttrWritable)
	}
	return o
}

// HeapHeader implements qheap.HeapObject.
func (o *Object) HeapHeader() *qheap.Header { return &o.Header }

// Class returns the object's class tag.
func (o *Object) Class() ClassTag { return o.class }

// Proto returns the prototype, or nil.
func (o *Object) Proto() *Object { return o.proto }

// SetProto replaces the prototype, adjusting refcounts.
func (o *Object) SetProto(p *Object) {
	if o.proto == p {
		return
	}
	if o.proto != nil {
		o.proto.DecRef()
	}
	o.proto = p
	if p != nil {
		p.IncRef()
	}
}

func (o *Object) HasFlag(f Flags) bool { return o.flags&f != 0 }
func (o *Object) SetFlag(f Flags)      { o.flags |= f }
func (o *Object) ClearFlag(f Flags)    { o.flags &^= f }

// VisitOutbound implements qheap.HeapObject: calls fn on every strong
// reference this object owns (prototype, property values, array slots,
// accessor pairs).
func (o *Object) VisitOutbound(fn func(qval.Value)) {
	if o.proto != nil {
		fn(qval.NewObject(o.proto))
	}
	for i := range o.entries {
		e := &o.entries[i]
		if e.deleted {
			continue
		}
		if e.attrs&AttrAccessor != 0 {
			fn(e.getter)
			fn(e.setter)
		} else {
			fn(e.value)
		}
	}
	for i, has := range o.arrayHas {
		if has {
			fn(o.arrayPart[i])
		}
	}
}

// Mark implements qheap.HeapObject: walks the same edges as VisitOutbound
// but hands the collector heap objects instead of releasing values.
func (o *Object) Mark(fn func(qheap.HeapObject)) {
	if o.proto != nil {
		fn(o.proto)
	}
	markValue := func(v qval.Value) {
		if ref := v.AsRef(); ref != nil {
			if ho, ok := ref.(qheap.HeapObject); ok {
				fn(ho)
			}
		}
	}
	for i := range o.entries {
		e := &o.entries[i]
		if e.deleted {
			continue
		}
		if e.attrs&AttrAccessor != 0 {
			markValue(e.getter)
			markValue(e.setter)
		} else {
			markValue(e.value)
		}
	}
	for i, has := range o.arrayHas {
		if has {
			markValue(o.arrayPart[i])
		}
	}
}

// Finalize implements qheap.HeapObject. Plain objects carry no engine
// finalizer; script-level FinalizationRegistry-style hooks are out of
// scope for this runtime core.
func (o *Object) Finalize() {}
