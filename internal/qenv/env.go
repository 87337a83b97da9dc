// Package qenv implements declarative and object environment records atop
// internal/qobject's storage, including the register fast-path and
// lazy-materialization scheme for function activations.
package qenv

import (
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// Registers is implemented by an activation's register-backed storage
// (internal/qcall.Activation). A declarative environment under the
// register fast path reads and writes through this instead of its own
// property storage until it is closed.
type Registers interface {
	Register(i int) qval.Value
	SetRegister(i int, v qval.Value)
}

// Record wraps a qobject.Object of class DecEnv or ObjEnv with the
// environment-record-specific behavior the data model describes. Parent
// environments are reached through the wrapped object's prototype chain;
// Record itself is attached to that object via Object.SetExt so walking
// the chain from a bare *qobject.Object (e.g. during Mark/VisitOutbound)
// never needs this package.
type Record struct {
	obj *qobject.Object

	// Declarative-record register fast path. regs is nil once the record
	// has been closed (captured by a closure) or was never register-backed.
	regs     Registers
	regNames map[*qstrtab.String]int
	closed   bool

	// Object-record target and optional `with`-style `this` binding.
	target      *qobject.Object
	provideThis bool
	thisBinding qval.Value
}

// NewDeclarative creates an (initially open, register-backed) declarative
// environment record whose parent is outer.
func NewDeclarative(heap *qheap.Heap, outer *qobject.Object, regs Registers, regNames map[*qstrtab.String]int) *Record {
	obj := qobject.New(heap, qobject.ClassDecEnv, outer)
	r := &Record{obj: obj, regs: regs, regNames: regNames}
	obj.SetExt(r)
	return r
}

// NewObjectRecord creates an object environment record delegating to
// target, optionally providing target as the `this` binding (for `with`).
func NewObjectRecord(heap *qheap.Heap, outer *qobject.Object, target *qobject.Object, provideThis bool) *Record {
	obj := qobject.New(heap, qobject.ClassObjEnv, outer)
	r := &Record{obj: obj, target: target, provideThis: provideThis}
	if provideThis {
		r.thisBinding = qval.NewObject(target)
	}
	obj.SetExt(r)
	return r
}

// Object returns the underlying storage object (its prototype chain is the
// outer-environment chain).
func (r *Record) Object() *qobject.Object { return r.obj }

// Outer returns the parent environment record, or nil at the top.
func (r *Record) Outer() *Record {
	p := r.obj.Proto()
	if p == nil {
		return nil
	}
	rec, _ := p.Ext().(*Record)
	return rec
}

// IsClosed reports whether a declarative record has had its registers
// closed (copied into own properties, register back-pointers severed).
// Always true for object records, which never have a register fast path.
func (r *Record) IsClosed() bool { return r.regs == nil || r.closed }

// Close copies every still-mapped register into an own property of the
// record and severs the register fast path, atomically with each other as
// required when a closure captures the record.
func (r *Record) Close() {
	if r.regs == nil || r.closed {
		return
	}
	for name, idx := range r.regNames {
		v := r.regs.Register(idx)
		r.obj.Define(name, v, qobject.AttrWritable|qobject.AttrEnumerable, false, qval.Undefined(), qval.Undefined())
	}
	r.regs = nil
	r.closed = true
}
