package qenv

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// sanityChainLimit bounds environment-chain walks, mirroring the object
// model's prototype-chain limit.
const sanityChainLimit = 10000

// Reference describes where an identifier resolved: a register slot
// (record + index), an own property of a declarative record, or a
// property of an object record's target.
type Reference struct {
	Found   bool
	Record  *Record
	Holder  *qobject.Object // for object-record bindings
	RegIdx  int             // valid when Record.regs != nil and this name is register-bound
	ByReg   bool
}

// GetIdentifierReference walks the environment chain starting at env,
// trying the register fast path first on open declarative records, then
// own-property lookup, and (for object records) a full has-property check
// against the target (which itself walks the target's prototype chain).
func GetIdentifierReference(env *Record, name *qstrtab.String) Reference {
	cur := env
	for depth := 0; cur != nil; depth++ {
		if depth > sanityChainLimit {
			return Reference{}
		}
		if cur.regs != nil && !cur.closed {
			if idx, ok := cur.regNames[name]; ok {
				return Reference{Found: true, Record: cur, RegIdx: idx, ByReg: true}
			}
		}
		if cur.target != nil {
			if cur.target.Has(name) {
				return Reference{Found: true, Record: cur, Holder: cur.target}
			}
		} else if cur.obj.Has(name) {
			return Reference{Found: true, Record: cur}
		}
		cur = cur.Outer()
	}
	return Reference{}
}

// HasVar checks a single environment level only (not the chain).
func HasVar(env *Record, name *qstrtab.String) bool {
	if env.regs != nil && !env.closed {
		if _, ok := env.regNames[name]; ok {
			return true
		}
	}
	if env.target != nil {
		return env.target.Has(name)
	}
	return env.obj.Has(name)
}

// GetVar walks the chain; throwOnMissing governs the typeof-vs-reference
// discipline (typeof on an unresolved identifier must not throw).
func GetVar(env *Record, name *qstrtab.String, call qobject.CallGetter, throwOnMissing bool) (qval.Value, error) {
	ref := GetIdentifierReference(env, name)
	if !ref.Found {
		if throwOnMissing {
			return qval.Undefined(), qerr.New(qerr.KindReferenceError, "identifier %q is not defined", name.Bytes())
		}
		return qval.Undefined(), nil
	}
	if ref.ByReg {
		return ref.Record.regs.Register(ref.RegIdx), nil
	}
	if ref.Holder != nil {
		return ref.Holder.Get(qval.NewObject(ref.Holder), name, call)
	}
	return ref.Record.obj.Get(qval.NewObject(ref.Record.obj), name, call)
}

// PutVar walks the chain; strict not-found is a ReferenceError, non-strict
// creates the binding on globalObj.
func PutVar(env *Record, name *qstrtab.String, v qval.Value, strict bool, call qobject.CallSetter, globalObj *qobject.Object) error {
	ref := GetIdentifierReference(env, name)
	if !ref.Found {
		if strict {
			return qerr.New(qerr.KindReferenceError, "identifier %q is not defined", name.Bytes())
		}
		return globalObj.Put(qval.NewObject(globalObj), name, v, false, call)
	}
	if ref.ByReg {
		ref.Record.regs.SetRegister(ref.RegIdx, v)
		return nil
	}
	if ref.Holder != nil {
		return ref.Holder.Put(qval.NewObject(ref.Holder), name, v, strict, call)
	}
	return ref.Record.obj.Put(qval.NewObject(ref.Record.obj), name, v, strict, call)
}

// DelVar walks the chain; returns true (silently) when the identifier is
// absent anywhere, false when found but non-configurable or register-bound
// (registers cannot be deleted).
func DelVar(env *Record, name *qstrtab.String) (bool, error) {
	ref := GetIdentifierReference(env, name)
	if !ref.Found {
		return true, nil
	}
	if ref.ByReg {
		return false, nil
	}
	if ref.Holder != nil {
		return ref.Holder.Delete(name, false)
	}
	return ref.Record.obj.Delete(name, false)
}

// DeclVar declares a top-level binding with the given attributes on env's
// own storage (not the chain). When env's target is the global object and
// a same-named own property already exists, it implements ES5.1 §10.5 step
// 5.e: redeclaration succeeds if the existing binding is non-configurable
// but writable and enumerable (the shape every function/var declaration on
// the global object is initially given).
func DeclVar(env *Record, name *qstrtab.String, v qval.Value, attrs qobject.Attr) error {
	target := env.target
	if target == nil {
		target = env.obj
	}
	if existingAttrs, ok := target.OwnAttr(name); ok {
		if existingAttrs&qobject.AttrConfigurable == 0 {
			if existingAttrs&qobject.AttrWritable != 0 && existingAttrs&qobject.AttrEnumerable != 0 {
				target.Define(name, v, existingAttrs, false, qval.Undefined(), qval.Undefined())
				return nil
			}
			return qerr.New(qerr.KindTypeError, "cannot redeclare %q", name.Bytes())
		}
	}
	target.Define(name, v, attrs, false, qval.Undefined(), qval.Undefined())
	return nil
}
