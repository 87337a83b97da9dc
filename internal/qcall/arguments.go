package qcall

import (
	"strconv"

	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// MakeCallAccessors bridges qobject's generic CallGetter/CallSetter hooks
// through a Handler, so accessor properties (mapped arguments, shared
// throwers, host-defined getters) can be invoked from Get/Put without
// qobject importing qcall.
func MakeCallAccessors(h *Handler, thread *Thread) (qobject.CallGetter, qobject.CallSetter) {
	get := func(getter qval.Value, this qval.Value) (qval.Value, error) {
		fnObj, ok := getter.AsRef().(*qobject.Object)
		if !ok {
			return qval.Undefined(), qerr.New(qerr.KindInternal, "accessor getter is not a function")
		}
		return h.Call(thread, fnObj, this, nil, false)
	}
	set := func(setter qval.Value, this qval.Value, v qval.Value) error {
		fnObj, ok := setter.AsRef().(*qobject.Object)
		if !ok {
			return qerr.New(qerr.KindInternal, "accessor setter is not a function")
		}
		_, err := h.Call(thread, fnObj, this, []qval.Value{v}, false)
		return err
	}
	return get, set
}

func newNativeFunc(heap *qheap.Heap, proto *qobject.Object, fn NativeFunc) *qobject.Object {
	obj := qobject.New(heap, qobject.ClassFunction, proto)
	obj.SetFlag(qobject.FlagNativeFunction)
	obj.SetExt(&NativeFuncExt{Fn: fn})
	return obj
}

// newMappedAccessor builds the getter/setter pair backing one parameter-map
// entry: reading or writing it reads or writes act's register regIdx
// directly, per the non-strict Arguments object's live parameter linkage.
func newMappedAccessor(heap *qheap.Heap, funcProto *qobject.Object, act *Activation, regIdx int) (qval.Value, qval.Value) {
	getter := newNativeFunc(heap, funcProto, func(ctx *Context) (int, error) {
		v := act.Register(regIdx)
		v.Retain()
		if err := ctx.Thread.Push(v); err != nil {
			return 0, err
		}
		return 1, nil
	})
	setter := newNativeFunc(heap, funcProto, func(ctx *Context) (int, error) {
		act.SetRegister(regIdx, ctx.Arg(0))
		return 0, nil
	})
	return qval.NewObject(getter), qval.NewObject(setter)
}

// newThrower builds the shared [[ThrowTypeError]] function: the strict-mode
// "callee"/"caller" accessor that always throws, per ES5.1 13.2.3.
func newThrower(heap *qheap.Heap, funcProto *qobject.Object) qval.Value {
	fn := newNativeFunc(heap, funcProto, func(ctx *Context) (int, error) {
		return 0, qerr.New(qerr.KindTypeError, "'callee' and 'caller' are restricted on strict-mode arguments objects")
	})
	fn.ClearFlag(qobject.FlagConstructable)
	return qval.NewObject(fn)
}

// NewArgumentsObject constructs the Arguments object for one call, per the
// data model's §4.6.3: an array-like own-indexed snapshot of the arguments,
// a "length", and either a live parameter map bridging named formals back
// to act's registers plus a plain "callee" data property (non-strict), or a
// shared thrower accessor in place of "callee" (strict).
func NewArgumentsObject(heap *qheap.Heap, strtab *qstrtab.Table, objProto, funcProto *qobject.Object, act *Activation, calleeFn *qobject.Object, args []qval.Value, formalNames []string, strict bool) *qobject.Object {
	obj := qobject.New(heap, qobject.ClassArguments, objProto)
	obj.SetFlag(qobject.FlagSpecialArguments)

	lengthKey := strtab.InternBuiltin([]byte("length"))
	obj.Define(lengthKey, qval.Number(float64(len(args))), qobject.AttrWritable|qobject.AttrConfigurable, false, qval.Undefined(), qval.Undefined())

	mapped := make(map[int]bool)
	if !strict {
		// Only the last occurrence of a repeated formal name is live-mapped,
		// and only for indices that actually have a supplied argument.
		seen := make(map[string]int)
		for i, name := range formalNames {
			if i >= len(args) {
				break
			}
			seen[name] = i
		}
		for _, regIdx := range seen {
			mapped[regIdx] = true
		}
	}

	for i, a := range args {
		key := strtab.Intern([]byte(strconv.Itoa(i)))
		if mapped[i] {
			getter, setter := newMappedAccessor(heap, funcProto, act, i)
			obj.Define(key, qval.Undefined(), qobject.AttrEnumerable|qobject.AttrConfigurable, true, getter, setter)
		} else {
			obj.Define(key, a, qobject.DefaultDataAttrs, false, qval.Undefined(), qval.Undefined())
		}
	}

	calleeKey := strtab.InternBuiltin([]byte("callee"))
	if strict {
		thrower := newThrower(heap, funcProto)
		obj.Define(calleeKey, qval.Undefined(), 0, true, thrower, thrower)
	} else {
		obj.Define(calleeKey, qval.NewObject(calleeFn), qobject.AttrWritable|qobject.AttrConfigurable, false, qval.Undefined(), qval.Undefined())
	}

	return obj
}
