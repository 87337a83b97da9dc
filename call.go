package quark

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// wrapErrorValue builds a minimal ClassError object carrying the thrown
// error as its extension data, mirroring the normal/protected call
// sequence's own error-wrapping so safe_call's caught-error value has the
// same shape a pcall-caught error does.
func (c *Context) wrapErrorValue(err error) qval.Value {
	thrown := qerr.AsThrown(err)
	obj := qobject.New(c.Heap, qobject.ClassError, nil)
	obj.SetExt(thrown)
	return qval.NewObject(obj)
}

// collectArgs pops nargs values off the stack (in call order) without
// releasing them; ownership transfers to the caller, matching the
// args/this values Call hands to Handler.Call, which retains them again
// on push onto the callee's frame.
func (c *Context) collectArgs(nargs int) ([]qval.Value, error) {
	if nargs < 0 || nargs > c.GetTop() {
		return nil, qerr.New(qerr.KindAPI, "call: invalid argument count %d", nargs)
	}
	args := make([]qval.Value, nargs)
	base := c.Thread.StackTop - nargs
	copy(args, c.Thread.Stack[base:c.Thread.StackTop])
	c.Thread.StackTop = base
	return args, nil
}

func releaseAll(vs []qval.Value) {
	for _, v := range vs {
		v.Release()
	}
}

// Call replaces [func, arg1..argN] at the top of the stack with its single
// return value, using the global object as `this` (non-strict call).
func (c *Context) Call(nargs int) error {
	args, err := c.collectArgs(nargs)
	if err != nil {
		return err
	}
	fv, err := c.Thread.Pop()
	if err != nil {
		releaseAll(args)
		return err
	}
	fn, ok := fv.AsRef().(*qobject.Object)
	if !ok || fn.Class() != qobject.ClassFunction {
		fv.Release()
		releaseAll(args)
		return qerr.New(qerr.KindTypeError, "call: value is not callable")
	}
	rv, callErr := c.Handler.Call(c.Thread, fn, qval.NewObject(c.Global), args, false)
	fv.Release()
	releaseAll(args)
	if callErr != nil {
		return callErr
	}
	return c.push(rv)
}

// CallMethod replaces [this, func, arg1..argN] at the top of the stack with
// its single return value.
func (c *Context) CallMethod(nargs int) error {
	args, err := c.collectArgs(nargs)
	if err != nil {
		return err
	}
	fv, err := c.Thread.Pop()
	if err != nil {
		releaseAll(args)
		return err
	}
	thisv, err := c.Thread.Pop()
	if err != nil {
		fv.Release()
		releaseAll(args)
		return err
	}
	fn, ok := fv.AsRef().(*qobject.Object)
	if !ok || fn.Class() != qobject.ClassFunction {
		fv.Release()
		thisv.Release()
		releaseAll(args)
		return qerr.New(qerr.KindTypeError, "call_method: value is not callable")
	}
	rv, callErr := c.Handler.Call(c.Thread, fn, thisv, args, false)
	fv.Release()
	thisv.Release()
	releaseAll(args)
	if callErr != nil {
		return callErr
	}
	return c.push(rv)
}

// PCall is Call's protected counterpart: it never lets an error escape.
// On success, the single return value occupies the top of the stack; on
// failure, the caught error object does. The returned error is non-nil
// only when the call itself could not even be attempted (bad argument
// count, callee not found).
func (c *Context) PCall(nargs int) error {
	args, err := c.collectArgs(nargs)
	if err != nil {
		return err
	}
	fv, err := c.Thread.Pop()
	if err != nil {
		releaseAll(args)
		return err
	}
	fn, ok := fv.AsRef().(*qobject.Object)
	if !ok || fn.Class() != qobject.ClassFunction {
		fv.Release()
		releaseAll(args)
		notCallable := qerr.New(qerr.KindTypeError, "pcall: value is not callable")
		return c.push(c.wrapErrorValue(notCallable))
	}
	retBase := c.Thread.StackTop
	c.Handler.ProtectedCall(c.Thread, fn, qval.NewObject(c.Global), args, retBase, 1)
	fv.Release()
	releaseAll(args)
	return nil
}

// SafeCall invokes fn with nargs arguments already pushed, returning
// nrets values (undefined-padded) regardless of whether fn throws; the
// bool result reports whether fn completed without throwing.
func (c *Context) SafeCall(fn *qobject.Object, nargs, nrets int) (bool, error) {
	args, err := c.collectArgs(nargs)
	if err != nil {
		return false, err
	}
	retBase := c.Thread.StackTop
	rv, callErr := c.Handler.Call(c.Thread, fn, qval.NewObject(c.Global), args, false)
	releaseAll(args)
	if callErr != nil {
		c.Thread.StackTop = retBase
		if err := c.push(c.wrapErrorValue(callErr)); err != nil {
			return false, err
		}
		for i := 1; i < nrets; i++ {
			if err := c.PushUndefined(); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if err := c.push(rv); err != nil {
		return false, err
	}
	for i := 1; i < nrets; i++ {
		if err := c.PushUndefined(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// New replaces [ctor, arg1..argN] at the top of the stack with a freshly
// constructed instance, per ES5.1 §13.2.2: a new object is created with
// its [[Prototype]] set from ctor's "prototype" property (falling back to
// no prototype if that property isn't an object), ctor is invoked against
// it with construct=true, and the constructor's own return value is used
// instead whenever it returns an object.
func (c *Context) New(nargs int) error {
	args, err := c.collectArgs(nargs)
	if err != nil {
		return err
	}
	fv, err := c.Thread.Pop()
	if err != nil {
		releaseAll(args)
		return err
	}
	ctor, ok := fv.AsRef().(*qobject.Object)
	if !ok || ctor.Class() != qobject.ClassFunction {
		fv.Release()
		releaseAll(args)
		return qerr.New(qerr.KindTypeError, "new: value is not a constructor")
	}

	get, _ := c.accessors()
	protoVal, gerr := ctor.Get(fv, c.keyAt("prototype"), get)
	var proto *qobject.Object
	if gerr == nil {
		proto, _ = protoVal.AsRef().(*qobject.Object)
	}
	inst := qobject.New(c.Heap, qobject.ClassObject, proto)

	rv, callErr := c.Handler.Call(c.Thread, ctor, qval.NewObject(inst), args, true)
	fv.Release()
	releaseAll(args)
	if callErr != nil {
		return callErr
	}
	if rv.IsObject() {
		return c.push(rv)
	}
	return c.push(qval.NewObject(inst))
}

// Compile pops filename then source from the top of the stack, and pushes
// the compiled function on success.
func (c *Context) Compile(flags CompileFlags) error {
	if c.Compiler == nil {
		return qerr.New(qerr.KindInternal, "compile: no compiler installed")
	}
	filenameVal, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	sourceVal, err := c.Thread.Pop()
	if err != nil {
		filenameVal.Release()
		return err
	}
	filename := c.toStringValue(filenameVal)
	source := c.toStringValue(sourceVal)
	filenameVal.Release()
	sourceVal.Release()

	fn, compErr := c.Compiler.Compile(source, filename, flags)
	if compErr != nil {
		return compErr
	}
	return c.push(qval.NewObject(fn))
}

// Eval compiles and immediately calls the source string at the top of the
// stack (pushing "eval" as the filename), replacing it with the result.
func (c *Context) Eval() error {
	if err := c.PushString("eval"); err != nil {
		return err
	}
	if err := c.Compile(CompileEval); err != nil {
		return err
	}
	return c.Call(0)
}
