package qcall

import (
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// NativeFunc is a host/builtin callable: "int f(context)" from the
// external-interfaces description, translated into a Go (rc, err) shape — rc matches the ABI's push convention (0 = push undefined, 1 =
// top-of-stack is the return value); err is used for the negative "magic
// error code" path and is always a *qerr.Thrown.
type NativeFunc func(ctx *Context) (rc int, err error)

// NativeFuncExt is attached via Object.SetExt to a ClassFunction object
// with FlagNativeFunction set.
type NativeFuncExt struct {
	Fn      NativeFunc
	NArgs   int // may be negative for vararg
}

// Executor runs compiled bytecode. It is a collaborator interface; the
// compiler/executor themselves are out of scope for this module.
type Executor interface {
	// Run executes fn starting at act's PC inside thread, returning when
	// execution would exit the entry-level activation. It reports any
	// non-local control transfer (throw/yield/resume/tailcall) via Signal.
	Run(thread *Thread, act *Activation) (rc int, err error)
}

// CompiledFuncExt is attached to a ClassFunction object with
// FlagCompiledFunction set.
type CompiledFuncExt struct {
	Bytecode    []byte
	NArgs       int
	NRegs       int
	Constants   []qval.Value
	Inner       []*qobject.Object
	LexEnv      *qobject.Object // stored _lexenv for new-env-unset targets
	VarEnv      *qobject.Object
	RegNames    map[string]int // variable-name -> register index, for lazy env materialization
	Executor    Executor
}

// BoundFuncExt is attached to a ClassFunction object with FlagBound set.
type BoundFuncExt struct {
	Target     *qobject.Object // may itself be bound
	BoundThis  qval.Value
	BoundArgs  []qval.Value
}

// Context is the value-stack-relative view a NativeFunc operates over: the
// slice of its own arguments, plus a back-reference to the owning thread
// for calling back into the engine (property access, nested calls).
type Context struct {
	Thread *Thread
	This   qval.Value
	Args   []qval.Value
}

// Arg returns the i'th argument, or undefined if i is out of range (the
// ABI never pads short argument lists with errors).
func (c *Context) Arg(i int) qval.Value {
	if i < 0 || i >= len(c.Args) {
		return qval.Undefined()
	}
	return c.Args[i]
}
