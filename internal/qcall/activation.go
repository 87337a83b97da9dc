// Package qcall implements the call/activation model: normal and
// protected calls, bound-function collapse, tail calls, the Arguments
// object, and resume/yield coroutine handoff. The bytecode executor itself
// is out of scope; compiled functions run through the Executor
// collaborator interface supplied by the host.
package qcall

import (
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// ActivationFlags mirror the data model's per-activation behavior bits.
type ActivationFlags uint8

const (
	FlagStrict ActivationFlags = 1 << iota
	FlagConstruct
	FlagDirectEval
	FlagPreventYield
	FlagTailcalled
)

// Activation is one call-stack frame.
type Activation struct {
	Func       *qobject.Object // the non-bound callable
	LexEnv     *qobject.Object // may be nil pending lazy creation
	VarEnv     *qobject.Object
	PC         int
	IdxBottom  int // absolute value-stack index where the callee's frame starts
	IdxRetval  int // where the callee's single return value is written on return
	Flags      ActivationFlags

	thread *Thread
}

func (a *Activation) HasFlag(f ActivationFlags) bool { return a.Flags&f != 0 }
func (a *Activation) SetFlag(f ActivationFlags)      { a.Flags |= f }
func (a *Activation) ClearFlag(f ActivationFlags)    { a.Flags &^= f }

// Register implements qenv.Registers: reads a callee register relative to
// IdxBottom from the owning thread's value stack.
func (a *Activation) Register(i int) qval.Value {
	return a.thread.Stack[a.IdxBottom+i]
}

// SetRegister implements qenv.Registers.
func (a *Activation) SetRegister(i int, v qval.Value) {
	a.thread.Stack[a.IdxBottom+i].Release()
	v.Retain()
	a.thread.Stack[a.IdxBottom+i] = v
}

// CatcherKind distinguishes the three catcher shapes from the data model.
type CatcherKind uint8

const (
	CatcherTryCatchFinally CatcherKind = iota
	CatcherLabeled
	CatcherWithBinding
)

// Catcher records an installed exception/break/continue target.
type Catcher struct {
	ActivationIdx int
	CatchPC       int
	FinallyPC     int
	Kind          CatcherKind
	CatchEnv      *qobject.Object // catch-binding environment, if any
	Label         string
}
