package qcall

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// TailCall reuses act in place instead of pushing a new activation,
// keeping call-stack depth constant. Preconditions: act's function must be
// a compiled function, and no active catcher may belong to it.
func (h *Handler) TailCall(thread *Thread, act *Activation, target *qobject.Object, this qval.Value, args []qval.Value) error {
	if _, ok := act.Func.Ext().(*CompiledFuncExt); !ok {
		return qerr.New(qerr.KindInternal, "tail call requires a compiled-function activation")
	}
	for _, c := range thread.Catches {
		if c.ActivationIdx == len(thread.Calls)-1 {
			return qerr.New(qerr.KindInternal, "tail call with an active catcher on this activation")
		}
	}

	target, this, args, err := collapseBound(target, this, args)
	if err != nil {
		return err
	}

	if act.LexEnv != nil {
		act.LexEnv.DecRef()
		act.LexEnv = nil
	}
	if act.VarEnv != nil {
		act.VarEnv.DecRef()
		act.VarEnv = nil
	}

	act.Func = target
	act.PC = 0

	base := act.IdxBottom - 1 // the slot holding the previous `this`
	thread.Stack[base].Release()
	this.Retain()
	thread.Stack[base] = this

	thread.StackTop = base + 1
	for _, a := range args {
		if err := thread.Push(a); err != nil {
			return err
		}
	}

	act.SetFlag(FlagTailcalled)
	return nil
}
