package qcall

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// boundChainLimit bounds bound-function collapse, matching the data
// model's ~10000 sanity limits elsewhere.
const boundChainLimit = 10000

// Handler owns the call-recursion budget and the host fatal-error path; it
// is the engine-wide collaborator the value-stack API calls into for
// call/pcall/new/safe_call.
type Handler struct {
	MaxCCallDepth int
	ccallDepth    int
	guard         *qerr.Guard
}

// NewHandler creates a call handler with the given C-call recursion limit
// and fatal-error guard.
func NewHandler(maxCCallDepth int, guard *qerr.Guard) *Handler {
	return &Handler{MaxCCallDepth: maxCCallDepth, guard: guard}
}

// entrySnapshot captures the state the normal-call sequence restores on
// both the success and error paths.
type entrySnapshot struct {
	stackBottom int
	stackTop    int
	callDepth   int
	catchDepth  int
}

func (t *Thread) snapshot() entrySnapshot {
	return entrySnapshot{
		stackBottom: t.StackBottom,
		stackTop:    t.StackTop,
		callDepth:   len(t.Calls),
		catchDepth:  len(t.Catches),
	}
}

func (t *Thread) restore(s entrySnapshot) {
	t.Calls = t.Calls[:s.callDepth]
	t.Catches = t.Catches[:s.catchDepth]
	t.StackBottom = s.stackBottom
}

// resolveThis implements the non-strict `this` coercion rule: undefined
// and null become the global object; any other non-object is ToObject'd
// via toObject (a Context-provided collaborator, since boxing primitives
// requires the value-stack API's to_object, out of this package's scope).
func resolveThis(strict bool, this qval.Value, global *qobject.Object, toObject func(qval.Value) qval.Value) qval.Value {
	if strict {
		return this
	}
	if this.IsNullOrUndefined() {
		return qval.NewObject(global)
	}
	if this.IsObject() {
		return this
	}
	if toObject != nil {
		return toObject(this)
	}
	return this
}

// collapseBound follows [[Target]] links, prepending each level's bound
// arguments and overriding `this`, until a non-bound callable is reached.
func collapseBound(fn *qobject.Object, this qval.Value, args []qval.Value) (*qobject.Object, qval.Value, []qval.Value, error) {
	for depth := 0; fn.HasFlag(qobject.FlagBound); depth++ {
		if depth > boundChainLimit {
			return nil, qval.Undefined(), nil, qerr.New(qerr.KindInternal, "bound function chain too long")
		}
		bf, ok := fn.Ext().(*BoundFuncExt)
		if !ok {
			return nil, qval.Undefined(), nil, qerr.New(qerr.KindInternal, "bound function missing extension data")
		}
		merged := make([]qval.Value, 0, len(bf.BoundArgs)+len(args))
		merged = append(merged, bf.BoundArgs...)
		merged = append(merged, args...)
		args = merged
		this = bf.BoundThis
		fn = bf.Target
	}
	return fn, this, args, nil
}

// Call performs a normal call, per the data model's numbered sequence:
// snapshot, catchpoint (the Go return-error path substitutes for
// longjmp/setjmp), thread-state transition, recursion check, bound-chain
// collapse, this-coercion, stack setup, activation push, env setup,
// dispatch to native or compiled code, then unwind.
func (h *Handler) Call(thread *Thread, fn *qobject.Object, this qval.Value, args []qval.Value, construct bool) (rv qval.Value, err error) {
	entry := thread.snapshot()
	defer func() {
		if err != nil && thread.StackTop > entry.stackTop {
			thread.PopN(thread.StackTop - entry.stackTop)
		}
	}()

	// A thread already Running or Resumed (the latter set by Resume before
	// invoking the entry/continuation call) proceeds as-is; only a fresh
	// Inactive thread needs the state flipped here.
	if thread.State != StateRunning && thread.State != StateResumed {
		if thread.State != StateInactive {
			return qval.Undefined(), qerr.New(qerr.KindInternal, "thread not inactive")
		}
		thread.State = StateRunning
	}

	h.ccallDepth++
	defer func() { h.ccallDepth-- }()
	if h.MaxCCallDepth > 0 && h.ccallDepth > h.MaxCCallDepth {
		return qval.Undefined(), qerr.New(qerr.KindRangeError, "C call stack depth limit reached")
	}

	target, this, args, err := collapseBound(fn, this, args)
	if err != nil {
		thread.restore(entry)
		return qval.Undefined(), err
	}
	this = resolveThis(target.HasFlag(qobject.FlagStrict), this, thread.Builtins, nil)

	idxBottom := thread.StackTop
	if err := thread.Push(this); err != nil {
		return qval.Undefined(), err
	}
	for _, a := range args {
		if err := thread.Push(a); err != nil {
			return qval.Undefined(), err
		}
	}
	idxBottom++ // this occupies the slot below idx_bottom; args start at idx_bottom

	act := &Activation{Func: target, IdxBottom: idxBottom, thread: thread}
	if construct {
		act.SetFlag(FlagConstruct)
	}
	thread.Calls = append(thread.Calls, act)

	if nf, ok := target.Ext().(*NativeFuncExt); ok {
		ctx := &Context{Thread: thread, This: this, Args: args}
		rc, callErr := nf.Fn(ctx)
		if callErr != nil {
			thread.restore(entry)
			return qval.Undefined(), callErr
		}
		switch rc {
		case 0:
			rv = qval.Undefined()
		case 1:
			top, popErr := thread.Pop()
			if popErr != nil {
				thread.restore(entry)
				return qval.Undefined(), popErr
			}
			rv = top
		default:
			thread.restore(entry)
			return qval.Undefined(), qerr.New(qerr.KindAPI, "native function returned invalid code %d", rc)
		}
	} else if cf, ok := target.Ext().(*CompiledFuncExt); ok && cf.Executor != nil {
		act.VarEnv, act.LexEnv = cf.VarEnv, cf.LexEnv
		oldBottom := thread.StackBottom
		thread.StackBottom = idxBottom
		rc, runErr := cf.Executor.Run(thread, act)
		thread.StackBottom = oldBottom
		if runErr != nil {
			thread.restore(entry)
			return qval.Undefined(), runErr
		}
		if rc == 1 {
			top, popErr := thread.Pop()
			if popErr != nil {
				thread.restore(entry)
				return qval.Undefined(), popErr
			}
			rv = top
		} else {
			rv = qval.Undefined()
		}
	} else {
		thread.restore(entry)
		return qval.Undefined(), qerr.New(qerr.KindTypeError, "value is not callable")
	}

	thread.restore(entry)
	thread.StackTop = entry.stackTop
	return rv, nil
}

// ProtectedCall runs fn like Call but never lets an error propagate past
// this frame: on success it returns the requested number of return values
// at retBase; on error, the error object occupies retBase followed by
// undefineds padding out to numRets.
func (h *Handler) ProtectedCall(thread *Thread, fn *qobject.Object, this qval.Value, args []qval.Value, retBase int, numRets int) {
	entry := thread.snapshot()
	rv, err := h.Call(thread, fn, this, args, false)

	thread.StackTop = retBase
	if err != nil {
		thread.Push(thread.wrapError(err))
		for i := 1; i < numRets; i++ {
			thread.Push(qval.Undefined())
		}
		thread.restore(entry)
		thread.StackBottom = entry.stackBottom
		return
	}
	thread.Push(rv)
	for i := 1; i < numRets; i++ {
		thread.Push(qval.Undefined())
	}
}

// wrapError builds a minimal ClassError object carrying the Thrown as its
// extension data, so a caught error round-trips through pcall/safe_call as
// an ordinary object value. Constructing the full Error.prototype chain
// (message/name accessors, toString) is a built-in-library concern out of
// this package's scope; the engine's error-handling design only requires
// that the object exist and carry kind/message/location.
func (t *Thread) wrapError(err error) qval.Value {
	thrown := qerr.AsThrown(err)
	obj := qobject.New(t.heap, qobject.ClassError, nil)
	obj.SetExt(thrown)
	return qval.NewObject(obj)
}
