package qcall

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// Resume and Yield translate the reference engine's setjmp/longjmp
// RESUME/YIELD handoff into a goroutine-per-coroutine model: a thread that
// has never run is started on its own goroutine at its first Resume; a
// yielded thread's goroutine is parked on resumeCh and woken by sending the
// resume value there. Either way the resuming caller blocks on the target's
// yieldCh until the target yields, returns, or throws.

// SetEntry records the function a not-yet-started thread will invoke on its
// first Resume, with no `this` binding (matching the reference engine's
// coroutine entry convention of a plain function call).
func (t *Thread) SetEntry(fn *qobject.Object) { t.entry = fn }

// Resume transfers control from caller to target: starting it (if
// Inactive) with values as the entry call's arguments, or waking it (if
// Yielded) with values as the suspended yield-expression's result. It
// blocks until target yields again, returns, or throws, per the "only one
// thread in a resume/yield chain runs at a time" rule.
func (h *Handler) Resume(caller, target *Thread, values []qval.Value) (qval.Value, error) {
	if target.State != StateInactive && target.State != StateYielded {
		return qval.Undefined(), qerr.New(qerr.KindTypeError, "resume target must be inactive or yielded")
	}
	if len(caller.Calls) < 1 {
		return qval.Undefined(), qerr.New(qerr.KindInternal, "resume requires an active caller activation")
	}
	if target == caller {
		return qval.Undefined(), qerr.New(qerr.KindTypeError, "a thread cannot resume itself")
	}

	target.Resumer = caller
	wasInactive := target.State == StateInactive
	target.State = StateResumed

	if wasInactive {
		if target.entry == nil {
			return qval.Undefined(), qerr.New(qerr.KindTypeError, "resume target has no entry function")
		}
		go h.runThread(target, values)
	} else {
		target.resumeCh <- values
	}

	res := <-target.yieldCh
	switch res.signal {
	case qerr.SignalYield:
		target.State = StateYielded
		return firstOrUndefined(res.values), nil
	case qerr.SignalThrow:
		target.State = StateTerminated
		return qval.Undefined(), res.err
	default:
		target.State = StateTerminated
		return firstOrUndefined(res.values), nil
	}
}

// runThread is the body of a started coroutine's goroutine: it runs the
// entry call to completion (however long that takes, including any number
// of intervening Yield round-trips) and reports the final outcome once the
// call returns or throws.
func (h *Handler) runThread(target *Thread, initialArgs []qval.Value) {
	rv, err := h.Call(target, target.entry, qval.Undefined(), initialArgs, false)
	if err != nil {
		target.yieldCh <- yieldResult{signal: qerr.SignalThrow, err: qerr.AsThrown(err)}
		return
	}
	target.yieldCh <- yieldResult{signal: qerr.SignalReturn, values: []qval.Value{rv}}
}

// Yield suspends thread at the current point of execution, handing values
// back to whatever called Resume, and blocks until it is resumed again.
// Called from inside thread's own goroutine (i.e. from within the
// Executor's Run, reached via h.Call from runThread or a nested Resume).
func (h *Handler) Yield(thread *Thread, values []qval.Value) ([]qval.Value, error) {
	if thread.Resumer == nil {
		return nil, qerr.New(qerr.KindTypeError, "yield from a thread with no resumer")
	}
	if thread.State != StateResumed {
		return nil, qerr.New(qerr.KindTypeError, "yield requires a running, resumed thread")
	}
	if n := len(thread.Calls); n > 0 && thread.Calls[n-1].HasFlag(FlagPreventYield) {
		return nil, qerr.New(qerr.KindTypeError, "cannot yield across an intervening native call")
	}
	thread.yieldCh <- yieldResult{signal: qerr.SignalYield, values: values}
	resumed := <-thread.resumeCh
	return resumed, nil
}

func firstOrUndefined(vs []qval.Value) qval.Value {
	if len(vs) == 0 {
		return qval.Undefined()
	}
	return vs[0]
}
