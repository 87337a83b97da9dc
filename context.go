// Package quark is the host-facing value-stack API: a typed stack of
// tagged value cells with position-based access, built on top of the
// internal heap, object, call, and number-conversion packages. It
// corresponds to the engine's public C API in the reference this module
// was modeled on — push/pop/inspect/coerce/reposition/property/call.
package quark

import (
	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qruntime"
	"github.com/sorenby/quarkvm/internal/qstrtab"
)

// InvalidIndex is the sentinel returned by index queries that find no
// valid position, e.g. GetTopIndex on an empty stack.
const InvalidIndex = -1 << 31

// Context is one thread's value-stack handle: the host's entry point into
// the engine. A Context wraps a *qcall.Thread (itself one of possibly
// several coroutines sharing a heap) with the heap, string table, and call
// handler it needs to act on.
type Context struct {
	Heap    *qheap.Heap
	Strings *qstrtab.Table
	Global  *qobject.Object
	Thread  *qcall.Thread
	Handler *qcall.Handler
	Limits  qruntime.Limits

	Compiler Compiler // optional; Compile/Eval need one
}

// New creates a fresh heap with one main thread, using limits for its
// value-stack bound and C-call recursion depth.
func New(limits qruntime.Limits) *Context {
	heap := qheap.New()
	strtab := qstrtab.New(heap)
	global := qobject.New(heap, qobject.ClassObject, nil)
	thread := qcall.NewThread(heap, nil, global)
	thread.EnsureStack(limits.ValstackGrowStep)
	thread.State = qcall.StateRunning

	guard := qerr.NewGuard(nil)
	handler := qcall.NewHandler(limits.MaxCCallDepth, guard)

	return &Context{
		Heap:    heap,
		Strings: strtab,
		Global:  global,
		Thread:  thread,
		Handler: handler,
		Limits:  limits,
	}
}

// NewThread creates an additional thread on the same heap, sharing the
// global/builtins object, for use as a Resume/Yield coroutine target.
func (c *Context) NewThread() *Context {
	t := qcall.NewThread(c.Heap, nil, c.Global)
	t.EnsureStack(c.Limits.ValstackGrowStep)
	return &Context{
		Heap:    c.Heap,
		Strings: c.Strings,
		Global:  c.Global,
		Thread:  t,
		Handler: c.Handler,
		Limits:  c.Limits,
		Compiler: c.Compiler,
	}
}

// abs converts a position-based index (non-negative from bottom, negative
// from top; -1 is top) to an absolute slot in Thread.Stack.
func (c *Context) abs(idx int) int {
	if idx >= 0 {
		return c.Thread.StackBottom + idx
	}
	return c.Thread.StackTop + idx
}

// valid reports whether the absolute slot abs lies within [bottom, top).
func (c *Context) valid(abs int) bool {
	return abs >= c.Thread.StackBottom && abs < c.Thread.StackTop
}

// normalize resolves a position-based index to an absolute slot, or
// reports it invalid.
func (c *Context) normalize(idx int) (int, bool) {
	a := c.abs(idx)
	return a, c.valid(a)
}

// GetTop returns the number of elements above the stack bottom.
func (c *Context) GetTop() int { return c.Thread.StackTop - c.Thread.StackBottom }

// GetTopIndex returns the position-based index of the top element, or
// InvalidIndex if the stack is empty.
func (c *Context) GetTopIndex() int {
	n := c.GetTop()
	if n == 0 {
		return InvalidIndex
	}
	return n - 1
}

// SetTop sets the absolute element count above bottom, padding with
// undefined when growing and releasing when shrinking.
func (c *Context) SetTop(n int) error {
	if n < 0 {
		return qerr.New(qerr.KindAPI, "set_top: negative count")
	}
	want := c.Thread.StackBottom + n
	switch {
	case want > c.Thread.StackTop:
		if err := c.RequireStack(want - c.Thread.StackTop); err != nil {
			return err
		}
		for c.Thread.StackTop < want {
			if err := c.PushUndefined(); err != nil {
				return err
			}
		}
	case want < c.Thread.StackTop:
		if err := c.Thread.PopN(c.Thread.StackTop - want); err != nil {
			return err
		}
	}
	return nil
}
