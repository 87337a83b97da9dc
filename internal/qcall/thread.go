package qcall

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

// State is a thread's coroutine state.
type State uint8

const (
	StateInactive State = iota
	StateRunning
	StateResumed
	StateYielded
	StateTerminated
)

var stateNames = [...]string{"Inactive", "Running", "Resumed", "Yielded", "Terminated"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// valstackSanitySpare is the minimum free capacity the call handler
// ensures exists beyond each activation's declared register need, for the
// engine's own transient pushes during error handling and API calls.
const valstackSanitySpare = 5

// Thread is a full object: it owns the three stacks described by the data
// model, a resumer back-link, the builtins table, and a coroutine state.
// Multiple threads share one heap.
type Thread struct {
	*qobject.Object

	Stack       []qval.Value
	StackBottom int
	StackTop    int

	Calls   []*Activation
	Catches []*Catcher

	Builtins *qobject.Object // the global/builtins object for this thread
	Strict   bool
	State    State
	Resumer  *Thread // borrowed back-link, not an owning reference

	heap *qheap.Heap

	// entry is the function a not-yet-started coroutine thread invokes on
	// its first Resume; see SetEntry in resume.go.
	entry *qobject.Object

	// resumeCh/yieldCh implement the goroutine-based translation of the
	// reference implementation's setjmp/longjmp RESUME/YIELD handoff: the
	// thread's own goroutine blocks on resumeCh for a value to continue
	// with, and posts to yieldCh when it yields or returns.
	resumeCh chan []qval.Value
	yieldCh  chan yieldResult
}

type yieldResult struct {
	values []qval.Value
	signal qerr.SignalType
	err    *qerr.Thrown
}

// NewThread creates a thread object tracked on heap, sharing builtins with
// the rest of the engine.
func NewThread(heap *qheap.Heap, proto *qobject.Object, builtins *qobject.Object) *Thread {
	obj := qobject.New(heap, qobject.ClassThread, proto)
	t := &Thread{
		Object:   obj,
		Builtins: builtins,
		State:    StateInactive,
		heap:     heap,
		resumeCh: make(chan []qval.Value),
		yieldCh:  make(chan yieldResult),
	}
	obj.SetExt(t)
	return t
}

// EnsureStack grows the value stack so that at least n slots are available
// above StackTop, matching the "ensure value-stack capacity" step of the
// normal call sequence.
func (t *Thread) EnsureStack(n int) {
	need := t.StackTop + n + valstackSanitySpare
	if need <= len(t.Stack) {
		return
	}
	grown := make([]qval.Value, need)
	copy(grown, t.Stack)
	for i := len(t.Stack); i < need; i++ {
		grown[i] = qval.Undefined()
	}
	t.Stack = grown
}

// Push appends v at StackTop, retaining it.
func (t *Thread) Push(v qval.Value) error {
	t.EnsureStack(1)
	v.Retain()
	if t.StackTop >= len(t.Stack) {
		t.Stack = append(t.Stack, v)
	} else {
		t.Stack[t.StackTop] = v
	}
	t.StackTop++
	return nil
}

// Pop removes the top value and returns it without releasing it; ownership
// of that reference passes to the caller.
func (t *Thread) Pop() (qval.Value, error) {
	if t.StackTop <= t.StackBottom {
		return qval.Undefined(), qerr.New(qerr.KindRangeError, "attempt to pop too many entries")
	}
	t.StackTop--
	v := t.Stack[t.StackTop]
	return v, nil
}

// PopN pops k values, decref'ing in order (bottom to top of the popped
// range, matching the design's "multi-pop decref's in order").
func (t *Thread) PopN(k int) error {
	if k > t.StackTop-t.StackBottom {
		return qerr.New(qerr.KindRangeError, "attempt to pop too many entries")
	}
	for i := t.StackTop - k; i < t.StackTop; i++ {
		t.Stack[i].Release()
	}
	t.StackTop -= k
	return nil
}

// Top returns top-bottom, the number of values currently on the stack.
func (t *Thread) Top() int { return t.StackTop - t.StackBottom }
