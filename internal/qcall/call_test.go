package qcall

import (
	"testing"

	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

func newTestThread() (*qheap.Heap, *qstrtab.Table, *Thread) {
	heap := qheap.New()
	strtab := qstrtab.New(heap)
	global := qobject.New(heap, qobject.ClassObject, nil)
	thread := NewThread(heap, nil, global)
	thread.EnsureStack(64)
	return heap, strtab, thread
}

func nativeFunc(heap *qheap.Heap, fn NativeFunc) *qobject.Object {
	obj := qobject.New(heap, qobject.ClassFunction, nil)
	obj.SetFlag(qobject.FlagNativeFunction)
	obj.SetExt(&NativeFuncExt{Fn: fn})
	return obj
}

func TestCallInvokesNativeFunctionAndReturnsValue(t *testing.T) {
	heap, _, thread := newTestThread()
	fn := nativeFunc(heap, func(ctx *Context) (int, error) {
		sum := ctx.Arg(0).AsNumber() + ctx.Arg(1).AsNumber()
		if err := ctx.Thread.Push(qval.Number(sum)); err != nil {
			return 0, err
		}
		return 1, nil
	})

	h := NewHandler(1000, qerr.NewGuard(nil))
	rv, err := h.Call(thread, fn, qval.Undefined(), []qval.Value{qval.Number(2), qval.Number(3)}, false)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if rv.AsNumber() != 5 {
		t.Fatalf("expected 5, got %v", rv.AsNumber())
	}
	if thread.StackTop != thread.StackBottom {
		t.Fatalf("stack not restored: top=%d bottom=%d", thread.StackTop, thread.StackBottom)
	}
}

func TestCallOnNonCallableIsTypeError(t *testing.T) {
	heap, _, thread := newTestThread()
	notFn := qobject.New(heap, qobject.ClassObject, nil)
	h := NewHandler(1000, qerr.NewGuard(nil))
	_, err := h.Call(thread, notFn, qval.Undefined(), nil, false)
	if err == nil {
		t.Fatal("expected error calling a non-callable object")
	}
	thrown := qerr.AsThrown(err)
	if thrown.Kind != qerr.KindTypeError {
		t.Fatalf("expected KindTypeError, got %v", thrown.Kind)
	}
}

func TestProtectedCallPadsReturnValuesOnSuccess(t *testing.T) {
	heap, _, thread := newTestThread()
	fn := nativeFunc(heap, func(ctx *Context) (int, error) {
		if err := ctx.Thread.Push(qval.Number(7)); err != nil {
			return 0, err
		}
		return 1, nil
	})
	h := NewHandler(1000, qerr.NewGuard(nil))
	base := thread.StackTop
	h.ProtectedCall(thread, fn, qval.Undefined(), nil, base, 3)
	if thread.StackTop != base+3 {
		t.Fatalf("expected 3 rets pushed, stack top=%d base=%d", thread.StackTop, base)
	}
	if thread.Stack[base].AsNumber() != 7 {
		t.Fatalf("expected first ret 7, got %v", thread.Stack[base].AsNumber())
	}
	if !thread.Stack[base+1].IsUndefined() || !thread.Stack[base+2].IsUndefined() {
		t.Fatal("expected padding with undefined")
	}
}

func TestProtectedCallWrapsErrorAsObject(t *testing.T) {
	heap, _, thread := newTestThread()
	fn := nativeFunc(heap, func(ctx *Context) (int, error) {
		return 0, qerr.New(qerr.KindRangeError, "boom")
	})
	h := NewHandler(1000, qerr.NewGuard(nil))
	base := thread.StackTop
	h.ProtectedCall(thread, fn, qval.Undefined(), nil, base, 1)
	if !thread.Stack[base].IsObject() {
		t.Fatalf("expected an object at retBase, got kind %v", thread.Stack[base].Kind())
	}
	obj, _ := thread.Stack[base].AsRef().(*qobject.Object)
	if obj == nil {
		t.Fatal("expected *qobject.Object referent")
	}
	thrown, _ := obj.Ext().(*qerr.Thrown)
	if thrown == nil || thrown.Kind != qerr.KindRangeError {
		t.Fatalf("expected wrapped RangeError, got %+v", thrown)
	}
}

func TestCallRespectsMaxCCallDepth(t *testing.T) {
	heap, _, thread := newTestThread()
	h := NewHandler(2, qerr.NewGuard(nil))

	var fn *qobject.Object
	fn = nativeFunc(heap, func(ctx *Context) (int, error) {
		_, err := h.Call(thread, fn, qval.Undefined(), nil, false)
		return 0, err
	})

	_, err := h.Call(thread, fn, qval.Undefined(), nil, false)
	if err == nil {
		t.Fatal("expected recursion depth error")
	}
	thrown := qerr.AsThrown(err)
	if thrown.Kind != qerr.KindRangeError {
		t.Fatalf("expected KindRangeError, got %v", thrown.Kind)
	}
}

func TestCollapseBoundPrependsArgsAndOverridesThis(t *testing.T) {
	heap, _, thread := newTestThread()
	target := nativeFunc(heap, func(ctx *Context) (int, error) {
		sum := ctx.Arg(0).AsNumber()*100 + ctx.Arg(1).AsNumber()*10 + ctx.Arg(2).AsNumber()
		return pushAndReturn(ctx, sum)
	})
	bound := qobject.New(heap, qobject.ClassFunction, nil)
	bound.SetFlag(qobject.FlagBound)
	bound.SetExt(&BoundFuncExt{Target: target, BoundThis: qval.Undefined(), BoundArgs: []qval.Value{qval.Number(1), qval.Number(2)}})

	h := NewHandler(1000, qerr.NewGuard(nil))
	rv, err := h.Call(thread, bound, qval.Undefined(), []qval.Value{qval.Number(3)}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.AsNumber() != 123 {
		t.Fatalf("expected 123, got %v", rv.AsNumber())
	}
}

func pushAndReturn(ctx *Context, v float64) (int, error) {
	if err := ctx.Thread.Push(qval.Number(v)); err != nil {
		return 0, err
	}
	return 1, nil
}

func TestNewArgumentsObjectNonStrictMapsLiveRegisters(t *testing.T) {
	heap, strtab, thread := newTestThread()
	act := &Activation{Func: nil, IdxBottom: 0, thread: thread}
	thread.Calls = append(thread.Calls, act)

	fn := qobject.New(heap, qobject.ClassFunction, nil)
	args := []qval.Value{qval.Number(10), qval.Number(20)}
	argObj := NewArgumentsObject(heap, strtab, nil, nil, act, fn, args, []string{"a", "b"}, false)

	lengthKey := strtab.Intern([]byte("length"))
	lv, ok := argObj.GetOwn(lengthKey)
	if !ok || lv.AsNumber() != 2 {
		t.Fatalf("expected length=2, got %v ok=%v", lv.AsNumber(), ok)
	}

	calleeKey := strtab.Intern([]byte("callee"))
	cv, ok := argObj.GetOwn(calleeKey)
	if !ok || cv.AsRef() != qval.RefCounted(fn) {
		t.Fatalf("expected callee to be fn")
	}

	idx0 := strtab.Intern([]byte("0"))
	attr, ok := argObj.OwnAttr(idx0)
	if !ok || attr&qobject.AttrAccessor == 0 {
		t.Fatalf("expected index 0 to be a live accessor, attr=%v ok=%v", attr, ok)
	}
}

func TestNewArgumentsObjectStrictUsesThrower(t *testing.T) {
	heap, strtab, thread := newTestThread()
	act := &Activation{Func: nil, IdxBottom: 0, thread: thread}
	fn := qobject.New(heap, qobject.ClassFunction, nil)
	args := []qval.Value{qval.Number(1)}
	argObj := NewArgumentsObject(heap, strtab, nil, nil, act, fn, args, []string{"a"}, true)

	calleeKey := strtab.Intern([]byte("callee"))
	attr, ok := argObj.OwnAttr(calleeKey)
	if !ok || attr&qobject.AttrAccessor == 0 || attr&qobject.AttrConfigurable != 0 {
		t.Fatalf("expected a non-configurable accessor callee, got %v ok=%v", attr, ok)
	}
}

func TestResumeAndYieldRoundTrip(t *testing.T) {
	heap, _, caller := newTestThread()
	global := qobject.New(heap, qobject.ClassObject, nil)
	target := NewThread(heap, nil, global)
	target.EnsureStack(16)

	h := NewHandler(1000, qerr.NewGuard(nil))

	entry := nativeFunc(heap, func(ctx *Context) (int, error) {
		resumed, err := h.Yield(target, []qval.Value{qval.Number(1)})
		if err != nil {
			return 0, err
		}
		if err := ctx.Thread.Push(qval.Number(resumed[0].AsNumber() + 41)); err != nil {
			return 0, err
		}
		return 1, nil
	})
	target.SetEntry(entry)

	caller.Calls = append(caller.Calls, &Activation{thread: caller})

	first, err := h.Resume(caller, target, nil)
	if err != nil {
		t.Fatalf("first resume errored: %v", err)
	}
	if first.AsNumber() != 1 {
		t.Fatalf("expected first yielded value 1, got %v", first.AsNumber())
	}
	if target.State != StateYielded {
		t.Fatalf("expected target yielded, got %v", target.State)
	}

	second, err := h.Resume(caller, target, []qval.Value{qval.Number(1)})
	if err != nil {
		t.Fatalf("second resume errored: %v", err)
	}
	if second.AsNumber() != 42 {
		t.Fatalf("expected final return 42, got %v", second.AsNumber())
	}
	if target.State != StateTerminated {
		t.Fatalf("expected target terminated, got %v", target.State)
	}
}
