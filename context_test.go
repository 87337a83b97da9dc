package quark

import (
	"testing"

	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qruntime"
	"github.com/sorenby/quarkvm/internal/qval"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return New(qruntime.Defaults())
}

func TestStackCapacityAndTop(t *testing.T) {
	c := newTestContext(t)
	if c.GetTop() != 0 {
		t.Fatalf("GetTop = %d, want 0", c.GetTop())
	}
	if err := c.PushNumber(1); err != nil {
		t.Fatal(err)
	}
	if err := c.PushNumber(2); err != nil {
		t.Fatal(err)
	}
	if c.GetTop() != 2 {
		t.Fatalf("GetTop = %d, want 2", c.GetTop())
	}
	if c.GetTopIndex() != 1 {
		t.Fatalf("GetTopIndex = %d, want 1", c.GetTopIndex())
	}
	if err := c.SetTop(1); err != nil {
		t.Fatal(err)
	}
	if c.GetTop() != 1 {
		t.Fatalf("GetTop after SetTop(1) = %d, want 1", c.GetTop())
	}
	if err := c.SetTop(3); err != nil {
		t.Fatal(err)
	}
	if c.GetTop() != 3 || !c.IsUndefined(1) || !c.IsUndefined(2) {
		t.Fatalf("SetTop grow should pad with undefined, got top=%d", c.GetTop())
	}
}

func TestPushAndPopRoundTrip(t *testing.T) {
	c := newTestContext(t)
	if err := c.PushString("hello"); err != nil {
		t.Fatal(err)
	}
	if got := c.GetString(-1); got != "hello" {
		t.Fatalf("GetString = %q, want hello", got)
	}
	if err := c.Pop(); err != nil {
		t.Fatal(err)
	}
	if c.GetTop() != 0 {
		t.Fatalf("stack not empty after Pop, top=%d", c.GetTop())
	}
}

func TestDupInsertRemoveSwap(t *testing.T) {
	c := newTestContext(t)
	c.PushNumber(1)
	c.PushNumber(2)
	c.PushNumber(3)

	if err := c.Dup(0); err != nil {
		t.Fatal(err)
	}
	if c.GetNumber(-1) != 1 {
		t.Fatalf("Dup(0) top = %v, want 1", c.GetNumber(-1))
	}
	c.Pop()

	if err := c.Swap(0, 2); err != nil {
		t.Fatal(err)
	}
	if c.GetNumber(0) != 3 || c.GetNumber(2) != 1 {
		t.Fatalf("Swap(0,2) failed: %v %v %v", c.GetNumber(0), c.GetNumber(1), c.GetNumber(2))
	}
	// restore order: 1, 2, 3
	c.Swap(0, 2)

	c.PushNumber(99)
	if err := c.Insert(0); err != nil {
		t.Fatal(err)
	}
	if c.GetNumber(0) != 99 || c.GetNumber(1) != 1 || c.GetTop() != 4 {
		t.Fatalf("Insert(0) gave wrong layout: top=%d v0=%v v1=%v", c.GetTop(), c.GetNumber(0), c.GetNumber(1))
	}

	if err := c.Remove(0); err != nil {
		t.Fatal(err)
	}
	if c.GetNumber(0) != 1 || c.GetTop() != 3 {
		t.Fatalf("Remove(0) gave wrong layout: top=%d v0=%v", c.GetTop(), c.GetNumber(0))
	}
}

func TestToNumberAndToStringCoercion(t *testing.T) {
	c := newTestContext(t)
	c.PushString("42.5")
	n, err := c.ToNumber(-1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 42.5 {
		t.Fatalf("ToNumber = %v, want 42.5", n)
	}
	c.Pop()

	c.PushNumber(3.25)
	s, err := c.ToString(-1)
	if err != nil {
		t.Fatal(err)
	}
	if s != "3.25" {
		t.Fatalf("ToString = %q, want 3.25", s)
	}
}

func TestToBooleanCoercion(t *testing.T) {
	c := newTestContext(t)
	c.PushNumber(0)
	b, err := c.ToBoolean(-1)
	if err != nil {
		t.Fatal(err)
	}
	if b {
		t.Fatalf("ToBoolean(0) = true, want false")
	}
	c.Pop()

	c.PushString("x")
	b, err = c.ToBoolean(-1)
	if err != nil {
		t.Fatal(err)
	}
	if !b {
		t.Fatalf("ToBoolean(\"x\") = false, want true")
	}
}

func TestToObjectBoxesPrimitive(t *testing.T) {
	c := newTestContext(t)
	c.PushNumber(7)
	obj, err := c.ToObject(-1)
	if err != nil {
		t.Fatal(err)
	}
	if obj == nil || obj.Class() != qobject.ClassObject {
		t.Fatalf("ToObject did not box a plain object")
	}
	if !c.IsObject(-1) {
		t.Fatalf("stack slot was not replaced with the boxed object")
	}
}

func TestPropertyPutGetHasDelete(t *testing.T) {
	c := newTestContext(t)
	if _, err := c.PushNewObject(); err != nil {
		t.Fatal(err)
	}
	c.PushNumber(9)
	if err := c.PutPropString(-2, "x"); err != nil {
		t.Fatal(err)
	}
	if !c.HasPropString(-1, "x") {
		t.Fatalf("HasPropString(x) = false after Put")
	}
	if err := c.GetPropString(-1, "x"); err != nil {
		t.Fatal(err)
	}
	if c.GetNumber(-1) != 9 {
		t.Fatalf("GetPropString(x) = %v, want 9", c.GetNumber(-1))
	}
	c.Pop()

	ok, err := c.DelPropString(-1, "x")
	if err != nil || !ok {
		t.Fatalf("DelPropString(x) failed: ok=%v err=%v", ok, err)
	}
	if c.HasPropString(-1, "x") {
		t.Fatalf("HasPropString(x) = true after Delete")
	}
}

func TestEqualsAndStrictEquals(t *testing.T) {
	c := newTestContext(t)
	c.PushNumber(1)
	c.PushString("1")
	if !c.Equals(0, 1) {
		t.Fatalf("Equals(1, \"1\") = false, want true (abstract equality)")
	}
	if c.StrictEquals(0, 1) {
		t.Fatalf("StrictEquals(1, \"1\") = true, want false")
	}
}

func TestCallInvokesNativeFunction(t *testing.T) {
	c := newTestContext(t)
	fn := qobject.New(c.Heap, qobject.ClassFunction, nil)
	fn.SetFlag(qobject.FlagNativeFunction)
	fn.SetExt(&qcall.NativeFuncExt{Fn: func(ctx *qcall.Context) (int, error) {
		sum := ctx.Arg(0).AsNumber() + ctx.Arg(1).AsNumber()
		if err := ctx.Thread.Push(qval.Number(sum)); err != nil {
			return 0, err
		}
		return 1, nil
	}})

	if err := c.PushObject(fn); err != nil {
		t.Fatal(err)
	}
	c.PushNumber(2)
	c.PushNumber(3)
	if err := c.Call(2); err != nil {
		t.Fatal(err)
	}
	if c.GetNumber(-1) != 5 {
		t.Fatalf("Call result = %v, want 5", c.GetNumber(-1))
	}
}

func TestPCallCatchesThrow(t *testing.T) {
	c := newTestContext(t)
	fn := qobject.New(c.Heap, qobject.ClassFunction, nil)
	fn.SetFlag(qobject.FlagNativeFunction)
	fn.SetExt(&qcall.NativeFuncExt{Fn: func(ctx *qcall.Context) (int, error) {
		return 0, errBoom
	}})

	if err := c.PushObject(fn); err != nil {
		t.Fatal(err)
	}
	if err := c.PCall(0); err != nil {
		t.Fatal(err)
	}
	if !c.IsObject(-1) {
		t.Fatalf("PCall did not leave a caught error object on the stack")
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

var errBoom = testErr("boom")
