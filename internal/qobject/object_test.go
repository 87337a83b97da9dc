package qobject

import (
	"testing"

	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

func newTestEnv() (*qheap.Heap, *qstrtab.Table) {
	h := qheap.New()
	return h, qstrtab.New(h)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	h, strtab := newTestEnv()
	o := New(h, ClassObject, nil)
	key := strtab.Intern([]byte("enumerable_prop"))

	if err := o.Put(qval.NewObject(o), key, qval.Number(123), true, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, err := o.Get(qval.NewObject(o), key, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Kind() != qval.KindNumber || v.AsNumber() != 123 {
		t.Fatalf("Get = %v, want 123", v)
	}
}

func TestHasWalksPrototypeChain(t *testing.T) {
	h, strtab := newTestEnv()
	parent := New(h, ClassObject, nil)
	child := New(h, ClassObject, parent)
	key := strtab.Intern([]byte("inherited"))
	if err := parent.Put(qval.NewObject(parent), key, qval.Bool(true), true, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !child.Has(key) {
		t.Fatalf("child should see inherited property through the prototype chain")
	}
}

func TestEnumerateOwnOnlyRespectsNonenumerable(t *testing.T) {
	h, strtab := newTestEnv()
	o := New(h, ClassObject, nil)
	enumKey := strtab.Intern([]byte("enumerable_prop"))
	nonEnumKey := strtab.Intern([]byte("nonenumerable_prop"))
	o.Define(enumKey, qval.Number(123), DefaultDataAttrs, false, qval.Undefined(), qval.Undefined())
	o.Define(nonEnumKey, qval.Number(234), AttrWritable|AttrConfigurable, false, qval.Undefined(), qval.Undefined())

	onlyEnum := o.Enumerate(EnumOwnOnly)
	if len(onlyEnum) != 1 || onlyEnum[0] != enumKey {
		t.Fatalf("expected only enumerable_prop, got %v", onlyEnum)
	}

	both := o.Enumerate(EnumOwnOnly | EnumIncludeNonenumerable)
	if len(both) != 2 {
		t.Fatalf("expected both properties with IncludeNonenumerable, got %d", len(both))
	}
}

func TestDeleteHonorsConfigurable(t *testing.T) {
	h, strtab := newTestEnv()
	o := New(h, ClassObject, nil)
	key := strtab.Intern([]byte("fixed"))
	o.Define(key, qval.Bool(true), AttrWritable|AttrEnumerable, false, qval.Undefined(), qval.Undefined())

	ok, err := o.Delete(key, true)
	if ok || err == nil {
		t.Fatalf("strict delete of a non-configurable property must throw")
	}
	if !o.Has(key) {
		t.Fatalf("property should still be present after a failed delete")
	}
}

func TestArrayPartAutoGrowsLength(t *testing.T) {
	h, strtab := newTestEnv()
	arr := NewArray(h, strtab, nil)
	idx0 := strtab.Intern([]byte("0"))
	idx5 := strtab.Intern([]byte("5"))

	if err := arr.Put(qval.NewObject(arr), idx0, qval.Number(1), true, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := arr.Put(qval.NewObject(arr), idx5, qval.Number(2), true, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	lengthKey := strtab.Intern([]byte("length"))
	v, _ := arr.Get(qval.NewObject(arr), lengthKey, nil)
	if v.AsNumber() != 6 {
		t.Fatalf("length = %v, want 6", v.AsNumber())
	}
}

func TestPutOnNonExtensibleSilentlyNoOpsNonStrict(t *testing.T) {
	h, strtab := newTestEnv()
	o := New(h, ClassObject, nil)
	o.ClearFlag(FlagExtensible)
	key := strtab.Intern([]byte("x"))

	if err := o.Put(qval.NewObject(o), key, qval.Number(1), false, nil); err != nil {
		t.Fatalf("non-strict put on non-extensible object must not error: %v", err)
	}
	if o.Has(key) {
		t.Fatalf("property must not have been created")
	}
}

func TestPutOnNonExtensibleThrowsStrict(t *testing.T) {
	h, strtab := newTestEnv()
	o := New(h, ClassObject, nil)
	o.ClearFlag(FlagExtensible)
	key := strtab.Intern([]byte("x"))

	if err := o.Put(qval.NewObject(o), key, qval.Number(1), true, nil); err == nil {
		t.Fatalf("strict put on non-extensible object must throw TypeError")
	}
}
