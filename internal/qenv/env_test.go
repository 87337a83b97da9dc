package qenv

import (
	"testing"

	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

type fakeRegisters struct {
	slots []qval.Value
}

func (f *fakeRegisters) Register(i int) qval.Value    { return f.slots[i] }
func (f *fakeRegisters) SetRegister(i int, v qval.Value) { f.slots[i] = v }

func TestGetVarResolvesViaRegisterFastPath(t *testing.T) {
	h := qheap.New()
	strtab := qstrtab.New(h)
	regs := &fakeRegisters{slots: []qval.Value{qval.Number(42)}}
	name := strtab.Intern([]byte("x"))
	env := NewDeclarative(h, nil, regs, map[*qstrtab.String]int{name: 0})

	v, err := GetVar(env, name, nil, true)
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	if v.AsNumber() != 42 {
		t.Fatalf("GetVar = %v, want 42", v.AsNumber())
	}
}

func TestCloseMovesRegisterIntoOwnProperty(t *testing.T) {
	h := qheap.New()
	strtab := qstrtab.New(h)
	regs := &fakeRegisters{slots: []qval.Value{qval.Number(7)}}
	name := strtab.Intern([]byte("x"))
	env := NewDeclarative(h, nil, regs, map[*qstrtab.String]int{name: 0})

	env.Close()
	if !env.IsClosed() {
		t.Fatalf("env should report closed after Close()")
	}
	v, err := GetVar(env, name, nil, true)
	if err != nil {
		t.Fatalf("GetVar after close: %v", err)
	}
	if v.AsNumber() != 7 {
		t.Fatalf("GetVar after close = %v, want 7", v.AsNumber())
	}
}

func TestPutVarNonStrictCreatesOnGlobal(t *testing.T) {
	h := qheap.New()
	strtab := qstrtab.New(h)
	global := qobject.New(h, qobject.ClassObject, nil)
	env := NewObjectRecord(h, nil, global, false)
	name := strtab.Intern([]byte("implicitGlobal"))

	if err := PutVar(env, name, qval.Number(1), false, nil, global); err != nil {
		t.Fatalf("PutVar: %v", err)
	}
	if !global.Has(name) {
		t.Fatalf("non-strict putvar of an unresolved identifier must create it on the global object")
	}
}

func TestPutVarStrictNotFoundIsReferenceError(t *testing.T) {
	h := qheap.New()
	strtab := qstrtab.New(h)
	global := qobject.New(h, qobject.ClassObject, nil)
	env := NewObjectRecord(h, nil, global, false)
	name := strtab.Intern([]byte("missing"))

	if err := PutVar(env, name, qval.Number(1), true, nil, global); err == nil {
		t.Fatalf("strict putvar of an unresolved identifier must throw ReferenceError")
	}
}

func TestDelVarOfRegisterBoundReturnsFalse(t *testing.T) {
	h := qheap.New()
	strtab := qstrtab.New(h)
	regs := &fakeRegisters{slots: []qval.Value{qval.Number(1)}}
	name := strtab.Intern([]byte("x"))
	env := NewDeclarative(h, nil, regs, map[*qstrtab.String]int{name: 0})

	ok, err := DelVar(env, name)
	if err != nil {
		t.Fatalf("DelVar: %v", err)
	}
	if ok {
		t.Fatalf("delvar of a register-bound identifier must return false")
	}
}
