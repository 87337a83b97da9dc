package qval

import (
	"math"
	"testing"
	"unsafe"
)

type fakeRef struct {
	kind uint8
	refs int
}

func (f *fakeRef) IncRef()      { f.refs++ }
func (f *fakeRef) DecRef()      { f.refs-- }
func (f *fakeRef) HeapKind() uint8 { return f.kind }

func TestKindClassificationRoundTrips(t *testing.T) {
	ref := &fakeRef{kind: 2}
	cases := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"undefined", Undefined(), KindUndefined},
		{"null", Null(), KindNull},
		{"true", Bool(true), KindBoolean},
		{"false", Bool(false), KindBoolean},
		{"number", Number(3.5), KindNumber},
		{"object", NewObject(ref), KindObject},
		{"pointer", NewPointer(unsafe.Pointer(&ref)), KindPointer},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.v.Kind() != c.kind {
				t.Fatalf("Kind() = %v, want %v", c.v.Kind(), c.kind)
			}
		})
	}
}

func TestNumberNormalizesNaN(t *testing.T) {
	v1 := Number(math.NaN())
	v2 := Number(math.Float64frombits(0x7ff8000000000001)) // a different NaN payload
	if math.Float64bits(v1.AsNumber()) != math.Float64bits(v2.AsNumber()) {
		t.Fatalf("NaN payloads not normalized to the same bit pattern: %x vs %x",
			math.Float64bits(v1.AsNumber()), math.Float64bits(v2.AsNumber()))
	}
}

func TestAsNumberLenientOnMismatch(t *testing.T) {
	if Undefined().AsNumber() != 0 {
		t.Fatalf("AsNumber on non-number should return 0")
	}
	if Bool(true).AsBool() != true {
		t.Fatalf("AsBool on boolean true should return true")
	}
	if Number(1).AsBool() != false {
		t.Fatalf("AsBool on non-boolean should return false (lenient default)")
	}
}

func TestSameAsStringObjectPointerEquality(t *testing.T) {
	refA := &fakeRef{kind: 1}
	refB := &fakeRef{kind: 1}
	a1 := NewString(refA)
	a2 := NewString(refA)
	b := NewString(refB)
	if !a1.SameAs(a2) {
		t.Fatalf("two Values wrapping the same referent must compare equal")
	}
	if a1.SameAs(b) {
		t.Fatalf("Values wrapping distinct referents must not compare equal")
	}
}

func TestRetainReleaseDispatchesToReferent(t *testing.T) {
	ref := &fakeRef{kind: 3}
	v := NewBuffer(ref)
	v.Retain()
	v.Retain()
	if ref.refs != 2 {
		t.Fatalf("refs = %d, want 2", ref.refs)
	}
	v.Release()
	if ref.refs != 1 {
		t.Fatalf("refs = %d, want 1", ref.refs)
	}
}

func TestUndefinedAndNullHaveNoReferent(t *testing.T) {
	if Undefined().AsRef() != nil || Null().AsRef() != nil {
		t.Fatalf("undefined/null must not carry a heap referent")
	}
}
