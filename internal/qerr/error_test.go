package qerr

import "testing"

func TestNewFormatsMessage(t *testing.T) {
	err := New(KindRangeError, "valstack limit reached (%d > %d)", 1001, 1000)
	if err.Kind != KindRangeError {
		t.Fatalf("Kind = %v, want RangeError", err.Kind)
	}
	want := "valstack limit reached (1001 > 1000)"
	if err.Message != want {
		t.Fatalf("Message = %q, want %q", err.Message, want)
	}
}

func TestAugmentSkipsAllocErrors(t *testing.T) {
	err := New(KindAlloc, "allocation of %d bytes failed", 64)
	err.Augment("main.js", 10, nil)
	if err.Filename != "" {
		t.Fatalf("alloc errors must not be augmented, got filename %q", err.Filename)
	}
}

func TestAugmentAppliesOnceOnly(t *testing.T) {
	err := New(KindTypeError, "non-object base reference")
	err.Augment("main.js", 10, []CallSite{{Function: "f", Filename: "main.js", Line: 10}})
	err.Augment("other.js", 99, nil)
	if err.Filename != "main.js" || err.Line != 10 {
		t.Fatalf("second Augment call must not override the first: got %s:%d", err.Filename, err.Line)
	}
}

func TestGuardDoubleFault(t *testing.T) {
	g := NewGuard(nil)
	first := New(KindTypeError, "first error")
	got := g.Begin(first)
	if got != first {
		t.Fatalf("first Begin should return the original error")
	}
	second := New(KindRangeError, "second error while handling the first")
	got = g.Begin(second)
	if got != DoubleFault() {
		t.Fatalf("nested Begin should return the double-fault singleton")
	}
	g.End()
	g.End()
	third := New(KindError, "third error")
	if g.Begin(third) != third {
		t.Fatalf("Begin after End should not report a double fault")
	}
}

func TestAsThrownWrapsForeignErrors(t *testing.T) {
	native := New(KindSyntaxError, "unexpected token")
	if AsThrown(native) != native {
		t.Fatalf("AsThrown should pass through an existing *Thrown unchanged")
	}
	if AsThrown(nil) != nil {
		t.Fatalf("AsThrown(nil) should be nil")
	}
}
