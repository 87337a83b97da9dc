package qnum

import "testing"

const numericLiteralFlags = TrimWhite | AllowExp | AllowFrac | AllowMinus | AllowPlus | AllowInfinity | AllowAutoHexInt | AllowAutoOctInt | AllowLeadingZero

func TestParseBasicIntegers(t *testing.T) {
	cases := []struct {
		s    string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"-17", -17},
		{"  99  ", 99},
	}
	for _, c := range cases {
		got, ok := Parse(c.s, 10, numericLiteralFlags)
		if !ok {
			t.Fatalf("Parse(%q) failed", c.s)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestParseHexAndOctalPrefixes(t *testing.T) {
	got, ok := Parse("0xff", 0, numericLiteralFlags)
	if !ok || got != 255 {
		t.Fatalf("Parse(0xff) = %v ok=%v, want 255", got, ok)
	}
	got, ok = Parse("0o17", 0, numericLiteralFlags)
	if !ok || got != 15 {
		t.Fatalf("Parse(0o17) = %v ok=%v, want 15", got, ok)
	}
}

func TestParseFractionAndExponent(t *testing.T) {
	got, ok := Parse("3.5e2", 10, numericLiteralFlags)
	if !ok || got != 350 {
		t.Fatalf("Parse(3.5e2) = %v ok=%v, want 350", got, ok)
	}
	got, ok = Parse(".25", 10, numericLiteralFlags|AllowNakedFrac)
	if !ok || got != 0.25 {
		t.Fatalf("Parse(.25) = %v ok=%v, want 0.25", got, ok)
	}
}

func TestParseInfinity(t *testing.T) {
	got, ok := Parse("-Infinity", 10, numericLiteralFlags)
	if !ok {
		t.Fatal("Parse(-Infinity) failed")
	}
	if got >= 0 {
		t.Fatalf("expected negative infinity, got %v", got)
	}
}

func TestParseRejectsGarbageWithoutFlag(t *testing.T) {
	if _, ok := Parse("42abc", 10, numericLiteralFlags); ok {
		t.Fatal("expected Parse to reject trailing garbage")
	}
	if _, ok := Parse("42abc", 10, numericLiteralFlags|AllowGarbage); !ok {
		t.Fatal("expected Parse to accept trailing garbage with AllowGarbage")
	}
}

func TestParseEmptyAsZero(t *testing.T) {
	got, ok := Parse("", 10, AllowEmptyAsZero)
	if !ok || got != 0 {
		t.Fatalf("Parse(\"\") = %v ok=%v, want 0", got, ok)
	}
	if _, ok := Parse("", 10, 0); ok {
		t.Fatal("expected Parse(\"\") to fail without AllowEmptyAsZero")
	}
}
