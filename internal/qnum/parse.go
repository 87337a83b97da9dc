package qnum

import (
	"math"
	"math/big"
	"strings"
)

// ParseFlags mirrors the DUK_S2N_FLAG_* bits: the numeric-literal grammar
// varies by call site (ToNumber vs parseInt vs parseFloat vs a numeric
// constant in source text), so every optional production is gated by its
// own flag rather than hardcoded.
type ParseFlags uint32

const (
	TrimWhite ParseFlags = 1 << iota
	AllowExp
	AllowGarbage
	AllowPlus
	AllowMinus
	AllowInfinity
	AllowFrac
	AllowNakedFrac   // ".5" with no leading whole-part digit
	AllowEmptyFrac   // "5." with no digit after the point
	AllowEmptyAsZero // "" (after sign/prefix) parses as 0
	AllowLeadingZero
	AllowAutoHexInt // "0x..." selects radix 16 when radix requested is 0
	AllowAutoOctInt // "0o..." or a bare leading "0" selects radix 8
)

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// Parse converts s to a float64 per the given radix (0 requests
// auto-detection via a "0x"/"0o" prefix or a bare leading zero, falling
// back to 10) and flags. ok is false if s does not match the requested
// grammar (and AllowGarbage did not salvage a valid prefix).
func Parse(s string, radix int, flags ParseFlags) (value float64, ok bool) {
	if flags&TrimWhite != 0 {
		s = strings.TrimFunc(s, isNumConvSpace)
	}

	pos := 0
	n := len(s)

	neg := false
	if pos < n && s[pos] == '-' && flags&AllowMinus != 0 {
		neg = true
		pos++
	} else if pos < n && s[pos] == '+' && flags&AllowPlus != 0 {
		pos++
	}

	if flags&AllowInfinity != 0 && strings.HasPrefix(s[pos:], "Infinity") {
		rest := pos + len("Infinity")
		if rest == n || flags&AllowGarbage != 0 {
			if neg {
				return math.Inf(-1), true
			}
			return math.Inf(1), true
		}
		return 0, false
	}

	effRadix := radix
	if effRadix == 0 {
		effRadix = 10
		if pos+1 < n && s[pos] == '0' {
			c1 := s[pos+1]
			switch {
			case (c1 == 'x' || c1 == 'X') && flags&AllowAutoHexInt != 0:
				effRadix = 16
				pos += 2
			case (c1 == 'o' || c1 == 'O') && flags&AllowAutoOctInt != 0:
				effRadix = 8
				pos += 2
			case digitValue(c1) >= 0 && digitValue(c1) < 8 && flags&AllowAutoOctInt != 0:
				effRadix = 8
				pos++
			}
		}
	}
	if effRadix < 2 || effRadix > 36 {
		return 0, false
	}

	var digits strings.Builder
	wholeCount := 0
	for pos < n {
		d := digitValue(s[pos])
		if d < 0 || d >= effRadix {
			break
		}
		digits.WriteByte(s[pos])
		wholeCount++
		pos++
	}
	if wholeCount > 1 && s[pos-wholeCount] == '0' && flags&AllowLeadingZero == 0 {
		return 0, false
	}

	fracCount := 0
	if pos < n && s[pos] == '.' {
		if flags&AllowFrac == 0 {
			if flags&AllowGarbage == 0 {
				return 0, false
			}
		} else {
			if wholeCount == 0 && flags&AllowNakedFrac == 0 {
				return 0, false
			}
			savedPos := pos
			pos++
			for pos < n {
				d := digitValue(s[pos])
				if d < 0 || d >= effRadix {
					break
				}
				digits.WriteByte(s[pos])
				fracCount++
				pos++
			}
			if fracCount == 0 {
				if flags&AllowEmptyFrac == 0 {
					pos = savedPos
				}
			}
		}
	}

	if wholeCount == 0 && fracCount == 0 {
		if flags&AllowEmptyAsZero == 0 {
			return 0, false
		}
		return math.Copysign(0, signOf(neg)), true
	}

	expVal := 0
	if pos < n && (s[pos] == 'e' || s[pos] == 'E') && flags&AllowExp != 0 && effRadix == 10 {
		savedPos := pos
		epos := pos + 1
		eneg := false
		if epos < n && (s[epos] == '+' || s[epos] == '-') {
			eneg = s[epos] == '-'
			epos++
		}
		digitsStart := epos
		eval := 0
		for epos < n {
			d := digitValue(s[epos])
			if d < 0 || d >= 10 {
				break
			}
			eval = eval*10 + d
			epos++
		}
		if epos == digitsStart {
			pos = savedPos // no exponent digits: not a valid exponent part
		} else {
			if eneg {
				eval = -eval
			}
			expVal = eval
			pos = epos
		}
	}

	if pos != n && flags&AllowGarbage == 0 {
		return 0, false
	}

	f := new(big.Int)
	if digits.Len() > 0 {
		f.SetString(digits.String(), effRadix)
	}
	if f.Sign() == 0 {
		return math.Copysign(0, signOf(neg)), true
	}

	c := newCtx()
	c.isS2N = true
	c.b = effRadix
	c.bigB = 2
	c.f = f
	c.e = expVal - fracCount
	c.prepare()
	// Produce exactly 54 binary digits (53 mantissa bits plus one rounding
	// bit). With m+ and m- zeroed and both bounds inclusive, scale places
	// r/s in [1/2, 1), so the first digit is the leading 1-bit.
	c.isFixed = true
	c.reqDigits = 54
	c.mp, c.mm = new(big.Int), new(big.Int)
	c.lowOk, c.highOk = true, true
	c.scale()
	c.generate()

	return c.assembleDouble(neg), true
}

func signOf(neg bool) float64 {
	if neg {
		return -1
	}
	return 1
}

func isNumConvSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', 0x00A0, 0xFEFF, 0x2028, 0x2029:
		return true
	}
	return false
}
