package qnum

import (
	"math"
	"strings"
)

// FormatFlags mirrors the DUK_N2S_FLAG_* bits from the original: how
// Format selects between free-format (shortest round-tripping
// representation) and fixed-format (toFixed/toPrecision-style) output.
type FormatFlags uint8

const (
	// ForceExp always uses exponential notation, regardless of magnitude.
	ForceExp FormatFlags = 1 << iota
	// NoZeroPad forces exponential notation rather than padding with
	// trailing zeros to satisfy a fixed digit count.
	NoZeroPad
	// FixedFormat requests exactly `digits` digits instead of the
	// shortest round-tripping representation.
	FixedFormat
	// FractionDigits interprets `digits` as an absolute position after
	// the decimal point (toFixed) rather than a relative digit count
	// (toPrecision).
	FractionDigits
)

const digitChars = "0123456789abcdefghijklmnopqrstuvwxyz"

func digitChar(d int) byte { return digitChars[d] }

// formatUintRadix renders x in the given radix with no sign or padding.
func formatUintRadix(x uint32, radix int) string {
	if x == 0 {
		return "0"
	}
	var buf [32]byte
	i := len(buf)
	for x > 0 {
		i--
		buf[i] = digitChar(int(x % uint32(radix)))
		x /= uint32(radix)
	}
	return string(buf[i:])
}

// Format converts x to a string in the given radix (2-36), matching
// ECMAScript's Number.prototype.toString/toFixed/toPrecision semantics
// depending on flags. digits is the requested digit count; its meaning
// depends on FixedFormat/FractionDigits.
func Format(x float64, radix int, flags FormatFlags, digits int) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	neg := math.Signbit(x)
	if neg {
		x = -x
	}
	if math.IsInf(x, 0) {
		if neg {
			return "-Infinity"
		}
		return "Infinity"
	}

	if uval := uint32(x); float64(uval) == x && flags == 0 {
		s := formatUintRadix(uval, radix)
		if neg && uval != 0 {
			return "-" + s
		}
		return s
	}

	c := newCtx()
	c.isS2N = false
	c.b = 2
	c.bigB = radix
	c.isFixed = flags&FixedFormat != 0
	if c.isFixed {
		if flags&FractionDigits != 0 {
			c.absPos = true
			c.reqDigits = (-digits + 1) - 1
		} else {
			c.reqDigits = digits + 1
		}
	}

	if x == 0 {
		var count int
		if c.isFixed {
			if c.absPos {
				count = digits + 2
			} else {
				count = digits + 1
			}
		} else {
			count = 1
		}
		c.digits = make([]int, count)
		c.count = count
		c.k = 1
		neg = false
	} else {
		f, e := doubleToFraction(x)
		c.f = f
		c.e = e
		c.prepare()
		c.scale()
		c.generate()
	}

	if c.isFixed {
		var roundpos int
		if flags&FractionDigits != 0 {
			roundpos = c.k - (-digits)
		} else {
			roundpos = digits
		}
		c.fixedFormatRound(roundpos)
	}

	return dragon4ConvertAndFormat(c, radix, digits, flags, neg)
}

const noExp = 65536

// dragon4ConvertAndFormat assembles the final string from c.digits/c.k,
// choosing decimal-point placement and exponential notation per
// spec.md's presentation rules.
func dragon4ConvertAndFormat(c *dragon4Ctx, radix, digits int, flags FormatFlags, neg bool) string {
	k := c.k
	var b strings.Builder

	exp := noExp
	if !c.absPos {
		if flags&ForceExp != 0 ||
			(flags&NoZeroPad != 0 && k-digits >= 1) ||
			(radix == 10 && (k > 21 || k <= -6)) {
			exp = k - 1
			k = 1
		}
	}

	if neg {
		b.WriteByte('-')
	}

	pos := k
	if pos < 1 {
		pos = 1
	}
	var posEnd int
	if c.isFixed {
		if c.absPos {
			posEnd = -digits
		} else {
			posEnd = k - digits
		}
	} else {
		posEnd = k - c.count
	}
	if posEnd > 0 {
		posEnd = 0
	}

	for pos > posEnd {
		if pos == 0 {
			b.WriteByte('.')
		}
		switch {
		case pos > k:
			b.WriteByte('0')
		case pos <= k-c.count:
			b.WriteByte('0')
		default:
			b.WriteByte(digitChar(c.digits[k-pos]))
		}
		pos--
	}

	if exp != noExp {
		b.WriteByte('e')
		sign := byte('+')
		if exp < 0 {
			sign = '-'
			exp = -exp
		}
		b.WriteByte(sign)
		b.WriteString(formatUintRadix(uint32(exp), radix))
	}

	return b.String()
}
