// Package qnum implements number<->string conversion using a Dragon4/
// Burger-Dybvig variant: the same five-register scale-and-generate loop
// drives both directions, with b/B swapped between input and output radix.
// Unlike the original's fixed-size 32-bit-limb bigint (sized so no dynamic
// allocation is ever needed on an embedded target), this port uses
// math/big.Int for the register arithmetic: Go has no embedded-target
// allocation constraint to design around, and the standard library already
// provides correct, arbitrary-precision integers, so hand-porting the
// limb-multiply routines would only add risk without buying anything.
package qnum

import "math/big"

// dragon4Ctx holds the five bigint registers (f, r, s, m+, m-) plus the
// scalar state the prepare/scale/generate steps thread through.
type dragon4Ctx struct {
	f, r, s, mp, mm *big.Int

	isS2N       bool // string-to-number (true) vs number-to-string (false)
	isFixed     bool
	reqDigits   int
	absPos      bool
	e           int
	b           int // input radix (2 for n2s, the parse radix for s2n)
	bigB        int // output radix (the format radix for n2s, 2 for s2n)
	k           int
	lowOk       bool
	highOk      bool
	unequalGaps bool

	digits []int // generated digit values, 0..B-1
	count  int
}

func newCtx() *dragon4Ctx {
	return &dragon4Ctx{
		f: new(big.Int), r: new(big.Int), s: new(big.Int),
		mp: new(big.Int), mm: new(big.Int),
	}
}

var big0 = big.NewInt(0)
var big1 = big.NewInt(1)
var big2 = big.NewInt(2)

func mulSmall(x *big.Int, y int64) *big.Int {
	return new(big.Int).Mul(x, big.NewInt(y))
}

func expSmall(base int64, y int) *big.Int {
	if y <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(base), big.NewInt(int64(y)), nil)
}

// is2to52 reports whether f is exactly 2^52, the lowest-mantissa marker the
// original detects via its fixed-width bigint representation.
func is2to52(f *big.Int) bool {
	return f.Cmp(new(big.Int).Lsh(big1, 52)) == 0
}

// prepare sets up r, s, m+, m- per the four cases of Burger-Dybvig figure 1,
// dispatched on the sign of e and whether f sits at the bottom edge of its
// exponent's mantissa range (unequal gaps).
func (c *dragon4Ctx) prepare() {
	c.lowOk = c.f.Bit(0) == 0
	c.highOk = c.lowOk

	var lowestMantissa bool
	if !c.isS2N {
		lowestMantissa = is2to52(c.f)
	}

	c.unequalGaps = false
	if c.e >= 0 {
		be := expSmall(int64(c.b), c.e)
		if lowestMantissa {
			c.mm = be
			c.mp = mulSmall(be, int64(c.b))
			t1 := mulSmall(c.f, 2)
			c.r = new(big.Int).Mul(t1, c.mp)
			c.s = big.NewInt(int64(c.b) * 2)
			c.unequalGaps = true
		} else {
			c.mm = be
			c.mp = new(big.Int).Set(be)
			t1 := mulSmall(c.f, 2)
			c.r = new(big.Int).Mul(t1, c.mp)
			c.s = big.NewInt(2)
		}
	} else {
		if c.e > ieeeDoubleExpMin && lowestMantissa {
			c.r = mulSmall(c.f, int64(c.b)*2)
			t1 := expSmall(int64(c.b), 1-c.e)
			c.s = mulSmall(t1, 2)
			c.mp = big.NewInt(2)
			c.mm = big.NewInt(1)
			c.unequalGaps = true
		} else {
			c.r = mulSmall(c.f, 2)
			t1 := expSmall(int64(c.b), -c.e)
			c.s = mulSmall(t1, 2)
			c.mp = big.NewInt(1)
			c.mm = big.NewInt(1)
		}
	}
}

// scale finds k such that r/s lands in [1/B, 1) (with the low/high
// tightness adjustments), by repeatedly multiplying s or r,m+,m- by B.
func (c *dragon4Ctx) scale() {
	k := 0
	bigBig := big.NewInt(int64(c.bigB))

	highCmp := func() int {
		if c.highOk {
			return 0
		}
		return 1
	}

	for {
		t1 := new(big.Int).Add(c.r, c.mp)
		if t1.Cmp(c.s) >= highCmp() {
			c.s = mulSmall(c.s, int64(c.bigB))
			k++
		} else {
			break
		}
	}

	if k == 0 {
		for {
			t1 := new(big.Int).Add(c.r, c.mp)
			t2 := new(big.Int).Mul(t1, bigBig)
			limit := highCmp()
			if t2.Cmp(c.s) <= -1+limit {
				c.r = mulSmall(c.r, int64(c.bigB))
				c.mp = mulSmall(c.mp, int64(c.bigB))
				if c.unequalGaps {
					c.mm = mulSmall(c.mm, int64(c.bigB))
				}
				k--
			} else {
				break
			}
		}
	}

	if !c.unequalGaps {
		c.mm = new(big.Int).Set(c.mp)
	}
	c.k = k
}

// generate runs the digit-production loop: free-format termination checks
// the tightness conditions every round; fixed-format instead stops once
// reqDigits digits (relative) or a given absolute position has been
// produced, per spec.md's description of both modes.
func (c *dragon4Ctx) generate() {
	count := 0
	c.digits = c.digits[:0]
	bigBig := big.NewInt(int64(c.bigB))

	for {
		t1 := new(big.Int).Mul(c.r, bigBig)
		d := 0
		for t1.Cmp(c.s) >= 0 {
			t1.Sub(t1, c.s)
			d++
		}
		c.r = t1
		c.mp = mulSmall(c.mp, int64(c.bigB))
		c.mm = mulSmall(c.mm, int64(c.bigB))

		var tc1, tc2 bool
		if !c.isFixed {
			lowLimit := 0
			if !c.lowOk {
				lowLimit = -1
			}
			tc1 = c.r.Cmp(c.mm) <= lowLimit
			t1b := new(big.Int).Add(c.r, c.mp)
			highLimit := 0
			if !c.highOk {
				highLimit = 1
			}
			tc2 = t1b.Cmp(c.s) >= highLimit
		}

		count++

		if tc1 {
			if tc2 {
				doubled := mulSmall(c.r, 2)
				if doubled.Cmp(c.s) < 0 {
					c.digits = append(c.digits, d)
				} else {
					c.digits = append(c.digits, d+1)
				}
			} else {
				c.digits = append(c.digits, d)
			}
			break
		}
		if tc2 {
			c.digits = append(c.digits, d+1)
			break
		}
		c.digits = append(c.digits, d)

		if c.isFixed {
			if c.absPos {
				pos := c.k - count + 1
				if pos <= c.reqDigits {
					break
				}
			} else if count >= c.reqDigits {
				break
			}
		}
	}

	c.count = count
}

// roundupLimit returns the digit threshold at or above which fixedFormatRound
// carries, ceil(B/2).
func (c *dragon4Ctx) roundupLimit() int { return (c.bigB + 1) / 2 }

// fixedFormatRound rounds the digit buffer at roundIdx (the first digit NOT
// kept), propagating carry leftward. Returns true if carry propagated past
// the first digit, in which case a leading 1 was prepended and k bumped.
func (c *dragon4Ctx) fixedFormatRound(roundIdx int) bool {
	if roundIdx >= c.count || roundIdx < 0 {
		return false
	}
	limit := c.roundupLimit()
	if c.digits[roundIdx] < limit {
		return false
	}

	i := roundIdx
	for {
		c.digits[i] = 0
		if i == 0 {
			c.digits = append([]int{1}, c.digits...)
			c.k++
			c.count++
			return true
		}
		i--
		c.digits[i]++
		if c.digits[i] < c.bigB {
			return false
		}
	}
}

const (
	ieeeDoubleExpBias = 1023
	ieeeDoubleExpMin  = -1022
)
