package core

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// EFloat is a float32 value together with a conservative interval
// [low, high] that is guaranteed to contain the exact result of the
// arithmetic that produced it.
type EFloat struct {
	v, low, high float32
}

// NewEFloat returns v with an interval widened by the absolute error err.
func NewEFloat(v, err float32) EFloat {
	if err == 0 {
		return EFloat{v: v, low: v, high: v}
	}
	return EFloat{v: v, low: NextFloatDown(v - err), high: NextFloatUp(v + err)}
}

// ExactEFloat returns v with a zero-width interval.
func ExactEFloat(v float32) EFloat {
	return EFloat{v: v, low: v, high: v}
}

// Value returns the rounded value.
func (f EFloat) Value() float32 { return f.v }

// LowerBound returns the low end of the interval.
func (f EFloat) LowerBound() float32 { return f.low }

// UpperBound returns the high end of the interval.
func (f EFloat) UpperBound() float32 { return f.high }

// AbsoluteError returns an upper bound on |exact - Value()|.
func (f EFloat) AbsoluteError() float32 {
	return NextFloatUp(math32.Max(math32.Abs(f.high-f.v), math32.Abs(f.v-f.low)))
}

// Add returns f + g.
func (f EFloat) Add(g EFloat) EFloat {
	return EFloat{
		v:    f.v + g.v,
		low:  NextFloatDown(f.low + g.low),
		high: NextFloatUp(f.high + g.high),
	}
}

// Sub returns f - g.
func (f EFloat) Sub(g EFloat) EFloat {
	return EFloat{
		v:    f.v - g.v,
		low:  NextFloatDown(f.low - g.high),
		high: NextFloatUp(f.high - g.low),
	}
}

// Mul returns f * g.
func (f EFloat) Mul(g EFloat) EFloat {
	p0 := f.low * g.low
	p1 := f.high * g.low
	p2 := f.low * g.high
	p3 := f.high * g.high
	return EFloat{
		v:    f.v * g.v,
		low:  NextFloatDown(math32.Min(math32.Min(p0, p1), math32.Min(p2, p3))),
		high: NextFloatUp(math32.Max(math32.Max(p0, p1), math32.Max(p2, p3))),
	}
}

// Scale returns s * f for an exactly representable constant s.
func (f EFloat) Scale(s float32) EFloat {
	return ExactEFloat(s).Mul(f)
}

// Div returns f / g. When g's interval contains zero the result interval
// is unbounded.
func (f EFloat) Div(g EFloat) EFloat {
	r := EFloat{v: f.v / g.v}
	if g.low < 0 && g.high > 0 || g.low == 0 || g.high == 0 {
		r.low = math32.Inf(-1)
		r.high = math32.Inf(1)
		return r
	}
	q0 := f.low / g.low
	q1 := f.high / g.low
	q2 := f.low / g.high
	q3 := f.high / g.high
	r.low = NextFloatDown(math32.Min(math32.Min(q0, q1), math32.Min(q2, q3)))
	r.high = NextFloatUp(math32.Max(math32.Max(q0, q1), math32.Max(q2, q3)))
	return r
}

// Neg returns -f.
func (f EFloat) Neg() EFloat {
	return EFloat{v: -f.v, low: -f.high, high: -f.low}
}

// Abs returns |f|.
func (f EFloat) Abs() EFloat {
	switch {
	case f.low >= 0:
		return f
	case f.high <= 0:
		return f.Neg()
	default:
		return EFloat{v: math32.Abs(f.v), low: 0, high: math32.Max(-f.low, f.high)}
	}
}

// Sqrt returns the square root of f.
func (f EFloat) Sqrt() EFloat {
	return EFloat{
		v:    math32.Sqrt(f.v),
		low:  NextFloatDown(math32.Sqrt(math32.Max(0, f.low))),
		high: NextFloatUp(math32.Sqrt(f.high)),
	}
}

// Equal reports whether f and g carry the same value and interval.
func (f EFloat) Equal(g EFloat) bool {
	return f.v == g.v && f.low == g.low && f.high == g.high
}

func (f EFloat) String() string {
	return fmt.Sprintf("v=%g [%g, %g]", f.v, f.low, f.high)
}

// Quadratic solves a·t² + b·t + c = 0 with roots ordered t0 <= t1. An
// exactly zero a degrades to the linear equation. The intervals of a, b and
// c widen the discriminant, so each root interval holds the exact root.
func Quadratic(a, b, c EFloat) (t0, t1 EFloat, ok bool) {
	if a.v == 0 {
		// Linear: a single root reported twice
		if b.v == 0 {
			return EFloat{}, EFloat{}, false
		}
		t := c.Div(b).Neg()
		if math32.IsNaN(t.v) {
			return EFloat{}, EFloat{}, false
		}
		return t, t, true
	}

	discrim := float64(b.v)*float64(b.v) - 4*float64(a.v)*float64(c.v)
	if !(discrim >= 0) || math.IsInf(discrim, 1) {
		return EFloat{}, EFloat{}, false
	}
	low, high := discriminantBounds(a, b, c)
	if math.IsNaN(low) || math.IsNaN(high) {
		return EFloat{}, EFloat{}, false
	}
	rootDiscrim := EFloat{
		v:    float32(math.Sqrt(discrim)),
		low:  NextFloatDown(float32(math.Sqrt(math.Max(low, 0)))),
		high: NextFloatUp(float32(math.Sqrt(high))),
	}

	var q EFloat
	if b.v < 0 {
		q = b.Sub(rootDiscrim).Scale(-0.5)
	} else {
		q = b.Add(rootDiscrim).Scale(-0.5)
	}
	t0 = q.Div(a)
	t1 = c.Div(q)
	if t0.v > t1.v {
		t0, t1 = t1, t0
	}
	if math32.IsNaN(t0.v) || math32.IsNaN(t1.v) {
		return EFloat{}, EFloat{}, false
	}
	return t0, t1, true
}

// discriminantBounds returns an interval holding b² - 4ac for every a, b
// and c in their intervals. Products of float32 bounds are exact in float64;
// the sums are padded for their rounding.
func discriminantBounds(a, b, c EFloat) (low, high float64) {
	bLow, bHigh := float64(b.low), float64(b.high)
	b2Low, b2High := bLow*bLow, bHigh*bHigh
	if b2Low > b2High {
		b2Low, b2High = b2High, b2Low
	}
	if bLow <= 0 && bHigh >= 0 {
		b2Low = 0
	}

	products := [4]float64{
		float64(a.low) * float64(c.low), float64(a.low) * float64(c.high),
		float64(a.high) * float64(c.low), float64(a.high) * float64(c.high),
	}
	acLow, acHigh := products[0], products[0]
	for _, p := range products[1:] {
		acLow = math.Min(acLow, p)
		acHigh = math.Max(acHigh, p)
	}

	const pad = 1.0 / (1 << 50)
	low = b2Low - 4*acHigh
	low -= pad * (b2Low + 4*math.Abs(acHigh))
	high = b2High - 4*acLow
	high += pad * (b2High + 4*math.Abs(acLow))
	return low, high
}
