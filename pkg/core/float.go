package core

import (
	"math"

	"github.com/chewxy/math32"
)

// MachineEpsilon is the bound on relative rounding error of a single
// correctly-rounded float32 operation (half an ulp at 1.0).
const MachineEpsilon float32 = 0x1p-24

// ShadowEpsilon keeps rays spawned toward a point from reaching that point.
const ShadowEpsilon float32 = 0.0001

// Infinity is positive float32 infinity.
var Infinity = math32.Inf(1)

// Gamma returns the conservative bound on the relative error accumulated by
// n successive rounded operations: n·ε / (1 − n·ε).
func Gamma(n int) float32 {
	ne := float32(n) * MachineEpsilon
	return ne / (1 - ne)
}

// NextFloatUp returns the smallest float32 strictly greater than v.
// +Inf is returned unchanged and -0 is treated as +0.
func NextFloatUp(v float32) float32 {
	if math32.IsInf(v, 1) {
		return v
	}
	if v == 0 {
		v = 0
	}
	bits := math.Float32bits(v)
	if v >= 0 {
		bits++
	} else {
		bits--
	}
	return math.Float32frombits(bits)
}

// NextFloatDown returns the largest float32 strictly less than v.
// -Inf is returned unchanged and +0 is treated as -0.
func NextFloatDown(v float32) float32 {
	if math32.IsInf(v, -1) {
		return v
	}
	if v == 0 {
		v = math32.Copysign(0, -1)
	}
	bits := math.Float32bits(v)
	if v > 0 {
		bits--
	} else {
		bits++
	}
	return math.Float32frombits(bits)
}

// Lerp linearly interpolates between a and b.
func Lerp(t, a, b float32) float32 {
	return (1-t)*a + t*b
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return (math32.Pi / 180) * deg
}

// SafeSqrt is math32.Sqrt with negative inputs (from rounding) clamped to zero.
func SafeSqrt(x float32) float32 {
	return math32.Sqrt(math32.Max(0, x))
}

// SafeACos is math32.Acos with its argument clamped to [-1, 1].
func SafeACos(x float32) float32 {
	return math32.Acos(Clamp(x, -1, 1))
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
