package core

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"go.viam.com/test"
)

func TestNextFloat(t *testing.T) {
	tests := []float32{0, 1, -1, 1e-30, -1e-30, 3e38, 0x1p-149, -0x1p-149, 123.456}

	for _, v := range tests {
		up := NextFloatUp(v)
		down := NextFloatDown(v)
		if !(up > v) {
			t.Errorf("NextFloatUp(%g) = %g is not greater", v, up)
		}
		if !(down < v) {
			t.Errorf("NextFloatDown(%g) = %g is not smaller", v, down)
		}
		// Nothing representable lies strictly between
		if NextFloatDown(up) != v && !(v == 0 && NextFloatDown(up) == 0) {
			t.Errorf("NextFloatDown(NextFloatUp(%g)) = %g", v, NextFloatDown(up))
		}
		if NextFloatUp(down) != v && !(v == 0 && NextFloatUp(down) == 0) {
			t.Errorf("NextFloatUp(NextFloatDown(%g)) = %g", v, NextFloatUp(down))
		}
	}
}

func TestNextFloat_Infinities(t *testing.T) {
	inf := math32.Inf(1)
	test.That(t, NextFloatUp(inf), test.ShouldEqual, inf)
	test.That(t, NextFloatDown(-inf), test.ShouldEqual, -inf)
	test.That(t, NextFloatUp(math.MaxFloat32), test.ShouldEqual, inf)
	test.That(t, NextFloatDown(-math.MaxFloat32), test.ShouldEqual, -inf)
	test.That(t, NextFloatUp(math32.Copysign(0, -1)), test.ShouldEqual, float32(0x1p-149))
}

func TestGamma(t *testing.T) {
	for n := 1; n < 10; n++ {
		g := Gamma(n)
		lower := float32(n) * MachineEpsilon
		if !(g > lower) {
			t.Errorf("Gamma(%d) = %g not above n·ε = %g", n, g, lower)
		}
		if n > 1 && !(g > Gamma(n-1)) {
			t.Errorf("Gamma(%d) not increasing", n)
		}
	}
	test.That(t, float64(Gamma(3)), test.ShouldAlmostEqual, 3*math.Pow(2, -24), 1e-12)
}

func TestClampAndLerp(t *testing.T) {
	test.That(t, Clamp(5, 0, 1), test.ShouldEqual, float32(1))
	test.That(t, Clamp(-5, 0, 1), test.ShouldEqual, float32(0))
	test.That(t, Clamp(0.5, 0, 1), test.ShouldEqual, float32(0.5))
	test.That(t, Lerp(0, 2, 4), test.ShouldEqual, float32(2))
	test.That(t, Lerp(1, 2, 4), test.ShouldEqual, float32(4))
	test.That(t, Lerp(0.5, 2, 4), test.ShouldEqual, float32(3))
	test.That(t, SafeSqrt(-1e-9), test.ShouldEqual, float32(0))
	test.That(t, math32.IsNaN(SafeACos(1.0000001)), test.ShouldBeFalse)
	test.That(t, IsFinite(math32.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(-math32.Inf(1)), test.ShouldBeFalse)
	test.That(t, IsFinite(1e38), test.ShouldBeTrue)
}
