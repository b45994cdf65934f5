package core

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// Sampler provides random sample values in [0, 1)
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float32
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float32 in [0, 1)
func (r *RandomSampler) Get1D() float32 {
	return r.random.Float32()
}

// Get2D returns two random float32 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float32(), r.random.Float32())
}

// Get3D returns three random float32 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float32(), r.random.Float32(), r.random.Float32())
}

// UniformSampleSphere maps a sample to a uniformly distributed unit direction
func UniformSampleSphere(sample Vec2) Vec3 {
	z := 1 - 2*sample.X // z ∈ [-1, 1]
	r := SafeSqrt(1 - z*z)
	phi := 2 * math32.Pi * sample.Y
	sinPhi, cosPhi := math32.Sincos(phi)
	return NewVec3(r*cosPhi, r*sinPhi, z)
}

// UniformSpherePdf is the solid-angle density of UniformSampleSphere
func UniformSpherePdf() float32 {
	return 1 / (4 * math32.Pi)
}

// UniformSampleHemisphere maps a sample to a uniform direction with z >= 0
func UniformSampleHemisphere(sample Vec2) Vec3 {
	z := sample.X
	r := SafeSqrt(1 - z*z)
	phi := 2 * math32.Pi * sample.Y
	sinPhi, cosPhi := math32.Sincos(phi)
	return NewVec3(r*cosPhi, r*sinPhi, z)
}

// UniformSampleTriangle maps a square sample to uniformly distributed
// barycentric coordinates (b0, b1); the third is 1 - b0 - b1
func UniformSampleTriangle(sample Vec2) Vec2 {
	su0 := math32.Sqrt(sample.X)
	return NewVec2(1-su0, sample.Y*su0)
}

// ConcentricSampleDisk maps a square sample to the unit disk
// This avoids rejection sampling by mapping a square uniformly to a disk
func ConcentricSampleDisk(sample Vec2) Vec2 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	uOffset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec2(0, 0)
	}

	// Apply concentric mapping to point
	var theta, r float32
	if math32.Abs(uOffset.X) > math32.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math32.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math32.Pi/2 - math32.Pi/4*(uOffset.X/uOffset.Y)
	}

	sinTheta, cosTheta := math32.Sincos(theta)
	return NewVec2(r*cosTheta, r*sinTheta)
}
