package core

// Ray represents a ray with an origin, direction and parametric extent.
// Rays are values: spawning or transforming always builds a new one.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMax      float32 // Intersections are only reported for t in (0, TMax)
	Time      float32
}

// NewRay creates a new ray with unbounded extent
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMax: Infinity}
}

// NewRayWithMax creates a new ray limited to t < tMax
func NewRayWithMax(origin, direction Vec3, tMax float32) Ray {
	return Ray{Origin: origin, Direction: direction, TMax: tMax}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// HasNaN reports whether the origin, direction or extent contain NaN
func (r Ray) HasNaN() bool {
	return r.Origin.HasNaN() || r.Direction.HasNaN() || r.TMax != r.TMax
}
