package geometry

import (
	"errors"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// ErrInvalidParameter is wrapped by constructor errors for out-of-range
// shape parameters.
var ErrInvalidParameter = errors.New("invalid shape parameter")

// ErrInvalidMesh is wrapped by CreateTriangleMesh errors.
var ErrInvalidMesh = errors.New("invalid triangle mesh")

// Shape interface for surfaces that can be hit by rays. Implementations
// are immutable after construction and safe for concurrent queries.
type Shape interface {
	// ObjectBound returns the bounding box in the shape's object space
	ObjectBound() core.Bounds3
	// WorldBound returns a conservative bounding box in world space
	WorldBound() core.Bounds3
	// Intersect finds the first hit with t in (0, ray.TMax). On a hit it
	// returns the ray parameter and a world-space interaction owned by the
	// caller. The ray is never modified.
	Intersect(ray core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool)
	// IntersectP reports whether Intersect would find a hit
	IntersectP(ray core.Ray, testAlpha bool) bool
	// Area returns the surface area. Quadrics report it in object space,
	// which matches world space under rigid transforms.
	Area() float32
	// Sample returns a point distributed uniformly by area on the surface
	Sample(u core.Vec2) core.Interaction
	// Pdf returns the area density of Sample
	Pdf(it core.Interaction) float32
}
