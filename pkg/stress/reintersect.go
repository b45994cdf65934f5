package stress

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/geometry"
)

// targetMargin is the fraction of a target's distance that must separate it
// from the tangent plane before the side it lies on counts as known
const targetMargin = 1e-5

// maxTargetDraws bounds the redraws for a target clear of the surface
const maxTargetDraws = 32

// LogUniform returns 10^x for x uniform in [-exp, exp], spreading values
// evenly across orders of magnitude
func LogUniform(sampler core.Sampler, exp float32) float32 {
	return math32.Pow(10, core.Lerp(sampler.Get1D(), -exp, exp))
}

// logUniformPoint returns a point with independent log-uniform coordinates
func logUniformPoint(sampler core.Sampler, exp float32) core.Vec3 {
	return core.NewVec3(LogUniform(sampler, exp), LogUniform(sampler, exp), LogUniform(sampler, exp))
}

// clearOfSurface reports whether target is far enough from the tangent plane
// at si that rounding cannot put it on the other side. The plane may lie
// anywhere in the hit's error box.
func clearOfSurface(si *core.SurfaceInteraction, target core.Vec3) bool {
	n := si.N.Vec()
	var dist, extent, length2 float64
	for i := 0; i < 3; i++ {
		d := float64(target.Index(i)) - float64(si.P.Index(i))
		dist += float64(n.Index(i)) * d
		extent += math.Abs(float64(n.Index(i))) * float64(si.PError.Index(i))
		length2 += d * d
	}
	return math.Abs(dist) > 2*extent+targetMargin*math.Sqrt(length2)
}

// clearTarget draws log-uniform points until one is clear of the surface at
// si, giving up after maxTargetDraws
func clearTarget(sampler core.Sampler, si *core.SurfaceInteraction) (core.Vec3, bool) {
	for i := 0; i < maxTargetDraws; i++ {
		if p := logUniformPoint(sampler, 8); clearOfSurface(si, p) {
			return p, true
		}
	}
	return core.Vec3{}, false
}

// query runs both intersection routines and records any disagreement
func (s *Stats) query(shape geometry.Shape, r core.Ray) (*core.SurfaceInteraction, bool, bool) {
	hitP := shape.IntersectP(r, false)
	_, si, hit := shape.Intersect(r, false)
	if hitP != hit {
		s.Inconsistencies++
	}
	return si, hit, hitP
}

// trace counts a spawned ray, failing it when either routine reports a hit
func (s *Stats) trace(shape geometry.Shape, r core.Ray) {
	s.Rays++
	if _, hit, hitP := s.query(shape, r); hit || hitP {
		s.Failures++
	}
}

// ReintersectConvex fires a ray from a random far-away origin toward a
// point in the shape's bounds and, if it hits, spawns rays from the hit
// point into the hemisphere of the surface normal. On a convex shape none of
// those rays may hit the shape again.
func ReintersectConvex(shape geometry.Shape, sampler core.Sampler, raysPerHit int) Stats {
	return reintersectConvex(shape, sampler, raysPerHit, false)
}

// reintersectConvex spawns against the normal when inward is set, for shapes
// with reversed orientation
func reintersectConvex(shape geometry.Shape, sampler core.Sampler, raysPerHit int, inward bool) Stats {
	stats := Stats{Seeds: 1}

	o := logUniformPoint(sampler, 8)
	bounds := shape.WorldBound()
	target := bounds.Lerp(sampler.Get3D())
	r := core.NewRay(o, target.Subtract(o))
	if sampler.Get1D() < 0.5 {
		r.Direction = r.Direction.Normalize()
	}

	// Rounding in the direction can carry a ray aimed at a tiny shape past
	// its bound; such seeds are skipped
	if _, _, ok := bounds.IntersectP(r); !ok {
		return stats
	}

	// Most rays hit, but grazing ones legitimately miss
	si, hit, _ := stats.query(shape, r)
	if !hit {
		return stats
	}
	stats.Hits++
	outward := si.N
	if inward {
		outward = outward.Negate()
	}

	for j := 0; j < raysPerHit; j++ {
		w := core.Faceforward(core.UniformSampleSphere(sampler.Get2D()), outward)
		stats.trace(shape, si.SpawnRay(w))

		// A target point in the same hemisphere
		p := logUniformPoint(sampler, 8)
		w = core.Faceforward(p.Subtract(si.P), outward)
		stats.trace(shape, si.SpawnRayTo(si.P.Add(w)))
	}
	return stats
}

// ReintersectTriangle fires a ray toward a sampled point on a flat shape and
// spawns rays from the hit in every direction. A ray leaving a plane can
// never come back to it, so any hit is a failure. Targets are drawn clear
// of the plane: a segment to a point within rounding of the plane may
// genuinely cross it.
func ReintersectTriangle(shape geometry.Shape, sampler core.Sampler, raysPerHit int) Stats {
	stats := Stats{Seeds: 1}

	target := shape.Sample(sampler.Get2D()).P
	o := logUniformPoint(sampler, 8)
	r := core.NewRay(o, target.Subtract(o))
	if _, _, ok := shape.WorldBound().IntersectP(r); !ok {
		return stats
	}

	si, hit, _ := stats.query(shape, r)
	if !hit {
		return stats
	}
	stats.Hits++

	for j := 0; j < raysPerHit; j++ {
		w := core.UniformSampleSphere(sampler.Get2D())
		stats.trace(shape, si.SpawnRay(w))

		if p, ok := clearTarget(sampler, si); ok {
			stats.trace(shape, si.SpawnRayTo(p))
		}
	}
	return stats
}

// Reintersect runs the test matching the case's shape class
func Reintersect(c Case, shape geometry.Shape, sampler core.Sampler, raysPerHit int) Stats {
	if c.Convex {
		return reintersectConvex(shape, sampler, raysPerHit, c.Inward)
	}
	return ReintersectTriangle(shape, sampler, raysPerHit)
}
