package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// ShapeBase holds the state shared by every shape: the transform pair and
// the orientation flags that decide the sign of computed normals
type ShapeBase struct {
	ObjectToWorld            *core.Transform
	WorldToObject            *core.Transform
	ReverseOrientation       bool
	TransformSwapsHandedness bool
}

// NewShapeBase validates the transform pair. A nil worldToObject is
// derived from objectToWorld.
func NewShapeBase(objectToWorld, worldToObject *core.Transform, reverseOrientation bool) (ShapeBase, error) {
	if objectToWorld == nil {
		return ShapeBase{}, fmt.Errorf("nil object-to-world transform: %w", ErrInvalidParameter)
	}
	if worldToObject == nil {
		worldToObject = objectToWorld.Inverse()
	}
	return ShapeBase{
		ObjectToWorld:            objectToWorld,
		WorldToObject:            worldToObject,
		ReverseOrientation:       reverseOrientation,
		TransformSwapsHandedness: objectToWorld.SwapsHandedness(),
	}, nil
}

// flipNormal reports whether geometric normals computed from dpdu × dpdv
// must be negated
func (b *ShapeBase) flipNormal() bool {
	return b.ReverseOrientation != b.TransformSwapsHandedness
}

// worldBound maps an object-space box to world space
func (b *ShapeBase) worldBound(objectBound core.Bounds3) core.Bounds3 {
	return b.ObjectToWorld.Bounds(objectBound)
}

// sampleNormal transforms an object-space normal and applies
// ReverseOrientation
func (b *ShapeBase) sampleNormal(n core.Normal3) core.Normal3 {
	n = b.ObjectToWorld.Normal(n).Normalize()
	if b.ReverseOrientation {
		n = n.Negate()
	}
	return n
}

// objectRay maps a world-space ray into object space along with per-axis
// interval versions of its origin and direction
func (b *ShapeBase) objectRay(r core.Ray) (ray core.Ray, o, d [3]core.EFloat) {
	ray, oErr, dErr := b.WorldToObject.RayWithError(r)
	for i := 0; i < 3; i++ {
		o[i] = core.NewEFloat(ray.Origin.Index(i), oErr.Index(i))
		d[i] = core.NewEFloat(ray.Direction.Index(i), dErr.Index(i))
	}
	return ray, o, d
}

// azimuth returns atan2(y, x) wrapped to [0, 2π)
func azimuth(x, y float32) float32 {
	phi := math32.Atan2(y, x)
	if phi < 0 {
		phi += 2 * math32.Pi
	}
	return phi
}

// checkPhiMax validates a sweep angle in degrees and converts it to radians
func checkPhiMax(phiMaxDeg float32) (float32, error) {
	if !core.IsFinite(phiMaxDeg) || phiMaxDeg <= 0 {
		return 0, fmt.Errorf("phiMax %g must be in (0, 360]: %w", phiMaxDeg, ErrInvalidParameter)
	}
	return core.Radians(core.Clamp(phiMaxDeg, 0, 360)), nil
}

// checkPositive validates a strictly positive finite parameter
func checkPositive(name string, v float32) error {
	if !core.IsFinite(v) || v <= 0 {
		return fmt.Errorf("%s %g must be positive: %w", name, v, ErrInvalidParameter)
	}
	return nil
}

// checkFinite validates a finite parameter
func checkFinite(name string, v float32) error {
	if !core.IsFinite(v) {
		return fmt.Errorf("%s %g must be finite: %w", name, v, ErrInvalidParameter)
	}
	return nil
}

// weingarten computes the normal derivatives from the first and second
// partial derivatives of the surface
func weingarten(dpdu, dpdv, d2Pduu, d2Pduv, d2Pdvv core.Vec3) (core.Normal3, core.Normal3) {
	E := dpdu.Dot(dpdu)
	F := dpdu.Dot(dpdv)
	G := dpdv.Dot(dpdv)
	N := dpdu.Cross(dpdv).Normalize()
	e := N.Dot(d2Pduu)
	f := N.Dot(d2Pduv)
	g := N.Dot(d2Pdvv)

	egf2 := E*G - F*F
	if egf2 == 0 {
		return core.Normal3{}, core.Normal3{}
	}
	invEGF2 := 1 / egf2
	dndu := dpdu.Multiply((f*F - e*G) * invEGF2).Add(dpdv.Multiply((e*F - f*E) * invEGF2))
	dndv := dpdu.Multiply((g*F - f*G) * invEGF2).Add(dpdv.Multiply((f*F - g*E) * invEGF2))
	return core.NormalFromVec(dndu), core.NormalFromVec(dndv)
}

// quadricHit is the accepted root of a quadric intersection
type quadricHit struct {
	ray  core.Ray    // Object-space ray
	t    core.EFloat // Accepted root
	p    core.Vec3   // Object-space hit point
	pErr core.Vec3   // Error bound of the refined point, when the shape sets one
	phi  float32
}

// pickRoot applies the shared acceptance policy to the two roots of a
// quadric: reject when both fall outside (0, tMax), otherwise try the near
// root and fall back to the far one when evaluate says it is clipped.
func pickRoot(ray core.Ray, t0, t1 core.EFloat, evaluate func(t core.EFloat) (quadricHit, bool)) (quadricHit, bool) {
	if t0.UpperBound() > ray.TMax || t1.LowerBound() <= 0 {
		return quadricHit{}, false
	}
	if t0.LowerBound() > 0 {
		if h, ok := evaluate(t0); ok {
			return h, true
		}
	}
	if t1.UpperBound() > ray.TMax {
		return quadricHit{}, false
	}
	return evaluate(t1)
}
