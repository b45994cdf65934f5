package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// Sphere is a possibly partial sphere centered at the object-space origin,
// clipped to zMin <= z <= zMax and swept through phi in [0, phiMax]
type Sphere struct {
	ShapeBase
	Radius               float32
	ZMin, ZMax           float32
	ThetaZMin, ThetaZMax float32
	PhiMax               float32 // Radians
}

// NewSphere creates a new sphere. zMin and zMax are clamped to the radius
// and may be given in either order; phiMaxDeg is clamped to [0, 360].
func NewSphere(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	radius, zMin, zMax, phiMaxDeg float32) (*Sphere, error) {
	base, err := NewShapeBase(objectToWorld, worldToObject, reverseOrientation)
	if err != nil {
		return nil, err
	}
	if err := checkPositive("radius", radius); err != nil {
		return nil, err
	}
	if err := checkFinite("zMin", zMin); err != nil {
		return nil, err
	}
	if err := checkFinite("zMax", zMax); err != nil {
		return nil, err
	}
	phiMax, err := checkPhiMax(phiMaxDeg)
	if err != nil {
		return nil, err
	}

	lo := core.Clamp(math32.Min(zMin, zMax), -radius, radius)
	hi := core.Clamp(math32.Max(zMin, zMax), -radius, radius)
	if lo == hi {
		return nil, fmt.Errorf("sphere z range [%g, %g] is empty: %w", lo, hi, ErrInvalidParameter)
	}
	return &Sphere{
		ShapeBase: base,
		Radius:    radius,
		ZMin:      lo,
		ZMax:      hi,
		ThetaZMin: math32.Acos(core.Clamp(lo/radius, -1, 1)),
		ThetaZMax: math32.Acos(core.Clamp(hi/radius, -1, 1)),
		PhiMax:    phiMax,
	}, nil
}

// NewFullSphere creates a complete sphere of the given radius
func NewFullSphere(objectToWorld, worldToObject *core.Transform, reverseOrientation bool, radius float32) (*Sphere, error) {
	return NewSphere(objectToWorld, worldToObject, reverseOrientation, radius, -radius, radius, 360)
}

// ObjectBound returns the object-space bounding box
func (s *Sphere) ObjectBound() core.Bounds3 {
	return core.NewBounds3(
		core.NewVec3(-s.Radius, -s.Radius, s.ZMin),
		core.NewVec3(s.Radius, s.Radius, s.ZMax),
	)
}

// WorldBound returns the world-space bounding box
func (s *Sphere) WorldBound() core.Bounds3 {
	return s.worldBound(s.ObjectBound())
}

// hit finds the accepted root shared by Intersect and IntersectP
func (s *Sphere) hit(r core.Ray) (quadricHit, bool) {
	ray, o, d := s.objectRay(r)

	// Quadratic coefficients: |o + t·d|² = r²
	radius := core.ExactEFloat(s.Radius)
	a := d[0].Mul(d[0]).Add(d[1].Mul(d[1])).Add(d[2].Mul(d[2]))
	b := d[0].Mul(o[0]).Add(d[1].Mul(o[1])).Add(d[2].Mul(o[2])).Scale(2)
	c := o[0].Mul(o[0]).Add(o[1].Mul(o[1])).Add(o[2].Mul(o[2])).Sub(radius.Mul(radius))

	t0, t1, ok := core.Quadratic(a, b, c)
	if !ok {
		return quadricHit{}, false
	}

	return pickRoot(ray, t0, t1, func(t core.EFloat) (quadricHit, bool) {
		p := ray.At(t.Value())

		// Refine the hit point back onto the surface
		p = p.Multiply(s.Radius / p.Length())
		if p.X == 0 && p.Y == 0 {
			p.X = 1e-5 * s.Radius
		}
		phi := azimuth(p.X, p.Y)

		// Clip against the z range and the sweep
		if (s.ZMin > -s.Radius && p.Z < s.ZMin) ||
			(s.ZMax < s.Radius && p.Z > s.ZMax) || phi > s.PhiMax {
			return quadricHit{}, false
		}
		return quadricHit{ray: ray, t: t, p: p, phi: phi}, true
	})
}

// Intersect finds the first hit with the sphere
func (s *Sphere) Intersect(r core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool) {
	h, ok := s.hit(r)
	if !ok {
		return 0, nil, false
	}
	p := h.p

	// Parametric representation
	u := h.phi / s.PhiMax
	cosTheta := core.Clamp(p.Z/s.Radius, -1, 1)
	theta := math32.Acos(cosTheta)
	dTheta := s.ThetaZMax - s.ThetaZMin
	v := (theta - s.ThetaZMin) / dTheta

	zRadius := math32.Sqrt(p.X*p.X + p.Y*p.Y)
	cosPhi := p.X / zRadius
	sinPhi := p.Y / zRadius
	sinTheta := core.SafeSqrt(1 - cosTheta*cosTheta)

	// First and second partial derivatives
	dpdu := core.NewVec3(-s.PhiMax*p.Y, s.PhiMax*p.X, 0)
	dpdv := core.NewVec3(p.Z*cosPhi, p.Z*sinPhi, -s.Radius*sinTheta).Multiply(dTheta)
	d2Pduu := core.NewVec3(p.X, p.Y, 0).Multiply(-s.PhiMax * s.PhiMax)
	d2Pduv := core.NewVec3(-sinPhi, cosPhi, 0).Multiply(dTheta * p.Z * s.PhiMax)
	d2Pdvv := p.Multiply(-dTheta * dTheta)
	dndu, dndv := weingarten(dpdu, dpdv, d2Pduu, d2Pduv, d2Pdvv)

	pError := p.Abs().Multiply(core.Gamma(5))
	si := core.NewSurfaceInteraction(p, pError, core.NewVec2(u, v), h.ray.Direction.Negate(),
		dpdu, dpdv, dndu, dndv, r.Time, s.flipNormal())
	return h.t.Value(), s.ObjectToWorld.SurfaceInteraction(si), true
}

// IntersectP reports whether the ray hits the sphere
func (s *Sphere) IntersectP(r core.Ray, testAlpha bool) bool {
	_, ok := s.hit(r)
	return ok
}

// Area returns the object-space surface area of the clipped sphere
func (s *Sphere) Area() float32 {
	return s.PhiMax * s.Radius * (s.ZMax - s.ZMin)
}

// Sample returns a point uniformly distributed over the clipped sphere. By
// Archimedes' hat-box theorem area is uniform in z, so z and phi are drawn
// independently; for a full sphere this is UniformSampleSphere scaled by r.
func (s *Sphere) Sample(u core.Vec2) core.Interaction {
	z := core.Lerp(u.X, s.ZMin, s.ZMax)
	phi := u.Y * s.PhiMax
	rho := core.SafeSqrt(s.Radius*s.Radius - z*z)
	sinPhi, cosPhi := math32.Sincos(phi)
	pObj := core.NewVec3(rho*cosPhi, rho*sinPhi, z)
	n := s.sampleNormal(core.NormalFromVec(pObj))

	// Reproject so the stored error bound holds
	pObj = pObj.Multiply(s.Radius / pObj.Length())
	pObjError := pObj.Abs().Multiply(core.Gamma(5))
	p, pError := s.ObjectToWorld.PointWithAbsError(pObj, pObjError)
	return core.Interaction{P: p, PError: pError, N: n}
}

// Pdf returns the area density of Sample
func (s *Sphere) Pdf(it core.Interaction) float32 {
	return 1 / s.Area()
}
