package geometry

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// Paraboloid represents the surface z = (ZMax/Radius²)·(x² + y²) around the
// object-space z axis, clipped to ZMin <= z <= ZMax. Radius is the radius of
// the rim at ZMax.
type Paraboloid struct {
	ShapeBase
	Radius     float32
	ZMin, ZMax float32
	PhiMax     float32 // Radians
}

// NewParaboloid creates a new paraboloid between heights z0 and z1, given in
// either order. The upper height must be positive; a negative lower height
// is raised to the vertex at z = 0.
func NewParaboloid(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	radius, z0, z1, phiMaxDeg float32) (*Paraboloid, error) {
	base, err := NewShapeBase(objectToWorld, worldToObject, reverseOrientation)
	if err != nil {
		return nil, err
	}
	if err := checkPositive("radius", radius); err != nil {
		return nil, err
	}
	if err := checkFinite("z0", z0); err != nil {
		return nil, err
	}
	if err := checkFinite("z1", z1); err != nil {
		return nil, err
	}
	phiMax, err := checkPhiMax(phiMaxDeg)
	if err != nil {
		return nil, err
	}

	zMax := math32.Max(z0, z1)
	if zMax <= 0 {
		return nil, fmt.Errorf("paraboloid upper height %g must be positive: %w", zMax, ErrInvalidParameter)
	}
	zMin := math32.Max(math32.Min(z0, z1), 0)
	if zMin == zMax {
		return nil, fmt.Errorf("paraboloid z range [%g, %g] is empty: %w", zMin, zMax, ErrInvalidParameter)
	}
	return &Paraboloid{
		ShapeBase: base,
		Radius:    radius,
		ZMin:      zMin,
		ZMax:      zMax,
		PhiMax:    phiMax,
	}, nil
}

// ObjectBound returns the object-space bounding box
func (pb *Paraboloid) ObjectBound() core.Bounds3 {
	return core.NewBounds3(
		core.NewVec3(-pb.Radius, -pb.Radius, pb.ZMin),
		core.NewVec3(pb.Radius, pb.Radius, pb.ZMax),
	)
}

// WorldBound returns the world-space bounding box
func (pb *Paraboloid) WorldBound() core.Bounds3 {
	return pb.worldBound(pb.ObjectBound())
}

// hit finds the accepted root shared by Intersect and IntersectP
func (pb *Paraboloid) hit(r core.Ray) (quadricHit, bool) {
	ray, o, d := pb.objectRay(r)

	// Quadratic coefficients: k·(x² + y²) = z with k = zMax/r²
	radius := core.ExactEFloat(pb.Radius)
	k := core.ExactEFloat(pb.ZMax).Div(radius.Mul(radius))
	a := k.Mul(d[0].Mul(d[0]).Add(d[1].Mul(d[1])))
	b := k.Mul(d[0].Mul(o[0]).Add(d[1].Mul(o[1]))).Scale(2).Sub(d[2])
	c := k.Mul(o[0].Mul(o[0]).Add(o[1].Mul(o[1]))).Sub(o[2])

	t0, t1, ok := core.Quadratic(a, b, c)
	if !ok {
		return quadricHit{}, false
	}

	return pickRoot(ray, t0, t1, func(t core.EFloat) (quadricHit, bool) {
		p := ray.At(t.Value())

		// Refine the hit point onto the surface above it
		p.Z = pb.ZMax / (pb.Radius * pb.Radius) * (p.X*p.X + p.Y*p.Y)
		phi := azimuth(p.X, p.Y)

		// The vertex itself is excluded: its parametrization is singular
		if p.Z < pb.ZMin || p.Z > pb.ZMax || p.Z <= 0 || phi > pb.PhiMax {
			return quadricHit{}, false
		}
		pErr := core.NewVec3(0, 0, p.Z*core.Gamma(5))
		return quadricHit{ray: ray, t: t, p: p, pErr: pErr, phi: phi}, true
	})
}

// Intersect finds the first hit with the paraboloid
func (pb *Paraboloid) Intersect(r core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool) {
	h, ok := pb.hit(r)
	if !ok {
		return 0, nil, false
	}
	p := h.p

	dz := pb.ZMax - pb.ZMin
	u := h.phi / pb.PhiMax
	v := (p.Z - pb.ZMin) / dz

	dpdu := core.NewVec3(-pb.PhiMax*p.Y, pb.PhiMax*p.X, 0)
	dpdv := core.NewVec3(p.X/(2*p.Z), p.Y/(2*p.Z), 1).Multiply(dz)
	d2Pduu := core.NewVec3(p.X, p.Y, 0).Multiply(-pb.PhiMax * pb.PhiMax)
	d2Pduv := core.NewVec3(-p.Y/(2*p.Z), p.X/(2*p.Z), 0).Multiply(dz * pb.PhiMax)
	d2Pdvv := core.NewVec3(p.X/(4*p.Z*p.Z), p.Y/(4*p.Z*p.Z), 0).Multiply(-dz * dz)
	dndu, dndv := weingarten(dpdu, dpdv, d2Pduu, d2Pduv, d2Pdvv)

	si := core.NewSurfaceInteraction(p, h.pErr, core.NewVec2(u, v), h.ray.Direction.Negate(),
		dpdu, dpdv, dndu, dndv, r.Time, pb.flipNormal())
	return h.t.Value(), pb.ObjectToWorld.SurfaceInteraction(si), true
}

// IntersectP reports whether the ray hits the paraboloid
func (pb *Paraboloid) IntersectP(r core.Ray, testAlpha bool) bool {
	_, ok := pb.hit(r)
	return ok
}

// Area returns the object-space surface area of the clipped paraboloid
func (pb *Paraboloid) Area() float32 {
	k := pb.curvature()
	lo, hi := pb.rimTerm(k, float64(pb.ZMin)), pb.rimTerm(k, float64(pb.ZMax))
	return float32(float64(pb.PhiMax) / (12 * k * k) * (hi - lo))
}

// curvature returns k in z = k·(x² + y²)
func (pb *Paraboloid) curvature() float64 {
	radius := float64(pb.Radius)
	return float64(pb.ZMax) / (radius * radius)
}

// rimTerm returns (1 + 4k·z)^{3/2} - 1, the area below height z up to a
// constant factor. Shallow paraboloids need the expm1/log1p form to keep
// any digits at all.
func (pb *Paraboloid) rimTerm(k, z float64) float64 {
	return math.Expm1(1.5 * math.Log1p(4*k*z))
}

// Sample returns a point uniformly distributed over the paraboloid by
// inverting the area below height z
func (pb *Paraboloid) Sample(u core.Vec2) core.Interaction {
	k := pb.curvature()
	lo, hi := pb.rimTerm(k, float64(pb.ZMin)), pb.rimTerm(k, float64(pb.ZMax))
	w := lo + float64(u.X)*(hi-lo)
	z := core.Clamp(float32(math.Expm1(math.Log1p(w)/1.5)/(4*k)), pb.ZMin, pb.ZMax)

	rho := float32(math.Sqrt(float64(z) / k))
	phi := u.Y * pb.PhiMax
	sinPhi, cosPhi := math32.Sincos(phi)
	pObj := core.NewVec3(rho*cosPhi, rho*sinPhi, z)

	// Outward normal is the gradient of k·(x² + y²) - z
	n := pb.sampleNormal(core.NewNormal3(float32(2*k)*pObj.X, float32(2*k)*pObj.Y, -1))

	pObjError := pObj.Abs().Multiply(core.Gamma(6))
	p, pError := pb.ObjectToWorld.PointWithAbsError(pObj, pObjError)
	return core.Interaction{P: p, PError: pError, N: n}
}

// Pdf returns the area density of Sample
func (pb *Paraboloid) Pdf(it core.Interaction) float32 {
	return 1 / pb.Area()
}
