package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// Cylinder represents an open cylinder around the object-space z axis
// (no caps), clipped to zMin <= z <= zMax and swept through phi in [0, phiMax]
type Cylinder struct {
	ShapeBase
	Radius     float32
	ZMin, ZMax float32
	PhiMax     float32 // Radians
}

// NewCylinder creates a new cylinder. The z range may be given in either order.
func NewCylinder(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	radius, zMin, zMax, phiMaxDeg float32) (*Cylinder, error) {
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

	if zMin == zMax {
		return nil, fmt.Errorf("cylinder z range [%g, %g] is empty: %w", zMin, zMax, ErrInvalidParameter)
	}

	return &Cylinder{
		ShapeBase: base,
		Radius:    radius,
		ZMin:      math32.Min(zMin, zMax),
		ZMax:      math32.Max(zMin, zMax),
		PhiMax:    phiMax,
	}, nil
}

// ObjectBound returns the object-space bounding box
func (c *Cylinder) ObjectBound() core.Bounds3 {
	return core.NewBounds3(
		core.NewVec3(-c.Radius, -c.Radius, c.ZMin),
		core.NewVec3(c.Radius, c.Radius, c.ZMax),
	)
}

// WorldBound returns the world-space bounding box
func (c *Cylinder) WorldBound() core.Bounds3 {
	return c.worldBound(c.ObjectBound())
}

// hit finds the accepted root shared by Intersect and IntersectP
func (c *Cylinder) hit(r core.Ray) (quadricHit, bool) {
	ray, o, d := c.objectRay(r)

	// Quadratic coefficients: x² + y² = r²
	radius := core.ExactEFloat(c.Radius)
	a := d[0].Mul(d[0]).Add(d[1].Mul(d[1]))
	b := d[0].Mul(o[0]).Add(d[1].Mul(o[1])).Scale(2)
	cc := o[0].Mul(o[0]).Add(o[1].Mul(o[1])).Sub(radius.Mul(radius))

	t0, t1, ok := core.Quadratic(a, b, cc)
	if !ok {
		return quadricHit{}, false
	}

	return pickRoot(ray, t0, t1, func(t core.EFloat) (quadricHit, bool) {
		p := ray.At(t.Value())

		// Refine the hit point back onto the surface
		hitRad := math32.Sqrt(p.X*p.X + p.Y*p.Y)
		p.X *= c.Radius / hitRad
		p.Y *= c.Radius / hitRad
		phi := azimuth(p.X, p.Y)

		if p.Z < c.ZMin || p.Z > c.ZMax || phi > c.PhiMax {
			return quadricHit{}, false
		}
		return quadricHit{ray: ray, t: t, p: p, phi: phi}, true
	})
}

// Intersect finds the first hit with the cylinder
func (c *Cylinder) Intersect(r core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool) {
	h, ok := c.hit(r)
	if !ok {
		return 0, nil, false
	}
	p := h.p

	u := h.phi / c.PhiMax
	v := (p.Z - c.ZMin) / (c.ZMax - c.ZMin)

	dpdu := core.NewVec3(-c.PhiMax*p.Y, c.PhiMax*p.X, 0)
	dpdv := core.NewVec3(0, 0, c.ZMax-c.ZMin)
	d2Pduu := core.NewVec3(p.X, p.Y, 0).Multiply(-c.PhiMax * c.PhiMax)
	dndu, dndv := weingarten(dpdu, dpdv, d2Pduu, core.Vec3{}, core.Vec3{})

	pError := core.NewVec3(p.X, p.Y, 0).Abs().Multiply(core.Gamma(3))
	si := core.NewSurfaceInteraction(p, pError, core.NewVec2(u, v), h.ray.Direction.Negate(),
		dpdu, dpdv, dndu, dndv, r.Time, c.flipNormal())
	return h.t.Value(), c.ObjectToWorld.SurfaceInteraction(si), true
}

// IntersectP reports whether the ray hits the cylinder
func (c *Cylinder) IntersectP(r core.Ray, testAlpha bool) bool {
	_, ok := c.hit(r)
	return ok
}

// Area returns the object-space surface area
func (c *Cylinder) Area() float32 {
	return (c.ZMax - c.ZMin) * c.Radius * c.PhiMax
}

// Sample returns a point uniformly distributed over the cylinder
func (c *Cylinder) Sample(u core.Vec2) core.Interaction {
	z := core.Lerp(u.X, c.ZMin, c.ZMax)
	phi := u.Y * c.PhiMax
	sinPhi, cosPhi := math32.Sincos(phi)
	pObj := core.NewVec3(c.Radius*cosPhi, c.Radius*sinPhi, z)
	n := c.sampleNormal(core.NewNormal3(pObj.X, pObj.Y, 0))

	// Reproject so the stored error bound holds
	hitRad := math32.Sqrt(pObj.X*pObj.X + pObj.Y*pObj.Y)
	pObj.X *= c.Radius / hitRad
	pObj.Y *= c.Radius / hitRad
	pObjError := core.NewVec3(pObj.X, pObj.Y, 0).Abs().Multiply(core.Gamma(3))
	p, pError := c.ObjectToWorld.PointWithAbsError(pObj, pObjError)
	return core.Interaction{P: p, PError: pError, N: n}
}

// Pdf returns the area density of Sample
func (c *Cylinder) Pdf(it core.Interaction) float32 {
	return 1 / c.Area()
}
