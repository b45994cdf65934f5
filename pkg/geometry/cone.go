package geometry

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// Cone represents an open cone around the object-space z axis with its
// base circle of Radius at z = 0 and its apex at z = Height
type Cone struct {
	ShapeBase
	Height float32
	Radius float32
	PhiMax float32 // Radians
}

// NewCone creates a new cone
func NewCone(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	height, radius, phiMaxDeg float32) (*Cone, error) {
	base, err := NewShapeBase(objectToWorld, worldToObject, reverseOrientation)
	if err != nil {
		return nil, err
	}
	if err := checkPositive("height", height); err != nil {
		return nil, err
	}
	if err := checkPositive("radius", radius); err != nil {
		return nil, err
	}
	phiMax, err := checkPhiMax(phiMaxDeg)
	if err != nil {
		return nil, err
	}

	return &Cone{
		ShapeBase: base,
		Height:    height,
		Radius:    radius,
		PhiMax:    phiMax,
	}, nil
}

// ObjectBound returns the object-space bounding box
func (c *Cone) ObjectBound() core.Bounds3 {
	return core.NewBounds3(
		core.NewVec3(-c.Radius, -c.Radius, 0),
		core.NewVec3(c.Radius, c.Radius, c.Height),
	)
}

// WorldBound returns the world-space bounding box
func (c *Cone) WorldBound() core.Bounds3 {
	return c.worldBound(c.ObjectBound())
}

// hit finds the accepted root shared by Intersect and IntersectP
func (c *Cone) hit(r core.Ray) (quadricHit, bool) {
	ray, o, d := c.objectRay(r)

	// Quadratic coefficients: x² + y² = k·(z - h)² with k = (r/h)²
	k := core.ExactEFloat(c.Radius).Div(core.ExactEFloat(c.Height))
	k = k.Mul(k)
	oz := o[2].Sub(core.ExactEFloat(c.Height))
	a := d[0].Mul(d[0]).Add(d[1].Mul(d[1])).Sub(k.Mul(d[2]).Mul(d[2]))
	b := d[0].Mul(o[0]).Add(d[1].Mul(o[1])).Sub(k.Mul(d[2]).Mul(oz)).Scale(2)
	cc := o[0].Mul(o[0]).Add(o[1].Mul(o[1])).Sub(k.Mul(oz).Mul(oz))

	t0, t1, ok := core.Quadratic(a, b, cc)
	if !ok {
		return quadricHit{}, false
	}

	return pickRoot(ray, t0, t1, func(t core.EFloat) (quadricHit, bool) {
		p := ray.At(t.Value())

		// The apex itself is excluded: its parametrization is singular
		if p.Z < 0 || p.Z >= c.Height {
			return quadricHit{}, false
		}
		hitRad := math32.Sqrt(p.X*p.X + p.Y*p.Y)
		if hitRad == 0 {
			return quadricHit{}, false
		}

		// Refine the hit point onto the surface at its height
		scale := c.Radius * (c.Height - p.Z) / c.Height / hitRad
		p.X *= scale
		p.Y *= scale
		phi := azimuth(p.X, p.Y)
		if phi > c.PhiMax {
			return quadricHit{}, false
		}
		pErr := core.NewVec3(p.X, p.Y, 0).Abs().Multiply(core.Gamma(7))
		return quadricHit{ray: ray, t: t, p: p, pErr: pErr, phi: phi}, true
	})
}

// Intersect finds the first hit with the cone
func (c *Cone) Intersect(r core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool) {
	h, ok := c.hit(r)
	if !ok {
		return 0, nil, false
	}
	p := h.p

	u := h.phi / c.PhiMax
	v := p.Z / c.Height

	dpdu := core.NewVec3(-c.PhiMax*p.Y, c.PhiMax*p.X, 0)
	dpdv := core.NewVec3(-p.X/(1-v), -p.Y/(1-v), c.Height)
	d2Pduu := core.NewVec3(p.X, p.Y, 0).Multiply(-c.PhiMax * c.PhiMax)
	d2Pduv := core.NewVec3(p.Y, -p.X, 0).Multiply(c.PhiMax / (1 - v))
	dndu, dndv := weingarten(dpdu, dpdv, d2Pduu, d2Pduv, core.Vec3{})

	si := core.NewSurfaceInteraction(p, h.pErr, core.NewVec2(u, v), h.ray.Direction.Negate(),
		dpdu, dpdv, dndu, dndv, r.Time, c.flipNormal())
	return h.t.Value(), c.ObjectToWorld.SurfaceInteraction(si), true
}

// IntersectP reports whether the ray hits the cone
func (c *Cone) IntersectP(r core.Ray, testAlpha bool) bool {
	_, ok := c.hit(r)
	return ok
}

// Area returns the object-space lateral surface area
func (c *Cone) Area() float32 {
	return c.Radius * math32.Sqrt(c.Height*c.Height+c.Radius*c.Radius) * c.PhiMax / 2
}

// Sample returns a point uniformly distributed over the cone. The fraction
// of the slant length measured from the apex is distributed as √u.
func (c *Cone) Sample(u core.Vec2) core.Interaction {
	s := math32.Sqrt(u.X)
	z := c.Height * (1 - s)
	phi := u.Y * c.PhiMax
	sinPhi, cosPhi := math32.Sincos(phi)
	rho := c.Radius * s
	pObj := core.NewVec3(rho*cosPhi, rho*sinPhi, z)

	// Outward normal is the gradient of x² + y² - k·(z - h)²
	n := c.sampleNormal(core.NewNormal3(pObj.X, pObj.Y, c.Radius*rho/c.Height))

	pObjError := pObj.Abs().Multiply(core.Gamma(6))
	p, pError := c.ObjectToWorld.PointWithAbsError(pObj, pObjError)
	return core.Interaction{P: p, PError: pError, N: n}
}

// Pdf returns the area density of Sample
func (c *Cone) Pdf(it core.Interaction) float32 {
	return 1 / c.Area()
}
