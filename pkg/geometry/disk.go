package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// Disk represents an annulus in the plane z = Height of object space,
// InnerRadius <= ρ <= Radius, swept through phi in [0, PhiMax]
type Disk struct {
	ShapeBase
	Height      float32
	Radius      float32
	InnerRadius float32
	PhiMax      float32 // Radians
}

// NewDisk creates a new disk. An innerRadius of zero gives a full disk.
func NewDisk(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	height, radius, innerRadius, phiMaxDeg float32) (*Disk, error) {
	base, err := NewShapeBase(objectToWorld, worldToObject, reverseOrientation)
	if err != nil {
		return nil, err
	}
	if err := checkFinite("height", height); err != nil {
		return nil, err
	}
	if err := checkPositive("radius", radius); err != nil {
		return nil, err
	}
	if !core.IsFinite(innerRadius) || innerRadius < 0 || innerRadius >= radius {
		return nil, fmt.Errorf("inner radius %g must be in [0, %g): %w", innerRadius, radius, ErrInvalidParameter)
	}
	phiMax, err := checkPhiMax(phiMaxDeg)
	if err != nil {
		return nil, err
	}

	return &Disk{
		ShapeBase:   base,
		Height:      height,
		Radius:      radius,
		InnerRadius: innerRadius,
		PhiMax:      phiMax,
	}, nil
}

// ObjectBound returns the object-space bounding box
func (d *Disk) ObjectBound() core.Bounds3 {
	return core.NewBounds3(
		core.NewVec3(-d.Radius, -d.Radius, d.Height),
		core.NewVec3(d.Radius, d.Radius, d.Height),
	)
}

// WorldBound returns the world-space bounding box
func (d *Disk) WorldBound() core.Bounds3 {
	return d.worldBound(d.ObjectBound())
}

// hit finds the plane crossing shared by Intersect and IntersectP
func (d *Disk) hit(r core.Ray) (quadricHit, bool) {
	ray, _, _ := d.objectRay(r)

	// Ray parallel to the disk plane
	if ray.Direction.Z == 0 {
		return quadricHit{}, false
	}
	t := (d.Height - ray.Origin.Z) / ray.Direction.Z
	if t <= 0 || t >= ray.TMax {
		return quadricHit{}, false
	}

	// Check the annulus and the sweep
	p := ray.At(t)
	dist2 := p.X*p.X + p.Y*p.Y
	if dist2 > d.Radius*d.Radius || dist2 < d.InnerRadius*d.InnerRadius {
		return quadricHit{}, false
	}
	phi := azimuth(p.X, p.Y)
	if phi > d.PhiMax {
		return quadricHit{}, false
	}

	// The plane is exact in z
	p.Z = d.Height
	return quadricHit{ray: ray, t: core.ExactEFloat(t), p: p, phi: phi}, true
}

// Intersect finds the first hit with the disk
func (d *Disk) Intersect(r core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool) {
	h, ok := d.hit(r)
	if !ok {
		return 0, nil, false
	}
	p := h.p

	u := h.phi / d.PhiMax
	rHit := math32.Sqrt(p.X*p.X + p.Y*p.Y)
	v := (d.Radius - rHit) / (d.Radius - d.InnerRadius)

	dpdu := core.NewVec3(-d.PhiMax*p.Y, d.PhiMax*p.X, 0)
	dpdv := core.NewVec3(p.X, p.Y, 0).Multiply((d.InnerRadius - d.Radius) / rHit)
	if rHit == 0 {
		// Exact centre: use the frame of the phi = 0 ray
		dpdu = core.NewVec3(0, d.PhiMax, 0)
		dpdv = core.NewVec3(d.InnerRadius-d.Radius, 0, 0)
	}

	si := core.NewSurfaceInteraction(p, core.Vec3{}, core.NewVec2(u, v), h.ray.Direction.Negate(),
		dpdu, dpdv, core.Normal3{}, core.Normal3{}, r.Time, d.flipNormal())
	return h.t.Value(), d.ObjectToWorld.SurfaceInteraction(si), true
}

// IntersectP reports whether the ray hits the disk
func (d *Disk) IntersectP(r core.Ray, testAlpha bool) bool {
	_, ok := d.hit(r)
	return ok
}

// Area returns the object-space area of the annulus sector
func (d *Disk) Area() float32 {
	return d.PhiMax * 0.5 * (d.Radius*d.Radius - d.InnerRadius*d.InnerRadius)
}

// Sample returns a point uniformly distributed over the disk
func (d *Disk) Sample(u core.Vec2) core.Interaction {
	var pObj core.Vec3
	if d.InnerRadius == 0 && d.PhiMax >= 2*math32.Pi {
		pd := core.ConcentricSampleDisk(u)
		pObj = core.NewVec3(pd.X*d.Radius, pd.Y*d.Radius, d.Height)
	} else {
		// Polar mapping restricted to the annulus sector
		rho := math32.Sqrt(core.Lerp(u.X, d.InnerRadius*d.InnerRadius, d.Radius*d.Radius))
		sinPhi, cosPhi := math32.Sincos(u.Y * d.PhiMax)
		pObj = core.NewVec3(rho*cosPhi, rho*sinPhi, d.Height)
	}
	n := d.sampleNormal(core.NewNormal3(0, 0, 1))

	p, pError := d.ObjectToWorld.PointWithAbsError(pObj, core.Vec3{})
	return core.Interaction{P: p, PError: pError, N: n}
}

// Pdf returns the area density of Sample
func (d *Disk) Pdf(it core.Interaction) float32 {
	return 1 / d.Area()
}
