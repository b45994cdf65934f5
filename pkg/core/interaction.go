package core

// Interaction is a point on a surface together with a conservative
// per-axis bound on how far P may lie from the exact surface point.
type Interaction struct {
	P      Vec3    // Computed point
	PError Vec3    // Absolute error bound on each coordinate of P
	N      Normal3 // Geometric normal (unit length, may be zero for non-surface points)
	Wo     Vec3    // Outgoing direction (toward the ray origin that found P)
	Time   float32
}

// ShadingGeometry is the possibly perturbed frame used for shading
type ShadingGeometry struct {
	N          Normal3
	Dpdu, Dpdv Vec3
	Dndu, Dndv Normal3
}

// SurfaceInteraction is the result of a successful ray-shape intersection
type SurfaceInteraction struct {
	Interaction
	UV         Vec2
	Dpdu, Dpdv Vec3
	Dndu, Dndv Normal3
	Shading    ShadingGeometry
	FaceIndex  int
}

// NewSurfaceInteraction builds a record whose geometric normal is
// normalize(dpdu × dpdv), negated when flipNormal is set. flipNormal is the
// shape's reverseOrientation XOR its transform's handedness swap.
func NewSurfaceInteraction(p, pError Vec3, uv Vec2, wo, dpdu, dpdv Vec3,
	dndu, dndv Normal3, time float32, flipNormal bool) *SurfaceInteraction {
	n := NormalFromVec(dpdu.Cross(dpdv).Normalize())
	if flipNormal {
		n = n.Negate()
	}
	return &SurfaceInteraction{
		Interaction: Interaction{P: p, PError: pError, N: n, Wo: wo, Time: time},
		UV:          uv,
		Dpdu:        dpdu,
		Dpdv:        dpdv,
		Dndu:        dndu,
		Dndv:        dndv,
		Shading: ShadingGeometry{
			N:    n,
			Dpdu: dpdu,
			Dpdv: dpdv,
			Dndu: dndu,
			Dndv: dndv,
		},
	}
}

// SetShadingGeometry installs a shading frame. When authoritative is set the
// geometric normal is flipped to agree with the shading normal, otherwise the
// shading normal is flipped to agree with the geometric one.
func (si *SurfaceInteraction) SetShadingGeometry(dpdus, dpdvs Vec3, dndus, dndvs Normal3, authoritative bool) {
	si.Shading.N = NormalFromVec(dpdus.Cross(dpdvs).Normalize())
	if authoritative {
		si.N = si.N.Faceforward(si.Shading.N.Vec())
	} else {
		si.Shading.N = si.Shading.N.Faceforward(si.N.Vec())
	}
	si.Shading.Dpdu = dpdus
	si.Shading.Dpdv = dpdvs
	si.Shading.Dndu = dndus
	si.Shading.Dndv = dndvs
}

// OffsetRayOrigin moves p off the surface along n far enough that the
// result lies outside the error box pError, on the side that w points to.
// Each coordinate is then rounded one ulp further away from p so rounding
// of the addition cannot pull it back inside.
func OffsetRayOrigin(p, pError Vec3, n Normal3, w Vec3) Vec3 {
	d := n.Abs().Dot(pError)
	offset := n.Vec().Multiply(d)
	if n.Dot(w) < 0 {
		offset = offset.Negate()
	}
	po := p.Add(offset)
	for i := 0; i < 3; i++ {
		switch off := offset.Index(i); {
		case off > 0:
			po = po.WithIndex(i, NextFloatUp(po.Index(i)))
		case off < 0:
			po = po.WithIndex(i, NextFloatDown(po.Index(i)))
		}
	}
	return po
}

// SpawnRay returns an unbounded ray leaving the interaction along d
func (it *Interaction) SpawnRay(d Vec3) Ray {
	o := OffsetRayOrigin(it.P, it.PError, it.N, d)
	return Ray{Origin: o, Direction: d, TMax: Infinity, Time: it.Time}
}

// SpawnRayTo returns a ray from the interaction toward target. The ray is
// parameterized so that t = 1 is the target and stops just short of it.
func (it *Interaction) SpawnRayTo(target Vec3) Ray {
	o := OffsetRayOrigin(it.P, it.PError, it.N, target.Subtract(it.P))
	d := target.Subtract(o)
	return Ray{Origin: o, Direction: d, TMax: 1 - ShadowEpsilon, Time: it.Time}
}

// SpawnRayToInteraction returns a ray between two interactions with both
// endpoints offset off their surfaces
func (it *Interaction) SpawnRayToInteraction(other Interaction) Ray {
	po := OffsetRayOrigin(it.P, it.PError, it.N, other.P.Subtract(it.P))
	pt := OffsetRayOrigin(other.P, other.PError, other.N, po.Subtract(other.P))
	d := pt.Subtract(po)
	return Ray{Origin: po, Direction: d, TMax: 1 - ShadowEpsilon, Time: it.Time}
}

// IsSurfaceInteraction reports whether the interaction carries a normal
func (it *Interaction) IsSurfaceInteraction() bool {
	return !it.N.IsZero()
}
