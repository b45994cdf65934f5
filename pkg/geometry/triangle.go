package geometry

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// Triangle is a single face of a TriangleMesh. It stores only a reference to
// the shared mesh and its own position within it.
type Triangle struct {
	mesh  *TriangleMesh
	index int
}

// triangleHit is the accepted result of the watertight test
type triangleHit struct {
	t          float32
	b0, b1, b2 float32
	uv         core.Vec2
}

// Mesh returns the mesh the triangle belongs to
func (tri *Triangle) Mesh() *TriangleMesh {
	return tri.mesh
}

// Vertices returns the world-space corner positions
func (tri *Triangle) Vertices() (core.Vec3, core.Vec3, core.Vec3) {
	v := tri.mesh.VertexIndices[3*tri.index:]
	return tri.mesh.P[v[0]], tri.mesh.P[v[1]], tri.mesh.P[v[2]]
}

// FaceIndex returns the face index supplied at mesh creation, or the
// triangle's position in the mesh when none was given
func (tri *Triangle) FaceIndex() int {
	if tri.mesh.FaceIndices != nil {
		return tri.mesh.FaceIndices[tri.index]
	}
	return tri.index
}

// uvs returns the per-vertex parametric coordinates, defaulting to
// (0,0), (1,0), (1,1)
func (tri *Triangle) uvs() [3]core.Vec2 {
	if tri.mesh.UV == nil {
		return [3]core.Vec2{core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(1, 1)}
	}
	v := tri.mesh.VertexIndices[3*tri.index:]
	return [3]core.Vec2{tri.mesh.UV[v[0]], tri.mesh.UV[v[1]], tri.mesh.UV[v[2]]}
}

// ObjectBound returns the bounding box of the vertices in object space
func (tri *Triangle) ObjectBound() core.Bounds3 {
	p0, p1, p2 := tri.Vertices()
	w2o := tri.mesh.WorldToObject
	return core.NewBounds3FromPoints(w2o.Point(p0), w2o.Point(p1), w2o.Point(p2))
}

// WorldBound returns the bounding box of the world-space vertices
func (tri *Triangle) WorldBound() core.Bounds3 {
	p0, p1, p2 := tri.Vertices()
	return core.NewBounds3FromPoints(p0, p1, p2)
}

// hit runs the watertight ray-triangle test shared by Intersect and
// IntersectP. The ray is translated to the origin, permuted so that its
// dominant axis is z and sheared so that it points down +z; the hit is then
// a 2D point-in-triangle test on the transformed vertices.
func (tri *Triangle) hit(r core.Ray, testAlpha bool) (triangleHit, bool) {
	p0, p1, p2 := tri.Vertices()

	// Zero-area triangles never intersect
	if p2.Subtract(p0).Cross(p1.Subtract(p0)).LengthSquared() == 0 {
		return triangleHit{}, false
	}

	// Translate vertices based on ray origin
	p0t := p0.Subtract(r.Origin)
	p1t := p1.Subtract(r.Origin)
	p2t := p2.Subtract(r.Origin)

	// Permute components of triangle vertices and ray direction
	kz := r.Direction.Abs().MaxDimension()
	kx := kz + 1
	if kx == 3 {
		kx = 0
	}
	ky := kx + 1
	if ky == 3 {
		ky = 0
	}
	d := r.Direction.Permute(kx, ky, kz)
	p0t = p0t.Permute(kx, ky, kz)
	p1t = p1t.Permute(kx, ky, kz)
	p2t = p2t.Permute(kx, ky, kz)
	if d.Z == 0 {
		return triangleHit{}, false
	}

	// Apply shear transformation to translated vertex positions
	sx := -d.X / d.Z
	sy := -d.Y / d.Z
	sz := 1 / d.Z
	p0t.X += sx * p0t.Z
	p0t.Y += sy * p0t.Z
	p1t.X += sx * p1t.Z
	p1t.Y += sy * p1t.Z
	p2t.X += sx * p2t.Z
	p2t.Y += sy * p2t.Z

	// Compute edge function coefficients
	e0 := p1t.X*p2t.Y - p1t.Y*p2t.X
	e1 := p2t.X*p0t.Y - p2t.Y*p0t.X
	e2 := p0t.X*p1t.Y - p0t.Y*p1t.X

	// Fall back to double precision at triangle edges
	if e0 == 0 || e1 == 0 || e2 == 0 {
		e0 = float32(float64(p1t.X)*float64(p2t.Y) - float64(p1t.Y)*float64(p2t.X))
		e1 = float32(float64(p2t.X)*float64(p0t.Y) - float64(p2t.Y)*float64(p0t.X))
		e2 = float32(float64(p0t.X)*float64(p1t.Y) - float64(p0t.Y)*float64(p1t.X))
	}

	// Edge and determinant tests
	if (e0 < 0 || e1 < 0 || e2 < 0) && (e0 > 0 || e1 > 0 || e2 > 0) {
		return triangleHit{}, false
	}
	det := e0 + e1 + e2
	if det == 0 || det != det {
		return triangleHit{}, false
	}

	// A ray exactly on a shared edge belongs to one triangle only
	if !ownsEdge(e0, det, p1t, p2t) || !ownsEdge(e1, det, p2t, p0t) || !ownsEdge(e2, det, p0t, p1t) {
		return triangleHit{}, false
	}

	// Compute scaled hit distance and test against ray t range
	p0t.Z *= sz
	p1t.Z *= sz
	p2t.Z *= sz
	tScaled := e0*p0t.Z + e1*p1t.Z + e2*p2t.Z
	if det < 0 && (tScaled >= 0 || tScaled < r.TMax*det) {
		return triangleHit{}, false
	} else if det > 0 && (tScaled <= 0 || tScaled > r.TMax*det) {
		return triangleHit{}, false
	}

	// Barycentric coordinates and t value
	invDet := 1 / det
	b0 := e0 * invDet
	b1 := e1 * invDet
	b2 := e2 * invDet
	t := tScaled * invDet

	// Ensure that t is conservatively greater than zero
	maxZt := core.NewVec3(p0t.Z, p1t.Z, p2t.Z).Abs().MaxComponent()
	deltaZ := core.Gamma(3) * maxZt
	maxXt := core.NewVec3(p0t.X, p1t.X, p2t.X).Abs().MaxComponent()
	maxYt := core.NewVec3(p0t.Y, p1t.Y, p2t.Y).Abs().MaxComponent()
	deltaX := core.Gamma(5) * (maxXt + maxZt)
	deltaY := core.Gamma(5) * (maxYt + maxZt)
	deltaE := 2 * (core.Gamma(2)*maxXt*maxYt + deltaY*maxXt + deltaX*maxYt)
	maxE := core.NewVec3(e0, e1, e2).Abs().MaxComponent()
	deltaT := 3 * (core.Gamma(3)*maxE*maxZt + deltaE*maxZt + deltaZ*maxE) * math32.Abs(invDet)
	if t <= deltaT {
		return triangleHit{}, false
	}

	uv := tri.uvs()
	uvHit := uv[0].Multiply(b0).Add(uv[1].Multiply(b1)).Add(uv[2].Multiply(b2))
	if testAlpha && tri.mesh.AlphaMask != nil && tri.mesh.AlphaMask(uvHit) == 0 {
		return triangleHit{}, false
	}
	return triangleHit{t: t, b0: b0, b1: b1, b2: b2, uv: uvHit}, true
}

// ownsEdge breaks ties for an edge function that is exactly zero. Two
// triangles sharing the edge see it in opposite directions once oriented by
// the sign of det, so exactly one of them accepts it.
func ownsEdge(e, det float32, a, b core.Vec3) bool {
	if e != 0 {
		return true
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	if det < 0 {
		dx, dy = -dx, -dy
	}
	return dy > 0 || (dy == 0 && dx < 0)
}

// Intersect finds the hit with the triangle and builds its interaction
// directly in world space
func (tri *Triangle) Intersect(r core.Ray, testAlpha bool) (float32, *core.SurfaceInteraction, bool) {
	h, ok := tri.hit(r, testAlpha)
	if !ok {
		return 0, nil, false
	}
	mesh := tri.mesh
	v := mesh.VertexIndices[3*tri.index:]
	p0, p1, p2 := tri.Vertices()
	uv := tri.uvs()

	// Partial derivatives from the uv parametrization
	duv02 := uv[0].Subtract(uv[2])
	duv12 := uv[1].Subtract(uv[2])
	dp02 := p0.Subtract(p2)
	dp12 := p1.Subtract(p2)
	determinant := duv02.X*duv12.Y - duv02.Y*duv12.X
	degenerateUV := math32.Abs(determinant) < 1e-8
	var dpdu, dpdv core.Vec3
	if !degenerateUV {
		invdet := 1 / determinant
		dpdu = dp02.Multiply(duv12.Y).Subtract(dp12.Multiply(duv02.Y)).Multiply(invdet)
		dpdv = dp12.Multiply(duv02.X).Subtract(dp02.Multiply(duv12.X)).Multiply(invdet)
	}
	if degenerateUV || dpdu.Cross(dpdv).LengthSquared() == 0 {
		// Any frame around the geometric normal will do
		ng := p2.Subtract(p0).Cross(p1.Subtract(p0))
		dpdu, dpdv = core.CoordinateSystem(ng.Normalize())
	}

	// Hit point and its error bound
	b0, b1, b2 := h.b0, h.b1, h.b2
	pHit := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))
	pAbsSum := p0.Multiply(b0).Abs().Add(p1.Multiply(b1).Abs()).Add(p2.Multiply(b2).Abs())
	pError := pAbsSum.Multiply(core.Gamma(7))

	si := core.NewSurfaceInteraction(pHit, pError, h.uv, r.Direction.Negate().Normalize(),
		dpdu, dpdv, core.Normal3{}, core.Normal3{}, r.Time, false)
	si.FaceIndex = tri.FaceIndex()

	// Geometric normal follows the vertex winding, or the shading normals
	// when the mesh has them
	n := core.NormalFromVec(dp02.Cross(dp12).Normalize())
	if mesh.N != nil {
		ns := mesh.N[v[0]].Vec().Multiply(b0).Add(mesh.N[v[1]].Vec().Multiply(b1)).Add(mesh.N[v[2]].Vec().Multiply(b2))
		n = n.Faceforward(ns)
	} else if mesh.flipNormal() {
		n = n.Negate()
	}
	si.N = n
	si.Shading.N = n

	if mesh.N != nil || mesh.S != nil {
		tri.setShading(si, h, v, uv, degenerateUV, determinant)
	}
	return h.t, si, true
}

// setShading installs the interpolated shading frame
func (tri *Triangle) setShading(si *core.SurfaceInteraction, h triangleHit, v []int, uv [3]core.Vec2,
	degenerateUV bool, determinant float32) {
	mesh := tri.mesh
	b0, b1, b2 := h.b0, h.b1, h.b2

	// Shading normal
	ns := si.N
	if mesh.N != nil {
		interp := mesh.N[v[0]].Vec().Multiply(b0).Add(mesh.N[v[1]].Vec().Multiply(b1)).Add(mesh.N[v[2]].Vec().Multiply(b2))
		if interp.LengthSquared() > 0 {
			ns = core.NormalFromVec(interp.Normalize())
		}
	}

	// Shading tangent
	ss := si.Dpdu
	if mesh.S != nil {
		interp := mesh.S[v[0]].Multiply(b0).Add(mesh.S[v[1]].Multiply(b1)).Add(mesh.S[v[2]].Multiply(b2))
		if interp.LengthSquared() > 0 {
			ss = interp
		}
	}
	ss = ss.Normalize()

	// Shading bitangent, then re-orthogonalize the tangent
	ts := ns.Vec().Cross(ss)
	if ts.LengthSquared() > 0 {
		ts = ts.Normalize()
		ss = ts.Cross(ns.Vec())
	} else {
		ss, ts = core.CoordinateSystem(ns.Vec())
	}

	// Normal derivatives from the vertex normals
	var dndu, dndv core.Normal3
	if mesh.N != nil {
		n0, n1, n2 := mesh.N[v[0]].Vec(), mesh.N[v[1]].Vec(), mesh.N[v[2]].Vec()
		if degenerateUV {
			dn := n2.Subtract(n0).Cross(n1.Subtract(n0))
			if dn.LengthSquared() != 0 {
				dnu, dnv := core.CoordinateSystem(dn)
				dndu, dndv = core.NormalFromVec(dnu), core.NormalFromVec(dnv)
			}
		} else {
			duv02 := uv[0].Subtract(uv[2])
			duv12 := uv[1].Subtract(uv[2])
			dn1 := n0.Subtract(n2)
			dn2 := n1.Subtract(n2)
			invDet := 1 / determinant
			dndu = core.NormalFromVec(dn1.Multiply(duv12.Y).Subtract(dn2.Multiply(duv02.Y)).Multiply(invDet))
			dndv = core.NormalFromVec(dn2.Multiply(duv02.X).Subtract(dn1.Multiply(duv12.X)).Multiply(invDet))
		}
	}
	si.SetShadingGeometry(ss, ts, dndu, dndv, true)
}

// IntersectP reports whether the ray hits the triangle
func (tri *Triangle) IntersectP(r core.Ray, testAlpha bool) bool {
	_, ok := tri.hit(r, testAlpha)
	return ok
}

// Area returns the world-space area
func (tri *Triangle) Area() float32 {
	p0, p1, p2 := tri.Vertices()
	return 0.5 * p1.Subtract(p0).Cross(p2.Subtract(p0)).Length()
}

// Sample returns a point uniformly distributed over the triangle
func (tri *Triangle) Sample(u core.Vec2) core.Interaction {
	p0, p1, p2 := tri.Vertices()
	ng := p1.Subtract(p0).Cross(p2.Subtract(p0))
	if ng.LengthSquared() == 0 {
		// Degenerate: no normal, exact vertex
		return core.Interaction{P: p0}
	}

	b := core.UniformSampleTriangle(u)
	b2 := 1 - b.X - b.Y
	p := p0.Multiply(b.X).Add(p1.Multiply(b.Y)).Add(p2.Multiply(b2))

	n := core.NormalFromVec(ng.Normalize())
	mesh := tri.mesh
	if mesh.N != nil {
		v := mesh.VertexIndices[3*tri.index:]
		ns := mesh.N[v[0]].Vec().Multiply(b.X).Add(mesh.N[v[1]].Vec().Multiply(b.Y)).Add(mesh.N[v[2]].Vec().Multiply(b2))
		n = n.Faceforward(ns)
	} else if mesh.flipNormal() {
		n = n.Negate()
	}

	pAbsSum := p0.Multiply(b.X).Abs().Add(p1.Multiply(b.Y).Abs()).Add(p2.Multiply(b2).Abs())
	return core.Interaction{P: p, PError: pAbsSum.Multiply(core.Gamma(6)), N: n}
}

// Pdf returns the area density of Sample
func (tri *Triangle) Pdf(it core.Interaction) float32 {
	return 1 / tri.Area()
}
