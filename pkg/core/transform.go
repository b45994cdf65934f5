package core

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrSingularTransform is returned when a matrix has no inverse.
var ErrSingularTransform = errors.New("singular transform")

// Transform is an affine map stored with its inverse. Both matrices are
// always set together so the inverse never has to be recomputed on the
// intersection path.
type Transform struct {
	m, mInv mgl32.Mat4
}

// Identity returns the identity transform
func Identity() *Transform {
	return NewTransformPair(mgl32.Ident4(), mgl32.Ident4())
}

// NewTransform builds a transform from m, computing its inverse
func NewTransform(m mgl32.Mat4) (*Transform, error) {
	det := m.Det()
	if det == 0 || !IsFinite(det) {
		return nil, fmt.Errorf("determinant %g: %w", det, ErrSingularTransform)
	}
	return NewTransformPair(m, m.Inv()), nil
}

// NewTransformPair builds a transform from a matrix and its known inverse
func NewTransformPair(m, mInv mgl32.Mat4) *Transform {
	return &Transform{m: m, mInv: mInv}
}

// Translate returns a translation by delta
func Translate(delta Vec3) *Transform {
	return NewTransformPair(
		mgl32.Translate3D(delta.X, delta.Y, delta.Z),
		mgl32.Translate3D(-delta.X, -delta.Y, -delta.Z),
	)
}

// Scale returns a non-uniform scale; zero factors are rejected
func Scale(x, y, z float32) (*Transform, error) {
	if x == 0 || y == 0 || z == 0 {
		return nil, fmt.Errorf("scale (%g, %g, %g): %w", x, y, z, ErrSingularTransform)
	}
	return NewTransformPair(mgl32.Scale3D(x, y, z), mgl32.Scale3D(1/x, 1/y, 1/z)), nil
}

// RotateX returns a rotation of thetaDeg degrees about the x axis
func RotateX(thetaDeg float32) *Transform {
	m := mgl32.HomogRotate3DX(Radians(thetaDeg))
	return NewTransformPair(m, m.Transpose())
}

// RotateY returns a rotation of thetaDeg degrees about the y axis
func RotateY(thetaDeg float32) *Transform {
	m := mgl32.HomogRotate3DY(Radians(thetaDeg))
	return NewTransformPair(m, m.Transpose())
}

// RotateZ returns a rotation of thetaDeg degrees about the z axis
func RotateZ(thetaDeg float32) *Transform {
	m := mgl32.HomogRotate3DZ(Radians(thetaDeg))
	return NewTransformPair(m, m.Transpose())
}

// Rotate returns a rotation of thetaDeg degrees about an arbitrary axis
func Rotate(thetaDeg float32, axis Vec3) *Transform {
	a := axis.Normalize()
	m := mgl32.HomogRotate3D(Radians(thetaDeg), mgl32.Vec3{a.X, a.Y, a.Z})
	return NewTransformPair(m, m.Transpose())
}

// Matrix returns the forward matrix
func (t *Transform) Matrix() mgl32.Mat4 { return t.m }

// InverseMatrix returns the inverse matrix
func (t *Transform) InverseMatrix() mgl32.Mat4 { return t.mInv }

// Inverse returns the inverse transform
func (t *Transform) Inverse() *Transform {
	return NewTransformPair(t.mInv, t.m)
}

// Compose returns t∘u: u is applied first, then t
func (t *Transform) Compose(u *Transform) *Transform {
	return NewTransformPair(t.m.Mul4(u.m), u.mInv.Mul4(t.mInv))
}

// IsIdentity reports whether the forward matrix is exactly the identity
func (t *Transform) IsIdentity() bool {
	return t.m == mgl32.Ident4()
}

// SwapsHandedness reports whether the transform changes a right-handed
// coordinate system into a left-handed one
func (t *Transform) SwapsHandedness() bool {
	return t.m.Mat3().Det() < 0
}

// Point applies the transform to a point
func (t *Transform) Point(p Vec3) Vec3 {
	m := &t.m
	xp := m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3)
	yp := m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3)
	zp := m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3)
	wp := m.At(3, 0)*p.X + m.At(3, 1)*p.Y + m.At(3, 2)*p.Z + m.At(3, 3)
	if wp == 1 {
		return NewVec3(xp, yp, zp)
	}
	return NewVec3(xp, yp, zp).Divide(wp)
}

// PointWithError applies the transform to an exact point and returns a
// conservative bound on the absolute rounding error of the result
func (t *Transform) PointWithError(p Vec3) (Vec3, Vec3) {
	m := &t.m
	xAbsSum := math32.Abs(m.At(0, 0)*p.X) + math32.Abs(m.At(0, 1)*p.Y) +
		math32.Abs(m.At(0, 2)*p.Z) + math32.Abs(m.At(0, 3))
	yAbsSum := math32.Abs(m.At(1, 0)*p.X) + math32.Abs(m.At(1, 1)*p.Y) +
		math32.Abs(m.At(1, 2)*p.Z) + math32.Abs(m.At(1, 3))
	zAbsSum := math32.Abs(m.At(2, 0)*p.X) + math32.Abs(m.At(2, 1)*p.Y) +
		math32.Abs(m.At(2, 2)*p.Z) + math32.Abs(m.At(2, 3))
	return t.Point(p), NewVec3(xAbsSum, yAbsSum, zAbsSum).Multiply(Gamma(3))
}

// PointWithAbsError applies the transform to a point that already carries
// absolute error pErr. The returned bound covers both the incoming error
// carried through the matrix and the rounding of this transform.
func (t *Transform) PointWithAbsError(p, pErr Vec3) (Vec3, Vec3) {
	m := &t.m
	g3 := Gamma(3)
	row := func(r int) float32 {
		carried := math32.Abs(m.At(r, 0))*pErr.X + math32.Abs(m.At(r, 1))*pErr.Y +
			math32.Abs(m.At(r, 2))*pErr.Z
		rounding := math32.Abs(m.At(r, 0)*p.X) + math32.Abs(m.At(r, 1)*p.Y) +
			math32.Abs(m.At(r, 2)*p.Z) + math32.Abs(m.At(r, 3))
		return (g3+1)*carried + g3*rounding
	}
	return t.Point(p), NewVec3(row(0), row(1), row(2))
}

// Vector applies the linear part of the transform to a direction
func (t *Transform) Vector(v Vec3) Vec3 {
	m := &t.m
	return NewVec3(
		m.At(0, 0)*v.X+m.At(0, 1)*v.Y+m.At(0, 2)*v.Z,
		m.At(1, 0)*v.X+m.At(1, 1)*v.Y+m.At(1, 2)*v.Z,
		m.At(2, 0)*v.X+m.At(2, 1)*v.Y+m.At(2, 2)*v.Z,
	)
}

// VectorWithError transforms a direction and bounds the rounding error
func (t *Transform) VectorWithError(v Vec3) (Vec3, Vec3) {
	m := &t.m
	g3 := Gamma(3)
	vErr := NewVec3(
		g3*(math32.Abs(m.At(0, 0)*v.X)+math32.Abs(m.At(0, 1)*v.Y)+math32.Abs(m.At(0, 2)*v.Z)),
		g3*(math32.Abs(m.At(1, 0)*v.X)+math32.Abs(m.At(1, 1)*v.Y)+math32.Abs(m.At(1, 2)*v.Z)),
		g3*(math32.Abs(m.At(2, 0)*v.X)+math32.Abs(m.At(2, 1)*v.Y)+math32.Abs(m.At(2, 2)*v.Z)),
	)
	return t.Vector(v), vErr
}

// Normal transforms a surface normal by the inverse transpose
func (t *Transform) Normal(n Normal3) Normal3 {
	mi := &t.mInv
	return NewNormal3(
		mi.At(0, 0)*n.X+mi.At(1, 0)*n.Y+mi.At(2, 0)*n.Z,
		mi.At(0, 1)*n.X+mi.At(1, 1)*n.Y+mi.At(2, 1)*n.Z,
		mi.At(0, 2)*n.X+mi.At(1, 2)*n.Y+mi.At(2, 2)*n.Z,
	)
}

// RayWithError transforms a ray and returns the error bounds of the new
// origin and direction. TMax is left unchanged so hit distances stay
// comparable with the caller's ray.
func (t *Transform) RayWithError(r Ray) (Ray, Vec3, Vec3) {
	o, oErr := t.PointWithError(r.Origin)
	d, dErr := t.VectorWithError(r.Direction)
	if lengthSquared := d.LengthSquared(); lengthSquared > 0 {
		dt := d.Abs().Dot(oErr) / lengthSquared
		o = o.Add(d.Multiply(dt))
	}
	return Ray{Origin: o, Direction: d, TMax: r.TMax, Time: r.Time}, oErr, dErr
}

// Bounds transforms all eight corners of b and returns their bounding box
func (t *Transform) Bounds(b Bounds3) Bounds3 {
	ret := EmptyBounds3()
	for c := 0; c < 8; c++ {
		ret = ret.UnionPoint(t.Point(b.Corner(c)))
	}
	return ret
}

// SurfaceInteraction maps an interaction into the transform's output space,
// propagating the point error bound
func (t *Transform) SurfaceInteraction(si *SurfaceInteraction) *SurfaceInteraction {
	ret := &SurfaceInteraction{}
	ret.P, ret.PError = t.PointWithAbsError(si.P, si.PError)
	ret.N = t.Normal(si.N).Normalize()
	ret.Wo = t.Vector(si.Wo).Normalize()
	ret.Time = si.Time
	ret.UV = si.UV
	ret.Dpdu = t.Vector(si.Dpdu)
	ret.Dpdv = t.Vector(si.Dpdv)
	ret.Dndu = t.Normal(si.Dndu)
	ret.Dndv = t.Normal(si.Dndv)
	ret.Shading.N = t.Normal(si.Shading.N).Normalize().Faceforward(ret.N.Vec())
	ret.Shading.Dpdu = t.Vector(si.Shading.Dpdu)
	ret.Shading.Dpdv = t.Vector(si.Shading.Dpdv)
	ret.Shading.Dndu = t.Normal(si.Shading.Dndu)
	ret.Shading.Dndv = t.Normal(si.Shading.Dndv)
	ret.FaceIndex = si.FaceIndex
	return ret
}
