package core

import (
	"github.com/chewxy/math32"
)

// Vec3 represents a 3D point or direction
type Vec3 struct {
	X, Y, Z float32
}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float32) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Divide returns the vector divided by a scalar
func (v Vec3) Divide(scalar float32) Vec3 {
	inv := 1 / scalar
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Normalize returns a unit vector in the same direction
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{0, 0, 0}
	}
	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// MultiplyVec returns component-wise multiplication of two vectors
func (v Vec3) MultiplyVec(other Vec3) Vec3 {
	return Vec3{
		X: v.X * other.X,
		Y: v.Y * other.Y,
		Z: v.Z * other.Z,
	}
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{
		X: -v.X,
		Y: -v.Y,
		Z: -v.Z,
	}
}

// Abs returns the component-wise absolute value
func (v Vec3) Abs() Vec3 {
	return Vec3{math32.Abs(v.X), math32.Abs(v.Y), math32.Abs(v.Z)}
}

// Min returns the component-wise minimum of two vectors
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{math32.Min(v.X, other.X), math32.Min(v.Y, other.Y), math32.Min(v.Z, other.Z)}
}

// Max returns the component-wise maximum of two vectors
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{math32.Max(v.X, other.X), math32.Max(v.Y, other.Y), math32.Max(v.Z, other.Z)}
}

// MaxComponent returns the largest of the three components
func (v Vec3) MaxComponent() float32 {
	return math32.Max(v.X, math32.Max(v.Y, v.Z))
}

// MinComponent returns the smallest of the three components
func (v Vec3) MinComponent() float32 {
	return math32.Min(v.X, math32.Min(v.Y, v.Z))
}

// MaxDimension returns the axis (0=X, 1=Y, 2=Z) of the largest component
func (v Vec3) MaxDimension() int {
	if v.X > v.Y {
		if v.X > v.Z {
			return 0
		}
		return 2
	}
	if v.Y > v.Z {
		return 1
	}
	return 2
}

// Index returns the component for axis i (0=X, 1=Y, 2=Z)
func (v Vec3) Index(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// WithIndex returns a copy of v with axis i set to value
func (v Vec3) WithIndex(i int, value float32) Vec3 {
	switch i {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// Permute reorders the components so that the result is (v[x], v[y], v[z])
func (v Vec3) Permute(x, y, z int) Vec3 {
	return Vec3{v.Index(x), v.Index(y), v.Index(z)}
}

// Distance returns the distance between two points
func (v Vec3) Distance(other Vec3) float32 {
	return v.Subtract(other).Length()
}

// Lerp interpolates component-wise between v and other
func (v Vec3) Lerp(t float32, other Vec3) Vec3 {
	return Vec3{Lerp(t, v.X, other.X), Lerp(t, v.Y, other.Y), Lerp(t, v.Z, other.Z)}
}

// IsZero reports whether all components are zero
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// HasNaN reports whether any component is NaN
func (v Vec3) HasNaN() bool {
	return math32.IsNaN(v.X) || math32.IsNaN(v.Y) || math32.IsNaN(v.Z)
}

// Normal3 is a surface normal. Unlike Vec3 it transforms by the
// inverse transpose of a linear map.
type Normal3 struct {
	X, Y, Z float32
}

// NewNormal3 creates a new Normal3
func NewNormal3(x, y, z float32) Normal3 {
	return Normal3{X: x, Y: y, Z: z}
}

// NormalFromVec reinterprets a vector as a normal
func NormalFromVec(v Vec3) Normal3 {
	return Normal3{v.X, v.Y, v.Z}
}

// Vec reinterprets the normal as a vector
func (n Normal3) Vec() Vec3 {
	return Vec3{n.X, n.Y, n.Z}
}

// Dot returns the dot product with a vector
func (n Normal3) Dot(v Vec3) float32 {
	return n.X*v.X + n.Y*v.Y + n.Z*v.Z
}

// Negate returns the opposite normal
func (n Normal3) Negate() Normal3 {
	return Normal3{-n.X, -n.Y, -n.Z}
}

// Normalize returns the unit-length normal
func (n Normal3) Normalize() Normal3 {
	return NormalFromVec(n.Vec().Normalize())
}

// Abs returns the component-wise absolute value
func (n Normal3) Abs() Vec3 {
	return n.Vec().Abs()
}

// Faceforward flips n into the hemisphere of v
func (n Normal3) Faceforward(v Vec3) Normal3 {
	if n.Dot(v) < 0 {
		return n.Negate()
	}
	return n
}

// IsZero reports whether all components are zero
func (n Normal3) IsZero() bool {
	return n.X == 0 && n.Y == 0 && n.Z == 0
}

// Faceforward flips v so that it lies in the hemisphere of n
func Faceforward(v Vec3, n Normal3) Vec3 {
	if n.Dot(v) < 0 {
		return v.Negate()
	}
	return v
}

// CoordinateSystem returns two unit vectors that form an orthonormal basis with unit v
func CoordinateSystem(v Vec3) (Vec3, Vec3) {
	var v2 Vec3
	if math32.Abs(v.X) > math32.Abs(v.Y) {
		v2 = Vec3{-v.Z, 0, v.X}.Divide(math32.Sqrt(v.X*v.X + v.Z*v.Z))
	} else {
		v2 = Vec3{0, v.Z, -v.Y}.Divide(math32.Sqrt(v.Y*v.Y + v.Z*v.Z))
	}
	return v2, v.Cross(v2)
}

// Vec2 represents a 2D parametric coordinate or sample pair
type Vec2 struct {
	X, Y float32
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Subtract returns the difference of two vectors
func (v Vec2) Subtract(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Multiply returns the vector scaled by a scalar
func (v Vec2) Multiply(scalar float32) Vec2 {
	return Vec2{v.X * scalar, v.Y * scalar}
}
