package core

import "github.com/chewxy/math32"

// Bounds3 represents an axis-aligned bounding box
type Bounds3 struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewBounds3 creates the box spanned by two corner points in any order
func NewBounds3(p1, p2 Vec3) Bounds3 {
	return Bounds3{Min: p1.Min(p2), Max: p1.Max(p2)}
}

// EmptyBounds3 returns an inverted box that any union replaces
func EmptyBounds3() Bounds3 {
	inf := Infinity
	return Bounds3{
		Min: NewVec3(inf, inf, inf),
		Max: NewVec3(-inf, -inf, -inf),
	}
}

// NewBounds3FromPoints creates a box that bounds all given points
func NewBounds3FromPoints(points ...Vec3) Bounds3 {
	if len(points) == 0 {
		return Bounds3{}
	}

	b := Bounds3{Min: points[0], Max: points[0]}
	for _, point := range points[1:] {
		b = b.UnionPoint(point)
	}
	return b
}

// IntersectP tests a ray against the box using the slab method. The far
// distance of each slab is enlarged by 1 + 2·gamma(3) so rounding can never
// cause a ray that grazes the box to miss it.
func (b Bounds3) IntersectP(ray Ray) (t0, t1 float32, ok bool) {
	t0, t1 = 0, ray.TMax
	for axis := 0; axis < 3; axis++ {
		invDirection := 1 / ray.Direction.Index(axis)
		origin := ray.Origin.Index(axis)
		tNear := (b.Min.Index(axis) - origin) * invDirection
		tFar := (b.Max.Index(axis) - origin) * invDirection

		// Ensure tNear <= tFar (swap if needed)
		if tNear > tFar {
			tNear, tFar = tFar, tNear
		}
		tFar *= 1 + 2*Gamma(3)

		// NaN comparisons fall through and keep the previous interval
		if tNear > t0 {
			t0 = tNear
		}
		if tFar < t1 {
			t1 = tFar
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// Union returns a box that bounds both this box and another
func (b Bounds3) Union(other Bounds3) Bounds3 {
	return Bounds3{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// UnionPoint returns a box that bounds this box and the point
func (b Bounds3) UnionPoint(p Vec3) Bounds3 {
	return Bounds3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Lerp interpolates between the corners independently per axis; t = (0,0,0)
// yields Min and t = (1,1,1) yields Max
func (b Bounds3) Lerp(t Vec3) Vec3 {
	return NewVec3(
		Lerp(t.X, b.Min.X, b.Max.X),
		Lerp(t.Y, b.Min.Y, b.Max.Y),
		Lerp(t.Z, b.Min.Z, b.Max.Z),
	)
}

// Corner returns one of the eight corners; bit i of c selects Max on axis i
func (b Bounds3) Corner(c int) Vec3 {
	pick := func(bit int, lo, hi float32) float32 {
		if c&bit != 0 {
			return hi
		}
		return lo
	}
	return NewVec3(pick(1, b.Min.X, b.Max.X), pick(2, b.Min.Y, b.Max.Y), pick(4, b.Min.Z, b.Max.Z))
}

// Center returns the center point of the box
func (b Bounds3) Center() Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// Diagonal returns the extent of the box along each axis
func (b Bounds3) Diagonal() Vec3 {
	return b.Max.Subtract(b.Min)
}

// SurfaceArea returns the surface area of the box
func (b Bounds3) SurfaceArea() float32 {
	size := b.Diagonal()
	return 2 * (size.X*size.Y + size.Y*size.Z + size.Z*size.X)
}

// MaximumExtent returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (b Bounds3) MaximumExtent() int {
	size := b.Diagonal()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// Inside reports whether p lies within the box, boundary included
func (b Bounds3) Inside(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// IsValid returns true if min <= max on every axis
func (b Bounds3) IsValid() bool {
	return b.Min.X <= b.Max.X &&
		b.Min.Y <= b.Max.Y &&
		b.Min.Z <= b.Max.Z
}

// Expand returns a box grown by the given amount in all directions
func (b Bounds3) Expand(amount float32) Bounds3 {
	expansion := NewVec3(amount, amount, amount)
	return Bounds3{
		Min: b.Min.Subtract(expansion),
		Max: b.Max.Add(expansion),
	}
}

// BoundingSphere returns the center and radius of a sphere enclosing the box
func (b Bounds3) BoundingSphere() (Vec3, float32) {
	center := b.Center()
	if !b.Inside(center) {
		return center, 0
	}
	return center, math32.Sqrt(center.Subtract(b.Max).LengthSquared())
}
