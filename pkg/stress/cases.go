package stress

import (
	"fmt"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/geometry"
)

// Case builds a random shape instance to stress. Convex cases are tested
// with rays leaving into the hemisphere of the normal; the rest are flat and
// tested with rays in every direction.
type Case struct {
	Name   string
	Convex bool
	Inward bool // Normals face the interior, as with reversed orientation
	New    func(sampler core.Sampler) (geometry.Shape, error)
}

// randomPhiMax returns a full sweep half the time, otherwise a sweep in (0, 360]
func randomPhiMax(sampler core.Sampler) float32 {
	if sampler.Get1D() < 0.5 {
		return 360
	}
	return 360 * (1 - sampler.Get1D())
}

// randomSign returns ±1 with equal probability
func randomSign(sampler core.Sampler) float32 {
	if sampler.Get1D() < 0.5 {
		return -1
	}
	return 1
}

// BuiltinCases returns one case per shape variant
func BuiltinCases() []Case {
	identity := core.Identity()
	return []Case{
		{
			Name:   "sphere",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				return geometry.NewFullSphere(identity, identity, false, LogUniform(sampler, 4))
			},
		},
		{
			Name:   "partial-sphere",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				radius := LogUniform(sampler, 4)
				zMin, zMax := -radius, radius
				if sampler.Get1D() >= 0.5 {
					zMin = core.Lerp(sampler.Get1D(), -radius, radius)
				}
				if sampler.Get1D() >= 0.5 {
					zMax = core.Lerp(sampler.Get1D(), -radius, radius)
				}
				return geometry.NewSphere(identity, identity, false, radius, zMin, zMax, randomPhiMax(sampler))
			},
		},
		{
			Name:   "transformed-sphere",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				axis := core.UniformSampleSphere(sampler.Get2D())
				objectToWorld := core.Translate(logUniformPoint(sampler, 2)).
					Compose(core.Rotate(360*sampler.Get1D(), axis))
				return geometry.NewFullSphere(objectToWorld, objectToWorld.Inverse(), false, LogUniform(sampler, 2))
			},
		},
		{
			Name:   "cylinder",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				radius := LogUniform(sampler, 4)
				zMin := LogUniform(sampler, 4) * randomSign(sampler)
				zMax := LogUniform(sampler, 4) * randomSign(sampler)
				return geometry.NewCylinder(identity, identity, false, radius, zMin, zMax, randomPhiMax(sampler))
			},
		},
		{
			Name:   "cone",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				height := LogUniform(sampler, 4)
				radius := LogUniform(sampler, 4)
				return geometry.NewCone(identity, identity, false, height, radius, 360)
			},
		},
		{
			Name:   "paraboloid",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				radius := LogUniform(sampler, 4)
				z0 := LogUniform(sampler, 4)
				z1 := LogUniform(sampler, 4)
				return geometry.NewParaboloid(identity, identity, false, radius, z0, z1, 360)
			},
		},
		{
			Name:   "disk",
			Convex: true,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				height := LogUniform(sampler, 4) * randomSign(sampler)
				radius := LogUniform(sampler, 4)
				var inner float32
				if sampler.Get1D() < 0.5 {
					inner = 0.5 * radius * sampler.Get1D()
				}
				return geometry.NewDisk(identity, identity, false, height, radius, inner, randomPhiMax(sampler))
			},
		},
		{
			Name:   "triangle",
			Convex: false,
			New: func(sampler core.Sampler) (geometry.Shape, error) {
				positions := []core.Vec3{
					logUniformPoint(sampler, 8),
					logUniformPoint(sampler, 8),
					logUniformPoint(sampler, 8),
				}
				tris, err := geometry.CreateTriangleMesh(identity, identity, false,
					[]int{0, 1, 2}, positions, nil)
				if err != nil {
					return nil, err
				}
				return tris[0], nil
			},
		},
	}
}

// MeshCase stresses the triangles of an existing mesh, picking one per seed
func MeshCase(name string, mesh *geometry.TriangleMesh) Case {
	triangles := mesh.Triangles()
	return Case{
		Name:   name,
		Convex: false,
		New: func(sampler core.Sampler) (geometry.Shape, error) {
			if len(triangles) == 0 {
				return nil, fmt.Errorf("mesh %q has no triangles: %w", name, geometry.ErrInvalidMesh)
			}
			i := int(sampler.Get1D() * float32(len(triangles)))
			return triangles[min(i, len(triangles)-1)], nil
		},
	}
}

// SelectCases returns the named case, or every case for "all"
func SelectCases(cases []Case, name string) ([]Case, error) {
	if name == "all" {
		return cases, nil
	}
	for _, c := range cases {
		if c.Name == name {
			return []Case{c}, nil
		}
	}
	return nil, fmt.Errorf("unknown case %q", name)
}

// ShapeCase stresses one fixed shape, varying only the rays per seed
func ShapeCase(name string, shape geometry.Shape, convex, inward bool) Case {
	return Case{
		Name:   name,
		Convex: convex,
		Inward: inward,
		New: func(core.Sampler) (geometry.Shape, error) {
			return shape, nil
		},
	}
}
