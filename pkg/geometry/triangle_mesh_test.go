package geometry

import (
	"errors"
	"testing"

	"github.com/df07/go-shape-kernel/pkg/core"
	"go.viam.com/test"
)

// quadPositions and quadIndices describe a unit square split into two triangles
var quadPositions = []core.Vec3{
	core.NewVec3(0, 0, 0), // 0
	core.NewVec3(1, 0, 0), // 1
	core.NewVec3(1, 1, 0), // 2
	core.NewVec3(0, 1, 0), // 3
}

var quadIndices = []int{
	0, 1, 2, // first triangle
	0, 2, 3, // second triangle
}

func TestTriangleMesh_Creation(t *testing.T) {
	o2w := core.Translate(core.NewVec3(1, 2, 3))
	mesh, err := NewTriangleMesh(o2w, nil, false, quadIndices, quadPositions,
		&TriangleMeshOptions{FaceIndices: []int{7, 9}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mesh.NumTriangles, test.ShouldEqual, 2)

	triangles := mesh.Triangles()
	test.That(t, len(triangles), test.ShouldEqual, 2)

	for i, s := range triangles {
		tri := s.(*Triangle)
		test.That(t, tri.Mesh(), test.ShouldEqual, mesh)
		p0, p1, p2 := tri.Vertices()
		for j, p := range []core.Vec3{p0, p1, p2} {
			want := o2w.Point(quadPositions[quadIndices[3*i+j]])
			test.That(t, p, test.ShouldResemble, want)
		}
		test.That(t, tri.FaceIndex(), test.ShouldEqual, []int{7, 9}[i])
	}

	// Test bounding box
	bbox := mesh.WorldBound()
	test.That(t, bbox.Min, test.ShouldResemble, core.NewVec3(1, 2, 3))
	test.That(t, bbox.Max, test.ShouldResemble, core.NewVec3(2, 3, 3))

	// Object bound of a triangle maps back to the untransformed vertices
	ob := triangles[0].ObjectBound()
	test.That(t, float64(ob.Max.X), test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, float64(ob.Max.Y), test.ShouldAlmostEqual, 1, 1e-6)
}

func TestTriangleMesh_InputIsCopied(t *testing.T) {
	positions := append([]core.Vec3(nil), quadPositions...)
	indices := append([]int(nil), quadIndices...)
	shapes, err := CreateTriangleMesh(core.Identity(), nil, false, indices, positions, nil)
	test.That(t, err, test.ShouldBeNil)

	positions[0] = core.NewVec3(100, 100, 100)
	indices[0] = 3
	p0, _, _ := shapes[0].(*Triangle).Vertices()
	test.That(t, p0, test.ShouldResemble, core.NewVec3(0, 0, 0))
}

func TestTriangleMesh_Hit(t *testing.T) {
	shapes, err := CreateTriangleMesh(core.Identity(), nil, false, quadIndices, quadPositions, nil)
	test.That(t, err, test.ShouldBeNil)

	tests := []struct {
		name      string
		origin    core.Vec3
		wantFace  int
		wantCount int
	}{
		{"first triangle", core.NewVec3(0.75, 0.25, 1), 0, 1},
		{"second triangle", core.NewVec3(0.25, 0.75, 1), 1, 1},
		{"outside the quad", core.NewVec3(1.5, 0.5, 1), -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.origin, core.NewVec3(0, 0, -1))
			count := 0
			for _, s := range shapes {
				_, si, ok := s.Intersect(ray, false)
				if !ok {
					continue
				}
				count++
				if si.FaceIndex != tt.wantFace {
					t.Errorf("Expected face %d, got %d", tt.wantFace, si.FaceIndex)
				}
			}
			if count != tt.wantCount {
				t.Errorf("Expected %d hits, got %d", tt.wantCount, count)
			}
		})
	}
}

func TestTriangleMesh_InvalidInput(t *testing.T) {
	id := core.Identity()
	tests := []struct {
		name      string
		indices   []int
		positions []core.Vec3
		opts      *TriangleMeshOptions
	}{
		{"no indices", nil, quadPositions, nil},
		{"index count not multiple of 3", []int{0, 1}, quadPositions, nil},
		{"index out of range", []int{0, 1, 4}, quadPositions, nil},
		{"negative index", []int{0, -1, 2}, quadPositions, nil},
		{"normals count mismatch", quadIndices, quadPositions, &TriangleMeshOptions{Normals: make([]core.Normal3, 3)}},
		{"uvs count mismatch", quadIndices, quadPositions, &TriangleMeshOptions{UVs: make([]core.Vec2, 5)}},
		{"tangents count mismatch", quadIndices, quadPositions, &TriangleMeshOptions{Tangents: make([]core.Vec3, 1)}},
		{"face indices count mismatch", quadIndices, quadPositions, &TriangleMeshOptions{FaceIndices: []int{1}}},
		{"non-finite vertex", []int{0, 1, 2}, []core.Vec3{{}, {X: 1}, {Y: core.Infinity}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes, err := CreateTriangleMesh(id, nil, false, tt.indices, tt.positions, tt.opts)
			test.That(t, shapes, test.ShouldBeNil)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, ErrInvalidMesh), test.ShouldBeTrue)
		})
	}

	_, err := CreateTriangleMesh(nil, nil, false, quadIndices, quadPositions, nil)
	test.That(t, errors.Is(err, ErrInvalidParameter), test.ShouldBeTrue)
}

func TestTriangleMesh_NormalsFollowTransform(t *testing.T) {
	up := core.NewNormal3(0, 0, 1)
	normals := []core.Normal3{up, up, up, up}
	flip, err := core.Scale(1, 1, -1)
	test.That(t, err, test.ShouldBeNil)

	tests := []struct {
		name    string
		o2w     *core.Transform
		reverse bool
		wantZ   float32
	}{
		{"identity", core.Identity(), false, 1},
		{"reversed", core.Identity(), true, -1},
		{"mirrored", flip, false, -1},
		{"mirrored and reversed", flip, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := NewTriangleMesh(tt.o2w, nil, tt.reverse, quadIndices, quadPositions,
				&TriangleMeshOptions{Normals: normals})
			test.That(t, err, test.ShouldBeNil)
			for _, n := range mesh.N {
				test.That(t, n.Z, test.ShouldEqual, tt.wantZ)
			}
		})
	}
}
