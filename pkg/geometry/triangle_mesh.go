package geometry

import (
	"fmt"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// TriangleMesh holds the world-space vertex data shared by all of its
// triangles. It is never modified after construction.
type TriangleMesh struct {
	ShapeBase
	NumTriangles  int
	VertexIndices []int
	P             []core.Vec3    // World-space positions
	N             []core.Normal3 // Optional world-space shading normals
	S             []core.Vec3    // Optional world-space tangents
	UV            []core.Vec2    // Optional per-vertex parametric coordinates
	AlphaMask     func(uv core.Vec2) float32
	FaceIndices   []int
}

// TriangleMeshOptions contains optional per-vertex and per-face data for
// triangle mesh creation. Any field may be left empty.
type TriangleMeshOptions struct {
	Normals     []core.Normal3 // One per vertex
	UVs         []core.Vec2    // One per vertex
	Tangents    []core.Vec3    // One per vertex
	AlphaMask   func(uv core.Vec2) float32
	FaceIndices []int // One per triangle
}

// NewTriangleMesh validates the buffers and transforms them to world space
// indices: groups of three vertex indices, one group per triangle
// positions: object-space vertex positions
// options: optional parameters (can be nil for a bare mesh)
func NewTriangleMesh(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	indices []int, positions []core.Vec3, options *TriangleMeshOptions) (*TriangleMesh, error) {
	base, err := NewShapeBase(objectToWorld, worldToObject, reverseOrientation)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a positive multiple of 3: %w", len(indices), ErrInvalidMesh)
	}
	numTriangles := len(indices) / 3
	numVertices := len(positions)

	// Bounds check
	for i, idx := range indices {
		if idx < 0 || idx >= numVertices {
			return nil, fmt.Errorf("index %d at position %d out of range [0, %d): %w", idx, i, numVertices, ErrInvalidMesh)
		}
	}
	if options == nil {
		options = &TriangleMeshOptions{}
	}
	if options.Normals != nil && len(options.Normals) != numVertices {
		return nil, fmt.Errorf("%d normals for %d vertices: %w", len(options.Normals), numVertices, ErrInvalidMesh)
	}
	if options.UVs != nil && len(options.UVs) != numVertices {
		return nil, fmt.Errorf("%d uvs for %d vertices: %w", len(options.UVs), numVertices, ErrInvalidMesh)
	}
	if options.Tangents != nil && len(options.Tangents) != numVertices {
		return nil, fmt.Errorf("%d tangents for %d vertices: %w", len(options.Tangents), numVertices, ErrInvalidMesh)
	}
	if options.FaceIndices != nil && len(options.FaceIndices) != numTriangles {
		return nil, fmt.Errorf("%d face indices for %d triangles: %w", len(options.FaceIndices), numTriangles, ErrInvalidMesh)
	}

	mesh := &TriangleMesh{
		ShapeBase:     base,
		NumTriangles:  numTriangles,
		VertexIndices: append([]int(nil), indices...),
		P:             make([]core.Vec3, numVertices),
		AlphaMask:     options.AlphaMask,
	}

	// Transform mesh vertices to world space
	for i, p := range positions {
		if p.HasNaN() || !core.IsFinite(p.X) || !core.IsFinite(p.Y) || !core.IsFinite(p.Z) {
			return nil, fmt.Errorf("vertex %d %v is not finite: %w", i, p, ErrInvalidMesh)
		}
		mesh.P[i] = objectToWorld.Point(p)
	}
	if options.Normals != nil {
		mesh.N = make([]core.Normal3, numVertices)
		for i, n := range options.Normals {
			mesh.N[i] = objectToWorld.Normal(n)
			if reverseOrientation {
				mesh.N[i] = mesh.N[i].Negate()
			}
		}
	}
	if options.Tangents != nil {
		mesh.S = make([]core.Vec3, numVertices)
		for i, s := range options.Tangents {
			mesh.S[i] = objectToWorld.Vector(s)
		}
	}
	if options.UVs != nil {
		mesh.UV = append([]core.Vec2(nil), options.UVs...)
	}
	if options.FaceIndices != nil {
		mesh.FaceIndices = append([]int(nil), options.FaceIndices...)
	}
	return mesh, nil
}

// CreateTriangleMesh builds a mesh and returns one Shape per triangle, all
// sharing the mesh
func CreateTriangleMesh(objectToWorld, worldToObject *core.Transform, reverseOrientation bool,
	indices []int, positions []core.Vec3, options *TriangleMeshOptions) ([]Shape, error) {
	mesh, err := NewTriangleMesh(objectToWorld, worldToObject, reverseOrientation, indices, positions, options)
	if err != nil {
		return nil, err
	}
	return mesh.Triangles(), nil
}

// Triangles returns a shape for every triangle of the mesh
func (m *TriangleMesh) Triangles() []Shape {
	triangles := make([]Shape, m.NumTriangles)
	for i := range triangles {
		triangles[i] = &Triangle{mesh: m, index: i}
	}
	return triangles
}

// WorldBound returns the bounding box of every vertex referenced by the mesh
func (m *TriangleMesh) WorldBound() core.Bounds3 {
	b := core.EmptyBounds3()
	for _, idx := range m.VertexIndices {
		b = b.UnionPoint(m.P[idx])
	}
	return b
}
